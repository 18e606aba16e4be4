package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/finance"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions/filter"
	txrepo "github.com/FACorreiaa/pocket-ledger/internal/domain/transactions/repository"
	"github.com/FACorreiaa/pocket-ledger/pkg/money"
)

func listCmd() *cobra.Command {
	var (
		flags  filterFlags
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		Long:  `List transactions matching the filter flags, newest first. Without filters the current month is listed.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := currentUser()
			if err != nil {
				return err
			}
			spec, err := flags.spec(cfg.Location)
			if err != nil {
				return err
			}

			return withDeps(cmd.Context(), func(d *Dependencies) error {
				txs, err := d.TransactionsService.List(cmd.Context(), userID, spec, txrepo.Page{Limit: limit, Offset: offset})
				if err != nil {
					return err
				}
				if len(txs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), emptyListHint(spec))
					return nil
				}
				printTransactions(cmd.OutOrStdout(), txs, cfg.Location, cfg.Alerts.Currency)
				return nil
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows (0 for all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")

	return cmd
}

func emptyListHint(spec filter.Spec) string {
	if spec.IsEmpty() {
		return "No transactions this month."
	}
	return "No transactions match."
}

func printTransactions(out io.Writer, txs []*transactions.Transaction, loc *time.Location, currency string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "DATE\tAMOUNT\tCATEGORY\tBANK\tACCOUNT\tDESCRIPTION\tID")
	for _, tx := range txs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.Timestamp.In(loc).Format("2006-01-02 15:04"),
			money.FormatSigned(tx.Amount, currency),
			tx.Category,
			tx.Bank,
			tx.Account,
			tx.Description,
			tx.ID,
		)
	}
}

func submitCmd() *cobra.Command {
	var (
		bankMessage string
		bankName    string
		timestamp   string
		remarks     string
	)

	cmd := &cobra.Command{
		Use:   "submit [text]",
		Short: "Record a bank notification",
		Long: `Record a bank notification as a transaction. Pass the notification with its
metadata through flags, or as free text:

  ledger submit --bank-message "..." --bank UOB --timestamp 2026-03-01T08:15:00+08:00 --remarks coffee
  ledger submit "<bank message>,UOB,2026-03-01T08:15:00+08:00,coffee"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := currentUser()
			if err != nil {
				return err
			}
			if bankMessage == "" && len(args) == 0 {
				return errors.New("pass --bank-message or the notification text")
			}

			return withDeps(cmd.Context(), func(d *Dependencies) error {
				var receipt *finance.Receipt
				if bankMessage != "" {
					ts := timestamp
					if ts == "" {
						ts = time.Now().In(cfg.Location).Format(time.RFC3339)
					}
					receipt, err = d.CaptureService.Submit(cmd.Context(), userID, finance.StructuredInput{
						BankMessage: bankMessage,
						BankName:    bankName,
						Timestamp:   ts,
						Remarks:     remarks,
					})
				} else {
					receipt, err = d.CaptureService.SubmitText(cmd.Context(), userID, strings.Join(args, " "), time.Now().In(cfg.Location))
				}
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), receipt.Summary)
				if receipt.Transaction.Status != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Note: %s\n", receipt.Transaction.Status)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&bankMessage, "bank-message", "", "notification text as sent by the bank")
	cmd.Flags().StringVar(&bankName, "bank", "", "bank that sent the notification")
	cmd.Flags().StringVar(&timestamp, "timestamp", "", "when the notification arrived (default: now)")
	cmd.Flags().StringVar(&remarks, "remarks", "", "your note, used first for categorization")

	return cmd
}

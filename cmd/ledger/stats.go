package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/insights"
	"github.com/FACorreiaa/pocket-ledger/pkg/money"
)

func statsCmd() *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show income, expenses and the category breakdown of a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := currentUser()
			if err != nil {
				return err
			}
			year, m, err := parseMonth(month, time.Now().In(cfg.Location))
			if err != nil {
				return err
			}
			return withDeps(cmd.Context(), func(d *Dependencies) error {
				stats, err := d.InsightsService.MonthlyStats(cmd.Context(), userID, year, m)
				if err != nil {
					return err
				}
				printStats(cmd.OutOrStdout(), stats, cfg.Location, cfg.Alerts.Currency)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default: current month)")

	return cmd
}

// parseMonth reads YYYY-MM; empty means the month of now.
func parseMonth(s string, now time.Time) (int, time.Month, error) {
	if s == "" {
		return now.Year(), now.Month(), nil
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q, want YYYY-MM", s)
	}
	return t.Year(), t.Month(), nil
}

func printStats(out io.Writer, s *insights.MonthlyStats, loc *time.Location, currency string) {
	fmt.Fprintf(out, "%s %d (%d transactions)\n", s.Month, s.Year, s.Count)
	fmt.Fprintf(out, "Income:            %s\n", money.FormatCode(s.Income, currency))
	fmt.Fprintf(out, "Expense:           %s\n", money.FormatCode(s.Expense, currency))
	fmt.Fprintf(out, "Net of disbursed:  %s\n", money.FormatCode(s.DisbursedExpense, currency))

	if len(s.Breakdown) > 0 {
		fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CATEGORY\tAMOUNT\tCOUNT")
		for _, c := range s.Breakdown {
			fmt.Fprintf(w, "%s\t%s\t%d\n", c.Category, money.FormatSigned(c.Amount, currency), c.Count)
		}
		w.Flush()
	}

	if len(s.BigTickets) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Big tickets:")
		printTransactions(out, s.BigTickets, loc, currency)
	}
}

func budgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Check month-to-date spending against budgets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := currentUser()
			if err != nil {
				return err
			}
			return withDeps(cmd.Context(), func(d *Dependencies) error {
				report, err := d.InsightsService.BudgetAlerts(cmd.Context(), userID, time.Now())
				if err != nil {
					return err
				}
				for _, line := range report.Lines() {
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				return nil
			})
		},
	}

	cmd.AddCommand(setBudgetCmd())

	return cmd
}

func setBudgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <category|monthly> <amount>",
		Short: "Set a budget; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := currentUser()
			if err != nil {
				return err
			}
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid amount %q", args[1])
			}
			return withDeps(cmd.Context(), func(d *Dependencies) error {
				if err := d.CategorizationService.SetBudget(cmd.Context(), userID, args[0], amount); err != nil {
					return err
				}
				if amount.IsZero() {
					fmt.Fprintf(cmd.OutOrStdout(), "Budget for %s removed\n", args[0])
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Budget for %s set to %s\n", args[0], money.FormatCode(amount, cfg.Alerts.Currency))
				}
				return nil
			})
		},
	}
}

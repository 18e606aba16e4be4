package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	trackingrepo "github.com/FACorreiaa/pocket-ledger/internal/domain/tracking/repository"
	trackingservice "github.com/FACorreiaa/pocket-ledger/internal/domain/tracking/service"
	"github.com/FACorreiaa/pocket-ledger/pkg/money"
)

func trackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Manage goals and spending limits",
		Long: `Goals and limits follow the transactions of some categories or accounts over
a daily, weekly, monthly or annual period.`,
	}

	cmd.AddCommand(listTrackingCmd())
	cmd.AddCommand(addTrackingCmd())
	cmd.AddCommand(deleteTrackingCmd())
	cmd.AddCommand(trackingStatusCmd())

	return cmd
}

func listTrackingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List goals and limits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := currentUser()
			if err != nil {
				return err
			}
			return withDeps(cmd.Context(), func(d *Dependencies) error {
				items, err := d.TrackingService.List(cmd.Context(), userID)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No goals or limits. Use 'ledger track add' to create one.")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				defer w.Flush()
				fmt.Fprintln(w, "ID\tNAME\tTYPE\tTARGET\tPERIOD\tSCOPE")
				for _, it := range items {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
						it.ID, it.Name, it.Type,
						money.FormatCode(it.TargetAmount, cfg.Alerts.Currency),
						it.Period, describeFilters(it))
				}
				return nil
			})
		},
	}
}

func addTrackingCmd() *cobra.Command {
	var (
		itemType         string
		target           string
		period           string
		categories       []string
		accounts         []string
		netDisbursements bool
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a goal or limit",
		Long: `Create a goal or limit. Scope it with --category and --account; an account is
written as BANK:ACCOUNT[:TYPE] with empty parts allowed, e.g. UOB:1234 or :9876.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := currentUser()
			if err != nil {
				return err
			}
			item, err := buildTrackingItem(args[0], itemType, target, period, categories, accounts, netDisbursements)
			if err != nil {
				return err
			}

			return withDeps(cmd.Context(), func(d *Dependencies) error {
				created, err := d.TrackingService.Create(cmd.Context(), userID, item)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s %q (%s)\n", created.Type, created.Name, created.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&itemType, "type", string(trackingrepo.ItemTypeLimit), "goal or limit")
	cmd.Flags().StringVar(&target, "target", "", "target amount")
	cmd.Flags().StringVar(&period, "period", string(trackingrepo.PeriodMonthly), "daily, weekly, monthly or annually")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "category in scope (repeatable)")
	cmd.Flags().StringArrayVar(&accounts, "account", nil, "account in scope as BANK:ACCOUNT[:TYPE] (repeatable)")
	cmd.Flags().BoolVar(&netDisbursements, "net-disbursements", false, "subtract reimbursements received on the scoped accounts")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

// buildTrackingItem assembles an item from command-line values. Validation
// beyond parsing is left to the tracking service.
func buildTrackingItem(name, itemType, target, period string, categories, accounts []string, netDisbursements bool) (*trackingrepo.Item, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(target))
	if err != nil {
		return nil, fmt.Errorf("invalid target %q", target)
	}

	item := &trackingrepo.Item{
		Name:             name,
		Type:             trackingrepo.ItemType(itemType),
		TargetAmount:     amount,
		Period:           trackingrepo.Period(period),
		NetDisbursements: netDisbursements,
		Filters:          trackingrepo.Filters{Categories: categories},
	}
	for _, a := range accounts {
		item.Filters.Accounts = append(item.Filters.Accounts, parseAccountFilter(a))
	}
	return item, nil
}

// parseAccountFilter reads BANK:ACCOUNT[:TYPE].
func parseAccountFilter(s string) trackingrepo.AccountFilter {
	parts := strings.SplitN(s, ":", 3)
	var af trackingrepo.AccountFilter
	af.Bank = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		af.Account = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		af.Type = strings.TrimSpace(parts[2])
	}
	return af
}

func describeFilters(it *trackingrepo.Item) string {
	var parts []string
	parts = append(parts, it.Filters.Categories...)
	for _, a := range it.Filters.Accounts {
		parts = append(parts, strings.Join([]string{a.Bank, a.Account, a.Type}, ":"))
	}
	s := strings.Join(parts, ", ")
	if it.NetDisbursements {
		s += " (net)"
	}
	return s
}

func deleteTrackingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a goal or limit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := currentUser()
			if err != nil {
				return err
			}
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[0], err)
			}
			return withDeps(cmd.Context(), func(d *Dependencies) error {
				if err := d.TrackingService.Delete(cmd.Context(), userID, id); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Deleted", id)
				return nil
			})
		},
	}
}

func trackingStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show progress of every goal and limit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := currentUser()
			if err != nil {
				return err
			}
			return withDeps(cmd.Context(), func(d *Dependencies) error {
				statuses, err := d.TrackingService.EvaluateAll(cmd.Context(), userID, d.TrackingService.Now())
				if err != nil {
					return err
				}
				if len(statuses) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No goals or limits.")
					return nil
				}
				printStatuses(cmd.OutOrStdout(), statuses, cfg.Alerts.Currency)
				return nil
			})
		},
	}
}

func printStatuses(out io.Writer, statuses []*trackingservice.Status, currency string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "NAME\tTYPE\tSINCE\tCURRENT\tTARGET\tPROGRESS\tSTATE")
	for _, st := range statuses {
		state := ""
		switch {
		case st.Exceeded():
			state = "exceeded"
		case st.Reached():
			state = "reached"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s%%\t%s\n",
			st.Item.Name,
			st.Item.Type,
			st.WindowStart.Format("2006-01-02"),
			money.FormatSigned(st.CurrentAmount, currency),
			money.FormatCode(st.Item.TargetAmount, currency),
			st.DisplayPercent().StringFixed(0),
			state,
		)
	}
}

package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/categorization"
	"github.com/FACorreiaa/pocket-ledger/pkg/money"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage categories",
		Long:  `List, add and delete categories. Default categories cannot be deleted.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>...",
		Short: "Add categories",
		Args:  cobra.MinimumNArgs(1),
		RunE: categoryAction(func(ctx context.Context, d *Dependencies, userID uuid.UUID, args []string) error {
			return d.CategorizationService.AddCategories(ctx, userID, args)
		}, "Added"),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>...",
		Short: "Delete categories",
		Args:  cobra.MinimumNArgs(1),
		RunE: categoryAction(func(ctx context.Context, d *Dependencies, userID uuid.UUID, args []string) error {
			return d.CategorizationService.DeleteCategories(ctx, userID, args)
		}, "Deleted"),
	})

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories with their keywords and budgets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := currentUser()
			if err != nil {
				return err
			}
			return withDeps(cmd.Context(), func(d *Dependencies) error {
				catCfg, err := d.CategorizationService.GetConfig(cmd.Context(), userID)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				defer w.Flush()
				fmt.Fprintln(w, "CATEGORY\tBUDGET\tKEYWORDS")
				if b, ok := catCfg.Budgets[categorization.MonthlyBudgetKey]; ok {
					fmt.Fprintf(w, "%s\t%s\t\n", categorization.MonthlyBudgetKey, money.FormatCode(b, cfg.Alerts.Currency))
				}
				for _, c := range catCfg.Categories {
					budget := "-"
					if b, ok := catCfg.Budgets[c.Name]; ok {
						budget = money.FormatCode(b, cfg.Alerts.Currency)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name, budget, strings.Join(c.Keywords, ", "))
				}
				return nil
			})
		},
	}
}

func keywordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "Manage category keywords",
		Long:  `Keywords are matched case-insensitively against remarks and descriptions. A keyword belongs to one category only.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <category> <keyword>...",
		Short: "Add keywords to a category",
		Args:  cobra.MinimumNArgs(2),
		RunE: categoryAction(func(ctx context.Context, d *Dependencies, userID uuid.UUID, args []string) error {
			return d.CategorizationService.AddKeywords(ctx, userID, args[0], args[1:])
		}, "Added"),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <category> <keyword>...",
		Short: "Delete keywords from a category",
		Args:  cobra.MinimumNArgs(2),
		RunE: categoryAction(func(ctx context.Context, d *Dependencies, userID uuid.UUID, args []string) error {
			return d.CategorizationService.DeleteKeywords(ctx, userID, args[0], args[1:])
		}, "Deleted"),
	})

	return cmd
}

// categoryAction runs a config mutation for the current user and reports the result.
func categoryAction(fn func(context.Context, *Dependencies, uuid.UUID, []string) error, verb string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		userID, err := currentUser()
		if err != nil {
			return err
		}
		return withDeps(cmd.Context(), func(d *Dependencies) error {
			if err := fn(cmd.Context(), d, userID, args); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", verb, strings.Join(args, " "))
			return nil
		})
	}
}

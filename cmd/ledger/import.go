package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	importservice "github.com/FACorreiaa/pocket-ledger/internal/domain/import/service"
)

func importCmd() *cobra.Command {
	var (
		createCategories bool
		onDuplicate      string
		errorsOut        string
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import transactions from a CSV or XLSX file",
		Long: `Import transactions in the export layout. Rows that fail are reported with
their line number and can be written to an error file, fixed and imported again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := currentUser()
			if err != nil {
				return err
			}
			policy, err := importservice.ParseDuplicatePolicy(onDuplicate)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open import file: %w", err)
			}
			defer f.Close()

			opts := importservice.Options{CreateNewCategories: createCategories, DuplicatePolicy: policy}

			return withDeps(cmd.Context(), func(d *Dependencies) error {
				var result *importservice.Result
				if isExcel(args[0]) {
					result, err = d.ImportService.ImportExcel(cmd.Context(), userID, f, opts)
				} else {
					result, err = d.ImportService.ImportCSV(cmd.Context(), userID, f, opts)
				}
				if err != nil {
					return err
				}

				printImportResult(cmd.OutOrStdout(), result)

				if errorsOut != "" && result.Failed > 0 {
					if err := writeFile(errorsOut, func(w io.Writer) error {
						return importservice.WriteErrorCSV(w, result)
					}); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Failed rows written to %s\n", errorsOut)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&createCategories, "create-categories", false, "create categories the file uses but the config lacks")
	cmd.Flags().StringVar(&onDuplicate, "on-duplicate", string(importservice.DuplicateRegenerate), "duplicate id policy (regenerate, skip)")
	cmd.Flags().StringVar(&errorsOut, "errors-out", "", "write failed rows to this CSV file")

	return cmd
}

func printImportResult(w io.Writer, r *importservice.Result) {
	fmt.Fprintf(w, "Imported %d, failed %d", r.Imported, r.Failed)
	if r.Regenerated > 0 {
		fmt.Fprintf(w, ", %d stored under a new id", r.Regenerated)
	}
	fmt.Fprintln(w)
	if len(r.NewCategories) > 0 {
		fmt.Fprintf(w, "New categories: %s\n", strings.Join(r.NewCategories, ", "))
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  line %d: %s", e.Line, e.Message)
		if len(e.Suggestions) > 0 {
			fmt.Fprintf(w, " (did you mean %s?)", strings.Join(e.Suggestions, ", "))
		}
		fmt.Fprintln(w)
	}
	if r.ErrorReport != nil {
		fmt.Fprintf(w, "Error report saved as %s (%s)\n", r.ErrorReport.Name, r.ErrorReport.ID)
	}
}

func exportCmd() *cobra.Command {
	var (
		flags  filterFlags
		xlsx   bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export transactions as CSV or XLSX",
		Long:  `Export the transactions matching the filter flags. Without filters every transaction is exported.`,
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
			if xlsx && output == "" {
				return errors.New("--xlsx needs --output")
			}

			return withDeps(cmd.Context(), func(d *Dependencies) error {
				write := func(w io.Writer) error {
					var n int
					var err error
					if xlsx || isExcel(output) {
						n, err = d.ImportService.ExportExcel(cmd.Context(), userID, spec, w)
					} else {
						n, err = d.ImportService.ExportCSV(cmd.Context(), userID, spec, w)
					}
					if err == nil {
						d.Logger.Info("transactions exported", "count", n, "output", output)
					}
					return err
				}
				if output == "" {
					return write(cmd.OutOrStdout())
				}
				return writeFile(output, write)
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "write an XLSX workbook")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")

	return cmd
}

func isExcel(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}

func writeFile(path string, fn func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(f)
}

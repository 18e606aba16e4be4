package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions/filter"
)

// filterFlags are the transaction filter options shared by list and export.
type filterFlags struct {
	from       string
	to         string
	categories []string
	accounts   []string
	banks      []string
	types      []string
	search     string
	matchCase  bool
	regex      bool
	amount     string
	amountOp   string
	signed     bool
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.from, "from", "", "start date (YYYY-MM-DD or RFC 3339)")
	fl.StringVar(&f.to, "to", "", "end date, inclusive (YYYY-MM-DD or RFC 3339)")
	fl.StringSliceVar(&f.categories, "category", nil, "category to include (repeatable)")
	fl.StringSliceVar(&f.accounts, "account", nil, "account to include (repeatable)")
	fl.StringSliceVar(&f.banks, "bank", nil, "bank to include (repeatable)")
	fl.StringSliceVar(&f.types, "type", nil, "transaction type to include (repeatable)")
	fl.StringVar(&f.search, "search", "", "text to find in the description")
	fl.BoolVar(&f.matchCase, "match-case", false, "case sensitive search")
	fl.BoolVar(&f.regex, "regex", false, "treat --search as a regular expression")
	fl.StringVar(&f.amount, "amount", "", "amount to compare against")
	fl.StringVar(&f.amountOp, "amount-op", string(filter.OperatorGreaterThan), "amount comparison (gt, lt)")
	fl.BoolVar(&f.signed, "signed", false, "compare signed amounts instead of magnitudes")
}

// spec turns the flags into a filter. Date-only bounds are read in loc.
func (f *filterFlags) spec(loc *time.Location) (filter.Spec, error) {
	var spec filter.Spec

	dr, err := filter.NewDateRange(f.from, f.to, loc)
	if err != nil {
		return spec, err
	}
	spec.DateRange = dr
	spec.Categories = f.categories
	spec.Accounts = f.accounts
	spec.Banks = f.banks
	spec.Types = f.types

	if strings.TrimSpace(f.search) != "" {
		spec.Text = &filter.TextClause{Query: f.search, MatchCase: f.matchCase, UseRegex: f.regex}
	}

	if strings.TrimSpace(f.amount) != "" {
		value, err := decimal.NewFromString(strings.TrimSpace(f.amount))
		if err != nil {
			return spec, fmt.Errorf("%w: invalid amount %q", filter.ErrInvalidSpec, f.amount)
		}
		mode := filter.AmountModeAbsolute
		if f.signed {
			mode = filter.AmountModeSigned
		}
		spec.Amount = &filter.AmountClause{Value: value, Operator: filter.Operator(f.amountOp), Mode: mode}
	}

	return spec, spec.Validate()
}

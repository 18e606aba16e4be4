// Package filter turns a declarative transaction filter into a predicate.
// The same Spec compiles to an in-memory Predicate or to a Postgres WHERE clause,
// so the absolute-amount rewrite stays a plain range condition on either backend.
package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
)

// ErrInvalidSpec is returned for filter specs that cannot be compiled.
var ErrInvalidSpec = errors.New("invalid filter")

// Operator is the comparison applied by an amount clause.
type Operator string

const (
	OperatorGreaterThan Operator = "gt"
	OperatorLessThan    Operator = "lt"
)

// AmountMode selects whether the amount clause compares the signed value or its magnitude.
type AmountMode string

const (
	AmountModeSigned   AmountMode = "signed"
	AmountModeAbsolute AmountMode = "absolute"
)

// AmountClause filters on the transaction amount.
type AmountClause struct {
	Value    decimal.Decimal
	Operator Operator
	Mode     AmountMode
}

// TextClause searches the description.
type TextClause struct {
	Query     string
	MatchCase bool
	UseRegex  bool
}

// DateRange bounds the transaction timestamp. Both ends are inclusive unless
// EndExclusive is set; nil ends are open.
type DateRange struct {
	Start        *time.Time
	End          *time.Time
	EndExclusive bool
}

// Scope is one alternative in an OR-group: every non-empty field must match.
type Scope struct {
	Category string
	Bank     string
	Account  string
	Type     string
}

// IsEmpty reports whether the scope sets no field.
func (s Scope) IsEmpty() bool {
	return strings.TrimSpace(s.Category) == "" &&
		strings.TrimSpace(s.Bank) == "" &&
		strings.TrimSpace(s.Account) == "" &&
		strings.TrimSpace(s.Type) == ""
}

// Spec is a storage-agnostic transaction filter.
// Set dimensions are OR within and AND across; Scopes are OR-combined with each other
// and AND-ed with the remaining dimensions.
type Spec struct {
	DateRange  *DateRange
	Categories []string
	Accounts   []string
	Banks      []string
	Types      []string
	Text       *TextClause
	Amount     *AmountClause
	Scopes     []Scope
}

// Predicate reports whether a transaction satisfies a compiled Spec.
type Predicate func(tx *transactions.Transaction) bool

// IsEmpty reports whether no dimension was supplied at all.
func (s Spec) IsEmpty() bool {
	return s.DateRange == nil &&
		len(s.Categories) == 0 &&
		len(s.Accounts) == 0 &&
		len(s.Banks) == 0 &&
		len(s.Types) == 0 &&
		(s.Text == nil || s.Text.Query == "") &&
		s.Amount == nil &&
		len(s.Scopes) == 0
}

// Validate checks the spec without compiling it.
func (s Spec) Validate() error {
	if s.DateRange != nil && s.DateRange.Start != nil && s.DateRange.End != nil &&
		s.DateRange.End.Before(*s.DateRange.Start) {
		return fmt.Errorf("%w: date range ends before it starts", ErrInvalidSpec)
	}
	if s.Amount != nil {
		switch s.Amount.Operator {
		case OperatorGreaterThan, OperatorLessThan:
		default:
			return fmt.Errorf("%w: unknown amount operator %q", ErrInvalidSpec, s.Amount.Operator)
		}
		switch s.Amount.Mode {
		case AmountModeSigned, AmountModeAbsolute, "":
		default:
			return fmt.Errorf("%w: unknown amount mode %q", ErrInvalidSpec, s.Amount.Mode)
		}
	}
	for i, scope := range s.Scopes {
		if scope.IsEmpty() {
			return fmt.Errorf("%w: scope %d has no fields set", ErrInvalidSpec, i)
		}
	}
	if s.Text != nil && s.Text.UseRegex {
		if _, err := s.Text.regexp(); err != nil {
			return fmt.Errorf("%w: bad pattern: %v", ErrInvalidSpec, err)
		}
	}
	return nil
}

// Predicate compiles the spec into an in-memory predicate.
func (s Spec) Predicate() (Predicate, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	var checks []Predicate

	if dr := s.DateRange; dr != nil {
		checks = append(checks, func(tx *transactions.Transaction) bool {
			if dr.Start != nil && tx.Timestamp.Before(*dr.Start) {
				return false
			}
			if dr.End != nil {
				if dr.EndExclusive && !tx.Timestamp.Before(*dr.End) {
					return false
				}
				if tx.Timestamp.After(*dr.End) {
					return false
				}
			}
			return true
		})
	}

	if len(s.Categories) > 0 {
		set := toSet(s.Categories, transactions.NormalizeCategory)
		checks = append(checks, func(tx *transactions.Transaction) bool {
			return set[transactions.NormalizeCategory(tx.Category)]
		})
	}
	if len(s.Accounts) > 0 {
		set := toSet(s.Accounts, identity)
		checks = append(checks, func(tx *transactions.Transaction) bool { return set[tx.Account] })
	}
	if len(s.Banks) > 0 {
		set := toSet(s.Banks, identity)
		checks = append(checks, func(tx *transactions.Transaction) bool { return set[tx.Bank] })
	}
	if len(s.Types) > 0 {
		set := toSet(s.Types, identity)
		checks = append(checks, func(tx *transactions.Transaction) bool { return set[tx.Type] })
	}

	if s.Text != nil && s.Text.Query != "" {
		match, err := s.Text.matcher()
		if err != nil {
			return nil, err
		}
		checks = append(checks, func(tx *transactions.Transaction) bool { return match(tx.Description) })
	}

	if s.Amount != nil {
		clause := *s.Amount
		checks = append(checks, func(tx *transactions.Transaction) bool { return clause.Matches(tx.Amount) })
	}

	if len(s.Scopes) > 0 {
		scopes := s.Scopes
		checks = append(checks, func(tx *transactions.Transaction) bool {
			for _, scope := range scopes {
				if scope.matches(tx) {
					return true
				}
			}
			return false
		})
	}

	return func(tx *transactions.Transaction) bool {
		for _, check := range checks {
			if !check(tx) {
				return false
			}
		}
		return true
	}, nil
}

// Matches applies the clause to an amount. Absolute mode is evaluated as a range
// on the signed value: |a| > x is a > x or a < -x, |a| < x is a < x and a > -x.
func (c AmountClause) Matches(amount decimal.Decimal) bool {
	v := c.Value
	if c.Mode == AmountModeAbsolute {
		if c.Operator == OperatorGreaterThan {
			return amount.GreaterThan(v) || amount.LessThan(v.Neg())
		}
		return amount.LessThan(v) && amount.GreaterThan(v.Neg())
	}
	if c.Operator == OperatorGreaterThan {
		return amount.GreaterThan(v)
	}
	return amount.LessThan(v)
}

func (s Scope) matches(tx *transactions.Transaction) bool {
	if c := strings.TrimSpace(s.Category); c != "" && transactions.NormalizeCategory(c) != transactions.NormalizeCategory(tx.Category) {
		return false
	}
	if b := strings.TrimSpace(s.Bank); b != "" && !strings.EqualFold(b, tx.Bank) {
		return false
	}
	if a := strings.TrimSpace(s.Account); a != "" && a != tx.Account {
		return false
	}
	if t := strings.TrimSpace(s.Type); t != "" && !strings.EqualFold(t, tx.Type) {
		return false
	}
	return true
}

func (c *TextClause) regexp() (*regexp.Regexp, error) {
	pattern := c.Query
	if !c.MatchCase {
		pattern = "(?i)" + pattern
	}
	return regexp.Compile(pattern)
}

func (c *TextClause) matcher() (func(string) bool, error) {
	if c.UseRegex {
		re, err := c.regexp()
		if err != nil {
			return nil, fmt.Errorf("%w: bad pattern: %v", ErrInvalidSpec, err)
		}
		return re.MatchString, nil
	}
	if c.MatchCase {
		q := c.Query
		return func(s string) bool { return strings.Contains(s, q) }, nil
	}
	q := strings.ToLower(c.Query)
	return func(s string) bool { return strings.Contains(strings.ToLower(s), q) }, nil
}

func toSet(values []string, norm func(string) string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[norm(v)] = true
	}
	return set
}

func identity(s string) string { return s }

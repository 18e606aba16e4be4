package filter

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
)

// SQL compiles the spec into a Postgres boolean expression over the transactions
// table. Placeholders start at $firstArg. An empty spec yields an empty clause.
func (s Spec) SQL(firstArg int) (string, []any, error) {
	if err := s.Validate(); err != nil {
		return "", nil, err
	}

	b := &sqlBuilder{next: firstArg}

	if dr := s.DateRange; dr != nil {
		if dr.Start != nil {
			b.add("timestamp >= %s", *dr.Start)
		}
		if dr.End != nil {
			if dr.EndExclusive {
				b.add("timestamp < %s", *dr.End)
			} else {
				b.add("timestamp <= %s", *dr.End)
			}
		}
	}

	if len(s.Categories) > 0 {
		cats := make([]string, 0, len(s.Categories))
		for _, c := range s.Categories {
			cats = append(cats, transactions.NormalizeCategory(c))
		}
		b.add("category = ANY(%s)", cats)
	}
	if len(s.Accounts) > 0 {
		b.add("account = ANY(%s)", s.Accounts)
	}
	if len(s.Banks) > 0 {
		b.add("bank = ANY(%s)", s.Banks)
	}
	if len(s.Types) > 0 {
		b.add("type = ANY(%s)", s.Types)
	}

	if t := s.Text; t != nil && t.Query != "" {
		switch {
		case t.UseRegex && t.MatchCase:
			b.add("description ~ %s", t.Query)
		case t.UseRegex:
			b.add("description ~* %s", t.Query)
		case t.MatchCase:
			b.add("strpos(description, %s) > 0", t.Query)
		default:
			b.add(`description ILIKE %s ESCAPE '\'`, "%"+escapeLike(t.Query)+"%")
		}
	}

	if a := s.Amount; a != nil {
		switch {
		case a.Mode == AmountModeAbsolute && a.Operator == OperatorGreaterThan:
			b.add("(amount > %s::numeric OR amount < %s::numeric)", a.Value.String(), a.Value.Neg().String())
		case a.Mode == AmountModeAbsolute:
			b.add("(amount < %s::numeric AND amount > %s::numeric)", a.Value.String(), a.Value.Neg().String())
		case a.Operator == OperatorGreaterThan:
			b.add("amount > %s::numeric", a.Value.String())
		default:
			b.add("amount < %s::numeric", a.Value.String())
		}
	}

	if len(s.Scopes) > 0 {
		alternatives := make([]string, 0, len(s.Scopes))
		for _, scope := range s.Scopes {
			var parts []string
			if c := strings.TrimSpace(scope.Category); c != "" {
				parts = append(parts, "category = "+b.arg(transactions.NormalizeCategory(c)))
			}
			if v := strings.TrimSpace(scope.Bank); v != "" {
				parts = append(parts, "lower(bank) = "+b.arg(strings.ToLower(v)))
			}
			if v := strings.TrimSpace(scope.Account); v != "" {
				parts = append(parts, "account = "+b.arg(v))
			}
			if v := strings.TrimSpace(scope.Type); v != "" {
				parts = append(parts, "lower(type) = "+b.arg(strings.ToLower(v)))
			}
			alternatives = append(alternatives, "("+strings.Join(parts, " AND ")+")")
		}
		b.clauses = append(b.clauses, "("+strings.Join(alternatives, " OR ")+")")
	}

	return strings.Join(b.clauses, " AND "), b.args, nil
}

type sqlBuilder struct {
	next    int
	clauses []string
	args    []any
}

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	p := fmt.Sprintf("$%d", b.next)
	b.next++
	return p
}

// add appends a clause whose %s verbs are replaced by fresh placeholders for values.
func (b *sqlBuilder) add(format string, values ...any) {
	placeholders := make([]any, len(values))
	for i, v := range values {
		placeholders[i] = b.arg(v)
	}
	b.clauses = append(b.clauses, fmt.Sprintf(format, placeholders...))
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

package filter

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
	"github.com/FACorreiaa/pocket-ledger/internal/testutil"
)

func tx(amount string, mutate ...func(*transactions.Transaction)) *transactions.Transaction {
	t := &transactions.Transaction{
		ID:          uuid.NewString(),
		Timestamp:   time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
		Bank:        "UOB",
		Type:        "Card",
		Amount:      decimal.RequireFromString(amount),
		Description: "lunch [Toast Box]",
		Account:     "1234",
		Category:    "food",
	}
	for _, m := range mutate {
		m(t)
	}
	return t
}

func mustPredicate(t *testing.T, s Spec) Predicate {
	t.Helper()
	p, err := s.Predicate()
	require.NoError(t, err)
	return p
}

func TestAbsoluteAmountMatchesMagnitude(t *testing.T) {
	gen := testutil.NewGeneratorWithSeed(42)

	for i := 0; i < 500; i++ {
		x := gen.Amount(0, 300)
		a := gen.SignedAmount(600)

		for _, op := range []Operator{OperatorGreaterThan, OperatorLessThan} {
			clause := AmountClause{Value: x, Operator: op, Mode: AmountModeAbsolute}

			var want bool
			if op == OperatorGreaterThan {
				want = a.Abs().GreaterThan(x)
			} else {
				want = a.Abs().LessThan(x)
			}
			assert.Equal(t, want, clause.Matches(a), "a=%s x=%s op=%s", a, x, op)
		}
	}
}

func TestAbsoluteAmountBoundaries(t *testing.T) {
	x := decimal.RequireFromString("50")

	tests := []struct {
		name   string
		amount string
		op     Operator
		want   bool
	}{
		{"equal positive not greater", "50", OperatorGreaterThan, false},
		{"equal negative not greater", "-50", OperatorGreaterThan, false},
		{"zero not greater", "0", OperatorGreaterThan, false},
		{"equal positive not less", "50", OperatorLessThan, false},
		{"equal negative not less", "-50", OperatorLessThan, false},
		{"zero less", "0", OperatorLessThan, true},
		{"large expense greater", "-120.50", OperatorGreaterThan, true},
		{"small expense less", "-12.50", OperatorLessThan, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause := AmountClause{Value: x, Operator: tt.op, Mode: AmountModeAbsolute}
			assert.Equal(t, tt.want, clause.Matches(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestSignedAmount(t *testing.T) {
	clause := AmountClause{Value: decimal.Zero, Operator: OperatorLessThan, Mode: AmountModeSigned}
	assert.True(t, clause.Matches(decimal.RequireFromString("-1")))
	assert.False(t, clause.Matches(decimal.RequireFromString("1")))
}

func TestPredicateSetDimensions(t *testing.T) {
	food := tx("-10")
	bus := tx("-2", func(t *transactions.Transaction) {
		t.Category = "transport"
		t.Bank = "DBS"
		t.Account = "9999"
	})
	salary := tx("3000", func(t *transactions.Transaction) {
		t.Category = "income"
		t.Type = "Transfer"
	})

	tests := []struct {
		name string
		spec Spec
		want []bool
	}{
		{"empty spec matches all", Spec{}, []bool{true, true, true}},
		{"categories OR within", Spec{Categories: []string{"Food", "transport"}}, []bool{true, true, false}},
		{"AND across dimensions", Spec{Categories: []string{"food", "transport"}, Banks: []string{"DBS"}}, []bool{false, true, false}},
		{"types", Spec{Types: []string{"Transfer"}}, []bool{false, false, true}},
		{"accounts", Spec{Accounts: []string{"1234"}}, []bool{true, false, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustPredicate(t, tt.spec)
			got := []bool{p(food), p(bus), p(salary)}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPredicateText(t *testing.T) {
	item := tx("-5", func(t *transactions.Transaction) { t.Description = "Coffee at STARBUCKS" })

	tests := []struct {
		name   string
		clause TextClause
		want   bool
	}{
		{"case insensitive default", TextClause{Query: "starbucks"}, true},
		{"match case miss", TextClause{Query: "starbucks", MatchCase: true}, false},
		{"match case hit", TextClause{Query: "STARBUCKS", MatchCase: true}, true},
		{"regex insensitive", TextClause{Query: `^coffee\s+at`, UseRegex: true}, true},
		{"regex with case", TextClause{Query: `^coffee`, UseRegex: true, MatchCase: true}, false},
		{"literal special chars", TextClause{Query: "a.b"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause := tt.clause
			p := mustPredicate(t, Spec{Text: &clause})
			assert.Equal(t, tt.want, p(item))
		})
	}
}

func TestPredicateDateRange(t *testing.T) {
	start, err := ParseDateBound("2026-03-01", false, time.UTC)
	require.NoError(t, err)
	end, err := ParseDateBound("2026-03-15", true, time.UTC)
	require.NoError(t, err)

	p := mustPredicate(t, Spec{DateRange: &DateRange{Start: &start, End: &end}})

	lateOnEndDay := tx("-1", func(t *transactions.Transaction) {
		t.Timestamp = time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC)
	})
	nextDay := tx("-1", func(t *transactions.Transaction) {
		t.Timestamp = time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	})
	onStart := tx("-1", func(t *transactions.Transaction) {
		t.Timestamp = start
	})

	assert.True(t, p(lateOnEndDay))
	assert.False(t, p(nextDay))
	assert.True(t, p(onStart))
}

func TestPredicateExclusiveEnd(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	p := mustPredicate(t, Spec{DateRange: &DateRange{Start: &start, End: &end, EndExclusive: true}})

	atEnd := tx("-1", func(t *transactions.Transaction) { t.Timestamp = end })
	before := tx("-1", func(t *transactions.Transaction) { t.Timestamp = end.Add(-time.Second) })

	assert.False(t, p(atEnd))
	assert.True(t, p(before))
}

func TestPredicateScopes(t *testing.T) {
	food := tx("-10")
	uobOther := tx("-20", func(t *transactions.Transaction) {
		t.Category = "shopping"
		t.Account = "5678"
	})
	dbs := tx("-30", func(t *transactions.Transaction) {
		t.Category = "shopping"
		t.Bank = "DBS"
	})

	p := mustPredicate(t, Spec{Scopes: []Scope{
		{Category: "Food"},
		{Bank: "uob", Account: "5678"},
	}})

	assert.True(t, p(food))
	assert.True(t, p(uobOther))
	assert.False(t, p(dbs))
}

func TestValidate(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		spec Spec
	}{
		{"empty scope", Spec{Scopes: []Scope{{Bank: "  "}}}},
		{"bad operator", Spec{Amount: &AmountClause{Operator: "eq"}}},
		{"bad mode", Spec{Amount: &AmountClause{Operator: OperatorGreaterThan, Mode: "relative"}}},
		{"bad regex", Spec{Text: &TextClause{Query: "(", UseRegex: true}}},
		{"reversed range", Spec{DateRange: &DateRange{Start: &start, End: &end}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.spec.Predicate()
			assert.ErrorIs(t, err, ErrInvalidSpec)
		})
	}
}

func TestSQLAbsoluteRewrite(t *testing.T) {
	s := Spec{Amount: &AmountClause{Value: decimal.RequireFromString("100"), Operator: OperatorGreaterThan, Mode: AmountModeAbsolute}}

	where, args, err := s.SQL(2)
	require.NoError(t, err)
	assert.Equal(t, "(amount > $2::numeric OR amount < $3::numeric)", where)
	assert.Equal(t, []any{"100", "-100"}, args)
	assert.NotContains(t, strings.ToLower(where), "abs(")
}

func TestSQLCombined(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	s := Spec{
		DateRange:  &DateRange{Start: &start, End: &end, EndExclusive: true},
		Categories: []string{"Food"},
		Text:       &TextClause{Query: "50%_off"},
		Scopes:     []Scope{{Category: "food"}, {Bank: "UOB", Account: "1234"}},
	}

	where, args, err := s.SQL(2)
	require.NoError(t, err)
	assert.Equal(t,
		`timestamp >= $2 AND timestamp < $3 AND category = ANY($4) AND description ILIKE $5 ESCAPE '\' AND ((category = $6) OR (lower(bank) = $7 AND account = $8))`,
		where)
	assert.Equal(t, []any{start, end, []string{"food"}, `%50\%\_off%`, "food", "uob", "1234"}, args)
}

func TestSQLEmpty(t *testing.T) {
	where, args, err := Spec{}.SQL(1)
	require.NoError(t, err)
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestParseDateBound(t *testing.T) {
	tests := []struct {
		name  string
		input string
		isEnd bool
		want  time.Time
	}{
		{"date start", "2026-01-31", false, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)},
		{"date end", "2026-01-31", true, time.Date(2026, 1, 31, 23, 59, 59, 999999999, time.UTC)},
		{"instant kept as is", "2026-01-31T10:00:00Z", true, time.Date(2026, 1, 31, 10, 0, 0, 0, time.UTC)},
		{"naive instant", "2026-01-31 08:30:00", false, time.Date(2026, 1, 31, 8, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDateBound(tt.input, tt.isEnd, time.UTC)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}

	_, err := ParseDateBound("31 Jan", false, time.UTC)
	assert.ErrorIs(t, err, ErrInvalidSpec)
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, Spec{}.IsEmpty())
	assert.True(t, Spec{Text: &TextClause{}}.IsEmpty())
	assert.False(t, Spec{Banks: []string{"UOB"}}.IsEmpty())
}

func TestMonthRange(t *testing.T) {
	r := MonthRange(time.Date(2026, 12, 20, 15, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), *r.Start)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), *r.End)
	assert.True(t, r.EndExclusive)
}

// Package testutil generates realistic ledger fixtures for tests using gofakeit.
package testutil

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
)

// Generator produces transactions and amounts for tests.
type Generator struct {
	faker *gofakeit.Faker
}

// NewGenerator creates a generator with a random seed.
func NewGenerator() *Generator {
	return &Generator{faker: gofakeit.New(0)}
}

// NewGeneratorWithSeed creates a generator with a specific seed for reproducibility.
func NewGeneratorWithSeed(seed int64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

// ============================================================================
// Transaction Generation
// ============================================================================

var banks = []string{"UOB", "DBS", "OCBC", "Citibank"}

var types = []string{"Card", "PayNow", "Transfer", "NETS QR"}

var categories = []string{
	"food", "snack", "transport", "shopping", "groceries", "entertainment",
	"travel", "health", "subscription", "utilities", "income", "disbursement", "other",
}

var merchants = []string{
	"Starbucks", "McDonald's", "Grab", "Gojek", "Shopee", "Lazada", "Uniqlo",
	"FairPrice", "Cold Storage", "Singtel", "Netflix", "Spotify", "KFC", "Toast Box",
}

var remarks = []string{
	"lunch", "dinner", "coffee", "groceries", "ride home", "gift", "split bill",
	"movie night", "phone bill", "refund", "",
}

// Transaction generates a single random transaction for the user.
func (g *Generator) Transaction(userID uuid.UUID) *transactions.Transaction {
	ts := g.faker.DateRange(time.Now().AddDate(-1, 0, 0), time.Now()).UTC().Truncate(time.Second)
	bank := g.pick(banks)
	merchant := g.pick(merchants)
	remark := g.pick(remarks)
	amount := g.Amount(1, 500)
	if g.faker.Number(0, 4) > 0 {
		amount = amount.Neg()
	}

	description := merchant
	if remark != "" {
		description = fmt.Sprintf("%s [%s]", remark, merchant)
	}
	raw := fmt.Sprintf("A transaction of SGD %s was made with your %s Card ending %s on %s at %s.",
		amount.Abs().StringFixed(2), bank, g.faker.DigitN(4), ts.Format("02/01/06"), merchant)

	return &transactions.Transaction{
		ID:          transactions.NewID(raw, ts),
		UserID:      userID,
		Timestamp:   ts,
		Bank:        bank,
		Type:        g.pick(types),
		Amount:      amount,
		Description: description,
		Account:     g.faker.DigitN(4),
		Category:    g.pick(categories),
		RawMessage:  &raw,
	}
}

// Transactions generates count random transactions for the user.
func (g *Generator) Transactions(userID uuid.UUID, count int) []*transactions.Transaction {
	txs := make([]*transactions.Transaction, count)
	for i := 0; i < count; i++ {
		txs[i] = g.Transaction(userID)
	}
	return txs
}

// ============================================================================
// Amount Generation
// ============================================================================

// Amount generates a positive two-decimal amount within a dollar range.
func (g *Generator) Amount(minDollars, maxDollars int) decimal.Decimal {
	cents := g.faker.Number(minDollars*100, maxDollars*100)
	return decimal.New(int64(cents), -2)
}

// SignedAmount generates an amount in [-maxDollars, maxDollars] with two decimals.
func (g *Generator) SignedAmount(maxDollars int) decimal.Decimal {
	cents := g.faker.Number(-maxDollars*100, maxDollars*100)
	return decimal.New(int64(cents), -2)
}

// Category returns a random lowercase category name.
func (g *Generator) Category() string {
	return g.pick(categories)
}

// Merchant returns a random merchant name.
func (g *Generator) Merchant() string {
	return g.pick(merchants)
}

func (g *Generator) pick(values []string) string {
	return values[g.faker.Number(0, len(values)-1)]
}

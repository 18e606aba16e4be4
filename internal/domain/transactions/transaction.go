// Package transactions holds the transaction record shared by every ledger component.
package transactions

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StatusManualEntry marks transactions typed in by the user.
const StatusManualEntry = "Manual Entry"

// Transaction is a single ledger entry owned by one user.
// Amount sign is authoritative: negative = expense, positive = income or reimbursement.
type Transaction struct {
	ID          string
	UserID      uuid.UUID
	Timestamp   time.Time
	Bank        string
	Type        string
	Amount      decimal.Decimal
	Description string
	Account     string
	Category    string
	RawMessage  *string
	Status      string
}

// NewID derives a deterministic identifier from the message and its timestamp.
// Submitting the same notification twice yields the same ID.
func NewID(rawMessage string, ts time.Time) string {
	name := fmt.Sprintf("%s|%s", ts.UTC().Format(time.RFC3339Nano), rawMessage)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// RegenerateID returns a fresh random identifier, used when a supplied ID collides.
func RegenerateID() string {
	return uuid.NewString()
}

// NormalizeCategory lowercases and trims a category name.
func NormalizeCategory(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// IsExpense reports whether the transaction moves money out.
func (t *Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// RawMessageString returns the raw message or an empty string when absent.
func (t *Transaction) RawMessageString() string {
	if t.RawMessage == nil {
		return ""
	}
	return *t.RawMessage
}

// ValidationError reports a malformed field on a transaction.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

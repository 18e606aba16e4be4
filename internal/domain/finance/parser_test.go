package finance

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	payNowOut     = "You made a PayNow transfer of SGD 19.36 to PAYNOW - SUPPORTED B (UEN ending C002) on your a/c ending 1234 at 1:44PM SGT, 27 Dec 25. If unauthorised, call UOB 24/7 Fraud Hotline."
	payNowIn      = "You have received SGD 18.62 in your PayNow-linked account ending 5678 on 07-MAY-2025 01:42AM."
	cardPurchase  = "A transaction of SGD 15.00 was made with your UOB Card ending 9012 on 26/12/25 at JINJJA CHICKEN @ JEWEL. If unauthorised, call 24/7 Fraud Hotline now"
	shortcutStamp = "2025-12-28T15:57:31+08:00"
)

func composite(msg, remarks string) string {
	return msg + ",UOB," + shortcutStamp + ", " + remarks
}

func TestParseText_UOBTemplates(t *testing.T) {
	p := NewMessageParser(nil)
	declared := time.Date(2025, 12, 28, 15, 57, 31, 0, SGT)

	tests := []struct {
		name        string
		input       string
		wantType    string
		wantAmount  string
		wantAccount string
		wantTime    time.Time
		wantDesc    string
	}{
		{
			name:        "paynow outgoing uses the bank time",
			input:       composite(payNowOut, "Lunch with friends"),
			wantType:    TypePayNow,
			wantAmount:  "-19.36",
			wantAccount: "1234",
			wantTime:    time.Date(2025, 12, 27, 13, 44, 0, 0, SGT),
			wantDesc:    "Lunch with friends [PAYNOW - SUPPORTED B (UEN ending C002)]",
		},
		{
			name:        "paynow incoming is positive",
			input:       composite(payNowIn, "Refund"),
			wantType:    TypePayNow,
			wantAmount:  "18.62",
			wantAccount: "5678",
			wantTime:    time.Date(2025, 5, 7, 1, 42, 0, 0, SGT),
			wantDesc:    "Refund [Unknown]",
		},
		{
			name:        "card keeps the submission time",
			input:       composite(cardPurchase, "Dinner"),
			wantType:    TypeCard,
			wantAmount:  "-15",
			wantAccount: "9012",
			wantTime:    declared,
			wantDesc:    "Dinner [JINJJA CHICKEN @ JEWEL]",
		},
		{
			name:        "thousands separator outgoing",
			input:       composite("You made a PayNow transfer of SGD 1,234.56 to PAYNOW - SUPPORTED B (UEN ending C002) on your a/c ending 1234 at 1:44PM SGT, 27 Dec 25. If unauthorised, call UOB 24/7 Fraud Hotline.", "Big Payment"),
			wantType:    TypePayNow,
			wantAmount:  "-1234.56",
			wantAccount: "1234",
			wantTime:    time.Date(2025, 12, 27, 13, 44, 0, 0, SGT),
			wantDesc:    "Big Payment [PAYNOW - SUPPORTED B (UEN ending C002)]",
		},
		{
			name:        "thousands separator incoming",
			input:       composite("You have received SGD 10,000.00 in your PayNow-linked account ending 5678 on 07-MAY-2025 01:42AM.", "Bonus"),
			wantType:    TypePayNow,
			wantAmount:  "10000",
			wantAccount: "5678",
			wantTime:    time.Date(2025, 5, 7, 1, 42, 0, 0, SGT),
			wantDesc:    "Bonus [Unknown]",
		},
		{
			name:        "thousands separator card",
			input:       composite("A transaction of SGD 2,500.50 was made with your UOB Card ending 9012 on 26/12/25 at LUXURY STORE. If unauthorised, call 24/7 Fraud Hotline now", "Shopping"),
			wantType:    TypeCard,
			wantAmount:  "-2500.5",
			wantAccount: "9012",
			wantTime:    declared,
			wantDesc:    "Shopping [LUXURY STORE]",
		},
		{
			name:        "instalment plan is a card charge",
			input:       "UOB Instalment Payment Plan: Your monthly instalment of SGD 1,200.00 has been billed to your UOB card ending 1234 on 01/01/26,UOB,2026-01-01T10:00:00+08:00, iPhone Installment",
			wantType:    TypeCard,
			wantAmount:  "-1200",
			wantAccount: "1234",
			wantTime:    time.Date(2026, 1, 1, 10, 0, 0, 0, SGT),
			wantDesc:    "iPhone Installment [UOB Instalment Payment Plan]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ParseText(tt.input, time.Time{})
			require.NoError(t, err)
			assert.Equal(t, "UOB", got.Bank)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantAmount, got.Amount.String())
			assert.Equal(t, tt.wantAccount, got.Account)
			assert.True(t, tt.wantTime.Equal(got.Timestamp), "want %s got %s", tt.wantTime, got.Timestamp)
			assert.Equal(t, tt.wantDesc, got.Description)
			assert.Equal(t, tt.input, got.RawMessage)
			assert.Empty(t, got.Warnings)
		})
	}
}

func TestParseText_NonTransactionalMessage(t *testing.T) {
	p := NewMessageParser(nil)

	_, err := p.ParseText("We've enhanced your UOB One Debit Card! ...,UOB,"+shortcutStamp+", Ignored", time.Time{})

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "no amount found", parseErr.Reason)
}

func TestParseText_CardDateWithoutSubmissionTime(t *testing.T) {
	p := NewMessageParser(nil)

	got, err := p.ParseText(cardPurchase, time.Time{})
	require.NoError(t, err)
	assert.True(t, time.Date(2025, 12, 26, 0, 0, 0, 0, SGT).Equal(got.Timestamp))
	assert.Equal(t, "JINJJA CHICKEN @ JEWEL", got.Merchant)
}

func TestParseText_UnreadableBankTimeFallsBack(t *testing.T) {
	p := NewMessageParser(nil)
	received := time.Date(2026, 2, 3, 9, 30, 0, 0, SGT)

	got, err := p.ParseText("You made a PayNow transfer of SGD 5.00 to BOB on your a/c ending 1234 at teatime. If unauthorised, call UOB.", received)
	require.NoError(t, err)
	assert.True(t, received.Equal(got.Timestamp))
	assert.Equal(t, []string{WarningTimeParse}, got.Warnings)
	assert.Equal(t, "-5", got.Amount.String())
}

func TestParseText_InvalidDeclaredTimestamp(t *testing.T) {
	p := NewMessageParser(nil)

	_, err := p.ParseText("Paid 12.00 at Cafe,UOB,2025-13-45T99:00:00,note", time.Now())

	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr))
}

func TestParseText_GenericHeuristics(t *testing.T) {
	p := NewMessageParser(nil)
	received := time.Date(2026, 3, 1, 12, 0, 0, 0, SGT)

	tests := []struct {
		name       string
		input      string
		wantAmount string
		wantType   string
		wantAcct   string
	}{
		{"first numeric token is the amount", "Paid 3 for 2 items", "-3", TypeUnknown, ""},
		{"incoming wording keeps sign", "Refund of 1,050.25 credited to card ending 4321", "1050.25", TypeCard, "4321"},
		{"nets qr", "NETS QR payment of 4.50 at Kopitiam", "-4.5", TypeNETSQR, ""},
		{"transfer", "Fund transfer 250 to savings", "-250", TypeTransfer, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ParseText(tt.input, received)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAmount, got.Amount.String())
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantAcct, got.Account)
			assert.True(t, received.Equal(got.Timestamp))
		})
	}
}

func TestParseStructured(t *testing.T) {
	p := NewMessageParser(nil)

	got, err := p.ParseStructured(StructuredInput{
		BankMessage: cardPurchase,
		BankName:    "UOB",
		Timestamp:   shortcutStamp,
		Remarks:     "Dinner",
	})
	require.NoError(t, err)
	assert.True(t, time.Date(2025, 12, 28, 15, 57, 31, 0, SGT).Equal(got.Timestamp))
	assert.Equal(t, "-15", got.Amount.String())
	assert.Equal(t, TypeCard, got.Type)
	assert.Equal(t, "9012", got.Account)
	assert.Equal(t, "Dinner", got.Remarks)
	assert.Equal(t, "Dinner [JINJJA CHICKEN @ JEWEL]", got.Description)
	assert.Equal(t, cardPurchase, got.RawMessage)
}

func TestParseStructured_Errors(t *testing.T) {
	p := NewMessageParser(nil)

	tests := []struct {
		name  string
		input StructuredInput
	}{
		{"empty message", StructuredInput{Timestamp: shortcutStamp}},
		{"missing timestamp", StructuredInput{BankMessage: cardPurchase}},
		{"bad timestamp", StructuredInput{BankMessage: cardPurchase, Timestamp: "yesterday"}},
		{"no amount", StructuredInput{BankMessage: "Your OTP is ready", Timestamp: shortcutStamp}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseStructured(tt.input)
			var parseErr *ParseError
			assert.True(t, errors.As(err, &parseErr), "got %v", err)
		})
	}
}

func TestParseRecord(t *testing.T) {
	p := NewMessageParser(nil)

	t.Run("plain row", func(t *testing.T) {
		got, err := p.ParseRecord(Record{
			Timestamp:   "2026-03-01T08:15:00Z",
			Bank:        "DBS",
			Type:        "Card",
			Amount:      "-12.50",
			Description: "coffee",
			Account:     "1111",
		})
		require.NoError(t, err)
		assert.Equal(t, "-12.5", got.Amount.String())
		assert.Equal(t, "DBS", got.Bank)
		assert.True(t, time.Date(2026, 3, 1, 8, 15, 0, 0, time.UTC).Equal(got.Timestamp))
	})

	t.Run("amount recovered from raw message", func(t *testing.T) {
		got, err := p.ParseRecord(Record{
			Timestamp:  "2025-12-28 15:57:31",
			Bank:       "UOB",
			RawMessage: cardPurchase,
		})
		require.NoError(t, err)
		assert.Equal(t, "-15", got.Amount.String())
		assert.Equal(t, TypeCard, got.Type)
		assert.Equal(t, "9012", got.Account)
		assert.Equal(t, "[JINJJA CHICKEN @ JEWEL]", got.Description)
		assert.Equal(t, SGT, got.Timestamp.Location())
	})

	errorCases := []struct {
		name   string
		record Record
		reason string
	}{
		{"missing timestamp", Record{Amount: "1"}, "timestamp is required"},
		{"invalid timestamp", Record{Timestamp: "01/02/2026", Amount: "1"}, `invalid timestamp "01/02/2026"`},
		{"invalid amount", Record{Timestamp: "2026-01-01", Amount: "abc"}, `invalid amount "abc"`},
		{"missing amount", Record{Timestamp: "2026-01-01"}, "amount is required"},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseRecord(tt.record)
			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, tt.reason, parseErr.Reason)
		})
	}
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "lunch [Toast Box]", Describe(" lunch ", "Toast Box"))
	assert.Equal(t, "[Unknown]", Describe("", ""))
}

func TestMapMethod(t *testing.T) {
	tests := map[string]string{
		"PayNow transfer":   TypePayNow,
		"One-Time Transfer": TypeTransfer,
		"NETS QR payment":   TypeNETSQR,
		"fund transfer(s)":  TypeTransfer,
		"card":              TypeCard,
		"":                  TypeUnknown,
		"Cheque":            "Cheque",
	}
	for method, want := range tests {
		assert.Equal(t, want, mapMethod(method), method)
	}
}

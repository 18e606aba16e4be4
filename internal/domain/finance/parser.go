// Package finance turns bank notifications into transaction fields and captures them.
package finance

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// WarningTimeParse is recorded when the time inside a notification could not be read
// and the submission timestamp was used instead.
const WarningTimeParse = "Time parse warning"

const unknownMerchant = "Unknown"

// StructuredInput is a notification submitted together with its metadata.
type StructuredInput struct {
	BankMessage string `json:"bank_message"`
	BankName    string `json:"bank_name"`
	Timestamp   string `json:"timestamp"`
	Remarks     string `json:"remarks,omitempty"`
}

// Record is a transaction row whose fields are still text, as read from a CSV file.
type Record struct {
	Timestamp   string
	Bank        string
	Type        string
	Amount      string
	Description string
	Account     string
	RawMessage  string
}

// ParsedFields is what the parser recovered from one input.
type ParsedFields struct {
	Timestamp   time.Time
	Bank        string
	Type        string
	Amount      decimal.Decimal
	Account     string
	Merchant    string
	Remarks     string
	Description string
	RawMessage  string
	Warnings    []string
}

// ParseError reports input the parser could not interpret.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Reason
}

var (
	// "<bank message>,<bank>?,<ISO timestamp>,<remarks>" as sent by phone shortcuts
	compositePattern = regexp.MustCompile(`(?s)^(.*?),(?:([^,]+),)?(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:?\d{2})?),(.*)$`)

	numericToken   = regexp.MustCompile(`\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?`)
	accountPattern = regexp.MustCompile(`(?i)\bending\s+(?:in\s+)?(\d+)`)
	incomingWords  = regexp.MustCompile(`(?i)\b(?:received|credited|refund(?:ed)?|deposit(?:ed)?|incoming)\b`)
	merchantAt     = regexp.MustCompile(`\b(?:at|to)\s+([A-Za-z][^.,]*?)(?:\s+on\b|[.,]|$)`)
)

// typeKeywords are checked in order against free text.
var typeKeywords = []struct {
	keyword string
	typ     string
}{
	{"nets qr", TypeNETSQR},
	{"paynow", TypePayNow},
	{"card", TypeCard},
	{"transfer", TypeTransfer},
}

// MessageParser extracts transaction fields from bank notifications.
// It has no side effects.
type MessageParser struct {
	templates []Template
	loc       *time.Location
}

// NewMessageParser creates a parser. Timestamps without an offset are read in loc.
// Without templates the UOB formats are used.
func NewMessageParser(loc *time.Location, templates ...Template) *MessageParser {
	if loc == nil {
		loc = SGT
	}
	if len(templates) == 0 {
		templates = UOBTemplates()
	}
	return &MessageParser{templates: templates, loc: loc}
}

// Location returns the zone used for timestamps without an offset.
func (p *MessageParser) Location() *time.Location {
	return p.loc
}

// ParseStructured trusts the submitted bank, timestamp and remarks and only
// mines the bank message for amount, account, type and merchant.
func (p *MessageParser) ParseStructured(in StructuredInput) (*ParsedFields, error) {
	msg := strings.TrimSpace(in.BankMessage)
	if msg == "" {
		return nil, &ParseError{Reason: "bank message is empty"}
	}
	if strings.TrimSpace(in.Timestamp) == "" {
		return nil, &ParseError{Reason: "timestamp is required"}
	}
	ts, ok := ParseTimestamp(in.Timestamp, p.loc)
	if !ok {
		return nil, &ParseError{Reason: fmt.Sprintf("invalid timestamp %q", in.Timestamp)}
	}

	ext, err := p.extract(msg, in.BankName)
	if err != nil {
		return nil, err
	}

	bank := strings.TrimSpace(in.BankName)
	if bank == "" {
		bank = ext.bank
	}
	remarks := strings.TrimSpace(in.Remarks)
	return &ParsedFields{
		Timestamp:   ts,
		Bank:        bank,
		Type:        ext.typ,
		Amount:      ext.amount,
		Account:     ext.account,
		Merchant:    ext.merchant,
		Remarks:     remarks,
		Description: Describe(remarks, ext.merchant),
		RawMessage:  msg,
	}, nil
}

// ParseText parses free text. The composite "<bank message>,<bank>,<ISO timestamp>,<remarks>"
// form is split first; otherwise the whole text is the bank message received at received.
// A time written inside the notification takes precedence over the submission time.
func (p *MessageParser) ParseText(raw string, received time.Time) (*ParsedFields, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &ParseError{Reason: "message is empty"}
	}

	bankMsg, bankName, remarks := raw, "", ""
	declared := received
	if m := compositePattern.FindStringSubmatch(raw); m != nil {
		bankMsg = strings.TrimSpace(m[1])
		bankName = strings.TrimSpace(m[2])
		remarks = strings.TrimSpace(m[4])
		ts, ok := ParseTimestamp(m[3], p.loc)
		if !ok {
			return nil, &ParseError{Reason: fmt.Sprintf("invalid timestamp %q", m[3])}
		}
		declared = ts
	}

	ext, err := p.extract(bankMsg, bankName)
	if err != nil {
		return nil, err
	}

	fields := &ParsedFields{
		Bank:        bankName,
		Type:        ext.typ,
		Amount:      ext.amount,
		Account:     ext.account,
		Merchant:    ext.merchant,
		Remarks:     remarks,
		Description: Describe(remarks, ext.merchant),
		RawMessage:  raw,
	}
	if fields.Bank == "" {
		fields.Bank = ext.bank
	}

	switch {
	case ext.datetime != "":
		if t, ok := parseBankDateTime(ext.datetime); ok {
			fields.Timestamp = t
		} else {
			fields.Timestamp = declared
			fields.Warnings = append(fields.Warnings, WarningTimeParse)
		}
	case ext.date != "" && declared.IsZero():
		if t, ok := parseBankDate(ext.date); ok {
			fields.Timestamp = t
		}
	default:
		fields.Timestamp = declared
	}

	if fields.Timestamp.IsZero() {
		return nil, &ParseError{Reason: "no timestamp found"}
	}
	return fields, nil
}

// ParseRecord validates a CSV row. A missing amount is recovered from the raw message.
func (p *MessageParser) ParseRecord(r Record) (*ParsedFields, error) {
	if strings.TrimSpace(r.Timestamp) == "" {
		return nil, &ParseError{Reason: "timestamp is required"}
	}
	ts, ok := ParseTimestamp(r.Timestamp, p.loc)
	if !ok {
		return nil, &ParseError{Reason: fmt.Sprintf("invalid timestamp %q", r.Timestamp)}
	}

	fields := &ParsedFields{
		Timestamp:   ts,
		Bank:        strings.TrimSpace(r.Bank),
		Type:        strings.TrimSpace(r.Type),
		Account:     strings.TrimSpace(r.Account),
		Description: strings.TrimSpace(r.Description),
		RawMessage:  r.RawMessage,
	}

	if strings.TrimSpace(r.Amount) != "" {
		amount, err := parseAmount(r.Amount)
		if err != nil {
			return nil, &ParseError{Reason: fmt.Sprintf("invalid amount %q", r.Amount)}
		}
		fields.Amount = amount
		return fields, nil
	}

	if strings.TrimSpace(r.RawMessage) == "" {
		return nil, &ParseError{Reason: "amount is required"}
	}
	ext, err := p.extract(r.RawMessage, fields.Bank)
	if err != nil {
		return nil, err
	}
	fields.Amount = ext.amount
	if fields.Type == "" {
		fields.Type = ext.typ
	}
	if fields.Account == "" {
		fields.Account = ext.account
	}
	if fields.Description == "" {
		fields.Description = Describe("", ext.merchant)
	}
	return fields, nil
}

// Describe builds the stored description: remarks followed by the merchant in brackets.
func Describe(remarks, merchant string) string {
	if strings.TrimSpace(merchant) == "" {
		merchant = unknownMerchant
	}
	return strings.TrimSpace(strings.TrimSpace(remarks) + " [" + strings.TrimSpace(merchant) + "]")
}

type extraction struct {
	bank     string
	typ      string
	amount   decimal.Decimal
	account  string
	merchant string
	datetime string
	date     string
}

func (p *MessageParser) extract(text, bank string) (extraction, error) {
	for _, t := range p.templates {
		if bank != "" && !strings.EqualFold(t.Bank, bank) {
			continue
		}
		m, ok := t.match(text)
		if !ok {
			continue
		}
		amount, err := parseAmount(m.groups["amount"])
		if err != nil {
			return extraction{}, &ParseError{Reason: fmt.Sprintf("invalid amount %q", m.groups["amount"])}
		}
		if t.Sign < 0 {
			amount = amount.Neg()
		}
		return extraction{
			bank:     t.Bank,
			typ:      mapMethod(m.groups["method"]),
			amount:   amount,
			account:  m.groups["account"],
			merchant: m.groups["recipient"],
			datetime: m.groups["datetime"],
			date:     m.groups["date"],
		}, nil
	}
	return genericExtract(text)
}

// genericExtract applies the fallback heuristics: the first numeric token is the
// amount, expenses unless the text says money came in.
func genericExtract(text string) (extraction, error) {
	token := numericToken.FindString(text)
	if token == "" {
		return extraction{}, &ParseError{Reason: "no amount found"}
	}
	amount, err := parseAmount(token)
	if err != nil {
		return extraction{}, &ParseError{Reason: fmt.Sprintf("invalid amount %q", token)}
	}
	if !incomingWords.MatchString(text) {
		amount = amount.Neg()
	}

	ext := extraction{typ: detectType(text), amount: amount}
	if m := accountPattern.FindStringSubmatch(text); m != nil {
		ext.account = m[1]
	}
	if m := merchantAt.FindStringSubmatch(text); m != nil {
		ext.merchant = strings.TrimSpace(m[1])
	}
	return ext, nil
}

func detectType(text string) string {
	lower := strings.ToLower(text)
	for _, tk := range typeKeywords {
		if strings.Contains(lower, tk.keyword) {
			return tk.typ
		}
	}
	return TypeUnknown
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimRight(strings.TrimSpace(s), ".")
	s = strings.ReplaceAll(s, ",", "")
	return decimal.NewFromString(s)
}

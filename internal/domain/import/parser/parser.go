// Package parser reads and writes the ledger's ten-column transaction files.
// CSV goes through gocsv, XLSX through excelize; both share the Row layout.
package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/finance"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
)

// Columns is the fixed column order of import, export and error files.
var Columns = []string{
	"id", "timestamp", "bank", "type", "amount",
	"description", "account", "category", "raw_message", "status",
}

// Row is one line of a transaction file. All values are kept as text so a
// file can be written back unchanged.
type Row struct {
	ID          string `csv:"id"`
	Timestamp   string `csv:"timestamp"`
	Bank        string `csv:"bank"`
	Type        string `csv:"type"`
	Amount      string `csv:"amount"`
	Description string `csv:"description"`
	Account     string `csv:"account"`
	Category    string `csv:"category"`
	RawMessage  string `csv:"raw_message"`
	Status      string `csv:"status"`

	// Line is the 1-based line in the source file, header included.
	Line int `csv:"-"`
}

// Record returns the fields the message parser validates.
func (r Row) Record() finance.Record {
	return finance.Record{
		Timestamp:   r.Timestamp,
		Bank:        r.Bank,
		Type:        r.Type,
		Amount:      r.Amount,
		Description: r.Description,
		Account:     r.Account,
		RawMessage:  r.RawMessage,
	}
}

// values returns the row in Columns order.
func (r Row) values() []string {
	return []string{
		r.ID, r.Timestamp, r.Bank, r.Type, r.Amount,
		r.Description, r.Account, r.Category, r.RawMessage, r.Status,
	}
}

// set assigns a value by column name. Unknown columns are ignored.
func (r *Row) set(column, value string) {
	switch column {
	case "id":
		r.ID = value
	case "timestamp":
		r.Timestamp = value
	case "bank":
		r.Bank = value
	case "type":
		r.Type = value
	case "amount":
		r.Amount = value
	case "description":
		r.Description = value
	case "account":
		r.Account = value
	case "category":
		r.Category = value
	case "raw_message":
		r.RawMessage = value
	case "status":
		r.Status = value
	}
}

// RowFromTransaction renders a stored transaction. Timestamps are RFC 3339
// with the original offset and amounts are plain signed decimals.
func RowFromTransaction(tx *transactions.Transaction) Row {
	return Row{
		ID:          tx.ID,
		Timestamp:   tx.Timestamp.Format(time.RFC3339Nano),
		Bank:        tx.Bank,
		Type:        tx.Type,
		Amount:      tx.Amount.String(),
		Description: tx.Description,
		Account:     tx.Account,
		Category:    transactions.NormalizeCategory(tx.Category),
		RawMessage:  tx.RawMessageString(),
		Status:      tx.Status,
	}
}

// RowsFromTransactions renders transactions in order.
func RowsFromTransactions(txs []*transactions.Transaction) []Row {
	rows := make([]Row, len(txs))
	for i, tx := range txs {
		rows[i] = RowFromTransaction(tx)
	}
	return rows
}

// ReadRows parses a CSV file with a header line. Columns are matched by
// header name, so missing or reordered columns are tolerated.
func ReadRows(r io.Reader) ([]Row, error) {
	var rows []Row
	if err := gocsv.Unmarshal(skipBOM(r), &rows); err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	for i := range rows {
		rows[i].Line = i + 2
	}
	return rows, nil
}

// WriteRows writes rows as CSV with the header line.
func WriteRows(w io.Writer, rows []Row) error {
	if rows == nil {
		rows = []Row{}
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM drops the byte order mark spreadsheet programs put in front of CSV exports.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// Package service reconciles imported transaction files with a user's ledger
// and renders exports in the same layout.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/categorization"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/finance"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/import/parser"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions/filter"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions/repository"
	"github.com/FACorreiaa/pocket-ledger/pkg/metrics"
	"github.com/FACorreiaa/pocket-ledger/pkg/storage"
)

var tracer = otel.Tracer("github.com/FACorreiaa/pocket-ledger/internal/domain/import/service")

// DuplicatePolicy decides what happens to a row whose id the user already has.
type DuplicatePolicy string

const (
	// DuplicateRegenerate stores the row under a fresh id. Existing rows are never overwritten.
	DuplicateRegenerate DuplicatePolicy = "regenerate"
	// DuplicateSkip rejects the row.
	DuplicateSkip DuplicatePolicy = "skip"
)

// ParseDuplicatePolicy validates a policy name. Empty means DuplicateRegenerate.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(s) {
	case "", DuplicateRegenerate:
		return DuplicateRegenerate, nil
	case DuplicateSkip:
		return DuplicateSkip, nil
	}
	return "", fmt.Errorf("unknown duplicate policy %q", s)
}

// Options control one import call.
type Options struct {
	CreateNewCategories bool
	DuplicatePolicy     DuplicatePolicy
}

// RowError describes one rejected row.
type RowError struct {
	Line    int
	ID      string
	Message string
	// Suggestions are configured categories close to an unknown one.
	Suggestions []string
}

// Result summarizes an import call.
type Result struct {
	Imported      int
	Failed        int
	NewCategories []string
	Errors        []RowError
	// FailedRows are the rejected rows with Status set to the reason,
	// ready to be written as an error file and imported again.
	FailedRows []parser.Row
	// Regenerated counts rows stored under a new id because theirs was taken.
	Regenerated int
	// ErrorReport is set when failed rows were saved to storage.
	ErrorReport *storage.FileInfo
}

// CategoryStore is the part of the categorization service the importer needs.
type CategoryStore interface {
	GetConfig(ctx context.Context, userID uuid.UUID) (*categorization.Config, error)
	AddCategories(ctx context.Context, userID uuid.UUID, names []string) error
}

// ImportService imports and exports transaction files.
type ImportService struct {
	parser     *finance.MessageParser
	repo       repository.Repository
	categories CategoryStore
	resolver   finance.CategoryResolver
	reports    storage.Storage // optional
	logger     *slog.Logger
}

// NewImportService creates a new import service
func NewImportService(p *finance.MessageParser, repo repository.Repository, categories CategoryStore, resolver finance.CategoryResolver, logger *slog.Logger) *ImportService {
	return &ImportService{
		parser:     p,
		repo:       repo,
		categories: categories,
		resolver:   resolver,
		logger:     logger,
	}
}

// WithReportStorage saves an error file for every import with failed rows.
func (s *ImportService) WithReportStorage(st storage.Storage) *ImportService {
	s.reports = st
	return s
}

// decision is the outcome for an unknown category, shared by every row of a batch.
type decision struct {
	create  bool
	message string
}

// BatchContext holds the state of one ImportBatch call. It is created when the
// call starts and dropped when it returns; nothing in it outlives the batch.
type BatchContext struct {
	userID    uuid.UUID
	opts      Options
	config    *categorization.Config
	decisions map[string]decision
	result    *Result
}

// ImportCSV reads a CSV file and imports its rows.
func (s *ImportService) ImportCSV(ctx context.Context, userID uuid.UUID, r io.Reader, opts Options) (*Result, error) {
	rows, err := parser.ReadRows(r)
	if err != nil {
		return nil, err
	}
	return s.ImportBatch(ctx, userID, rows, opts)
}

// ImportExcel reads an XLSX workbook and imports its rows.
func (s *ImportService) ImportExcel(ctx context.Context, userID uuid.UUID, r io.Reader, opts Options) (*Result, error) {
	rows, err := parser.ReadExcel(r)
	if err != nil {
		return nil, err
	}
	return s.ImportBatch(ctx, userID, rows, opts)
}

// ImportBatch reconciles rows one by one. A bad row is recorded in the result
// and never aborts the batch; only infrastructure failures return an error.
func (s *ImportService) ImportBatch(ctx context.Context, userID uuid.UUID, rows []parser.Row, opts Options) (*Result, error) {
	ctx, span := tracer.Start(ctx, "import.batch")
	defer span.End()
	span.SetAttributes(attribute.Int("rows", len(rows)), attribute.Bool("create_new_categories", opts.CreateNewCategories))

	if opts.DuplicatePolicy == "" {
		opts.DuplicatePolicy = DuplicateRegenerate
	}

	cfg, err := s.categories.GetConfig(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "config")
		return nil, fmt.Errorf("failed to load category config: %w", err)
	}

	batch := &BatchContext{
		userID:    userID,
		opts:      opts,
		config:    cfg,
		decisions: make(map[string]decision),
		result:    &Result{},
	}

	for i, row := range rows {
		if row.Line == 0 {
			row.Line = i + 2
		}
		if err := s.importRow(ctx, batch, row); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "import aborted")
			return nil, err
		}
	}

	result := batch.result
	metrics.ImportRows.WithLabelValues("imported").Add(float64(result.Imported))
	metrics.ImportRows.WithLabelValues("failed").Add(float64(result.Failed))
	span.SetAttributes(attribute.Int("imported", result.Imported), attribute.Int("failed", result.Failed))

	if result.Failed > 0 && s.reports != nil {
		info, err := s.saveErrorReport(ctx, userID, result)
		if err != nil {
			s.logger.Warn("failed to save import error report", "user_id", userID, "error", err)
		} else {
			result.ErrorReport = info
		}
	}

	s.logger.Info("import finished",
		"user_id", userID,
		"imported", result.Imported,
		"failed", result.Failed,
		"new_categories", len(result.NewCategories),
		"regenerated", result.Regenerated,
	)
	return result, nil
}

// importRow returns an error only when the batch cannot continue.
func (s *ImportService) importRow(ctx context.Context, b *BatchContext, row parser.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fields, err := s.parser.ParseRecord(row.Record())
	if err != nil {
		b.fail(row, err.Error(), nil)
		return nil
	}

	category := transactions.NormalizeCategory(row.Category)
	if category == "" {
		resolved, err := s.resolveCategory(ctx, b, fields)
		if err != nil {
			b.fail(row, "Category unresolved: "+err.Error(), nil)
			return nil
		}
		category = resolved
	}

	if !b.config.Has(category) {
		d, err := s.decide(ctx, b, category)
		if err != nil {
			return err
		}
		if !d.create {
			b.fail(row, d.message, categorization.SuggestCategories(category, b.config, 3))
			return nil
		}
	}

	tx := &transactions.Transaction{
		ID:          row.ID,
		UserID:      b.userID,
		Timestamp:   fields.Timestamp,
		Bank:        fields.Bank,
		Type:        fields.Type,
		Amount:      fields.Amount,
		Description: fields.Description,
		Account:     fields.Account,
		Category:    category,
	}
	if !isRejection(row.Status) {
		tx.Status = row.Status
	}
	if row.RawMessage != "" {
		raw := row.RawMessage
		tx.RawMessage = &raw
	}
	if tx.ID == "" {
		tx.ID = transactions.NewID(row.RawMessage, fields.Timestamp)
	}

	return s.store(ctx, b, row, tx)
}

// store persists tx, applying the duplicate policy when its id is taken.
func (s *ImportService) store(ctx context.Context, b *BatchContext, row parser.Row, tx *transactions.Transaction) error {
	exists, err := s.repo.Exists(ctx, b.userID, tx.ID)
	if err != nil {
		return fmt.Errorf("failed to check transaction id: %w", err)
	}
	if exists {
		if b.opts.DuplicatePolicy == DuplicateSkip {
			b.fail(row, fmt.Sprintf("Duplicate id '%s'", tx.ID), nil)
			return nil
		}
		tx.ID = transactions.RegenerateID()
		b.result.Regenerated++
	}

	err = s.repo.Create(ctx, tx)
	if errors.Is(err, repository.ErrDuplicateID) && b.opts.DuplicatePolicy == DuplicateRegenerate {
		tx.ID = transactions.RegenerateID()
		b.result.Regenerated++
		err = s.repo.Create(ctx, tx)
	}
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateID) {
			b.fail(row, fmt.Sprintf("Duplicate id '%s'", tx.ID), nil)
			return nil
		}
		return fmt.Errorf("failed to save transaction on line %d: %w", row.Line, err)
	}

	b.result.Imported++
	return nil
}

// resolveCategory runs the resolver for rows without a category. The returned
// error is the cause of an unresolved row; the row is not stored.
func (s *ImportService) resolveCategory(ctx context.Context, b *BatchContext, fields *finance.ParsedFields) (string, error) {
	res, err := s.resolver.Resolve(ctx, categorization.Fields{Remarks: fields.Remarks, Description: fields.Description}, b.config)
	if err == nil {
		return res.Category, nil
	}
	var unresolved *categorization.UnresolvedError
	if errors.As(err, &unresolved) && unresolved.Cause != nil {
		err = unresolved.Cause
	}
	s.logger.Warn("category unresolved during import", "user_id", b.userID, "error", err)
	return "", err
}

// decide returns the batch decision for an unknown category, making it on first sight.
func (s *ImportService) decide(ctx context.Context, b *BatchContext, category string) (decision, error) {
	if d, ok := b.decisions[category]; ok {
		return d, nil
	}

	d := decision{message: fmt.Sprintf("Category '%s' not found", category)}
	if b.opts.CreateNewCategories {
		err := s.categories.AddCategories(ctx, b.userID, []string{category})
		var invalid *categorization.ValidationError
		switch {
		case errors.As(err, &invalid):
			d.message = fmt.Sprintf("Category '%s' could not be created: %s", category, invalid.Message)
		case err != nil:
			return decision{}, fmt.Errorf("failed to create category %q: %w", category, err)
		default:
			if err := b.config.AddCategory(category); err != nil {
				return decision{}, err
			}
			d.create = true
			b.result.NewCategories = append(b.result.NewCategories, category)
			metrics.CategoriesCreated.Inc()
			s.logger.Info("category created during import", "user_id", b.userID, "category", category)
		}
	}

	b.decisions[category] = d
	return d, nil
}

// isRejection reports whether status is a reason written by a previous import,
// as found in error files fed back for a second pass.
func isRejection(status string) bool {
	for _, prefix := range []string{"Category '", "Category unresolved: ", "Duplicate id '", "parse error: "} {
		if strings.HasPrefix(status, prefix) {
			return true
		}
	}
	return false
}

func (b *BatchContext) fail(row parser.Row, message string, suggestions []string) {
	row.Status = message
	b.result.Failed++
	b.result.FailedRows = append(b.result.FailedRows, row)
	b.result.Errors = append(b.result.Errors, RowError{
		Line:        row.Line,
		ID:          row.ID,
		Message:     message,
		Suggestions: slices.Clone(suggestions),
	})
}

// WriteErrorCSV writes the failed rows of result in the import layout.
func WriteErrorCSV(w io.Writer, result *Result) error {
	return parser.WriteRows(w, result.FailedRows)
}

func (s *ImportService) saveErrorReport(ctx context.Context, userID uuid.UUID, result *Result) (*storage.FileInfo, error) {
	var buf bytes.Buffer
	if err := WriteErrorCSV(&buf, result); err != nil {
		return nil, err
	}
	name := fmt.Sprintf("import-errors-%s.csv", time.Now().UTC().Format("20060102-150405"))
	return s.reports.Upload(ctx, userID, name, "text/csv", &buf)
}

// Export returns every transaction matching spec as rows, newest first.
func (s *ImportService) Export(ctx context.Context, userID uuid.UUID, spec filter.Spec) ([]parser.Row, error) {
	txs, err := s.repo.Query(ctx, userID, spec, repository.Page{})
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	return parser.RowsFromTransactions(txs), nil
}

// ExportCSV writes the matching transactions as CSV.
func (s *ImportService) ExportCSV(ctx context.Context, userID uuid.UUID, spec filter.Spec, w io.Writer) (int, error) {
	rows, err := s.Export(ctx, userID, spec)
	if err != nil {
		return 0, err
	}
	return len(rows), parser.WriteRows(w, rows)
}

// ExportExcel writes the matching transactions as an XLSX workbook.
func (s *ImportService) ExportExcel(ctx context.Context, userID uuid.UUID, spec filter.Spec, w io.Writer) (int, error) {
	rows, err := s.Export(ctx, userID, spec)
	if err != nil {
		return 0, err
	}
	return len(rows), parser.WriteExcel(w, rows)
}

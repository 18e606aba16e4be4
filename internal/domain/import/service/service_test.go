package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/categorization"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/finance"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/import/parser"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions/filter"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions/repository"
	"github.com/FACorreiaa/pocket-ledger/internal/testutil"
	"github.com/FACorreiaa/pocket-ledger/pkg/storage"
)

// countingStore records how often categories are created.
type countingStore struct {
	*categorization.Service
	adds [][]string
}

func (c *countingStore) AddCategories(ctx context.Context, userID uuid.UUID, names []string) error {
	c.adds = append(c.adds, names)
	return c.Service.AddCategories(ctx, userID, names)
}

type fixture struct {
	svc        *ImportService
	repo       *repository.MemoryRepository
	categories *countingStore
}

func newFixture() *fixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repository.NewMemoryRepository()
	categories := &countingStore{Service: categorization.NewService(categorization.NewMemoryRepository(), logger)}
	resolver := categorization.NewDefaultResolver(nil, 0, logger)
	return &fixture{
		svc:        NewImportService(finance.NewMessageParser(nil), repo, categories, resolver, logger),
		repo:       repo,
		categories: categories,
	}
}

func row(id, amount, description, category string) parser.Row {
	return parser.Row{
		ID:          id,
		Timestamp:   "2026-03-01T12:00:00+08:00",
		Bank:        "UOB",
		Type:        "Card",
		Amount:      amount,
		Description: description,
		Account:     "1234",
		Category:    category,
	}
}

// ============================================================================
// Unknown categories
// ============================================================================

func TestImportBatch_CreatesUnknownCategoryOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	userID := uuid.New()

	var rows []parser.Row
	for i := 0; i < 5; i++ {
		rows = append(rows, row("", "-10", "present "+string(rune('a'+i)), "Gifts"))
	}

	result, err := f.svc.ImportBatch(ctx, userID, rows, Options{CreateNewCategories: true})
	require.NoError(t, err)

	assert.Equal(t, 5, result.Imported)
	assert.Zero(t, result.Failed)
	assert.Equal(t, []string{"gifts"}, result.NewCategories)
	assert.Len(t, f.categories.adds, 1)

	ok, err := f.categories.HasCategory(ctx, userID, "gifts")
	require.NoError(t, err)
	assert.True(t, ok)

	txs, err := f.repo.Query(ctx, userID, filter.Spec{Categories: []string{"gifts"}}, repository.Page{})
	require.NoError(t, err)
	assert.Len(t, txs, 5)
}

func TestImportBatch_SkipsUnknownCategory(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	userID := uuid.New()

	rows := []parser.Row{
		row("", "-10", "cake", "fod"),
		row("", "-12", "noodles", "food"),
		row("", "-8", "bread", "fod"),
	}

	result, err := f.svc.ImportBatch(ctx, userID, rows, Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 2, result.Failed)
	assert.Empty(t, result.NewCategories)
	assert.Empty(t, f.categories.adds)

	require.Len(t, result.Errors, 2)
	assert.Equal(t, 2, result.Errors[0].Line)
	assert.Equal(t, 4, result.Errors[1].Line)
	assert.Equal(t, "Category 'fod' not found", result.Errors[0].Message)
	assert.Contains(t, result.Errors[0].Suggestions, "food")

	require.Len(t, result.FailedRows, 2)
	assert.Equal(t, "Category 'fod' not found", result.FailedRows[0].Status)
	assert.Equal(t, "fod", result.FailedRows[0].Category)
}

func TestImportBatch_SecondPassOverErrorFile(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	userID := uuid.New()

	rows := []parser.Row{
		row("", "-10", "flowers", "gifts"),
		row("", "-20", "lunch", "food"),
		row("", "-30", "card", "gifts"),
	}

	first, err := f.svc.ImportBatch(ctx, userID, rows, Options{})
	require.NoError(t, err)
	require.Equal(t, 2, first.Failed)

	var errorFile bytes.Buffer
	require.NoError(t, WriteErrorCSV(&errorFile, first))

	second, err := f.svc.ImportCSV(ctx, userID, &errorFile, Options{CreateNewCategories: true})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Imported)
	assert.Zero(t, second.Failed)
	assert.Equal(t, []string{"gifts"}, second.NewCategories)

	all, err := f.repo.Query(ctx, userID, filter.Spec{}, repository.Page{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, tx := range all {
		assert.Empty(t, tx.Status, "rejection reasons are not carried into the ledger")
	}
}

func TestImportBatch_CategoryThatCannotBeCreated(t *testing.T) {
	f := newFixture()

	// "coffee" is a keyword of snack, so it cannot become a category.
	result, err := f.svc.ImportBatch(context.Background(), uuid.New(), []parser.Row{
		row("", "-5", "latte", "coffee"),
		row("", "-6", "mocha", "coffee"),
	}, Options{CreateNewCategories: true})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Failed)
	assert.Len(t, f.categories.adds, 1)
	assert.Equal(t, "Category 'coffee' could not be created: 'coffee' already exists in category 'snack'", result.Errors[1].Message)
}

// ============================================================================
// Row validation and ids
// ============================================================================

func TestImportBatch_BadRowsDoNotAbort(t *testing.T) {
	f := newFixture()

	bad := row("", "abc", "oops", "food")
	noTime := row("", "-1", "oops", "food")
	noTime.Timestamp = ""

	result, err := f.svc.ImportBatch(context.Background(), uuid.New(), []parser.Row{
		bad, row("", "-3", "ok", "food"), noTime,
	}, Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, `parse error: invalid amount "abc"`, result.FailedRows[0].Status)
	assert.Equal(t, "parse error: timestamp is required", result.FailedRows[1].Status)
}

func TestImportBatch_MissingCategoryIsResolved(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	userID := uuid.New()

	result, err := f.svc.ImportBatch(ctx, userID, []parser.Row{
		row("r1", "-14", "grab ride home", ""),
	}, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, result.Imported)

	tx, err := f.repo.Get(ctx, userID, "r1")
	require.NoError(t, err)
	assert.Equal(t, "transport", tx.Category)
	assert.Empty(t, tx.Status)
}

// quotaCategorizer fails every request.
type quotaCategorizer struct{}

func (quotaCategorizer) Categorize(ctx context.Context, text string, categories []string) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestImportBatch_UnresolvedCategoryFailsRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	resolver := categorization.NewDefaultResolver(quotaCategorizer{}, time.Second, logger)
	svc := NewImportService(finance.NewMessageParser(nil), f.repo, f.categories, resolver, logger)
	userID := uuid.New()

	result, err := svc.ImportBatch(ctx, userID, []parser.Row{
		row("x1", "-9", "mystery shop", ""),
		row("x2", "-14", "grab ride home", ""),
	}, Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 2, result.Errors[0].Line)
	assert.Equal(t, "x1", result.Errors[0].ID)
	assert.True(t, strings.HasPrefix(result.Errors[0].Message, "Category unresolved: "), result.Errors[0].Message)
	assert.Contains(t, result.Errors[0].Message, "quota exceeded")
	require.Len(t, result.FailedRows, 1)
	assert.Equal(t, result.Errors[0].Message, result.FailedRows[0].Status)

	_, err = f.repo.Get(ctx, userID, "x1")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	all, err := f.repo.Query(ctx, userID, filter.Spec{}, repository.Page{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "x2", all[0].ID)
}

func TestImportBatch_NoKeywordMatchFailsRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	userID := uuid.New()

	result, err := f.svc.ImportBatch(ctx, userID, []parser.Row{row("r2", "-9", "mystery shop", "")}, Options{})
	require.NoError(t, err)

	assert.Zero(t, result.Imported)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Category unresolved: no keyword matched", result.Errors[0].Message)

	all, err := f.repo.Query(ctx, userID, filter.Spec{}, repository.Page{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestImportBatch_SecondPassClearsUnresolvedStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	userID := uuid.New()

	fixed := row("r3", "-9", "mystery shop", "shopping")
	fixed.Status = "Category unresolved: no keyword matched"

	result, err := f.svc.ImportBatch(ctx, userID, []parser.Row{fixed}, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, result.Imported)

	tx, err := f.repo.Get(ctx, userID, "r3")
	require.NoError(t, err)
	assert.Empty(t, tx.Status)
}

func TestImportBatch_DuplicateIDs(t *testing.T) {
	ctx := context.Background()

	t.Run("regenerate keeps the existing row", func(t *testing.T) {
		f := newFixture()
		userID := uuid.New()

		_, err := f.svc.ImportBatch(ctx, userID, []parser.Row{row("same", "-1", "first", "food")}, Options{})
		require.NoError(t, err)

		result, err := f.svc.ImportBatch(ctx, userID, []parser.Row{row("same", "-2", "second", "food")}, Options{})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Imported)
		assert.Equal(t, 1, result.Regenerated)

		original, err := f.repo.Get(ctx, userID, "same")
		require.NoError(t, err)
		assert.Equal(t, "first", original.Description)

		all, err := f.repo.Query(ctx, userID, filter.Spec{}, repository.Page{})
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("skip rejects the row", func(t *testing.T) {
		f := newFixture()
		userID := uuid.New()

		result, err := f.svc.ImportBatch(ctx, userID, []parser.Row{
			row("same", "-1", "first", "food"),
			row("same", "-2", "second", "food"),
		}, Options{DuplicatePolicy: DuplicateSkip})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Imported)
		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, "Duplicate id 'same'", result.Errors[0].Message)
	})

	t.Run("ids are scoped per user", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.ImportBatch(ctx, uuid.New(), []parser.Row{row("same", "-1", "a", "food")}, Options{})
		require.NoError(t, err)
		result, err := f.svc.ImportBatch(ctx, uuid.New(), []parser.Row{row("same", "-1", "a", "food")}, Options{})
		require.NoError(t, err)
		assert.Zero(t, result.Regenerated)
	})
}

func TestParseDuplicatePolicy(t *testing.T) {
	p, err := ParseDuplicatePolicy("")
	require.NoError(t, err)
	assert.Equal(t, DuplicateRegenerate, p)

	p, err = ParseDuplicatePolicy("skip")
	require.NoError(t, err)
	assert.Equal(t, DuplicateSkip, p)

	_, err = ParseDuplicatePolicy("overwrite")
	assert.Error(t, err)
}

// ============================================================================
// Export and round trip
// ============================================================================

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	source, target := uuid.New(), uuid.New()

	for _, tx := range testutil.NewGeneratorWithSeed(21).Transactions(source, 40) {
		require.NoError(t, f.repo.Create(ctx, tx))
	}

	var exported bytes.Buffer
	n, err := f.svc.ExportCSV(ctx, source, filter.Spec{}, &exported)
	require.NoError(t, err)
	require.Equal(t, 40, n)
	first := exported.String()

	result, err := f.svc.ImportCSV(ctx, target, bytes.NewBufferString(first), Options{})
	require.NoError(t, err)
	require.Equal(t, 40, result.Imported, "errors: %+v", result.Errors)
	assert.Zero(t, result.Regenerated)

	var again bytes.Buffer
	_, err = f.svc.ExportCSV(ctx, target, filter.Spec{}, &again)
	require.NoError(t, err)
	assert.Equal(t, first, again.String())
}

func TestExportExcel(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	userID := uuid.New()

	for _, tx := range testutil.NewGeneratorWithSeed(4).Transactions(userID, 10) {
		require.NoError(t, f.repo.Create(ctx, tx))
	}

	var buf bytes.Buffer
	n, err := f.svc.ExportExcel(ctx, userID, filter.Spec{}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	rows, err := parser.ReadExcel(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Len(t, rows, 10)
}

func TestImportBatch_SavesErrorReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	st, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	f.svc.WithReportStorage(st)
	userID := uuid.New()

	result, err := f.svc.ImportBatch(ctx, userID, []parser.Row{row("", "-1", "x", "nope")}, Options{})
	require.NoError(t, err)
	require.NotNil(t, result.ErrorReport)

	r, err := st.GetReader(ctx, userID, result.ErrorReport.ID)
	require.NoError(t, err)
	defer r.Close()

	rows, err := parser.ReadRows(r)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Category 'nope' not found", rows[0].Status)
}

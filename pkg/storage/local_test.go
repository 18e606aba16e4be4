package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage(t *testing.T) {
	ctx := context.Background()
	st, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	st.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	userID := uuid.New()

	first, err := st.Upload(ctx, userID, "../errors.csv", "text/csv", strings.NewReader("id,amount\n"))
	require.NoError(t, err)
	assert.Equal(t, "__errors.csv", first.Name)
	assert.Equal(t, int64(10), first.Size)

	second, err := st.Upload(ctx, userID, "export.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", strings.NewReader("x"))
	require.NoError(t, err)

	r, err := st.GetReader(ctx, userID, first.ID)
	require.NoError(t, err)
	body, err := io.ReadAll(r)
	require.NoError(t, r.Close())
	require.NoError(t, err)
	assert.Equal(t, "id,amount\n", string(body))

	files, err := st.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, second.ID, files[0].ID, "newest first")

	other, err := st.List(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, st.Delete(ctx, userID, first.ID))
	_, err = st.GetReader(ctx, userID, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, st.Delete(ctx, userID, first.ID), ErrNotFound)
}

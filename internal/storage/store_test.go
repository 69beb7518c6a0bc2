package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateAndGetWebhook(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.CreateWebhook(ctx, "https://hooks.example/services/T1/B1/X1", "basic")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := s.GetWebhook(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "https://hooks.example/services/T1/B1/X1", got.TargetURL)
	assert.Equal(t, "basic", got.Style)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestDuplicateTargetRejected(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.CreateWebhook(ctx, "https://hooks.example/services/T1/B1/X1", "basic")
	require.NoError(t, err)

	_, err = s.CreateWebhook(ctx, "https://hooks.example/services/T1/B1/X1", "detailed")
	assert.ErrorIs(t, err, ErrDuplicateTarget)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.WebhookCount)
}

func TestGetUnknownWebhook(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetWebhook(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordEventAndCounts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, err := s.CreateWebhook(ctx, "https://hooks.example/a", "basic")
	require.NoError(t, err)
	b, err := s.CreateWebhook(ctx, "https://hooks.example/b", "grouped")
	require.NoError(t, err)

	require.NoError(t, s.RecordEvent(ctx, a.ID, "error"))
	require.NoError(t, s.RecordEvent(ctx, a.ID, "warning"))
	require.NoError(t, s.RecordEvent(ctx, b.ID, "unknown"))

	n, err := s.EventCount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = s.EventCount(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.WebhookCount)
	assert.Equal(t, int64(3), st.EventCount)
}

func TestGetWebhookWithCorruptCreatedAt(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.CreateWebhook(ctx, "https://hooks.example/a", "basic")
	require.NoError(t, err)

	_, err = s.db.ExecContext(ctx, `UPDATE webhooks SET created_at = 'garbage' WHERE id = ?`, created.ID)
	require.NoError(t, err)

	// The row stays readable; only the creation time is lost.
	got, err := s.GetWebhook(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.TargetURL, got.TargetURL)
	assert.True(t, got.CreatedAt.IsZero())
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

package importjob_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilker/ledger-server/internal/importjob"
	"github.com/ilker/ledger-server/internal/models"
	"github.com/ilker/ledger-server/internal/repository"
)

func newGormStore(t *testing.T) importjob.StatusStore {
	t.Helper()
	db, err := repository.NewStatusDatabase(filepath.Join(t.TempDir(), "status.db"))
	require.NoError(t, err)
	store := importjob.NewGormStatusStore(db)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newBadgerStore(t *testing.T) importjob.StatusStore {
	t.Helper()
	store, err := importjob.OpenBadgerStatusStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

var backends = map[string]func(*testing.T) importjob.StatusStore{
	"sqlite": newGormStore,
	"badger": newBadgerStore,
}

func record(id string, startedAt time.Time, state models.ImportState) *models.ImportStatus {
	return &models.ImportStatus{
		RequestID:      id,
		Status:         state,
		StartedAt:      startedAt.UTC().Truncate(time.Second),
		SourceFileName: id + ".json",
	}
}

func TestStatusStore(t *testing.T) {
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			t.Run("create and get", func(t *testing.T) {
				ctx := context.Background()
				store := open(t)
				now := time.Now()

				require.NoError(t, store.Create(ctx, record("a", now, models.ImportStarted)))
				got, err := store.Get(ctx, "a")
				require.NoError(t, err)
				assert.Equal(t, models.ImportStarted, got.Status)
				assert.Equal(t, "a.json", got.SourceFileName)
				assert.Nil(t, got.FinishedAt)
				assert.Nil(t, got.ErrorDetail)
			})

			t.Run("duplicate", func(t *testing.T) {
				ctx := context.Background()
				store := open(t)

				require.NoError(t, store.Create(ctx, record("a", time.Now(), models.ImportStarted)))
				err := store.Create(ctx, record("a", time.Now(), models.ImportStarted))
				assert.ErrorIs(t, err, importjob.ErrDuplicateRequest)
			})

			t.Run("not found", func(t *testing.T) {
				ctx := context.Background()
				store := open(t)

				_, err := store.Get(ctx, "missing")
				assert.ErrorIs(t, err, importjob.ErrStatusNotFound)
				assert.ErrorIs(t, store.Update(ctx, record("missing", time.Now(), models.ImportFailed)), importjob.ErrStatusNotFound)
			})

			t.Run("update", func(t *testing.T) {
				ctx := context.Background()
				store := open(t)
				st := record("a", time.Now(), models.ImportStarted)
				require.NoError(t, store.Create(ctx, st))

				total := 42
				version := "1.0"
				finished := st.StartedAt.Add(time.Minute)
				st.Status = models.ImportCompleted
				st.TotalRecords = &total
				st.SnapshotFormatVersion = &version
				st.FinishedAt = &finished
				require.NoError(t, store.Update(ctx, st))

				got, err := store.Get(ctx, "a")
				require.NoError(t, err)
				assert.Equal(t, models.ImportCompleted, got.Status)
				require.NotNil(t, got.TotalRecords)
				assert.Equal(t, 42, *got.TotalRecords)
				require.NotNil(t, got.FinishedAt)
				assert.True(t, got.FinishedAt.Equal(finished))
			})

			t.Run("listing and retention", func(t *testing.T) {
				ctx := context.Background()
				store := open(t)
				now := time.Now().UTC()

				require.NoError(t, store.Create(ctx, record("old", now.Add(-8*24*time.Hour), models.ImportCompleted)))
				require.NoError(t, store.Create(ctx, record("yesterday", now.Add(-30*time.Hour), models.ImportFailed)))
				require.NoError(t, store.Create(ctx, record("recent", now.Add(-time.Hour), models.ImportProcessing)))
				require.NoError(t, store.Create(ctx, record("newest", now, models.ImportStarted)))

				all, err := store.List(ctx)
				require.NoError(t, err)
				assert.Equal(t, []string{"newest", "recent", "yesterday", "old"}, ids(all))

				recent, err := store.ListSince(ctx, now.Add(-24*time.Hour))
				require.NoError(t, err)
				assert.Equal(t, []string{"newest", "recent"}, ids(recent))

				unfinished, err := store.ListUnfinished(ctx)
				require.NoError(t, err)
				assert.ElementsMatch(t, []string{"newest", "recent"}, ids(unfinished))

				n, err := store.DeleteOlderThan(ctx, now.Add(-7*24*time.Hour))
				require.NoError(t, err)
				assert.EqualValues(t, 1, n)

				all, err = store.List(ctx)
				require.NoError(t, err)
				assert.Equal(t, []string{"newest", "recent", "yesterday"}, ids(all))
			})
		})
	}
}

func ids(records []models.ImportStatus) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.RequestID)
	}
	return out
}

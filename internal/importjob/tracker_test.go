package importjob

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilker/ledger-server/internal/backup"
	"github.com/ilker/ledger-server/internal/models"
	"github.com/ilker/ledger-server/internal/snapshot"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	store, err := OpenBadgerStatusStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewTracker(store)
}

func TestTracker_HappyPath(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(t)

	st, err := tr.Start(ctx, "req-1", "backup.json")
	require.NoError(t, err)
	assert.Equal(t, models.ImportStarted, st.Status)

	require.NoError(t, tr.Processing(ctx, "req-1"))
	require.NoError(t, tr.Describe(ctx, "req-1", 12, "1.0"))
	require.NoError(t, tr.Complete(ctx, "req-1", "restored 12 of 12 records, 0 skipped"))

	got, err := tr.Get(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.ImportCompleted, got.Status)
	assert.Equal(t, "restored 12 of 12 records, 0 skipped", got.Message)
	require.NotNil(t, got.FinishedAt)
	assert.False(t, got.FinishedAt.Before(got.StartedAt))
	assert.Equal(t, 12, *got.TotalRecords)
	assert.Equal(t, "1.0", *got.SnapshotFormatVersion)
	assert.Nil(t, got.ErrorDetail)
}

func TestTracker_TerminalIsFinal(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(t)

	_, err := tr.Start(ctx, "req-1", "backup.json")
	require.NoError(t, err)
	require.NoError(t, tr.Fail(ctx, "req-1", errors.New("boom")))

	assert.ErrorIs(t, tr.Processing(ctx, "req-1"), ErrInvalidTransition)
	assert.ErrorIs(t, tr.Complete(ctx, "req-1", "late"), ErrInvalidTransition)
	assert.ErrorIs(t, tr.Fail(ctx, "req-1", errors.New("again")), ErrInvalidTransition)
	assert.ErrorIs(t, tr.Describe(ctx, "req-1", 1, "1.0"), ErrInvalidTransition)

	got, err := tr.Get(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.ImportFailed, got.Status)
	assert.Equal(t, "Error: boom", *got.ErrorDetail)
}

func TestTracker_CannotSkipProcessing(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(t)

	_, err := tr.Start(ctx, "req-1", "backup.json")
	require.NoError(t, err)
	assert.ErrorIs(t, tr.Complete(ctx, "req-1", "done"), ErrInvalidTransition)
}

func TestTracker_RequestIDsAreNotReused(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(t)

	_, err := tr.Start(ctx, "req-1", "a.json")
	require.NoError(t, err)
	_, err = tr.Start(ctx, "req-1", "b.json")
	assert.ErrorIs(t, err, ErrDuplicateRequest)
}

func TestTracker_Cleanup(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tr.now = func() time.Time { return now.Add(-10 * 24 * time.Hour) }
	_, err := tr.Start(ctx, "old", "a.json")
	require.NoError(t, err)
	tr.now = func() time.Time { return now.Add(-2 * time.Hour) }
	_, err = tr.Start(ctx, "new", "b.json")
	require.NoError(t, err)

	tr.now = func() time.Time { return now }
	recent, err := tr.Recent(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "new", recent[0].RequestID)

	n, err := tr.Cleanup(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	all, err := tr.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestTracker_FailInterrupted(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(t)

	for _, id := range []string{"a", "b", "c"} {
		_, err := tr.Start(ctx, id, id+".json")
		require.NoError(t, err)
	}
	require.NoError(t, tr.Processing(ctx, "b"))
	require.NoError(t, tr.Processing(ctx, "c"))
	require.NoError(t, tr.Complete(ctx, "c", "done"))

	n, err := tr.FailInterrupted(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []string{"a", "b"} {
		got, err := tr.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.ImportFailed, got.Status, id)
		assert.Contains(t, *got.ErrorDetail, "interrupted")
	}
}

func TestErrorDetail(t *testing.T) {
	_, decodeErr := snapshot.Decode([]byte("not json"))
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"kinded", &backup.InvalidSnapshotError{Reason: "formatVersion is missing"}, "InvalidSnapshotError: invalid snapshot: formatVersion is missing"},
		{"wrapped kinded", fmt.Errorf("worker: %w", &PanicError{Value: "nil map"}), "PanicError: worker: import job panicked: nil map"},
		{"plain", errors.New("disk full"), "Error: disk full"},
		{"typed", &time.ParseError{Layout: "x", Value: "y", Message: ": bad"}, "time.ParseError: parsing time \"y\": bad"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorDetail(tt.err))
		})
	}

	assert.Contains(t, errorDetail(decodeErr), "MalformedSnapshotError: malformed snapshot")
}

package importjob

import (
	"context"
	"sort"
	"time"

	"github.com/ilker/ledger-server/internal/models"
)

// StatusStore persists import status records. It is independent of the
// ledger tables so a restore, or its rollback, never touches it.
type StatusStore interface {
	// Create inserts a new record. It returns ErrDuplicateRequest when the
	// request id already exists.
	Create(ctx context.Context, status *models.ImportStatus) error

	// Update replaces an existing record. It returns ErrStatusNotFound when
	// there is nothing to replace.
	Update(ctx context.Context, status *models.ImportStatus) error

	// Get returns ErrStatusNotFound for unknown request ids.
	Get(ctx context.Context, requestID string) (*models.ImportStatus, error)

	// List returns every record, newest first.
	List(ctx context.Context) ([]models.ImportStatus, error)

	// ListSince returns records started at or after since, newest first.
	ListSince(ctx context.Context, since time.Time) ([]models.ImportStatus, error)

	// DeleteOlderThan removes records started before cutoff and reports how
	// many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// ListUnfinished returns records not yet in a terminal state.
	ListUnfinished(ctx context.Context) ([]models.ImportStatus, error)

	Close() error
}

func sortNewestFirst(records []models.ImportStatus) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})
}

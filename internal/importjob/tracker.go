package importjob

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ilker/ledger-server/internal/logging"
	"github.com/ilker/ledger-server/internal/metrics"
	"github.com/ilker/ledger-server/internal/models"
)

// Tracker moves status records through the import state machine. Every
// write goes through transition, which refuses anything CanTransitionTo
// rejects, so a terminal record is never modified again.
type Tracker struct {
	store StatusStore
	now   func() time.Time
	mu    sync.Mutex
}

func NewTracker(store StatusStore) *Tracker {
	return &Tracker{store: store, now: time.Now}
}

func (t *Tracker) timestamp() time.Time {
	return t.now().UTC().Truncate(time.Second)
}

// Start records a newly accepted request as INICIADO.
func (t *Tracker) Start(ctx context.Context, requestID, fileName string) (*models.ImportStatus, error) {
	status := &models.ImportStatus{
		RequestID:      requestID,
		Status:         models.ImportStarted,
		Message:        "import accepted, waiting for a worker",
		StartedAt:      t.timestamp(),
		SourceFileName: fileName,
	}
	if err := t.store.Create(ctx, status); err != nil {
		return nil, err
	}
	logging.Info().Str("request_id", requestID).Str("file", fileName).Msg("import accepted")
	return status, nil
}

// Processing marks the request PROCESSANDO.
func (t *Tracker) Processing(ctx context.Context, requestID string) error {
	return t.transition(ctx, requestID, models.ImportProcessing, func(s *models.ImportStatus) {
		s.Message = "decoding snapshot"
	})
}

// Describe fills in what is known once the snapshot has been decoded. It
// does not change the state.
func (t *Tracker) Describe(ctx context.Context, requestID string, totalRecords int, formatVersion string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	status, err := t.store.Get(ctx, requestID)
	if err != nil {
		return err
	}
	if status.Status.Terminal() {
		return fmt.Errorf("%w: %s is %s", ErrInvalidTransition, requestID, status.Status)
	}
	status.TotalRecords = &totalRecords
	status.SnapshotFormatVersion = &formatVersion
	status.Message = fmt.Sprintf("restoring %d records", totalRecords)
	return t.store.Update(ctx, status)
}

// Complete marks the request CONCLUIDO.
func (t *Tracker) Complete(ctx context.Context, requestID, message string) error {
	return t.transition(ctx, requestID, models.ImportCompleted, func(s *models.ImportStatus) {
		s.Message = message
	})
}

// Fail marks the request ERRO and records the error's kind and message.
func (t *Tracker) Fail(ctx context.Context, requestID string, cause error) error {
	return t.transition(ctx, requestID, models.ImportFailed, func(s *models.ImportStatus) {
		detail := errorDetail(cause)
		s.Message = "import failed"
		s.ErrorDetail = &detail
	})
}

func (t *Tracker) transition(ctx context.Context, requestID string, next models.ImportState, apply func(*models.ImportStatus)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	status, err := t.store.Get(ctx, requestID)
	if err != nil {
		return err
	}
	if !status.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, requestID, status.Status, next)
	}

	status.Status = next
	apply(status)
	if next.Terminal() {
		finished := t.timestamp()
		status.FinishedAt = &finished
		metrics.ImportJobsFinished.WithLabelValues(string(next)).Inc()
	}
	if err := t.store.Update(ctx, status); err != nil {
		return err
	}

	logging.Debug().Str("request_id", requestID).Str("status", string(next)).Msg("import status changed")
	return nil
}

// Get returns the status of one request.
func (t *Tracker) Get(ctx context.Context, requestID string) (*models.ImportStatus, error) {
	return t.store.Get(ctx, requestID)
}

// Recent lists records started within window, newest first.
func (t *Tracker) Recent(ctx context.Context, window time.Duration) ([]models.ImportStatus, error) {
	return t.store.ListSince(ctx, t.now().Add(-window))
}

// All lists every record, newest first.
func (t *Tracker) All(ctx context.Context) ([]models.ImportStatus, error) {
	return t.store.List(ctx)
}

// Cleanup removes records started more than retention ago.
func (t *Tracker) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := t.store.DeleteOlderThan(ctx, t.now().Add(-retention))
	if err != nil {
		return 0, err
	}
	metrics.StatusRecordsSwept.Add(float64(n))
	logging.Info().Int64("deleted", n).Dur("retention", retention).Msg("import status cleanup")
	return n, nil
}

// FailInterrupted marks every unfinished record ERRO. Jobs do not survive a
// restart, so anything still pending at startup will never complete.
func (t *Tracker) FailInterrupted(ctx context.Context) (int, error) {
	pending, err := t.store.ListUnfinished(ctx)
	if err != nil {
		return 0, err
	}
	for _, st := range pending {
		if err := t.Fail(ctx, st.RequestID, ErrInterrupted); err != nil {
			return 0, err
		}
		logging.Warn().Str("request_id", st.RequestID).Msg("import interrupted by restart")
	}
	return len(pending), nil
}

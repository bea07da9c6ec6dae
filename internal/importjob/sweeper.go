package importjob

import (
	"context"
	"time"

	"github.com/ilker/ledger-server/internal/logging"
)

// Sweeper deletes old status records on a fixed interval. It is a suture
// service.
type Sweeper struct {
	tracker   *Tracker
	retention time.Duration
	interval  time.Duration
}

func NewSweeper(tracker *Tracker, retention, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 7 * 24 * time.Hour
	}
	return &Sweeper{tracker: tracker, retention: retention, interval: interval}
}

func (s *Sweeper) Serve(ctx context.Context) error {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	if _, err := s.tracker.Cleanup(ctx, s.retention); err != nil {
		logging.Error().Err(err).Msg("import status sweep failed")
	}
}

func (s *Sweeper) String() string {
	return "import-status-sweeper"
}

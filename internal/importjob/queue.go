package importjob

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ilker/ledger-server/internal/metrics"
)

// Job is one accepted import waiting for a worker.
type Job struct {
	RequestID  string
	FileName   string
	Payload    []byte
	AcceptedAt time.Time
}

// QueueConfig bounds the queue.
type QueueConfig struct {
	// Size is the number of jobs that may wait for a worker.
	Size int

	// Exclusive rejects a submission while any accepted job is unfinished.
	Exclusive bool
}

// Queue is the intake side of the import pipeline. Submit records the
// request as INICIADO and hands it to the workers without waiting.
type Queue struct {
	jobs    chan Job
	tracker *Tracker
	cfg     QueueConfig

	mu     sync.Mutex
	active map[string]struct{}
	closed bool
}

func NewQueue(tracker *Tracker, cfg QueueConfig) *Queue {
	if cfg.Size <= 0 {
		cfg.Size = 1
	}
	return &Queue{
		jobs:    make(chan Job, cfg.Size),
		tracker: tracker,
		cfg:     cfg,
		active:  make(map[string]struct{}),
	}
}

// Submit accepts an import. On success the status record exists and the
// job is queued; whether and when it starts is up to the workers.
func (q *Queue) Submit(ctx context.Context, requestID string, payload []byte, fileName string) error {
	if requestID == "" {
		return ErrEmptyRequestID
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	switch {
	case q.closed:
		return ErrQueueClosed
	case q.cfg.Exclusive && len(q.active) > 0:
		metrics.ImportRequests.WithLabelValues("in_progress").Inc()
		return ErrImportInProgress
	case len(q.jobs) == cap(q.jobs):
		metrics.ImportRequests.WithLabelValues("queue_full").Inc()
		return ErrQueueFull
	}

	if _, err := q.tracker.Start(ctx, requestID, fileName); err != nil {
		if errors.Is(err, ErrDuplicateRequest) {
			metrics.ImportRequests.WithLabelValues("duplicate").Inc()
		}
		return err
	}

	q.active[requestID] = struct{}{}
	metrics.ImportsInFlight.Inc()
	metrics.ImportRequests.WithLabelValues("accepted").Inc()

	// Only Submit sends, under mu, after the capacity check above.
	q.jobs <- Job{
		RequestID:  requestID,
		FileName:   fileName,
		Payload:    payload,
		AcceptedAt: time.Now(),
	}
	return nil
}

// Jobs is the channel workers receive from.
func (q *Queue) Jobs() <-chan Job {
	return q.jobs
}

// Done releases a finished job.
func (q *Queue) Done(requestID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.active[requestID]; ok {
		delete(q.active, requestID)
		metrics.ImportsInFlight.Dec()
	}
}

// Active reports how many accepted jobs have not finished.
func (q *Queue) Active() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.active)
}

// Close stops intake. Jobs already queued are left for the workers.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

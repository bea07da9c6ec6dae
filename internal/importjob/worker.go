package importjob

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/ilker/ledger-server/internal/backup"
	"github.com/ilker/ledger-server/internal/logging"
	"github.com/ilker/ledger-server/internal/snapshot"
)

// Restorer applies a decoded snapshot to the ledger.
type Restorer interface {
	Restore(ctx context.Context, s *snapshot.Snapshot) (*backup.RestoreResult, error)
}

// Worker takes jobs off the queue one at a time. It is a suture service.
type Worker struct {
	id        int
	queue     *Queue
	tracker   *Tracker
	restorer  Restorer
	publisher message.Publisher
}

// NewWorker creates a worker. publisher may be nil, in which case no finish
// events are published.
func NewWorker(id int, queue *Queue, tracker *Tracker, restorer Restorer, publisher message.Publisher) *Worker {
	return &Worker{
		id:        id,
		queue:     queue,
		tracker:   tracker,
		restorer:  restorer,
		publisher: publisher,
	}
}

func (w *Worker) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job := <-w.queue.Jobs():
			w.Process(ctx, job)
		}
	}
}

func (w *Worker) String() string {
	return fmt.Sprintf("import-worker-%d", w.id)
}

// Process runs job to CONCLUIDO or ERRO and publishes the finish event. A
// started restore is never cancelled, so ctx only supplies values.
func (w *Worker) Process(ctx context.Context, job Job) {
	ctx = context.WithoutCancel(ctx)
	defer w.queue.Done(job.RequestID)

	log := logging.With().Str("request_id", job.RequestID).Str("worker", w.String()).Logger()
	log.Info().Str("file", job.FileName).Int("bytes", len(job.Payload)).Msg("import started")

	snap, result, err := w.run(ctx, job)

	ev := FinishEvent{RequestID: job.RequestID}
	if snap != nil {
		meta := snap.Metadata
		ev.Snapshot = &meta
	}

	if err != nil {
		if ferr := w.tracker.Fail(ctx, job.RequestID, err); ferr != nil {
			log.Error().Err(ferr).Msg("failed to record import failure")
		}
		detail := errorDetail(err)
		ev.Message = "import failed"
		ev.Error = &detail
		log.Error().Err(err).Dur("elapsed", time.Since(job.AcceptedAt)).Msg("import failed")
	} else {
		summary := fmt.Sprintf("restored %d of %d records, %d skipped",
			result.TotalRestored(), snap.TotalRecords, result.TotalSkipped())
		if cerr := w.tracker.Complete(ctx, job.RequestID, summary); cerr != nil {
			log.Error().Err(cerr).Msg("failed to record import completion")
		}
		ev.Success = true
		ev.Message = summary
		log.Info().
			Int("restored", result.TotalRestored()).
			Int("skipped", result.TotalSkipped()).
			Dur("elapsed", time.Since(job.AcceptedAt)).
			Msg("import completed")
	}

	ev.FinishedAt = time.Now().UTC()
	w.publish(ev)
}

func (w *Worker) run(ctx context.Context, job Job) (snap *snapshot.Snapshot, result *backup.RestoreResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error().
				Str("request_id", job.RequestID).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("import job panicked")
			err = &PanicError{Value: r}
		}
	}()

	if err = w.tracker.Processing(ctx, job.RequestID); err != nil {
		return nil, nil, err
	}
	if snap, err = snapshot.Decode(job.Payload); err != nil {
		return nil, nil, err
	}
	if err = backup.Validate(snap); err != nil {
		return snap, nil, err
	}
	if err = w.tracker.Describe(ctx, job.RequestID, snap.TotalRecords, snap.FormatVersion); err != nil {
		return snap, nil, err
	}
	result, err = w.restorer.Restore(ctx, snap)
	return snap, result, err
}

// publish is fire-and-forget; a lost notification never affects the import.
func (w *Worker) publish(ev FinishEvent) {
	if w.publisher == nil {
		return
	}
	msg, err := NewFinishMessage(ev)
	if err == nil {
		err = w.publisher.Publish(TopicImportFinished, msg)
	}
	if err != nil {
		logging.Warn().Err(err).Str("request_id", ev.RequestID).Msg("failed to publish import finish event")
	}
}

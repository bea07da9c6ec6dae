package importjob_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilker/ledger-server/internal/backup"
	"github.com/ilker/ledger-server/internal/config"
	"github.com/ilker/ledger-server/internal/importjob"
	"github.com/ilker/ledger-server/internal/models"
	"github.com/ilker/ledger-server/internal/repository"
	"github.com/ilker/ledger-server/internal/snapshot"
)

type pipeline struct {
	ledger   *repository.Ledger
	exporter *backup.Exporter
	tracker  *importjob.Tracker
	queue    *importjob.Queue
	worker   *importjob.Worker
	events   <-chan *message.Message
}

func newPipeline(t *testing.T, cfg importjob.QueueConfig, restorer importjob.Restorer) *pipeline {
	t.Helper()

	db, err := repository.NewDatabase(&config.DatabaseConfig{
		SQLitePath: filepath.Join(t.TempDir(), "ledger.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	ledger := repository.NewLedger(db)
	if restorer == nil {
		restorer = backup.NewRestorer(ledger)
	}

	bus := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	t.Cleanup(func() { _ = bus.Close() })
	events, err := bus.Subscribe(context.Background(), importjob.TopicImportFinished)
	require.NoError(t, err)

	tracker := importjob.NewTracker(newGormStore(t))
	queue := importjob.NewQueue(tracker, cfg)

	return &pipeline{
		ledger:   ledger,
		exporter: backup.NewExporter(ledger, "test"),
		tracker:  tracker,
		queue:    queue,
		worker:   importjob.NewWorker(1, queue, tracker, restorer, bus),
		events:   events,
	}
}

// runNext processes the next queued job on the calling goroutine.
func (p *pipeline) runNext(t *testing.T) {
	t.Helper()
	select {
	case job := <-p.queue.Jobs():
		p.worker.Process(context.Background(), job)
	default:
		t.Fatal("no job queued")
	}
}

func (p *pipeline) nextEvent(t *testing.T) importjob.FinishEvent {
	t.Helper()
	select {
	case msg := <-p.events:
		msg.Ack()
		ev, err := importjob.DecodeFinishEvent(msg)
		require.NoError(t, err)
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("no finish event")
		return importjob.FinishEvent{}
	}
}

func validPayload(t *testing.T) []byte {
	t.Helper()
	at := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	acct := uint(10)
	s := &snapshot.Snapshot{
		Metadata: snapshot.Metadata{GeneratedAt: at, FormatVersion: "1.0", ProducerVersion: "test"},
		Accounts: []snapshot.AccountRecord{{ID: acct, Name: "Corrente", CreatedAt: at}},
		Expenses: []snapshot.ExpenseRecord{
			{ID: 1, Description: "Luz", AmountCents: 9000, AccountID: &acct, DueDate: at, CreatedAt: at},
			{ID: 2, Description: "Água", AmountCents: 7000, AccountID: &acct, DueDate: at, CreatedAt: at},
		},
		Notifications: []snapshot.NotificationRecord{
			{ID: 1, Title: "orphan", CardID: &acct, ScheduledFor: at, CreatedAt: at},
		},
	}
	s.TotalRecords = s.RecordCount()
	data, err := snapshot.Encode(s)
	require.NoError(t, err)
	return data
}

func TestWorker_CompletesImport(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t, importjob.QueueConfig{Size: 4, Exclusive: true}, nil)

	require.NoError(t, p.queue.Submit(ctx, "req-1", validPayload(t), "backup.json"))

	st, err := p.tracker.Get(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.ImportStarted, st.Status)

	p.runNext(t)

	st, err = p.tracker.Get(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.ImportCompleted, st.Status)
	assert.Equal(t, "restored 3 of 4 records, 1 skipped", st.Message)
	require.NotNil(t, st.TotalRecords)
	assert.Equal(t, 4, *st.TotalRecords)
	assert.Equal(t, "1.0", *st.SnapshotFormatVersion)
	assert.NotNil(t, st.FinishedAt)
	assert.Zero(t, p.queue.Active())

	counts, err := p.ledger.Counts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, counts[models.EntityExpenses])
	assert.EqualValues(t, 0, counts[models.EntityNotifications])

	ev := p.nextEvent(t)
	assert.Equal(t, "req-1", ev.RequestID)
	assert.True(t, ev.Success)
	assert.Nil(t, ev.Error)
	require.NotNil(t, ev.Snapshot)
	assert.Equal(t, 4, ev.Snapshot.TotalRecords)
}

func TestWorker_MalformedPayloadLeavesLedgerUntouched(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t, importjob.QueueConfig{Size: 4, Exclusive: true}, nil)
	require.NoError(t, p.ledger.Accounts.Save(ctx, &models.Account{Name: "keep me"}))

	require.NoError(t, p.queue.Submit(ctx, "req-1", []byte("\x89PNG\r\n\x1a\n not a snapshot"), "photo.json"))
	p.runNext(t)

	st, err := p.tracker.Get(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.ImportFailed, st.Status)
	require.NotNil(t, st.ErrorDetail)
	assert.Contains(t, *st.ErrorDetail, "MalformedSnapshotError")
	assert.Nil(t, st.TotalRecords)
	assert.NotNil(t, st.FinishedAt)

	accounts, err := p.ledger.Accounts.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "keep me", accounts[0].Name)

	ev := p.nextEvent(t)
	assert.False(t, ev.Success)
	assert.Nil(t, ev.Snapshot)
	require.NotNil(t, ev.Error)
	assert.Contains(t, *ev.Error, "MalformedSnapshotError")
}

func TestWorker_UnsupportedVersionFails(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t, importjob.QueueConfig{Size: 4}, nil)

	payload := []byte(`{"generatedAt":"2024-02-01T08:00:00Z","formatVersion":"9.0","totalRecords":0}`)
	require.NoError(t, p.queue.Submit(ctx, "req-1", payload, "future.json"))
	p.runNext(t)

	st, err := p.tracker.Get(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.ImportFailed, st.Status)
	assert.Contains(t, *st.ErrorDetail, "InvalidSnapshotError")

	ev := p.nextEvent(t)
	require.NotNil(t, ev.Snapshot, "header was decoded")
	assert.Equal(t, "9.0", ev.Snapshot.FormatVersion)
}

type panicRestorer struct{}

func (panicRestorer) Restore(context.Context, *snapshot.Snapshot) (*backup.RestoreResult, error) {
	panic("restore exploded")
}

func TestWorker_RecoversPanic(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t, importjob.QueueConfig{Size: 4, Exclusive: true}, panicRestorer{})

	require.NoError(t, p.queue.Submit(ctx, "req-1", validPayload(t), "backup.json"))
	p.runNext(t)

	st, err := p.tracker.Get(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.ImportFailed, st.Status)
	assert.Contains(t, *st.ErrorDetail, "PanicError")
	assert.Zero(t, p.queue.Active(), "panicking job is released")

	// The pipeline keeps accepting work.
	require.NoError(t, p.queue.Submit(ctx, "req-2", validPayload(t), "backup.json"))
}

func TestQueue_Intake(t *testing.T) {
	ctx := context.Background()

	t.Run("exclusive rejects a second import", func(t *testing.T) {
		p := newPipeline(t, importjob.QueueConfig{Size: 4, Exclusive: true}, nil)
		require.NoError(t, p.queue.Submit(ctx, "req-1", validPayload(t), "a.json"))

		err := p.queue.Submit(ctx, "req-2", validPayload(t), "b.json")
		assert.ErrorIs(t, err, importjob.ErrImportInProgress)
		_, err = p.tracker.Get(ctx, "req-2")
		assert.ErrorIs(t, err, importjob.ErrStatusNotFound, "rejected requests leave no record")

		p.runNext(t)
		assert.NoError(t, p.queue.Submit(ctx, "req-2", validPayload(t), "b.json"))
	})

	t.Run("duplicate id", func(t *testing.T) {
		p := newPipeline(t, importjob.QueueConfig{Size: 4}, nil)
		require.NoError(t, p.queue.Submit(ctx, "req-1", validPayload(t), "a.json"))
		p.runNext(t)

		err := p.queue.Submit(ctx, "req-1", validPayload(t), "a.json")
		assert.ErrorIs(t, err, importjob.ErrDuplicateRequest)
	})

	t.Run("bounded", func(t *testing.T) {
		p := newPipeline(t, importjob.QueueConfig{Size: 1}, nil)
		require.NoError(t, p.queue.Submit(ctx, "req-1", validPayload(t), "a.json"))
		assert.ErrorIs(t, p.queue.Submit(ctx, "req-2", validPayload(t), "b.json"), importjob.ErrQueueFull)
	})

	t.Run("closed", func(t *testing.T) {
		p := newPipeline(t, importjob.QueueConfig{Size: 1}, nil)
		p.queue.Close()
		assert.ErrorIs(t, p.queue.Submit(ctx, "req-1", validPayload(t), "a.json"), importjob.ErrQueueClosed)
	})

	t.Run("empty id", func(t *testing.T) {
		p := newPipeline(t, importjob.QueueConfig{Size: 1}, nil)
		assert.ErrorIs(t, p.queue.Submit(ctx, "", validPayload(t), "a.json"), importjob.ErrEmptyRequestID)
	})
}

func TestWorker_Serve(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := newPipeline(t, importjob.QueueConfig{Size: 4, Exclusive: true}, nil)

	done := make(chan error, 1)
	go func() { done <- p.worker.Serve(ctx) }()

	require.NoError(t, p.queue.Submit(ctx, "req-1", validPayload(t), "backup.json"))

	var seen []models.ImportState
	require.Eventually(t, func() bool {
		st, err := p.tracker.Get(context.Background(), "req-1")
		if err != nil {
			return false
		}
		if len(seen) == 0 || seen[len(seen)-1] != st.Status {
			seen = append(seen, st.Status)
		}
		return st.Status.Terminal()
	}, 5*time.Second, 5*time.Millisecond)

	// Observed states only ever move forward.
	order := map[models.ImportState]int{
		models.ImportStarted: 0, models.ImportProcessing: 1, models.ImportCompleted: 2, models.ImportFailed: 2,
	}
	for i := 1; i < len(seen); i++ {
		assert.Greater(t, order[seen[i]], order[seen[i-1]], "%v", seen)
	}
	assert.Equal(t, models.ImportCompleted, seen[len(seen)-1])

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gin-gonic/gin"

	"github.com/ilker/ledger-server/internal/backup"
	"github.com/ilker/ledger-server/internal/config"
	"github.com/ilker/ledger-server/internal/handlers"
	"github.com/ilker/ledger-server/internal/importjob"
	"github.com/ilker/ledger-server/internal/logging"
	"github.com/ilker/ledger-server/internal/middleware"
	"github.com/ilker/ledger-server/internal/notify"
	"github.com/ilker/ledger-server/internal/repository"
	"github.com/ilker/ledger-server/internal/supervisor"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize ledger database
	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to ledger database")
	}
	ledger := repository.NewLedger(db)

	// Import status store, kept apart from the ledger
	store, err := openStatusStore(cfg.Status)
	if err != nil {
		logging.Fatal().Err(err).Str("backend", cfg.Status.Backend).Msg("failed to open import status store")
	}
	defer store.Close()

	tracker := importjob.NewTracker(store)
	if n, err := tracker.FailInterrupted(context.Background()); err != nil {
		logging.Fatal().Err(err).Msg("failed to settle interrupted imports")
	} else if n > 0 {
		logging.Warn().Int("count", n).Msg("marked interrupted imports as failed")
	}

	queue := importjob.NewQueue(tracker, importjob.QueueConfig{
		Size:      cfg.Import.QueueSize,
		Exclusive: cfg.Import.Exclusive,
	})

	// Finish events go through an in-process bus to the notifiers
	bus := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, watermill.NopLogger{})
	defer bus.Close()

	notifiers := []notify.Notifier{notify.LogNotifier{}}
	if cfg.Notify.WebhookURL != "" {
		webhook := notify.NewWebhookNotifier(cfg.Notify.WebhookURL, cfg.Notify.Timeout)
		notifiers = append(notifiers, notify.NewBreakerNotifier(webhook, cfg.Notify.BreakerFailures, cfg.Notify.BreakerOpenDelay))
	}

	// HTTP
	var importLimit *middleware.RateLimiter
	if cfg.Import.RatePerMinute > 0 {
		importLimit = middleware.NewRateLimiter(cfg.Import.RatePerMinute, time.Minute, cfg.Import.RateBurst)
	}
	confirm := middleware.NewConfirmAuth(cfg.Confirm.Secret, cfg.Confirm.TTL)
	router := handlers.NewRouter(handlers.Routes{
		Backup: handlers.NewBackupHandler(backup.NewExporter(ledger, cfg.App.Version), queue, tracker, handlers.BackupOptions{
			MaxUploadBytes: cfg.Import.MaxUploadMB << 20,
			HistoryWindow:  cfg.Import.HistoryWindow,
			Retention:      cfg.Import.Retention,
		}),
		Confirmation: handlers.NewConfirmationHandler(confirm),
		Ledger:       handlers.NewLedgerHandler(ledger),
		Confirm:      confirm,
		ImportLimit:  importLimit,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Supervisor tree
	tree := supervisor.NewTree(supervisor.TreeConfig{ShutdownTimeout: cfg.Server.ShutdownTimeout})

	restorer := backup.NewRestorer(ledger)
	workers := cfg.Import.Workers
	if workers < 1 {
		workers = 1
	}
	for i := 1; i <= workers; i++ {
		tree.AddPipelineService(importjob.NewWorker(i, queue, tracker, restorer, bus))
	}
	tree.AddPipelineService(importjob.NewSweeper(tracker, cfg.Import.Retention, cfg.Import.SweepInterval))
	tree.AddNotifyService(notify.NewDispatcher(bus, notifiers...))
	tree.AddAPIService(supervisor.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().
		Str("addr", addr).
		Str("status_backend", cfg.Status.Backend).
		Int("workers", workers).
		Bool("exclusive", cfg.Import.Exclusive).
		Msg("starting ledger server")

	errCh := tree.ServeBackground(ctx)
	<-ctx.Done()
	queue.Close()
	logging.Info().Msg("shutting down")

	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("supervisor stopped with error")
	}
	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		logging.Warn().Int("count", len(report)).Msg("services did not stop in time")
	}
}

func openStatusStore(cfg config.StatusConfig) (importjob.StatusStore, error) {
	switch cfg.Backend {
	case "", "sqlite":
		db, err := repository.NewStatusDatabase(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return importjob.NewGormStatusStore(db), nil
	case "badger":
		return importjob.OpenBadgerStatusStore(cfg.BadgerPath)
	default:
		return nil, fmt.Errorf("unknown status backend %q", cfg.Backend)
	}
}

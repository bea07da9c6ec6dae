// Package notify delivers import finish events to interested parties. It is
// fed from the message bus and never reports back to the import pipeline.
package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ilker/ledger-server/internal/importjob"
	"github.com/ilker/ledger-server/internal/logging"
)

// Notifier delivers one finish event.
type Notifier interface {
	Notify(ctx context.Context, ev importjob.FinishEvent) error
	Name() string
}

// LogNotifier writes finish events to the application log.
type LogNotifier struct{}

func (LogNotifier) Name() string { return "log" }

func (LogNotifier) Notify(_ context.Context, ev importjob.FinishEvent) error {
	var e *zerolog.Event
	if ev.Success {
		e = logging.Info()
	} else {
		e = logging.Warn()
	}
	if ev.Error != nil {
		e = e.Str("error", *ev.Error)
	}
	if ev.Snapshot != nil {
		e = e.Str("format_version", ev.Snapshot.FormatVersion).Int("total_records", ev.Snapshot.TotalRecords)
	}
	e.Str("request_id", ev.RequestID).
		Bool("success", ev.Success).
		Str("summary", ev.Message).
		Msg("import finished")
	return nil
}

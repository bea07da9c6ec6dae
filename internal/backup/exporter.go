package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/ilker/ledger-server/internal/logging"
	"github.com/ilker/ledger-server/internal/metrics"
	"github.com/ilker/ledger-server/internal/repository"
	"github.com/ilker/ledger-server/internal/snapshot"
)

// Exporter reads the ledger into a snapshot.
type Exporter struct {
	ledger  *repository.Ledger
	version string
	now     func() time.Time
}

// NewExporter creates an Exporter. version is written as producerVersion.
func NewExporter(ledger *repository.Ledger, version string) *Exporter {
	return &Exporter{ledger: ledger, version: version, now: time.Now}
}

// Export reads every table inside one read transaction so the snapshot is a
// consistent view. An empty ledger yields a snapshot with empty collections.
func (e *Exporter) Export(ctx context.Context) (*snapshot.Snapshot, error) {
	start := time.Now()

	s := &snapshot.Snapshot{
		Metadata: snapshot.Metadata{
			GeneratedAt:     snapshot.Timestamp(e.now()),
			FormatVersion:   snapshot.FormatVersion,
			ProducerVersion: e.version,
		},
	}

	err := e.ledger.Transaction(ctx, func(tx *repository.Ledger) error {
		var err error
		if s.Users, err = exportTable(ctx, tx.Users, userRecord); err != nil {
			return fmt.Errorf("export users: %w", err)
		}
		if s.Categories, err = exportTable(ctx, tx.Categories, categoryRecord); err != nil {
			return fmt.Errorf("export categories: %w", err)
		}
		if s.Accounts, err = exportTable(ctx, tx.Accounts, accountRecord); err != nil {
			return fmt.Errorf("export accounts: %w", err)
		}
		if s.Cards, err = exportTable(ctx, tx.Cards, cardRecord); err != nil {
			return fmt.Errorf("export cards: %w", err)
		}
		if s.Thoughts, err = exportTable(ctx, tx.Thoughts, thoughtRecord); err != nil {
			return fmt.Errorf("export thoughts: %w", err)
		}
		if s.SpendingLimits, err = exportTable(ctx, tx.SpendingLimits, spendingLimitRecord); err != nil {
			return fmt.Errorf("export spending limits: %w", err)
		}
		if s.Charts, err = exportTable(ctx, tx.Charts, chartRecord); err != nil {
			return fmt.Errorf("export charts: %w", err)
		}
		if s.TaskLogs, err = exportTable(ctx, tx.TaskLogs, taskLogRecord); err != nil {
			return fmt.Errorf("export task logs: %w", err)
		}
		if s.Expenses, err = exportTable(ctx, tx.Expenses, expenseRecord); err != nil {
			return fmt.Errorf("export expenses: %w", err)
		}
		if s.Incomes, err = exportTable(ctx, tx.Incomes, incomeRecord); err != nil {
			return fmt.Errorf("export incomes: %w", err)
		}
		if s.Notifications, err = exportTable(ctx, tx.Notifications, notificationRecord); err != nil {
			return fmt.Errorf("export notifications: %w", err)
		}
		if s.History, err = exportTable(ctx, tx.History, historyRecord); err != nil {
			return fmt.Errorf("export history: %w", err)
		}
		return nil
	})
	metrics.RecordExport(time.Since(start), err)
	if err != nil {
		return nil, err
	}

	s.TotalRecords = s.RecordCount()

	logging.Info().
		Int("total_records", s.TotalRecords).
		Dur("duration", time.Since(start)).
		Msg("snapshot exported")
	return s, nil
}

func exportTable[M, R any](ctx context.Context, table repository.Table[M], toRecord func(M) R) ([]R, error) {
	rows, err := table.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]R, 0, len(rows))
	for _, row := range rows {
		records = append(records, toRecord(row))
	}
	return records, nil
}

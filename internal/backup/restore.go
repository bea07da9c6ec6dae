package backup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ilker/ledger-server/internal/logging"
	"github.com/ilker/ledger-server/internal/metrics"
	"github.com/ilker/ledger-server/internal/models"
	"github.com/ilker/ledger-server/internal/repository"
	"github.com/ilker/ledger-server/internal/snapshot"
)

// RestoreResult summarizes a committed restore.
type RestoreResult struct {
	Restored map[string]int `json:"restored"`
	Skipped  map[string]int `json:"skipped"`
	Duration time.Duration  `json:"duration"`
}

// TotalRestored is the number of rows written.
func (r *RestoreResult) TotalRestored() int {
	return sum(r.Restored)
}

// TotalSkipped is the number of dependent records dropped for an
// unresolved reference.
func (r *RestoreResult) TotalSkipped() int {
	return sum(r.Skipped)
}

func sum(m map[string]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}

// IDMap maps a record's identifier in the snapshot to the identifier the
// store assigned when the record was re-created.
type IDMap map[uint]uint

// resolver translates the foreign keys of one dependent record. The first
// reference missing from its remap table is kept in missing; the record must
// then be skipped.
type resolver struct {
	ids     map[string]IDMap
	missing *danglingRef
}

func (r *resolver) ref(entity string, old *uint) *uint {
	if old == nil || r.missing != nil {
		return nil
	}
	newID, ok := r.ids[entity][*old]
	if !ok {
		r.missing = &danglingRef{entity: entity, id: *old}
		return nil
	}
	return &newID
}

// Restorer replaces the whole ledger with the contents of a snapshot.
type Restorer struct {
	ledger *repository.Ledger
}

func NewRestorer(ledger *repository.Ledger) *Restorer {
	return &Restorer{ledger: ledger}
}

// Validate checks that s carries the metadata restore depends on, a
// supported format and unique record identifiers per type.
func Validate(s *snapshot.Snapshot) error {
	if s == nil {
		return &InvalidSnapshotError{Reason: "snapshot is nil"}
	}
	if s.GeneratedAt.IsZero() {
		return &InvalidSnapshotError{Reason: "generatedAt is missing"}
	}
	if strings.TrimSpace(s.FormatVersion) == "" {
		return &InvalidSnapshotError{Reason: "formatVersion is missing"}
	}
	if major(s.FormatVersion) != major(snapshot.FormatVersion) {
		return &InvalidSnapshotError{
			Reason: fmt.Sprintf("unsupported formatVersion %s (want %s)", s.FormatVersion, snapshot.FormatVersion),
		}
	}

	checks := []error{
		uniqueIDs(models.EntityUsers, s.Users, func(r snapshot.UserRecord) uint { return r.ID }),
		uniqueIDs(models.EntityCategories, s.Categories, func(r snapshot.CategoryRecord) uint { return r.ID }),
		uniqueIDs(models.EntityAccounts, s.Accounts, func(r snapshot.AccountRecord) uint { return r.ID }),
		uniqueIDs(models.EntityCards, s.Cards, func(r snapshot.CardRecord) uint { return r.ID }),
		uniqueIDs(models.EntityThoughts, s.Thoughts, func(r snapshot.ThoughtRecord) uint { return r.ID }),
		uniqueIDs(models.EntitySpendingLimits, s.SpendingLimits, func(r snapshot.SpendingLimitRecord) uint { return r.ID }),
		uniqueIDs(models.EntityCharts, s.Charts, func(r snapshot.ChartRecord) uint { return r.ID }),
		uniqueIDs(models.EntityTaskLogs, s.TaskLogs, func(r snapshot.TaskLogRecord) uint { return r.ID }),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}

func major(version string) string {
	v, _, _ := strings.Cut(strings.TrimSpace(version), ".")
	return v
}

// uniqueIDs guards the remap tables: two records sharing an identifier would
// make references to that identifier ambiguous. Only referenced types need it.
func uniqueIDs[R any](entity string, records []R, id func(R) uint) error {
	seen := make(map[uint]struct{}, len(records))
	for _, r := range records {
		k := id(r)
		if _, dup := seen[k]; dup {
			return &InvalidSnapshotError{Reason: fmt.Sprintf("duplicate %s id %d", entity, k)}
		}
		seen[k] = struct{}{}
	}
	return nil
}

// Restore wipes every ledger table and re-creates the snapshot's records in
// one transaction. Independent types are restored first and their new
// identifiers recorded; dependent records are re-linked through those maps.
// A dependent record referencing an identifier that was not restored is
// skipped and counted in RestoreResult.Skipped. Any store error rolls the
// whole transaction back.
func (r *Restorer) Restore(ctx context.Context, s *snapshot.Snapshot) (*RestoreResult, error) {
	if err := Validate(s); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &RestoreResult{
		Restored: make(map[string]int),
		Skipped:  make(map[string]int),
	}

	err := r.ledger.Transaction(ctx, func(tx *repository.Ledger) error {
		run := &restoreRun{
			tx:     tx,
			ids:    make(map[string]IDMap),
			result: result,
		}
		return run.execute(ctx, s)
	})
	result.Duration = time.Since(start)
	metrics.RecordRestore(result.Duration, result.Restored, result.Skipped, err)
	if err != nil {
		logging.Error().Err(err).Dur("duration", result.Duration).Msg("restore rolled back")
		return nil, err
	}

	logging.Info().
		Int("restored", result.TotalRestored()).
		Int("skipped", result.TotalSkipped()).
		Int("declared", s.TotalRecords).
		Dur("duration", result.Duration).
		Msg("restore committed")
	return result, nil
}

type restoreRun struct {
	tx     *repository.Ledger
	ids    map[string]IDMap
	result *RestoreResult
}

func (run *restoreRun) execute(ctx context.Context, s *snapshot.Snapshot) error {
	tx := run.tx
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"wipe", run.wipe},

		// Independent
		{models.EntityUsers, func(ctx context.Context) error {
			return restoreTable(ctx, run, models.EntityUsers, tx.Users, s.Users,
				func(r snapshot.UserRecord) uint { return r.ID }, userModel,
				func(m *models.User) uint { return m.ID })
		}},
		{models.EntityCategories, func(ctx context.Context) error {
			return restoreTable(ctx, run, models.EntityCategories, tx.Categories, s.Categories,
				func(r snapshot.CategoryRecord) uint { return r.ID }, categoryModel,
				func(m *models.Category) uint { return m.ID })
		}},
		{models.EntityAccounts, func(ctx context.Context) error {
			return restoreTable(ctx, run, models.EntityAccounts, tx.Accounts, s.Accounts,
				func(r snapshot.AccountRecord) uint { return r.ID }, accountModel,
				func(m *models.Account) uint { return m.ID })
		}},
		{models.EntityCards, func(ctx context.Context) error {
			return restoreTable(ctx, run, models.EntityCards, tx.Cards, s.Cards,
				func(r snapshot.CardRecord) uint { return r.ID }, cardModel,
				func(m *models.Card) uint { return m.ID })
		}},
		{models.EntityThoughts, func(ctx context.Context) error {
			return restoreTable(ctx, run, models.EntityThoughts, tx.Thoughts, s.Thoughts,
				func(r snapshot.ThoughtRecord) uint { return r.ID }, thoughtModel,
				func(m *models.Thought) uint { return m.ID })
		}},
		{models.EntitySpendingLimits, func(ctx context.Context) error {
			return restoreTable(ctx, run, models.EntitySpendingLimits, tx.SpendingLimits, s.SpendingLimits,
				func(r snapshot.SpendingLimitRecord) uint { return r.ID }, spendingLimitModel,
				func(m *models.SpendingLimit) uint { return m.ID })
		}},
		{models.EntityCharts, func(ctx context.Context) error {
			return restoreTable(ctx, run, models.EntityCharts, tx.Charts, s.Charts,
				func(r snapshot.ChartRecord) uint { return r.ID }, chartModel,
				func(m *models.Chart) uint { return m.ID })
		}},
		{models.EntityTaskLogs, func(ctx context.Context) error {
			return restoreTable(ctx, run, models.EntityTaskLogs, tx.TaskLogs, s.TaskLogs,
				func(r snapshot.TaskLogRecord) uint { return r.ID }, taskLogModel,
				func(m *models.TaskLog) uint { return m.ID })
		}},

		// Dependent
		{models.EntityExpenses, func(ctx context.Context) error {
			return restoreTable(ctx, run, models.EntityExpenses, tx.Expenses, s.Expenses,
				func(r snapshot.ExpenseRecord) uint { return r.ID }, expenseModel,
				func(m *models.Expense) uint { return m.ID })
		}},
		{models.EntityIncomes, func(ctx context.Context) error {
			return restoreTable(ctx, run, models.EntityIncomes, tx.Incomes, s.Incomes,
				func(r snapshot.IncomeRecord) uint { return r.ID }, incomeModel,
				func(m *models.Income) uint { return m.ID })
		}},
		{models.EntityNotifications, func(ctx context.Context) error {
			return restoreTable(ctx, run, models.EntityNotifications, tx.Notifications, s.Notifications,
				func(r snapshot.NotificationRecord) uint { return r.ID }, notificationModel,
				func(m *models.Notification) uint { return m.ID })
		}},
		{models.EntityHistory, func(ctx context.Context) error {
			return restoreTable(ctx, run, models.EntityHistory, tx.History, s.History,
				func(r snapshot.HistoryRecord) uint { return r.ID }, historyModel,
				func(m *models.HistoryEntry) uint { return m.ID })
		}},
	}

	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("restore %s: %w", step.name, err)
		}
	}
	return nil
}

// wipe deletes dependents before the rows they reference.
func (run *restoreRun) wipe(ctx context.Context) error {
	tx := run.tx
	tables := []struct {
		name      string
		deleteAll func(context.Context) error
	}{
		{models.EntityHistory, tx.History.DeleteAll},
		{models.EntityNotifications, tx.Notifications.DeleteAll},
		{models.EntityIncomes, tx.Incomes.DeleteAll},
		{models.EntityExpenses, tx.Expenses.DeleteAll},
		{models.EntityTaskLogs, tx.TaskLogs.DeleteAll},
		{models.EntityCharts, tx.Charts.DeleteAll},
		{models.EntitySpendingLimits, tx.SpendingLimits.DeleteAll},
		{models.EntityThoughts, tx.Thoughts.DeleteAll},
		{models.EntityCards, tx.Cards.DeleteAll},
		{models.EntityAccounts, tx.Accounts.DeleteAll},
		{models.EntityCategories, tx.Categories.DeleteAll},
		{models.EntityUsers, tx.Users.DeleteAll},
	}
	for _, t := range tables {
		if err := t.deleteAll(ctx); err != nil {
			return fmt.Errorf("delete %s: %w", t.name, err)
		}
	}
	return nil
}

// restoreTable re-creates records of one entity type and stores the
// resulting remap table under entity.
func restoreTable[R, M any](
	ctx context.Context,
	run *restoreRun,
	entity string,
	table repository.Table[M],
	records []R,
	originalID func(R) uint,
	build func(R, *resolver) *M,
	newID func(*M) uint,
) error {
	ids := make(IDMap, len(records))
	for _, rec := range records {
		res := &resolver{ids: run.ids}
		row := build(rec, res)
		if res.missing != nil {
			run.result.Skipped[entity]++
			logging.Warn().
				Str("entity", entity).
				Uint("original_id", originalID(rec)).
				Str("reference", res.missing.String()).
				Msg("skipping record with unresolved reference")
			continue
		}
		if err := table.Save(ctx, row); err != nil {
			return fmt.Errorf("save %s %d: %w", entity, originalID(rec), err)
		}
		ids[originalID(rec)] = newID(row)
		run.result.Restored[entity]++
	}
	run.ids[entity] = ids
	return nil
}

package repository

import (
	"context"

	"github.com/ilker/ledger-server/internal/models"
	"gorm.io/gorm"
)

// Ledger groups the tables of every ledger entity type.
type Ledger struct {
	db *gorm.DB

	Users          Table[models.User]
	Categories     Table[models.Category]
	Accounts       Table[models.Account]
	Cards          Table[models.Card]
	Thoughts       Table[models.Thought]
	SpendingLimits Table[models.SpendingLimit]
	Charts         Table[models.Chart]
	TaskLogs       Table[models.TaskLog]
	Expenses       Table[models.Expense]
	Incomes        Table[models.Income]
	Notifications  Table[models.Notification]
	History        Table[models.HistoryEntry]
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{
		db:             db,
		Users:          NewTable[models.User](db),
		Categories:     NewTable[models.Category](db),
		Accounts:       NewTable[models.Account](db),
		Cards:          NewTable[models.Card](db),
		Thoughts:       NewTable[models.Thought](db),
		SpendingLimits: NewTable[models.SpendingLimit](db),
		Charts:         NewTable[models.Chart](db),
		TaskLogs:       NewTable[models.TaskLog](db),
		Expenses:       NewTable[models.Expense](db),
		Incomes:        NewTable[models.Income](db),
		Notifications:  NewTable[models.Notification](db),
		History:        NewTable[models.HistoryEntry](db),
	}
}

// Transaction runs fn against a Ledger bound to one database transaction.
// An error returned by fn, or a panic, rolls back everything fn wrote.
func (l *Ledger) Transaction(ctx context.Context, fn func(tx *Ledger) error) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewLedger(tx))
	})
}

// Counts returns the row count of every ledger table keyed by entity type.
func (l *Ledger) Counts(ctx context.Context) (map[string]int64, error) {
	counters := []struct {
		name  string
		count func(context.Context) (int64, error)
	}{
		{models.EntityUsers, l.Users.Count},
		{models.EntityCategories, l.Categories.Count},
		{models.EntityAccounts, l.Accounts.Count},
		{models.EntityCards, l.Cards.Count},
		{models.EntityThoughts, l.Thoughts.Count},
		{models.EntitySpendingLimits, l.SpendingLimits.Count},
		{models.EntityCharts, l.Charts.Count},
		{models.EntityTaskLogs, l.TaskLogs.Count},
		{models.EntityExpenses, l.Expenses.Count},
		{models.EntityIncomes, l.Incomes.Count},
		{models.EntityNotifications, l.Notifications.Count},
		{models.EntityHistory, l.History.Count},
	}

	counts := make(map[string]int64, len(counters))
	for _, c := range counters {
		n, err := c.count(ctx)
		if err != nil {
			return nil, err
		}
		counts[c.name] = n
	}
	return counts, nil
}

// Package snapshot defines the portable backup document of the ledger and its
// JSON codec.
package snapshot

import (
	"time"

	"github.com/ilker/ledger-server/internal/models"
)

// FormatVersion is the snapshot layout written by this build. Only the major
// component is checked on restore.
const FormatVersion = "1.0"

// Metadata describes a snapshot without its records.
type Metadata struct {
	GeneratedAt     time.Time `json:"generatedAt"`
	FormatVersion   string    `json:"formatVersion"`
	ProducerVersion string    `json:"producerVersion"`
	TotalRecords    int       `json:"totalRecords"`
}

// Snapshot is a complete, self-contained copy of every ledger collection.
type Snapshot struct {
	Metadata

	Users          []UserRecord          `json:"users"`
	Categories     []CategoryRecord      `json:"categories"`
	Accounts       []AccountRecord       `json:"accounts"`
	Cards          []CardRecord          `json:"cards"`
	Thoughts       []ThoughtRecord       `json:"thoughts"`
	SpendingLimits []SpendingLimitRecord `json:"spendingLimits"`
	Charts         []ChartRecord         `json:"charts"`
	TaskLogs       []TaskLogRecord       `json:"taskLogs"`
	Expenses       []ExpenseRecord       `json:"expenses"`
	Incomes        []IncomeRecord        `json:"incomes"`
	Notifications  []NotificationRecord  `json:"notifications"`
	History        []HistoryRecord       `json:"history"`
}

// Counts returns the number of records per entity key.
func (s *Snapshot) Counts() map[string]int {
	return map[string]int{
		models.EntityUsers:          len(s.Users),
		models.EntityCategories:     len(s.Categories),
		models.EntityAccounts:       len(s.Accounts),
		models.EntityCards:          len(s.Cards),
		models.EntityThoughts:       len(s.Thoughts),
		models.EntitySpendingLimits: len(s.SpendingLimits),
		models.EntityCharts:         len(s.Charts),
		models.EntityTaskLogs:       len(s.TaskLogs),
		models.EntityExpenses:       len(s.Expenses),
		models.EntityIncomes:        len(s.Incomes),
		models.EntityNotifications:  len(s.Notifications),
		models.EntityHistory:        len(s.History),
	}
}

// RecordCount sums the collections. It is what TotalRecords should hold.
func (s *Snapshot) RecordCount() int {
	total := 0
	for _, n := range s.Counts() {
		total += n
	}
	return total
}

// Timestamp normalizes t to the precision a snapshot keeps: UTC, whole
// seconds.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// TimestampPtr is Timestamp for optional values.
func TimestampPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := Timestamp(*t)
	return &v
}

// normalized returns a copy of s with every timestamp passed through
// Timestamp. s itself is not modified.
func (s *Snapshot) normalized() *Snapshot {
	out := &Snapshot{Metadata: s.Metadata}
	out.GeneratedAt = Timestamp(s.GeneratedAt)

	out.Users = mapRecords(s.Users, func(r UserRecord) UserRecord {
		r.CreatedAt = Timestamp(r.CreatedAt)
		r.UpdatedAt = Timestamp(r.UpdatedAt)
		return r
	})
	out.Categories = mapRecords(s.Categories, func(r CategoryRecord) CategoryRecord {
		r.CreatedAt = Timestamp(r.CreatedAt)
		return r
	})
	out.Accounts = mapRecords(s.Accounts, func(r AccountRecord) AccountRecord {
		r.CreatedAt = Timestamp(r.CreatedAt)
		return r
	})
	out.Cards = mapRecords(s.Cards, func(r CardRecord) CardRecord {
		r.CreatedAt = Timestamp(r.CreatedAt)
		return r
	})
	out.Thoughts = mapRecords(s.Thoughts, func(r ThoughtRecord) ThoughtRecord {
		r.Day = Timestamp(r.Day)
		r.CreatedAt = Timestamp(r.CreatedAt)
		return r
	})
	out.SpendingLimits = mapRecords(s.SpendingLimits, func(r SpendingLimitRecord) SpendingLimitRecord {
		r.CreatedAt = Timestamp(r.CreatedAt)
		return r
	})
	out.Charts = mapRecords(s.Charts, func(r ChartRecord) ChartRecord {
		r.CreatedAt = Timestamp(r.CreatedAt)
		return r
	})
	out.TaskLogs = mapRecords(s.TaskLogs, func(r TaskLogRecord) TaskLogRecord {
		r.StartedAt = Timestamp(r.StartedAt)
		r.FinishedAt = TimestampPtr(r.FinishedAt)
		return r
	})
	out.Expenses = mapRecords(s.Expenses, func(r ExpenseRecord) ExpenseRecord {
		r.DueDate = Timestamp(r.DueDate)
		r.PaidAt = TimestampPtr(r.PaidAt)
		r.CreatedAt = Timestamp(r.CreatedAt)
		return r
	})
	out.Incomes = mapRecords(s.Incomes, func(r IncomeRecord) IncomeRecord {
		r.ReceivedAt = Timestamp(r.ReceivedAt)
		r.CreatedAt = Timestamp(r.CreatedAt)
		return r
	})
	out.Notifications = mapRecords(s.Notifications, func(r NotificationRecord) NotificationRecord {
		r.ScheduledFor = Timestamp(r.ScheduledFor)
		r.CreatedAt = Timestamp(r.CreatedAt)
		return r
	})
	out.History = mapRecords(s.History, func(r HistoryRecord) HistoryRecord {
		r.OccurredAt = Timestamp(r.OccurredAt)
		return r
	})
	return out
}

// mapRecords preserves nil-ness so an absent collection stays absent.
func mapRecords[T any](in []T, fn func(T) T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i, r := range in {
		out[i] = fn(r)
	}
	return out
}

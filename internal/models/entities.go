package models

// Entity type keys, shared by snapshots, restore results and summaries.
const (
	EntityUsers          = "users"
	EntityCategories     = "categories"
	EntityAccounts       = "accounts"
	EntityCards          = "cards"
	EntityThoughts       = "thoughts"
	EntitySpendingLimits = "spendingLimits"
	EntityCharts         = "charts"
	EntityTaskLogs       = "taskLogs"
	EntityExpenses       = "expenses"
	EntityIncomes        = "incomes"
	EntityNotifications  = "notifications"
	EntityHistory        = "history"
)

// LedgerModels lists every ledger model, independent types first.
func LedgerModels() []any {
	return []any{
		&User{},
		&Category{},
		&Account{},
		&Card{},
		&Thought{},
		&SpendingLimit{},
		&Chart{},
		&TaskLog{},
		&Expense{},
		&Income{},
		&Notification{},
		&HistoryEntry{},
	}
}

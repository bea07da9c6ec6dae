package models

import "time"

type CategoryKind string

const (
	CategoryExpense CategoryKind = "expense"
	CategoryIncome  CategoryKind = "income"
)

type Category struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"size:80;not null" json:"name"`
	Kind      CategoryKind `gorm:"size:20;not null" json:"kind"`
	Color     string       `gorm:"size:20" json:"color"`
	Icon      string       `gorm:"size:40" json:"icon"`
	CreatedAt time.Time    `json:"created_at"`
}

type Account struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"size:80;not null" json:"name"`
	Bank            string    `gorm:"size:80" json:"bank"`
	AccountType     string    `gorm:"size:30" json:"account_type"`
	BalanceCents    int64     `gorm:"not null;default:0" json:"balance_cents"`
	Logo            []byte    `json:"-"`
	LogoContentType string    `gorm:"size:50" json:"logo_content_type"`
	CreatedAt       time.Time `json:"created_at"`
}

type Card struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:80;not null" json:"name"`
	Brand      string    `gorm:"size:30" json:"brand"`
	LastDigits string    `gorm:"size:4" json:"last_digits"`
	LimitCents int64     `gorm:"not null;default:0" json:"limit_cents"`
	ClosingDay int       `json:"closing_day"`
	DueDay     int       `json:"due_day"`
	CreatedAt  time.Time `json:"created_at"`
}

// Thought is the "thought of the day" shown on the dashboard.
type Thought struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Author    string    `gorm:"size:120" json:"author"`
	Day       time.Time `gorm:"index" json:"day"`
	CreatedAt time.Time `json:"created_at"`
}

type SpendingLimit struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Description string    `gorm:"size:120;not null" json:"description"`
	AmountCents int64     `gorm:"not null" json:"amount_cents"`
	Month       int       `json:"month"`
	Year        int       `json:"year"`
	CreatedAt   time.Time `json:"created_at"`
}

// Chart stores a saved chart definition; Config is the renderer's JSON.
type Chart struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:120;not null" json:"title"`
	ChartType string    `gorm:"size:30" json:"chart_type"`
	Config    string    `gorm:"type:text" json:"config"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskLog records one run of a scheduled task.
type TaskLog struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	TaskName   string     `gorm:"size:80;index;not null" json:"task_name"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Success    bool       `json:"success"`
	Output     string     `gorm:"type:text" json:"output"`
}

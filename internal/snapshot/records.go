package snapshot

import "time"

// Backup records are flat values. ID is the identifier the row had in the
// store that produced the snapshot; foreign keys hold such identifiers too.

type UserRecord struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type CategoryRecord struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Color     string    `json:"color"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"createdAt"`
}

type AccountRecord struct {
	ID              uint      `json:"id"`
	Name            string    `json:"name"`
	Bank            string    `json:"bank"`
	AccountType     string    `json:"accountType"`
	BalanceCents    int64     `json:"balanceCents"`
	Logo            []byte    `json:"logo"`
	LogoContentType string    `json:"logoContentType"`
	CreatedAt       time.Time `json:"createdAt"`
}

type CardRecord struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Brand      string    `json:"brand"`
	LastDigits string    `json:"lastDigits"`
	LimitCents int64     `json:"limitCents"`
	ClosingDay int       `json:"closingDay"`
	DueDay     int       `json:"dueDay"`
	CreatedAt  time.Time `json:"createdAt"`
}

type ThoughtRecord struct {
	ID        uint      `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	Day       time.Time `json:"day"`
	CreatedAt time.Time `json:"createdAt"`
}

type SpendingLimitRecord struct {
	ID          uint      `json:"id"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amountCents"`
	Month       int       `json:"month"`
	Year        int       `json:"year"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ChartRecord struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	ChartType string    `json:"chartType"`
	Config    string    `json:"config"`
	CreatedAt time.Time `json:"createdAt"`
}

type TaskLogRecord struct {
	ID         uint       `json:"id"`
	TaskName   string     `json:"taskName"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt"`
	Success    bool       `json:"success"`
	Output     string     `json:"output"`
}

type ExpenseRecord struct {
	ID                uint       `json:"id"`
	Description       string     `json:"description"`
	AmountCents       int64      `json:"amountCents"`
	DueDate           time.Time  `json:"dueDate"`
	PaidAt            *time.Time `json:"paidAt"`
	Paid              bool       `json:"paid"`
	Installment       int        `json:"installment"`
	TotalInstallments int        `json:"totalInstallments"`
	Attachment        []byte     `json:"attachment"`
	AttachmentName    string     `json:"attachmentName"`
	AccountID         *uint      `json:"accountId"`
	CardID            *uint      `json:"cardId"`
	CategoryID        *uint      `json:"categoryId"`
	CreatedAt         time.Time  `json:"createdAt"`
}

type IncomeRecord struct {
	ID          uint      `json:"id"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amountCents"`
	ReceivedAt  time.Time `json:"receivedAt"`
	Recurring   bool      `json:"recurring"`
	AccountID   *uint     `json:"accountId"`
	CategoryID  *uint     `json:"categoryId"`
	CreatedAt   time.Time `json:"createdAt"`
}

type NotificationRecord struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	Read         bool      `json:"read"`
	ScheduledFor time.Time `json:"scheduledFor"`
	CardID       *uint     `json:"cardId"`
	CreatedAt    time.Time `json:"createdAt"`
}

type HistoryRecord struct {
	ID         uint      `json:"id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entityType"`
	EntityID   uint      `json:"entityId"`
	Details    string    `json:"details"`
	OccurredAt time.Time `json:"occurredAt"`
	UserID     *uint     `json:"userId"`
}

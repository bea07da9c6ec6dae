package models

import "time"

// The association fields below exist so AutoMigrate emits FOREIGN KEY
// constraints. They are never preloaded; code works with the *ID columns.

type Expense struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Description       string     `gorm:"size:200;not null" json:"description"`
	AmountCents       int64      `gorm:"not null" json:"amount_cents"`
	DueDate           time.Time  `gorm:"index" json:"due_date"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`
	Paid              bool       `json:"paid"`
	Installment       int        `json:"installment"`
	TotalInstallments int        `json:"total_installments"`
	Attachment        []byte     `json:"-"`
	AttachmentName    string     `gorm:"size:200" json:"attachment_name"`
	AccountID         *uint      `gorm:"index" json:"account_id"`
	CardID            *uint      `gorm:"index" json:"card_id"`
	CategoryID        *uint      `gorm:"index" json:"category_id"`
	CreatedAt         time.Time  `json:"created_at"`

	Account  *Account  `gorm:"foreignKey:AccountID" json:"-"`
	Card     *Card     `gorm:"foreignKey:CardID" json:"-"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"-"`
}

type Income struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Description string    `gorm:"size:200;not null" json:"description"`
	AmountCents int64     `gorm:"not null" json:"amount_cents"`
	ReceivedAt  time.Time `gorm:"index" json:"received_at"`
	Recurring   bool      `json:"recurring"`
	AccountID   *uint     `gorm:"index" json:"account_id"`
	CategoryID  *uint     `gorm:"index" json:"category_id"`
	CreatedAt   time.Time `json:"created_at"`

	Account  *Account  `gorm:"foreignKey:AccountID" json:"-"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"-"`
}

type Notification struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"size:120;not null" json:"title"`
	Message      string    `gorm:"type:text" json:"message"`
	Read         bool      `json:"read"`
	ScheduledFor time.Time `json:"scheduled_for"`
	CardID       *uint     `gorm:"index" json:"card_id"`
	CreatedAt    time.Time `json:"created_at"`

	Card *Card `gorm:"foreignKey:CardID" json:"-"`
}

// HistoryEntry is one audit trail line.
type HistoryEntry struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Action     string    `gorm:"size:40;not null" json:"action"`
	EntityType string    `gorm:"size:40" json:"entity_type"`
	EntityID   uint      `json:"entity_id"`
	Details    string    `gorm:"type:text" json:"details"`
	OccurredAt time.Time `gorm:"index" json:"occurred_at"`
	UserID     *uint     `gorm:"index" json:"user_id"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (HistoryEntry) TableName() string {
	return "history"
}

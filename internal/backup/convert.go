package backup

import (
	"github.com/ilker/ledger-server/internal/models"
	"github.com/ilker/ledger-server/internal/snapshot"
)

var ts = snapshot.Timestamp
var tsPtr = snapshot.TimestampPtr

// Model to record. Used by the exporter.

func userRecord(m models.User) snapshot.UserRecord {
	return snapshot.UserRecord{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         string(m.Role),
		IsActive:     m.IsActive,
		CreatedAt:    ts(m.CreatedAt),
		UpdatedAt:    ts(m.UpdatedAt),
	}
}

func categoryRecord(m models.Category) snapshot.CategoryRecord {
	return snapshot.CategoryRecord{
		ID:        m.ID,
		Name:      m.Name,
		Kind:      string(m.Kind),
		Color:     m.Color,
		Icon:      m.Icon,
		CreatedAt: ts(m.CreatedAt),
	}
}

func accountRecord(m models.Account) snapshot.AccountRecord {
	return snapshot.AccountRecord{
		ID:              m.ID,
		Name:            m.Name,
		Bank:            m.Bank,
		AccountType:     m.AccountType,
		BalanceCents:    m.BalanceCents,
		Logo:            m.Logo,
		LogoContentType: m.LogoContentType,
		CreatedAt:       ts(m.CreatedAt),
	}
}

func cardRecord(m models.Card) snapshot.CardRecord {
	return snapshot.CardRecord{
		ID:         m.ID,
		Name:       m.Name,
		Brand:      m.Brand,
		LastDigits: m.LastDigits,
		LimitCents: m.LimitCents,
		ClosingDay: m.ClosingDay,
		DueDay:     m.DueDay,
		CreatedAt:  ts(m.CreatedAt),
	}
}

func thoughtRecord(m models.Thought) snapshot.ThoughtRecord {
	return snapshot.ThoughtRecord{
		ID:        m.ID,
		Text:      m.Text,
		Author:    m.Author,
		Day:       ts(m.Day),
		CreatedAt: ts(m.CreatedAt),
	}
}

func spendingLimitRecord(m models.SpendingLimit) snapshot.SpendingLimitRecord {
	return snapshot.SpendingLimitRecord{
		ID:          m.ID,
		Description: m.Description,
		AmountCents: m.AmountCents,
		Month:       m.Month,
		Year:        m.Year,
		CreatedAt:   ts(m.CreatedAt),
	}
}

func chartRecord(m models.Chart) snapshot.ChartRecord {
	return snapshot.ChartRecord{
		ID:        m.ID,
		Title:     m.Title,
		ChartType: m.ChartType,
		Config:    m.Config,
		CreatedAt: ts(m.CreatedAt),
	}
}

func taskLogRecord(m models.TaskLog) snapshot.TaskLogRecord {
	return snapshot.TaskLogRecord{
		ID:         m.ID,
		TaskName:   m.TaskName,
		StartedAt:  ts(m.StartedAt),
		FinishedAt: tsPtr(m.FinishedAt),
		Success:    m.Success,
		Output:     m.Output,
	}
}

func expenseRecord(m models.Expense) snapshot.ExpenseRecord {
	return snapshot.ExpenseRecord{
		ID:                m.ID,
		Description:       m.Description,
		AmountCents:       m.AmountCents,
		DueDate:           ts(m.DueDate),
		PaidAt:            tsPtr(m.PaidAt),
		Paid:              m.Paid,
		Installment:       m.Installment,
		TotalInstallments: m.TotalInstallments,
		Attachment:        m.Attachment,
		AttachmentName:    m.AttachmentName,
		AccountID:         m.AccountID,
		CardID:            m.CardID,
		CategoryID:        m.CategoryID,
		CreatedAt:         ts(m.CreatedAt),
	}
}

func incomeRecord(m models.Income) snapshot.IncomeRecord {
	return snapshot.IncomeRecord{
		ID:          m.ID,
		Description: m.Description,
		AmountCents: m.AmountCents,
		ReceivedAt:  ts(m.ReceivedAt),
		Recurring:   m.Recurring,
		AccountID:   m.AccountID,
		CategoryID:  m.CategoryID,
		CreatedAt:   ts(m.CreatedAt),
	}
}

func notificationRecord(m models.Notification) snapshot.NotificationRecord {
	return snapshot.NotificationRecord{
		ID:           m.ID,
		Title:        m.Title,
		Message:      m.Message,
		Read:         m.Read,
		ScheduledFor: ts(m.ScheduledFor),
		CardID:       m.CardID,
		CreatedAt:    ts(m.CreatedAt),
	}
}

func historyRecord(m models.HistoryEntry) snapshot.HistoryRecord {
	return snapshot.HistoryRecord{
		ID:         m.ID,
		Action:     m.Action,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Details:    m.Details,
		OccurredAt: ts(m.OccurredAt),
		UserID:     m.UserID,
	}
}

// Record to model. The returned models carry no ID so the store assigns one;
// foreign keys go through the resolver.

func userModel(r snapshot.UserRecord, _ *resolver) *models.User {
	return &models.User{
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         models.Role(r.Role),
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func categoryModel(r snapshot.CategoryRecord, _ *resolver) *models.Category {
	return &models.Category{
		Name:      r.Name,
		Kind:      models.CategoryKind(r.Kind),
		Color:     r.Color,
		Icon:      r.Icon,
		CreatedAt: r.CreatedAt,
	}
}

func accountModel(r snapshot.AccountRecord, _ *resolver) *models.Account {
	return &models.Account{
		Name:            r.Name,
		Bank:            r.Bank,
		AccountType:     r.AccountType,
		BalanceCents:    r.BalanceCents,
		Logo:            r.Logo,
		LogoContentType: r.LogoContentType,
		CreatedAt:       r.CreatedAt,
	}
}

func cardModel(r snapshot.CardRecord, _ *resolver) *models.Card {
	return &models.Card{
		Name:       r.Name,
		Brand:      r.Brand,
		LastDigits: r.LastDigits,
		LimitCents: r.LimitCents,
		ClosingDay: r.ClosingDay,
		DueDay:     r.DueDay,
		CreatedAt:  r.CreatedAt,
	}
}

func thoughtModel(r snapshot.ThoughtRecord, _ *resolver) *models.Thought {
	return &models.Thought{
		Text:      r.Text,
		Author:    r.Author,
		Day:       r.Day,
		CreatedAt: r.CreatedAt,
	}
}

func spendingLimitModel(r snapshot.SpendingLimitRecord, _ *resolver) *models.SpendingLimit {
	return &models.SpendingLimit{
		Description: r.Description,
		AmountCents: r.AmountCents,
		Month:       r.Month,
		Year:        r.Year,
		CreatedAt:   r.CreatedAt,
	}
}

func chartModel(r snapshot.ChartRecord, _ *resolver) *models.Chart {
	return &models.Chart{
		Title:     r.Title,
		ChartType: r.ChartType,
		Config:    r.Config,
		CreatedAt: r.CreatedAt,
	}
}

func taskLogModel(r snapshot.TaskLogRecord, _ *resolver) *models.TaskLog {
	return &models.TaskLog{
		TaskName:   r.TaskName,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Success:    r.Success,
		Output:     r.Output,
	}
}

func expenseModel(r snapshot.ExpenseRecord, res *resolver) *models.Expense {
	return &models.Expense{
		Description:       r.Description,
		AmountCents:       r.AmountCents,
		DueDate:           r.DueDate,
		PaidAt:            r.PaidAt,
		Paid:              r.Paid,
		Installment:       r.Installment,
		TotalInstallments: r.TotalInstallments,
		Attachment:        r.Attachment,
		AttachmentName:    r.AttachmentName,
		AccountID:         res.ref(models.EntityAccounts, r.AccountID),
		CardID:            res.ref(models.EntityCards, r.CardID),
		CategoryID:        res.ref(models.EntityCategories, r.CategoryID),
		CreatedAt:         r.CreatedAt,
	}
}

func incomeModel(r snapshot.IncomeRecord, res *resolver) *models.Income {
	return &models.Income{
		Description: r.Description,
		AmountCents: r.AmountCents,
		ReceivedAt:  r.ReceivedAt,
		Recurring:   r.Recurring,
		AccountID:   res.ref(models.EntityAccounts, r.AccountID),
		CategoryID:  res.ref(models.EntityCategories, r.CategoryID),
		CreatedAt:   r.CreatedAt,
	}
}

func notificationModel(r snapshot.NotificationRecord, res *resolver) *models.Notification {
	return &models.Notification{
		Title:        r.Title,
		Message:      r.Message,
		Read:         r.Read,
		ScheduledFor: r.ScheduledFor,
		CardID:       res.ref(models.EntityCards, r.CardID),
		CreatedAt:    r.CreatedAt,
	}
}

func historyModel(r snapshot.HistoryRecord, res *resolver) *models.HistoryEntry {
	return &models.HistoryEntry{
		Action:     r.Action,
		EntityType: r.EntityType,
		EntityID:   r.EntityID,
		Details:    r.Details,
		OccurredAt: r.OccurredAt,
		UserID:     res.ref(models.EntityUsers, r.UserID),
	}
}

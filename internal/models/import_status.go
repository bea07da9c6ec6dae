package models

import "time"

type ImportState string

const (
	ImportStarted    ImportState = "INICIADO"
	ImportProcessing ImportState = "PROCESSANDO"
	ImportCompleted  ImportState = "CONCLUIDO"
	ImportFailed     ImportState = "ERRO"
)

// Terminal reports whether no further transition is allowed.
func (s ImportState) Terminal() bool {
	return s == ImportCompleted || s == ImportFailed
}

// CanTransitionTo enforces INICIADO -> PROCESSANDO -> {CONCLUIDO|ERRO}.
// ERRO is reachable from any non-terminal state.
func (s ImportState) CanTransitionTo(next ImportState) bool {
	switch s {
	case ImportStarted:
		return next == ImportProcessing || next == ImportFailed
	case ImportProcessing:
		return next == ImportCompleted || next == ImportFailed
	default:
		return false
	}
}

// ImportStatus is the durable record of one import request.
type ImportStatus struct {
	RequestID             string      `gorm:"primaryKey;size:64" json:"request_id"`
	Status                ImportState `gorm:"size:20;index;not null" json:"status"`
	Message               string      `gorm:"type:text" json:"message"`
	StartedAt             time.Time   `gorm:"index" json:"started_at"`
	FinishedAt            *time.Time  `json:"finished_at"`
	SourceFileName        string      `gorm:"size:255" json:"source_file_name"`
	TotalRecords          *int        `json:"total_records"`
	SnapshotFormatVersion *string     `gorm:"size:20" json:"snapshot_format_version"`
	ErrorDetail           *string     `gorm:"type:text" json:"error_detail"`
}

func (ImportStatus) TableName() string {
	return "import_status"
}

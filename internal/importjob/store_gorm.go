package importjob

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ilker/ledger-server/internal/models"
)

// GormStatusStore keeps status records in their own SQLite database.
type GormStatusStore struct {
	db *gorm.DB
}

func NewGormStatusStore(db *gorm.DB) *GormStatusStore {
	return &GormStatusStore{db: db}
}

func (s *GormStatusStore) Create(ctx context.Context, status *models.ImportStatus) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.ImportStatus{}).Where("request_id = ?", status.RequestID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicateRequest
		}
		return tx.Create(status).Error
	})
}

func (s *GormStatusStore) Update(ctx context.Context, status *models.ImportStatus) error {
	result := s.db.WithContext(ctx).
		Model(&models.ImportStatus{}).
		Where("request_id = ?", status.RequestID).
		Select("*").
		Updates(status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusNotFound
	}
	return nil
}

func (s *GormStatusStore) Get(ctx context.Context, requestID string) (*models.ImportStatus, error) {
	var status models.ImportStatus
	err := s.db.WithContext(ctx).First(&status, "request_id = ?", requestID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStatusNotFound
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (s *GormStatusStore) List(ctx context.Context) ([]models.ImportStatus, error) {
	var records []models.ImportStatus
	if err := s.db.WithContext(ctx).Order("started_at desc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *GormStatusStore) ListSince(ctx context.Context, since time.Time) ([]models.ImportStatus, error) {
	var records []models.ImportStatus
	err := s.db.WithContext(ctx).
		Where("started_at >= ?", storedTime(since)).
		Order("started_at desc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *GormStatusStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("started_at < ?", storedTime(cutoff)).
		Delete(&models.ImportStatus{})
	return result.RowsAffected, result.Error
}

func (s *GormStatusStore) ListUnfinished(ctx context.Context) ([]models.ImportStatus, error) {
	var records []models.ImportStatus
	err := s.db.WithContext(ctx).
		Where("status IN ?", []models.ImportState{models.ImportStarted, models.ImportProcessing}).
		Order("started_at desc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *GormStatusStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// storedTime matches the form the tracker writes timestamps in; SQLite
// compares them as text.
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

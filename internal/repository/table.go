package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Table is the narrow per-entity repository used by export and restore.
type Table[T any] struct {
	db *gorm.DB
}

func NewTable[T any](db *gorm.DB) Table[T] {
	return Table[T]{db: db}
}

// FindAll returns every row ordered by primary key.
func (t Table[T]) FindAll(ctx context.Context) ([]T, error) {
	var rows []T
	if err := t.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Save inserts row; the store assigns the primary key.
func (t Table[T]) Save(ctx context.Context, row *T) error {
	return t.db.WithContext(ctx).Omit(clause.Associations).Create(row).Error
}

// DeleteAll hard-deletes every row of the table.
func (t Table[T]) DeleteAll(ctx context.Context) error {
	return t.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(new(T)).Error
}

func (t Table[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	err := t.db.WithContext(ctx).Model(new(T)).Count(&n).Error
	return n, err
}

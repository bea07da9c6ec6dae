package repository

import (
	"strings"

	"github.com/ilker/ledger-server/internal/config"
	"github.com/ilker/ledger-server/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the ledger database and migrates every ledger table.
func NewDatabase(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := open(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(models.LedgerModels()...); err != nil {
		return nil, err
	}

	return db, nil
}

// NewStatusDatabase opens the import status database. It is a separate file
// so that status writes never join a restore transaction.
func NewStatusDatabase(path string) (*gorm.DB, error) {
	db, err := open(path)
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&models.ImportStatus{}); err != nil {
		return nil, err
	}

	return db, nil
}

func open(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(dsn(path)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilker/ledger-server/internal/config"
	"github.com/ilker/ledger-server/internal/models"
	"github.com/ilker/ledger-server/internal/repository"
)

func newLedger(t *testing.T) *repository.Ledger {
	t.Helper()
	db, err := repository.NewDatabase(&config.DatabaseConfig{
		SQLitePath: filepath.Join(t.TempDir(), "ledger.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return repository.NewLedger(db)
}

func TestTable_SaveAssignsIDs(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)

	a := &models.Account{Name: "Checking"}
	b := &models.Account{Name: "Savings"}
	require.NoError(t, l.Accounts.Save(ctx, a))
	require.NoError(t, l.Accounts.Save(ctx, b))

	assert.NotZero(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)

	rows, err := l.Accounts.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Checking", rows[0].Name)
}

func TestTable_DeleteAll(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Thoughts.Save(ctx, &models.Thought{Text: "t", Day: time.Now()}))
	}
	require.NoError(t, l.Thoughts.DeleteAll(ctx))

	n, err := l.Thoughts.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLedger_ForeignKeysEnforced(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)

	acc := &models.Account{Name: "Checking"}
	require.NoError(t, l.Accounts.Save(ctx, acc))
	require.NoError(t, l.Expenses.Save(ctx, &models.Expense{Description: "Rent", AccountID: &acc.ID}))

	assert.Error(t, l.Accounts.DeleteAll(ctx), "referenced account must not be deletable")

	missing := uint(9999)
	assert.Error(t, l.Expenses.Save(ctx, &models.Expense{Description: "Ghost", AccountID: &missing}))
}

func TestLedger_TransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	boom := errors.New("boom")

	err := l.Transaction(ctx, func(tx *repository.Ledger) error {
		require.NoError(t, tx.Categories.Save(ctx, &models.Category{Name: "Food", Kind: models.CategoryExpense}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	counts, err := l.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, counts[models.EntityCategories])
	assert.Len(t, counts, 12)
}

package importjob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/ilker/ledger-server/internal/models"
)

const statusKeyPrefix = "import_status:"

// BadgerStatusStore keeps status records in an embedded key-value store,
// one JSON value per request id.
type BadgerStatusStore struct {
	db *badger.DB
}

// OpenBadgerStatusStore opens the store at dir. An empty dir keeps
// everything in memory.
func OpenBadgerStatusStore(dir string) (*BadgerStatusStore, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger status store: %w", err)
	}
	return &BadgerStatusStore{db: db}, nil
}

func statusKey(requestID string) []byte {
	return []byte(statusKeyPrefix + requestID)
}

func (s *BadgerStatusStore) Create(ctx context.Context, status *models.ImportStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshal import status: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := statusKey(status.RequestID)
		_, err := txn.Get(key)
		if err == nil {
			return ErrDuplicateRequest
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("get import status: %w", err)
		}
		return txn.Set(key, data)
	})
}

func (s *BadgerStatusStore) Update(ctx context.Context, status *models.ImportStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshal import status: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := statusKey(status.RequestID)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrStatusNotFound
		} else if err != nil {
			return fmt.Errorf("get import status: %w", err)
		}
		return txn.Set(key, data)
	})
}

func (s *BadgerStatusStore) Get(ctx context.Context, requestID string) (*models.ImportStatus, error) {
	var status models.ImportStatus

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(statusKey(requestID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrStatusNotFound
		}
		if err != nil {
			return fmt.Errorf("get import status: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &status)
		})
	})
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (s *BadgerStatusStore) List(ctx context.Context) ([]models.ImportStatus, error) {
	return s.scan(func(models.ImportStatus) bool { return true })
}

func (s *BadgerStatusStore) ListSince(ctx context.Context, since time.Time) ([]models.ImportStatus, error) {
	return s.scan(func(st models.ImportStatus) bool { return !st.StartedAt.Before(since) })
}

func (s *BadgerStatusStore) ListUnfinished(ctx context.Context) ([]models.ImportStatus, error) {
	return s.scan(func(st models.ImportStatus) bool { return !st.Status.Terminal() })
}

func (s *BadgerStatusStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	expired, err := s.scan(func(st models.ImportStatus) bool { return st.StartedAt.Before(cutoff) })
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, st := range expired {
		if err := wb.Delete(statusKey(st.RequestID)); err != nil {
			return 0, fmt.Errorf("delete import status: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("delete import status: %w", err)
	}
	return int64(len(expired)), nil
}

func (s *BadgerStatusStore) Close() error {
	return s.db.Close()
}

// scan returns the records accepted by keep, newest first.
func (s *BadgerStatusStore) scan(keep func(models.ImportStatus) bool) ([]models.ImportStatus, error) {
	records := make([]models.ImportStatus, 0)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(statusKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var st models.ImportStatus
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &st)
			}); err != nil {
				return err
			}
			if keep(st) {
				records = append(records, st)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan import status: %w", err)
	}

	sortNewestFirst(records)
	return records, nil
}

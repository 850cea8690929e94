package badgerdb

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/rpggio/crisisdesk/internal/repository"
)

var nextIDKey = []byte("meta/next_id")

// Counter allocates crisis update ids from a durable 8-byte counter.
type Counter struct {
	db *DB
}

// NewCounter creates a new Counter. A missing counter key reads as 0.
func NewCounter(db *DB) *Counter {
	return &Counter{db: db}
}

// NextID returns the current value and persists value+1 in one transaction.
func (c *Counter) NextID(ctx context.Context) (uint64, error) {
	var id uint64
	err := c.db.WithTxn(ctx, func(txn *badger.Txn) error {
		current, err := readCounter(txn)
		if err != nil {
			return err
		}
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, current+1)
		if err := txn.Set(nextIDKey, buf); err != nil {
			return err
		}
		id = current
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("allocate crisis update id: %w", err)
	}
	return id, nil
}

func readCounter(txn *badger.Txn) (uint64, error) {
	item, err := txn.Get(nextIDKey)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var current uint64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("%w: counter is %d bytes", repository.ErrCorrupt, len(val))
		}
		current = binary.BigEndian.Uint64(val)
		return nil
	})
	return current, err
}

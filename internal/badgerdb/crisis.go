package badgerdb

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/rpggio/crisisdesk/internal/codec"
	"github.com/rpggio/crisisdesk/internal/domain/crisis"
	"github.com/rpggio/crisisdesk/internal/repository"
)

var crisisPrefix = []byte("crisis/")

func crisisKey(id uint64) []byte {
	key := make([]byte, len(crisisPrefix)+8)
	copy(key, crisisPrefix)
	binary.BigEndian.PutUint64(key[len(crisisPrefix):], id)
	return key
}

// CrisisRepository implements crisis.Repository on BadgerDB.
type CrisisRepository struct {
	db *DB
}

// NewCrisisRepository creates a new CrisisRepository
func NewCrisisRepository(db *DB) *CrisisRepository {
	return &CrisisRepository{db: db}
}

// Get retrieves a crisis update by ID
func (r *CrisisRepository) Get(ctx context.Context, id uint64) (*crisis.Update, error) {
	var rec *crisis.Update
	err := r.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		var err error
		rec, err = getUpdate(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Put writes the update under its ID, replacing any previous value.
func (r *CrisisRepository) Put(ctx context.Context, rec *crisis.Update) error {
	data, err := codec.Encode(rec)
	if err != nil {
		return fmt.Errorf("encode crisis update: %w", err)
	}

	err = r.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Set(crisisKey(rec.ID), data)
	})
	if err != nil {
		return fmt.Errorf("put crisis update %d: %w", rec.ID, err)
	}
	return nil
}

// Remove deletes the update and returns the value it held.
func (r *CrisisRepository) Remove(ctx context.Context, id uint64) (*crisis.Update, error) {
	var rec *crisis.Update
	err := r.db.WithTxn(ctx, func(txn *badger.Txn) error {
		var err error
		rec, err = getUpdate(txn, id)
		if err != nil {
			return err
		}
		return txn.Delete(crisisKey(id))
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("remove crisis update %d: %w", id, err)
	}
	return rec, nil
}

// Scan returns all updates in ascending ID order.
func (r *CrisisRepository) Scan(ctx context.Context) ([]crisis.Update, error) {
	var updates []crisis.Update
	err := r.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = crisisPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(crisisPrefix); it.ValidForPrefix(crisisPrefix); it.Next() {
			rec, err := decodeItem(it.Item())
			if err != nil {
				return err
			}
			updates = append(updates, *rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan crisis updates: %w", err)
	}
	return updates, nil
}

// IsEmpty reports whether no updates are stored.
func (r *CrisisRepository) IsEmpty(ctx context.Context) (bool, error) {
	empty := true
	err := r.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = crisisPrefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek(crisisPrefix)
		empty = !it.ValidForPrefix(crisisPrefix)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("check crisis updates: %w", err)
	}
	return empty, nil
}

// Last returns the update with the highest ID.
func (r *CrisisRepository) Last(ctx context.Context) (*crisis.Update, error) {
	var rec *crisis.Update
	err := r.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = crisisPrefix
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse seek starts at the greatest key <= the seek key.
		it.Seek(crisisKey(^uint64(0)))
		if !it.ValidForPrefix(crisisPrefix) {
			return repository.ErrNotFound
		}
		var err error
		rec, err = decodeItem(it.Item())
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func getUpdate(txn *badger.Txn, id uint64) (*crisis.Update, error) {
	item, err := txn.Get(crisisKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get crisis update %d: %w", id, err)
	}
	return decodeItem(item)
}

func decodeItem(item *badger.Item) (*crisis.Update, error) {
	var rec crisis.Update
	err := item.Value(func(val []byte) error {
		return codec.Decode(val, &rec)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: key %x: %v", repository.ErrCorrupt, item.Key(), err)
	}
	return &rec, nil
}

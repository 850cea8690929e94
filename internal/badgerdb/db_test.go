package badgerdb

import (
	"context"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := OpenDB(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func openDir(t *testing.T, dir string) *DB {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Path = dir
	cfg.GCInterval = 0
	db, err := OpenDB(cfg)
	require.NoError(t, err)
	return db
}

func TestOpenDB_RequiresPath(t *testing.T) {
	_, err := OpenDB(DefaultConfig())
	require.Error(t, err)
}

func TestOpenDB_InMemory(t *testing.T) {
	db := newTestDB(t)
	assert.Empty(t, db.Path())

	err := db.WithTxn(context.Background(), func(txn *badger.Txn) error {
		return txn.Set([]byte("key"), []byte("value"))
	})
	require.NoError(t, err)

	err = db.WithReadTxn(context.Background(), func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("key"))
		require.NoError(t, err)
		return item.Value(func(val []byte) error {
			assert.Equal(t, []byte("value"), val)
			return nil
		})
	})
	require.NoError(t, err)
}

func TestWithTxn_CancelledContext(t *testing.T) {
	db := newTestDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	err := db.WithTxn(ctx, func(txn *badger.Txn) error {
		ran = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, ran)
}

func TestGCRunner_Validation(t *testing.T) {
	db := newTestDB(t)

	_, err := NewGCRunner(nil, time.Minute, 0.5, nil)
	require.Error(t, err)
	_, err = NewGCRunner(db.DB, 0, 0.5, nil)
	require.Error(t, err)
	_, err = NewGCRunner(db.DB, time.Minute, 1.5, nil)
	require.Error(t, err)

	runner, err := NewGCRunner(db.DB, time.Minute, 0.5, nil)
	require.NoError(t, err)
	runner.Start()
	runner.Stop()
}

func TestOpenDB_WithGCRunner(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Path = t.TempDir()
	cfg.GCInterval = time.Hour

	db, err := OpenDB(cfg)
	require.NoError(t, err)
	require.NotNil(t, db.gcRunner)
	require.NoError(t, db.Close())
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rpggio/crisisdesk/internal/repository"
)

// CrisisUpdateCounter is the name of the counter row that allocates update ids.
const CrisisUpdateCounter = "crisis_update_id"

// CounterRepository hands out ids from a named row in the counters table.
type CounterRepository struct {
	db   *DB
	name string
}

// NewCounterRepository creates an allocator backed by the named counter row.
func NewCounterRepository(db *DB, name string) *CounterRepository {
	return &CounterRepository{db: db, name: name}
}

// NextID returns the current counter value and persists value+1 in the same
// transaction.
func (r *CounterRepository) NextID(ctx context.Context) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current int64
	err = tx.QueryRowContext(ctx, `SELECT value FROM counters WHERE name = ?`, r.name).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("counter %q: %w", r.name, repository.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read counter: %w", err)
	}

	result, err := tx.ExecContext(ctx, `UPDATE counters SET value = value + 1 WHERE name = ?`, r.name)
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return 0, repository.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return uint64(current), nil
}

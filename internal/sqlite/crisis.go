package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rpggio/crisisdesk/internal/codec"
	"github.com/rpggio/crisisdesk/internal/domain/crisis"
	"github.com/rpggio/crisisdesk/internal/repository"
)

// CrisisRepository implements crisis.Repository for SQLite
type CrisisRepository struct {
	db *DB
}

// NewCrisisRepository creates a new CrisisRepository
func NewCrisisRepository(db *DB) *CrisisRepository {
	return &CrisisRepository{db: db}
}

// Get retrieves a crisis update by ID
func (r *CrisisRepository) Get(ctx context.Context, id uint64) (*crisis.Update, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM crisis_updates WHERE id = ?`, int64(id)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crisis update: %w", err)
	}

	return decodeUpdate(data)
}

// Put inserts the update or overwrites the row with the same ID
func (r *CrisisRepository) Put(ctx context.Context, rec *crisis.Update) error {
	data, err := codec.Encode(rec)
	if err != nil {
		return fmt.Errorf("failed to encode crisis update: %w", err)
	}

	query := `
		INSERT INTO crisis_updates (id, title, description, location, author, created_at, timestamp, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			location = excluded.location,
			author = excluded.author,
			created_at = excluded.created_at,
			timestamp = excluded.timestamp,
			data = excluded.data
	`

	_, err = r.db.ExecContext(ctx, query,
		int64(rec.ID),
		rec.Title,
		rec.Description,
		rec.Location,
		rec.Author,
		int64(rec.CreatedAt),
		nullableTimestamp(rec.Timestamp),
		data,
	)
	if isCheckViolation(err) {
		return fmt.Errorf("failed to put crisis update: %w", codec.ErrTooLarge)
	}
	if err != nil {
		return fmt.Errorf("failed to put crisis update: %w", err)
	}

	return nil
}

// Remove deletes the update and returns the value it held
func (r *CrisisRepository) Remove(ctx context.Context, id uint64) (*crisis.Update, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var data []byte
	err = tx.QueryRowContext(ctx, `SELECT data FROM crisis_updates WHERE id = ?`, int64(id)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load crisis update: %w", err)
	}

	rec, err := decodeUpdate(data)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM crisis_updates WHERE id = ?`, int64(id)); err != nil {
		return nil, fmt.Errorf("failed to delete crisis update: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return rec, nil
}

// Scan returns all updates ordered by ID
func (r *CrisisRepository) Scan(ctx context.Context) ([]crisis.Update, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT data FROM crisis_updates ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan crisis updates: %w", err)
	}
	defer rows.Close()

	var updates []crisis.Update
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan crisis update: %w", err)
		}
		rec, err := decodeUpdate(data)
		if err != nil {
			return nil, err
		}
		updates = append(updates, *rec)
	}

	return updates, rows.Err()
}

// IsEmpty reports whether the table has no rows
func (r *CrisisRepository) IsEmpty(ctx context.Context) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM crisis_updates)`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check crisis updates: %w", err)
	}
	return !exists, nil
}

// Last returns the update with the highest ID
func (r *CrisisRepository) Last(ctx context.Context) (*crisis.Update, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM crisis_updates ORDER BY id DESC LIMIT 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last crisis update: %w", err)
	}

	return decodeUpdate(data)
}

func decodeUpdate(data []byte) (*crisis.Update, error) {
	var rec crisis.Update
	if err := codec.Decode(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrCorrupt, err)
	}
	return &rec, nil
}

func nullableTimestamp(ts *uint64) sql.NullInt64 {
	if ts == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*ts), Valid: true}
}

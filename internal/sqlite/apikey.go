package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/crisisdesk/internal/repository"
)

// APIKeyRepository maps bearer tokens to caller identities. Only the SHA-256
// of a token is stored.
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Add registers token for caller.
func (r *APIKeyRepository) Add(ctx context.Context, token, caller, description string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, caller, description, created_at) VALUES (?, ?, ?, ?)`,
		HashToken(token), caller, description, time.Now().UTC(),
	)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to add api key: %w", err)
	}
	return nil
}

// ResolveCaller returns the caller registered for token and records its use.
func (r *APIKeyRepository) ResolveCaller(ctx context.Context, token string) (string, error) {
	hash := HashToken(token)

	var caller string
	err := r.db.QueryRowContext(ctx, `SELECT caller FROM api_keys WHERE key_hash = ?`, hash).Scan(&caller)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && caller == "") {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve api key: %w", err)
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, time.Now().UTC(), hash,
	); err != nil {
		return "", fmt.Errorf("failed to touch api key: %w", err)
	}

	return caller, nil
}

// HashToken returns the hex SHA-256 of token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

package crisis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rpggio/crisisdesk/internal/repository"
)

// Service handles crisis update business logic.
//
// Operations are serialized so that the existence check, the author check and
// the write of one call observe the same store state.
type Service struct {
	mu      sync.Mutex
	records Repository
	ids     IDAllocator
	clock   Clock
	logger  *slog.Logger
}

// NewService creates a new crisis update service.
func NewService(records Repository, ids IDAllocator, clock Clock, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		records: records,
		ids:     ids,
		clock:   clock,
		logger:  logger,
	}
}

// Create validates the payload, allocates an id and stores a new update
// authored by caller.
func (s *Service) Create(ctx context.Context, caller string, payload Payload) (*Update, error) {
	if err := ValidatePayload(payload); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.ids.NextID(ctx)
	if err != nil {
		s.logger.Error("id allocation failed", "error", err)
		return nil, fmt.Errorf("allocating id: %w", err)
	}

	rec := &Update{
		ID:          id,
		Title:       payload.Title,
		Description: payload.Description,
		Location:    payload.Location,
		Author:      caller,
		CreatedAt:   s.clock.Now(),
	}

	if err := s.records.Put(ctx, rec); err != nil {
		s.logger.Error("storing crisis update failed", "id", id, "error", err)
		return nil, fmt.Errorf("creating crisis update: %w", err)
	}

	s.logger.Info("crisis update created", "id", id, "author", caller)
	return rec, nil
}

// Get returns a crisis update by id.
func (s *Service) Get(ctx context.Context, id uint64) (*Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, id)
}

// Update replaces the editable fields of an update. Only the author may update,
// and authorization is checked before the payload is validated.
func (s *Service) Update(ctx context.Context, caller string, id uint64, payload Payload) (*Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(current, caller); err != nil {
		s.logger.Warn("update rejected", "id", id, "caller", caller)
		return nil, err
	}
	if err := ValidatePayload(payload); err != nil {
		return nil, err
	}

	updated := current.Clone()
	updated.apply(payload, s.clock.Now())

	if err := s.records.Put(ctx, &updated); err != nil {
		s.logger.Error("storing crisis update failed", "id", id, "error", err)
		return nil, fmt.Errorf("updating crisis update: %w", err)
	}

	s.logger.Info("crisis update modified", "id", id, "author", caller)
	return &updated, nil
}

// Delete removes an update and returns it. Only the author may delete.
func (s *Service) Delete(ctx context.Context, caller string, id uint64) (*Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(current, caller); err != nil {
		s.logger.Warn("delete rejected", "id", id, "caller", caller)
		return nil, err
	}

	removed, err := s.records.Remove(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("crisis update id=%d: %w", id, ErrNotFound)
		}
		s.logger.Error("removing crisis update failed", "id", id, "error", err)
		return nil, fmt.Errorf("deleting crisis update: %w", err)
	}

	s.logger.Info("crisis update deleted", "id", id, "author", caller)
	return removed, nil
}

func (s *Service) load(ctx context.Context, id uint64) (*Update, error) {
	rec, err := s.records.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("crisis update id=%d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("loading crisis update: %w", err)
	}
	return rec, nil
}

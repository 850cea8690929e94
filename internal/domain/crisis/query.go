package crisis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rpggio/crisisdesk/internal/repository"
)

// ListAll returns every update in ascending id order.
func (s *Service) ListAll(ctx context.Context) ([]Update, error) {
	return s.filter(ctx, "list all", func(Update) bool { return true })
}

// Latest returns the update with the highest id.
func (s *Service) Latest(ctx context.Context) (*Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.records.Last(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &QueryMiss{Query: "latest", StoreEmpty: true}
		}
		return nil, fmt.Errorf("loading latest crisis update: %w", err)
	}
	return rec, nil
}

// SearchByLocation returns updates whose location equals loc exactly.
func (s *Service) SearchByLocation(ctx context.Context, loc string) ([]Update, error) {
	return s.filter(ctx, fmt.Sprintf("location %q", loc), func(u Update) bool {
		return u.Location == loc
	})
}

// SearchByTitle returns updates whose title contains substr.
func (s *Service) SearchByTitle(ctx context.Context, substr string) ([]Update, error) {
	return s.filter(ctx, fmt.Sprintf("title containing %q", substr), func(u Update) bool {
		return strings.Contains(u.Title, substr)
	})
}

// SearchByDescription returns updates whose description contains substr.
func (s *Service) SearchByDescription(ctx context.Context, substr string) ([]Update, error) {
	return s.filter(ctx, fmt.Sprintf("description containing %q", substr), func(u Update) bool {
		return strings.Contains(u.Description, substr)
	})
}

// SearchByAuthor returns updates created by author.
func (s *Service) SearchByAuthor(ctx context.Context, author string) ([]Update, error) {
	return s.filter(ctx, fmt.Sprintf("author %q", author), func(u Update) bool {
		return u.Author == author
	})
}

// InTimestampRange returns modified updates with lo <= timestamp <= hi.
// Updates that were never modified have no timestamp and never match.
func (s *Service) InTimestampRange(ctx context.Context, lo, hi uint64) ([]Update, error) {
	return s.filter(ctx, fmt.Sprintf("timestamp in [%d, %d]", lo, hi), func(u Update) bool {
		return u.Modified() && *u.Timestamp >= lo && *u.Timestamp <= hi
	})
}

// Before returns modified updates with timestamp < ts.
func (s *Service) Before(ctx context.Context, ts uint64) ([]Update, error) {
	return s.filter(ctx, fmt.Sprintf("timestamp before %d", ts), func(u Update) bool {
		return u.Modified() && *u.Timestamp < ts
	})
}

// After returns modified updates with timestamp > ts.
func (s *Service) After(ctx context.Context, ts uint64) ([]Update, error) {
	return s.filter(ctx, fmt.Sprintf("timestamp after %d", ts), func(u Update) bool {
		return u.Modified() && *u.Timestamp > ts
	})
}

// InIDRange returns updates with lo <= id <= hi.
func (s *Service) InIDRange(ctx context.Context, lo, hi uint64) ([]Update, error) {
	return s.filter(ctx, fmt.Sprintf("id in [%d, %d]", lo, hi), func(u Update) bool {
		return u.ID >= lo && u.ID <= hi
	})
}

// filter scans the whole store and keeps matching updates in id order.
// An empty result is reported as a *QueryMiss.
func (s *Service) filter(ctx context.Context, query string, keep func(Update) bool) ([]Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	empty, err := s.records.IsEmpty(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking crisis updates: %w", err)
	}
	if empty {
		return nil, &QueryMiss{Query: query, StoreEmpty: true}
	}

	all, err := s.records.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanning crisis updates: %w", err)
	}

	matched := make([]Update, 0, len(all))
	for _, rec := range all {
		if keep(rec) {
			matched = append(matched, rec)
		}
	}
	if len(matched) == 0 {
		return nil, &QueryMiss{Query: query}
	}
	return matched, nil
}

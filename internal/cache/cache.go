// Package cache puts a read-through LRU in front of a crisis.Repository.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rpggio/crisisdesk/internal/domain/crisis"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crisisdesk_cache_hits_total",
		Help: "Crisis update lookups served from the LRU cache.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crisisdesk_cache_misses_total",
		Help: "Crisis update lookups that went to the store.",
	})
)

// Repository caches Get results by id. Writes go to the store first and
// refresh the cache only on success; removals invalidate. Scans are never
// cached.
type Repository struct {
	next  crisis.Repository
	cache *expirable.LRU[uint64, crisis.Update]
}

// New wraps next with an LRU of maxSize entries that expire after ttl.
// A zero ttl keeps entries until they are evicted.
func New(next crisis.Repository, maxSize int, ttl time.Duration) *Repository {
	return &Repository{
		next:  next,
		cache: expirable.NewLRU[uint64, crisis.Update](maxSize, nil, ttl),
	}
}

// Get returns a cached copy or loads it from the store.
func (r *Repository) Get(ctx context.Context, id uint64) (*crisis.Update, error) {
	if cached, ok := r.cache.Get(id); ok {
		cacheHitsTotal.Inc()
		rec := cached.Clone()
		return &rec, nil
	}
	cacheMissesTotal.Inc()

	rec, err := r.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.Add(id, rec.Clone())
	return rec, nil
}

func (r *Repository) Put(ctx context.Context, rec *crisis.Update) error {
	if err := r.next.Put(ctx, rec); err != nil {
		r.cache.Remove(rec.ID)
		return err
	}
	r.cache.Add(rec.ID, rec.Clone())
	return nil
}

func (r *Repository) Remove(ctx context.Context, id uint64) (*crisis.Update, error) {
	r.cache.Remove(id)
	return r.next.Remove(ctx, id)
}

func (r *Repository) Scan(ctx context.Context) ([]crisis.Update, error) {
	return r.next.Scan(ctx)
}

func (r *Repository) IsEmpty(ctx context.Context) (bool, error) {
	return r.next.IsEmpty(ctx)
}

func (r *Repository) Last(ctx context.Context) (*crisis.Update, error) {
	return r.next.Last(ctx)
}

// Len reports the number of cached entries.
func (r *Repository) Len() int {
	return r.cache.Len()
}

package crisis

import "context"

// Repository is the durable id -> Update table.
// Implementations return repository.ErrNotFound for missing ids and must
// persist every mutation before returning.
type Repository interface {
	Get(ctx context.Context, id uint64) (*Update, error)
	Put(ctx context.Context, rec *Update) error
	Remove(ctx context.Context, id uint64) (*Update, error)
	// Scan returns every stored update in ascending id order.
	Scan(ctx context.Context) ([]Update, error)
	IsEmpty(ctx context.Context) (bool, error)
	// Last returns the update with the highest id.
	Last(ctx context.Context) (*Update, error)
}

// IDAllocator hands out durable, never-repeating ids starting at 0.
type IDAllocator interface {
	NextID(ctx context.Context) (uint64, error)
}

// Clock returns a non-decreasing timestamp.
type Clock interface {
	Now() uint64
}

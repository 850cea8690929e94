package memstore

import (
	"context"
	"strings"
	"testing"

	"github.com/rpggio/crisisdesk/internal/codec"
	"github.com/rpggio/crisisdesk/internal/domain/crisis"
	"github.com/rpggio/crisisdesk/internal/repository"
	"github.com/stretchr/testify/require"
)

func newUpdate(id uint64, loc string) *crisis.Update {
	return &crisis.Update{
		ID:          id,
		Title:       "Title",
		Description: "Description text",
		Location:    loc,
		Author:      "A",
		CreatedAt:   id * 10,
	}
}

func TestStore_PutGetRemove(t *testing.T) {
	ctx := context.Background()
	s := New()

	empty, err := s.IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	require.NoError(t, s.Put(ctx, newUpdate(3, "Lagos")))
	loaded, err := s.Get(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, "Lagos", loaded.Location)

	removed, err := s.Remove(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, uint64(3), removed.ID)

	_, err = s.Get(ctx, 3)
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.Remove(ctx, 3)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStore_ScanOrderAndLast(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Last(ctx)
	require.ErrorIs(t, err, repository.ErrNotFound)

	for _, id := range []uint64{5, 1, 3} {
		require.NoError(t, s.Put(ctx, newUpdate(id, "Nairobi")))
	}
	// overwrite keeps a single entry
	require.NoError(t, s.Put(ctx, newUpdate(3, "Lagos")))

	all, err := s.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, []uint64{1, 3, 5}, []uint64{all[0].ID, all[1].ID, all[2].ID})
	require.Equal(t, "Lagos", all[1].Location)

	last, err := s.Last(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(5), last.ID)
}

func TestStore_PutTooLargeWritesNothing(t *testing.T) {
	ctx := context.Background()
	s := New()

	rec := newUpdate(0, "Lagos")
	rec.Description = strings.Repeat("d", codec.MaxEncodedSize)
	require.ErrorIs(t, s.Put(ctx, rec), codec.ErrTooLarge)

	empty, err := s.IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)
}

func TestStore_CounterSurvivesRestore(t *testing.T) {
	ctx := context.Background()
	s := New()

	for want := uint64(0); want < 3; want++ {
		id, err := s.NextID(ctx)
		require.NoError(t, err)
		require.Equal(t, want, id)
		require.NoError(t, s.Put(ctx, newUpdate(id, "Lagos")))
	}
	_, err := s.Remove(ctx, 2)
	require.NoError(t, err)

	restored := Restore(s.Snapshot())
	id, err := restored.NextID(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(3), id, "deleted ids must not be reissued")

	all, err := restored.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

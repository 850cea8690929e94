package sqlite

import (
	"context"
	"strings"
	"testing"

	"github.com/rpggio/crisisdesk/internal/codec"
	"github.com/rpggio/crisisdesk/internal/domain/crisis"
	"github.com/rpggio/crisisdesk/internal/repository"
	"github.com/stretchr/testify/require"
)

func sampleUpdate(id uint64, loc string) *crisis.Update {
	return &crisis.Update{
		ID:          id,
		Title:       "Flood",
		Description: "Heavy flooding reported downtown",
		Location:    loc,
		Author:      "A",
		CreatedAt:   1000 + id,
	}
}

func TestCrisisRepository_PutGet(t *testing.T) {
	db := NewTestDB(t)
	repo := NewCrisisRepository(db)
	ctx := context.Background()

	rec := sampleUpdate(0, "Lagos")
	require.NoError(t, repo.Put(ctx, rec))

	loaded, err := repo.Get(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, *rec, *loaded)
	require.Nil(t, loaded.Timestamp)

	ts := uint64(2000)
	rec.Title = "Flood Update"
	rec.Timestamp = &ts
	require.NoError(t, repo.Put(ctx, rec))

	loaded, err = repo.Get(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, "Flood Update", loaded.Title)
	require.NotNil(t, loaded.Timestamp)
	require.Equal(t, ts, *loaded.Timestamp)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM crisis_updates`).Scan(&count))
	require.Equal(t, 1, count)

	var column int64
	require.NoError(t, db.QueryRow(`SELECT timestamp FROM crisis_updates WHERE id = 0`).Scan(&column))
	require.Equal(t, int64(ts), column)
}

func TestCrisisRepository_GetMissing(t *testing.T) {
	repo := NewCrisisRepository(NewTestDB(t))

	_, err := repo.Get(context.Background(), 9)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCrisisRepository_Remove(t *testing.T) {
	repo := NewCrisisRepository(NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, sampleUpdate(4, "Lagos")))

	removed, err := repo.Remove(ctx, 4)
	require.NoError(t, err)
	require.Equal(t, uint64(4), removed.ID)

	_, err = repo.Get(ctx, 4)
	require.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.Remove(ctx, 4)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCrisisRepository_ScanLastIsEmpty(t *testing.T) {
	repo := NewCrisisRepository(NewTestDB(t))
	ctx := context.Background()

	empty, err := repo.IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	_, err = repo.Last(ctx)
	require.ErrorIs(t, err, repository.ErrNotFound)

	for _, id := range []uint64{7, 2, 5} {
		require.NoError(t, repo.Put(ctx, sampleUpdate(id, "Nairobi")))
	}

	empty, err = repo.IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty)

	all, err := repo.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, uint64(2), all[0].ID)
	require.Equal(t, uint64(5), all[1].ID)
	require.Equal(t, uint64(7), all[2].ID)

	last, err := repo.Last(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(7), last.ID)
}

func TestCrisisRepository_PutTooLarge(t *testing.T) {
	repo := NewCrisisRepository(NewTestDB(t))
	ctx := context.Background()

	rec := sampleUpdate(0, "Lagos")
	rec.Description = strings.Repeat("x", 2000)
	err := repo.Put(ctx, rec)
	require.ErrorIs(t, err, codec.ErrTooLarge)

	_, err = repo.Get(ctx, 0)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCrisisRepository_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	db := openFileDB(t, dir)
	repo := NewCrisisRepository(db)
	require.NoError(t, repo.Put(ctx, sampleUpdate(0, "Lagos")))
	require.NoError(t, repo.Put(ctx, sampleUpdate(1, "Nairobi")))
	require.NoError(t, db.Close())

	reopened := openFileDB(t, dir)
	t.Cleanup(func() { reopened.Close() })

	all, err := NewCrisisRepository(reopened).Scan(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "Nairobi", all[1].Location)
}

package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/parlor/internal/game/world"
	"github.com/cory-johannsen/parlor/internal/storage"
	"github.com/cory-johannsen/parlor/internal/storage/postgres"
	"github.com/cory-johannsen/parlor/internal/testutil"
)

func TestSnapshotRepository_LoadEmpty(t *testing.T) {
	repo := postgres.NewSnapshotRepository(testutil.NewPool(t), 3)

	_, err := repo.Load(context.Background())
	assert.True(t, errors.Is(err, postgres.ErrSnapshotNotFound))
	assert.True(t, errors.Is(err, storage.ErrNoSnapshot))
}

func TestSnapshotRepository_SaveLoadRestores(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewSnapshotRepository(testutil.NewPool(t), 3)

	w := testutil.NewWorld(t, nil)
	kyra := testutil.Player(t, w, "Kyra")
	parlor := testutil.Room(t, w, "parlor")
	desk, _ := parlor.Fixture("DESK")
	key := testutil.RoomItem(t, parlor, desk, "KEY")
	_, err := w.Take(kyra, key, world.RightHand)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, w.Snapshot()))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)

	fresh := testutil.NewWorld(t, nil)
	require.NoError(t, fresh.Restore(loaded))
	require.NoError(t, fresh.CheckInvariants())
	s, _ := testutil.Player(t, fresh, "Kyra").Slot(world.RightHand)
	require.NotNil(t, s.Equipped)
	assert.Equal(t, "KEY", s.Equipped.Prefab.ID)
}

func TestSnapshotRepository_PrunesToKeep(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewSnapshotRepository(testutil.NewPool(t), 3)
	w := testutil.NewWorld(t, nil)

	snap := w.Snapshot()
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Save(ctx, snap))
	}
	infos, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Greater(t, infos[0].ID, infos[1].ID)
	assert.Equal(t, world.SnapshotVersion, infos[0].Version)
	assert.Equal(t, len(snap.Items), infos[0].Items)
}

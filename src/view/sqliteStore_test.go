package view

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sandpile/src/sandbox"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "sandpile.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := openStore(t)

	o := sandbox.DefaultOptions()
	o.Size = 5
	o.Iterations = 12
	o.Placement = sandbox.PlacementCenter
	s, err := sandbox.NewSimulation(o, store, nil)
	require.NoError(t, err)
	require.NoError(t, store.BeginRun(s.Status().RunID, o.Size, s.Engine()))
	require.NoError(t, s.Run(context.Background()))

	snaps, err := store.Snapshots(s.Status().RunID)
	require.NoError(t, err)
	require.Len(t, snaps, 12)
	for i, sn := range snaps {
		assert.Equal(t, i+1, sn.Iteration)
		assert.Equal(t, sn.Grid.Mass(), sn.Mass)
	}
	assert.True(t, snaps[11].Grid.Equal(s.Grid()))

	other, err := store.Snapshots(uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSQLiteStoreRequiresRun(t *testing.T) {
	store := openStore(t)
	g, _ := sandbox.NewGrid(2)
	assert.Error(t, store.Export(1, g))
}

func TestSQLiteStoreDuplicateSnapshot(t *testing.T) {
	store := openStore(t)
	require.NoError(t, store.BeginRun(uuid.New(), 2, "scan"))
	g, _ := sandbox.NewGrid(2)
	require.NoError(t, store.Export(1, g))
	assert.Error(t, store.Export(1, g))
}

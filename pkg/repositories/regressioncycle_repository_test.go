package repositories_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dream-horizon/delivr/ent/regressioncycle"
)

func TestRegressionCycleRepository_CreateNext(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()
	releaseID := mustCreateRelease(t, store, "tenant-cycle-a")

	first, err := store.Cycles.CreateNext(ctx, releaseID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.CycleTag)
	assert.True(t, first.IsLatest)

	second, err := store.Cycles.CreateNext(ctx, releaseID)
	require.NoError(t, err)
	assert.Equal(t, 2, second.CycleTag)
	assert.True(t, second.IsLatest)

	latest, err := store.Cycles.FindLatest(ctx, releaseID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
}

func TestRegressionCycleRepository_FindLatest_NotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()
	releaseID := mustCreateRelease(t, store, "tenant-cycle-b")

	_, err := store.Cycles.FindLatest(ctx, releaseID)
	assert.Error(t, err)
}

func TestRegressionCycleRepository_SetStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()
	releaseID := mustCreateRelease(t, store, "tenant-cycle-c")

	cycle, err := store.Cycles.CreateNext(ctx, releaseID)
	require.NoError(t, err)

	require.NoError(t, store.Cycles.SetStatus(ctx, cycle.ID, regressioncycle.StatusDone))

	latest, err := store.Cycles.FindLatest(ctx, releaseID)
	require.NoError(t, err)
	assert.Equal(t, regressioncycle.StatusDone, latest.Status)
}

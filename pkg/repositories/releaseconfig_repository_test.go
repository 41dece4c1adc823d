package repositories_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dream-horizon/delivr/internal/dbtest"
	"github.com/dream-horizon/delivr/pkg/repositories"
)

// ReleaseConfigRepository is read-only (nothing in this module writes
// ReleaseConfig rows; pkg/config's loader only reads YAML files), so
// tests insert fixture rows directly through the embedded ent client.
func TestReleaseConfigRepository_FindByIDAndTenant(t *testing.T) {
	client := dbtest.NewClient(t)
	store := repositories.NewStore(client.Client)
	ctx := t.Context()

	cfg, err := client.ReleaseConfig.Create().
		SetID(uuid.New().String()).
		SetTenantID("tenant-cfg-a").
		SetName("default").
		SetCiConfigID("ci-default").
		SetTestMgmtID("tm-default").
		Save(ctx)
	require.NoError(t, err)

	found, err := store.ReleaseConfigs.FindByID(ctx, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, "default", found.Name)

	list, err := store.ReleaseConfigs.FindByTenant(ctx, "tenant-cfg-a")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, cfg.ID, list[0].ID)
}

func TestReleaseConfigRepository_FindByID_NotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.ReleaseConfigs.FindByID(t.Context(), "does-not-exist")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

package repositories

import (
	"context"
	"fmt"

	"github.com/dream-horizon/delivr/ent"
	"github.com/dream-horizon/delivr/ent/releaseconfig"
)

// ReleaseConfigRepository wraps ent queries against the ReleaseConfig
// entity.
type ReleaseConfigRepository struct {
	client *ent.Client
}

// NewReleaseConfigRepository builds a ReleaseConfigRepository.
func NewReleaseConfigRepository(client *ent.Client) *ReleaseConfigRepository {
	return &ReleaseConfigRepository{client: client}
}

// FindByID loads a ReleaseConfig row by ID.
func (r *ReleaseConfigRepository) FindByID(ctx context.Context, id string) (*ent.ReleaseConfig, error) {
	cfg, err := r.client.ReleaseConfig.Query().Where(releaseconfig.IDEQ(id)).Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repositories: find release config %s: %w", id, err)
	}
	return cfg, nil
}

// FindByTenant lists every reusable template a tenant has defined.
func (r *ReleaseConfigRepository) FindByTenant(ctx context.Context, tenantID string) ([]*ent.ReleaseConfig, error) {
	cfgs, err := r.client.ReleaseConfig.Query().Where(releaseconfig.TenantIDEQ(tenantID)).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("repositories: find release configs for tenant %s: %w", tenantID, err)
	}
	return cfgs, nil
}

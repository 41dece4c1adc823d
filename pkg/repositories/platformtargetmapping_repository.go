package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dream-horizon/delivr/ent"
	"github.com/dream-horizon/delivr/ent/platformtargetmapping"
)

// PlatformTargetMappingRepository wraps ent queries against the
// PlatformTargetMapping entity.
type PlatformTargetMappingRepository struct {
	client *ent.Client
}

// NewPlatformTargetMappingRepository builds a PlatformTargetMappingRepository.
func NewPlatformTargetMappingRepository(client *ent.Client) *PlatformTargetMappingRepository {
	return &PlatformTargetMappingRepository{client: client}
}

// Upsert creates or updates a release's platform/target mapping and its
// current version string.
func (r *PlatformTargetMappingRepository) Upsert(ctx context.Context, releaseID string, platform platformtargetmapping.Platform, target platformtargetmapping.Target, version string) (*ent.PlatformTargetMapping, error) {
	existing, err := r.client.PlatformTargetMapping.Query().
		Where(
			platformtargetmapping.ReleaseIDEQ(releaseID),
			platformtargetmapping.PlatformEQ(platform),
		).
		Only(ctx)

	switch {
	case ent.IsNotFound(err):
		m, createErr := r.client.PlatformTargetMapping.Create().
			SetID(uuid.New().String()).
			SetReleaseID(releaseID).
			SetPlatform(platform).
			SetTarget(target).
			SetVersion(version).
			Save(ctx)
		if createErr != nil {
			return nil, fmt.Errorf("repositories: create platform target mapping: %w", createErr)
		}
		return m, nil
	case err != nil:
		return nil, fmt.Errorf("repositories: find platform target mapping: %w", err)
	default:
		updated, updateErr := existing.Update().SetTarget(target).SetVersion(version).Save(ctx)
		if updateErr != nil {
			return nil, fmt.Errorf("repositories: update platform target mapping %s: %w", existing.ID, updateErr)
		}
		return updated, nil
	}
}

// FindByRelease lists every platform/target mapping for a release, the
// input set to generatePlatformVersionString (spec.md §4.C).
func (r *PlatformTargetMappingRepository) FindByRelease(ctx context.Context, releaseID string) ([]*ent.PlatformTargetMapping, error) {
	mappings, err := r.client.PlatformTargetMapping.Query().
		Where(platformtargetmapping.ReleaseIDEQ(releaseID)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("repositories: find platform target mappings for release %s: %w", releaseID, err)
	}
	return mappings, nil
}

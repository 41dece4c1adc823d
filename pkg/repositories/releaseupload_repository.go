package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dream-horizon/delivr/ent"
	"github.com/dream-horizon/delivr/ent/releaseupload"
)

// ReleaseUploadRepository wraps ent queries against the ReleaseUpload
// entity.
type ReleaseUploadRepository struct {
	client *ent.Client
}

// NewReleaseUploadRepository builds a ReleaseUploadRepository.
func NewReleaseUploadRepository(client *ent.Client) *ReleaseUploadRepository {
	return &ReleaseUploadRepository{client: client}
}

// UpsertInput is the input to Upsert.
type UpsertInput struct {
	TenantID     string
	ReleaseID    string
	Platform     releaseupload.Platform
	Stage        releaseupload.Stage
	ArtifactPath string
}

// Upsert stores a manual build artifact for (release_id, platform,
// stage), overwriting any existing row with a fresh artifact_path and
// resetting is_used to false — the "last upload wins" rule (spec.md §3).
func (r *ReleaseUploadRepository) Upsert(ctx context.Context, in UpsertInput) (*ent.ReleaseUpload, error) {
	existing, err := r.client.ReleaseUpload.Query().
		Where(
			releaseupload.ReleaseIDEQ(in.ReleaseID),
			releaseupload.PlatformEQ(in.Platform),
			releaseupload.StageEQ(in.Stage),
		).
		Only(ctx)

	switch {
	case ent.IsNotFound(err):
		upload, createErr := r.client.ReleaseUpload.Create().
			SetID(uuid.New().String()).
			SetTenantID(in.TenantID).
			SetReleaseID(in.ReleaseID).
			SetPlatform(in.Platform).
			SetStage(in.Stage).
			SetArtifactPath(in.ArtifactPath).
			Save(ctx)
		if createErr != nil {
			return nil, fmt.Errorf("repositories: create release upload: %w", createErr)
		}
		return upload, nil
	case err != nil:
		return nil, fmt.Errorf("repositories: find release upload: %w", err)
	default:
		updated, updateErr := existing.Update().
			SetArtifactPath(in.ArtifactPath).
			SetIsUsed(false).
			Save(ctx)
		if updateErr != nil {
			return nil, fmt.Errorf("repositories: update release upload %s: %w", existing.ID, updateErr)
		}
		return updated, nil
	}
}

// FindByReleasePlatformStage looks up the upload staged for one
// (release, platform, stage) triple.
func (r *ReleaseUploadRepository) FindByReleasePlatformStage(ctx context.Context, releaseID string, platform releaseupload.Platform, stage releaseupload.Stage) (*ent.ReleaseUpload, error) {
	upload, err := r.client.ReleaseUpload.Query().
		Where(
			releaseupload.ReleaseIDEQ(releaseID),
			releaseupload.PlatformEQ(platform),
			releaseupload.StageEQ(stage),
		).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repositories: find release upload: %w", err)
	}
	return upload, nil
}

// MarkUsed flags an upload as consumed by the build callback aggregator,
// so a later poll of the same task doesn't re-trigger on it.
func (r *ReleaseUploadRepository) MarkUsed(ctx context.Context, id string) error {
	n, err := r.client.ReleaseUpload.Update().
		Where(releaseupload.IDEQ(id)).
		SetIsUsed(true).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("repositories: mark release upload %s used: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CheckAllPlatformsReady reports whether every platform in
// requiredPlatforms has an unused upload staged for (releaseID, stage).
func (r *ReleaseUploadRepository) CheckAllPlatformsReady(ctx context.Context, releaseID string, stage releaseupload.Stage, requiredPlatforms []releaseupload.Platform) (bool, error) {
	for _, platform := range requiredPlatforms {
		upload, err := r.FindByReleasePlatformStage(ctx, releaseID, platform, stage)
		if err != nil {
			if err == ErrNotFound {
				return false, nil
			}
			return false, err
		}
		if upload.IsUsed {
			return false, nil
		}
	}
	return true, nil
}

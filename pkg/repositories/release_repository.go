package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dream-horizon/delivr/ent"
	"github.com/dream-horizon/delivr/ent/release"
)

// ReleaseRepository wraps ent queries against the Release entity.
type ReleaseRepository struct {
	client *ent.Client
}

// NewReleaseRepository builds a ReleaseRepository.
func NewReleaseRepository(client *ent.Client) *ReleaseRepository {
	return &ReleaseRepository{client: client}
}

// CreateReleaseInput is the input to Create.
type CreateReleaseInput struct {
	TenantID             string
	ReleaseBranch        string
	BaseBranch           string
	Type                 release.Type
	KickOffDate          time.Time
	TargetReleaseDate    *time.Time
	HasManualBuildUpload bool
	ReleaseConfigID      *string
	CreatedBy            string
}

// Create inserts a new Release row with a generated ID.
func (r *ReleaseRepository) Create(ctx context.Context, in CreateReleaseInput) (*ent.Release, error) {
	builder := r.client.Release.Create().
		SetID(uuid.New().String()).
		SetTenantID(in.TenantID).
		SetReleaseBranch(in.ReleaseBranch).
		SetBaseBranch(in.BaseBranch).
		SetType(in.Type).
		SetKickOffDate(in.KickOffDate).
		SetHasManualBuildUpload(in.HasManualBuildUpload).
		SetCreatedBy(in.CreatedBy)

	if in.TargetReleaseDate != nil {
		builder.SetTargetReleaseDate(*in.TargetReleaseDate)
	}
	if in.ReleaseConfigID != nil {
		builder.SetReleaseConfigID(*in.ReleaseConfigID)
	}

	rel, err := builder.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("repositories: create release: %w", err)
	}
	return rel, nil
}

// FindByID loads a Release by its ID.
func (r *ReleaseRepository) FindByID(ctx context.Context, id string) (*ent.Release, error) {
	rel, err := r.client.Release.Query().Where(release.IDEQ(id)).Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repositories: find release %s: %w", id, err)
	}
	return rel, nil
}

// FindActiveByTenant lists every in-progress or paused release for a
// tenant, the set the scheduler's per-tenant listing operates over.
func (r *ReleaseRepository) FindActiveByTenant(ctx context.Context, tenantID string) ([]*ent.Release, error) {
	rels, err := r.client.Release.Query().
		Where(
			release.TenantIDEQ(tenantID),
			release.StatusIn(release.StatusInProgress, release.StatusPaused),
		).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("repositories: find active releases for tenant %s: %w", tenantID, err)
	}
	return rels, nil
}

// UpdateStatus transitions a Release's status (in_progress/paused/completed/archived).
func (r *ReleaseRepository) UpdateStatus(ctx context.Context, id string, status release.Status) error {
	n, err := r.client.Release.Update().
		Where(release.IDEQ(id)).
		SetStatus(status).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("repositories: update release %s status: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetSchedule updates kick_off_date and, if provided, target_release_date —
// startCronJob's caller may only finalize these once activating the cron
// (spec.md §4.H StartCronJobInput).
func (r *ReleaseRepository) SetSchedule(ctx context.Context, id string, kickOffDate time.Time, targetDate *time.Time) error {
	builder := r.client.Release.Update().
		Where(release.IDEQ(id)).
		SetKickOffDate(kickOffDate)
	if targetDate != nil {
		builder.SetTargetReleaseDate(*targetDate)
	}
	n, err := builder.Save(ctx)
	if err != nil {
		return fmt.Errorf("repositories: set release %s schedule: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetReleaseDate stamps the actual release_date once Stage 3 completes.
func (r *ReleaseRepository) SetReleaseDate(ctx context.Context, id string, at time.Time) error {
	n, err := r.client.Release.Update().
		Where(release.IDEQ(id)).
		SetReleaseDate(at).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("repositories: set release %s release_date: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Archive marks a release as archived, whatever its current status.
func (r *ReleaseRepository) Archive(ctx context.Context, id string) error {
	return r.UpdateStatus(ctx, id, release.StatusArchived)
}

package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dream-horizon/delivr/ent"
	"github.com/dream-horizon/delivr/ent/regressioncycle"
)

// RegressionCycleRepository wraps ent queries against the RegressionCycle
// entity.
type RegressionCycleRepository struct {
	client *ent.Client
}

// NewRegressionCycleRepository builds a RegressionCycleRepository.
func NewRegressionCycleRepository(client *ent.Client) *RegressionCycleRepository {
	return &RegressionCycleRepository{client: client}
}

// CreateNext inserts the next regression cycle for a release, clearing
// is_latest on any previous cycle and tagging the new one
// previousTag+1 (tag 1 if none exists).
func (r *RegressionCycleRepository) CreateNext(ctx context.Context, releaseID string) (*ent.RegressionCycle, error) {
	tx, err := r.client.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("repositories: begin tx for next cycle: %w", err)
	}
	defer tx.Rollback()

	prev, err := tx.RegressionCycle.Query().
		Where(regressioncycle.ReleaseIDEQ(releaseID)).
		Order(ent.Desc(regressioncycle.FieldCycleTag)).
		First(ctx)
	nextTag := 1
	if err == nil {
		nextTag = prev.CycleTag + 1
	} else if !ent.IsNotFound(err) {
		return nil, fmt.Errorf("repositories: find latest cycle for release %s: %w", releaseID, err)
	}

	if _, err := tx.RegressionCycle.Update().
		Where(regressioncycle.ReleaseIDEQ(releaseID), regressioncycle.IsLatestEQ(true)).
		SetIsLatest(false).
		Save(ctx); err != nil {
		return nil, fmt.Errorf("repositories: clear previous latest cycle for release %s: %w", releaseID, err)
	}

	cycle, err := tx.RegressionCycle.Create().
		SetID(uuid.New().String()).
		SetReleaseID(releaseID).
		SetCycleTag(nextTag).
		SetIsLatest(true).
		Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("repositories: create cycle %d for release %s: %w", nextTag, releaseID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("repositories: commit next cycle for release %s: %w", releaseID, err)
	}
	return cycle, nil
}

// FindLatest returns the latest regression cycle for a release.
func (r *RegressionCycleRepository) FindLatest(ctx context.Context, releaseID string) (*ent.RegressionCycle, error) {
	cycle, err := r.client.RegressionCycle.Query().
		Where(regressioncycle.ReleaseIDEQ(releaseID), regressioncycle.IsLatestEQ(true)).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repositories: find latest cycle for release %s: %w", releaseID, err)
	}
	return cycle, nil
}

// SetStatus transitions a cycle's status (not_started/in_progress/done).
func (r *RegressionCycleRepository) SetStatus(ctx context.Context, id string, status regressioncycle.Status) error {
	n, err := r.client.RegressionCycle.Update().
		Where(regressioncycle.IDEQ(id)).
		SetStatus(status).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("repositories: set cycle %s status: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

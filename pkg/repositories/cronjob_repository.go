package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dream-horizon/delivr/ent"
	"github.com/dream-horizon/delivr/ent/cronjob"
	"github.com/dream-horizon/delivr/ent/schema"
	"github.com/dream-horizon/delivr/pkg/metrics"
)

// CronJobRepository wraps ent queries against the CronJob entity, the
// per-release runtime control block the scheduler and state machine read
// and update on every tick.
type CronJobRepository struct {
	client *ent.Client
}

// NewCronJobRepository builds a CronJobRepository.
func NewCronJobRepository(client *ent.Client) *CronJobRepository {
	return &CronJobRepository{client: client}
}

// Create inserts the CronJob row for a newly kicked-off release.
func (r *CronJobRepository) Create(ctx context.Context, releaseID string, cronConfig map[string]bool, slots []schema.RegressionSlot) (*ent.CronJob, error) {
	job, err := r.client.CronJob.Create().
		SetID(uuid.New().String()).
		SetReleaseID(releaseID).
		SetCronConfig(cronConfig).
		SetUpcomingRegressions(slots).
		Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("repositories: create cron job for release %s: %w", releaseID, err)
	}
	return job, nil
}

// FindByReleaseID loads the single CronJob belonging to a release.
func (r *CronJobRepository) FindByReleaseID(ctx context.Context, releaseID string) (*ent.CronJob, error) {
	job, err := r.client.CronJob.Query().Where(cronjob.ReleaseIDEQ(releaseID)).Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repositories: find cron job for release %s: %w", releaseID, err)
	}
	return job, nil
}

// FindRunnable lists every CronJob in cron_status=running, the set the
// scheduler's tick loop must consider on every pass.
func (r *CronJobRepository) FindRunnable(ctx context.Context) ([]*ent.CronJob, error) {
	jobs, err := r.client.CronJob.Query().
		Where(cronjob.CronStatusEQ(cronjob.CronStatusRunning)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("repositories: find runnable cron jobs: %w", err)
	}
	return jobs, nil
}

// SetCronStatus transitions cron_status (pending/running/paused/completed).
func (r *CronJobRepository) SetCronStatus(ctx context.Context, id string, status cronjob.CronStatus) error {
	return r.update(ctx, id, func(u *ent.CronJobUpdateOne) *ent.CronJobUpdateOne {
		return u.SetCronStatus(status)
	})
}

// Pause sets cron_status=paused and records why, stamping cron_stopped_at.
func (r *CronJobRepository) Pause(ctx context.Context, id string, reason cronjob.PauseType, at time.Time) error {
	if err := r.update(ctx, id, func(u *ent.CronJobUpdateOne) *ent.CronJobUpdateOne {
		return u.SetCronStatus(cronjob.CronStatusPaused).SetPauseType(reason).SetCronStoppedAt(at)
	}); err != nil {
		return err
	}
	metrics.RecordPause(string(reason))
	return nil
}

// Resume clears pause_type and moves cron_status back to running.
func (r *CronJobRepository) Resume(ctx context.Context, id string) error {
	return r.update(ctx, id, func(u *ent.CronJobUpdateOne) *ent.CronJobUpdateOne {
		return u.SetCronStatus(cronjob.CronStatusRunning).SetPauseType(cronjob.PauseTypeNone).ClearCronStoppedAt()
	})
}

// SetStage1Status updates the Kickoff stage status.
func (r *CronJobRepository) SetStage1Status(ctx context.Context, id string, status cronjob.Stage1Status) error {
	return r.update(ctx, id, func(u *ent.CronJobUpdateOne) *ent.CronJobUpdateOne {
		return u.SetStage1Status(status)
	})
}

// SetStage2Status updates the Regression stage status.
func (r *CronJobRepository) SetStage2Status(ctx context.Context, id string, status cronjob.Stage2Status) error {
	return r.update(ctx, id, func(u *ent.CronJobUpdateOne) *ent.CronJobUpdateOne {
		return u.SetStage2Status(status)
	})
}

// SetStage3Status updates the Pre-Release stage status.
func (r *CronJobRepository) SetStage3Status(ctx context.Context, id string, status cronjob.Stage3Status) error {
	return r.update(ctx, id, func(u *ent.CronJobUpdateOne) *ent.CronJobUpdateOne {
		return u.SetStage3Status(status)
	})
}

// PopNextRegressionSlot removes and returns the earliest upcoming
// regression slot, or ok=false if none remain.
func (r *CronJobRepository) PopNextRegressionSlot(ctx context.Context, id string) (slot schema.RegressionSlot, ok bool, err error) {
	job, err := r.client.CronJob.Get(ctx, id)
	if err != nil {
		if ent.IsNotFound(err) {
			return schema.RegressionSlot{}, false, ErrNotFound
		}
		return schema.RegressionSlot{}, false, fmt.Errorf("repositories: get cron job %s: %w", id, err)
	}
	if len(job.UpcomingRegressions) == 0 {
		return schema.RegressionSlot{}, false, nil
	}

	next := job.UpcomingRegressions[0]
	remaining := job.UpcomingRegressions[1:]
	if _, err := r.client.CronJob.UpdateOneID(id).SetUpcomingRegressions(remaining).Save(ctx); err != nil {
		return schema.RegressionSlot{}, false, fmt.Errorf("repositories: pop regression slot for %s: %w", id, err)
	}
	return next, true, nil
}

func (r *CronJobRepository) update(ctx context.Context, id string, apply func(*ent.CronJobUpdateOne) *ent.CronJobUpdateOne) error {
	_, err := apply(r.client.CronJob.UpdateOneID(id)).Save(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("repositories: update cron job %s: %w", id, err)
	}
	return nil
}

package services

import (
	"context"
	"errors"

	"dario.cat/mergo"

	"github.com/dream-horizon/delivr/ent"
	"github.com/dream-horizon/delivr/ent/cronjob"
	"github.com/dream-horizon/delivr/ent/release"
	"github.com/dream-horizon/delivr/pkg/models"
	"github.com/dream-horizon/delivr/pkg/repositories"
)

// resolveCronConfig merges a release's per-release toggle overrides onto
// its ReleaseConfig template's defaults, the same override-wins merge
// pkg/config.MergeTemplate applies to the YAML-defined templates — here
// applied to the DB-resident ReleaseConfig entity's
// feature_toggle_defaults instead (see ent/schema's releaseconfig.go).
func (s *Service) resolveCronConfig(ctx context.Context, releaseConfigID *string, overrides map[string]bool) (map[string]bool, error) {
	merged := make(map[string]bool)
	if releaseConfigID != nil {
		cfg, err := s.store.ReleaseConfigs.FindByID(ctx, *releaseConfigID)
		if err != nil {
			return nil, err
		}
		for k, v := range cfg.FeatureToggleDefaults {
			merged[k] = v
		}
	}
	if len(overrides) > 0 {
		if err := mergo.Merge(&merged, overrides, mergo.WithOverride); err != nil {
			return nil, err
		}
	}
	return merged, nil
}

// StartCronJob implements spec.md §4.H: fails if already running; sets
// stage1=IN_PROGRESS, cronStatus=RUNNING; starts the runner. Creates the
// release's CronJob row on first call. "Creates workflow polling jobs
// (best-effort)" has no analogue here — pkg/polling runs two
// process-global loops the composition root starts once, not per-release
// jobs, so there is nothing to create per release (see DESIGN.md).
func (s *Service) StartCronJob(ctx context.Context, in models.StartCronJobInput) (*ent.CronJob, error) {
	cronConfig, err := s.resolveCronConfig(ctx, in.ReleaseConfigID, in.CronConfig)
	if err != nil {
		return nil, err
	}
	if err := s.store.Releases.SetSchedule(ctx, in.ReleaseID, in.KickOffDate, in.TargetDate); err != nil {
		return nil, err
	}

	job, err := s.store.CronJobs.FindByReleaseID(ctx, in.ReleaseID)
	switch {
	case err == nil:
		if job.CronStatus == cronjob.CronStatusRunning {
			return nil, ErrAlreadyRunning
		}
	case errors.Is(err, repositories.ErrNotFound):
		job, err = s.store.CronJobs.Create(ctx, in.ReleaseID, cronConfig, nil)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if err := s.store.CronJobs.SetStage1Status(ctx, job.ID, cronjob.Stage1StatusInProgress); err != nil {
		return nil, err
	}
	if err := s.store.CronJobs.Resume(ctx, job.ID); err != nil {
		return nil, err
	}

	if !s.scheduler.IsRunning(in.ReleaseID) {
		if err := s.scheduler.Start(ctx, in.ReleaseID); err != nil {
			return nil, err
		}
	}
	return job, nil
}

// StopCronJob halts a release's runner and returns its CronJob to
// cron_status=pending, symmetric with StartCronJob's running-guard.
func (s *Service) StopCronJob(ctx context.Context, releaseID string) error {
	job, err := s.store.CronJobs.FindByReleaseID(ctx, releaseID)
	if err != nil {
		return err
	}
	s.scheduler.Stop(releaseID)
	return s.store.CronJobs.SetCronStatus(ctx, job.ID, cronjob.CronStatusPending)
}

// PauseRelease implements spec.md §4.H: only for non-terminal releases;
// sets pauseType=USER_REQUESTED; idempotent.
func (s *Service) PauseRelease(ctx context.Context, releaseID, tenantID string) error {
	rel, err := s.store.Releases.FindByID(ctx, releaseID)
	if err != nil {
		return err
	}
	if rel.TenantID != tenantID {
		return repositories.ErrNotFound
	}
	if rel.Status == release.StatusCompleted || rel.Status == release.StatusArchived {
		return ErrTerminalRelease
	}

	job, err := s.store.CronJobs.FindByReleaseID(ctx, releaseID)
	if err != nil {
		return err
	}
	if job.PauseType == cronjob.PauseTypeUserRequested {
		return nil
	}

	now := s.clock.Now()
	if err := s.store.CronJobs.Pause(ctx, job.ID, cronjob.PauseTypeUserRequested, now); err != nil {
		return err
	}
	if err := s.store.Releases.UpdateStatus(ctx, releaseID, release.StatusPaused); err != nil {
		return err
	}
	s.events.PublishReleasePaused(ctx, releaseID, string(cronjob.PauseTypeUserRequested), now)
	return nil
}

// ResumeRelease implements spec.md §4.H: only when pauseType=USER_REQUESTED;
// sets pauseType=NONE. Refuses TASK_FAILURE (must retryTask) and
// AWAITING_STAGE_TRIGGER (must call the matching stage trigger).
func (s *Service) ResumeRelease(ctx context.Context, releaseID, tenantID string) error {
	rel, err := s.store.Releases.FindByID(ctx, releaseID)
	if err != nil {
		return err
	}
	if rel.TenantID != tenantID {
		return repositories.ErrNotFound
	}

	job, err := s.store.CronJobs.FindByReleaseID(ctx, releaseID)
	if err != nil {
		return err
	}

	switch job.PauseType {
	case cronjob.PauseTypeUserRequested:
		if err := s.store.CronJobs.Resume(ctx, job.ID); err != nil {
			return err
		}
		if err := s.store.Releases.UpdateStatus(ctx, releaseID, release.StatusInProgress); err != nil {
			return err
		}
		s.events.PublishReleaseResumed(ctx, releaseID, s.clock.Now())
		return nil
	case cronjob.PauseTypeTaskFailure:
		return ErrMustRetryTask
	case cronjob.PauseTypeAwaitingStageTrigger:
		return ErrMustTriggerStage
	case cronjob.PauseTypeAwaitingManualBuild:
		return ErrMustUploadManualBuild
	default:
		return ErrNotPaused
	}
}

// ArchiveRelease implements spec.md §4.H: idempotent; sets release
// ARCHIVED, pauses cron if running, stops the runner. "Requests deletion
// of workflow polling jobs" has no analogue — the pollers scan Build rows
// globally rather than holding per-release registrations, so archiving
// a release simply stops producing new builds for them to find (see
// DESIGN.md). accountID is accepted for API parity with spec.md §4.H;
// no schema field currently records who archived a release.
func (s *Service) ArchiveRelease(ctx context.Context, releaseID, accountID string) error {
	rel, err := s.store.Releases.FindByID(ctx, releaseID)
	if err != nil {
		return err
	}
	if rel.Status == release.StatusArchived {
		return nil
	}

	job, err := s.store.CronJobs.FindByReleaseID(ctx, releaseID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	if err == nil && job.CronStatus == cronjob.CronStatusRunning {
		if err := s.store.CronJobs.SetCronStatus(ctx, job.ID, cronjob.CronStatusPaused); err != nil {
			return err
		}
	}

	s.scheduler.Stop(releaseID)
	if err := s.store.Releases.Archive(ctx, releaseID); err != nil {
		return err
	}
	s.events.PublishReleaseArchived(ctx, releaseID, s.clock.Now())
	return nil
}

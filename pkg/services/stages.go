package services

import (
	"context"
	"log/slog"

	"github.com/dream-horizon/delivr/ent"
	"github.com/dream-horizon/delivr/ent/cronjob"
	"github.com/dream-horizon/delivr/ent/regressioncycle"
	"github.com/dream-horizon/delivr/pkg/models"
	"github.com/dream-horizon/delivr/pkg/repositories"
)

// TriggerStage2 implements spec.md §4.H: requires stage1=COMPLETED and
// stage2∈{PENDING}; sets stage2=IN_PROGRESS, cronStatus=RUNNING,
// pauseType=NONE; restarts the runner if needed.
func (s *Service) TriggerStage2(ctx context.Context, in models.TriggerStage2Input) error {
	rel, err := s.store.Releases.FindByID(ctx, in.ReleaseID)
	if err != nil {
		return err
	}
	if rel.TenantID != in.TenantID {
		return repositories.ErrNotFound
	}

	job, err := s.store.CronJobs.FindByReleaseID(ctx, in.ReleaseID)
	if err != nil {
		return err
	}
	if job.Stage1Status != cronjob.Stage1StatusCompleted || job.Stage2Status != cronjob.Stage2StatusPending {
		return ErrWrongStageState
	}

	if err := s.store.CronJobs.SetStage2Status(ctx, job.ID, cronjob.Stage2StatusInProgress); err != nil {
		return err
	}
	if err := s.store.CronJobs.Resume(ctx, job.ID); err != nil {
		return err
	}
	s.events.PublishStageTransition(ctx, in.ReleaseID, 2, string(cronjob.Stage2StatusInProgress), s.clock.Now())
	if !s.scheduler.IsRunning(in.ReleaseID) {
		return s.scheduler.Start(ctx, in.ReleaseID)
	}
	return nil
}

// TriggerStage3 implements spec.md §4.H: requires stage2=COMPLETED and
// stage3∈{PENDING}. Unless forceApprove, two predicates must hold: (a) no
// pending cherry-picks, delegated to the external CherryPickChecker; (b)
// no active/scheduled regression cycle (spec.md §8 S6).
func (s *Service) TriggerStage3(ctx context.Context, in models.TriggerStage3Input) error {
	rel, err := s.store.Releases.FindByID(ctx, in.ReleaseID)
	if err != nil {
		return err
	}
	if rel.TenantID != in.TenantID {
		return repositories.ErrNotFound
	}

	job, err := s.store.CronJobs.FindByReleaseID(ctx, in.ReleaseID)
	if err != nil {
		return err
	}
	if job.Stage2Status != cronjob.Stage2StatusCompleted || job.Stage3Status != cronjob.Stage3StatusPending {
		return ErrWrongStageState
	}

	if !in.ForceApprove {
		pending, err := s.cherryPicks.HasPendingCherryPicks(ctx, in.ReleaseID)
		if err != nil {
			return err
		}
		if pending {
			return ErrCherryPickPending
		}

		open, err := s.cyclesStillOpen(ctx, job, in.ReleaseID)
		if err != nil {
			return err
		}
		if open {
			return ErrCyclesNotCompleted
		}
	}

	slog.Info("stage 3 triggered", "release_id", in.ReleaseID, "approved_by", in.ApprovedBy, "force_approve", in.ForceApprove, "comments", in.Comments)

	if err := s.store.CronJobs.SetStage3Status(ctx, job.ID, cronjob.Stage3StatusInProgress); err != nil {
		return err
	}
	if err := s.store.CronJobs.Resume(ctx, job.ID); err != nil {
		return err
	}
	s.events.PublishStageTransition(ctx, in.ReleaseID, 3, string(cronjob.Stage3StatusInProgress), s.clock.Now())
	if !s.scheduler.IsRunning(in.ReleaseID) {
		return s.scheduler.Start(ctx, in.ReleaseID)
	}
	return nil
}

// cyclesStillOpen reports whether a release has a regression cycle still
// scheduled or running: a non-empty upcomingRegressions queue, or a
// latest cycle in NOT_STARTED/IN_PROGRESS.
func (s *Service) cyclesStillOpen(ctx context.Context, job *ent.CronJob, releaseID string) (bool, error) {
	if len(job.UpcomingRegressions) > 0 {
		return true, nil
	}

	latest, err := s.store.Cycles.FindLatest(ctx, releaseID)
	if err != nil {
		if err == repositories.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return latest.Status == regressioncycle.StatusNotStarted || latest.Status == regressioncycle.StatusInProgress, nil
}

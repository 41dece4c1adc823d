package services

import (
	"context"

	"github.com/dream-horizon/delivr/ent/cronjob"
	"github.com/dream-horizon/delivr/ent/release"
	"github.com/dream-horizon/delivr/ent/releasetask"
	"github.com/dream-horizon/delivr/pkg/models"
)

// RetryTask implements spec.md §4.H: refuses if the task isn't FAILED.
// Resets the task to PENDING. If the release was PAUSED with
// TASK_FAILURE, sets release IN_PROGRESS and cron pauseType=NONE. Clears
// any failed Build rows under the task unconditionally — a no-op for
// task types that never fan out builds, since the filter is scoped to
// rows matching this task's ID.
func (s *Service) RetryTask(ctx context.Context, in models.RetryTaskInput) error {
	task, err := s.store.Tasks.FindByID(ctx, in.TaskID)
	if err != nil {
		return err
	}
	if task.TaskStatus != releasetask.TaskStatusFailed {
		return ErrTaskNotFailed
	}

	if err := s.store.Tasks.SetStatus(ctx, in.TaskID, releasetask.TaskStatusPending); err != nil {
		return err
	}
	s.events.PublishTaskStatusChanged(ctx, task.ReleaseID, in.TaskID, string(task.TaskType), string(releasetask.TaskStatusPending), s.clock.Now())
	if err := s.store.Builds.ResetFailedForTask(ctx, in.TaskID); err != nil {
		return err
	}

	job, err := s.store.CronJobs.FindByReleaseID(ctx, task.ReleaseID)
	if err != nil {
		return err
	}
	if job.PauseType != cronjob.PauseTypeTaskFailure {
		return nil
	}

	if err := s.store.Releases.UpdateStatus(ctx, task.ReleaseID, release.StatusInProgress); err != nil {
		return err
	}
	if err := s.store.CronJobs.Resume(ctx, job.ID); err != nil {
		return err
	}
	s.events.PublishReleaseResumed(ctx, task.ReleaseID, s.clock.Now())
	return nil
}

// ApproveTask implements the out-of-band manual-gate approval path
// pkg/executor's handleManualApproval defers to (spec.md §9 open
// question 3): REGRESSION_STAGE_APPROVAL and PRE_RELEASE_STAGE_APPROVAL
// only ever leave PENDING via this call, never via the executor's own
// dispatch, which only re-checks whether approval already happened.
func (s *Service) ApproveTask(ctx context.Context, taskID, accountID string) error {
	task, err := s.store.Tasks.FindByID(ctx, taskID)
	if err != nil {
		return err
	}
	if task.TaskType != releasetask.TaskTypeRegressionStageApproval && task.TaskType != releasetask.TaskTypePreReleaseStageApproval {
		return ErrNotApprovable
	}
	if task.TaskStatus == releasetask.TaskStatusCompleted {
		return nil
	}
	if task.TaskStatus != releasetask.TaskStatusPending {
		return ErrNotApprovable
	}

	if err := s.store.Tasks.SetAccountID(ctx, taskID, accountID); err != nil {
		return err
	}
	if err := s.store.Tasks.SetStatus(ctx, taskID, releasetask.TaskStatusCompleted); err != nil {
		return err
	}
	s.events.PublishTaskStatusChanged(ctx, task.ReleaseID, taskID, string(task.TaskType), string(releasetask.TaskStatusCompleted), s.clock.Now())
	return nil
}

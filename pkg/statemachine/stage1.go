package statemachine

import (
	"context"

	"github.com/dream-horizon/delivr/ent"
	"github.com/dream-horizon/delivr/ent/cronjob"
	"github.com/dream-horizon/delivr/ent/releasetask"
	"github.com/dream-horizon/delivr/pkg/clock"
	"github.com/dream-horizon/delivr/pkg/repositories"
)

// kickoffTaskOrder is the fixed sequence of Stage 1 task types (spec.md
// §4.D.2).
var kickoffTaskOrder = []releasetask.TaskType{
	releasetask.TaskTypePreKickOffReminder,
	releasetask.TaskTypeForkBranch,
	releasetask.TaskTypeCreateProjectManagementTicket,
	releasetask.TaskTypeCreateTestSuite,
	releasetask.TaskTypeTriggerPreRegressionBuilds,
}

// runStage1 seeds Stage 1's tasks on first entry, then advances the
// first eligible one per tick.
func (sm *StateMachine) runStage1(ctx context.Context, rel *ent.Release, job *ent.CronJob) error {
	tasks, err := sm.store.Tasks.FindByReleaseAndStage(ctx, rel.ID, releasetask.StageKickoff)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		if tasks, err = sm.seedStage1(ctx, rel, job); err != nil {
			return err
		}
	}

	complete, err := sm.runStageTasks(ctx, rel, job, nil, tasks, sm.stage1TimeGate(rel))
	if err != nil {
		return err
	}
	if !complete {
		return nil
	}

	if err := sm.store.CronJobs.SetStage1Status(ctx, job.ID, cronjob.Stage1StatusCompleted); err != nil {
		return err
	}
	job.Stage1Status = cronjob.Stage1StatusCompleted
	return sm.transitionFromStage1(ctx, rel, job)
}

// transitionFromStage1 applies spec.md §4.D.5's Stage 1 → Stage 2 rule,
// continuing into Stage 2 on the same tick when auto-transition is on.
func (sm *StateMachine) transitionFromStage1(ctx context.Context, rel *ent.Release, job *ent.CronJob) error {
	if !job.AutoTransitionToStage2 {
		return sm.pauseAwaitingStageTrigger(ctx, job)
	}
	if err := sm.store.CronJobs.SetStage2Status(ctx, job.ID, cronjob.Stage2StatusInProgress); err != nil {
		return err
	}
	job.Stage2Status = cronjob.Stage2StatusInProgress
	return sm.runStage2(ctx, rel, job)
}

// stage1TimeGate wraps PRE_KICK_OFF_REMINDER and FORK_BRANCH so they
// don't dispatch before their wall-clock slot opens (spec.md §4.D.2).
func (sm *StateMachine) stage1TimeGate(rel *ent.Release) timeGate {
	return func(task *ent.ReleaseTask) bool {
		now := sm.clock.Now()
		switch task.TaskType {
		case releasetask.TaskTypePreKickOffReminder:
			return clock.IsKickOffReminderTime(rel.KickOffDate, sm.reminderAhead, now, sm.window)
		case releasetask.TaskTypeForkBranch:
			return clock.IsBranchForkTime(rel.KickOffDate, now, sm.window)
		default:
			return true
		}
	}
}

// seedStage1 inserts the Stage 1 task rows, SKIPPED at creation time for
// any task type whose feature toggle is off (spec.md §4.D.1).
func (sm *StateMachine) seedStage1(ctx context.Context, rel *ent.Release, job *ent.CronJob) ([]*ent.ReleaseTask, error) {
	tasks := make([]*ent.ReleaseTask, 0, len(kickoffTaskOrder))
	for seq, tt := range kickoffTaskOrder {
		task, err := sm.store.Tasks.Create(ctx, repositories.CreateTaskInput{
			ReleaseID: rel.ID,
			TaskType:  tt,
			Stage:     releasetask.StageKickoff,
			Sequence:  seq,
		})
		if err != nil {
			return nil, err
		}
		if !sm.stage1TaskEnabled(job, tt) {
			if err := sm.store.Tasks.SetStatus(ctx, task.ID, releasetask.TaskStatusSkipped); err != nil {
				return nil, err
			}
			task.TaskStatus = releasetask.TaskStatusSkipped
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (sm *StateMachine) stage1TaskEnabled(job *ent.CronJob, tt releasetask.TaskType) bool {
	switch tt {
	case releasetask.TaskTypePreKickOffReminder:
		return toggleEnabled(job.CronConfig, toggleKickOffReminder)
	case releasetask.TaskTypeCreateProjectManagementTicket:
		return toggleEnabled(job.CronConfig, toggleProjectManagementTicket)
	case releasetask.TaskTypeCreateTestSuite:
		return toggleEnabled(job.CronConfig, toggleTestSuite)
	case releasetask.TaskTypeTriggerPreRegressionBuilds:
		return toggleEnabled(job.CronConfig, togglePreRegressionBuilds)
	default:
		// FORK_BRANCH is mandatory: the release branch must exist for
		// every subsequent stage to operate against.
		return true
	}
}

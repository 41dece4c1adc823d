package statemachine

import (
	"context"

	"github.com/dream-horizon/delivr/ent"
	"github.com/dream-horizon/delivr/ent/cronjob"
	"github.com/dream-horizon/delivr/ent/regressioncycle"
	"github.com/dream-horizon/delivr/ent/releasetask"
	"github.com/dream-horizon/delivr/pkg/clock"
	"github.com/dream-horizon/delivr/pkg/repositories"
)

// cycleTaskOrder is the fixed sequence of per-cycle Stage 2 task types.
// REGRESSION_STAGE_APPROVAL is not named by spec.md §4.D.3's cycle-driver
// description but is part of the task catalogue (§6) between
// CREATE_TEST_SUITE_RUN and CREATE_RELEASE_TAG, so it's placed at the end
// of a cycle's own task group, gated off by default like the other
// optional gates.
var cycleTaskOrder = []releasetask.TaskType{
	releasetask.TaskTypeTriggerRegressionBuilds,
	releasetask.TaskTypeCreateTestSuiteRun,
	releasetask.TaskTypeRegressionStageApproval,
}

// runStage2 drives the cycle-driver loop described in spec.md §4.D.3. It
// advances at most one cycle-lifecycle step per tick: create the next due
// cycle, run the in-progress cycle's tasks, close out a finished cycle,
// or complete Stage 2.
func (sm *StateMachine) runStage2(ctx context.Context, rel *ent.Release, job *ent.CronJob) error {
	latest, err := sm.store.Cycles.FindLatest(ctx, rel.ID)
	if err != nil && err != repositories.ErrNotFound {
		return err
	}
	if err == repositories.ErrNotFound {
		latest = nil
	}

	if latest != nil && latest.Status == regressioncycle.StatusInProgress {
		return sm.advanceCycle(ctx, rel, job, latest)
	}

	if len(job.UpcomingRegressions) == 0 {
		if err := sm.store.CronJobs.SetStage2Status(ctx, job.ID, cronjob.Stage2StatusCompleted); err != nil {
			return err
		}
		job.Stage2Status = cronjob.Stage2StatusCompleted
		return sm.transitionFromStage2(ctx, rel, job)
	}

	next := job.UpcomingRegressions[0]
	if !clock.IsRegressionSlotTime(next.SlotTime, sm.clock.Now(), sm.window) {
		return nil
	}
	return sm.startNextCycle(ctx, rel, job)
}

// startNextCycle pops the due slot, opens a new RegressionCycle, seeds
// its tasks, and runs the first one in the same tick.
func (sm *StateMachine) startNextCycle(ctx context.Context, rel *ent.Release, job *ent.CronJob) error {
	if _, ok, err := sm.store.CronJobs.PopNextRegressionSlot(ctx, job.ID); err != nil {
		return err
	} else if !ok {
		return nil
	}

	cycle, err := sm.store.Cycles.CreateNext(ctx, rel.ID)
	if err != nil {
		return err
	}
	if err := sm.store.Cycles.SetStatus(ctx, cycle.ID, regressioncycle.StatusInProgress); err != nil {
		return err
	}
	cycle.Status = regressioncycle.StatusInProgress

	if _, err := sm.seedCycleTasks(ctx, rel, job, cycle); err != nil {
		return err
	}
	return sm.advanceCycle(ctx, rel, job, cycle)
}

func (sm *StateMachine) seedCycleTasks(ctx context.Context, rel *ent.Release, job *ent.CronJob, cycle *ent.RegressionCycle) ([]*ent.ReleaseTask, error) {
	cycleID := cycle.ID
	tasks := make([]*ent.ReleaseTask, 0, len(cycleTaskOrder))
	for seq, tt := range cycleTaskOrder {
		task, err := sm.store.Tasks.Create(ctx, repositories.CreateTaskInput{
			ReleaseID:         rel.ID,
			RegressionCycleID: &cycleID,
			TaskType:          tt,
			Stage:             releasetask.StageRegression,
			Sequence:          seq,
		})
		if err != nil {
			return nil, err
		}

		enabled := true
		switch tt {
		case releasetask.TaskTypeTriggerRegressionBuilds:
			enabled = toggleEnabled(job.CronConfig, toggleAutomationBuilds)
		case releasetask.TaskTypeCreateTestSuiteRun:
			enabled = toggleEnabled(job.CronConfig, toggleAutomationRuns)
		case releasetask.TaskTypeRegressionStageApproval:
			enabled = toggleEnabled(job.CronConfig, toggleRegressionStageApproval)
		}
		if !enabled {
			if err := sm.store.Tasks.SetStatus(ctx, task.ID, releasetask.TaskStatusSkipped); err != nil {
				return nil, err
			}
			task.TaskStatus = releasetask.TaskStatusSkipped
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// advanceCycle runs the in-progress cycle's next eligible task, closing
// the cycle out to DONE when every task in it has settled.
func (sm *StateMachine) advanceCycle(ctx context.Context, rel *ent.Release, job *ent.CronJob, cycle *ent.RegressionCycle) error {
	tasks, err := sm.store.Tasks.FindByCycle(ctx, cycle.ID)
	if err != nil {
		return err
	}

	complete, err := sm.runStageTasks(ctx, rel, job, cycle, tasks, nil)
	if err != nil {
		return err
	}
	if !complete {
		return nil
	}
	return sm.store.Cycles.SetStatus(ctx, cycle.ID, regressioncycle.StatusDone)
}

// transitionFromStage2 applies spec.md §4.D.5's Stage 2 → Stage 3 rule.
// By the time this is called, Stage2Status is already COMPLETED, which
// structurally guarantees upcomingRegressions is empty and no cycle is
// IN_PROGRESS/NOT_STARTED (runStage2 only marks Stage 2 complete under
// those conditions) — the remaining gate is autoTransitionToStage3.
func (sm *StateMachine) transitionFromStage2(ctx context.Context, rel *ent.Release, job *ent.CronJob) error {
	if !job.AutoTransitionToStage3 {
		return sm.pauseAwaitingStageTrigger(ctx, job)
	}
	if err := sm.store.CronJobs.SetStage3Status(ctx, job.ID, cronjob.Stage3StatusInProgress); err != nil {
		return err
	}
	job.Stage3Status = cronjob.Stage3StatusInProgress
	return sm.runStage3(ctx, rel, job)
}

package statemachine

import (
	"context"
	"fmt"

	"github.com/dream-horizon/delivr/ent"
	"github.com/dream-horizon/delivr/ent/releasetask"
	"github.com/dream-horizon/delivr/pkg/executor"
)

// eligibleTasks. byPredecessors reports whether every task ordered before
// idx in tasks is COMPLETED or SKIPPED — the "predecessors done" gate
// spec.md §4.D.1 requires before a task may leave PENDING.
func predecessorsDone(tasks []*ent.ReleaseTask, idx int) bool {
	for i := 0; i < idx; i++ {
		s := tasks[i].TaskStatus
		if s != releasetask.TaskStatusCompleted && s != releasetask.TaskStatusSkipped {
			return false
		}
	}
	return true
}

// timeGate reports whether a task type with a wall-clock gate (spec.md
// §4.D.2) is due yet. Task types with no time gate are always due.
type timeGate func(task *ent.ReleaseTask) bool

// runStageTasks implements spec.md §4.D.1: select the first PENDING task
// in tasks (already ordered by sequence) whose predecessors are done and
// whose time gate (if any) has opened, run it through the executor, and
// persist the outcome. Returns (true, nil) when the stage has nothing
// left to do and every non-skipped task is COMPLETED.
func (sm *StateMachine) runStageTasks(ctx context.Context, rel *ent.Release, job *ent.CronJob, cycle *ent.RegressionCycle, tasks []*ent.ReleaseTask, due timeGate) (stageComplete bool, err error) {
	if len(tasks) == 0 {
		return false, nil
	}

	allDone := true
	for i, task := range tasks {
		switch task.TaskStatus {
		case releasetask.TaskStatusCompleted, releasetask.TaskStatusSkipped:
			continue
		case releasetask.TaskStatusFailed:
			// A failed task blocks the stage until retryTask re-arms it;
			// the release is already PAUSED(TASK_FAILURE) by the tick that
			// failed it, so this branch is only reached defensively.
			return false, nil
		default:
			allDone = false
		}

		if task.TaskStatus != releasetask.TaskStatusPending {
			// AWAITING_CALLBACK / AWAITING_MANUAL_BUILD / IN_PROGRESS: the
			// Callback Aggregator (or a stuck tick) owns this task; the
			// state machine does nothing more this tick.
			return false, nil
		}
		if !predecessorsDone(tasks, i) {
			return false, nil
		}
		if due != nil && !due(task) {
			return false, nil
		}

		return false, sm.dispatchTask(ctx, rel, job, cycle, task)
	}

	return allDone, nil
}

// dispatchTask runs one PENDING task through the Task Executor and
// persists the outcome per spec.md §4.D.1.
func (sm *StateMachine) dispatchTask(ctx context.Context, rel *ent.Release, job *ent.CronJob, cycle *ent.RegressionCycle, task *ent.ReleaseTask) error {
	if err := sm.store.Tasks.SetStatus(ctx, task.ID, releasetask.TaskStatusInProgress); err != nil {
		return err
	}

	result := sm.executor.Execute(ctx, executor.Input{Release: rel, Task: task, Cycle: cycle})

	if result.Err != nil {
		return sm.failTask(ctx, rel, job, task, result.Err)
	}
	if !result.Success {
		// Precondition not met yet (manual gate, unverified build): revert
		// to PENDING rather than stranding it IN_PROGRESS, so the next
		// tick re-selects and re-checks it. A manual gate only ever
		// leaves PENDING for good via an out-of-band approval that sets
		// task status to COMPLETED directly (pkg/services), which a
		// Pending-only dispatch loop will never observe as IN_PROGRESS.
		return sm.store.Tasks.SetStatus(ctx, task.ID, releasetask.TaskStatusPending)
	}

	if result.ExternalID != nil {
		if err := sm.store.Tasks.SetExternalID(ctx, task.ID, *result.ExternalID); err != nil {
			return err
		}
	}
	if result.ExternalData != nil {
		if err := sm.store.Tasks.SetExternalData(ctx, task.ID, result.ExternalData); err != nil {
			return err
		}
	}

	status := releasetask.TaskStatusCompleted
	switch result.Awaiting {
	case "":
		status = releasetask.TaskStatusCompleted
	case "callback":
		status = releasetask.TaskStatusAwaitingCallback
	case "manual_build":
		status = releasetask.TaskStatusAwaitingManualBuild
	default:
		return fmt.Errorf("statemachine: task %s: unknown awaiting marker %q", task.ID, result.Awaiting)
	}
	return sm.store.Tasks.SetStatus(ctx, task.ID, status)
}

// Package statemachine implements the per-release state machine
// (spec.md §4.D): the single procedure `Execute(releaseId)` a scheduler
// tick invokes to load a release, gate on pause/terminal status, and
// advance whichever stage is in progress (or decide the next stage
// transition).
package statemachine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dream-horizon/delivr/ent"
	"github.com/dream-horizon/delivr/ent/cronjob"
	"github.com/dream-horizon/delivr/ent/release"
	"github.com/dream-horizon/delivr/ent/releasetask"
	"github.com/dream-horizon/delivr/pkg/clock"
	"github.com/dream-horizon/delivr/pkg/events"
	"github.com/dream-horizon/delivr/pkg/executor"
	"github.com/dream-horizon/delivr/pkg/repositories"
)

// StateMachine drives one release's Kickoff/Regression/Pre-Release
// lifecycle. It holds no per-release state of its own — everything it
// reads and writes lives in the repository Store, so Execute is safe to
// call from any number of scheduler runners as long as the caller
// guarantees single-flight per release (spec.md §4.E/§5).
type StateMachine struct {
	store         *repositories.Store
	executor      *executor.Executor
	clock         clock.Clock
	events        *events.Publisher
	window        time.Duration
	reminderAhead time.Duration
}

// New builds a StateMachine. window is the slot-match tolerance (spec.md
// §9 open question 1); reminderAhead is how long before kickOffDate the
// PRE_KICK_OFF_REMINDER task fires. pub may be nil — every publish call
// is a safe no-op against a nil *events.Publisher.
func New(store *repositories.Store, exec *executor.Executor, clk clock.Clock, pub *events.Publisher, window, reminderAhead time.Duration) *StateMachine {
	return &StateMachine{store: store, executor: exec, clock: clk, events: pub, window: window, reminderAhead: reminderAhead}
}

// Execute is the tick entry point (spec.md §4.D). It never returns an
// error for a release-domain condition (pause, gating, provider
// failure) — those are persisted as state, not surfaced as Go errors.
// A returned error means the tick could not load the release/cron job
// or could not persist a state change, which the scheduler runner logs
// and treats as "retry next tick".
func (sm *StateMachine) Execute(ctx context.Context, releaseID string) error {
	rel, err := sm.store.Releases.FindByID(ctx, releaseID)
	if err != nil {
		return fmt.Errorf("statemachine: load release %s: %w", releaseID, err)
	}
	job, err := sm.store.CronJobs.FindByReleaseID(ctx, releaseID)
	if err != nil {
		return fmt.Errorf("statemachine: load cron job for release %s: %w", releaseID, err)
	}

	if rel.Status == release.StatusArchived || rel.Status == release.StatusCompleted {
		return nil
	}
	if job.PauseType != cronjob.PauseTypeNone {
		return nil
	}

	logger := slog.With("release_id", releaseID)

	switch {
	case job.Stage1Status == cronjob.Stage1StatusInProgress:
		return sm.runStage1(ctx, rel, job)
	case job.Stage2Status == cronjob.Stage2StatusInProgress:
		return sm.runStage2(ctx, rel, job)
	case job.Stage3Status == cronjob.Stage3StatusInProgress:
		return sm.runStage3(ctx, rel, job)
	default:
		logger.Debug("no stage in progress, deciding transition")
		return sm.decideTransition(ctx, rel, job)
	}
}

// failTask marks a task FAILED and pauses the release with TASK_FAILURE,
// the shared outcome of any stage-execution failure (spec.md §4.D.1).
func (sm *StateMachine) failTask(ctx context.Context, rel *ent.Release, job *ent.CronJob, task *ent.ReleaseTask, cause error) error {
	slog.Warn("task failed, pausing release", "release_id", rel.ID, "task_id", task.ID, "task_type", task.TaskType, "error", cause)
	if err := sm.store.Tasks.SetStatus(ctx, task.ID, releasetask.TaskStatusFailed); err != nil {
		return err
	}
	now := sm.clock.Now()
	sm.events.PublishTaskStatusChanged(ctx, rel.ID, task.ID, string(task.TaskType), string(releasetask.TaskStatusFailed), now)
	if err := sm.store.Releases.UpdateStatus(ctx, rel.ID, release.StatusPaused); err != nil {
		return err
	}
	if err := sm.store.CronJobs.Pause(ctx, job.ID, cronjob.PauseTypeTaskFailure, now); err != nil {
		return err
	}
	sm.events.PublishReleasePaused(ctx, rel.ID, string(cronjob.PauseTypeTaskFailure), now)
	return nil
}

func (sm *StateMachine) pauseAwaitingStageTrigger(ctx context.Context, job *ent.CronJob) error {
	return sm.store.CronJobs.Pause(ctx, job.ID, cronjob.PauseTypeAwaitingStageTrigger, sm.clock.Now())
}

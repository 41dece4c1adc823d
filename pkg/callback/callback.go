// Package callback implements the Build Callback Aggregator (spec.md
// §4.G): the component that finalizes a task once its Build rows have
// settled, and the manual upload intake path that feeds it for releases
// with hasManualBuildUpload=true.
package callback

import (
	"context"
	"fmt"

	"github.com/dream-horizon/delivr/ent"
	"github.com/dream-horizon/delivr/ent/build"
	"github.com/dream-horizon/delivr/ent/cronjob"
	"github.com/dream-horizon/delivr/ent/release"
	"github.com/dream-horizon/delivr/ent/releasetask"
	"github.com/dream-horizon/delivr/ent/releaseupload"
	"github.com/dream-horizon/delivr/pkg/clock"
	"github.com/dream-horizon/delivr/pkg/events"
	"github.com/dream-horizon/delivr/pkg/metrics"
	"github.com/dream-horizon/delivr/pkg/models"
	"github.com/dream-horizon/delivr/pkg/repositories"
)

// Aggregator implements processCallback and manual upload intake. It
// holds no state of its own — everything it reads and writes lives in
// the repository Store, same invariant as pkg/statemachine.StateMachine.
type Aggregator struct {
	store  *repositories.Store
	clock  clock.Clock
	events *events.Publisher
}

// New builds an Aggregator. pub may be nil — every publish call is a
// safe no-op against a nil *events.Publisher.
func New(store *repositories.Store, clk clock.Clock, pub *events.Publisher) *Aggregator {
	return &Aggregator{store: store, clock: clk, events: pub}
}

// ProcessCallback implements spec.md §4.G: load a task's builds, compute
// the aggregate taskBuildStatus, and act on it. A task already in a
// terminal status is left untouched — the write-last-wins rule (§5)
// reserves task-status transitions exclusively to this method, and a
// terminal task must never be reopened by a later poll.
func (a *Aggregator) ProcessCallback(ctx context.Context, taskID string) error {
	task, err := a.store.Tasks.FindByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("callback: load task %s: %w", taskID, err)
	}
	if models.TaskStatus(task.TaskStatus).IsTerminal() {
		return nil
	}

	builds, err := a.store.Builds.FindByTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("callback: load builds for task %s: %w", taskID, err)
	}

	switch aggregateBuildStatus(builds) {
	case models.TaskBuildComplete:
		if err := a.store.Tasks.SetStatus(ctx, taskID, releasetask.TaskStatusCompleted); err != nil {
			return err
		}
		a.events.PublishTaskStatusChanged(ctx, task.ReleaseID, taskID, string(task.TaskType), string(releasetask.TaskStatusCompleted), a.clock.Now())
		metrics.RecordCallback("completed")
		return nil
	case models.TaskBuildFailed:
		if err := a.failTask(ctx, task); err != nil {
			return err
		}
		a.events.PublishTaskStatusChanged(ctx, task.ReleaseID, taskID, string(task.TaskType), string(releasetask.TaskStatusFailed), a.clock.Now())
		metrics.RecordCallback("failed")
		return nil
	default:
		// NO_BUILDS / PENDING / RUNNING: still waiting for builds, no
		// task transition this pass.
		metrics.RecordCallback("pending")
		return nil
	}
}

func (a *Aggregator) failTask(ctx context.Context, task *ent.ReleaseTask) error {
	if err := a.store.Tasks.SetStatus(ctx, task.ID, releasetask.TaskStatusFailed); err != nil {
		return err
	}
	if err := a.store.Releases.UpdateStatus(ctx, task.ReleaseID, release.StatusPaused); err != nil {
		return err
	}
	job, err := a.store.CronJobs.FindByReleaseID(ctx, task.ReleaseID)
	if err != nil {
		return err
	}
	now := a.clock.Now()
	if err := a.store.CronJobs.Pause(ctx, job.ID, cronjob.PauseTypeTaskFailure, now); err != nil {
		return err
	}
	a.events.PublishReleasePaused(ctx, task.ReleaseID, string(cronjob.PauseTypeTaskFailure), now)
	return nil
}

// aggregateBuildStatus implements spec.md §4.G's precedence: FAILED beats
// PENDING beats RUNNING; COMPLETED only once every build is both
// workflow_status=COMPLETED and build_upload_status=UPLOADED.
func aggregateBuildStatus(builds []*ent.Build) models.TaskBuildStatus {
	if len(builds) == 0 {
		return models.TaskBuildNoBuilds
	}

	var anyFailed, anyPending, anyRunning, allUploaded bool
	allUploaded = true
	for _, b := range builds {
		switch b.WorkflowStatus {
		case build.WorkflowStatusFailed:
			anyFailed = true
		case build.WorkflowStatusPending:
			anyPending = true
		case build.WorkflowStatusRunning:
			anyRunning = true
		}
		if b.WorkflowStatus != build.WorkflowStatusCompleted || b.BuildUploadStatus != build.BuildUploadStatusUploaded {
			allUploaded = false
		}
	}

	switch {
	case anyFailed:
		return models.TaskBuildFailed
	case anyPending:
		return models.TaskBuildPending
	case anyRunning:
		return models.TaskBuildRunning
	case allUploaded:
		return models.TaskBuildComplete
	default:
		// Every build finished its CI/CD run but the artifact hasn't been
		// marked uploaded yet (manual mode waiting on intake).
		return models.TaskBuildPending
	}
}

func uploadPlatform(p models.Platform) releaseupload.Platform  { return releaseupload.Platform(p) }
func uploadStage(s models.UploadStage) releaseupload.Stage     { return releaseupload.Stage(s) }
func buildPlatform(p models.Platform) build.Platform           { return build.Platform(p) }

package statemachine

import (
	"context"

	"github.com/dream-horizon/delivr/ent"
	"github.com/dream-horizon/delivr/ent/cronjob"
	"github.com/dream-horizon/delivr/ent/platformtargetmapping"
	"github.com/dream-horizon/delivr/ent/release"
	"github.com/dream-horizon/delivr/ent/releasetask"
	"github.com/dream-horizon/delivr/pkg/repositories"
)

// preReleaseTaskOrder is the fixed sequence of Stage 3 task types
// (spec.md §4.D.4). PRE_RELEASE_STAGE_APPROVAL is this repo's addition
// (spec.md §9 open question 3, resolved in DESIGN.md), slotted before the
// platform-store-upload tasks it gates.
var preReleaseTaskOrder = []releasetask.TaskType{
	releasetask.TaskTypeCreateReleaseTag,
	releasetask.TaskTypePreReleaseStageApproval,
	releasetask.TaskTypeTriggerTestFlightBuild,
	releasetask.TaskTypeCreateAabBuild,
	releasetask.TaskTypeTestflightBuildVerified,
	releasetask.TaskTypePlatformStoreUploads,
	releasetask.TaskTypeAdHocNotification,
}

func (sm *StateMachine) runStage3(ctx context.Context, rel *ent.Release, job *ent.CronJob) error {
	tasks, err := sm.store.Tasks.FindByReleaseAndStage(ctx, rel.ID, releasetask.StagePostRegression)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		if tasks, err = sm.seedStage3(ctx, rel, job); err != nil {
			return err
		}
	}

	complete, err := sm.runStageTasks(ctx, rel, job, nil, tasks, nil)
	if err != nil {
		return err
	}
	if !complete {
		return nil
	}

	if err := sm.store.CronJobs.SetStage3Status(ctx, job.ID, cronjob.Stage3StatusCompleted); err != nil {
		return err
	}
	return sm.completeRelease(ctx, rel, job)
}

func (sm *StateMachine) seedStage3(ctx context.Context, rel *ent.Release, job *ent.CronJob) ([]*ent.ReleaseTask, error) {
	hasIOS, hasAndroid, err := sm.releasePlatforms(ctx, rel.ID)
	if err != nil {
		return nil, err
	}
	testFlightEnabled := hasIOS && toggleEnabled(job.CronConfig, toggleTestFlightBuilds)

	tasks := make([]*ent.ReleaseTask, 0, len(preReleaseTaskOrder))
	for seq, tt := range preReleaseTaskOrder {
		task, err := sm.store.Tasks.Create(ctx, repositories.CreateTaskInput{
			ReleaseID: rel.ID,
			TaskType:  tt,
			Stage:     releasetask.StagePostRegression,
			Sequence:  seq,
		})
		if err != nil {
			return nil, err
		}

		enabled := true
		switch tt {
		case releasetask.TaskTypePreReleaseStageApproval:
			enabled = toggleEnabled(job.CronConfig, togglePreReleaseStageApproval)
		case releasetask.TaskTypeTriggerTestFlightBuild:
			enabled = testFlightEnabled
		case releasetask.TaskTypeCreateAabBuild:
			enabled = hasAndroid
		case releasetask.TaskTypeTestflightBuildVerified:
			enabled = testFlightEnabled
		case releasetask.TaskTypePlatformStoreUploads:
			enabled = testFlightEnabled || hasAndroid
		case releasetask.TaskTypeAdHocNotification:
			enabled = toggleEnabled(job.CronConfig, toggleAdHocNotification)
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

// releasePlatforms reports whether a release's PlatformTargetMapping
// declares iOS and/or Android targets.
func (sm *StateMachine) releasePlatforms(ctx context.Context, releaseID string) (hasIOS, hasAndroid bool, err error) {
	mappings, err := sm.store.PlatformTargets.FindByRelease(ctx, releaseID)
	if err != nil {
		return false, false, err
	}
	for _, m := range mappings {
		switch m.Platform {
		case platformtargetmapping.PlatformIos:
			hasIOS = true
		case platformtargetmapping.PlatformAndroid:
			hasAndroid = true
		}
	}
	return hasIOS, hasAndroid, nil
}

// completeRelease finalizes a release once Stage 3 completes (spec.md
// §4.D.5): cron COMPLETED, release COMPLETED, release_date stamped.
func (sm *StateMachine) completeRelease(ctx context.Context, rel *ent.Release, job *ent.CronJob) error {
	if err := sm.store.CronJobs.SetCronStatus(ctx, job.ID, cronjob.CronStatusCompleted); err != nil {
		return err
	}
	if err := sm.store.Releases.SetReleaseDate(ctx, rel.ID, sm.clock.Now()); err != nil {
		return err
	}
	return sm.store.Releases.UpdateStatus(ctx, rel.ID, release.StatusCompleted)
}

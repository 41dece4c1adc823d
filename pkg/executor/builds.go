package executor

import (
	"context"
	"fmt"

	"github.com/dream-horizon/delivr/ent/build"
	"github.com/dream-horizon/delivr/ent/releasetask"
	"github.com/dream-horizon/delivr/pkg/models"
	"github.com/dream-horizon/delivr/pkg/providers"
	"github.com/dream-horizon/delivr/pkg/repositories"
)

// handleTriggerBuilds fans a build-launching task out into one Build row
// and one CICD.TriggerBuild call per target platform, then leaves the
// task AWAITING_CALLBACK (or AWAITING_MANUAL_BUILD when the release
// takes manual uploads) for the Build Callback Aggregator to resolve
// (spec.md §4.C asynchrony rule). Only a task with no platforms to build
// completes synchronously. The four task types registered against this handler
// (TRIGGER_PRE_REGRESSION_BUILDS, TRIGGER_REGRESSION_BUILDS,
// TRIGGER_TEST_FLIGHT_BUILD, CREATE_AAB_BUILD) differ only in which
// platforms they fan out to.
func handleTriggerBuilds(ctx context.Context, e *Executor, in Input) Result {
	platforms, err := buildPlatformsFor(ctx, e, in)
	if err != nil {
		return Result{Err: err}
	}
	if len(platforms) == 0 {
		return Result{Success: true}
	}

	if in.Release.HasManualBuildUpload {
		for _, p := range platforms {
			if _, err := e.store.Builds.Create(ctx, repositories.CreateBuildInput{
				ReleaseID: in.Release.ID,
				TaskID:    in.Task.ID,
				Platform:  p,
				BuildType: build.BuildTypeManual,
			}); err != nil {
				return Result{Err: err}
			}
		}
		return Result{Success: true, Awaiting: "manual_build"}
	}

	cicd, err := e.providers.CICD(providers.ProviderGitHubActions)
	if err != nil {
		return Result{Err: err}
	}
	ciRunType := build.CiRunTypeGithubActions

	for _, p := range platforms {
		b, err := e.store.Builds.Create(ctx, repositories.CreateBuildInput{
			ReleaseID: in.Release.ID,
			TaskID:    in.Task.ID,
			Platform:  p,
			BuildType: build.BuildTypeCicd,
			CIRunType: &ciRunType,
		})
		if err != nil {
			return Result{Err: err}
		}

		req := providers.BuildTriggerRequest{
			Branch:       in.Release.ReleaseBranch,
			Platform:     models.Platform(p),
			WorkflowName: workflowNameFor(in.Task.TaskType, p),
			Params:       map[string]string{"release_id": in.Release.ID, "build_id": b.ID},
		}

		var queue models.QueueStatusResult
		callErr := e.breaker.Call(providers.ProviderGitHubActions, func() error {
			res, err := cicd.TriggerBuild(ctx, req)
			queue = res
			return err
		})
		if callErr != nil {
			return Result{Err: callErr}
		}
		if queue.Location != "" {
			if err := e.store.Builds.SetQueueLocation(ctx, b.ID, queue.Location); err != nil {
				return Result{Err: err}
			}
		}
	}

	return Result{Success: true, Awaiting: "callback"}
}

// handleCreateTestSuiteRun creates a Checkmate test run scoped to the
// current regression cycle. Unlike CREATE_TEST_SUITE, a run is not
// idempotence-checked against external_id: each cycle always gets a
// fresh run. It completes synchronously on the TestMgmt call returning —
// there is no TestMgmt poller alongside the CICD pending/running pollers,
// so nothing would ever resolve an AWAITING_CALLBACK test run.
func handleCreateTestSuiteRun(ctx context.Context, e *Executor, in Input) Result {
	if in.Cycle == nil {
		return Result{Err: fmt.Errorf("executor: create_test_suite_run requires a regression cycle")}
	}

	tm, err := e.providers.TestMgmt(providers.ProviderCheckmate)
	if err != nil {
		return Result{Err: err}
	}

	suiteTask, err := e.store.Tasks.FindByReleaseAndType(ctx, in.Release.ID, releasetask.TaskTypeCreateTestSuite)
	if err != nil {
		return Result{Err: err}
	}
	suiteID, _ := alreadyHasExternalID(suiteTask)

	var runID string
	if err := e.breaker.Call(providers.ProviderCheckmate, func() error {
		id, err := tm.CreateTestRun(ctx, suiteID, fmt.Sprintf("cycle %d", in.Cycle.CycleTag))
		runID = id
		return err
	}); err != nil {
		return Result{Err: err}
	}
	return Result{Success: true, ExternalID: &runID}
}

// buildPlatformsFor resolves which platforms a build-launching task
// should fan out to: pre/regression builds cover every platform the
// release targets; TRIGGER_TEST_FLIGHT_BUILD is iOS-only and
// CREATE_AAB_BUILD is Android-only (spec.md §4.D.4).
func buildPlatformsFor(ctx context.Context, e *Executor, in Input) ([]build.Platform, error) {
	switch in.Task.TaskType {
	case releasetask.TaskTypeTriggerTestFlightBuild:
		return []build.Platform{build.PlatformIos}, nil
	case releasetask.TaskTypeCreateAabBuild:
		return []build.Platform{build.PlatformAndroid}, nil
	default:
		return requiredPlatforms(ctx, e, in.Release.ID)
	}
}

func workflowNameFor(taskType releasetask.TaskType, platform build.Platform) string {
	return fmt.Sprintf("%s-%s", taskType, platform)
}

// Package executor implements the Task Executor (spec.md §4.C): the
// component that turns one ReleaseTask into a concrete call against a
// provider capability, handling idempotence and asynchrony so the State
// Machine only ever sees {success, externalId?, externalData?, error?}.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dream-horizon/delivr/ent"
	"github.com/dream-horizon/delivr/ent/build"
	"github.com/dream-horizon/delivr/ent/releasetask"
	"github.com/dream-horizon/delivr/pkg/metrics"
	"github.com/dream-horizon/delivr/pkg/providers"
	"github.com/dream-horizon/delivr/pkg/repositories"
)

// Input bundles everything a task handler needs. Cycle is nil outside
// Stage 2.
type Input struct {
	Release *ent.Release
	Task    *ent.ReleaseTask
	Cycle   *ent.RegressionCycle
}

// Result is the Task Executor's public contract (spec.md §4.C).
// {Success: false, Err: nil} means the task's precondition isn't met yet
// (a manual approval or build verification still pending) — the state
// machine leaves the task as-is for the next tick. {Err: non-nil} is a
// hard failure: the state machine fails the task and pauses the release.
type Result struct {
	Success      bool
	ExternalID   *string
	ExternalData map[string]any
	// Awaiting is non-empty when a successful result did not complete the
	// task synchronously: "callback" (CICD build triggered, the Build
	// Callback Aggregator resolves it later) or "manual_build" (release
	// takes manual uploads). Empty means the task completed outright.
	Awaiting string
	Err      error
}

// handlerFunc executes one task type against the provider registry and
// repository store.
type handlerFunc func(ctx context.Context, e *Executor, in Input) Result

// Executor dispatches a ReleaseTask to the handler registered for its
// task type — a static table, not dispatch-by-string (spec.md §9
// REDESIGN FLAGS).
type Executor struct {
	store     *repositories.Store
	providers *providers.Registry
	breaker   *providers.BreakerManager
	handlers  map[releasetask.TaskType]handlerFunc
}

// New builds an Executor with every task type's handler registered.
func New(store *repositories.Store, registry *providers.Registry, breaker *providers.BreakerManager) *Executor {
	e := &Executor{store: store, providers: registry, breaker: breaker}
	e.handlers = map[releasetask.TaskType]handlerFunc{
		releasetask.TaskTypePreKickOffReminder:            handlePreKickOffReminder,
		releasetask.TaskTypeForkBranch:                    handleForkBranch,
		releasetask.TaskTypeCreateProjectManagementTicket: handleCreateProjectManagementTicket,
		releasetask.TaskTypeCreateTestSuite:                handleCreateTestSuite,
		releasetask.TaskTypeTriggerPreRegressionBuilds:     handleTriggerBuilds,
		releasetask.TaskTypeTriggerRegressionBuilds:        handleTriggerBuilds,
		releasetask.TaskTypeCreateTestSuiteRun:             handleCreateTestSuiteRun,
		releasetask.TaskTypeRegressionStageApproval:        handleManualApproval,
		releasetask.TaskTypeCreateReleaseTag:               handleCreateReleaseTag,
		releasetask.TaskTypeTriggerTestFlightBuild:         handleTriggerBuilds,
		releasetask.TaskTypeCreateAabBuild:                 handleTriggerBuilds,
		releasetask.TaskTypeTestflightBuildVerified:        handleTestflightBuildVerified,
		releasetask.TaskTypePreReleaseStageApproval:        handleManualApproval,
		releasetask.TaskTypePlatformStoreUploads:           handlePlatformStoreUploads,
		releasetask.TaskTypeAdHocNotification:              handleAdHocNotification,
	}
	return e
}

// Execute dispatches in to the handler registered for its task's type.
// An unregistered task type is a programmer error (every TaskType has a
// handler above) and surfaces as a failed result rather than a panic.
func (e *Executor) Execute(ctx context.Context, in Input) Result {
	logger := slog.With("release_id", in.Release.ID, "task_id", in.Task.ID, "task_type", in.Task.TaskType)

	handler, ok := e.handlers[in.Task.TaskType]
	if !ok {
		return Result{Err: fmt.Errorf("executor: no handler registered for task type %s", in.Task.TaskType)}
	}

	start := time.Now()
	result := handler(ctx, e, in)
	taskType := string(in.Task.TaskType)

	switch {
	case result.Err != nil:
		logger.Warn("task execution failed", "error", result.Err)
		metrics.RecordTaskExecution(taskType, "error", time.Since(start))
	case result.Success:
		logger.Info("task executed", "success", result.Success)
		metrics.RecordTaskExecution(taskType, "success", time.Since(start))
	default:
		logger.Info("task executed", "success", result.Success)
		metrics.RecordTaskExecution(taskType, "pending", time.Since(start))
	}
	return result
}

// alreadyHasExternalID reports whether a task's idempotence key is
// already set, the guard handlers for CREATE_PROJECT_MANAGEMENT_TICKET,
// CREATE_TEST_SUITE, and CREATE_RELEASE_TAG check before issuing a
// provider call (spec.md §4.C).
func alreadyHasExternalID(task *ent.ReleaseTask) (string, bool) {
	if task.ExternalID == nil || *task.ExternalID == "" {
		return "", false
	}
	return *task.ExternalID, true
}

// requiredPlatforms returns the platforms a release's PlatformTargetMapping
// declares, used to fan a build task out per platform.
func requiredPlatforms(ctx context.Context, e *Executor, releaseID string) ([]build.Platform, error) {
	mappings, err := e.store.PlatformTargets.FindByRelease(ctx, releaseID)
	if err != nil {
		return nil, err
	}
	platforms := make([]build.Platform, 0, len(mappings))
	for _, m := range mappings {
		platforms = append(platforms, build.Platform(m.Platform))
	}
	return platforms, nil
}

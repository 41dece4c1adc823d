package executor

import (
	"context"
	"fmt"

	"github.com/dream-horizon/delivr/ent"
	"github.com/dream-horizon/delivr/ent/build"
	"github.com/dream-horizon/delivr/ent/releasetask"
	"github.com/dream-horizon/delivr/pkg/models"
	"github.com/dream-horizon/delivr/pkg/providers"
)

// handleCreateReleaseTag is idempotent on external_id: a retried tag task
// reuses the tag it already cut rather than cutting a second one.
func handleCreateReleaseTag(ctx context.Context, e *Executor, in Input) Result {
	if id, ok := alreadyHasExternalID(in.Task); ok {
		return Result{Success: true, ExternalID: &id}
	}

	mappings, err := e.store.PlatformTargets.FindByRelease(ctx, in.Release.ID)
	if err != nil {
		return Result{Err: err}
	}
	tag := fmt.Sprintf("%s_%s", in.Release.ReleaseBranch, generatePlatformVersionString(mappings))

	scm, err := e.providers.SCM(providers.ProviderGitHubActions)
	if err != nil {
		return Result{Err: err}
	}
	if err := e.breaker.Call(providers.ProviderGitHubActions, func() error {
		return scm.CreateTag(ctx, in.Release.ReleaseBranch, tag)
	}); err != nil {
		return Result{Err: err}
	}
	return Result{Success: true, ExternalID: &tag}
}

// handleTestflightBuildVerified checks whether the iOS TestFlight build
// has cleared provider-side review. Not verified yet is not a failure —
// it leaves the task for the next tick (see Result's doc comment).
func handleTestflightBuildVerified(ctx context.Context, e *Executor, in Input) Result {
	mappings, err := e.store.PlatformTargets.FindByRelease(ctx, in.Release.ID)
	if err != nil {
		return Result{Err: err}
	}
	version := generatePlatformVersionString(mappings)

	store, err := e.providers.Store(providers.ProviderAppStore)
	if err != nil {
		return Result{Err: err}
	}

	var verified bool
	if err := e.breaker.Call(providers.ProviderAppStore, func() error {
		v, err := store.VerifyBuild(ctx, models.PlatformIOS, version)
		verified = v
		return err
	}); err != nil {
		return Result{Err: err}
	}
	return Result{Success: verified}
}

// handleManualApproval covers REGRESSION_STAGE_APPROVAL and
// PRE_RELEASE_STAGE_APPROVAL: both are human gates the Service API's
// ApproveTask flips to COMPLETED out of band. The executor's
// own pass over an approval task only re-checks whether that already
// happened; it never auto-approves.
func handleManualApproval(ctx context.Context, e *Executor, in Input) Result {
	return Result{Success: in.Task.TaskStatus == releasetask.TaskStatusCompleted}
}

// storeUploadTargets pairs each store-bound platform with the earlier
// Stage 3 task that fanned its build out, so PLATFORM_STORE_UPLOADS can
// find the artifact TESTFLIGHT_BUILD_VERIFIED just cleared.
var storeUploadTargets = []struct {
	platform build.Platform
	taskType releasetask.TaskType
	provider providers.ProviderType
	target   models.Target
}{
	{build.PlatformIos, releasetask.TaskTypeTriggerTestFlightBuild, providers.ProviderAppStore, models.TargetAppStore},
	{build.PlatformAndroid, releasetask.TaskTypeCreateAabBuild, providers.ProviderPlayStore, models.TargetPlayStore},
}

// handlePlatformStoreUploads submits each verified platform build for
// release on its store (spec.md §4.D.4's "platform store uploads" step,
// slotted after TESTFLIGHT_BUILD_VERIFIED). It reuses the same
// Store.UploadBuild capability the running poller already called once to
// stage the build on upload; here it publishes the build the operator
// just approved. Not idempotent on external_id like CREATE_RELEASE_TAG —
// a retry simply resubmits, the same tradeoff handleForkBranch documents
// for calls with no separate id to key off of.
func handlePlatformStoreUploads(ctx context.Context, e *Executor, in Input) Result {
	mappings, err := e.store.PlatformTargets.FindByRelease(ctx, in.Release.ID)
	if err != nil {
		return Result{Err: err}
	}
	version := generatePlatformVersionString(mappings)

	for _, t := range storeUploadTargets {
		if !releaseHasPlatform(mappings, t.platform) {
			continue
		}

		buildTask, err := e.store.Tasks.FindByReleaseAndType(ctx, in.Release.ID, t.taskType)
		if err != nil {
			return Result{Err: err}
		}
		if buildTask.TaskStatus == releasetask.TaskStatusSkipped {
			continue // e.g. testFlightBuilds disabled: no build was ever triggered for this platform
		}
		b, err := e.store.Builds.FindByTaskAndPlatform(ctx, buildTask.ID, t.platform)
		if err != nil {
			return Result{Err: err}
		}
		if b.WorkflowStatus != build.WorkflowStatusCompleted || b.ArtifactPath == nil {
			return Result{Success: false}
		}

		storeProvider, err := e.providers.Store(t.provider)
		if err != nil {
			return Result{Err: err}
		}
		artifactPath := *b.ArtifactPath
		if err := e.breaker.Call(t.provider, func() error {
			return storeProvider.UploadBuild(ctx, providers.UploadRequest{
				Platform:     models.Platform(t.platform),
				Target:       t.target,
				Version:      version,
				ArtifactPath: artifactPath,
			})
		}); err != nil {
			return Result{Err: err}
		}
	}
	return Result{Success: true}
}

func releaseHasPlatform(mappings []*ent.PlatformTargetMapping, platform build.Platform) bool {
	for _, m := range mappings {
		if string(m.Platform) == string(platform) {
			return true
		}
	}
	return false
}

// handleAdHocNotification sends a free-form message configured on the
// task's external_data and always completes synchronously.
func handleAdHocNotification(ctx context.Context, e *Executor, in Input) Result {
	notifier, err := e.providers.Notification(providers.ProviderSlack)
	if err != nil {
		return Result{Err: err}
	}

	message := "Release update"
	if in.Task.ExternalData != nil {
		if m, ok := in.Task.ExternalData["message"].(string); ok && m != "" {
			message = m
		}
	}

	if err := e.breaker.Call(providers.ProviderSlack, func() error {
		return notifier.Send(ctx, defaultChannels(in.Release), message)
	}); err != nil {
		return Result{Err: err}
	}
	return Result{Success: true}
}

package polling

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/dream-horizon/delivr/ent"
	"github.com/dream-horizon/delivr/ent/build"
	"github.com/dream-horizon/delivr/pkg/models"
	"github.com/dream-horizon/delivr/pkg/providers"
)

var (
	errMissingQueueLocation = errors.New("polling: pending build has no queue_location")
	errMissingRunID         = errors.New("polling: queue status reports started with no run id")
	errMissingCIRunID       = errors.New("polling: running build has no ci_run_id")
	errMissingArtifactPath  = errors.New("polling: completed build reports no artifact_path")
)

// pollRunning scans every CI/CD build a provider reports as started and
// checks whether it has finished (spec.md §4.F's running poller).
func (p *Poller) pollRunning(ctx context.Context) error {
	builds, err := p.store.Builds.FindCICDByWorkflowStatus(ctx, build.WorkflowStatusRunning)
	if err != nil {
		return err
	}

	changedTasks := make(map[string]struct{})
	for _, b := range builds {
		changed, err := p.pollOneRunning(ctx, b)
		if err != nil {
			slog.Warn("polling: running check failed for build", "build_id", b.ID, "error", err)
		}
		if changed {
			changedTasks[b.TaskID] = struct{}{}
		}
	}

	return invokeCallbacks(ctx, p.callback, changedTasks)
}

func (p *Poller) pollOneRunning(ctx context.Context, b *build.Build) (changed bool, err error) {
	if b.CiRunID == nil || *b.CiRunID == "" {
		return false, errMissingCIRunID
	}

	cicd, providerType, err := p.cicdFor(b)
	if err != nil {
		return false, err
	}

	callCtx, cancel := p.callTimeout(ctx)
	defer cancel()

	var result models.BuildStatusResult
	callErr := p.breaker.CallContext(callCtx, providerType, func(c context.Context) error {
		res, err := cicd.GetBuildStatus(c, *b.CiRunID)
		result = res
		return err
	})
	if callErr != nil {
		return false, callErr
	}

	switch result.Status {
	case models.WorkflowRunning:
		return false, nil
	case models.WorkflowCompleted:
		if result.ArtifactPath == "" {
			if err := p.store.Builds.SetWorkflowStatus(ctx, b.ID, build.WorkflowStatusFailed); err != nil {
				return false, err
			}
			if err := p.store.Builds.SetBuildUploadStatus(ctx, b.ID, build.BuildUploadStatusFailed); err != nil {
				return false, err
			}
			return true, errMissingArtifactPath
		}
		if err := p.store.Builds.SetArtifactPath(ctx, b.ID, result.ArtifactPath); err != nil {
			return false, err
		}
		// Upload before flipping workflow_status to completed: this build
		// falls out of the running scan the moment it does, so a failed
		// upload here must still leave it retryable next tick rather than
		// stranding it.
		if err := p.uploadToStore(ctx, b, result.ArtifactPath); err != nil {
			return false, err
		}
		if err := p.store.Builds.SetWorkflowStatus(ctx, b.ID, build.WorkflowStatusCompleted); err != nil {
			return false, err
		}
		return true, nil
	case models.WorkflowFailed:
		if err := p.store.Builds.SetWorkflowStatus(ctx, b.ID, build.WorkflowStatusFailed); err != nil {
			return false, err
		}
		if err := p.store.Builds.SetBuildUploadStatus(ctx, b.ID, build.BuildUploadStatusFailed); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, nil
	}
}

// uploadToStore hands a just-finished build's artifact to the platform
// store so build_upload_status can reach UPLOADED — the precondition
// aggregateBuildStatus requires alongside workflow_status=COMPLETED
// before a build-triggering task completes (spec.md §4.G). Platforms
// with no store target (web) have nothing to upload to and are marked
// uploaded immediately.
func (p *Poller) uploadToStore(ctx context.Context, b *build.Build, artifactPath string) error {
	providerType, target, ok := storeTargetFor(b.Platform)
	if !ok {
		return p.store.Builds.SetBuildUploadStatus(ctx, b.ID, build.BuildUploadStatusUploaded)
	}

	storeClient, err := p.registry.Store(providerType)
	if err != nil {
		return err
	}

	mappings, err := p.store.PlatformTargets.FindByRelease(ctx, b.ReleaseID)
	if err != nil {
		return err
	}

	callCtx, cancel := p.callTimeout(ctx)
	defer cancel()

	uploadErr := p.breaker.CallContext(callCtx, providerType, func(c context.Context) error {
		return storeClient.UploadBuild(c, providers.UploadRequest{
			Platform:     models.Platform(b.Platform),
			Target:       target,
			Version:      platformVersionString(mappings),
			ArtifactPath: artifactPath,
		})
	})
	if uploadErr != nil {
		if err := p.store.Builds.SetBuildUploadStatus(ctx, b.ID, build.BuildUploadStatusFailed); err != nil {
			return err
		}
		return uploadErr
	}
	return p.store.Builds.SetBuildUploadStatus(ctx, b.ID, build.BuildUploadStatusUploaded)
}

// storeTargetFor maps a build's platform to the store provider and
// distribution target it uploads to. Web builds have no store target.
func storeTargetFor(p build.Platform) (providers.ProviderType, models.Target, bool) {
	switch p {
	case build.PlatformIos:
		return providers.ProviderAppStore, models.TargetAppStore, true
	case build.PlatformAndroid:
		return providers.ProviderPlayStore, models.TargetPlayStore, true
	default:
		return "", "", false
	}
}

// platformVersionString mirrors pkg/executor's generatePlatformVersionString
// (release tags and store uploads share the same combined-version format,
// spec.md §4.C): each platform's mapping rendered "version_platform",
// sorted by platform and joined with "_".
func platformVersionString(mappings []*ent.PlatformTargetMapping) string {
	if len(mappings) == 0 {
		return "unknown"
	}

	parts := make([]string, 0, len(mappings))
	for _, m := range mappings {
		parts = append(parts, string(m.Platform)+"\x00"+m.Version)
	}
	sort.Strings(parts)

	segments := make([]string, 0, len(mappings))
	for _, part := range parts {
		split := strings.SplitN(part, "\x00", 2)
		segments = append(segments, split[1]+"_"+split[0])
	}
	return strings.Join(segments, "_")
}

// invokeCallbacks runs the Build Callback Aggregator once per distinct
// task whose builds changed status this pass (spec.md §4.F).
func invokeCallbacks(ctx context.Context, cb CallbackInvoker, taskIDs map[string]struct{}) error {
	var firstErr error
	for taskID := range taskIDs {
		if err := cb.ProcessCallback(ctx, taskID); err != nil {
			slog.Error("polling: callback aggregation failed", "task_id", taskID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

package callback

import (
	"context"
	"fmt"

	"github.com/dream-horizon/delivr/ent/build"
	"github.com/dream-horizon/delivr/ent/releaseupload"
	"github.com/dream-horizon/delivr/pkg/models"
	"github.com/dream-horizon/delivr/pkg/repositories"
)

// IntakeManualUpload implements spec.md §4.G's manual upload intake: an
// operator-facing endpoint stages an artifact for (releaseId, platform,
// stage); once every platform the release's PlatformTargetMapping
// requires has a staged upload, the corresponding Build rows are marked
// done and the waiting task's callback fires.
func (a *Aggregator) IntakeManualUpload(ctx context.Context, in models.ManualUploadInput) error {
	if _, err := a.store.Uploads.Upsert(ctx, repositories.UpsertInput{
		TenantID:     in.TenantID,
		ReleaseID:    in.ReleaseID,
		Platform:     uploadPlatform(in.Platform),
		Stage:        uploadStage(in.Stage),
		ArtifactPath: in.ArtifactPath,
	}); err != nil {
		return fmt.Errorf("callback: stage upload: %w", err)
	}

	task, err := a.store.Tasks.FindAwaitingManualBuild(ctx, in.ReleaseID)
	if err != nil {
		if err == repositories.ErrNotFound {
			// No task is currently waiting on a manual build; the upload
			// stays staged for whenever one starts waiting on it.
			return nil
		}
		return fmt.Errorf("callback: find awaiting-manual-build task: %w", err)
	}

	mappings, err := a.store.PlatformTargets.FindByRelease(ctx, in.ReleaseID)
	if err != nil {
		return fmt.Errorf("callback: load platform targets for release %s: %w", in.ReleaseID, err)
	}
	required := make([]releaseupload.Platform, 0, len(mappings))
	for _, m := range mappings {
		required = append(required, releaseupload.Platform(m.Platform))
	}

	ready, err := a.store.Uploads.CheckAllPlatformsReady(ctx, in.ReleaseID, uploadStage(in.Stage), required)
	if err != nil {
		return fmt.Errorf("callback: check upload readiness: %w", err)
	}
	if !ready {
		return nil
	}

	for _, m := range mappings {
		if err := a.completeManualBuild(ctx, task.ID, in.ReleaseID, models.Platform(m.Platform), in.Stage); err != nil {
			return err
		}
	}

	return a.ProcessCallback(ctx, task.ID)
}

// completeManualBuild marks one platform's Build row done from its
// staged ReleaseUpload, and flags that upload consumed.
func (a *Aggregator) completeManualBuild(ctx context.Context, taskID, releaseID string, platform models.Platform, stage models.UploadStage) error {
	b, err := a.store.Builds.FindByTaskAndPlatform(ctx, taskID, buildPlatform(platform))
	if err != nil {
		return fmt.Errorf("callback: find build for task %s platform %s: %w", taskID, platform, err)
	}

	upload, err := a.store.Uploads.FindByReleasePlatformStage(ctx, releaseID, uploadPlatform(platform), uploadStage(stage))
	if err != nil {
		return fmt.Errorf("callback: find staged upload for release %s platform %s: %w", releaseID, platform, err)
	}

	if err := a.store.Builds.SetArtifactPath(ctx, b.ID, upload.ArtifactPath); err != nil {
		return err
	}
	if err := a.store.Builds.SetWorkflowStatus(ctx, b.ID, build.WorkflowStatusCompleted); err != nil {
		return err
	}
	if err := a.store.Builds.SetBuildUploadStatus(ctx, b.ID, build.BuildUploadStatusUploaded); err != nil {
		return err
	}
	return a.store.Uploads.MarkUsed(ctx, upload.ID)
}

package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dream-horizon/delivr/ent"
	"github.com/dream-horizon/delivr/ent/build"
)

// BuildRepository wraps ent queries against the Build entity.
type BuildRepository struct {
	client *ent.Client
}

// NewBuildRepository builds a BuildRepository.
func NewBuildRepository(client *ent.Client) *BuildRepository {
	return &BuildRepository{client: client}
}

// CreateBuildInput is the input to Create.
type CreateBuildInput struct {
	ReleaseID     string
	TaskID        string
	Platform      build.Platform
	BuildType     build.BuildType
	CIRunType     *build.CiRunType
	QueueLocation *string
}

// Create inserts a pending Build row for one platform of a task's fan-out
// (spec.md §4.C).
func (r *BuildRepository) Create(ctx context.Context, in CreateBuildInput) (*ent.Build, error) {
	builder := r.client.Build.Create().
		SetID(uuid.New().String()).
		SetReleaseID(in.ReleaseID).
		SetTaskID(in.TaskID).
		SetPlatform(in.Platform).
		SetBuildType(in.BuildType)

	if in.CIRunType != nil {
		builder.SetCiRunType(*in.CIRunType)
	}
	if in.QueueLocation != nil {
		builder.SetQueueLocation(*in.QueueLocation)
	}

	b, err := builder.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("repositories: create build for task %s: %w", in.TaskID, err)
	}
	return b, nil
}

// FindByTask lists every Build row fanned out from a task.
func (r *BuildRepository) FindByTask(ctx context.Context, taskID string) ([]*ent.Build, error) {
	builds, err := r.client.Build.Query().Where(build.TaskIDEQ(taskID)).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("repositories: find builds for task %s: %w", taskID, err)
	}
	return builds, nil
}

// FindByTaskAndPlatform looks up the single Build row fanned out for one
// platform of a task — the manual upload intake flow's anchor point
// (spec.md §4.G), since a manual-mode task has exactly one Build row per
// required platform created at dispatch time.
func (r *BuildRepository) FindByTaskAndPlatform(ctx context.Context, taskID string, platform build.Platform) (*ent.Build, error) {
	b, err := r.client.Build.Query().
		Where(build.TaskIDEQ(taskID), build.PlatformEQ(platform)).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repositories: find build for task %s platform %s: %w", taskID, platform, err)
	}
	return b, nil
}

// FindCICDByReleaseAndWorkflowStatus lists one release's CI/CD builds
// matching a workflow status. The pending/running pollers do not use it;
// they scan every release through FindCICDByWorkflowStatus.
func (r *BuildRepository) FindCICDByReleaseAndWorkflowStatus(ctx context.Context, releaseID string, status build.WorkflowStatus) ([]*ent.Build, error) {
	builds, err := r.client.Build.Query().
		Where(
			build.ReleaseIDEQ(releaseID),
			build.BuildTypeEQ(build.BuildTypeCicd),
			build.WorkflowStatusEQ(status),
		).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("repositories: find cicd builds for release %s status %s: %w", releaseID, status, err)
	}
	return builds, nil
}

// FindCICDByWorkflowStatus lists every CI/CD build across all releases
// matching a workflow status — the global scan the pending/running
// pollers run each tick, independent of any one release or tenant.
func (r *BuildRepository) FindCICDByWorkflowStatus(ctx context.Context, status build.WorkflowStatus) ([]*ent.Build, error) {
	builds, err := r.client.Build.Query().
		Where(
			build.BuildTypeEQ(build.BuildTypeCicd),
			build.WorkflowStatusEQ(status),
		).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("repositories: find cicd builds by status %s: %w", status, err)
	}
	return builds, nil
}

// SetQueueLocation records the provider's poll URL for a just-triggered
// build, the address the pending poller checks each tick.
func (r *BuildRepository) SetQueueLocation(ctx context.Context, id, location string) error {
	n, err := r.client.Build.Update().
		Where(build.IDEQ(id)).
		SetQueueLocation(location).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("repositories: set build %s queue location: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRunID records the provider-assigned run ID once a queued build
// starts, advancing workflow_status to running.
func (r *BuildRepository) SetRunID(ctx context.Context, id, runID string) error {
	n, err := r.client.Build.Update().
		Where(build.IDEQ(id)).
		SetCiRunID(runID).
		SetWorkflowStatus(build.WorkflowStatusRunning).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("repositories: set build %s run id: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetWorkflowStatus transitions workflow_status.
func (r *BuildRepository) SetWorkflowStatus(ctx context.Context, id string, status build.WorkflowStatus) error {
	n, err := r.client.Build.Update().
		Where(build.IDEQ(id)).
		SetWorkflowStatus(status).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("repositories: set build %s workflow status: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetArtifactPath records the artifact a completed build produced.
func (r *BuildRepository) SetArtifactPath(ctx context.Context, id, path string) error {
	n, err := r.client.Build.Update().
		Where(build.IDEQ(id)).
		SetArtifactPath(path).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("repositories: set build %s artifact path: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetBuildUploadStatus transitions build_upload_status once the store
// provider accepts or rejects the artifact.
func (r *BuildRepository) SetBuildUploadStatus(ctx context.Context, id string, status build.BuildUploadStatus) error {
	n, err := r.client.Build.Update().
		Where(build.IDEQ(id)).
		SetBuildUploadStatus(status).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("repositories: set build %s upload status: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetFailedForTask resets every failed Build row under a task back to
// pending (clearing run identifiers), giving retryTask a clean slate to
// re-trigger from (spec.md §4.A resetFailedBuildsForTask).
func (r *BuildRepository) ResetFailedForTask(ctx context.Context, taskID string) error {
	_, err := r.client.Build.Update().
		Where(build.TaskIDEQ(taskID), build.WorkflowStatusEQ(build.WorkflowStatusFailed)).
		SetWorkflowStatus(build.WorkflowStatusPending).
		ClearCiRunID().
		ClearQueueLocation().
		ClearArtifactPath().
		Save(ctx)
	if err != nil {
		return fmt.Errorf("repositories: reset failed builds for task %s: %w", taskID, err)
	}
	return nil
}

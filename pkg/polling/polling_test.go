package polling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dream-horizon/delivr/ent/build"
	"github.com/dream-horizon/delivr/ent/release"
	"github.com/dream-horizon/delivr/internal/dbtest"
	"github.com/dream-horizon/delivr/pkg/config"
	"github.com/dream-horizon/delivr/pkg/models"
	"github.com/dream-horizon/delivr/pkg/providers"
	"github.com/dream-horizon/delivr/pkg/providers/providerstest"
	"github.com/dream-horizon/delivr/pkg/repositories"
)

// fakeCallbackInvoker records every taskID ProcessCallback was called
// with, standing in for pkg/callback.Aggregator.
type fakeCallbackInvoker struct {
	calls []string
}

func (f *fakeCallbackInvoker) ProcessCallback(ctx context.Context, taskID string) error {
	f.calls = append(f.calls, taskID)
	return nil
}

func newTestPoller(t *testing.T, cicd *providerstest.FakeCICD, cb CallbackInvoker) (*Poller, *repositories.Store, *providerstest.FakeStore) {
	t.Helper()
	client := dbtest.NewClient(t)
	store := repositories.NewStore(client.Client)

	storeProvider := &providerstest.FakeStore{}
	registry := providers.NewRegistry()
	registry.RegisterCICD(providers.ProviderGitHubActions, cicd)
	registry.RegisterStore(providers.ProviderAppStore, storeProvider)
	registry.RegisterStore(providers.ProviderPlayStore, storeProvider)
	breaker := providers.NewBreakerManager()

	cfg := config.PollingConfig{
		PendingPollInterval: time.Hour,
		RunningPollInterval: time.Hour,
		StatusCallTimeout:   2 * time.Second,
	}
	return New(store, registry, breaker, cb, cfg), store, storeProvider
}

func setupCICDBuild(t *testing.T, store *repositories.Store, tenantID string, workflowStatus build.WorkflowStatus) (taskID, buildID string) {
	t.Helper()
	ctx := t.Context()

	rel, err := store.Releases.Create(ctx, repositories.CreateReleaseInput{
		TenantID: tenantID, ReleaseBranch: "release/poll-test", BaseBranch: "main",
		Type: release.TypeMinor, KickOffDate: time.Now().UTC(), CreatedBy: "operator@example.com",
	})
	require.NoError(t, err)

	task, err := store.Tasks.Create(ctx, repositories.CreateTaskInput{
		ReleaseID: rel.ID, TaskType: "trigger_regression_builds", Stage: "regression", Sequence: 1,
	})
	require.NoError(t, err)

	ciRunType := build.CiRunTypeGithubActions
	b, err := store.Builds.Create(ctx, repositories.CreateBuildInput{
		ReleaseID: rel.ID, TaskID: task.ID, Platform: build.PlatformAndroid,
		BuildType: build.BuildTypeCicd, CIRunType: &ciRunType,
	})
	require.NoError(t, err)
	require.NoError(t, store.Builds.SetWorkflowStatus(ctx, b.ID, workflowStatus))

	return task.ID, b.ID
}

func TestPollPending_AdvancesToRunningOnceQueueStartsAndInvokesCallback(t *testing.T) {
	cicd := &providerstest.FakeCICD{NextRunID: "run-123"}
	cb := &fakeCallbackInvoker{}
	poller, store, _ := newTestPoller(t, cicd, cb)
	ctx := t.Context()

	taskID, buildID := setupCICDBuild(t, store, "tenant-poll-a", build.WorkflowStatusPending)
	require.NoError(t, store.Builds.SetQueueLocation(ctx, buildID, "queue/loc-1"))

	require.NoError(t, poller.pollPending(ctx))

	found, err := store.Builds.FindByTaskAndPlatform(ctx, taskID, build.PlatformAndroid)
	require.NoError(t, err)
	require.NotNil(t, found.CiRunID)
	assert.Equal(t, "run-123", *found.CiRunID)
	assert.Equal(t, []string{taskID}, cb.calls)
}

func TestPollPending_SkipsBuildsMissingQueueLocation(t *testing.T) {
	cicd := &providerstest.FakeCICD{}
	cb := &fakeCallbackInvoker{}
	poller, store, _ := newTestPoller(t, cicd, cb)
	ctx := t.Context()

	setupCICDBuild(t, store, "tenant-poll-b", build.WorkflowStatusPending)

	require.NoError(t, poller.pollPending(ctx))
	assert.Empty(t, cb.calls, "a build with no queue_location can't be checked, and isn't treated as changed")
}

func TestPollPending_LeavesStillQueuedBuildsUntouched(t *testing.T) {
	cicd := &providerstest.FakeCICD{QueueResults: []models.QueueStatusResult{{Started: false}}}
	cb := &fakeCallbackInvoker{}
	poller, store, _ := newTestPoller(t, cicd, cb)
	ctx := t.Context()

	_, buildID := setupCICDBuild(t, store, "tenant-poll-c", build.WorkflowStatusPending)
	require.NoError(t, store.Builds.SetQueueLocation(ctx, buildID, "queue/loc-2"))

	require.NoError(t, poller.pollPending(ctx))
	assert.Empty(t, cb.calls)
}

func TestPollRunning_CompletesBuildAndInvokesCallback(t *testing.T) {
	cicd := &providerstest.FakeCICD{BuildResults: []models.BuildStatusResult{
		{Status: models.WorkflowCompleted, ArtifactPath: "s3://artifacts/build.apk"},
	}}
	cb := &fakeCallbackInvoker{}
	poller, store, storeProvider := newTestPoller(t, cicd, cb)
	ctx := t.Context()

	taskID, buildID := setupCICDBuild(t, store, "tenant-poll-d", build.WorkflowStatusRunning)
	require.NoError(t, store.Builds.SetRunID(ctx, buildID, "run-abc"))

	require.NoError(t, poller.pollRunning(ctx))

	found, err := store.Builds.FindByTaskAndPlatform(ctx, taskID, build.PlatformAndroid)
	require.NoError(t, err)
	assert.Equal(t, build.WorkflowStatusCompleted, found.WorkflowStatus)
	require.NotNil(t, found.ArtifactPath)
	assert.Equal(t, "s3://artifacts/build.apk", *found.ArtifactPath)
	assert.Equal(t, build.BuildUploadStatusUploaded, found.BuildUploadStatus)
	assert.Equal(t, []string{taskID}, cb.calls)

	require.Len(t, storeProvider.Uploads, 1)
	assert.Equal(t, models.TargetPlayStore, storeProvider.Uploads[0].Target)
	assert.Equal(t, "s3://artifacts/build.apk", storeProvider.Uploads[0].ArtifactPath)
}

func TestPollRunning_WebPlatformHasNoStoreTargetAndIsMarkedUploadedDirectly(t *testing.T) {
	cicd := &providerstest.FakeCICD{BuildResults: []models.BuildStatusResult{
		{Status: models.WorkflowCompleted, ArtifactPath: "s3://artifacts/web-bundle.zip"},
	}}
	cb := &fakeCallbackInvoker{}
	poller, store, storeProvider := newTestPoller(t, cicd, cb)
	ctx := t.Context()

	rel, err := store.Releases.Create(ctx, repositories.CreateReleaseInput{
		TenantID: "tenant-poll-web", ReleaseBranch: "release/poll-test-web", BaseBranch: "main",
		Type: release.TypeMinor, KickOffDate: time.Now().UTC(), CreatedBy: "operator@example.com",
	})
	require.NoError(t, err)
	task, err := store.Tasks.Create(ctx, repositories.CreateTaskInput{
		ReleaseID: rel.ID, TaskType: "trigger_regression_builds", Stage: "regression", Sequence: 1,
	})
	require.NoError(t, err)
	ciRunType := build.CiRunTypeGithubActions
	b, err := store.Builds.Create(ctx, repositories.CreateBuildInput{
		ReleaseID: rel.ID, TaskID: task.ID, Platform: build.PlatformWeb,
		BuildType: build.BuildTypeCicd, CIRunType: &ciRunType,
	})
	require.NoError(t, err)
	require.NoError(t, store.Builds.SetWorkflowStatus(ctx, b.ID, build.WorkflowStatusRunning))
	require.NoError(t, store.Builds.SetRunID(ctx, b.ID, "run-web"))

	require.NoError(t, poller.pollRunning(ctx))

	found, err := store.Builds.FindByTaskAndPlatform(ctx, task.ID, build.PlatformWeb)
	require.NoError(t, err)
	assert.Equal(t, build.BuildUploadStatusUploaded, found.BuildUploadStatus)
	assert.Empty(t, storeProvider.Uploads, "web builds have no store target to upload to")
}

func TestPollRunning_EmptyArtifactPathFailsBuildAndStillInvokesCallback(t *testing.T) {
	cicd := &providerstest.FakeCICD{BuildResults: []models.BuildStatusResult{
		{Status: models.WorkflowCompleted, ArtifactPath: ""},
	}}
	cb := &fakeCallbackInvoker{}
	poller, store, storeProvider := newTestPoller(t, cicd, cb)
	ctx := t.Context()

	taskID, buildID := setupCICDBuild(t, store, "tenant-poll-h", build.WorkflowStatusRunning)
	require.NoError(t, store.Builds.SetRunID(ctx, buildID, "run-empty"))

	require.NoError(t, poller.pollRunning(ctx))

	found, err := store.Builds.FindByTaskAndPlatform(ctx, taskID, build.PlatformAndroid)
	require.NoError(t, err)
	assert.Equal(t, build.WorkflowStatusFailed, found.WorkflowStatus)
	assert.Equal(t, build.BuildUploadStatusFailed, found.BuildUploadStatus)
	assert.Equal(t, []string{taskID}, cb.calls, "the build still fell out of the running scan, so its task must still be re-aggregated")
	assert.Empty(t, storeProvider.Uploads)
}

func TestPollRunning_FailsBuildAndMarksUploadFailed(t *testing.T) {
	cicd := &providerstest.FakeCICD{BuildResults: []models.BuildStatusResult{{Status: models.WorkflowFailed}}}
	cb := &fakeCallbackInvoker{}
	poller, store, _ := newTestPoller(t, cicd, cb)
	ctx := t.Context()

	taskID, buildID := setupCICDBuild(t, store, "tenant-poll-e", build.WorkflowStatusRunning)
	require.NoError(t, store.Builds.SetRunID(ctx, buildID, "run-def"))

	require.NoError(t, poller.pollRunning(ctx))

	found, err := store.Builds.FindByTaskAndPlatform(ctx, taskID, build.PlatformAndroid)
	require.NoError(t, err)
	assert.Equal(t, build.WorkflowStatusFailed, found.WorkflowStatus)
	assert.Equal(t, build.BuildUploadStatusFailed, found.BuildUploadStatus)
}

func TestPollRunning_StillRunningLeavesBuildAndSkipsCallback(t *testing.T) {
	cicd := &providerstest.FakeCICD{BuildResults: []models.BuildStatusResult{{Status: models.WorkflowRunning}}}
	cb := &fakeCallbackInvoker{}
	poller, store, _ := newTestPoller(t, cicd, cb)
	ctx := t.Context()

	_, buildID := setupCICDBuild(t, store, "tenant-poll-f", build.WorkflowStatusRunning)
	require.NoError(t, store.Builds.SetRunID(ctx, buildID, "run-ghi"))

	require.NoError(t, poller.pollRunning(ctx))
	assert.Empty(t, cb.calls)
}

func TestPollRunning_MissingCIRunIDFailsThatBuildOnly(t *testing.T) {
	cicd := &providerstest.FakeCICD{}
	cb := &fakeCallbackInvoker{}
	poller, store, _ := newTestPoller(t, cicd, cb)
	ctx := t.Context()

	setupCICDBuild(t, store, "tenant-poll-g", build.WorkflowStatusRunning)

	require.NoError(t, poller.pollRunning(ctx), "a single build's missing ci_run_id is logged, not returned")
	assert.Empty(t, cb.calls)
}

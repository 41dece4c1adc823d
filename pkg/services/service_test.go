package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dream-horizon/delivr/ent/cronjob"
	"github.com/dream-horizon/delivr/ent/release"
	"github.com/dream-horizon/delivr/ent/releasetask"
	"github.com/dream-horizon/delivr/internal/dbtest"
	"github.com/dream-horizon/delivr/pkg/clock"
	"github.com/dream-horizon/delivr/pkg/models"
	"github.com/dream-horizon/delivr/pkg/repositories"
	"github.com/dream-horizon/delivr/pkg/services"
)

// fakeScheduler stands in for pkg/scheduler.Scheduler: a map of
// releaseID to running-or-not, with no actual tick loop behind it.
type fakeScheduler struct {
	mu      sync.Mutex
	running map[string]bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{running: make(map[string]bool)}
}

func (f *fakeScheduler) Start(ctx context.Context, releaseID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running[releaseID] = true
	return nil
}

func (f *fakeScheduler) Stop(releaseID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running[releaseID] = false
}

func (f *fakeScheduler) IsRunning(releaseID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running[releaseID]
}

// fakeCherryPickChecker reports a fixed pending/error result for every
// release, set by the test before exercising TriggerStage3.
type fakeCherryPickChecker struct {
	pending bool
	err     error
}

func (f *fakeCherryPickChecker) HasPendingCherryPicks(ctx context.Context, releaseID string) (bool, error) {
	return f.pending, f.err
}

func newTestService(t *testing.T, now time.Time, cherryPicks *fakeCherryPickChecker) (*services.Service, *repositories.Store, *fakeScheduler) {
	t.Helper()
	client := dbtest.NewClient(t)
	store := repositories.NewStore(client.Client)
	sched := newFakeScheduler()
	svc := services.New(store, sched, cherryPicks, nil, nil, clock.Fixed{At: now})
	return svc, store, sched
}

func TestCreateRelease_ValidatesRequiredFields(t *testing.T) {
	svc, _, _ := newTestService(t, time.Now().UTC(), nil)
	ctx := t.Context()

	_, err := svc.CreateRelease(ctx, repositories.CreateReleaseInput{})
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "release_branch", verr.Field)
}

func TestStartCronJob_CreatesJobAndStartsRunner(t *testing.T) {
	now := time.Now().UTC()
	svc, store, sched := newTestService(t, now, nil)
	ctx := t.Context()

	rel, err := store.Releases.Create(ctx, repositories.CreateReleaseInput{
		TenantID: "tenant-svc-a", ReleaseBranch: "release/1.0.0", BaseBranch: "main",
		Type: release.TypeMinor, KickOffDate: now, CreatedBy: "operator@example.com",
	})
	require.NoError(t, err)

	job, err := svc.StartCronJob(ctx, models.StartCronJobInput{ReleaseID: rel.ID, KickOffDate: now})
	require.NoError(t, err)
	assert.Equal(t, cronjob.Stage1StatusInProgress, job.Stage1Status)
	assert.Equal(t, cronjob.CronStatusRunning, job.CronStatus)
	assert.True(t, sched.IsRunning(rel.ID))

	_, err = svc.StartCronJob(ctx, models.StartCronJobInput{ReleaseID: rel.ID, KickOffDate: now})
	assert.ErrorIs(t, err, services.ErrAlreadyRunning)
}

func TestPauseAndResumeRelease_UserRequested(t *testing.T) {
	now := time.Now().UTC()
	svc, store, _ := newTestService(t, now, nil)
	ctx := t.Context()

	rel, err := store.Releases.Create(ctx, repositories.CreateReleaseInput{
		TenantID: "tenant-svc-b", ReleaseBranch: "release/1.0.1", BaseBranch: "main",
		Type: release.TypeMinor, KickOffDate: now, CreatedBy: "operator@example.com",
	})
	require.NoError(t, err)
	_, err = svc.StartCronJob(ctx, models.StartCronJobInput{ReleaseID: rel.ID, KickOffDate: now})
	require.NoError(t, err)

	require.NoError(t, svc.PauseRelease(ctx, rel.ID, "tenant-svc-b"))
	paused, err := store.Releases.FindByID(ctx, rel.ID)
	require.NoError(t, err)
	assert.Equal(t, release.StatusPaused, paused.Status)

	// Pausing an already-paused release is idempotent.
	require.NoError(t, svc.PauseRelease(ctx, rel.ID, "tenant-svc-b"))

	require.NoError(t, svc.ResumeRelease(ctx, rel.ID, "tenant-svc-b"))
	resumed, err := store.Releases.FindByID(ctx, rel.ID)
	require.NoError(t, err)
	assert.Equal(t, release.StatusInProgress, resumed.Status)
}

func TestPauseRelease_WrongTenantIsNotFound(t *testing.T) {
	now := time.Now().UTC()
	svc, store, _ := newTestService(t, now, nil)
	ctx := t.Context()

	rel, err := store.Releases.Create(ctx, repositories.CreateReleaseInput{
		TenantID: "tenant-svc-c", ReleaseBranch: "release/1.0.2", BaseBranch: "main",
		Type: release.TypeMinor, KickOffDate: now, CreatedBy: "operator@example.com",
	})
	require.NoError(t, err)
	_, err = store.CronJobs.Create(ctx, rel.ID, nil, nil)
	require.NoError(t, err)

	err = svc.PauseRelease(ctx, rel.ID, "some-other-tenant")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestPauseRelease_TerminalReleaseRefused(t *testing.T) {
	now := time.Now().UTC()
	svc, store, _ := newTestService(t, now, nil)
	ctx := t.Context()

	rel, err := store.Releases.Create(ctx, repositories.CreateReleaseInput{
		TenantID: "tenant-svc-d", ReleaseBranch: "release/1.0.3", BaseBranch: "main",
		Type: release.TypeMinor, KickOffDate: now, CreatedBy: "operator@example.com",
	})
	require.NoError(t, err)
	require.NoError(t, store.Releases.Archive(ctx, rel.ID))

	err = svc.PauseRelease(ctx, rel.ID, "tenant-svc-d")
	assert.ErrorIs(t, err, services.ErrTerminalRelease)
}

func TestResumeRelease_TaskFailureMustRetryInstead(t *testing.T) {
	now := time.Now().UTC()
	svc, store, _ := newTestService(t, now, nil)
	ctx := t.Context()

	rel, err := store.Releases.Create(ctx, repositories.CreateReleaseInput{
		TenantID: "tenant-svc-e", ReleaseBranch: "release/1.0.4", BaseBranch: "main",
		Type: release.TypeMinor, KickOffDate: now, CreatedBy: "operator@example.com",
	})
	require.NoError(t, err)
	job, err := store.CronJobs.Create(ctx, rel.ID, nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.CronJobs.Pause(ctx, job.ID, cronjob.PauseTypeTaskFailure, now))

	err = svc.ResumeRelease(ctx, rel.ID, "tenant-svc-e")
	assert.ErrorIs(t, err, services.ErrMustRetryTask)
}

func TestTriggerStage2_RequiresStage1CompletedAndStage2Pending(t *testing.T) {
	now := time.Now().UTC()
	svc, store, sched := newTestService(t, now, nil)
	ctx := t.Context()

	rel, err := store.Releases.Create(ctx, repositories.CreateReleaseInput{
		TenantID: "tenant-svc-f", ReleaseBranch: "release/1.0.5", BaseBranch: "main",
		Type: release.TypeMinor, KickOffDate: now, CreatedBy: "operator@example.com",
	})
	require.NoError(t, err)
	job, err := store.CronJobs.Create(ctx, rel.ID, nil, nil)
	require.NoError(t, err)

	err = svc.TriggerStage2(ctx, models.TriggerStage2Input{ReleaseID: rel.ID, TenantID: "tenant-svc-f"})
	assert.ErrorIs(t, err, services.ErrWrongStageState)

	require.NoError(t, store.CronJobs.SetStage1Status(ctx, job.ID, cronjob.Stage1StatusCompleted))
	require.NoError(t, svc.TriggerStage2(ctx, models.TriggerStage2Input{ReleaseID: rel.ID, TenantID: "tenant-svc-f"}))

	found, err := store.CronJobs.FindByReleaseID(ctx, rel.ID)
	require.NoError(t, err)
	assert.Equal(t, cronjob.Stage2StatusInProgress, found.Stage2Status)
	assert.True(t, sched.IsRunning(rel.ID))
}

func TestTriggerStage3_RefusesPendingCherryPicks(t *testing.T) {
	now := time.Now().UTC()
	cherry := &fakeCherryPickChecker{pending: true}
	svc, store, _ := newTestService(t, now, cherry)
	ctx := t.Context()

	rel, err := store.Releases.Create(ctx, repositories.CreateReleaseInput{
		TenantID: "tenant-svc-g", ReleaseBranch: "release/1.0.6", BaseBranch: "main",
		Type: release.TypeMinor, KickOffDate: now, CreatedBy: "operator@example.com",
	})
	require.NoError(t, err)
	job, err := store.CronJobs.Create(ctx, rel.ID, nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.CronJobs.SetStage2Status(ctx, job.ID, cronjob.Stage2StatusCompleted))

	err = svc.TriggerStage3(ctx, models.TriggerStage3Input{ReleaseID: rel.ID, TenantID: "tenant-svc-g", ApprovedBy: "operator@example.com"})
	assert.ErrorIs(t, err, services.ErrCherryPickPending)

	require.NoError(t, svc.TriggerStage3(ctx, models.TriggerStage3Input{
		ReleaseID: rel.ID, TenantID: "tenant-svc-g", ApprovedBy: "operator@example.com", ForceApprove: true,
	}))
	found, err := store.CronJobs.FindByReleaseID(ctx, rel.ID)
	require.NoError(t, err)
	assert.Equal(t, cronjob.Stage3StatusInProgress, found.Stage3Status)
}

func TestTriggerStage3_RefusesOpenRegressionCycle(t *testing.T) {
	now := time.Now().UTC()
	cherry := &fakeCherryPickChecker{pending: false}
	svc, store, _ := newTestService(t, now, cherry)
	ctx := t.Context()

	rel, err := store.Releases.Create(ctx, repositories.CreateReleaseInput{
		TenantID: "tenant-svc-h", ReleaseBranch: "release/1.0.7", BaseBranch: "main",
		Type: release.TypeMinor, KickOffDate: now, CreatedBy: "operator@example.com",
	})
	require.NoError(t, err)
	job, err := store.CronJobs.Create(ctx, rel.ID, nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.CronJobs.SetStage2Status(ctx, job.ID, cronjob.Stage2StatusCompleted))

	_, err = store.Cycles.CreateNext(ctx, rel.ID)
	require.NoError(t, err)

	err = svc.TriggerStage3(ctx, models.TriggerStage3Input{ReleaseID: rel.ID, TenantID: "tenant-svc-h", ApprovedBy: "operator@example.com"})
	assert.ErrorIs(t, err, services.ErrCyclesNotCompleted)
}

func TestRetryTask_ResetsTaskAndResumesReleaseOnTaskFailurePause(t *testing.T) {
	now := time.Now().UTC()
	svc, store, _ := newTestService(t, now, nil)
	ctx := t.Context()

	rel, err := store.Releases.Create(ctx, repositories.CreateReleaseInput{
		TenantID: "tenant-svc-i", ReleaseBranch: "release/1.0.8", BaseBranch: "main",
		Type: release.TypeMinor, KickOffDate: now, CreatedBy: "operator@example.com",
	})
	require.NoError(t, err)
	job, err := store.CronJobs.Create(ctx, rel.ID, nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.CronJobs.Pause(ctx, job.ID, cronjob.PauseTypeTaskFailure, now))
	require.NoError(t, store.Releases.UpdateStatus(ctx, rel.ID, release.StatusPaused))

	task, err := store.Tasks.Create(ctx, repositories.CreateTaskInput{
		ReleaseID: rel.ID, TaskType: releasetask.TaskTypeForkBranch, Stage: releasetask.StageKickoff, Sequence: 1,
	})
	require.NoError(t, err)
	require.NoError(t, store.Tasks.SetStatus(ctx, task.ID, releasetask.TaskStatusFailed))

	require.NoError(t, svc.RetryTask(ctx, models.RetryTaskInput{ReleaseID: rel.ID, TaskID: task.ID}))

	found, err := store.Tasks.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, releasetask.TaskStatusPending, found.TaskStatus)

	resumedRelease, err := store.Releases.FindByID(ctx, rel.ID)
	require.NoError(t, err)
	assert.Equal(t, release.StatusInProgress, resumedRelease.Status)
}

func TestRetryTask_RefusesNonFailedTask(t *testing.T) {
	now := time.Now().UTC()
	svc, store, _ := newTestService(t, now, nil)
	ctx := t.Context()

	rel, err := store.Releases.Create(ctx, repositories.CreateReleaseInput{
		TenantID: "tenant-svc-j", ReleaseBranch: "release/1.0.9", BaseBranch: "main",
		Type: release.TypeMinor, KickOffDate: now, CreatedBy: "operator@example.com",
	})
	require.NoError(t, err)
	task, err := store.Tasks.Create(ctx, repositories.CreateTaskInput{
		ReleaseID: rel.ID, TaskType: releasetask.TaskTypeForkBranch, Stage: releasetask.StageKickoff, Sequence: 1,
	})
	require.NoError(t, err)

	err = svc.RetryTask(ctx, models.RetryTaskInput{ReleaseID: rel.ID, TaskID: task.ID})
	assert.ErrorIs(t, err, services.ErrTaskNotFailed)
}

func TestApproveTask_CompletesApprovalGate(t *testing.T) {
	now := time.Now().UTC()
	svc, store, _ := newTestService(t, now, nil)
	ctx := t.Context()

	rel, err := store.Releases.Create(ctx, repositories.CreateReleaseInput{
		TenantID: "tenant-svc-k", ReleaseBranch: "release/1.1.0", BaseBranch: "main",
		Type: release.TypeMinor, KickOffDate: now, CreatedBy: "operator@example.com",
	})
	require.NoError(t, err)
	task, err := store.Tasks.Create(ctx, repositories.CreateTaskInput{
		ReleaseID: rel.ID, TaskType: releasetask.TaskTypeRegressionStageApproval, Stage: releasetask.StageRegression, Sequence: 1,
	})
	require.NoError(t, err)

	require.NoError(t, svc.ApproveTask(ctx, task.ID, "account-1"))

	found, err := store.Tasks.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, releasetask.TaskStatusCompleted, found.TaskStatus)
	assert.Equal(t, "account-1", *found.AccountID)
}

func TestApproveTask_RefusesNonApprovalTaskType(t *testing.T) {
	now := time.Now().UTC()
	svc, store, _ := newTestService(t, now, nil)
	ctx := t.Context()

	rel, err := store.Releases.Create(ctx, repositories.CreateReleaseInput{
		TenantID: "tenant-svc-l", ReleaseBranch: "release/1.1.1", BaseBranch: "main",
		Type: release.TypeMinor, KickOffDate: now, CreatedBy: "operator@example.com",
	})
	require.NoError(t, err)
	task, err := store.Tasks.Create(ctx, repositories.CreateTaskInput{
		ReleaseID: rel.ID, TaskType: releasetask.TaskTypeForkBranch, Stage: releasetask.StageKickoff, Sequence: 1,
	})
	require.NoError(t, err)

	err = svc.ApproveTask(ctx, task.ID, "account-1")
	assert.ErrorIs(t, err, services.ErrNotApprovable)
}

func TestArchiveRelease_IsIdempotentAndStopsRunner(t *testing.T) {
	now := time.Now().UTC()
	svc, store, sched := newTestService(t, now, nil)
	ctx := t.Context()

	rel, err := store.Releases.Create(ctx, repositories.CreateReleaseInput{
		TenantID: "tenant-svc-m", ReleaseBranch: "release/1.1.2", BaseBranch: "main",
		Type: release.TypeMinor, KickOffDate: now, CreatedBy: "operator@example.com",
	})
	require.NoError(t, err)
	_, err = svc.StartCronJob(ctx, models.StartCronJobInput{ReleaseID: rel.ID, KickOffDate: now})
	require.NoError(t, err)

	require.NoError(t, svc.ArchiveRelease(ctx, rel.ID, "account-1"))
	assert.False(t, sched.IsRunning(rel.ID))

	archived, err := store.Releases.FindByID(ctx, rel.ID)
	require.NoError(t, err)
	assert.Equal(t, release.StatusArchived, archived.Status)

	// Archiving again is a no-op, not an error.
	require.NoError(t, svc.ArchiveRelease(ctx, rel.ID, "account-1"))
}

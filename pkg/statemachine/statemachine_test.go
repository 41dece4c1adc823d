package statemachine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dream-horizon/delivr/ent/cronjob"
	"github.com/dream-horizon/delivr/ent/release"
	"github.com/dream-horizon/delivr/internal/dbtest"
	"github.com/dream-horizon/delivr/pkg/clock"
	"github.com/dream-horizon/delivr/pkg/database"
	"github.com/dream-horizon/delivr/pkg/executor"
	"github.com/dream-horizon/delivr/pkg/providers"
	"github.com/dream-horizon/delivr/pkg/providers/providerstest"
	"github.com/dream-horizon/delivr/pkg/repositories"
)

// allTogglesOff disables every optional Stage 1/2/3 task, leaving only
// the mandatory ones (FORK_BRANCH, CREATE_RELEASE_TAG) to exercise.
func allTogglesOff() map[string]bool {
	return map[string]bool{
		toggleKickOffReminder:         false,
		toggleProjectManagementTicket: false,
		toggleTestSuite:               false,
		togglePreRegressionBuilds:     false,
		toggleAutomationBuilds:        false,
		toggleAutomationRuns:          false,
		toggleRegressionStageApproval: false,
		toggleTestFlightBuilds:        false,
		togglePreReleaseStageApproval: false,
		toggleAdHocNotification:       false,
	}
}

func newTestStateMachine(t *testing.T, scm *providerstest.FakeSCM, notif *providerstest.FakeNotification, now time.Time) (*StateMachine, *repositories.Store, *database.Client) {
	t.Helper()
	client := dbtest.NewClient(t)
	store := repositories.NewStore(client.Client)

	registry := providers.NewRegistry()
	if scm != nil {
		registry.RegisterSCM(providers.ProviderGitHubActions, scm)
	}
	if notif != nil {
		registry.RegisterNotification(providers.ProviderSlack, notif)
	}
	breaker := providers.NewBreakerManager()
	exec := executor.New(store, registry, breaker)

	sm := New(store, exec, clock.Fixed{At: now}, nil, time.Minute, time.Hour)
	return sm, store, client
}

func TestExecute_FullLifecycle_NoRegressionsNoUploads(t *testing.T) {
	now := time.Now().UTC()
	scm := &providerstest.FakeSCM{}
	sm, store, _ := newTestStateMachine(t, scm, nil, now)
	ctx := t.Context()

	rel, err := store.Releases.Create(ctx, repositories.CreateReleaseInput{
		TenantID:      "tenant-sm-a",
		ReleaseBranch: "release/1.0.0",
		BaseBranch:    "main",
		Type:          release.TypeMinor,
		KickOffDate:   now,
		CreatedBy:     "operator@example.com",
	})
	require.NoError(t, err)

	job, err := store.CronJobs.Create(ctx, rel.ID, allTogglesOff(), nil)
	require.NoError(t, err)
	require.NoError(t, store.CronJobs.SetStage1Status(ctx, job.ID, cronjob.Stage1StatusInProgress))

	// Tick 1: seeds Stage 1 tasks and dispatches FORK_BRANCH.
	require.NoError(t, sm.Execute(ctx, rel.ID))
	assert.Len(t, scm.ForkedBranches, 1)
	assert.Equal(t, "release/1.0.0", scm.ForkedBranches[0])

	// Tick 2: the rest of Stage 1 is SKIPPED, so the stage completes and,
	// since both auto-transition flags default true, the release chains
	// straight through an empty Stage 2 (no regression slots queued) into
	// Stage 3, dispatching CREATE_RELEASE_TAG on the same tick.
	require.NoError(t, sm.Execute(ctx, rel.ID))

	afterTick2, err := store.CronJobs.FindByReleaseID(ctx, rel.ID)
	require.NoError(t, err)
	assert.Equal(t, cronjob.Stage1StatusCompleted, afterTick2.Stage1Status)
	assert.Equal(t, cronjob.Stage2StatusCompleted, afterTick2.Stage2Status)
	assert.Equal(t, cronjob.Stage3StatusInProgress, afterTick2.Stage3Status)
	assert.Len(t, scm.Tags, 1)

	// Tick 3: the rest of Stage 3 is SKIPPED (no platform targets, no
	// TestFlight, no ad hoc notification), so the release completes.
	require.NoError(t, sm.Execute(ctx, rel.ID))

	finalJob, err := store.CronJobs.FindByReleaseID(ctx, rel.ID)
	require.NoError(t, err)
	assert.Equal(t, cronjob.Stage3StatusCompleted, finalJob.Stage3Status)
	assert.Equal(t, cronjob.CronStatusCompleted, finalJob.CronStatus)

	finalRelease, err := store.Releases.FindByID(ctx, rel.ID)
	require.NoError(t, err)
	assert.Equal(t, release.StatusCompleted, finalRelease.Status)
	assert.NotNil(t, finalRelease.ReleaseDate)
}

func TestExecute_Stage1_AwaitsStageTriggerWhenAutoTransitionOff(t *testing.T) {
	now := time.Now().UTC()
	scm := &providerstest.FakeSCM{}
	sm, store, client := newTestStateMachine(t, scm, nil, now)
	ctx := t.Context()

	rel, err := store.Releases.Create(ctx, repositories.CreateReleaseInput{
		TenantID:      "tenant-sm-b",
		ReleaseBranch: "release/2.0.0",
		BaseBranch:    "main",
		Type:          release.TypeMinor,
		KickOffDate:   now,
		CreatedBy:     "operator@example.com",
	})
	require.NoError(t, err)

	// CronJobRepository.Create doesn't expose auto_transition_to_stage2
	// and nothing in this module sets it false (the schema default is
	// true); the embedded ent client reaches the field directly for this
	// test.
	_, err = client.CronJob.Create().
		SetID(uuid.New().String()).
		SetReleaseID(rel.ID).
		SetCronConfig(allTogglesOff()).
		SetAutoTransitionToStage2(false).
		SetStage1Status(cronjob.Stage1StatusInProgress).
		SetCronStatus(cronjob.CronStatusRunning).
		Save(ctx)
	require.NoError(t, err)

	require.NoError(t, sm.Execute(ctx, rel.ID)) // dispatch FORK_BRANCH
	require.NoError(t, sm.Execute(ctx, rel.ID)) // complete stage1, pause awaiting stage trigger

	found, err := store.CronJobs.FindByReleaseID(ctx, rel.ID)
	require.NoError(t, err)
	assert.Equal(t, cronjob.Stage1StatusCompleted, found.Stage1Status)
	assert.Equal(t, cronjob.Stage2StatusPending, found.Stage2Status, "auto-transition is off, Stage 2 never starts")
	assert.Equal(t, cronjob.CronStatusPaused, found.CronStatus)
	assert.Equal(t, cronjob.PauseTypeAwaitingStageTrigger, found.PauseType)
}

func TestExecute_SkipsArchivedRelease(t *testing.T) {
	now := time.Now().UTC()
	sm, store, _ := newTestStateMachine(t, nil, nil, now)
	ctx := t.Context()

	rel, err := store.Releases.Create(ctx, repositories.CreateReleaseInput{
		TenantID:      "tenant-sm-c",
		ReleaseBranch: "release/3.0.0",
		BaseBranch:    "main",
		Type:          release.TypeMinor,
		KickOffDate:   now,
		CreatedBy:     "operator@example.com",
	})
	require.NoError(t, err)
	job, err := store.CronJobs.Create(ctx, rel.ID, allTogglesOff(), nil)
	require.NoError(t, err)
	require.NoError(t, store.CronJobs.SetStage1Status(ctx, job.ID, cronjob.Stage1StatusInProgress))
	require.NoError(t, store.Releases.Archive(ctx, rel.ID))

	require.NoError(t, sm.Execute(ctx, rel.ID))

	tasks, err := store.Tasks.FindByRelease(ctx, rel.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks, "archived releases never get stage tasks seeded")
}

func TestExecute_SkipsPausedRelease(t *testing.T) {
	now := time.Now().UTC()
	sm, store, _ := newTestStateMachine(t, nil, nil, now)
	ctx := t.Context()

	rel, err := store.Releases.Create(ctx, repositories.CreateReleaseInput{
		TenantID:      "tenant-sm-d",
		ReleaseBranch: "release/4.0.0",
		BaseBranch:    "main",
		Type:          release.TypeMinor,
		KickOffDate:   now,
		CreatedBy:     "operator@example.com",
	})
	require.NoError(t, err)
	job, err := store.CronJobs.Create(ctx, rel.ID, allTogglesOff(), nil)
	require.NoError(t, err)
	require.NoError(t, store.CronJobs.SetStage1Status(ctx, job.ID, cronjob.Stage1StatusInProgress))
	require.NoError(t, store.CronJobs.Pause(ctx, job.ID, cronjob.PauseTypeUserRequested, now))

	require.NoError(t, sm.Execute(ctx, rel.ID))

	tasks, err := store.Tasks.FindByRelease(ctx, rel.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks, "a paused release's stage never advances")
}

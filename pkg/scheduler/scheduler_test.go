package scheduler_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dream-horizon/delivr/ent/cronjob"
	"github.com/dream-horizon/delivr/ent/release"
	"github.com/dream-horizon/delivr/internal/dbtest"
	"github.com/dream-horizon/delivr/pkg/clock"
	"github.com/dream-horizon/delivr/pkg/config"
	"github.com/dream-horizon/delivr/pkg/executor"
	"github.com/dream-horizon/delivr/pkg/providers"
	"github.com/dream-horizon/delivr/pkg/providers/providerstest"
	"github.com/dream-horizon/delivr/pkg/repositories"
	"github.com/dream-horizon/delivr/pkg/scheduler"
	"github.com/dream-horizon/delivr/pkg/statemachine"
)

// allTogglesOff mirrors pkg/statemachine's unexported toggle key
// constants (toggles.go) by their literal string values, since this
// package tests the scheduler as an external consumer of StateMachine
// rather than reaching into its unexported names.
func allTogglesOff() map[string]bool {
	return map[string]bool{
		"kick_off_reminder":         false,
		"project_management_ticket": false,
		"test_suite":                false,
		"pre_regression_builds":     false,
		"automation_builds":         false,
		"automation_runs":           false,
		"regression_stage_approval": false,
		"test_flight_builds":        false,
		"pre_release_stage_approval": false,
		"ad_hoc_notification":       false,
	}
}

func newTestScheduler(t *testing.T, tickInterval time.Duration) (*scheduler.Scheduler, *repositories.Store) {
	t.Helper()
	client := dbtest.NewClient(t)
	store := repositories.NewStore(client.Client)

	registry := providers.NewRegistry()
	registry.RegisterSCM(providers.ProviderGitHubActions, &providerstest.FakeSCM{})
	breaker := providers.NewBreakerManager()
	exec := executor.New(store, registry, breaker)
	sm := statemachine.New(store, exec, clock.Fixed{At: time.Now().UTC()}, nil, time.Minute, time.Hour)

	cfg := config.SchedulerConfig{
		TickInterval:       tickInterval,
		SlotMatchWindow:    5 * time.Minute,
		ProviderTimeout:    8 * time.Second,
		MaxConcurrentTicks: 4,
	}
	return scheduler.New(store, sm, cfg), store
}

func TestScheduler_StartTicksReleaseUntilStopped(t *testing.T) {
	sched, store := newTestScheduler(t, 10*time.Millisecond)
	ctx := t.Context()

	rel, err := store.Releases.Create(ctx, repositories.CreateReleaseInput{
		TenantID: "tenant-sched-a", ReleaseBranch: "release/sched-a", BaseBranch: "main",
		Type: release.TypeMinor, KickOffDate: time.Now().UTC(), CreatedBy: "operator@example.com",
	})
	require.NoError(t, err)
	job, err := store.CronJobs.Create(ctx, rel.ID, allTogglesOff(), nil)
	require.NoError(t, err)
	require.NoError(t, store.CronJobs.SetStage1Status(ctx, job.ID, cronjob.Stage1StatusInProgress))

	require.NoError(t, sched.Start(ctx, rel.ID))
	assert.True(t, sched.IsRunning(rel.ID))

	assert.Eventually(t, func() bool {
		found, err := store.CronJobs.FindByReleaseID(ctx, rel.ID)
		return err == nil && found.Stage1Status == cronjob.Stage1StatusCompleted
	}, 2*time.Second, 10*time.Millisecond, "the runner must tick the state machine past stage 1")

	sched.Stop(rel.ID)
	assert.False(t, sched.IsRunning(rel.ID))
}

func TestScheduler_Start_RefusesDuplicateRunner(t *testing.T) {
	sched, store := newTestScheduler(t, time.Hour)
	ctx := t.Context()

	rel, err := store.Releases.Create(ctx, repositories.CreateReleaseInput{
		TenantID: "tenant-sched-b", ReleaseBranch: "release/sched-b", BaseBranch: "main",
		Type: release.TypeMinor, KickOffDate: time.Now().UTC(), CreatedBy: "operator@example.com",
	})
	require.NoError(t, err)
	_, err = store.CronJobs.Create(ctx, rel.ID, allTogglesOff(), nil)
	require.NoError(t, err)

	require.NoError(t, sched.Start(ctx, rel.ID))
	defer sched.Stop(rel.ID)

	err = sched.Start(ctx, rel.ID)
	assert.ErrorIs(t, err, scheduler.ErrAlreadyRunning)
}

func TestScheduler_Stop_IsIdempotentForAnUnknownRelease(t *testing.T) {
	sched, _ := newTestScheduler(t, time.Hour)
	assert.NotPanics(t, func() { sched.Stop("does-not-exist") })
}

func TestScheduler_Reconcile_StartsRunnersForRunnableCronJobs(t *testing.T) {
	sched, store := newTestScheduler(t, time.Hour)
	ctx := t.Context()

	rel, err := store.Releases.Create(ctx, repositories.CreateReleaseInput{
		TenantID: "tenant-sched-c", ReleaseBranch: "release/sched-c", BaseBranch: "main",
		Type: release.TypeMinor, KickOffDate: time.Now().UTC(), CreatedBy: "operator@example.com",
	})
	require.NoError(t, err)
	job, err := store.CronJobs.Create(ctx, rel.ID, allTogglesOff(), nil)
	require.NoError(t, err)
	require.NoError(t, store.CronJobs.SetStage1Status(ctx, job.ID, cronjob.Stage1StatusInProgress))
	require.NoError(t, store.CronJobs.Resume(ctx, job.ID))

	require.NoError(t, sched.Reconcile(ctx))
	defer sched.Shutdown()

	assert.True(t, sched.IsRunning(rel.ID))
}

func TestScheduler_Shutdown_DrainsAllRunners(t *testing.T) {
	sched, store := newTestScheduler(t, time.Hour)
	ctx := t.Context()

	rel, err := store.Releases.Create(ctx, repositories.CreateReleaseInput{
		TenantID: "tenant-sched-d", ReleaseBranch: "release/sched-d", BaseBranch: "main",
		Type: release.TypeMinor, KickOffDate: time.Now().UTC(), CreatedBy: "operator@example.com",
	})
	require.NoError(t, err)
	_, err = store.CronJobs.Create(ctx, rel.ID, allTogglesOff(), nil)
	require.NoError(t, err)

	require.NoError(t, sched.Start(ctx, rel.ID))
	assert.Equal(t, 1, sched.Health().ActiveRunners)

	sched.Shutdown()
	assert.Equal(t, 0, sched.Health().ActiveRunners)
	assert.False(t, sched.IsRunning(rel.ID))
}

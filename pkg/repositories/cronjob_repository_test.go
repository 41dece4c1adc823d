package repositories_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dream-horizon/delivr/ent/cronjob"
	"github.com/dream-horizon/delivr/ent/release"
	"github.com/dream-horizon/delivr/ent/schema"
	"github.com/dream-horizon/delivr/pkg/metrics"
	"github.com/dream-horizon/delivr/pkg/repositories"
)

func mustCreateRelease(t *testing.T, store *repositories.Store, tenantID string) string {
	t.Helper()
	rel, err := store.Releases.Create(t.Context(), repositories.CreateReleaseInput{
		TenantID:      tenantID,
		ReleaseBranch: "release/cron-test",
		BaseBranch:    "main",
		Type:          release.TypeMinor,
		KickOffDate:   time.Now().UTC(),
		CreatedBy:     "operator@example.com",
	})
	require.NoError(t, err)
	return rel.ID
}

func TestCronJobRepository_CreateAndFindByReleaseID(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()
	releaseID := mustCreateRelease(t, store, "tenant-cron-a")

	slots := []schema.RegressionSlot{
		{SlotTime: time.Now().Add(time.Hour).UTC()},
		{SlotTime: time.Now().Add(2 * time.Hour).UTC()},
	}
	job, err := store.CronJobs.Create(ctx, releaseID, map[string]bool{"kick_off_reminder": true}, slots)
	require.NoError(t, err)
	assert.Equal(t, cronjob.CronStatusPending, job.CronStatus)
	assert.Len(t, job.UpcomingRegressions, 2)

	found, err := store.CronJobs.FindByReleaseID(ctx, releaseID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, found.ID)
}

func TestCronJobRepository_FindRunnable(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	runningRelease := mustCreateRelease(t, store, "tenant-cron-b")
	pendingRelease := mustCreateRelease(t, store, "tenant-cron-c")

	running, err := store.CronJobs.Create(ctx, runningRelease, nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.CronJobs.SetCronStatus(ctx, running.ID, cronjob.CronStatusRunning))

	_, err = store.CronJobs.Create(ctx, pendingRelease, nil, nil)
	require.NoError(t, err)

	runnable, err := store.CronJobs.FindRunnable(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(runnable))
	for _, j := range runnable {
		ids = append(ids, j.ID)
	}
	assert.Contains(t, ids, running.ID)
}

func TestCronJobRepository_PauseRecordsMetric(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()
	releaseID := mustCreateRelease(t, store, "tenant-cron-d")

	job, err := store.CronJobs.Create(ctx, releaseID, nil, nil)
	require.NoError(t, err)

	before := testutil.ToFloat64(metrics.PausesTotal.WithLabelValues(string(cronjob.PauseTypeUserRequested)))

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.CronJobs.Pause(ctx, job.ID, cronjob.PauseTypeUserRequested, at))

	after := testutil.ToFloat64(metrics.PausesTotal.WithLabelValues(string(cronjob.PauseTypeUserRequested)))
	assert.Equal(t, before+1, after)

	found, err := store.CronJobs.FindByReleaseID(ctx, releaseID)
	require.NoError(t, err)
	assert.Equal(t, cronjob.CronStatusPaused, found.CronStatus)
	assert.Equal(t, cronjob.PauseTypeUserRequested, found.PauseType)
	require.NotNil(t, found.CronStoppedAt)
	assert.WithinDuration(t, at, *found.CronStoppedAt, time.Second)
}

func TestCronJobRepository_Resume(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()
	releaseID := mustCreateRelease(t, store, "tenant-cron-e")

	job, err := store.CronJobs.Create(ctx, releaseID, nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.CronJobs.Pause(ctx, job.ID, cronjob.PauseTypeTaskFailure, time.Now().UTC()))

	require.NoError(t, store.CronJobs.Resume(ctx, job.ID))

	found, err := store.CronJobs.FindByReleaseID(ctx, releaseID)
	require.NoError(t, err)
	assert.Equal(t, cronjob.CronStatusRunning, found.CronStatus)
	assert.Equal(t, cronjob.PauseTypeNone, found.PauseType)
	assert.Nil(t, found.CronStoppedAt)
}

func TestCronJobRepository_StageStatusSetters(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()
	releaseID := mustCreateRelease(t, store, "tenant-cron-f")

	job, err := store.CronJobs.Create(ctx, releaseID, nil, nil)
	require.NoError(t, err)

	require.NoError(t, store.CronJobs.SetStage1Status(ctx, job.ID, cronjob.Stage1StatusCompleted))
	require.NoError(t, store.CronJobs.SetStage2Status(ctx, job.ID, cronjob.Stage2StatusInProgress))
	require.NoError(t, store.CronJobs.SetStage3Status(ctx, job.ID, cronjob.Stage3StatusPending))

	found, err := store.CronJobs.FindByReleaseID(ctx, releaseID)
	require.NoError(t, err)
	assert.Equal(t, cronjob.Stage1StatusCompleted, found.Stage1Status)
	assert.Equal(t, cronjob.Stage2StatusInProgress, found.Stage2Status)
	assert.Equal(t, cronjob.Stage3StatusPending, found.Stage3Status)
}

func TestCronJobRepository_PopNextRegressionSlot(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()
	releaseID := mustCreateRelease(t, store, "tenant-cron-g")

	first := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	second := time.Now().Add(2 * time.Hour).UTC().Truncate(time.Second)
	job, err := store.CronJobs.Create(ctx, releaseID, nil, []schema.RegressionSlot{
		{SlotTime: first},
		{SlotTime: second},
	})
	require.NoError(t, err)

	slot, ok, err := store.CronJobs.PopNextRegressionSlot(ctx, job.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.WithinDuration(t, first, slot.SlotTime, time.Second)

	slot, ok, err = store.CronJobs.PopNextRegressionSlot(ctx, job.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.WithinDuration(t, second, slot.SlotTime, time.Second)

	_, ok, err = store.CronJobs.PopNextRegressionSlot(ctx, job.ID)
	require.NoError(t, err)
	assert.False(t, ok, "no slots remain")
}

func TestCronJobRepository_FindByReleaseID_NotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.CronJobs.FindByReleaseID(t.Context(), "does-not-exist")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

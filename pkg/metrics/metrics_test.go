package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordTick(t *testing.T) {
	before := testutil.ToFloat64(TicksTotal)
	RecordTick(50 * time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(TicksTotal))
}

func TestRecordTaskExecution(t *testing.T) {
	before := testutil.ToFloat64(TasksExecutedTotal.WithLabelValues("fork_branch", "success"))
	RecordTaskExecution("fork_branch", "success", 10*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(TasksExecutedTotal.WithLabelValues("fork_branch", "success")))
}

func TestRecordProviderCall(t *testing.T) {
	before := testutil.ToFloat64(ProviderCallsTotal.WithLabelValues("github_actions", "error"))
	RecordProviderCall("github_actions", "error")
	assert.Equal(t, before+1, testutil.ToFloat64(ProviderCallsTotal.WithLabelValues("github_actions", "error")))
}

func TestRecordPause(t *testing.T) {
	before := testutil.ToFloat64(PausesTotal.WithLabelValues("task_failure"))
	RecordPause("task_failure")
	assert.Equal(t, before+1, testutil.ToFloat64(PausesTotal.WithLabelValues("task_failure")))
}

func TestSetActiveRunners(t *testing.T) {
	SetActiveRunners(7)
	assert.Equal(t, float64(7), testutil.ToFloat64(ActiveRunners))
	SetActiveRunners(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(ActiveRunners))
}

func TestRecordCallback(t *testing.T) {
	before := testutil.ToFloat64(CallbacksProcessedTotal.WithLabelValues("completed"))
	RecordCallback("completed")
	assert.Equal(t, before+1, testutil.ToFloat64(CallbacksProcessedTotal.WithLabelValues("completed")))
}

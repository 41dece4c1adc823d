package polling

import (
	"context"
	"log/slog"

	"github.com/dream-horizon/delivr/ent/build"
)

// pollPending scans every CI/CD build still waiting in a provider's queue
// and advances its workflow_status per spec.md §4.F's transition table.
// Missing data (no queue_location) fails that one build, not the pass.
func (p *Poller) pollPending(ctx context.Context) error {
	builds, err := p.store.Builds.FindCICDByWorkflowStatus(ctx, build.WorkflowStatusPending)
	if err != nil {
		return err
	}

	changedTasks := make(map[string]struct{})
	for _, b := range builds {
		changed, err := p.pollOnePending(ctx, b)
		if err != nil {
			slog.Warn("polling: pending check failed for build", "build_id", b.ID, "error", err)
			continue
		}
		if changed {
			changedTasks[b.TaskID] = struct{}{}
		}
	}

	return invokeCallbacks(ctx, p.callback, changedTasks)
}

func (p *Poller) pollOnePending(ctx context.Context, b *build.Build) (changed bool, err error) {
	if b.QueueLocation == nil || *b.QueueLocation == "" {
		return false, errMissingQueueLocation
	}

	cicd, providerType, err := p.cicdFor(b)
	if err != nil {
		return false, err
	}

	callCtx, cancel := p.callTimeout(ctx)
	defer cancel()

	var result queueResult
	callErr := p.breaker.CallContext(callCtx, providerType, func(c context.Context) error {
		res, err := cicd.GetQueueStatus(c, *b.QueueLocation)
		result = queueResult{started: res.Started, runID: res.RunID}
		return err
	})
	if callErr != nil {
		return false, callErr
	}

	if !result.started {
		return false, nil // still pending, nothing to persist
	}
	if result.runID == "" {
		return false, errMissingRunID
	}
	if err := p.store.Builds.SetRunID(ctx, b.ID, result.runID); err != nil {
		return false, err
	}
	return true, nil
}

type queueResult struct {
	started bool
	runID   string
}

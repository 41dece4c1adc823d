package statemachine

import (
	"context"
	"log/slog"

	"github.com/dream-horizon/delivr/ent"
	"github.com/dream-horizon/delivr/ent/cronjob"
)

// decideTransition runs when no stage is IN_PROGRESS on this tick. In
// practice the Service API (pkg/services, spec.md §4.H) flips a stage to
// IN_PROGRESS directly on startCronJob/triggerStage2/triggerStage3, and
// runStage1/runStage2 chain straight into the next stage's transition on
// the same tick they complete — so reaching here with work left to do
// would mean a stage finished without the chained transition firing.
// This is the defensive fallback for that case.
func (sm *StateMachine) decideTransition(ctx context.Context, rel *ent.Release, job *ent.CronJob) error {
	switch {
	case job.Stage1Status == cronjob.Stage1StatusCompleted && job.Stage2Status == cronjob.Stage2StatusPending:
		return sm.transitionFromStage1(ctx, rel, job)
	case job.Stage2Status == cronjob.Stage2StatusCompleted && job.Stage3Status == cronjob.Stage3StatusPending:
		return sm.transitionFromStage2(ctx, rel, job)
	default:
		slog.Debug("statemachine: no eligible transition", "release_id", rel.ID)
		return nil
	}
}

// Package services implements the thin Service API façade (spec.md
// §4.H): the small set of operator-facing operations — start/stop a
// release's cron, trigger a stage transition, pause/resume, retry a
// failed task, archive a release, and manual upload intake — that sit
// in front of the state machine and scheduler. It holds no business
// logic beyond request validation and wiring; the state machine and
// callback aggregator own the actual orchestration semantics.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dream-horizon/delivr/pkg/callback"
	"github.com/dream-horizon/delivr/pkg/clock"
	"github.com/dream-horizon/delivr/pkg/events"
	"github.com/dream-horizon/delivr/pkg/repositories"
)

var (
	// ErrAlreadyRunning mirrors pkg/scheduler.ErrAlreadyRunning at the
	// façade boundary, returned by StartCronJob for a release whose
	// cron is already running.
	ErrAlreadyRunning = errors.New("services: cron job already running")

	// ErrWrongStageState is returned when a stage-trigger operation's
	// preconditions on stage1/stage2/stage3 status aren't met.
	ErrWrongStageState = errors.New("services: release is not in the expected stage state")

	// ErrCherryPickPending is triggerStage3's error when the external
	// cherry-pick predicate reports pending cherry-picks and
	// forceApprove wasn't set (spec.md §8 S6: "Cherry pick status check failed").
	ErrCherryPickPending = errors.New("services: cherry pick status check failed")

	// ErrCyclesNotCompleted is triggerStage3's error when a regression
	// cycle is still open or scheduled (spec.md §8 S6: "Cycles not completed").
	ErrCyclesNotCompleted = errors.New("services: cycles not completed")

	// ErrTerminalRelease is returned by PauseRelease for a release
	// already COMPLETED or ARCHIVED.
	ErrTerminalRelease = errors.New("services: release is in a terminal state")

	// ErrNotPaused is returned by ResumeRelease for a release with no
	// active pause.
	ErrNotPaused = errors.New("services: release is not paused")

	// ErrMustRetryTask is ResumeRelease's refusal for a TASK_FAILURE
	// pause (spec.md §4.H: "must retry").
	ErrMustRetryTask = errors.New("services: release paused by task failure, call retryTask instead")

	// ErrMustTriggerStage is ResumeRelease's refusal for an
	// AWAITING_STAGE_TRIGGER pause (spec.md §4.H: "must call stage-trigger").
	ErrMustTriggerStage = errors.New("services: release awaiting a stage trigger")

	// ErrMustUploadManualBuild is ResumeRelease's refusal for an
	// AWAITING_MANUAL_BUILD pause.
	ErrMustUploadManualBuild = errors.New("services: release awaiting a manual build upload")

	// ErrTaskNotFailed is retryTask's refusal for a task not currently FAILED.
	ErrTaskNotFailed = errors.New("services: task is not failed")

	// ErrNotApprovable is approveTask's refusal for a task type that
	// isn't a manual approval gate, or one not currently awaiting approval.
	ErrNotApprovable = errors.New("services: task is not an approval gate awaiting approval")
)

// ValidationError wraps a field-specific request-validation failure,
// mirroring pkg/repositories.ValidationError at the façade boundary.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("services: validation error on field %q: %s", e.Field, e.Message)
}

// NewValidationError constructs a *ValidationError.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// SchedulerController is the subset of *pkg/scheduler.Scheduler the
// façade needs, narrowed to an interface so tests can stub it without a
// real per-release runner.
type SchedulerController interface {
	Start(ctx context.Context, releaseID string) error
	Stop(releaseID string)
	IsRunning(releaseID string) bool
}

// CherryPickChecker models the external ReleaseStatusService spec.md
// §4.H delegates triggerStage3's cherry-pick predicate to. This core
// never talks to that service directly; the composition root wires a
// concrete adapter (HTTP client, gRPC stub, or a stub that always
// reports false) satisfying this interface.
type CherryPickChecker interface {
	HasPendingCherryPicks(ctx context.Context, releaseID string) (bool, error)
}

// Service implements the Service API. It holds no state beyond its
// collaborators — every read and write goes through store, and every
// runner lifecycle change goes through scheduler, so two Service values
// constructed against the same Store and Scheduler are interchangeable.
type Service struct {
	store       *repositories.Store
	scheduler   SchedulerController
	cherryPicks CherryPickChecker
	callback    *callback.Aggregator
	events      *events.Publisher
	clock       clock.Clock
}

// New builds a Service. pub may be nil — every publish call is a safe
// no-op against a nil *events.Publisher.
func New(store *repositories.Store, scheduler SchedulerController, cherryPicks CherryPickChecker, cb *callback.Aggregator, pub *events.Publisher, clk clock.Clock) *Service {
	return &Service{
		store:       store,
		scheduler:   scheduler,
		cherryPicks: cherryPicks,
		callback:    cb,
		events:      pub,
		clock:       clk,
	}
}

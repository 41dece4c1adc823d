package executor

import (
	"context"
	"fmt"

	"github.com/dream-horizon/delivr/pkg/providers"
)

// handlePreKickOffReminder sends a best-effort notification and always
// completes synchronously — there is nothing to await.
func handlePreKickOffReminder(ctx context.Context, e *Executor, in Input) Result {
	notifier, err := e.providers.Notification(providers.ProviderSlack)
	if err != nil {
		return Result{Err: err}
	}

	message := fmt.Sprintf("Release %s kicks off soon (%s)", in.Release.ID, in.Release.KickOffDate.Format("2006-01-02 15:04"))
	if err := e.breaker.Call(providers.ProviderSlack, func() error {
		return notifier.Send(ctx, defaultChannels(in.Release), message)
	}); err != nil {
		return Result{Err: err}
	}
	return Result{Success: true}
}

// handleForkBranch creates the release branch from base_branch. Forking
// is not idempotent on externalId (a branch ref has no separate ID), so
// a retry simply re-attempts the fork; a provider that already has the
// branch returns a terminal error which surfaces as task failure, the
// same behavior the teacher's provider calls rely on for protocol-level
// conflicts.
func handleForkBranch(ctx context.Context, e *Executor, in Input) Result {
	scm, err := e.providers.SCM(providers.ProviderGitHubActions)
	if err != nil {
		return Result{Err: err}
	}

	if err := e.breaker.Call(providers.ProviderGitHubActions, func() error {
		return scm.ForkBranch(ctx, in.Release.BaseBranch, in.Release.ReleaseBranch)
	}); err != nil {
		return Result{Err: err}
	}
	return Result{Success: true}
}

// handleCreateProjectManagementTicket is idempotent: a task that already
// has external_id reuses it rather than creating a duplicate ticket
// (spec.md §4.C).
func handleCreateProjectManagementTicket(ctx context.Context, e *Executor, in Input) Result {
	if id, ok := alreadyHasExternalID(in.Task); ok {
		return Result{Success: true, ExternalID: &id}
	}

	pm, err := e.providers.ProjectMgmt(providers.ProviderJira)
	if err != nil {
		return Result{Err: err}
	}

	var projectID string
	if in.Release.ReleaseConfigID != nil {
		projectID = *in.Release.ReleaseConfigID
	}
	req := providers.TicketRequest{
		ProjectID:   projectID,
		Summary:     fmt.Sprintf("Release %s", in.Release.ReleaseBranch),
		Description: fmt.Sprintf("Tracking ticket for release %s, kicked off %s", in.Release.ID, in.Release.KickOffDate.Format("2006-01-02")),
	}

	var ticketID string
	if err := e.breaker.Call(providers.ProviderJira, func() error {
		id, err := pm.CreateTicket(ctx, req)
		ticketID = id
		return err
	}); err != nil {
		return Result{Err: err}
	}
	return Result{Success: true, ExternalID: &ticketID}
}

// handleCreateTestSuite is idempotent on external_id, matching
// CREATE_PROJECT_MANAGEMENT_TICKET.
func handleCreateTestSuite(ctx context.Context, e *Executor, in Input) Result {
	if id, ok := alreadyHasExternalID(in.Task); ok {
		return Result{Success: true, ExternalID: &id}
	}

	tm, err := e.providers.TestMgmt(providers.ProviderCheckmate)
	if err != nil {
		return Result{Err: err}
	}

	var suiteID string
	if err := e.breaker.Call(providers.ProviderCheckmate, func() error {
		id, err := tm.CreateTestSuite(ctx, in.Release.ID, fmt.Sprintf("%s regression suite", in.Release.ReleaseBranch))
		suiteID = id
		return err
	}); err != nil {
		return Result{Err: err}
	}
	return Result{Success: true, ExternalID: &suiteID}
}

func defaultChannels(release any) []string {
	// Every release posts to the same fixed channel; the release's
	// ReleaseConfig (and any notification channels it names) is not
	// consulted.
	return []string{"release-notifications"}
}

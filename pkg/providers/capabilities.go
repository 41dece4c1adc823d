// Package providers defines the six capability interfaces the task executor
// and state machine call against, independent of which concrete external
// system answers them, plus a static registry resolving a release's
// provider type strings to the right implementation.
package providers

import (
	"context"

	"github.com/dream-horizon/delivr/pkg/models"
)

// SCM is source-control: branch forking and tag creation (spec.md §4.B
// task types fork_branch, create_release_tag).
type SCM interface {
	ForkBranch(ctx context.Context, baseBranch, newBranch string) error
	CreateTag(ctx context.Context, branch, tag string) error
}

// CICD triggers build workflows and reports their queue/run status. Each
// TriggerBuild call covers the one platform named in its request; the
// executor issues one call per platform (spec.md §4.C).
type CICD interface {
	TriggerBuild(ctx context.Context, req BuildTriggerRequest) (models.QueueStatusResult, error)
	GetQueueStatus(ctx context.Context, location string) (models.QueueStatusResult, error)
	GetBuildStatus(ctx context.Context, runID string) (models.BuildStatusResult, error)
}

// BuildTriggerRequest is the input to CICD.TriggerBuild.
type BuildTriggerRequest struct {
	Branch       string
	Platform     models.Platform
	WorkflowName string
	Params       map[string]string
}

// ProjectMgmt is ticket tracking (create_project_management_ticket).
type ProjectMgmt interface {
	CreateTicket(ctx context.Context, req TicketRequest) (externalID string, err error)
}

// TicketRequest is the input to ProjectMgmt.CreateTicket.
type TicketRequest struct {
	ProjectID   string
	Summary     string
	Description string
}

// TestMgmt is test-suite and test-run management (create_test_suite,
// create_test_suite_run).
type TestMgmt interface {
	CreateTestSuite(ctx context.Context, projectID, name string) (externalID string, err error)
	CreateTestRun(ctx context.Context, suiteID, name string) (externalID string, err error)
}

// Notification sends ad-hoc and stage-transition messages (spec.md §4.B
// task type ad_hoc_notification, plus internal notifications on pause).
type Notification interface {
	Send(ctx context.Context, channels []string, message string) error
}

// Store is app-distribution: TestFlight/Play Store upload verification and
// version mapping (trigger_test_flight_build, create_aab_build,
// testflight_build_verified).
type Store interface {
	UploadBuild(ctx context.Context, req UploadRequest) error
	VerifyBuild(ctx context.Context, platform models.Platform, version string) (bool, error)
}

// UploadRequest is the input to Store.UploadBuild.
type UploadRequest struct {
	Platform     models.Platform
	Target       models.Target
	Version      string
	ArtifactPath string
}

package models

import "time"

// PlatformVersion pairs a platform with the version string a build produced
// for it, the input to generatePlatformVersionString (spec.md §4.C).
type PlatformVersion struct {
	Platform Platform
	Version  string
}

// StartCronJobInput is the payload for the Service API's startCronJob
// operation (spec.md §4.H).
type StartCronJobInput struct {
	ReleaseID       string
	KickOffDate     time.Time
	TargetDate      *time.Time
	CronConfig      map[string]bool
	ReleaseConfigID *string
}

// TriggerStage2Input is the payload for the Service API's triggerStage2
// operation (spec.md §4.H).
type TriggerStage2Input struct {
	ReleaseID string
	TenantID  string
}

// TriggerStage3Input is the payload for the Service API's triggerStage3
// operation (spec.md §4.H), including the forceApprove escape hatch that
// bypasses the cherry-pick and open-cycle predicates.
type TriggerStage3Input struct {
	ReleaseID    string
	TenantID     string
	ApprovedBy   string
	Comments     *string
	ForceApprove bool
}

// ManualUploadInput is the payload accepted from an operator-facing manual
// build upload endpoint (spec.md §4.G).
type ManualUploadInput struct {
	TenantID     string
	ReleaseID    string
	Platform     Platform
	Stage        UploadStage
	ArtifactPath string
}

// RetryTaskInput identifies a single failed task to retry via the Service
// API's retryTask operation.
type RetryTaskInput struct {
	ReleaseID string
	TaskID    string
}

// QueueStatusResult is the normalized result of a CICD.GetQueueStatus call,
// independent of which concrete provider answered it.
type QueueStatusResult struct {
	Started  bool
	RunID    string
	Location string
}

// BuildStatusResult is the normalized result of a CICD.GetBuildStatus call.
type BuildStatusResult struct {
	Status       WorkflowStatus
	ArtifactPath string
}

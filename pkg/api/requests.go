package api

import "time"

// CreateReleaseRequest is the HTTP request body for POST /releases.
type CreateReleaseRequest struct {
	TenantID             string     `json:"tenant_id" binding:"required"`
	ReleaseBranch        string     `json:"release_branch" binding:"required"`
	BaseBranch           string     `json:"base_branch" binding:"required"`
	Type                 string     `json:"type" binding:"required"`
	KickOffDate          time.Time  `json:"kick_off_date" binding:"required"`
	TargetReleaseDate    *time.Time `json:"target_release_date"`
	HasManualBuildUpload bool       `json:"has_manual_build_upload"`
	ReleaseConfigID      *string    `json:"release_config_id"`
	CreatedBy            string     `json:"created_by" binding:"required"`
}

// StartCronJobRequest is the HTTP request body for POST /releases/:id/cron.
type StartCronJobRequest struct {
	KickOffDate     time.Time      `json:"kick_off_date" binding:"required"`
	TargetDate      *time.Time     `json:"target_date"`
	CronConfig      map[string]bool `json:"cron_config"`
	ReleaseConfigID *string        `json:"release_config_id"`
}

// TenantScopedRequest is the common body for operations that must assert
// the caller's tenant matches the release's, e.g. pause/resume/stage gates.
type TenantScopedRequest struct {
	TenantID string `json:"tenant_id" binding:"required"`
}

// ArchiveReleaseRequest is the HTTP request body for POST /releases/:id/archive.
type ArchiveReleaseRequest struct {
	AccountID string `json:"account_id" binding:"required"`
}

// TriggerStage3Request is the HTTP request body for POST /releases/:id/stage3.
type TriggerStage3Request struct {
	TenantID     string  `json:"tenant_id" binding:"required"`
	ApprovedBy   string  `json:"approved_by" binding:"required"`
	Comments     *string `json:"comments"`
	ForceApprove bool    `json:"force_approve"`
}

// ApproveTaskRequest is the HTTP request body for POST /tasks/:id/approve.
type ApproveTaskRequest struct {
	AccountID string `json:"account_id" binding:"required"`
}

// ManualUploadRequest is the HTTP request body for POST /releases/:id/uploads.
type ManualUploadRequest struct {
	TenantID     string `json:"tenant_id" binding:"required"`
	Platform     string `json:"platform" binding:"required"`
	Stage        string `json:"stage" binding:"required"`
	ArtifactPath string `json:"artifact_path" binding:"required"`
}

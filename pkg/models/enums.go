// Package models holds the plain request/response types and wire-stable
// enums the core's components pass between each other, independent of any
// single ent entity's generated enum type. Repositories convert to/from
// the ent-generated types at the storage boundary (see pkg/repositories).
package models

// Platform is one of the three build/target platforms (spec.md §6).
type Platform string

// Platform values, wire-stable.
const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
	PlatformWeb     Platform = "web"
)

// Target is a distribution target for a PlatformTargetMapping row.
type Target string

// Target values.
const (
	TargetAppStore  Target = "app_store"
	TargetPlayStore Target = "play_store"
	TargetWeb       Target = "web"
)

// TaskType is the stable task-type enum from spec.md §6.
type TaskType string

// Task type catalogue.
const (
	TaskPreKickOffReminder        TaskType = "pre_kick_off_reminder"
	TaskForkBranch                TaskType = "fork_branch"
	TaskCreateProjectMgmtTicket   TaskType = "create_project_management_ticket"
	TaskCreateTestSuite           TaskType = "create_test_suite"
	TaskTriggerPreRegressionBuild TaskType = "trigger_pre_regression_builds"
	TaskTriggerRegressionBuilds   TaskType = "trigger_regression_builds"
	TaskCreateTestSuiteRun        TaskType = "create_test_suite_run"
	TaskRegressionStageApproval   TaskType = "regression_stage_approval"
	TaskCreateReleaseTag          TaskType = "create_release_tag"
	TaskTriggerTestFlightBuild    TaskType = "trigger_test_flight_build"
	TaskCreateAABBuild            TaskType = "create_aab_build"
	TaskTestFlightBuildVerified   TaskType = "testflight_build_verified"
	TaskPreReleaseStageApproval   TaskType = "pre_release_stage_approval"
	TaskPlatformStoreUploads      TaskType = "platform_store_uploads"
	TaskAdHocNotification         TaskType = "ad_hoc_notification"
)

// Stage is the coarse stage a ReleaseTask belongs to.
type Stage string

// Stage values.
const (
	StageKickoff        Stage = "kickoff"
	StageRegression     Stage = "regression"
	StagePostRegression Stage = "post_regression"
)

// TaskStatus is the wire-stable task status enum from spec.md §6.
type TaskStatus string

// Task status values.
const (
	TaskStatusPending             TaskStatus = "pending"
	TaskStatusInProgress          TaskStatus = "in_progress"
	TaskStatusAwaitingCallback    TaskStatus = "awaiting_callback"
	TaskStatusAwaitingManualBuild TaskStatus = "awaiting_manual_build"
	TaskStatusCompleted           TaskStatus = "completed"
	TaskStatusFailed              TaskStatus = "failed"
	TaskStatusSkipped             TaskStatus = "skipped"
)

// IsTerminal reports whether a task status can no longer be reopened by a
// later poller update (§5 shared-resource policy).
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusSkipped:
		return true
	default:
		return false
	}
}

// CronStatus is the wire-stable CronJob status enum.
type CronStatus string

// Cron status values.
const (
	CronStatusPending   CronStatus = "pending"
	CronStatusRunning   CronStatus = "running"
	CronStatusPaused    CronStatus = "paused"
	CronStatusCompleted CronStatus = "completed"
)

// StageStatus is the wire-stable per-stage status enum.
type StageStatus string

// Stage status values.
const (
	StageStatusPending    StageStatus = "pending"
	StageStatusInProgress StageStatus = "in_progress"
	StageStatusCompleted  StageStatus = "completed"
)

// PauseType is the wire-stable pause-reason enum.
type PauseType string

// Pause type values.
const (
	PauseNone                 PauseType = "none"
	PauseUserRequested        PauseType = "user_requested"
	PauseTaskFailure          PauseType = "task_failure"
	PauseAwaitingStageTrigger PauseType = "awaiting_stage_trigger"
	PauseAwaitingManualBuild  PauseType = "awaiting_manual_build"
)

// ReleaseStatus is the wire-stable Release status enum.
type ReleaseStatus string

// Release status values.
const (
	ReleaseStatusInProgress ReleaseStatus = "in_progress"
	ReleaseStatusPaused     ReleaseStatus = "paused"
	ReleaseStatusCompleted  ReleaseStatus = "completed"
	ReleaseStatusArchived   ReleaseStatus = "archived"
)

// UploadStage is the wire-stable stage enum ReleaseUpload rows are keyed by.
type UploadStage string

// Upload stage values.
const (
	UploadStageKickOff    UploadStage = "kick_off"
	UploadStageRegression UploadStage = "regression"
	UploadStagePreRelease UploadStage = "pre_release"
)

// WorkflowStatus is the wire-stable Build.workflow_status enum.
type WorkflowStatus string

// Workflow status values.
const (
	WorkflowPending   WorkflowStatus = "pending"
	WorkflowRunning   WorkflowStatus = "running"
	WorkflowCompleted WorkflowStatus = "completed"
	WorkflowFailed    WorkflowStatus = "failed"
)

// BuildUploadStatus is the wire-stable Build.build_upload_status enum.
type BuildUploadStatus string

// Build upload status values.
const (
	BuildUploadPending  BuildUploadStatus = "pending"
	BuildUploadUploaded BuildUploadStatus = "uploaded"
	BuildUploadFailed   BuildUploadStatus = "failed"
)

// BuildType distinguishes CI/CD-triggered from manually-uploaded builds.
type BuildType string

// Build type values.
const (
	BuildTypeCICD   BuildType = "cicd"
	BuildTypeManual BuildType = "manual"
)

// CIRunType is the CI/CD provider that produced a Build.
type CIRunType string

// CI run type values.
const (
	CIRunJenkins       CIRunType = "jenkins"
	CIRunGitHubActions CIRunType = "github_actions"
	CIRunCircleCI      CIRunType = "circle_ci"
	CIRunGitLabCI      CIRunType = "gitlab_ci"
)

// TaskBuildStatus is the aggregate computed over a task's Build rows by
// the Build Callback Aggregator (spec.md §4.G).
type TaskBuildStatus string

// Task build status values.
const (
	TaskBuildNoBuilds TaskBuildStatus = "no_builds"
	TaskBuildFailed   TaskBuildStatus = "failed"
	TaskBuildPending  TaskBuildStatus = "pending"
	TaskBuildRunning  TaskBuildStatus = "running"
	TaskBuildComplete TaskBuildStatus = "completed"
)

// ReleaseType is the Release.type enum.
type ReleaseType string

// Release type values.
const (
	ReleaseTypePlanned ReleaseType = "planned"
	ReleaseTypeHotfix  ReleaseType = "hotfix"
	ReleaseTypeMajor   ReleaseType = "major"
	ReleaseTypeMinor   ReleaseType = "minor"
)

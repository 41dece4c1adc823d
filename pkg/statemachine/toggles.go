package statemachine

// Feature toggle keys read from CronJob.CronConfig (spec.md §3's
// "cronConfig: map of feature toggles"). The Service API's create path
// resolves a release's full toggle set (ReleaseConfig template merged
// with per-release overrides) before writing CronJob, so every key below
// is expected to be present; a missing key defaults to disabled rather
// than silently running a task nobody asked for.
const (
	toggleKickOffReminder         = "kick_off_reminder"
	toggleProjectManagementTicket = "project_management_ticket"
	toggleTestSuite               = "test_suite"
	togglePreRegressionBuilds     = "pre_regression_builds"
	toggleAutomationBuilds        = "automation_builds"
	toggleAutomationRuns          = "automation_runs"
	toggleRegressionStageApproval = "regression_stage_approval"
	toggleTestFlightBuilds        = "test_flight_builds"
	togglePreReleaseStageApproval = "pre_release_stage_approval"
	toggleAdHocNotification       = "ad_hoc_notification"
)

func toggleEnabled(cfg map[string]bool, key string) bool {
	return cfg[key]
}

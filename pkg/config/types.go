// Package config loads and validates delivr's YAML configuration: provider
// endpoints, per-template ReleaseConfig documents, and the scheduler/queue
// tunables the state machine and pollers read on every tick.
package config

import "time"

// Document is the parsed root delivr.yaml.
type Document struct {
	Scheduler     SchedulerConfig            `yaml:"scheduler" validate:"required"`
	Polling       PollingConfig              `yaml:"polling" validate:"required"`
	Providers     ProvidersConfig            `yaml:"providers"`
	ReleaseConfig map[string]ReleaseTemplate `yaml:"release_configs"`
}

// SchedulerConfig controls the per-release cron loop (§4.E) and the
// time-window gating pure functions in pkg/clock consume (§9 open question 1).
type SchedulerConfig struct {
	TickInterval       time.Duration `yaml:"tick_interval" validate:"required"`
	SlotMatchWindow    time.Duration `yaml:"slot_match_window" validate:"required"`
	ProviderTimeout    time.Duration `yaml:"provider_timeout" validate:"required"`
	MaxConcurrentTicks int           `yaml:"max_concurrent_ticks" validate:"required"`
}

// PollingConfig controls the pending/running workflow pollers (§4.F).
type PollingConfig struct {
	PendingPollInterval time.Duration `yaml:"pending_poll_interval" validate:"required"`
	RunningPollInterval time.Duration `yaml:"running_poll_interval" validate:"required"`
	StatusCallTimeout   time.Duration `yaml:"status_call_timeout" validate:"required"`
}

// ProvidersConfig groups the six provider capabilities' connection details.
// Secrets are expanded from the environment by ExpandEnv before parsing.
type ProvidersConfig struct {
	GitHub    GitHubConfig    `yaml:"github"`
	Jenkins   JenkinsConfig   `yaml:"jenkins"`
	Jira      JiraConfig      `yaml:"jira"`
	Checkmate CheckmateConfig `yaml:"checkmate"`
	Slack     SlackConfig     `yaml:"slack"`
	Store     StoreConfig     `yaml:"store"`
}

// GitHubConfig configures the SCM + GitHub Actions CICD capability.
type GitHubConfig struct {
	Token   string `yaml:"token"`
	Owner   string `yaml:"owner"`
	Repo    string `yaml:"repo"`
	BaseURL string `yaml:"base_url"` // set for GitHub Enterprise
}

// JenkinsConfig configures the Jenkins CICD capability.
type JenkinsConfig struct {
	BaseURL  string `yaml:"base_url"`
	User     string `yaml:"user"`
	APIToken string `yaml:"api_token"`
}

// JiraConfig configures the ProjectMgmt capability.
type JiraConfig struct {
	BaseURL  string `yaml:"base_url"`
	User     string `yaml:"user"`
	APIToken string `yaml:"api_token"`
}

// CheckmateConfig configures the TestMgmt capability.
type CheckmateConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// SlackConfig configures the Notification capability.
type SlackConfig struct {
	Token   string `yaml:"token"`
	Channel string `yaml:"channel"`
}

// StoreConfig configures the App Store Connect / Play Store capability.
type StoreConfig struct {
	AppStoreBaseURL  string `yaml:"app_store_base_url"`
	AppStoreAPIKey   string `yaml:"app_store_api_key"`
	PlayStoreBaseURL string `yaml:"play_store_base_url"`
	PlayStoreAPIKey  string `yaml:"play_store_api_key"`
}

// ReleaseTemplate is a named ReleaseConfig document loaded from YAML.
// MergeTemplate/ResolveTemplate merge an override onto it via
// dario.cat/mergo; cmd/delivr does not call them, and release creation
// reads toggle defaults from the DB-resident ReleaseConfig row instead.
type ReleaseTemplate struct {
	CIConfigID             string            `yaml:"ci_config_id"`
	TestMgmtID              string            `yaml:"test_mgmt_id"`
	PMIDsByPlatform         map[string]string `yaml:"pm_ids_by_platform"`
	NotificationChannels    []string          `yaml:"notification_channels"`
	FeatureToggleDefaults   map[string]bool   `yaml:"feature_toggle_defaults"`
	KickOffReminderOffset   time.Duration     `yaml:"kick_off_reminder_offset"`
}

package config

import "time"

// Defaults returns the built-in configuration, merged under whatever the
// operator supplies in delivr.yaml (user values win).
func Defaults() *Document {
	return &Document{
		Scheduler: SchedulerConfig{
			TickInterval:       10 * time.Second,
			SlotMatchWindow:    5 * time.Minute,
			ProviderTimeout:    8 * time.Second,
			MaxConcurrentTicks: 16,
		},
		Polling: PollingConfig{
			PendingPollInterval: 20 * time.Second,
			RunningPollInterval: 30 * time.Second,
			StatusCallTimeout:   8 * time.Second,
		},
		ReleaseConfig: map[string]ReleaseTemplate{},
	}
}

package repositories

import "github.com/dream-horizon/delivr/ent"

// Store groups every repository the composition root constructs once
// from a single ent.Client and passes explicitly to the executor, state
// machine, scheduler, pollers, and service façade (spec.md §9 redesign
// note: no process-wide service locator).
type Store struct {
	Releases        *ReleaseRepository
	CronJobs        *CronJobRepository
	Tasks           *ReleaseTaskRepository
	Cycles          *RegressionCycleRepository
	Builds          *BuildRepository
	Uploads         *ReleaseUploadRepository
	PlatformTargets *PlatformTargetMappingRepository
	ReleaseConfigs  *ReleaseConfigRepository
}

// NewStore builds every repository against client.
func NewStore(client *ent.Client) *Store {
	return &Store{
		Releases:        NewReleaseRepository(client),
		CronJobs:        NewCronJobRepository(client),
		Tasks:           NewReleaseTaskRepository(client),
		Cycles:          NewRegressionCycleRepository(client),
		Builds:          NewBuildRepository(client),
		Uploads:         NewReleaseUploadRepository(client),
		PlatformTargets: NewPlatformTargetMappingRepository(client),
		ReleaseConfigs:  NewReleaseConfigRepository(client),
	}
}

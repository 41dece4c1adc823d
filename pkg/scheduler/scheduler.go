// Package scheduler implements the per-release cron loop (spec.md §4.E):
// one logical runner per active release, ticking that release's State
// Machine on a fixed cadence, started by the Service API's startCronJob
// and stopped by stopCronJob.
package scheduler

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/dream-horizon/delivr/pkg/config"
	"github.com/dream-horizon/delivr/pkg/metrics"
	"github.com/dream-horizon/delivr/pkg/repositories"
	"github.com/dream-horizon/delivr/pkg/statemachine"
)

// Scheduler owns the registry of running per-release runners, grounded on
// the teacher's WorkerPool active-session registry
// (pkg/queue/pool.go:activeSessions): a map of release ID to the
// runner driving it, guarded by a mutex for concurrent Start/Stop calls.
// Runners share one weighted semaphore so that, per spec.md §5, "ticks
// run concurrently on a shared worker pool" rather than each runner
// spawning its provider/database calls unboundedly.
type Scheduler struct {
	store *repositories.Store
	sm    *statemachine.StateMachine
	cfg   config.SchedulerConfig
	sem   *semaphore.Weighted

	mu      sync.Mutex
	runners map[string]*runner
}

// New builds a Scheduler. Nothing runs until Start or Reconcile is called.
func New(store *repositories.Store, sm *statemachine.StateMachine, cfg config.SchedulerConfig) *Scheduler {
	return &Scheduler{
		store:   store,
		sm:      sm,
		cfg:     cfg,
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrentTicks)),
		runners: make(map[string]*runner),
	}
}

// Start begins ticking releaseID on the configured cadence. It fails if a
// runner for this release is already running (spec.md §4.H startCronJob:
// "fails if already running").
func (s *Scheduler) Start(ctx context.Context, releaseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runners[releaseID]; ok {
		return ErrAlreadyRunning
	}

	r := newRunner(releaseID, s.sm, s.cfg.TickInterval, s.sem)
	s.runners[releaseID] = r
	r.start(ctx)
	metrics.SetActiveRunners(len(s.runners))
	slog.Info("scheduler: runner started", "release_id", releaseID)
	return nil
}

// Stop halts releaseID's runner and waits for its in-flight tick, if any,
// to finish. A release with no running runner is a no-op — stopCronJob
// is idempotent at the Service API layer.
func (s *Scheduler) Stop(releaseID string) {
	s.mu.Lock()
	r, ok := s.runners[releaseID]
	if ok {
		delete(s.runners, releaseID)
	}
	count := len(s.runners)
	s.mu.Unlock()

	if !ok {
		return
	}
	metrics.SetActiveRunners(count)
	r.stop()
	slog.Info("scheduler: runner stopped", "release_id", releaseID)
}

// IsRunning reports whether a runner for releaseID is currently active.
func (s *Scheduler) IsRunning(releaseID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.runners[releaseID]
	return ok
}

// Reconcile starts a runner for every CronJob the database says is
// runnable but this process has no runner for yet — the process-startup
// recovery path (after a restart, every in-progress release's runner
// must resume without an operator having to call startCronJob again).
func (s *Scheduler) Reconcile(ctx context.Context) error {
	jobs, err := s.store.CronJobs.FindRunnable(ctx)
	if err != nil {
		return err
	}
	for _, job := range jobs {
		if !s.IsRunning(job.ReleaseID) {
			if err := s.Start(ctx, job.ReleaseID); err != nil && err != ErrAlreadyRunning {
				slog.Error("scheduler: reconcile start failed", "release_id", job.ReleaseID, "error", err)
			}
		}
	}
	return nil
}

// Shutdown stops every running runner, draining each one's in-flight
// tick before returning — graceful process shutdown (spec.md §4.E).
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	runners := make([]*runner, 0, len(s.runners))
	for id, r := range s.runners {
		runners = append(runners, r)
		delete(s.runners, id)
	}
	s.mu.Unlock()

	for _, r := range runners {
		r.stop()
	}
	slog.Info("scheduler: shutdown complete", "runners_drained", len(runners))
}

// Health reports how many per-release runners are currently registered.
func (s *Scheduler) Health() Health {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Health{ActiveRunners: len(s.runners)}
}

// Health is the scheduler's process-health snapshot.
type Health struct {
	ActiveRunners int
}

package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/dream-horizon/delivr/pkg/metrics"
	"github.com/dream-horizon/delivr/pkg/statemachine"
)

// ErrAlreadyRunning is returned by Scheduler.Start for a release that
// already has a runner.
var ErrAlreadyRunning = errors.New("scheduler: runner already running")

// runner drives one release's ticks on a fixed cadence. Grounded on the
// teacher's queue.Worker run loop (pkg/queue/worker.go): a stopCh/wg pair
// for graceful shutdown, ticks dispatched into their own goroutine so a
// slow provider call never delays the runner's responsiveness to Stop.
type runner struct {
	releaseID string
	sm        *statemachine.StateMachine
	interval  time.Duration
	sem       *semaphore.Weighted

	sf singleflight.Group

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newRunner(releaseID string, sm *statemachine.StateMachine, interval time.Duration, sem *semaphore.Weighted) *runner {
	return &runner{
		releaseID: releaseID,
		sm:        sm,
		interval:  interval,
		sem:       sem,
		stopCh:    make(chan struct{}),
	}
}

func (r *runner) start(ctx context.Context) {
	r.wg.Add(1)
	go r.loop(ctx)
}

// stop signals the loop to exit and waits for the loop goroutine and any
// tick it dispatched to finish — the runner never abandons a tick mid-flight.
func (r *runner) stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
}

func (r *runner) loop(ctx context.Context) {
	defer r.wg.Done()

	log := slog.With("release_id", r.releaseID)
	log.Info("runner started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	var tickWg sync.WaitGroup
	defer tickWg.Wait()

	for {
		select {
		case <-r.stopCh:
			log.Info("runner stopping")
			return
		case <-ctx.Done():
			log.Info("runner context cancelled")
			return
		case <-ticker.C:
			tickWg.Add(1)
			go func() {
				defer tickWg.Done()
				r.tick(ctx)
			}()
		}
	}
}

// tick runs one State Machine execution for this release, single-flighted
// against any tick still in progress (spec.md §4.E) and bounded by the
// scheduler-wide semaphore (spec.md §5's "shared worker pool") so a burst
// of due releases can't open unbounded concurrent provider/database
// calls. Errors are caught and swallowed — a failed tick must never stop
// the runner.
func (r *runner) tick(ctx context.Context) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return // ctx cancelled while waiting for a slot; runner is shutting down
	}
	defer r.sem.Release(1)

	start := time.Now()
	_, err, shared := r.sf.Do("tick", func() (any, error) {
		return nil, r.sm.Execute(ctx, r.releaseID)
	})
	if shared {
		slog.Debug("scheduler: tick dropped, previous tick still in flight", "release_id", r.releaseID)
		return
	}
	metrics.RecordTick(time.Since(start))
	if err != nil {
		slog.Warn("scheduler: tick failed, will retry next interval", "release_id", r.releaseID, "error", err)
	}
}

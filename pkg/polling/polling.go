// Package polling implements the two workflow pollers spec.md §4.F
// describes: a pending poller that watches queued CI/CD builds for a
// queue position to resolve, and a running poller that watches started
// builds for completion. Both run as fixed-interval background loops,
// grounded on the same run-loop shape as pkg/scheduler's per-release
// runner (itself grounded on the teacher's pkg/queue/worker.go).
package polling

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dream-horizon/delivr/ent/build"
	"github.com/dream-horizon/delivr/pkg/config"
	"github.com/dream-horizon/delivr/pkg/providers"
	"github.com/dream-horizon/delivr/pkg/repositories"
)

var errNoCIRunType = errors.New("polling: cicd build has no ci_run_type recorded")

// CallbackInvoker is the subset of the Build Callback Aggregator the
// pollers need: invoke processCallback once per distinct task whose
// builds changed this pass.
type CallbackInvoker interface {
	ProcessCallback(ctx context.Context, taskID string) error
}

// Poller runs the pending and running build pollers on their own
// cadences. Both are started and stopped together — spec.md ties their
// lifecycle to a release's polling jobs, but in this single-process
// deployment they scan globally across every release rather than one job
// per release (see DESIGN.md).
type Poller struct {
	store    *repositories.Store
	registry *providers.Registry
	breaker  *providers.BreakerManager
	callback CallbackInvoker
	cfg      config.PollingConfig

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New builds a Poller. Nothing runs until Start is called.
func New(store *repositories.Store, registry *providers.Registry, breaker *providers.BreakerManager, callback CallbackInvoker, cfg config.PollingConfig) *Poller {
	return &Poller{
		store:    store,
		registry: registry,
		breaker:  breaker,
		callback: callback,
		cfg:      cfg,
		stopCh:   make(chan struct{}),
	}
}

// Start launches both poller loops in the background.
func (p *Poller) Start(ctx context.Context) {
	p.wg.Add(2)
	go p.loop(ctx, "pending", p.cfg.PendingPollInterval, p.pollPending)
	go p.loop(ctx, "running", p.cfg.RunningPollInterval, p.pollRunning)
	slog.Info("polling: started", "pending_interval", p.cfg.PendingPollInterval, "running_interval", p.cfg.RunningPollInterval)
}

// Stop signals both loops to exit and waits for the in-flight pass, if
// any, to finish.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()
	slog.Info("polling: stopped")
}

func (p *Poller) loop(ctx context.Context, name string, interval time.Duration, pass func(context.Context) error) {
	defer p.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := pass(ctx); err != nil {
				slog.Error("polling: pass failed", "poller", name, "error", err)
			}
		}
	}
}

// callTimeout bounds each provider status call (spec.md §5: "status calls
// ≤ 8s"), independent of the poll interval.
func (p *Poller) callTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, p.cfg.StatusCallTimeout)
}

// cicdFor resolves the CICD provider a build was triggered through. A
// build with no ci_run_type recorded is a programmer error — only
// build_type=manual builds skip it, and the pollers only ever look at
// build_type=cicd rows.
func (p *Poller) cicdFor(b *build.Build) (providers.CICD, providers.ProviderType, error) {
	if b.CiRunType == nil {
		return nil, "", errNoCIRunType
	}
	pt := ciRunTypeToProviderType(*b.CiRunType)
	impl, err := p.registry.CICD(pt)
	return impl, pt, err
}

func ciRunTypeToProviderType(t build.CiRunType) providers.ProviderType {
	switch t {
	case build.CiRunTypeGithubActions:
		return providers.ProviderGitHubActions
	case build.CiRunTypeJenkins:
		return providers.ProviderJenkins
	default:
		return providers.ProviderGitHubActions
	}
}

package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/dream-horizon/delivr/pkg/metrics"
)

// BreakerManager holds one circuit breaker per provider type, so a single
// flaky CI integration can't exhaust the scheduler's tick budget retrying
// a provider that is down while other providers keep working.
type BreakerManager struct {
	breakers map[ProviderType]*gobreaker.CircuitBreaker
}

// NewBreakerManager builds a BreakerManager. Each provider type gets a
// breaker that opens after 3 consecutive failures and stays open for 30s
// before allowing a single trial request through.
func NewBreakerManager() *BreakerManager {
	return &BreakerManager{breakers: make(map[ProviderType]*gobreaker.CircuitBreaker)}
}

func (m *BreakerManager) breakerFor(t ProviderType) *gobreaker.CircuitBreaker {
	if b, ok := m.breakers[t]; ok {
		return b
	}
	b := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        string(t),
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	m.breakers[t] = b
	return b
}

// Call executes fn through the breaker for provider type t. A tripped
// breaker returns gobreaker.ErrOpenState without invoking fn, which
// ClassifyError treats as a transient failure (RetryNextTick).
func (m *BreakerManager) Call(t ProviderType, fn func() error) error {
	_, err := m.breakerFor(t).Execute(func() (any, error) {
		return nil, fn()
	})
	if err != nil {
		metrics.RecordProviderCall(string(t), "error")
		return fmt.Errorf("provider %s: %w", t, err)
	}
	metrics.RecordProviderCall(string(t), "success")
	return nil
}

// CallContext is Call for functions needing ctx for cancellation checks
// before invoking fn.
func (m *BreakerManager) CallContext(ctx context.Context, t ProviderType, fn func(context.Context) error) error {
	return m.Call(t, func() error { return fn(ctx) })
}

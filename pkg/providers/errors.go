package providers

import (
	"context"
	"errors"
	"net"

	"github.com/sony/gobreaker"
)

// RecoveryAction determines how a task executor should react to a
// provider call failure.
type RecoveryAction int

const (
	// NoRetry means the error is terminal: the task moves to failed.
	NoRetry RecoveryAction = iota
	// RetryNextTick means the error looks transient; leave the task in its
	// current status and let the next scheduler tick attempt it again.
	RetryNextTick
)

// ErrUnknownProviderType is returned by Registry lookups for a provider
// type string no adapter is registered under. Unknown providers must be
// rejected explicitly, never silently skipped.
var ErrUnknownProviderType = errors.New("providers: unknown provider type")

// ClassifyError determines the recovery action for a capability call
// error. An open circuit breaker and network-level failures (connection
// refused/reset, DNS failure) are treated as transient; everything else —
// including timeouts, since a
// provider call that timed out may have partially succeeded server-side —
// is terminal and surfaces to the operator via task_status=failed.
func ClassifyError(err error) RecoveryAction {
	if err == nil {
		return NoRetry
	}
	if errors.Is(err, context.Canceled) {
		return NoRetry
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return RetryNextTick
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return NoRetry
		}
		return RetryNextTick
	}

	if errors.Is(err, net.ErrClosed) {
		return RetryNextTick
	}

	return NoRetry
}

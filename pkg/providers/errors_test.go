package providers

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
)

type fakeTimeoutError struct{ timeout bool }

func (e fakeTimeoutError) Error() string   { return "fake net error" }
func (e fakeTimeoutError) Timeout() bool   { return e.timeout }
func (e fakeTimeoutError) Temporary() bool { return !e.timeout }

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want RecoveryAction
	}{
		{"nil error", nil, NoRetry},
		{"context canceled", context.Canceled, NoRetry},
		{"breaker open", gobreaker.ErrOpenState, RetryNextTick},
		{"too many requests", gobreaker.ErrTooManyRequests, RetryNextTick},
		{"wrapped breaker open", fmtWrap(gobreaker.ErrOpenState), RetryNextTick},
		{"net timeout", fakeTimeoutError{timeout: true}, NoRetry},
		{"net non-timeout", fakeTimeoutError{timeout: false}, RetryNextTick},
		{"closed connection", net.ErrClosed, RetryNextTick},
		{"generic error", errors.New("boom"), NoRetry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}

func fmtWrap(err error) error {
	return errWrap{err}
}

type errWrap struct{ err error }

func (e errWrap) Error() string { return "wrapped: " + e.err.Error() }
func (e errWrap) Unwrap() error { return e.err }

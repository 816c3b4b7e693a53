package executor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrQueryTimeout is returned when an operation outlives its deadline. A
// failing cancellation hook never replaces this error.
var ErrQueryTimeout = errors.New("query timed out")

// CancelFunc is a provider-specific cancellation hook invoked when an
// operation times out. Providers without cancellation support use NopCancel.
type CancelFunc func(context.Context) error

// NopCancel is the cancellation hook for providers that cannot cancel.
func NopCancel(context.Context) error { return nil }

// cancelHookTimeout bounds the cancellation attempt itself.
const cancelHookTimeout = 10 * time.Second

// RunWithTimeout races op against the timeout. On expiry the cancellation
// hook runs exactly once; if the hook itself fails that failure is logged but
// the caller still observes ErrQueryTimeout, never the hook's error. A
// timeout of zero disables the deadline.
func RunWithTimeout(ctx context.Context, timeout time.Duration, op func(context.Context) (*RawRows, error), cancelHook CancelFunc, logger *slog.Logger) (*RawRows, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cancelHook == nil {
		cancelHook = NopCancel
	}
	if timeout <= 0 {
		return op(ctx)
	}

	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var once sync.Once
	fireCancel := func() {
		once.Do(func() {
			hookCtx, hookCancel := context.WithTimeout(context.WithoutCancel(ctx), cancelHookTimeout)
			defer hookCancel()
			if err := cancelHook(hookCtx); err != nil {
				logger.Warn("cancellation hook failed after timeout", "error", err)
			}
		})
	}

	type outcome struct {
		rows *RawRows
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		rows, err := op(opCtx)
		done <- outcome{rows: rows, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil && errors.Is(opCtx.Err(), context.DeadlineExceeded) {
			fireCancel()
			return nil, ErrQueryTimeout
		}
		return out.rows, out.err
	case <-opCtx.Done():
		if errors.Is(opCtx.Err(), context.DeadlineExceeded) {
			fireCancel()
			return nil, ErrQueryTimeout
		}
		return nil, opCtx.Err()
	}
}

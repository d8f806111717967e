// internal/browser/context_utils.go
package browser

import (
	"context"
	"time"
)

// CombineContext creates a new context derived from ctx1 (primary/master context)
// that is canceled when *either* ctx1 or ctx2 (secondary/operational context) is canceled.
// It inherits values from ctx1. chromedp needs this: ctx1 carries the CDP
// target (the tab context), ctx2 carries the caller's deadline.
func CombineContext(ctx1, ctx2 context.Context) (context.Context, context.CancelFunc) {
	combinedCtx, cancel := context.WithCancel(ctx1)

	// The goroutine stops when either context is done.
	go func() {
		select {
		case <-ctx2.Done():
			cancel()
		case <-combinedCtx.Done():
		}
	}()

	return combinedCtx, cancel
}

// withStepTimeout combines the tab context with the caller's context and
// applies the step timeout, keeping the earliest deadline.
func withStepTimeout(tabCtx, callerCtx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	combined, cancelCombined := CombineContext(tabCtx, callerCtx)
	if dl, ok := callerCtx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		combined, cancelDeadline = context.WithDeadline(combined, dl)
		prev := cancelCombined
		cancelCombined = func() { cancelDeadline(); prev() }
	}
	if timeout <= 0 {
		return combined, cancelCombined
	}
	timed, cancelTimed := context.WithTimeout(combined, timeout)
	return timed, func() {
		cancelTimed()
		cancelCombined()
	}
}

// internal/browser/context_utils_test.go
package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombineContext(t *testing.T) {
	type ctxKey string
	const key ctxKey = "testKey"
	const value = "testValue"

	t.Run("InheritsValuesFromPrimary", func(t *testing.T) {
		ctx1 := context.WithValue(context.Background(), key, value)
		combinedCtx, cancel := CombineContext(ctx1, context.Background())
		defer cancel()

		assert.Equal(t, value, combinedCtx.Value(key), "Combined context should inherit values from ctx1")
		assert.Nil(t, combinedCtx.Err(), "Context should not be done yet")
	})

	t.Run("CancelledByPrimary", func(t *testing.T) {
		ctx1, cancel1 := context.WithCancel(context.Background())
		combinedCtx, cancelCombined := CombineContext(ctx1, context.Background())
		defer cancelCombined()

		cancel1()
		assert.Eventually(t, func() bool {
			return combinedCtx.Err() != nil
		}, 100*time.Millisecond, 10*time.Millisecond)
		assert.ErrorIs(t, combinedCtx.Err(), context.Canceled)
	})

	t.Run("CancelledBySecondary", func(t *testing.T) {
		ctx2, cancel2 := context.WithCancel(context.Background())
		combinedCtx, cancelCombined := CombineContext(context.Background(), ctx2)
		defer cancelCombined()

		cancel2()
		assert.Eventually(t, func() bool {
			return combinedCtx.Err() != nil
		}, 100*time.Millisecond, 10*time.Millisecond)
		assert.ErrorIs(t, combinedCtx.Err(), context.Canceled)
	})

	t.Run("ExplicitCancellation", func(t *testing.T) {
		combinedCtx, cancelCombined := CombineContext(context.Background(), context.Background())
		cancelCombined()
		assert.ErrorIs(t, combinedCtx.Err(), context.Canceled)
	})
}

func TestWithStepTimeout(t *testing.T) {
	type ctxKey string
	const key ctxKey = "tab"

	t.Run("step timeout applies", func(t *testing.T) {
		tab := context.WithValue(context.Background(), key, "tab-1")
		ctx, cancel := withStepTimeout(tab, context.Background(), 20*time.Millisecond)
		defer cancel()

		assert.Equal(t, "tab-1", ctx.Value(key))
		<-ctx.Done()
		assert.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
	})

	t.Run("caller deadline wins when earlier", func(t *testing.T) {
		caller, cancelCaller := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancelCaller()

		ctx, cancel := withStepTimeout(context.Background(), caller, time.Minute)
		defer cancel()

		dl, ok := ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(30*time.Millisecond), dl, 25*time.Millisecond)
	})

	t.Run("no timeout keeps caller cancellation", func(t *testing.T) {
		caller, cancelCaller := context.WithCancel(context.Background())
		ctx, cancel := withStepTimeout(context.Background(), caller, 0)
		defer cancel()

		_, ok := ctx.Deadline()
		assert.False(t, ok)
		cancelCaller()
		assert.Eventually(t, func() bool { return ctx.Err() != nil }, 100*time.Millisecond, 5*time.Millisecond)
	})
}

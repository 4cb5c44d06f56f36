package concurrent

import (
	"context"
	"sync"
	"time"

	"github.com/overpass-network/overpass/common/check"
)

type Func = func(context.Context) error

// RunWithTimeout calls each given function in a separate goroutine and waits
// for them to finish. If timeout is positive, it is added to the context.
// Note that RunWithTimeout does not forcefully terminate the goroutines;
// the functions must handle context cancellation themselves.
func RunWithTimeout(ctx context.Context, timeout time.Duration, fs ...Func) error {
	var wg sync.WaitGroup

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	for _, f := range fs {
		wg.Add(1)

		go func(fn Func) {
			defer wg.Done()

			err := fn(ctx)
			check.PanicIfErr(err)
		}(f)
	}

	wg.Wait()
	return nil
}

// Run calls RunWithTimeout without a timeout.
func Run(ctx context.Context, fs ...Func) error {
	return RunWithTimeout(ctx, 0, fs...)
}

// RunTickerLoop invokes onTick periodically until the context is canceled.
// Ticks never overlap; a tick that outlasts the interval delays the next one.
func RunTickerLoop(ctx context.Context, tickPeriod time.Duration, onTick func(context.Context)) {
	ticker := time.NewTicker(tickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			onTick(ctx)
		}
	}
}

// internal/pkg/retry/retry.go
package retry

import (
	"context"
	"errors"
	"time"
)

// ErrExhausted is returned by Poll when fn never reported done within the
// attempt budget.
var ErrExhausted = errors.New("retry: attempts exhausted")

// Poll runs fn up to attempts times with a fixed delay between attempts.
//
// fn reports done=true to stop polling successfully. A non-nil error from fn
// aborts immediately and is returned as-is; transient conditions that should
// consume an attempt must therefore be swallowed (and logged) inside fn.
// Context cancellation interrupts both fn scheduling and the inter-attempt
// sleep.
func Poll(ctx context.Context, attempts int, delay time.Duration, fn func(ctx context.Context, attempt int) (done bool, err error)) error {
	if attempts <= 0 {
		return ErrExhausted
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		done, err := fn(ctx, attempt)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		// 最終試行の後は待たない
		if attempt == attempts {
			break
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}

	return ErrExhausted
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

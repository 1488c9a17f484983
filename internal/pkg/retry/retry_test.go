// internal/pkg/retry/retry_test.go
package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollStopsWhenDone(t *testing.T) {
	calls := 0
	err := Poll(context.Background(), 5, 0, func(ctx context.Context, attempt int) (bool, error) {
		calls++
		return attempt == 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPollExhaustsAfterExactlyNAttempts(t *testing.T) {
	calls := 0
	err := Poll(context.Background(), 4, 0, func(ctx context.Context, attempt int) (bool, error) {
		calls++
		return false, nil
	})
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 4, calls)
}

func TestPollAbortsOnHardError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Poll(context.Background(), 5, 0, func(ctx context.Context, attempt int) (bool, error) {
		calls++
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestPollHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Poll(ctx, 10, 50*time.Millisecond, func(ctx context.Context, attempt int) (bool, error) {
		calls++
		cancel()
		return false, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestPollZeroAttempts(t *testing.T) {
	err := Poll(context.Background(), 0, 0, func(ctx context.Context, attempt int) (bool, error) {
		t.Fatal("fn must not run")
		return false, nil
	})
	assert.ErrorIs(t, err, ErrExhausted)
}

// internal/infra/solana/payment_watcher_test.go
package solana

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLister replays one canned signature window per poll.
type fakeLister struct {
	windows [][]SignatureInfo
	errs    []error
	calls   int
}

func (f *fakeLister) GetSignaturesForAddress(ctx context.Context, address string, limit int) ([]SignatureInfo, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.windows) {
		return f.windows[i], nil
	}
	return nil, nil
}

func memoPtr(s string) *string { return &s }

func sigInfo(sig, memo string) SignatureInfo {
	info := SignatureInfo{Signature: sig}
	if memo != "" {
		info.Memo = memoPtr(memo)
	}
	return info
}

func newTestWatcher(rpc SignatureLister, attempts int) *PaymentWatcher {
	w := NewPaymentWatcher(rpc, "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin")
	w.Attempts = attempts
	w.Delay = 0
	return w
}

func TestWaitForMemoMatchesSubstring(t *testing.T) {
	rpc := &fakeLister{windows: [][]SignatureInfo{
		{sigInfo("sigA", ""), sigInfo("sigB", "[8] other001")},
		{sigInfo("sigC", "[12] xyz482915"), sigInfo("sigB", "[8] other001")},
	}}

	sig, found, err := newTestWatcher(rpc, 10).WaitForMemo(context.Background(), "xyz482915")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "sigC", sig)
	assert.Equal(t, 2, rpc.calls, "must stop polling after the match")
}

func TestWaitForMemoAbsentAfterExactlyConfiguredAttempts(t *testing.T) {
	rpc := &fakeLister{windows: [][]SignatureInfo{
		{sigInfo("sigA", "[6] nope")},
	}}

	sig, found, err := newTestWatcher(rpc, 4).WaitForMemo(context.Background(), "xyz482915")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, sig)
	assert.Equal(t, 4, rpc.calls)
}

func TestWaitForMemoRPCErrorConsumesAttempt(t *testing.T) {
	rpc := &fakeLister{
		errs: []error{errors.New("rpc down"), errors.New("rpc down"), nil},
		windows: [][]SignatureInfo{
			nil, nil,
			{sigInfo("sigZ", "[12] xyz482915")},
		},
	}

	sig, found, err := newTestWatcher(rpc, 3).WaitForMemo(context.Background(), "xyz482915")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "sigZ", sig)
	assert.Equal(t, 3, rpc.calls)
}

func TestWaitForMemoAllAttemptsFailSoftly(t *testing.T) {
	rpc := &fakeLister{errs: []error{
		errors.New("rpc down"), errors.New("rpc down"), errors.New("rpc down"),
	}}

	_, found, err := newTestWatcher(rpc, 3).WaitForMemo(context.Background(), "xyz482915")
	require.NoError(t, err, "rpc failures must stay soft")
	assert.False(t, found)
	assert.Equal(t, 3, rpc.calls)
}

func TestWaitForMemoContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, found, err := newTestWatcher(&fakeLister{}, 3).WaitForMemo(ctx, "xyz482915")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, found)
}

func TestWaitForMemoEmptyMemoRejected(t *testing.T) {
	_, _, err := newTestWatcher(&fakeLister{}, 3).WaitForMemo(context.Background(), "  ")
	assert.Error(t, err)
}

// internal/infra/solana/payment_watcher.go
package solana

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"promptmint/internal/pkg/retry"
)

const (
	defaultWatchAttempts = 10
	defaultWatchDelay    = 5 * time.Second
	defaultWatchWindow   = 5
)

// PaymentWatcher polls the treasury address's recent transaction history for a
// transaction whose memo contains a target substring.
//
// RPC エラーの扱い: 1 回の失敗ポーリングも 1 attempt として消費します。
// これにより 1 件あたりの待ち時間が attempts×delay で必ず打ち切られます。
type PaymentWatcher struct {
	RPC     SignatureLister
	Address string // treasury (mint authority) の base58

	Attempts int
	Delay    time.Duration
	Window   int
}

// NewPaymentWatcher は既定のポーリング設定（5 秒間隔 × 10 回、直近 5 件）で
// watcher を生成します。
func NewPaymentWatcher(rpc SignatureLister, address string) *PaymentWatcher {
	return &PaymentWatcher{
		RPC:      rpc,
		Address:  address,
		Attempts: defaultWatchAttempts,
		Delay:    defaultWatchDelay,
		Window:   defaultWatchWindow,
	}
}

// WaitForMemo polls until some recent transaction's memo contains memo
// (substring match; the on-chain memo field carries a length prefix and may be
// truncated). Returns the matching signature, or found=false after the
// configured attempt budget. A non-nil error is returned only for context
// cancellation; transient RPC failures are logged and consume an attempt.
func (w *PaymentWatcher) WaitForMemo(ctx context.Context, memo string) (signature string, found bool, err error) {
	if w == nil || w.RPC == nil {
		return "", false, errors.New("payment_watcher: not configured")
	}
	target := strings.TrimSpace(memo)
	if target == "" {
		return "", false, errors.New("payment_watcher: memo is empty")
	}

	attempts := w.Attempts
	if attempts <= 0 {
		attempts = defaultWatchAttempts
	}
	window := w.Window
	if window <= 0 {
		window = defaultWatchWindow
	}

	var match string
	pollErr := retry.Poll(ctx, attempts, w.Delay, func(ctx context.Context, attempt int) (bool, error) {
		infos, err := w.RPC.GetSignaturesForAddress(ctx, w.Address, window)
		if err != nil {
			// attempt を消費して続行
			log.Printf("[payment_watcher] attempt=%d/%d rpc error: %v", attempt, attempts, err)
			return false, nil
		}

		for _, info := range infos {
			if info.Memo == nil {
				continue
			}
			if strings.Contains(*info.Memo, target) {
				match = info.Signature
				log.Printf("[payment_watcher] matched memo=%q sig=%s attempt=%d", target, maskShort(match), attempt)
				return true, nil
			}
		}
		return false, nil
	})

	if pollErr != nil {
		if errors.Is(pollErr, retry.ErrExhausted) {
			log.Printf("[payment_watcher] no payment observed for memo=%q after %d attempts", target, attempts)
			return "", false, nil
		}
		return "", false, pollErr
	}
	return match, true, nil
}

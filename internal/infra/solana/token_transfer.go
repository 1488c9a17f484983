// internal/infra/solana/token_transfer.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"

	"promptmint/internal/pkg/retry"
)

var (
	ErrTransferNotConfigured = errors.New("token_transfer: not configured")
	ErrTransferMintEmpty     = errors.New("token_transfer: mint address is empty")
	ErrTransferWalletEmpty   = errors.New("token_transfer: destination wallet is empty")
	ErrTransferExhausted     = errors.New("token_transfer: all attempts failed")
)

const (
	defaultTransferAttempts = 10
	defaultTransferDelay    = 3 * time.Second
)

// TokenTransferor moves a freshly minted token from the authority's wallet to
// the buyer's wallet, creating the destination ATA when missing.
//
// ミント直後は source ATA がまだ RPC から見えないことがあるため、
// 試行全体を固定間隔の bounded retry で包んでいます。
type TokenTransferor struct {
	RPC       *client.Client
	Status    SignatureStatusGetter
	Authority types.Account

	Attempts int
	Delay    time.Duration
}

// NewTokenTransferor constructs a transferor with the default retry budget.
func NewTokenTransferor(rpc *client.Client, status SignatureStatusGetter, authority types.Account) *TokenTransferor {
	return &TokenTransferor{
		RPC:       rpc,
		Status:    status,
		Authority: authority,
		Attempts:  defaultTransferAttempts,
		Delay:     defaultTransferDelay,
	}
}

// Transfer reassigns ownership of the minted token to toWallet and waits for
// confirmation. A persistent failure across all attempts returns
// ErrTransferExhausted wrapping the last error; no compensating action is
// taken here (operator recovery is driven by the pipeline).
func (e *TokenTransferor) Transfer(ctx context.Context, mintAddr, toWallet string) (signature string, err error) {
	if e == nil || e.RPC == nil || e.Status == nil {
		return "", ErrTransferNotConfigured
	}
	mintAddr = strings.TrimSpace(mintAddr)
	if mintAddr == "" {
		return "", ErrTransferMintEmpty
	}
	toWallet = strings.TrimSpace(toWallet)
	if toWallet == "" {
		return "", ErrTransferWalletEmpty
	}

	attempts := e.Attempts
	if attempts <= 0 {
		attempts = defaultTransferAttempts
	}

	var lastErr error
	var sig string
	pollErr := retry.Poll(ctx, attempts, e.Delay, func(ctx context.Context, attempt int) (bool, error) {
		s, err := e.transferOnce(ctx, mintAddr, toWallet)
		if err != nil {
			lastErr = err
			log.Printf("[token_transfer] attempt=%d/%d mint=%s to=%s failed: %v",
				attempt, attempts, maskShort(mintAddr), maskShort(toWallet), err)
			return false, nil
		}
		sig = s
		return true, nil
	})

	if pollErr != nil {
		if errors.Is(pollErr, retry.ErrExhausted) {
			return "", fmt.Errorf("%w: %w", ErrTransferExhausted, lastErr)
		}
		return "", pollErr
	}

	log.Printf("[token_transfer] done mint=%s to=%s tx=%s", maskShort(mintAddr), maskShort(toWallet), maskShort(sig))
	return sig, nil
}

func (e *TokenTransferor) transferOnce(ctx context.Context, mintAddr, toWallet string) (string, error) {
	mint := common.PublicKeyFromString(mintAddr)
	toOwner := common.PublicKeyFromString(toWallet)
	fromOwner := e.Authority.PublicKey

	fromATA, _, err := common.FindAssociatedTokenAddress(fromOwner, mint)
	if err != nil {
		return "", fmt.Errorf("derive from ATA: %w", err)
	}
	toATA, _, err := common.FindAssociatedTokenAddress(toOwner, mint)
	if err != nil {
		return "", fmt.Errorf("derive to ATA: %w", err)
	}

	// ミント直後でまだ source が見えないケースはリトライに回す
	fromExists, err := e.accountExists(ctx, fromATA.ToBase58())
	if err != nil {
		return "", fmt.Errorf("check from ATA: %w", err)
	}
	if !fromExists {
		return "", fmt.Errorf("source ATA %s not visible yet", maskShort(fromATA.ToBase58()))
	}

	toExists, err := e.accountExists(ctx, toATA.ToBase58())
	if err != nil {
		return "", fmt.Errorf("check to ATA: %w", err)
	}

	ins := make([]types.Instruction, 0, 2)
	if !toExists {
		ins = append(ins, associated_token_account.CreateAssociatedTokenAccount(
			associated_token_account.CreateAssociatedTokenAccountParam{
				Funder:                 fromOwner,
				Owner:                  toOwner,
				Mint:                   mint,
				AssociatedTokenAccount: toATA,
			},
		))
	}
	ins = append(ins, token.Transfer(token.TransferParam{
		From:   fromATA,
		To:     toATA,
		Auth:   fromOwner,
		Amount: 1,
	}))

	latest, err := e.RPC.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("GetLatestBlockhash: %w", err)
	}

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        fromOwner,
			RecentBlockhash: latest.Blockhash,
			Instructions:    ins,
		}),
		Signers: []types.Account{e.Authority},
	})
	if err != nil {
		return "", fmt.Errorf("NewTransaction: %w", err)
	}

	sig, err := e.RPC.SendTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("SendTransaction: %w", err)
	}

	if err := e.waitConfirmed(ctx, sig); err != nil {
		return "", err
	}
	return sig, nil
}

func (e *TokenTransferor) waitConfirmed(ctx context.Context, sig string) error {
	err := retry.Poll(ctx, 10, e.Delay, func(ctx context.Context, attempt int) (bool, error) {
		st, err := e.Status.GetSignatureStatus(ctx, sig)
		if err != nil || st == nil {
			return false, nil
		}
		if st.Err != nil {
			return false, fmt.Errorf("transfer tx failed on chain: %v", st.Err)
		}
		switch st.ConfirmationStatus {
		case "confirmed", "finalized":
			return true, nil
		}
		return false, nil
	})
	if errors.Is(err, retry.ErrExhausted) {
		return fmt.Errorf("transfer tx %s not confirmed", maskShort(sig))
	}
	return err
}

func (e *TokenTransferor) accountExists(ctx context.Context, address string) (bool, error) {
	addr := strings.TrimSpace(address)
	if addr == "" {
		return false, nil
	}

	_, err := e.RPC.GetAccountInfo(ctx, addr)
	if err == nil {
		return true, nil
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "not found") ||
		strings.Contains(msg, "could not find account") ||
		strings.Contains(msg, "invalid param") ||
		strings.Contains(msg, "account does not exist") {
		return false, nil
	}
	return false, err
}

func maskShort(s string) string {
	t := strings.TrimSpace(s)
	if t == "" {
		return ""
	}
	if len(t) <= 10 {
		return t
	}
	return t[:4] + "***" + t[len(t)-4:]
}

// internal/infra/solana/action_tx.go
package solana

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/memo"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"
)

// TreasuryTxBuilder builds the unsigned payment transaction returned to the
// caller for client-side signing: a SOL transfer payer→treasury for the
// quoted fee plus a memo instruction carrying the salted memo.
//
// fee payer は支払う側のウォレットなので、サーバー側では一切署名しません。
// 署名枠をゼロ埋めしたまま base64 で返します。
type TreasuryTxBuilder struct {
	RPC      *client.Client
	Treasury common.PublicKey

	BaseFeeLamports uint64
}

// NewTreasuryTxBuilder creates a builder against the given RPC endpoint.
func NewTreasuryTxBuilder(rpcURL, treasury string, baseFeeLamports uint64) *TreasuryTxBuilder {
	u := strings.TrimSpace(rpcURL)
	if u == "" {
		u = DevnetEndpoint
	}
	return &TreasuryTxBuilder{
		RPC:             client.NewClient(u),
		Treasury:        common.PublicKeyFromString(treasury),
		BaseFeeLamports: baseFeeLamports,
	}
}

// QuoteFee prices the mint fee for one request: the configured base amount
// plus the current rent-exempt minimum for a mint account (the largest cost
// the service pays on the buyer's behalf, so it tracks cluster rent).
func (b *TreasuryTxBuilder) QuoteFee(ctx context.Context) (uint64, error) {
	rent, err := b.RPC.GetMinimumBalanceForRentExemption(ctx, token.MintAccountSize)
	if err != nil {
		return 0, fmt.Errorf("action_tx: GetMinimumBalanceForRentExemption: %w", err)
	}
	return b.BaseFeeLamports + rent, nil
}

// Build assembles and serializes the unsigned transaction.
func (b *TreasuryTxBuilder) Build(ctx context.Context, payer string, feeLamports uint64, memoText string) (string, error) {
	payer = strings.TrimSpace(payer)
	if payer == "" {
		return "", fmt.Errorf("action_tx: payer is empty")
	}
	if memoText == "" {
		return "", fmt.Errorf("action_tx: memo is empty")
	}

	payerPk := common.PublicKeyFromString(payer)

	recent, err := b.RPC.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("action_tx: GetLatestBlockhash: %w", err)
	}

	tx, err := types.NewTransaction(types.NewTransactionParam{
		// 署名はクライアント側。Signers は空のままにする。
		Signers: []types.Account{},
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        payerPk,
			RecentBlockhash: recent.Blockhash,
			Instructions: []types.Instruction{
				system.Transfer(system.TransferParam{
					From:   payerPk,
					To:     b.Treasury,
					Amount: feeLamports,
				}),
				memo.BuildMemo(memo.BuildMemoParam{
					SignerPubkeys: []common.PublicKey{payerPk},
					Memo:          []byte(memoText),
				}),
			},
		}),
	})
	if err != nil {
		return "", fmt.Errorf("action_tx: NewTransaction: %w", err)
	}

	raw, err := tx.Serialize()
	if err != nil {
		return "", fmt.Errorf("action_tx: serialize: %w", err)
	}

	log.Printf("[action_tx] built unsigned tx payer=%s fee=%d memo=%q", maskShort(payer), feeLamports, memoText)
	return base64.StdEncoding.EncodeToString(raw), nil
}

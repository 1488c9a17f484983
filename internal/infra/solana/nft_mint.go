// internal/infra/solana/nft_mint.go
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
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"

	"promptmint/internal/pkg/retry"
)

var (
	ErrMintNotConfigured   = errors.New("nft_mint: not configured")
	ErrMintNotConfirmed    = errors.New("nft_mint: transaction not confirmed")
	ErrMintTransactionMeta = errors.New("nft_mint: transaction failed on chain")
)

const (
	defaultConfirmAttempts = 10
	defaultConfirmDelay    = 3 * time.Second
)

// NFTMinter creates one-of-one NFTs owned by the mint authority.
// 受取ウォレットへの移転は TokenTransferor が別途行います。
type NFTMinter struct {
	RPC       *client.Client
	Status    SignatureStatusGetter
	Authority types.Account
	Symbol    string

	ConfirmAttempts int
	ConfirmDelay    time.Duration
}

// NewNFTMinter constructs a minter. status may be the same JSONRPCClient the
// payment watcher uses.
func NewNFTMinter(rpc *client.Client, status SignatureStatusGetter, authority types.Account, symbol string) *NFTMinter {
	return &NFTMinter{
		RPC:             rpc,
		Status:          status,
		Authority:       authority,
		Symbol:          symbol,
		ConfirmAttempts: defaultConfirmAttempts,
		ConfirmDelay:    defaultConfirmDelay,
	}
}

// Mint creates a new mint account, attaches Metaplex metadata pointing at
// metadataURI, mints exactly one token to the authority's ATA and seals it
// with a MasterEdition (MaxSupply=1). Blocks until the transaction is
// confirmed; a confirmation failure is fatal.
func (m *NFTMinter) Mint(ctx context.Context, metadataURI, name string) (mintAddr string, err error) {
	if m == nil || m.RPC == nil || m.Status == nil {
		return "", ErrMintNotConfigured
	}
	if strings.TrimSpace(metadataURI) == "" {
		return "", fmt.Errorf("nft_mint: metadata uri is empty")
	}
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("nft_mint: name is empty")
	}

	feePayer := m.Authority
	mint := types.NewAccount() // NFT 用 Mint アカウント新規作成
	owner := feePayer.PublicKey

	ata, _, err := common.FindAssociatedTokenAddress(owner, mint.PublicKey)
	if err != nil {
		return "", fmt.Errorf("nft_mint: FindAssociatedTokenAddress: %w", err)
	}

	metadataPubkey, err := token_metadata.GetTokenMetaPubkey(mint.PublicKey)
	if err != nil {
		return "", fmt.Errorf("nft_mint: GetTokenMetaPubkey: %w", err)
	}
	masterEditionPubkey, err := token_metadata.GetMasterEdition(mint.PublicKey)
	if err != nil {
		return "", fmt.Errorf("nft_mint: GetMasterEdition: %w", err)
	}

	mintRent, err := m.RPC.GetMinimumBalanceForRentExemption(ctx, token.MintAccountSize)
	if err != nil {
		return "", fmt.Errorf("nft_mint: GetMinimumBalanceForRentExemption: %w", err)
	}

	recent, err := m.RPC.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("nft_mint: GetLatestBlockhash: %w", err)
	}

	// 1 リクエスト = 1 トークン（MaxSupply = 1）
	maxSupply := uint64(1)

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Signers: []types.Account{mint, feePayer},
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        feePayer.PublicKey,
			RecentBlockhash: recent.Blockhash,
			Instructions: []types.Instruction{
				system.CreateAccount(system.CreateAccountParam{
					From:     feePayer.PublicKey,
					New:      mint.PublicKey,
					Owner:    common.TokenProgramID,
					Lamports: mintRent,
					Space:    token.MintAccountSize,
				}),
				token.InitializeMint(token.InitializeMintParam{
					Decimals:   0,
					Mint:       mint.PublicKey,
					MintAuth:   feePayer.PublicKey,
					FreezeAuth: &feePayer.PublicKey,
				}),
				token_metadata.CreateMetadataAccountV3(
					token_metadata.CreateMetadataAccountV3Param{
						Metadata:                metadataPubkey,
						Mint:                    mint.PublicKey,
						MintAuthority:           feePayer.PublicKey,
						UpdateAuthority:         feePayer.PublicKey,
						Payer:                   feePayer.PublicKey,
						UpdateAuthorityIsSigner: true,
						IsMutable:               true,
						Data: token_metadata.DataV2{
							Name:                 name,
							Symbol:               m.Symbol,
							Uri:                  metadataURI,
							SellerFeeBasisPoints: 0,
							Creators: &[]token_metadata.Creator{
								{
									Address:  feePayer.PublicKey,
									Verified: true,
									Share:    100,
								},
							},
						},
						CollectionDetails: nil,
					},
				),
				associated_token_account.CreateAssociatedTokenAccount(
					associated_token_account.CreateAssociatedTokenAccountParam{
						Funder:                 feePayer.PublicKey,
						Owner:                  owner,
						Mint:                   mint.PublicKey,
						AssociatedTokenAccount: ata,
					},
				),
				token.MintTo(token.MintToParam{
					Mint:   mint.PublicKey,
					To:     ata,
					Auth:   feePayer.PublicKey,
					Amount: 1,
				}),
				token_metadata.CreateMasterEditionV3(
					token_metadata.CreateMasterEditionParam{
						Edition:         masterEditionPubkey,
						Mint:            mint.PublicKey,
						UpdateAuthority: feePayer.PublicKey,
						MintAuthority:   feePayer.PublicKey,
						Metadata:        metadataPubkey,
						Payer:           feePayer.PublicKey,
						MaxSupply:       &maxSupply,
					},
				),
			},
		}),
	})
	if err != nil {
		return "", fmt.Errorf("nft_mint: NewTransaction: %w", err)
	}

	sig, err := m.RPC.SendTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("nft_mint: SendTransaction: %w", err)
	}

	log.Printf("[nft_mint] submitted mint=%s tx=%s uri=%s", maskShort(mint.PublicKey.ToBase58()), maskShort(sig), metadataURI)

	if err := m.waitConfirmed(ctx, sig); err != nil {
		return "", err
	}

	return mint.PublicKey.ToBase58(), nil
}

// waitConfirmed polls signature status until confirmed/finalized.
func (m *NFTMinter) waitConfirmed(ctx context.Context, sig string) error {
	attempts := m.ConfirmAttempts
	if attempts <= 0 {
		attempts = defaultConfirmAttempts
	}

	err := retry.Poll(ctx, attempts, m.ConfirmDelay, func(ctx context.Context, attempt int) (bool, error) {
		st, err := m.Status.GetSignatureStatus(ctx, sig)
		if err != nil {
			log.Printf("[nft_mint] confirm attempt=%d/%d rpc error: %v", attempt, attempts, err)
			return false, nil
		}
		if st == nil {
			return false, nil
		}
		if st.Err != nil {
			return false, fmt.Errorf("%w: %v", ErrMintTransactionMeta, st.Err)
		}
		switch st.ConfirmationStatus {
		case "confirmed", "finalized":
			return true, nil
		}
		return false, nil
	})
	if errors.Is(err, retry.ErrExhausted) {
		return fmt.Errorf("%w: tx=%s", ErrMintNotConfirmed, sig)
	}
	return err
}

// internal/infra/solana/mint_authority.go
package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretspb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/blocto/solana-go-sdk/types"
)

// MintAuthority はミント権限 兼 トレジャリーのウォレットを表します。
// 署名鍵はプロセス起動時に一度だけ復元します。
type MintAuthority struct {
	Account types.Account
}

// Address returns the authority's base58 public key.
func (a *MintAuthority) Address() string {
	return a.Account.PublicKey.ToBase58()
}

// LoadMintAuthority restores the mint wallet keypair.
//
// secretName が設定されていれば Secret Manager のバージョンフルパス
// ("projects/<PROJECT_ID>/secrets/<SECRET_ID>/versions/latest") から、
// そうでなければ keypairJSON（solana-keygen の keypair JSON [u8;64]）から復元します。
func LoadMintAuthority(ctx context.Context, keypairJSON, secretName string) (*MintAuthority, error) {
	secretName = strings.TrimSpace(secretName)
	keypairJSON = strings.TrimSpace(keypairJSON)

	var payload []byte
	switch {
	case secretName != "":
		data, err := accessSecret(ctx, secretName)
		if err != nil {
			return nil, err
		}
		payload = data
	case keypairJSON != "":
		payload = []byte(keypairJSON)
	default:
		return nil, fmt.Errorf("mint authority: neither SOLANA_MINT_KEYPAIR nor SOLANA_MINT_KEY_SECRET is set")
	}

	keyBytes, err := decodeKeypairJSON(payload)
	if err != nil {
		return nil, err
	}

	acc, err := types.AccountFromBytes(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("AccountFromBytes: %w", err)
	}

	log.Printf("[mint_authority] loaded mint authority pubkey=%s (secret=%t)",
		acc.PublicKey.ToBase58(), secretName != "")

	return &MintAuthority{Account: acc}, nil
}

func accessSecret(ctx context.Context, secretName string) ([]byte, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("secretmanager.NewClient: %w", err)
	}
	defer client.Close()

	resp, err := client.AccessSecretVersion(ctx, &secretspb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return nil, fmt.Errorf("AccessSecretVersion: %w", err)
	}
	return resp.Payload.Data, nil
}

// decodeKeypairJSON は keypair JSON から 64 バイトの鍵配列を復元します。
// - 正: [u8;64] を []byte で受け取る
// - 互換: [int,...] を []int で受けてから []byte に変換
func decodeKeypairJSON(data []byte) ([]byte, error) {
	var keyBytes []byte
	if err := json.Unmarshal(data, &keyBytes); err == nil {
		if len(keyBytes) == ed25519.PrivateKeySize {
			return keyBytes, nil
		}
	}

	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, fmt.Errorf("unmarshal keypair json: %w", err)
	}
	if len(ints) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("unexpected secret key length: got %d, want %d", len(ints), ed25519.PrivateKeySize)
	}

	keyBytes = make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("keypair byte out of range at %d: %d", i, v)
		}
		keyBytes[i] = byte(v)
	}
	return keyBytes, nil
}

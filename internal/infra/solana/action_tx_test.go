// internal/infra/solana/action_tx_test.go
package solana

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const memoProgramID = "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr"

// newFakeRPC serves the two JSON-RPC methods the builder needs.
func newFakeRPC(t *testing.T, rent uint64) *httptest.Server {
	t.Helper()
	blockhash := base58.Encode(bytes.Repeat([]byte{7}, 32))
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     int    `json:"id"`
			Method string `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/json")
		switch req.Method {
		case "getLatestBlockhash":
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"result":{"context":{"slot":123},"value":{"blockhash":%q,"lastValidBlockHeight":1000}}}`, req.ID, blockhash)
		case "getMinimumBalanceForRentExemption":
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"result":%d}`, req.ID, rent)
		default:
			t.Fatalf("unexpected rpc method %q", req.Method)
		}
	}))
}

func TestQuoteFeeAddsRentToBase(t *testing.T) {
	srv := newFakeRPC(t, 1_461_600)
	defer srv.Close()

	b := NewTreasuryTxBuilder(srv.URL, "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin", 10_000_000)
	fee, err := b.QuoteFee(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(11_461_600), fee)
}

func TestBuildUnsignedTransferWithMemo(t *testing.T) {
	srv := newFakeRPC(t, 1_461_600)
	defer srv.Close()

	payer := types.NewAccount()
	treasury := types.NewAccount()
	saltedMemo := "xyz482915"

	b := NewTreasuryTxBuilder(srv.URL, treasury.PublicKey.ToBase58(), 10_000_000)
	encoded, err := b.Build(context.Background(), payer.PublicKey.ToBase58(), 11_461_600, saltedMemo)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	tx, err := types.TransactionDeserialize(raw)
	require.NoError(t, err)

	msg := tx.Message
	require.Len(t, msg.Instructions, 2)

	// fee payer is the buyer's wallet, not the service
	require.NotEmpty(t, msg.Accounts)
	assert.Equal(t, payer.PublicKey, msg.Accounts[0])

	// 1) system transfer payer -> treasury for the quoted fee
	transfer := msg.Instructions[0]
	assert.Equal(t, common.SystemProgramID, msg.Accounts[transfer.ProgramIDIndex])
	require.Len(t, transfer.Accounts, 2)
	assert.Equal(t, payer.PublicKey, msg.Accounts[transfer.Accounts[0]])
	assert.Equal(t, treasury.PublicKey, msg.Accounts[transfer.Accounts[1]])
	require.Len(t, transfer.Data, 12)
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(transfer.Data[0:4]), "system program transfer index")
	assert.Equal(t, uint64(11_461_600), binary.LittleEndian.Uint64(transfer.Data[4:12]))

	// 2) memo instruction carrying the salted memo verbatim
	memoIx := msg.Instructions[1]
	assert.Equal(t, common.PublicKeyFromString(memoProgramID), msg.Accounts[memoIx.ProgramIDIndex])
	assert.Equal(t, saltedMemo, string(memoIx.Data))

	// unsigned: every signature slot must be zero-filled
	require.NotEmpty(t, tx.Signatures)
	for _, sig := range tx.Signatures {
		assert.Equal(t, bytes.Repeat([]byte{0}, 64), []byte(sig))
	}
}

func TestBuildRejectsEmptyInput(t *testing.T) {
	srv := newFakeRPC(t, 0)
	defer srv.Close()

	b := NewTreasuryTxBuilder(srv.URL, types.NewAccount().PublicKey.ToBase58(), 1)
	_, err := b.Build(context.Background(), "", 1, "memo1")
	assert.Error(t, err)
	_, err = b.Build(context.Background(), types.NewAccount().PublicKey.ToBase58(), 1, "")
	assert.Error(t, err)
}

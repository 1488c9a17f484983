// internal/infra/solana/rpc_client.go
package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Solana Devnet RPC endpoint (default)
const DevnetEndpoint = "https://api.devnet.solana.com"

// SignatureLister is the minimal RPC surface the payment watcher needs.
type SignatureLister interface {
	// GetSignaturesForAddress calls `getSignaturesForAddress` with
	// params: [address, {"limit": limit, "commitment": "confirmed"}]
	GetSignaturesForAddress(ctx context.Context, address string, limit int) ([]SignatureInfo, error)
}

// SignatureStatusGetter is the minimal RPC surface confirmation waits need.
type SignatureStatusGetter interface {
	// GetSignatureStatus calls `getSignatureStatuses` for a single signature.
	// Returns nil when the cluster does not know the signature yet.
	GetSignatureStatus(ctx context.Context, signature string) (*SignatureStatus, error)
}

// SignatureInfo is one decoded entry of the getSignaturesForAddress result.
// Memo comes back with the on-chain length prefix (e.g. `[12] xyz482915`),
// which is why the watcher does substring matching.
type SignatureInfo struct {
	Signature          string  `json:"signature"`
	Slot               uint64  `json:"slot"`
	Err                any     `json:"err"`
	Memo               *string `json:"memo"`
	BlockTime          *int64  `json:"blockTime"`
	ConfirmationStatus *string `json:"confirmationStatus"`
}

// SignatureStatus is one decoded entry of the getSignatureStatuses result.
type SignatureStatus struct {
	Slot               uint64  `json:"slot"`
	Confirmations      *uint64 `json:"confirmations"`
	Err                any     `json:"err"`
	ConfirmationStatus string  `json:"confirmationStatus"`
}

// JSONRPCClient is a simple HTTP JSON-RPC client for Solana.
// blocto の SDK クライアントと併用し、SDK が素直に出していないメソッドを
// ここで直接叩きます。
type JSONRPCClient struct {
	Endpoint string
	HTTP     *http.Client
}

// NewJSONRPCClient creates a Solana JSON-RPC client for the given endpoint.
// Empty endpoint falls back to Devnet.
func NewJSONRPCClient(endpoint string) *JSONRPCClient {
	ep := strings.TrimSpace(endpoint)
	if ep == "" {
		ep = DevnetEndpoint
	}
	return &JSONRPCClient{
		Endpoint: ep,
		HTTP: &http.Client{
			Timeout: 12 * time.Second,
		},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

func (c *JSONRPCClient) call(ctx context.Context, method string, params any, out any) error {
	if c == nil || c.Endpoint == "" || c.HTTP == nil {
		return fmt.Errorf("solana rpc: client not configured")
	}

	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("solana rpc: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("solana rpc: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("solana rpc: http do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("solana rpc: http status=%d", resp.StatusCode)
	}

	var rr rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return fmt.Errorf("solana rpc: decode response: %w", err)
	}
	if rr.Error != nil {
		return fmt.Errorf("solana rpc: error code=%d message=%s", rr.Error.Code, rr.Error.Message)
	}

	if out != nil {
		if err := json.Unmarshal(rr.Result, out); err != nil {
			return fmt.Errorf("solana rpc: unmarshal result: %w", err)
		}
	}
	return nil
}

// GetSignaturesForAddress returns the most recent transaction signatures for
// address, newest first, bounded by limit.
func (c *JSONRPCClient) GetSignaturesForAddress(ctx context.Context, address string, limit int) ([]SignatureInfo, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("solana rpc: address is empty")
	}
	if limit <= 0 {
		limit = 5
	}

	params := []any{
		address,
		map[string]any{
			"limit":      limit,
			"commitment": "confirmed",
		},
	}

	var out []SignatureInfo
	if err := c.call(ctx, "getSignaturesForAddress", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSignatureStatus returns the cluster-side status of one signature, or nil
// when the signature is not known yet.
func (c *JSONRPCClient) GetSignatureStatus(ctx context.Context, signature string) (*SignatureStatus, error) {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return nil, fmt.Errorf("solana rpc: signature is empty")
	}

	params := []any{
		[]string{signature},
		map[string]any{
			"searchTransactionHistory": true,
		},
	}

	var out struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value []*SignatureStatus `json:"value"`
	}
	if err := c.call(ctx, "getSignatureStatuses", params, &out); err != nil {
		return nil, err
	}
	if len(out.Value) == 0 {
		return nil, nil
	}
	return out.Value[0], nil
}

var (
	_ SignatureLister       = (*JSONRPCClient)(nil)
	_ SignatureStatusGetter = (*JSONRPCClient)(nil)
)

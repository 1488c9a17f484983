// internal/adapters/in/http/handlers/action_handler_test.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptmint/internal/adapters/out/memory"
	"promptmint/internal/application/mintaction"
	"promptmint/internal/domain/nft"
)

const testWallet = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

type gateStub struct{ safe bool }

func (g *gateStub) Check(context.Context, string) (bool, error) { return g.safe, nil }

type watcherStub struct {
	calls atomic.Int32
	memoC chan string
}

func (w *watcherStub) WaitForMemo(_ context.Context, memo string) (string, bool, error) {
	w.calls.Add(1)
	if w.memoC != nil {
		w.memoC <- memo
	}
	// 支払いは観測されなかったことにしてパイプラインを即終了させる
	return "", false, nil
}

type txBuilderStub struct{}

func (txBuilderStub) QuoteFee(context.Context) (uint64, error) { return 12_000_000, nil }
func (txBuilderStub) Build(context.Context, string, uint64, string) (string, error) {
	return "dHgtYnl0ZXM=", nil
}

type enhancerStub struct{}

func (enhancerStub) Enhance(_ context.Context, p string) (string, error) { return p, nil }

type synthStub struct{}

func (synthStub) Synthesize(context.Context, string, int64, string) (nft.Config, error) {
	return nft.Config{Metadata: nft.Metadata{Name: "x"}}, nil
}

type imagerStub struct{}

func (imagerStub) Produce(context.Context, string, int64) (string, error) { return "", nil }

type publisherStub struct{}

func (publisherStub) Publish(context.Context, string, *nft.Config) (string, error) { return "", nil }

type minterStub struct{}

func (minterStub) Mint(context.Context, string, string) (string, error) { return "", nil }

type transferorStub struct{}

func (transferorStub) Transfer(context.Context, string, string) (string, error) { return "", nil }

func newTestHandler(gate *gateStub, watcher *watcherStub) http.Handler {
	uc := mintaction.NewUsecase(mintaction.Deps{
		Gate:        gate,
		Enhancer:    enhancerStub{},
		Synthesizer: synthStub{},
		Imager:      imagerStub{},
		Publisher:   publisherStub{},
		TxBuilder:   txBuilderStub{},
		Watcher:     watcher,
		Minter:      minterStub{},
		Transferor:  transferorStub{},
		Jobs:        memory.NewMintJobRepository(),
	})
	return NewActionHandler(uc, ActionMetadata{
		IconURL:     "https://example.com/icon.png",
		Title:       "Prompt Mint",
		Description: "Mint an artwork from your prompt",
		Label:       "Mint",
	})
}

func TestGetActionReturnsDiscoveryDoc(t *testing.T) {
	h := newTestHandler(&gateStub{safe: true}, &watcherStub{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/get_action", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "Prompt Mint", doc["title"])
	assert.Equal(t, "https://example.com/icon.png", doc["icon"])

	links := doc["links"].(map[string]any)
	actions := links["actions"].([]any)
	require.Len(t, actions, 1)
	action := actions[0].(map[string]any)
	assert.Equal(t, "/post_action?user_prompt={prompt}&memo={memo}", action["href"])
	assert.Len(t, action["parameters"], 2)
}

func postAction(t *testing.T, h http.Handler, prompt, memo, account string) *httptest.ResponseRecorder {
	t.Helper()
	target := "/post_action?user_prompt=" + prompt + "&memo=" + memo
	body := strings.NewReader(`{"account":"` + account + `"}`)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, target, body))
	return rec
}

func TestPostActionReturnsTransactionAndStartsPipeline(t *testing.T) {
	watcher := &watcherStub{memoC: make(chan string, 1)}
	h := newTestHandler(&gateStub{safe: true}, watcher)

	rec := postAction(t, h, "a+red+fox", "fox-payment", testWallet)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "dHgtYnl0ZXM=", resp["transaction"])
	assert.Contains(t, resp["message"], "SOL")

	select {
	case memo := <-watcher.memoC:
		assert.True(t, strings.HasPrefix(memo, "fox-payment"), "pipeline watches for the salted memo")
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline did not start after the response was sent")
	}
}

func TestPostActionUnsafePromptIs400(t *testing.T) {
	watcher := &watcherStub{}
	h := newTestHandler(&gateStub{safe: false}, watcher)

	rec := postAction(t, h, "nasty", "m", testWallet)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["error"])
	assert.Empty(t, resp["transaction"])
	assert.Zero(t, watcher.calls.Load(), "no pipeline starts for a rejected prompt")
}

func TestPostActionInvalidAccountIs400(t *testing.T) {
	watcher := &watcherStub{}
	h := newTestHandler(&gateStub{safe: true}, watcher)

	rec := postAction(t, h, "p", "m", "not-a-wallet")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, watcher.calls.Load())
}

func TestPostActionMalformedBodyIs400(t *testing.T) {
	h := newTestHandler(&gateStub{safe: true}, &watcherStub{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/post_action?user_prompt=p&memo=m", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOptionsIsNoContent(t *testing.T) {
	h := newTestHandler(&gateStub{safe: true}, &watcherStub{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/post_action", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

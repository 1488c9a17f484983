// internal/infra/openai/openai_test.go
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeAPI(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *goopenai.Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	cfg := goopenai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return srv, goopenai.NewClientWithConfig(cfg)
}

func chatContentResponse(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	return string(b)
}

func TestSafetyGateModerationFlaggedIsUnsafe(t *testing.T) {
	srv, api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/moderations", r.URL.Path)
		fmt.Fprint(w, `{"results":[{"flagged":true}]}`)
	})
	defer srv.Close()

	safe, err := NewSafetyGate(api, "gpt-4o-mini", StrategyModeration).Check(context.Background(), "something nasty")
	require.NoError(t, err)
	assert.False(t, safe)
}

func TestSafetyGateModerationCleanIsSafe(t *testing.T) {
	srv, api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[{"flagged":false}]}`)
	})
	defer srv.Close()

	safe, err := NewSafetyGate(api, "gpt-4o-mini", StrategyModeration).Check(context.Background(), "a red fox in snow")
	require.NoError(t, err)
	assert.True(t, safe)
}

func TestSafetyGateChatVerdictLowercased(t *testing.T) {
	srv, api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		fmt.Fprint(w, chatContentResponse(`{"prompt":"x","verdict":"UNSAFE"}`))
	})
	defer srv.Close()

	safe, err := NewSafetyGate(api, "gpt-4o-mini", StrategyChat).Check(context.Background(), "x")
	require.NoError(t, err)
	assert.False(t, safe)
}

func TestPromptEnhancerReturnsRewrite(t *testing.T) {
	srv, api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatContentResponse("a red fox in fresh snow, winter dawn light, 35mm"))
	})
	defer srv.Close()

	out, err := NewPromptEnhancer(api, "gpt-4o-mini").Enhance(context.Background(), "a red fox in snow")
	require.NoError(t, err)
	assert.Contains(t, out, "red fox")
}

func TestPromptEnhancerEmptyResponseIsFatal(t *testing.T) {
	srv, api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatContentResponse("   "))
	})
	defer srv.Close()

	_, err := NewPromptEnhancer(api, "gpt-4o-mini").Enhance(context.Background(), "a red fox in snow")
	assert.ErrorIs(t, err, ErrEnhancerEmpty)
}

func TestSynthesizeFullPayload(t *testing.T) {
	srv, api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatContentResponse(`{"title":"Fox at Dawn","description":"A fox.","mood":"serene","verse":"red on white"}`))
	})
	defer srv.Close()

	s := NewAttributeSynthesizer(api, "gpt-4o-mini", "PMNT", "uploads")
	cfg, err := s.Synthesize(context.Background(), "a red fox", 482915, "xyz")
	require.NoError(t, err)

	assert.Equal(t, "Fox at Dawn", cfg.Metadata.Name)
	assert.Equal(t, "PMNT", cfg.Metadata.Symbol)
	assert.Equal(t, "nft_482915.png", cfg.ImageFileName)
	require.Len(t, cfg.Metadata.Attributes, 3)
	assert.Equal(t, "Mood", cfg.Metadata.Attributes[0].TraitType)
	assert.Equal(t, "serene", cfg.Metadata.Attributes[0].Value)
	assert.Equal(t, "xyz", cfg.Metadata.Attributes[2].Value)
}

func TestSynthesizeMissingFieldsDefaultToEmpty(t *testing.T) {
	srv, api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatContentResponse(`{"mood":"stormy"}`))
	})
	defer srv.Close()

	s := NewAttributeSynthesizer(api, "gpt-4o-mini", "PMNT", "uploads")
	cfg, err := s.Synthesize(context.Background(), "a storm", 7, "")
	require.NoError(t, err)

	assert.Equal(t, "Prompt Mint #7", cfg.Metadata.Name, "missing title falls back to numbered name")
	assert.Empty(t, cfg.Metadata.Description)
	assert.Equal(t, "stormy", cfg.Metadata.Attributes[0].Value)
	assert.Empty(t, cfg.Metadata.Attributes[1].Value)
}

func TestSynthesizeDegradesOnUpstreamFailure(t *testing.T) {
	srv, api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusInternalServerError)
	})
	defer srv.Close()

	s := NewAttributeSynthesizer(api, "gpt-4o-mini", "PMNT", "uploads")
	cfg, err := s.Synthesize(context.Background(), "a storm", 9, "memo")
	require.NoError(t, err, "synthesizer must degrade, not fail")
	assert.Equal(t, "Prompt Mint #9", cfg.Metadata.Name)
}

func TestImageProducerDownloadsAndPersists(t *testing.T) {
	dir := t.TempDir()

	var srv *httptest.Server
	srv, api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/images/generations":
			fmt.Fprintf(w, `{"data":[{"url":"%s/artwork.png"}]}`, srv.URL)
		case "/artwork.png":
			_, _ = w.Write([]byte("png-bytes"))
		default:
			http.NotFound(w, r)
		}
	})
	defer srv.Close()

	p := NewImageProducer(api, "dall-e-3", dir)
	path, err := p.Produce(context.Background(), "a red fox in snow", 42)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "nft_42.png"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestImageProducerNoDataIsFatal(t *testing.T) {
	srv, api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	})
	defer srv.Close()

	_, err := NewImageProducer(api, "dall-e-3", t.TempDir()).Produce(context.Background(), "x", 1)
	assert.ErrorIs(t, err, ErrImageNoData)
}

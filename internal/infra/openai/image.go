// internal/infra/openai/image.go
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
)

var ErrImageNoData = errors.New("image_producer: model returned no image")

// ImageProducer requests one square image from the generative model,
// downloads it and persists it under a per-request unique filename inside
// the upload directory.
type ImageProducer struct {
	api       *goopenai.Client
	model     string
	uploadDir string

	download *http.Client
}

func NewImageProducer(api *goopenai.Client, model, uploadDir string) *ImageProducer {
	return &ImageProducer{
		api:       api,
		model:     model,
		uploadDir: uploadDir,
		download: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Produce generates an image for prompt and returns the local file path.
// ネットワーク・ディスクいずれの失敗も致命的エラーとして伝播します。
func (p *ImageProducer) Produce(ctx context.Context, prompt string, nonce int64) (string, error) {
	if p == nil || p.api == nil {
		return "", errors.New("image_producer: not configured")
	}

	resp, err := p.api.CreateImage(ctx, goopenai.ImageRequest{
		Prompt:         prompt,
		Model:          p.model,
		N:              1,
		Size:           goopenai.CreateImageSize1024x1024,
		ResponseFormat: goopenai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return "", fmt.Errorf("image_producer: generate: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", ErrImageNoData
	}
	imageURL := resp.Data[0].URL

	data, err := p.fetch(ctx, imageURL)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(p.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("image_producer: mkdir %s: %w", p.uploadDir, err)
	}

	path := filepath.Join(p.uploadDir, fmt.Sprintf("nft_%d.png", nonce))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("image_producer: write %s: %w", path, err)
	}

	log.Printf("[image_producer] saved %s (%d bytes)", path, len(data))
	return path, nil
}

func (p *ImageProducer) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("image_producer: new request: %w", err)
	}

	resp, err := p.download.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image_producer: download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("image_producer: download status=%d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("image_producer: read body: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image_producer: empty image body")
	}
	return data, nil
}

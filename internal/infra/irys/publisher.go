// internal/infra/irys/publisher.go
package irys

import (
	"context"
	"fmt"
	"log"
	"os"

	"promptmint/internal/domain/nft"
)

// Uploader is the storage surface the publisher depends on.
type Uploader interface {
	UploadFile(ctx context.Context, name, contentType string, data []byte) (string, error)
	UploadJSON(ctx context.Context, doc []byte) (string, error)
}

// AssetPublisher pushes the generated image and its metadata document to
// content-addressed storage and returns the metadata URI.
type AssetPublisher struct {
	uploader Uploader
}

func NewAssetPublisher(uploader Uploader) *AssetPublisher {
	return &AssetPublisher{uploader: uploader}
}

// Publish reads the local image, uploads it, merges the returned image URI
// into cfg and uploads the resulting metadata JSON. Each step is a single
// attempt; an empty URI from either step is a hard failure (the uploader
// enforces that).
func (p *AssetPublisher) Publish(ctx context.Context, imagePath string, cfg *nft.Config) (string, error) {
	if p == nil || p.uploader == nil {
		return "", fmt.Errorf("asset_publisher: not configured")
	}
	if cfg == nil {
		return "", fmt.Errorf("asset_publisher: nft config is nil")
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("asset_publisher: read image %s: %w", imagePath, err)
	}

	imageURI, err := p.uploader.UploadFile(ctx, cfg.ImageFileName, cfg.ImageMimeType, data)
	if err != nil {
		return "", fmt.Errorf("asset_publisher: upload image: %w", err)
	}
	cfg.SetImageURI(imageURI)

	doc, err := cfg.MarshalMetadata()
	if err != nil {
		return "", fmt.Errorf("asset_publisher: %w", err)
	}

	metadataURI, err := p.uploader.UploadJSON(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("asset_publisher: upload metadata: %w", err)
	}

	log.Printf("[asset_publisher] published image=%s metadata=%s", imageURI, metadataURI)
	return metadataURI, nil
}

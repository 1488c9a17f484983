// internal/adapters/out/gcs/asset_archiver.go
package gcs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"cloud.google.com/go/storage"
)

// AssetArchiverGCS は生成画像と metadata JSON の控えを GCS に残すアダプタ。
// 配信は分散ストレージ側の URI が正であり、こちらはあくまで運用用の
// アーカイブです（ローカルの upload ディレクトリ掃除前に呼ぶ）。
type AssetArchiverGCS struct {
	Client *storage.Client
	Bucket string
}

func NewAssetArchiverGCS(client *storage.Client, bucket string) *AssetArchiverGCS {
	return &AssetArchiverGCS{
		Client: client,
		Bucket: strings.TrimSpace(bucket),
	}
}

// Enabled はアーカイブ先が構成済みかを返します。
func (a *AssetArchiverGCS) Enabled() bool {
	return a != nil && a.Client != nil && a.Bucket != ""
}

// ArchiveFile はローカルファイルを jobs/{jobID}/{name} に書き込みます。
func (a *AssetArchiverGCS) ArchiveFile(ctx context.Context, jobID, localPath, contentType string) error {
	if !a.Enabled() {
		return nil
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("asset_archiver: read %s: %w", localPath, err)
	}
	return a.write(ctx, objectPathFor(jobID, lastSegment(localPath)), contentType, data)
}

// ArchiveJSON は metadata JSON を jobs/{jobID}/{name} に書き込みます。
func (a *AssetArchiverGCS) ArchiveJSON(ctx context.Context, jobID, name string, doc []byte) error {
	if !a.Enabled() {
		return nil
	}
	return a.write(ctx, objectPathFor(jobID, name), "application/json", doc)
}

func (a *AssetArchiverGCS) write(ctx context.Context, objectPath, contentType string, data []byte) error {
	if objectPath == "" {
		return errors.New("asset_archiver: empty object path")
	}

	w := a.Client.Bucket(a.Bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("asset_archiver: write gs://%s/%s: %w", a.Bucket, objectPath, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("asset_archiver: close gs://%s/%s: %w", a.Bucket, objectPath, err)
	}

	log.Printf("[asset_archiver] archived gs://%s/%s (%d bytes)", a.Bucket, objectPath, len(data))
	return nil
}

func objectPathFor(jobID, name string) string {
	jobID = strings.TrimSpace(jobID)
	name = sanitizeFileName(name)
	if jobID == "" || name == "" {
		return ""
	}
	return "jobs/" + jobID + "/" + name
}

func sanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "/", "_")
	return name
}

func lastSegment(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if i := strings.LastIndex(p, "/"); i >= 0 && i < len(p)-1 {
		return p[i+1:]
	}
	return p
}

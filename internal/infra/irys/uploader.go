// internal/infra/irys/uploader.go
package irys

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

var ErrEmptyURI = errors.New("irys: upload response has empty uri")

// HTTPUploader は Irys Uploader (Cloud Run) の HTTP API を叩く実装です。
// 画像は /upload/file、metadata JSON は /upload/json に送り、
// どちらもレスポンスの {"uri": "..."} を返します。
type HTTPUploader struct {
	client  *http.Client
	baseURL string
	apiKey  string // 認証が必要な場合に使用（IRYS_SERVICE_API_KEY など）
}

// NewHTTPUploader は uploader を生成します。
func NewHTTPUploader(baseURL, apiKey string) *HTTPUploader {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/")

	return &HTTPUploader{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// UploadFile uploads raw bytes with a declared content type and display name
// and returns the content URI. Single attempt, no retry.
func (u *HTTPUploader) UploadFile(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("irys: file data is empty")
	}
	if u.baseURL == "" {
		return "", fmt.Errorf("irys: baseURL is empty; uploader endpoint not configured")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return "", fmt.Errorf("irys: create multipart: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("irys: write multipart: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("irys: close multipart: %w", err)
	}

	uri, err := u.post(ctx, "/upload/file", mw.FormDataContentType(), &body)
	if err != nil {
		return "", err
	}
	log.Printf("[irys] UploadFile OK name=%s uri=%s", name, uri)
	return uri, nil
}

// UploadJSON uploads a JSON document and returns its content URI.
// Single attempt, no retry.
func (u *HTTPUploader) UploadJSON(ctx context.Context, doc []byte) (string, error) {
	if len(doc) == 0 {
		return "", fmt.Errorf("irys: json document is empty")
	}
	if u.baseURL == "" {
		return "", fmt.Errorf("irys: baseURL is empty; uploader endpoint not configured")
	}

	uri, err := u.post(ctx, "/upload/json", "application/json", bytes.NewReader(doc))
	if err != nil {
		return "", err
	}
	log.Printf("[irys] UploadJSON OK uri=%s", uri)
	return uri, nil
}

func (u *HTTPUploader) post(ctx context.Context, path, contentType string, body io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+path, body)
	if err != nil {
		return "", fmt.Errorf("irys: create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("irys: upload %s: %w", path, err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[irys] upload %s FAILED status=%d body=%s", path, resp.StatusCode, string(bodyBytes))
		return "", fmt.Errorf("irys: upload %s failed: status=%d body=%s", path, resp.StatusCode, string(bodyBytes))
	}

	var res struct {
		URI string `json:"uri"` // 例: "https://gateway.irys.xyz/xxxx"
	}
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		return "", fmt.Errorf("irys: decode upload response: %w", err)
	}
	if res.URI == "" {
		log.Printf("[irys] upload %s returned empty uri body=%s", path, string(bodyBytes))
		return "", ErrEmptyURI
	}
	return res.URI, nil
}

// internal/domain/nft/metadata.go
package nft

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Attribute は表示用のトークン属性（trait/value）を表します。順序は保持されます。
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// File は properties.files の 1 エントリです。
type File struct {
	URI  string `json:"uri"`
	Type string `json:"type"`
}

// Properties は Metaplex 準拠の properties ブロックです。
type Properties struct {
	Files []File `json:"files"`
}

// Metadata は Arweave に置く metadata.json の本体です。
type Metadata struct {
	Name        string      `json:"name"`
	Symbol      string      `json:"symbol"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	Attributes  []Attribute `json:"attributes"`
	Properties  Properties  `json:"properties"`
}

// Config は 1 リクエスト分の NFT 生成設定です。
// Attribute Synthesizer が組み立て、Asset Publisher が画像 URI を 1 度だけ
// 書き込んだあとは使い捨てになります。
type Config struct {
	UploadPath    string
	ImageFileName string
	ImageMimeType string
	Metadata      Metadata
}

// SetImageURI はアップロード済み画像の URI を metadata に反映します。
func (c *Config) SetImageURI(uri string) {
	c.Metadata.Image = uri
	c.Metadata.Properties.Files = []File{
		{URI: uri, Type: c.ImageMimeType},
	}
}

// MarshalMetadata は metadata.json のバイト列を返します。
func (c *Config) MarshalMetadata() ([]byte, error) {
	if strings.TrimSpace(c.Metadata.Name) == "" {
		return nil, fmt.Errorf("nft: metadata name is empty")
	}
	b, err := json.Marshal(c.Metadata)
	if err != nil {
		return nil, fmt.Errorf("nft: marshal metadata: %w", err)
	}
	return b, nil
}

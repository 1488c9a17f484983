// internal/infra/openai/attributes.go
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"promptmint/internal/domain/nft"
)

// AttributeSynthesizer derives display metadata (title, description, mood,
// short verse) from the enhanced prompt.
//
// この段階は「失敗よりも劣化した出力」を優先します。モデル呼び出しや
// パースに失敗しても空フィールドの Config にフォールバックし、
// パイプラインは止めません。
type AttributeSynthesizer struct {
	api    *goopenai.Client
	model  string
	symbol string

	uploadDir string
}

func NewAttributeSynthesizer(api *goopenai.Client, model, symbol, uploadDir string) *AttributeSynthesizer {
	return &AttributeSynthesizer{api: api, model: model, symbol: symbol, uploadDir: uploadDir}
}

type attributePayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Mood        string `json:"mood"`
	Verse       string `json:"verse"`
}

// Synthesize builds the NFTConfig for one request. nonce disambiguates the
// artwork name and file name; note is the user-supplied memo text carried
// into the attributes.
func (s *AttributeSynthesizer) Synthesize(ctx context.Context, enhancedPrompt string, nonce int64, note string) (nft.Config, error) {
	if s == nil || s.api == nil {
		return nft.Config{}, errors.New("attribute_synthesizer: not configured")
	}

	payload := s.request(ctx, enhancedPrompt)

	title := strings.TrimSpace(payload.Title)
	if title == "" {
		title = fmt.Sprintf("Prompt Mint #%d", nonce)
	}

	cfg := nft.Config{
		UploadPath:    s.uploadDir,
		ImageFileName: fmt.Sprintf("nft_%d.png", nonce),
		ImageMimeType: "image/png",
		Metadata: nft.Metadata{
			Name:        title,
			Symbol:      s.symbol,
			Description: strings.TrimSpace(payload.Description),
			Attributes: []nft.Attribute{
				{TraitType: "Mood", Value: strings.TrimSpace(payload.Mood)},
				{TraitType: "Verse", Value: strings.TrimSpace(payload.Verse)},
				{TraitType: "Note", Value: strings.TrimSpace(note)},
			},
		},
	}
	return cfg, nil
}

// request returns the model payload, or a zero payload on any failure.
func (s *AttributeSynthesizer) request(ctx context.Context, enhancedPrompt string) attributePayload {
	resp, err := s.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: s.model,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role: goopenai.ChatMessageRoleSystem,
				Content: `You describe an artwork for its collectible card. Respond with JSON only: ` +
					`{"title": "...", "description": "...", "mood": "...", "verse": "..."}. ` +
					`The verse is a short poem of at most two lines.`,
			},
			{Role: goopenai.ChatMessageRoleUser, Content: enhancedPrompt},
		},
	})
	if err != nil {
		log.Printf("[attribute_synthesizer] chat call failed, using defaults: %v", err)
		return attributePayload{}
	}
	if len(resp.Choices) == 0 {
		log.Printf("[attribute_synthesizer] empty chat response, using defaults")
		return attributePayload{}
	}

	var payload attributePayload
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &payload); err != nil {
		log.Printf("[attribute_synthesizer] parse failed, using defaults: %v", err)
		return attributePayload{}
	}
	return payload
}

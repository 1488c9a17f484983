// internal/infra/openai/enhancer.go
package openai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
)

var ErrEnhancerEmpty = errors.New("prompt_enhancer: model returned empty prompt")

// PromptEnhancer rewrites the raw user prompt into a generation prompt.
// リトライなし。ここでの失敗はリクエスト全体の失敗として伝播します。
type PromptEnhancer struct {
	api   *goopenai.Client
	model string
}

func NewPromptEnhancer(api *goopenai.Client, model string) *PromptEnhancer {
	return &PromptEnhancer{api: api, model: model}
}

// Enhance performs a single-turn rewrite preserving intent while improving
// artistic specificity.
func (e *PromptEnhancer) Enhance(ctx context.Context, prompt string) (string, error) {
	if e == nil || e.api == nil {
		return "", errors.New("prompt_enhancer: not configured")
	}

	resp, err := e.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0.7,
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role: goopenai.ChatMessageRoleSystem,
				Content: "You rewrite prompts for a text-to-image model. Keep the subject and intent " +
					"exactly as given, add concrete artistic detail (medium, lighting, composition, mood). " +
					"Reply with the rewritten prompt only, no preamble.",
			},
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("prompt_enhancer: chat call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEnhancerEmpty
	}

	enhanced := strings.TrimSpace(resp.Choices[0].Message.Content)
	if enhanced == "" {
		return "", ErrEnhancerEmpty
	}

	log.Printf("[prompt_enhancer] enhanced %d -> %d chars", len(prompt), len(enhanced))
	return enhanced, nil
}

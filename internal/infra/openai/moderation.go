// internal/infra/openai/moderation.go
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
)

// Strategy selects how the safety verdict is obtained.
type Strategy string

const (
	// StrategyModeration delegates to the moderation classifier; any flagged
	// result maps to unsafe.
	StrategyModeration Strategy = "moderation"
	// StrategyChat uses a structured-output chat call constrained to a
	// two-field record and reads the verdict field, lower-cased.
	StrategyChat Strategy = "chat"
)

var ErrGateNotConfigured = errors.New("safety_gate: not configured")

// SafetyGate returns a binary safe/unsafe verdict for free text.
// パイプラインはトランザクション生成より前にここで止まります。
type SafetyGate struct {
	api       *goopenai.Client
	chatModel string
	strategy  Strategy
}

func NewSafetyGate(api *goopenai.Client, chatModel string, strategy Strategy) *SafetyGate {
	if strategy != StrategyChat {
		strategy = StrategyModeration
	}
	return &SafetyGate{api: api, chatModel: chatModel, strategy: strategy}
}

// Check reports whether prompt is safe to continue with.
func (g *SafetyGate) Check(ctx context.Context, prompt string) (safe bool, err error) {
	if g == nil || g.api == nil {
		return false, ErrGateNotConfigured
	}

	switch g.strategy {
	case StrategyChat:
		safe, err = g.checkViaChat(ctx, prompt)
	default:
		safe, err = g.checkViaModeration(ctx, prompt)
	}
	if err != nil {
		return false, err
	}

	log.Printf("[safety_gate] strategy=%s safe=%t", g.strategy, safe)
	return safe, nil
}

func (g *SafetyGate) checkViaModeration(ctx context.Context, prompt string) (bool, error) {
	res, err := g.api.Moderations(ctx, goopenai.ModerationRequest{
		Input: prompt,
		Model: goopenai.ModerationTextLatest,
	})
	if err != nil {
		return false, fmt.Errorf("safety_gate: moderation call: %w", err)
	}
	for _, r := range res.Results {
		if r.Flagged {
			return false, nil
		}
	}
	return true, nil
}

type chatVerdict struct {
	Prompt  string `json:"prompt"`
	Verdict string `json:"verdict"`
}

func (g *SafetyGate) checkViaChat(ctx context.Context, prompt string) (bool, error) {
	resp, err := g.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: g.chatModel,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role: goopenai.ChatMessageRoleSystem,
				Content: `You are a content safety classifier. Respond with JSON only: ` +
					`{"prompt": "<the prompt echoed back>", "verdict": "safe"} or "unsafe". ` +
					`Mark unsafe anything sexual, violent, hateful, or targeting real people.`,
			},
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return false, fmt.Errorf("safety_gate: chat call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return false, fmt.Errorf("safety_gate: empty chat response")
	}

	var v chatVerdict
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &v); err != nil {
		return false, fmt.Errorf("safety_gate: parse verdict: %w", err)
	}
	return strings.ToLower(strings.TrimSpace(v.Verdict)) != "unsafe", nil
}

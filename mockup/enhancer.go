package mockup

import (
	"context"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"mockupgen/config"
	"mockupgen/logging"
)

// enhancerSystemPrompt instructs the model to act as a photography prompt
// specialist. The reply must be a single prompt line, nothing else.
const enhancerSystemPrompt = "You are a product photography prompt specialist. " +
	"Rewrite the user's Stable Diffusion prompt to be more vivid and specific " +
	"while keeping every product and style constraint intact. " +
	"Reply with the rewritten prompt only, no quotes, no explanations."

// enhancerTimeout bounds the chat completion call so a slow upstream never
// stalls a generation run.
const enhancerTimeout = 15 * time.Second

// Enhancer optionally rewrites built prompts through an OpenAI chat
// completion. It is a best-effort layer: any failure falls back to the
// original prompt.
type Enhancer struct {
	client *openai.Client
	model  string
	logger *logging.Logger
}

// NewEnhancer creates a prompt enhancer from the enhancer configuration.
// Returns nil when enhancement is disabled or no API key is configured;
// callers treat a nil Enhancer as a pass-through.
func NewEnhancer(cfg config.Enhancer, logger *logging.Logger) *Enhancer {
	if !cfg.Enabled || cfg.APIKey == "" {
		return nil
	}
	return &Enhancer{
		client: openai.NewClient(cfg.APIKey),
		model:  cfg.Model,
		logger: logger,
	}
}

// Enhance rewrites a prompt via the chat completion API. On any error or
// empty reply the original prompt is returned unchanged.
func (e *Enhancer) Enhance(ctx context.Context, prompt string) string {
	if e == nil {
		return prompt
	}

	ctx, cancel := context.WithTimeout(ctx, enhancerTimeout)
	defer cancel()

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: enhancerSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   300,
		Temperature: 0.7,
	})
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("prompt enhancement failed, using original prompt", zap.Error(err))
		}
		return prompt
	}

	if len(resp.Choices) == 0 {
		return prompt
	}
	enhanced := strings.TrimSpace(resp.Choices[0].Message.Content)
	if enhanced == "" {
		return prompt
	}
	return enhanced
}

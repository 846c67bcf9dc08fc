package ai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/edgard/labsbot/internal/config"
)

// OpenAI completes prompts with the Chat Completions API.
type OpenAI struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int64
	log         *slog.Logger
}

// NewOpenAI creates an OpenAI completer. Retries on transient failures are
// left to the SDK.
func NewOpenAI(cfg config.AIConfig, logger *slog.Logger, extra ...option.RequestOption) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, extra...)

	return &OpenAI{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: float64(cfg.Temperature),
		maxTokens:   int64(cfg.MaxTokens),
		log:         logger.With("component", "openai_client"),
	}
}

func (c *OpenAI) Complete(ctx context.Context, systemPrompt, userText string) (*Completion, error) {
	c.log.DebugContext(ctx, "Requesting completion", "model", c.model, "prompt_length", len(systemPrompt), "text_length", len(userText))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userText),
		},
		MaxCompletionTokens: openai.Int(c.maxTokens),
		Temperature:         openai.Float(c.temperature),
	})
	if err != nil {
		c.log.ErrorContext(ctx, "OpenAI completion failed", "error", err)
		return nil, completionError(ProviderOpenAI, err)
	}

	if len(resp.Choices) == 0 {
		return nil, completionError(ProviderOpenAI, ErrNoContent)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		c.log.WarnContext(ctx, "OpenAI returned empty content", "finish_reason", resp.Choices[0].FinishReason)
		return nil, completionError(ProviderOpenAI, ErrNoContent)
	}

	return &Completion{Content: content, Model: resp.Model, Provider: ProviderOpenAI}, nil
}

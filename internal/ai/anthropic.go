package ai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/edgard/labsbot/internal/config"
)

// Anthropic completes prompts with the Messages API.
type Anthropic struct {
	client      anthropic.Client
	model       string
	temperature float64
	maxTokens   int64
	log         *slog.Logger
}

// NewAnthropic creates an Anthropic completer.
func NewAnthropic(cfg config.AIConfig, logger *slog.Logger, extra ...option.RequestOption) *Anthropic {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, extra...)

	return &Anthropic{
		client:      anthropic.NewClient(opts...),
		model:       cfg.Model,
		temperature: float64(cfg.Temperature),
		maxTokens:   int64(cfg.MaxTokens),
		log:         logger.With("component", "anthropic_client"),
	}
}

func (c *Anthropic) Complete(ctx context.Context, systemPrompt, userText string) (*Completion, error) {
	c.log.DebugContext(ctx, "Requesting completion", "model", c.model, "prompt_length", len(systemPrompt), "text_length", len(userText))

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(c.temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userText)),
		},
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		c.log.ErrorContext(ctx, "Anthropic completion failed", "error", err)
		return nil, completionError(ProviderAnthropic, err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}
	content := strings.TrimSpace(sb.String())
	if content == "" {
		c.log.WarnContext(ctx, "Anthropic returned empty content", "stop_reason", msg.StopReason)
		return nil, completionError(ProviderAnthropic, ErrNoContent)
	}

	return &Completion{Content: content, Model: string(msg.Model), Provider: ProviderAnthropic}, nil
}

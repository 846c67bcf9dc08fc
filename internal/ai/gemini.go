package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/edgard/labsbot/internal/config"
)

// Gemini completes prompts with Google's GenerateContent API and retries
// 500 and 503 responses itself.
type Gemini struct {
	client     *genai.Client
	model      string
	content    *genai.GenerateContentConfig
	maxRetries int
	retryDelay time.Duration
	log        *slog.Logger
}

// NewGemini creates a Gemini completer.
func NewGemini(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (*Gemini, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	gi, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	temperature := cfg.Temperature
	return &Gemini{
		client: gi,
		model:  cfg.Model,
		content: &genai.GenerateContentConfig{
			Temperature:     &temperature,
			MaxOutputTokens: int32(cfg.MaxTokens),
		},
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		log:        logger.With("component", "gemini_client"),
	}, nil
}

func (c *Gemini) Complete(ctx context.Context, systemPrompt, userText string) (*Completion, error) {
	cfg := *c.content
	if systemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}}
	}
	contents := []*genai.Content{genai.NewContentFromText(userText, genai.RoleUser)}

	resp, err := c.generateWithRetries(ctx, contents, &cfg)
	if err != nil {
		return nil, completionError(ProviderGemini, err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		c.log.WarnContext(ctx, "Gemini request blocked", "reason", resp.PromptFeedback.BlockReason)
		return nil, completionError(ProviderGemini, fmt.Errorf("%w: blocked (%s)", ErrNoContent, resp.PromptFeedback.BlockReason))
	}

	content := strings.TrimSpace(resp.Text())
	if content == "" {
		finish := "unknown"
		if len(resp.Candidates) > 0 {
			finish = string(resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "Gemini returned empty content", "finish_reason", finish)
		return nil, completionError(ProviderGemini, ErrNoContent)
	}

	return &Completion{Content: content, Model: c.model, Provider: ProviderGemini}, nil
}

func (c *Gemini) generateWithRetries(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	for attempt := 0; ; attempt++ {
		resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
		if err == nil {
			return resp, nil
		}

		code := apiErrorCode(err)
		retriable := code == 500 || code == 503
		if !retriable || attempt >= c.maxRetries {
			c.log.ErrorContext(ctx, "Gemini API call failed", "attempt", attempt+1, "error", err)
			return nil, fmt.Errorf("gemini API call failed after %d attempts: %w", attempt+1, err)
		}

		c.log.InfoContext(ctx, "Retrying Gemini API call", "attempt", attempt+1, "delay", c.retryDelay, "code", code)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
}

// apiErrorCode extracts the HTTP status from a genai API error, which may be
// returned by value or by pointer.
func apiErrorCode(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code
	}
	return 0
}

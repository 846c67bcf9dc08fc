// Package ai wraps the chat completion vendors behind a single Completer.
package ai

import (
	"context"
	"errors"
	"fmt"
)

// Provider names accepted in configuration.
const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

var (
	// ErrCompletion is matched by every failed completion call.
	ErrCompletion = errors.New("completion failed")
	// ErrNoContent means the vendor answered without any text.
	ErrNoContent = errors.New("completion returned no content")
	// ErrNotConfigured means no API key was supplied.
	ErrNotConfigured = errors.New("completion API not configured")
)

// Completion is the text a model produced for one prompt.
type Completion struct {
	Content  string
	Model    string
	Provider string
}

// Completer turns a system prompt and a user message into a completion.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userText string) (*Completion, error)
}

// CompletionError carries the provider name and the underlying cause.
type CompletionError struct {
	Provider string
	Err      error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("%s completion: %v", e.Provider, e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrCompletion) hold for any *CompletionError.
func (e *CompletionError) Is(target error) bool { return target == ErrCompletion }

func completionError(provider string, err error) error {
	return &CompletionError{Provider: provider, Err: err}
}

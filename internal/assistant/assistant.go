// Package assistant answers free-form questions with the completion API,
// grounded by the knowledge bundle.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/edgard/labsbot/internal/ai"
	"github.com/edgard/labsbot/internal/dispatch"
	"github.com/edgard/labsbot/internal/ratelimit"
	"github.com/edgard/labsbot/internal/text"
)

const contextHeader = "\n\nRELEVANT CONTEXT: "

var (
	// ErrRateLimited is reported when a user asks too often.
	ErrRateLimited = errors.New("rate limited")
	// ErrPrivateChat is reported for private chats when responses are group-only.
	ErrPrivateChat = errors.New("AI responses are only available in group chats")
)

// Knowledge supplies the prompt material taken from the bundle.
type Knowledge interface {
	SystemPrompt() string
	ContextSnippet(text string) string
}

// Config tunes a Responder.
type Config struct {
	DefaultSystemPrompt string
	Timeout             time.Duration
	MaxMessageLength    int
	TriggerKeywords     []string
	GroupOnly           bool
	// ErrorMessage is the apology shown when the completion fails.
	ErrorMessage string
	// RateLimitedMessage may contain a %d verb for the wait in seconds.
	RateLimitedMessage string
}

// Message describes an inbound chat message for trigger decisions.
type Message struct {
	Text      string
	FromBot   bool
	Private   bool
	Mentioned bool
}

// Request is one question to answer.
type Request struct {
	UserID  int64
	Text    string
	Private bool
	Replier dispatch.Replier
}

// Responder builds prompts, calls the completer and replies in chunks.
type Responder struct {
	completer ai.Completer
	knowledge Knowledge
	limiter   ratelimit.Limiter
	cfg       Config
	triggers  *regexp.Regexp
	log       *slog.Logger
}

// New creates a Responder. completer may be nil, in which case every
// request is refused with ai.ErrNotConfigured.
func New(completer ai.Completer, knowledge Knowledge, limiter ratelimit.Limiter, cfg Config, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	if limiter == nil {
		limiter = ratelimit.Noop{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Responder{
		completer: completer,
		knowledge: knowledge,
		limiter:   limiter,
		cfg:       cfg,
		triggers:  triggerPattern(cfg.TriggerKeywords),
		log:       logger.With("component", "assistant"),
	}
}

// triggerPattern compiles keywords into one case-insensitive whole-word
// regexp, or nil when there are none.
func triggerPattern(keywords []string) *regexp.Regexp {
	quoted := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			quoted = append(quoted, regexp.QuoteMeta(k))
		}
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// Enabled reports whether a completer is configured.
func (r *Responder) Enabled() bool { return r.completer != nil }

// ShouldRespond reports whether msg is addressed to the assistant: the bot
// is mentioned or a trigger keyword appears as a whole word. Bot senders are
// ignored, as are private chats in group-only mode.
func (r *Responder) ShouldRespond(msg Message) bool {
	if !r.Enabled() || msg.FromBot {
		return false
	}
	if msg.Private && r.cfg.GroupOnly {
		return false
	}
	if msg.Mentioned {
		return true
	}
	return r.triggers != nil && r.triggers.MatchString(msg.Text)
}

// SystemPrompt assembles the prompt for question: the bundle prompt, or the
// configured default, plus the matched context snippet if any.
func (r *Responder) SystemPrompt(question string) string {
	prompt := ""
	snippet := ""
	if r.knowledge != nil {
		prompt = r.knowledge.SystemPrompt()
		snippet = r.knowledge.ContextSnippet(question)
	}
	if strings.TrimSpace(prompt) == "" {
		prompt = r.cfg.DefaultSystemPrompt
	}
	if snippet != "" {
		prompt += contextHeader + snippet
	}
	return prompt
}

// Respond answers req and reports the outcome. It never returns an error;
// every failure is logged, answered with a reply and described in the Result
// reason.
func (r *Responder) Respond(ctx context.Context, req Request) dispatch.Result {
	log := r.log.With("user_id", req.UserID)

	if r.completer == nil {
		r.reply(ctx, log, req.Replier, r.cfg.ErrorMessage)
		return dispatch.Result{Success: false, Reason: ai.ErrNotConfigured.Error()}
	}
	if req.Private && r.cfg.GroupOnly {
		r.reply(ctx, log, req.Replier, r.cfg.ErrorMessage)
		return dispatch.Result{Success: false, Reason: ErrPrivateChat.Error()}
	}

	decision := r.limiter.ProcessMessage(req.UserID, req.Text)
	if decision.ShouldRateLimit {
		log.InfoContext(ctx, "Request rate limited", "remaining", decision.RemainingCooldown)
		r.reply(ctx, log, req.Replier, r.rateLimitedText(decision.CooldownSeconds()))
		return dispatch.Result{Success: false, Reason: fmt.Errorf("%w: %s", ErrRateLimited, decision.Reason).Error()}
	}

	question := text.StripMentions(req.Text)
	systemPrompt := r.SystemPrompt(question)

	callCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	start := time.Now()
	completion, err := r.completer.Complete(callCtx, systemPrompt, question)
	answer := ""
	if err == nil {
		answer = text.Normalize(text.PlainText(completion.Content))
		if answer == "" {
			err = ai.ErrNoContent
		}
	}
	if err != nil {
		log.ErrorContext(ctx, "Completion failed", "error", err, "duration", time.Since(start))
		r.reply(ctx, log, req.Replier, r.cfg.ErrorMessage)
		return dispatch.Result{Success: false, Reason: err.Error()}
	}

	chunks := text.Split(answer, r.cfg.MaxMessageLength)
	log.InfoContext(ctx, "Completion delivered",
		"provider", completion.Provider,
		"model", completion.Model,
		"chunks", len(chunks),
		"duration", time.Since(start))

	for i, chunk := range chunks {
		if req.Replier == nil {
			break
		}
		var sendErr error
		if i == 0 {
			sendErr = req.Replier.Reply(ctx, chunk)
		} else {
			sendErr = req.Replier.Send(ctx, chunk)
		}
		if sendErr != nil {
			log.ErrorContext(ctx, "Failed to deliver answer", "chunk", i, "error", sendErr)
			return dispatch.Result{Success: false, Reason: fmt.Sprintf("failed to deliver answer: %v", sendErr)}
		}
	}
	return dispatch.Result{Success: true}
}

func (r *Responder) reply(ctx context.Context, log *slog.Logger, replier dispatch.Replier, msg string) {
	if replier == nil || msg == "" {
		return
	}
	if err := replier.Reply(ctx, msg); err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err)
	}
}

func (r *Responder) rateLimitedText(seconds int) string {
	if strings.Contains(r.cfg.RateLimitedMessage, "%d") {
		return fmt.Sprintf(r.cfg.RateLimitedMessage, seconds)
	}
	if r.cfg.RateLimitedMessage != "" {
		return r.cfg.RateLimitedMessage
	}
	return fmt.Sprintf("Please wait %d seconds before asking again.", seconds)
}

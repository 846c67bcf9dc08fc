// Package dispatch routes prefixed chat commands to registered handlers and
// turns every failure into a single user-facing reply.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// ReasonUnknownCommand is the Result reason for unregistered commands.
const ReasonUnknownCommand = "Unknown command"

// Replier sends text back to the conversation a request came from.
type Replier interface {
	// Reply answers the originating message.
	Reply(ctx context.Context, text string) error
	// Send posts a follow-up message to the same chat.
	Send(ctx context.Context, text string) error
}

// Request is one parsed command invocation.
type Request struct {
	Command  string
	Args     []string
	Text     string
	UserID   int64
	ChatID   int64
	Username string
	Replier  Replier
}

// Result reports how a command or question was handled.
type Result struct {
	Success bool
	Reason  string
}

// HandlerFunc handles a command. Returning a *UserError shows its message to
// the user; any other error shows the generic error message.
type HandlerFunc func(ctx context.Context, req *Request) error

// Middleware wraps a HandlerFunc.
type Middleware func(HandlerFunc) HandlerFunc

// Messages are the user-facing failure texts. UnknownCommand may contain a
// %s verb for the command name.
type Messages struct {
	UnknownCommand string
	GeneralError   string
}

// Dispatcher maps lower-cased command names to handlers. It is safe for
// concurrent use; registration may happen while commands are dispatched.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	logger   *slog.Logger
	messages Messages
}

// New creates an empty Dispatcher.
func New(logger *slog.Logger, messages Messages) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		logger:   logger.With("component", "dispatcher"),
		messages: messages,
	}
}

// applyMiddleware wraps handler so the first middleware is the outermost.
func applyMiddleware(handler HandlerFunc, mw []Middleware) HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

// Register binds name to handler, replacing any previous binding.
func (d *Dispatcher) Register(name string, handler HandlerFunc, mw ...Middleware) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || handler == nil {
		d.logger.Warn("Skipping registration of empty command", "name", name)
		return
	}

	d.mu.Lock()
	_, replaced := d.handlers[name]
	d.handlers[name] = applyMiddleware(handler, mw)
	d.mu.Unlock()

	d.logger.Debug("Registered command", "command", name, "replaced", replaced, "middleware_count", len(mw))
}

// Unregister removes name. Unknown names are ignored.
func (d *Dispatcher) Unregister(name string) {
	d.mu.Lock()
	delete(d.handlers, strings.ToLower(name))
	d.mu.Unlock()
}

// Has reports whether name is registered.
func (d *Dispatcher) Has(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[strings.ToLower(name)]
	return ok
}

// Commands returns the registered names in sorted order.
func (d *Dispatcher) Commands() []string {
	d.mu.RLock()
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	d.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Dispatch runs the handler registered for name. It never returns an error
// or panics: failures become an unsuccessful Result plus one reply.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, req *Request) Result {
	name = strings.ToLower(name)
	if req == nil {
		req = &Request{}
	}
	req.Command = name
	log := d.logger.With("command", name, "user_id", req.UserID, "chat_id", req.ChatID)

	d.mu.RLock()
	handler, ok := d.handlers[name]
	d.mu.RUnlock()

	if !ok {
		log.InfoContext(ctx, "Unknown command")
		d.reply(ctx, log, req, d.unknownCommandText(name))
		return Result{Success: false, Reason: ReasonUnknownCommand}
	}

	if err := d.invoke(ctx, handler, req); err != nil {
		log.ErrorContext(ctx, "Command failed", "error", err)
		d.reply(ctx, log, req, d.userMessage(err))
		return Result{Success: false, Reason: err.Error()}
	}

	log.InfoContext(ctx, "Command handled")
	return Result{Success: true}
}

func (d *Dispatcher) invoke(ctx context.Context, handler HandlerFunc, req *Request) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return handler(ctx, req)
}

func (d *Dispatcher) reply(ctx context.Context, log *slog.Logger, req *Request, text string) {
	if req.Replier == nil || text == "" {
		return
	}
	if err := req.Replier.Reply(ctx, text); err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err)
	}
}

func (d *Dispatcher) unknownCommandText(name string) string {
	if strings.Contains(d.messages.UnknownCommand, "%s") {
		return fmt.Sprintf(d.messages.UnknownCommand, name)
	}
	if d.messages.UnknownCommand != "" {
		return d.messages.UnknownCommand
	}
	return ReasonUnknownCommand
}

func (d *Dispatcher) userMessage(err error) string {
	var userErr *UserError
	if errors.As(err, &userErr) && userErr.Message != "" {
		return userErr.Message
	}
	if d.messages.GeneralError != "" {
		return d.messages.GeneralError
	}
	return "Something went wrong. Please try again later."
}

// Parse splits a prefixed command line into a lower-cased name and its
// arguments. ok is false when text does not start with prefix or names no
// command.
func Parse(prefix, text string) (name string, args []string, ok bool) {
	trimmed := strings.TrimSpace(text)
	if prefix == "" || !strings.HasPrefix(trimmed, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(trimmed, prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

package commands

import (
	"sort"
	"strings"
	"sync"

	"github.com/edgard/labsbot/internal/dispatch"
	"github.com/edgard/labsbot/internal/knowledge"
)

// Built-in command names. They take precedence over bundle commands with the
// same name.
const (
	CommandHelp   = "help"
	CommandStatus = "status"
	CommandReload = "reload"
)

var builtins = map[string]bool{CommandHelp: true, CommandStatus: true, CommandReload: true}

// Registrar keeps the dispatcher's knowledge commands in sync with the
// active bundle.
type Registrar struct {
	deps Deps

	mu      sync.Mutex
	current map[string]bool
}

// Register installs the built-in commands and the bundle commands, and
// re-syncs the bundle commands after every reload.
func Register(deps Deps) *Registrar {
	r := &Registrar{deps: deps, current: map[string]bool{}}

	d := deps.Dispatcher
	d.Register(CommandHelp, NewHelpHandler(deps))
	d.Register(CommandStatus, NewStatusHandler(deps))
	d.Register(CommandReload, NewReloadHandler(deps),
		dispatch.AdminOnly(deps.Config.Telegram.AdminUserID, deps.Config.Messages.NotAuthorized))

	r.Sync(deps.Store.Bundle())
	deps.Store.OnReload(r.Sync)
	return r
}

// Sync registers a handler for every commands_map entry and for each
// priority product alias, and removes handlers for commands that are gone.
func (r *Registrar) Sync(b *knowledge.Bundle) {
	if b == nil {
		return
	}
	log := r.deps.Logger.With("component", "command_registrar")

	next := map[string]bool{}
	for name := range b.CommandsMap {
		name = strings.ToLower(name)
		if builtins[name] {
			log.Warn("Bundle command shadowed by built-in", "command", name)
			continue
		}
		next[name] = true
	}

	aliases := productAliases(b, next)
	for alias := range aliases {
		next[alias] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for name := range r.current {
		if !next[name] {
			r.deps.Dispatcher.Unregister(name)
		}
	}
	for name := range next {
		target := name
		if t, ok := aliases[name]; ok {
			target = t
		}
		r.deps.Dispatcher.Register(name, NewKnowledgeHandler(r.deps, target))
	}
	r.current = next

	log.Info("Knowledge commands registered", "count", len(next), "aliases", len(aliases))
}

// Commands returns the registered knowledge command names, sorted.
func (r *Registrar) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.current))
	for name := range r.current {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// productCommand is how help spells a product's command: lower case without
// spaces.
func productCommand(product string) string {
	return strings.ToLower(strings.Join(strings.Fields(product), ""))
}

// productAliases maps product commands that are not in commands_map to the
// longest existing command they contain, e.g. zenthinkai -> zenthink and
// f3parlayai -> parlay.
func productAliases(b *knowledge.Bundle, existing map[string]bool) map[string]string {
	aliases := map[string]string{}
	for _, product := range b.Meta.PriorityProducts {
		alias := productCommand(product)
		if alias == "" || existing[alias] || builtins[alias] {
			continue
		}
		best := ""
		for name := range existing {
			if strings.Contains(alias, name) && len(name) > len(best) {
				best = name
			}
		}
		if best != "" {
			aliases[alias] = best
		}
	}
	return aliases
}

// displayName returns the priority product a command refers to, or the
// command itself.
func displayName(b *knowledge.Bundle, command string) string {
	if b != nil {
		for _, product := range b.Meta.PriorityProducts {
			if strings.Contains(productCommand(product), command) {
				return product
			}
		}
	}
	return command
}

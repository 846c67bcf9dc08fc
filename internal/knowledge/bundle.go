// Package knowledge loads the product knowledge bundle, resolves canned
// responses for commands and picks context snippets for AI prompts.
package knowledge

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Bundle is the parsed knowledge document. A loaded Bundle is never mutated;
// refreshes replace it wholesale.
type Bundle struct {
	Responses    map[string]string   `json:"responses"               yaml:"responses"               validate:"required"`
	Links        map[string]string   `json:"links"                   yaml:"links"`
	CommandsMap  map[string][]string `json:"commands_map"            yaml:"commands_map"            validate:"dive,dive,required"`
	Meta         Meta                `json:"meta"                    yaml:"meta"`
	SystemPrompt string              `json:"system_prompt"           yaml:"system_prompt"`
	ContextRules []ContextRule       `json:"context_rules,omitempty" yaml:"context_rules,omitempty" validate:"dive"`
}

// Meta carries bundle-level metadata.
type Meta struct {
	PriorityProducts []string `json:"priority_products" yaml:"priority_products" validate:"dive,required"`
}

// linkPlaceholder matches {links.<key>} templates inside response texts.
var linkPlaceholder = regexp.MustCompile(`\{links\.([a-z_]+)\}`)

var bundleValidator = validator.New()

// decodeBundle parses raw bytes as YAML when the file extension says so and
// as JSON otherwise, then validates the structure.
func decodeBundle(path string, data []byte) (*Bundle, error) {
	b := &Bundle{}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, b); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, b); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}

	if err := bundleValidator.Struct(b); err != nil {
		return nil, fmt.Errorf("invalid bundle structure: %w", err)
	}

	if b.Links == nil {
		b.Links = map[string]string{}
	}
	b.CommandsMap = foldCommands(b.CommandsMap)
	return b, nil
}

// foldCommands lower-cases command names. Keys of names that differ only in
// case are merged in sorted name order.
func foldCommands(in map[string][]string) map[string][]string {
	names := make([]string, 0, len(in))
	for name := range in {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string][]string, len(in))
	for _, name := range names {
		folded := strings.ToLower(strings.TrimSpace(name))
		out[folded] = append(out[folded], in[name]...)
	}
	return out
}

// interpolateLinks replaces every {links.<key>} placeholder in the response
// texts. Placeholders without a non-empty link value stay verbatim so broken
// templates remain visible.
func (b *Bundle) interpolateLinks() {
	for key, text := range b.Responses {
		b.Responses[key] = linkPlaceholder.ReplaceAllStringFunc(text, func(match string) string {
			name := linkPlaceholder.FindStringSubmatch(match)[1]
			if url := b.Links[name]; url != "" {
				return url
			}
			return match
		})
	}
}

// DanglingKeys lists "command -> key" pairs whose response key is missing.
func (b *Bundle) DanglingKeys() []string {
	var dangling []string
	for cmd, keys := range b.CommandsMap {
		for _, key := range keys {
			if _, ok := b.Responses[key]; !ok {
				dangling = append(dangling, cmd+" -> "+key)
			}
		}
	}
	sort.Strings(dangling)
	return dangling
}

// UnresolvedPlaceholders lists placeholders still present after interpolation.
func (b *Bundle) UnresolvedPlaceholders() []string {
	seen := map[string]bool{}
	var out []string
	for _, text := range b.Responses {
		for _, m := range linkPlaceholder.FindAllString(text, -1) {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out
}

package knowledge

import "strings"

// ContextRule selects a response key as extra prompt context. A rule
// matches when the message contains any of Keywords and, if Qualifiers is
// non-empty, also any of Qualifiers. Matching is case-insensitive substring
// matching.
type ContextRule struct {
	Key        string   `json:"response_key"         yaml:"response_key"         validate:"required"`
	Keywords   []string `json:"keywords"             yaml:"keywords"             validate:"required,min=1,dive,required"`
	Qualifiers []string `json:"qualifiers,omitempty" yaml:"qualifiers,omitempty" validate:"dive,required"`
}

// DefaultContextRules are used when the bundle declares none. Order matters:
// compound rules come first so "pump website" beats the generic pump rule.
var DefaultContextRules = []ContextRule{
	{Key: "zenthink_website", Keywords: []string{"zenthink"}, Qualifiers: []string{"website", "site"}},
	{Key: "pump_website", Keywords: []string{"pump"}, Qualifiers: []string{"website", "site"}},
	{Key: "zenthink_overview", Keywords: []string{"zenthink", "zen think"}},
	{Key: "parlay_overview", Keywords: []string{"parlay", "sports"}},
	{Key: "pump_overview", Keywords: []string{"pump", "pill", "arena"}},
	{Key: "trading_overview", Keywords: []string{"trading", "bot"}},
	{Key: "weekly_update_global", Keywords: []string{"status", "update"}},
}

func (r ContextRule) matches(lower string) bool {
	if !containsAny(lower, r.Keywords) {
		return false
	}
	return len(r.Qualifiers) == 0 || containsAny(lower, r.Qualifiers)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// MatchContext returns the key of the first rule matching text, or "" when
// none does.
func MatchContext(rules []ContextRule, text string) string {
	lower := strings.ToLower(text)
	for _, rule := range rules {
		if rule.matches(lower) {
			return rule.Key
		}
	}
	return ""
}

// Rules returns the bundle's rules, or the defaults when it has none.
func (b *Bundle) Rules() []ContextRule {
	if b != nil && len(b.ContextRules) > 0 {
		return b.ContextRules
	}
	return DefaultContextRules
}

// ContextSnippet returns the response text picked by the context rules for
// text. It returns "" when no rule matches or the matched response is empty.
func (s *Store) ContextSnippet(text string) string {
	b := s.Bundle()
	if b == nil {
		return ""
	}
	key := MatchContext(b.Rules(), text)
	if key == "" {
		return ""
	}
	snippet := b.Responses[key]
	s.logger.Debug("Matched context rule", "key", key, "found", snippet != "")
	return snippet
}

package knowledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchContext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want string
	}{
		{text: "What is the ZenThink website?", want: "zenthink_website"},
		{text: "zenthink site please", want: "zenthink_website"},
		{text: "where is the pump site", want: "pump_website"},
		{text: "tell me about Zen Think", want: "zenthink_overview"},
		{text: "zenthink pump website", want: "zenthink_website"},
		{text: "any sports bets?", want: "parlay_overview"},
		{text: "how do I play the arena", want: "pump_overview"},
		{text: "pump it", want: "pump_overview"},
		{text: "is the trading thing live", want: "trading_overview"},
		{text: "robot", want: "trading_overview"},
		{text: "any update this week?", want: "weekly_update_global"},
		{text: "hello there", want: ""},
		{text: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MatchContext(DefaultContextRules, tt.text))
		})
	}
}

func TestContextSnippet(t *testing.T) {
	t.Parallel()

	t.Run("default rules", func(t *testing.T) {
		t.Parallel()
		s, _ := openSample(t)
		assert.Equal(t, "Site: https://zenthink.example", s.ContextSnippet("zenthink website?"))
		assert.Equal(t, "Shipped v2 this week.", s.ContextSnippet("weekly STATUS"))
		assert.Empty(t, s.ContextSnippet("parlay odds"), "matched key without a response")
		assert.Empty(t, s.ContextSnippet("good morning"))
	})

	t.Run("bundle rules replace defaults", func(t *testing.T) {
		t.Parallel()
		path := writeBundle(t, t.TempDir(), "bundle.json", `{
			"responses": {"fees": "Fees are 1%.", "pump_overview": "Pump"},
			"context_rules": [{"response_key": "fees", "keywords": ["fee", "cost"]}]
		}`)
		s, err := Open(context.Background(), path, nil)
		require.NoError(t, err)
		assert.Equal(t, "Fees are 1%.", s.ContextSnippet("What does it COST?"))
		assert.Empty(t, s.ContextSnippet("pump"))
	})
}

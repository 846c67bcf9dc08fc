package config

import "time"

// Default values for configuration
const (
	DefaultLogLevel = "info"

	DefaultCommandPrefix    = "!"
	DefaultMaxMessageLength = 2000 // Discord-sized ceiling, safely under Telegram's 4096

	DefaultKnowledgePath   = "./knowledge_bundle.json"
	DefaultRefreshInterval = 15 * time.Minute

	DefaultAIProvider    = "openai"
	DefaultAIModel       = "gpt-4o-mini"
	DefaultAITemperature = 0.7
	DefaultAIMaxTokens   = 500
	DefaultAITimeout     = 30 * time.Second
	DefaultAIMaxRetries  = 2
	DefaultAIRetryDelay  = 2 * time.Second

	DefaultAIBreakerFailures = 5
	DefaultAIBreakerCooldown = time.Minute

	DefaultRateLimitMaxMessages = 5
	DefaultRateLimitWindow      = time.Minute
	DefaultRateLimitMaxUsers    = 10000
)

// DefaultSystemPrompt is used when the bundle does not carry its own system_prompt.
const DefaultSystemPrompt = `You are F3 AI Labs Assistant, a helpful AI assistant specializing in our products and services.

HARD RULES:
- Only discuss F3 AI Labs and our products (ZenThink AI, F3 Parlay AI, F3 Trading Bot, Pump Pill Arena)
- Always use the correct URLs from the links section
- F3 Parlay AI and F3 Trading Bot are still in development and do not have websites yet
- When users ask for a specific website, ONLY provide that specific website
- Never invent facts: only use data in this bundle
- Always professional, helpful, and focused on promoting F3 AI Labs

Your personality: Professional, knowledgeable, and focused on helping users understand and use F3 AI Labs products effectively.`

// DefaultTriggerKeywords make the bot answer without being mentioned.
var DefaultTriggerKeywords = []string{"help", "ai"}

// DefaultMessages are the stock user-facing replies.
var DefaultMessages = MessagesConfig{
	UnknownCommand:  "❌ Unknown command: `%s`",
	GeneralError:    "❌ An error occurred while processing your command.",
	AIError:         "❌ Sorry, I encountered an error processing your request.",
	RateLimited:     "⏳ Please wait %d seconds before asking again.",
	NoInformation:   "❌ Unable to load %s information at this time.",
	NotAuthorized:   "🚫 You are not authorized to use this command.",
	Reloaded:        "🔄 Knowledge base reloaded (version %d).",
	ReloadUnchanged: "✅ Knowledge base is already up to date (version %d).",
	HelpFooter:      "F3 AI Labs - Building the future of AI",
}

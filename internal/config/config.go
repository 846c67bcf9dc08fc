// Package config loads, defaults and validates the labsbot configuration.
// Values come from an optional YAML file and LABSBOT_* environment variables.
package config

import (
	"time"

	"github.com/go-telegram/bot/models"
)

// Config is the root configuration for every component of the bot.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	AI        AIConfig        `mapstructure:"ai"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls log verbosity and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the chat transport settings.
type TelegramConfig struct {
	Token            string   `mapstructure:"token"              validate:"required"`
	AdminUserID      int64    `mapstructure:"admin_user_id"      validate:"gte=0"`
	CommandPrefix    string   `mapstructure:"command_prefix"     validate:"required,len=1"`
	MaxMessageLength int      `mapstructure:"max_message_length" validate:"min=100,max=4096"`
	GroupOnly        bool     `mapstructure:"group_only"`
	TriggerKeywords  []string `mapstructure:"trigger_keywords"   validate:"dive,required"`

	// BotInfo is filled at startup from getMe.
	BotInfo *models.User `mapstructure:"-"`
}

// KnowledgeConfig points at the bundle file and controls how it is refreshed.
type KnowledgeConfig struct {
	Path            string        `mapstructure:"path"             validate:"required"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval" validate:"min=1s"`
	Watch           bool          `mapstructure:"watch"`
}

// AIConfig selects and tunes the completion backend.
type AIConfig struct {
	Provider            string        `mapstructure:"provider"              validate:"required,oneof=openai gemini anthropic"`
	APIKey              string        `mapstructure:"api_key"`
	BaseURL             string        `mapstructure:"base_url"              validate:"omitempty,url"`
	Model               string        `mapstructure:"model"                 validate:"required"`
	Temperature         float32       `mapstructure:"temperature"           validate:"min=0,max=2"`
	MaxTokens           int           `mapstructure:"max_tokens"            validate:"min=1,max=32000"`
	Timeout             time.Duration `mapstructure:"timeout"               validate:"min=1s,max=10m"`
	MaxRetries          int           `mapstructure:"max_retries"           validate:"min=0,max=10"`
	RetryDelay          time.Duration `mapstructure:"retry_delay"`
	BreakerFailures     int           `mapstructure:"breaker_failures"      validate:"min=0"`
	BreakerCooldown     time.Duration `mapstructure:"breaker_cooldown"      validate:"min=0"`
	DefaultSystemPrompt string        `mapstructure:"default_system_prompt" validate:"required"`
}

// RateLimitConfig bounds how often a single user may ask the AI.
// MaxMessages of zero disables limiting.
type RateLimitConfig struct {
	MaxMessages int           `mapstructure:"max_messages" validate:"min=0"`
	Window      time.Duration `mapstructure:"window"       validate:"min=1s"`
	MaxUsers    int           `mapstructure:"max_users"    validate:"min=1"`
}

// MessagesConfig holds every user-visible reply that is not bundle content.
type MessagesConfig struct {
	UnknownCommand  string `mapstructure:"unknown_command"  validate:"required"`
	GeneralError    string `mapstructure:"general_error"    validate:"required"`
	AIError         string `mapstructure:"ai_error"         validate:"required"`
	RateLimited     string `mapstructure:"rate_limited"     validate:"required"`
	NoInformation   string `mapstructure:"no_information"   validate:"required"`
	NotAuthorized   string `mapstructure:"not_authorized"   validate:"required"`
	Reloaded        string `mapstructure:"reloaded"         validate:"required"`
	ReloadUnchanged string `mapstructure:"reload_unchanged" validate:"required"`
	HelpFooter      string `mapstructure:"help_footer"`
}

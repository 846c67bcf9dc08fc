package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrConfiguration wraps every failure returned by LoadConfig.
var ErrConfiguration = errors.New("configuration error")

// EnvPrefix is the prefix for environment overrides, e.g. LABSBOT_TELEGRAM_TOKEN.
const EnvPrefix = "LABSBOT"

// LoadConfig loads and validates configuration from:
// 1. Default values
// 2. the YAML file at path (optional, a missing file is not an error)
// 3. LABSBOT_* environment variables
func LoadConfig(path string) (*Config, error) {
	cfg, err := LoadUnvalidated(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return cfg, nil
}

// LoadUnvalidated is LoadConfig without validation, for offline tools that
// need the knowledge settings but no Telegram token.
func LoadUnvalidated(path string) (*Config, error) {
	v := newViper()

	if err := readConfigFile(v, path); err != nil {
		return nil, fmt.Errorf("%w: failed to load config file: %v", ErrConfiguration, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}
	return cfg, nil
}

// Validate checks every struct tag constraint on cfg.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	return validator.New().Struct(cfg)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func readConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Config file not found is okay, defaults and env still apply
			return nil
		}
		return err
	}
	v.SetConfigFile(path)
	return v.ReadInConfig()
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", false)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_user_id", 0)
	v.SetDefault("telegram.command_prefix", DefaultCommandPrefix)
	v.SetDefault("telegram.max_message_length", DefaultMaxMessageLength)
	v.SetDefault("telegram.group_only", true)
	v.SetDefault("telegram.trigger_keywords", DefaultTriggerKeywords)

	v.SetDefault("knowledge.path", DefaultKnowledgePath)
	v.SetDefault("knowledge.refresh_interval", DefaultRefreshInterval)
	v.SetDefault("knowledge.watch", false)

	v.SetDefault("ai.provider", DefaultAIProvider)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.model", DefaultAIModel)
	v.SetDefault("ai.temperature", DefaultAITemperature)
	v.SetDefault("ai.max_tokens", DefaultAIMaxTokens)
	v.SetDefault("ai.timeout", DefaultAITimeout)
	v.SetDefault("ai.max_retries", DefaultAIMaxRetries)
	v.SetDefault("ai.retry_delay", DefaultAIRetryDelay)
	v.SetDefault("ai.breaker_failures", DefaultAIBreakerFailures)
	v.SetDefault("ai.breaker_cooldown", DefaultAIBreakerCooldown)
	v.SetDefault("ai.default_system_prompt", DefaultSystemPrompt)

	v.SetDefault("rate_limit.max_messages", DefaultRateLimitMaxMessages)
	v.SetDefault("rate_limit.window", DefaultRateLimitWindow)
	v.SetDefault("rate_limit.max_users", DefaultRateLimitMaxUsers)

	v.SetDefault("messages.unknown_command", DefaultMessages.UnknownCommand)
	v.SetDefault("messages.general_error", DefaultMessages.GeneralError)
	v.SetDefault("messages.ai_error", DefaultMessages.AIError)
	v.SetDefault("messages.rate_limited", DefaultMessages.RateLimited)
	v.SetDefault("messages.no_information", DefaultMessages.NoInformation)
	v.SetDefault("messages.not_authorized", DefaultMessages.NotAuthorized)
	v.SetDefault("messages.reloaded", DefaultMessages.Reloaded)
	v.SetDefault("messages.reload_unchanged", DefaultMessages.ReloadUnchanged)
	v.SetDefault("messages.help_footer", DefaultMessages.HelpFooter)
}

// Defaults returns a configuration populated only with default values.
// It is not validated; required secrets such as the Telegram token are empty.
func Defaults() *Config {
	cfg := &Config{}
	if err := newViper().Unmarshal(cfg); err != nil {
		// Defaults are static, a failure here is a programming error.
		panic(fmt.Sprintf("config: unmarshal defaults: %v", err))
	}
	return cfg
}

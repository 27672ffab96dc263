// Package config provides configuration loading, validation, and defaults
// for the bot. Values come from a YAML file, overridden by LLMCHAT_*
// environment variables, on top of the defaults in defaults.go.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/viper"
)

// ErrConfiguration wraps every error returned by LoadConfig.
var ErrConfiguration = errors.New("configuration error")

// Config is the root configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Presets   []PresetConfig  `mapstructure:"presets"   validate:"required,min=1,dive"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls slog output.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds transport settings. BotInfo is filled at runtime
// from getMe.
type TelegramConfig struct {
	Token       string   `mapstructure:"token"         validate:"required"`
	AdminUserID int64    `mapstructure:"admin_user_id" validate:"required,gt=0"`
	Nicknames   []string `mapstructure:"nicknames"`

	BotInfo models.User `mapstructure:"-" validate:"-"`
}

// DatabaseConfig locates the SQLite exchange archive.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// ChatConfig tunes the per-group pipeline.
type ChatConfig struct {
	DefaultPreset     string        `mapstructure:"default_preset"`
	HistorySize       int           `mapstructure:"history_size"        validate:"min=2,max=1000"`
	PastEventsSize    int           `mapstructure:"past_events_size"    validate:"min=1,max=1000"`
	RandomTriggerProb float64       `mapstructure:"random_trigger_prob" validate:"min=0,max=1"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"     validate:"min=1s,max=10m"`
	SendDelay         time.Duration `mapstructure:"send_delay"          validate:"min=0,max=1m"`
	DefaultPrompt     string        `mapstructure:"default_prompt"`
	Delimiter         string        `mapstructure:"delimiter"           validate:"required"`
	StateFile         string        `mapstructure:"state_file"          validate:"required"`
}

// PresetConfig selects a model endpoint.
type PresetConfig struct {
	Name        string  `mapstructure:"name"        validate:"required,ne=off"`
	Provider    string  `mapstructure:"provider"    validate:"omitempty,oneof=openai gemini anthropic"`
	APIBase     string  `mapstructure:"api_base"    validate:"omitempty,url"`
	APIKey      string  `mapstructure:"api_key"     validate:"required"`
	ModelName   string  `mapstructure:"model_name"  validate:"required"`
	MaxTokens   int     `mapstructure:"max_tokens"  validate:"min=1"`
	Temperature float32 `mapstructure:"temperature" validate:"min=0,max=2"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig schedules one task with a cron expression (seconds field
// allowed).
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// MessagesConfig holds every user-visible text.
type MessagesConfig struct {
	Welcome            string `mapstructure:"welcome"             validate:"required"`
	Help               string `mapstructure:"help"                validate:"required"`
	ServiceUnavailable string `mapstructure:"service_unavailable" validate:"required"`
	Unauthorized       string `mapstructure:"unauthorized"        validate:"required"`
	PresetSwitched     string `mapstructure:"preset_switched"     validate:"required"`
	PresetDisabled     string `mapstructure:"preset_disabled"     validate:"required"`
	PresetList         string `mapstructure:"preset_list"         validate:"required"`
	PromptUpdated      string `mapstructure:"prompt_updated"      validate:"required"`
	HistoryReset       string `mapstructure:"history_reset"       validate:"required"`
	ReasoningOn        string `mapstructure:"reasoning_on"        validate:"required"`
	ReasoningOff       string `mapstructure:"reasoning_off"       validate:"required"`
	Stats              string `mapstructure:"stats"               validate:"required"`
	GeneralError       string `mapstructure:"general_error"       validate:"required"`
}

// LoadConfig reads path (a missing file is allowed), applies environment
// overrides and defaults, and validates the result.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("LLMCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"telegram.token", "telegram.admin_user_id"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("%w: bind env %s: %v", ErrConfiguration, key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isNotExist(err) {
			return nil, fmt.Errorf("%w: failed to read %s: %v", ErrConfiguration, path, err)
		}
		slog.Info("Configuration file not found, using defaults and environment", "path", path)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}
	for i := range cfg.Presets {
		if cfg.Presets[i].Provider == "" {
			cfg.Presets[i].Provider = "openai"
		}
	}
	if cfg.Chat.DefaultPreset == "" && len(cfg.Presets) > 0 {
		cfg.Chat.DefaultPreset = cfg.Presets[0].Name
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return cfg, nil
}

// Validate checks struct tags and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	names := c.PresetNames()
	for i, n := range names {
		if slices.Contains(names[:i], n) {
			return fmt.Errorf("duplicate preset name %q", n)
		}
	}
	if c.Chat.DefaultPreset != "off" && !slices.Contains(names, c.Chat.DefaultPreset) {
		return fmt.Errorf("default preset %q is not defined", c.Chat.DefaultPreset)
	}
	return nil
}

// PresetNames lists the configured preset names in order.
func (c *Config) PresetNames() []string {
	names := make([]string, len(c.Presets))
	for i, p := range c.Presets {
		names[i] = p.Name
	}
	return names
}

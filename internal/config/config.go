package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for ctrelay.
type Config struct {
	General     GeneralConfig     `yaml:"general"`
	Telegram    TelegramConfig    `yaml:"telegram"`
	Channels    []string          `yaml:"channels"`
	Messages    MessagesConfig    `yaml:"messages"`
	Files       FilesConfig       `yaml:"files"`
	Translators TranslatorsConfig `yaml:"translators"`
	Mirrors     MirrorsConfig     `yaml:"mirrors"`
	Archive     ArchiveConfig     `yaml:"archive"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

type GeneralConfig struct {
	LogLevel              string `yaml:"logLevel"`
	MaxConcurrentMessages int    `yaml:"maxConcurrentMessages"`
	RetentionMinutes      int    `yaml:"retentionMinutes"` // dedup cache window
	CaptionMaxLength      int    `yaml:"captionMaxLength"`
}

// TelegramConfig holds the bot session and the destination chat.
type TelegramConfig struct {
	Token           string `yaml:"token"`
	RecipientChatID int64  `yaml:"recipientChatId"`
}

// MessagesConfig holds the prompt templates for the AI-chat backends.
// UserMessage must contain the {text} placeholder.
type MessagesConfig struct {
	SystemMessage string `yaml:"systemMessage"`
	UserMessage   string `yaml:"userMessage"`
}

type FilesConfig struct {
	CommonPhrases string `yaml:"commonPhrases"`
}

// TranslatorsConfig declares the backend chain. Order is data, not code:
// backends run in the listed order, and an authoritative backend success
// stops the chain.
type TranslatorsConfig struct {
	Order          []string         `yaml:"order"`
	ShowFailures   bool             `yaml:"showFailures"`
	TimeoutSeconds int              `yaml:"timeoutSeconds"`
	OpenAI         OpenAIConfig     `yaml:"openai"`
	Google         GoogleConfig     `yaml:"google"`
	DeepL          DeepLConfig      `yaml:"deepl"`
	DuckDuckGo     DuckDuckGoConfig `yaml:"duckduckgo"`
}

// OpenAIProvider is one OpenAI-compatible endpoint in the internal fallback
// chain of the openai backend.
type OpenAIProvider struct {
	APIBase string `yaml:"apiBase"`
	Model   string `yaml:"model"`
	Key     string `yaml:"key"`
}

type OpenAIConfig struct {
	Enabled   bool             `yaml:"enabled"`
	Providers []OpenAIProvider `yaml:"providers"`
}

type GoogleConfig struct {
	Enabled bool `yaml:"enabled"`
}

type DeepLConfig struct {
	Enabled bool   `yaml:"enabled"`
	Key     string `yaml:"key"`
}

type DuckDuckGoConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	Proxy   string `yaml:"proxy"`
}

// MirrorsConfig configures the optional text-only mirror sinks.
type MirrorsConfig struct {
	Discord DiscordConfig `yaml:"discord"`
	Slack   SlackConfig   `yaml:"slack"`
}

type DiscordConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Token     string `yaml:"token"`
	ChannelID string `yaml:"channelId"`
}

type SlackConfig struct {
	Enabled   bool   `yaml:"enabled"`
	BotToken  string `yaml:"botToken"`
	ChannelID string `yaml:"channelId"`
}

type ArchiveConfig struct {
	Enabled       bool   `yaml:"enabled"`
	DBPath        string `yaml:"dbPath"`
	RetentionDays int    `yaml:"retentionDays"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// DefaultConfigPath is the path used when --config is not given.
const DefaultConfigPath = "config.yaml"

// BackendNames are the recognised translators.order entries.
var BackendNames = []string{"openai", "google", "deepl", "duckduckgo"}

// Load reads, env-expands, defaults, parses, and validates a config file.
func Load(path string) (*Config, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot resolve home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match
		}
		return val
	})
}

// Save writes the config as YAML.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// usernamePattern matches valid source channel usernames.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{4,31}$`)

// Validate checks that the config has valid values. All problems are
// accumulated and reported together.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Telegram.Token == "" {
		errs = append(errs, "telegram.token is required")
	}
	if cfg.Telegram.RecipientChatID == 0 {
		errs = append(errs, "telegram.recipientChatId is required")
	}

	if len(cfg.Channels) == 0 {
		errs = append(errs, "channels: at least one source channel is required")
	}
	for i, ch := range cfg.Channels {
		name := strings.TrimPrefix(strings.TrimSpace(ch), "@")
		cfg.Channels[i] = name
		if !usernamePattern.MatchString(name) {
			errs = append(errs, fmt.Sprintf("channels: invalid username: %q", name))
		}
	}

	if cfg.General.MaxConcurrentMessages < 1 || cfg.General.MaxConcurrentMessages > 100 {
		errs = append(errs, "general.maxConcurrentMessages must be between 1 and 100")
	}
	if cfg.General.RetentionMinutes < 1 {
		errs = append(errs, "general.retentionMinutes must be >= 1")
	}
	if cfg.General.CaptionMaxLength < 4 {
		errs = append(errs, "general.captionMaxLength must be >= 4")
	}
	if cfg.Translators.TimeoutSeconds < 1 {
		errs = append(errs, "translators.timeoutSeconds must be >= 1")
	}

	for _, name := range cfg.Translators.Order {
		known := false
		for _, b := range BackendNames {
			if name == b {
				known = true
				break
			}
		}
		if !known {
			errs = append(errs, fmt.Sprintf("translators.order references unknown backend: %s", name))
		}
	}

	if cfg.Translators.OpenAI.Enabled {
		if len(cfg.Translators.OpenAI.Providers) == 0 {
			errs = append(errs, "translators.openai: at least one provider is required when enabled")
		}
		for i, p := range cfg.Translators.OpenAI.Providers {
			if p.APIBase == "" {
				errs = append(errs, fmt.Sprintf("translators.openai.providers[%d]: apiBase is required", i))
			}
			if p.Model == "" {
				errs = append(errs, fmt.Sprintf("translators.openai.providers[%d]: model is required", i))
			}
		}
	}

	// The AI-chat backends interpolate the text into the user template.
	if cfg.Translators.OpenAI.Enabled || cfg.Translators.DuckDuckGo.Enabled {
		if cfg.Messages.SystemMessage == "" {
			errs = append(errs, "messages.systemMessage is required when an AI-chat backend is enabled")
		}
		if !strings.Contains(cfg.Messages.UserMessage, "{text}") {
			errs = append(errs, "messages.userMessage must contain the {text} placeholder")
		}
	}

	if cfg.Mirrors.Discord.Enabled && (cfg.Mirrors.Discord.Token == "" || cfg.Mirrors.Discord.ChannelID == "") {
		errs = append(errs, "mirrors.discord: token and channelId are required when enabled")
	}
	if cfg.Mirrors.Slack.Enabled && (cfg.Mirrors.Slack.BotToken == "" || cfg.Mirrors.Slack.ChannelID == "") {
		errs = append(errs, "mirrors.slack: botToken and channelId are required when enabled")
	}
	if cfg.Archive.Enabled && cfg.Archive.DBPath == "" {
		errs = append(errs, "archive.dbPath is required when the archive is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

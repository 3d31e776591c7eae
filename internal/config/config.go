package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Config is the root configuration for Evabot.
type Config struct {
	General  GeneralConfig  `json:"general"`
	Corpus   CorpusConfig   `json:"corpus"`
	Engine   EngineConfig   `json:"engine"`
	Engage   EngageConfig   `json:"engage"`
	Channels ChannelsConfig `json:"channels"`
	Store    StoreConfig    `json:"store"`
	Metrics  MetricsConfig  `json:"metrics"`
}

type GeneralConfig struct {
	BotName  string `json:"botName"`
	LogLevel string `json:"logLevel"`
	LogFile  string `json:"logFile,omitempty"` // optional log file path
}

// CorpusConfig locates the knowledge corpus source files.
type CorpusConfig struct {
	Dir string `json:"dir"` // directory holding topics.yaml and properties.yaml
}

// EngineConfig tunes classification and fuzzy matching.
type EngineConfig struct {
	FuzzyThreshold   float64  `json:"fuzzyThreshold"`   // minimum similarity for a match (default 0.6)
	MentionTokens    []string `json:"mentionTokens"`    // bot names/aliases, case-insensitive
	GreetingWords    []string `json:"greetingWords"`    // whole-word greeting matches
	QuestionMarkers  []string `json:"questionMarkers"`  // interrogative words; "?" is always a marker
	PropertyKeywords []string `json:"propertyKeywords"` // real-estate trigger words
	DomainKeywords   []string `json:"domainKeywords"`   // topic trigger words
	SeeAlsoCount     int      `json:"seeAlsoCount"`     // related matches appended to a reply
}

// EngageConfig tunes the unsolicited-post scheduler.
type EngageConfig struct {
	Enabled               bool `json:"enabled"`
	DailyPostHour         int  `json:"dailyPostHour"`         // wall-clock hour (0-23) for the daily property post
	GreetingIntervalHours int  `json:"greetingIntervalHours"` // hours between periodic greetings
	TickSeconds           int  `json:"tickSeconds"`           // scheduler tick period
}

type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	Discord  DiscordConfig  `json:"discord,omitempty"`
	CLI      CLIConfig      `json:"cli"`
}

type TelegramConfig struct {
	Enabled   bool           `json:"enabled"`
	Token     string         `json:"token"`
	AllowFrom FlexStringList `json:"allowFrom"`
	ParseMode string         `json:"parseMode"`
}

type DiscordConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
	GuildID string `json:"guildId,omitempty"` // optional: restrict to specific guild
}

type CLIConfig struct {
	Enabled bool `json:"enabled"`
}

type StoreConfig struct {
	Enabled bool   `json:"enabled"`
	DBPath  string `json:"dbPath"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Endpoint string `json:"endpoint"`
}

// FlexStringList is a []string that can unmarshal from JSON arrays containing
// both strings and numbers (e.g. ["123", 456] both become "123", "456").
type FlexStringList []string

func (f *FlexStringList) UnmarshalJSON(data []byte) error {
	// Try []string first
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}
	// Fallback: array of mixed types
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make([]string, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			result = append(result, s)
			continue
		}
		var n float64
		if err := json.Unmarshal(item, &n); err == nil {
			result = append(result, strconv.FormatInt(int64(n), 10))
			continue
		}
		result = append(result, string(item))
	}
	*f = result
	return nil
}

// DefaultConfigDir returns the default config directory (~/.evabot).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".evabot"
	}
	return filepath.Join(home, ".evabot")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

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
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.Corpus.Dir = ExpandPath(cfg.Corpus.Dir)
	cfg.Store.DBPath = ExpandPath(cfg.Store.DBPath)
	cfg.General.LogFile = ExpandPath(cfg.General.LogFile)

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
			return match // Keep original if no env var and no default
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	// Zero is rejected rather than treated as "match everything": the
	// matcher falls back to its default for non-positive thresholds, so
	// a configured 0 would silently behave as 0.6.
	if cfg.Engine.FuzzyThreshold <= 0 || cfg.Engine.FuzzyThreshold > 1 {
		errs = append(errs, "engine.fuzzyThreshold must be greater than 0 and at most 1")
	}
	if cfg.Engine.SeeAlsoCount < 0 || cfg.Engine.SeeAlsoCount > 10 {
		errs = append(errs, "engine.seeAlsoCount must be between 0 and 10")
	}
	if len(cfg.Engine.MentionTokens) == 0 {
		errs = append(errs, "engine.mentionTokens must list at least one bot name or alias")
	}

	if cfg.Engage.DailyPostHour < 0 || cfg.Engage.DailyPostHour > 23 {
		errs = append(errs, "engage.dailyPostHour must be between 0 and 23")
	}
	if cfg.Engage.GreetingIntervalHours < 1 {
		errs = append(errs, "engage.greetingIntervalHours must be >= 1")
	}
	if cfg.Engage.TickSeconds < 1 {
		errs = append(errs, "engage.tickSeconds must be >= 1")
	}

	if cfg.Metrics.Port < 0 || cfg.Metrics.Port > 65535 {
		errs = append(errs, "metrics.port must be between 0 and 65535")
	}

	if cfg.Channels.Telegram.Enabled && cfg.Channels.Telegram.Token == "" {
		errs = append(errs, "channels.telegram.token is required when telegram is enabled")
	}
	if cfg.Channels.Discord.Enabled && cfg.Channels.Discord.Token == "" {
		errs = append(errs, "channels.discord.token is required when discord is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

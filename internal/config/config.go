package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables recognised on top of the YAML file.
const (
	EnvPrefix = "MOVIEDECK_"

	EnvFile            = EnvPrefix + "ENV_FILE"
	EnvTMDbAPIKey      = EnvPrefix + "TMDB_API_KEY"
	EnvTMDbBaseURL     = EnvPrefix + "TMDB_BASE_URL"
	EnvTMDbLanguage    = EnvPrefix + "TMDB_LANGUAGE"
	EnvTMDbTimeout     = EnvPrefix + "TMDB_TIMEOUT"
	EnvTMDbCacheTTL    = EnvPrefix + "TMDB_CACHE_TTL"
	EnvTelegramToken   = EnvPrefix + "TELEGRAM_BOT_TOKEN"
	EnvTelegramAllowed = EnvPrefix + "TELEGRAM_ALLOWED_USER_IDS"
	EnvLogLevel        = EnvPrefix + "LOG_LEVEL"
	EnvLogFile         = EnvPrefix + "LOG_FILE"
)

// Defaults applied by setDefaults.
const (
	DefaultLanguage = "en-US"
	DefaultTimeout  = 8 * time.Second
	DefaultCacheTTL = 15 * time.Minute
	DefaultLogLevel = "info"
)

// Config represents the main application configuration
type Config struct {
	// Metadata provider
	TMDb TMDbConfig `yaml:"tmdb"`

	// Frontends
	Telegram *TelegramConfig `yaml:"telegram,omitempty"`

	// Application settings
	App AppConfig `yaml:"app"`
}

// TMDbConfig holds TMDb API configuration
type TMDbConfig struct {
	APIKey   string        `yaml:"api_key"`
	BaseURL  string        `yaml:"base_url,omitempty"`
	Language string        `yaml:"language,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
	// CacheTTL is nil when unset; an explicit 0 disables caching.
	CacheTTL *time.Duration `yaml:"cache_ttl,omitempty"`
}

// CacheDuration returns the effective cache TTL.
func (t TMDbConfig) CacheDuration() time.Duration {
	if t.CacheTTL == nil {
		return DefaultCacheTTL
	}
	return *t.CacheTTL
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken       string  `yaml:"bot_token"`
	AllowedUserIDs []int64 `yaml:"allowed_user_ids,omitempty"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	LogLevel string `yaml:"log_level"` // "debug", "info", "warn", "error"
	LogFile  string `yaml:"log_file"`  // rotated log file; stdout when empty
}

// Load loads configuration from a YAML file with environment variable overrides.
// A .env file is read first so that its values take part in the overrides.
func Load(path string) (*Config, error) {
	if err := validateConfigPath(path); err != nil {
		return nil, err
	}
	if err := loadDotEnv(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return finish(&cfg)
}

// LoadOrEnv behaves like Load, except that a missing config file is accepted
// when the TMDb API key is available from the environment.
func LoadOrEnv(path string) (*Config, error) {
	if _, err := os.Stat(path); err == nil || !errors.Is(err, os.ErrNotExist) {
		return Load(path)
	}
	if err := loadDotEnv(path); err != nil {
		return nil, err
	}
	if os.Getenv(EnvTMDbAPIKey) == "" {
		return nil, fmt.Errorf("config file not found: %s (or set %s)", path, EnvTMDbAPIKey)
	}
	return finish(&Config{})
}

func finish(cfg *Config) (*Config, error) {
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// validateConfigPath checks that path exists and is a regular file.
func validateConfigPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file not found: %s", path)
		}
		return fmt.Errorf("failed to access config file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path is a directory, not a file: %s", path)
	}
	return nil
}

// loadDotEnv reads MOVIEDECK_ENV_FILE, or a .env next to the config file.
// Variables already present in the environment win. A missing file is fine.
func loadDotEnv(configPath string) error {
	path := os.Getenv(EnvFile)
	if path == "" {
		path = filepath.Join(filepath.Dir(configPath), ".env")
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides overrides config values with environment variables
func (c *Config) applyEnvOverrides() error {
	// TMDb
	if v := os.Getenv(EnvTMDbAPIKey); v != "" {
		c.TMDb.APIKey = v
	}
	if v := os.Getenv(EnvTMDbBaseURL); v != "" {
		c.TMDb.BaseURL = v
	}
	if v := os.Getenv(EnvTMDbLanguage); v != "" {
		c.TMDb.Language = v
	}
	if v := os.Getenv(EnvTMDbTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTMDbTimeout, err)
		}
		c.TMDb.Timeout = d
	}
	if v := os.Getenv(EnvTMDbCacheTTL); v != "" {
		d, err := parseTTL(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTMDbCacheTTL, err)
		}
		c.TMDb.CacheTTL = &d
	}

	// Telegram
	if v := os.Getenv(EnvTelegramToken); v != "" {
		if c.Telegram == nil {
			c.Telegram = &TelegramConfig{}
		}
		c.Telegram.BotToken = v
	}
	if v := os.Getenv(EnvTelegramAllowed); v != "" && c.Telegram != nil {
		ids, err := parseIDs(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTelegramAllowed, err)
		}
		c.Telegram.AllowedUserIDs = ids
	}

	// App
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.App.LogLevel = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.App.LogFile = v
	}
	return nil
}

// parseTTL accepts a Go duration or a bare "0".
func parseTTL(v string) (time.Duration, error) {
	if v == "0" {
		return 0, nil
	}
	return time.ParseDuration(v)
}

func parseIDs(v string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// setDefaults fills in zero-valued optional settings.
func (c *Config) setDefaults() {
	if c.TMDb.Language == "" {
		c.TMDb.Language = DefaultLanguage
	}
	if c.TMDb.Timeout == 0 {
		c.TMDb.Timeout = DefaultTimeout
	}
	if c.TMDb.CacheTTL == nil {
		ttl := DefaultCacheTTL
		c.TMDb.CacheTTL = &ttl
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = DefaultLogLevel
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.TMDb.APIKey) == "" {
		return fmt.Errorf("tmdb.api_key is required")
	}
	if c.TMDb.BaseURL != "" {
		if err := validateURL(c.TMDb.BaseURL, "tmdb.base_url"); err != nil {
			return err
		}
	}
	if c.TMDb.Timeout < 0 {
		return fmt.Errorf("tmdb.timeout must be positive")
	}
	if c.TMDb.CacheTTL != nil && *c.TMDb.CacheTTL < 0 {
		return fmt.Errorf("tmdb.cache_ttl must not be negative")
	}

	if c.Telegram != nil && c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}

	switch strings.ToLower(c.App.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("app.log_level must be one of debug, info, warn, error; got %q", c.App.LogLevel)
	}
	return nil
}

// validateURL checks that raw is an absolute http(s) URL with a host.
func validateURL(raw, field string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", field, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing host", field)
	}
	return nil
}

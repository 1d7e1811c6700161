package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the profile scraping core.
type Config struct {
	// Target site settings
	Target TargetConfig `yaml:"target" json:"target"`

	// Vault key material sources
	Vault VaultConfig `yaml:"vault" json:"vault"`

	// Embedded store settings
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Per-identity usage budgets
	Limits LimitsConfig `yaml:"limits" json:"limits"`

	// Cached session behavior
	Session SessionConfig `yaml:"session" json:"session"`

	// Browser automation settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Held verification page bounds
	Verification VerificationConfig `yaml:"verification" json:"verification"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// TargetConfig identifies the site being scraped.
type TargetConfig struct {
	Domain   string `yaml:"domain" json:"domain" validate:"required,hostname"`
	LoginURL string `yaml:"login_url" json:"login_url" validate:"required,url"`
	Platform string `yaml:"platform" json:"platform" validate:"required"`
}

// VaultConfig controls where the master encryption key comes from.
type VaultConfig struct {
	KeyEnv         string `yaml:"key_env" json:"key_env" validate:"required"`
	PassphraseFile string `yaml:"passphrase_file" json:"passphrase_file"`
}

// StorageConfig holds embedded database settings.
type StorageConfig struct {
	Path           string `yaml:"path" json:"path" validate:"required"`
	ResetOnStartup bool   `yaml:"reset_on_startup" json:"reset_on_startup"`
}

// LimitsConfig holds the per-identity usage envelope. The spacing window,
// hourly and daily caps, and cooldown durations stack independently to
// approximate a human cadence.
type LimitsConfig struct {
	MinRequestSpacing  time.Duration `yaml:"min_request_spacing" json:"min_request_spacing" validate:"gt=0"`
	MaxRequestSpacing  time.Duration `yaml:"max_request_spacing" json:"max_request_spacing" validate:"gtefield=MinRequestSpacing"`
	HourlyCap          int           `yaml:"hourly_cap" json:"hourly_cap" validate:"gt=0"`
	DailyCap           int           `yaml:"daily_cap" json:"daily_cap" validate:"gt=0"`
	SessionCooldown    time.Duration `yaml:"session_cooldown" json:"session_cooldown" validate:"gt=0"`
	CheckpointCooldown time.Duration `yaml:"checkpoint_cooldown" json:"checkpoint_cooldown" validate:"gt=0"`
	PauseAfterFailures int           `yaml:"pause_after_failures" json:"pause_after_failures" validate:"gte=0"`
	FailurePause       time.Duration `yaml:"failure_pause" json:"failure_pause" validate:"gte=0"`
}

// SessionConfig controls cached session reuse.
type SessionConfig struct {
	MaxAge            time.Duration `yaml:"max_age" json:"max_age" validate:"gt=0"`
	ValidateBeforeUse bool          `yaml:"validate_before_use" json:"validate_before_use"`
}

// BrowserConfig controls the shared browser instance.
type BrowserConfig struct {
	Headless     bool          `yaml:"headless" json:"headless"`
	NavTimeout   time.Duration `yaml:"nav_timeout" json:"nav_timeout" validate:"gt=0"`
	LoginTimeout time.Duration `yaml:"login_timeout" json:"login_timeout" validate:"gt=0"`
}

// VerificationConfig bounds held verification pages.
type VerificationConfig struct {
	MaxAttempts   int           `yaml:"max_attempts" json:"max_attempts" validate:"gt=0"`
	TTL           time.Duration `yaml:"ttl" json:"ttl" validate:"gt=0"`
	SweepSchedule string        `yaml:"sweep_schedule" json:"sweep_schedule" validate:"required"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level" validate:"oneof=debug info warn error fatal disabled"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Target: TargetConfig{
			Domain:   "www.linkedin.com",
			LoginURL: "https://www.linkedin.com/login",
			Platform: "linkedin",
		},
		Vault: VaultConfig{
			KeyEnv: "LISCRAPER_VAULT_KEY",
		},
		Storage: StorageConfig{
			Path: "./data/liscraper",
		},
		Limits: LimitsConfig{
			MinRequestSpacing:  90 * time.Second,
			MaxRequestSpacing:  150 * time.Second,
			HourlyCap:          8,
			DailyCap:           40,
			SessionCooldown:    30 * time.Minute,
			CheckpointCooldown: 24 * time.Hour,
			PauseAfterFailures: 3,
			FailurePause:       1 * time.Hour,
		},
		Session: SessionConfig{
			MaxAge:            24 * time.Hour,
			ValidateBeforeUse: false,
		},
		Browser: BrowserConfig{
			Headless:     true,
			NavTimeout:   30 * time.Second,
			LoginTimeout: 45 * time.Second,
		},
		Verification: VerificationConfig{
			MaxAttempts:   3,
			TTL:           10 * time.Minute,
			SweepSchedule: "@every 1m",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv overrides configuration from environment variables.
func (c *Config) LoadFromEnv() {
	if domain := os.Getenv("LISCRAPER_TARGET_DOMAIN"); domain != "" {
		c.Target.Domain = domain
	}
	if loginURL := os.Getenv("LISCRAPER_LOGIN_URL"); loginURL != "" {
		c.Target.LoginURL = loginURL
	}
	if path := os.Getenv("LISCRAPER_STORAGE_PATH"); path != "" {
		c.Storage.Path = path
	}
	if spacing := os.Getenv("LISCRAPER_MIN_REQUEST_SPACING"); spacing != "" {
		if d, err := time.ParseDuration(spacing); err == nil && d > 0 {
			c.Limits.MinRequestSpacing = d
		}
	}
	if cap := os.Getenv("LISCRAPER_HOURLY_CAP"); cap != "" {
		if v, err := strconv.Atoi(cap); err == nil && v > 0 {
			c.Limits.HourlyCap = v
		}
	}
	if cap := os.Getenv("LISCRAPER_DAILY_CAP"); cap != "" {
		if v, err := strconv.Atoi(cap); err == nil && v > 0 {
			c.Limits.DailyCap = v
		}
	}
	if headless := os.Getenv("LISCRAPER_HEADLESS"); headless != "" {
		if b, err := strconv.ParseBool(headless); err == nil {
			c.Browser.Headless = b
		}
	}
	if level := os.Getenv("LISCRAPER_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// LoadFromFile loads configuration from a YAML file. An empty path falls
// back to the standard locations; a missing file is not an error.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func (c *Config) findConfigFile() string {
	locations := []string{
		".liscraper.yaml",
		".liscraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "liscraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".liscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks the configuration using struct tags plus the cross-field
// rules the tags cannot express.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if c.Limits.PauseAfterFailures > 0 && c.Limits.FailurePause <= 0 {
		return fmt.Errorf("failure_pause must be positive when pause_after_failures is set")
	}

	return nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load loads configuration from all sources with proper precedence:
// environment variables > .env file > config file > defaults.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".liscraper.env"))

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	cfg.LoadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

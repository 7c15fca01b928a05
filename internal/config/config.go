// Package config loads denial-dash settings from an optional YAML file with
// environment-variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gyeh/denial-dash/internal/asset"
	"github.com/gyeh/denial-dash/internal/filter"
	"github.com/gyeh/denial-dash/internal/ledger"
)

// DefaultPath is read when CONFIG_PATH is unset.
const DefaultPath = "config.yaml"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds dashboard, export and sharing settings.
type Config struct {
	ListenAddr       string `yaml:"listen_addr"`
	Seed             int64  `yaml:"seed"`
	LogoPath         string `yaml:"logo_path"`
	DefaultDateRange string `yaml:"default_date_range"`
	SessionTTLMins   int    `yaml:"session_ttl_minutes"`
	ReportTitle      string `yaml:"report_title"`
	Timezone         string `yaml:"timezone"`

	S3Bucket string `yaml:"s3_bucket"`
	S3Prefix string `yaml:"s3_prefix"`
	Region   string `yaml:"region"`

	SlackBotToken string `yaml:"slack_bot_token"`
	SlackChannel  string `yaml:"slack_channel"`

	DateRange filter.DateRange `yaml:"-"` // parsed from DefaultDateRange
	Location  *time.Location   `yaml:"-"` // computed from Timezone
}

// Default returns a Config with every default applied.
func Default() Config {
	cfg := Config{Seed: ledger.DefaultSeed}
	applyDefaults(&cfg)
	cfg.DateRange = filter.DefaultDateRange
	cfg.Location = time.Local
	return cfg
}

// Load reads the file named by CONFIG_PATH (or DefaultPath), applies
// DENIAL_DASH_* environment overrides and defaults, then validates. A missing
// file is not an error.
func Load() (Config, error) {
	path := DefaultPath
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		path = envPath
	}
	return LoadFromPath(path)
}

// LoadFromPath is Load with an explicit file path.
func LoadFromPath(path string) (Config, error) {
	// Seed is preset so an explicit 0 in the file or environment survives.
	cfg := Config{Seed: ledger.DefaultSeed}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	envOverride(&cfg.ListenAddr, "DENIAL_DASH_LISTEN_ADDR")
	envOverride(&cfg.LogoPath, "DENIAL_DASH_LOGO_PATH")
	envOverride(&cfg.DefaultDateRange, "DENIAL_DASH_DEFAULT_DATE_RANGE")
	envOverride(&cfg.ReportTitle, "DENIAL_DASH_REPORT_TITLE")
	envOverride(&cfg.Timezone, "DENIAL_DASH_TIMEZONE")
	envOverride(&cfg.S3Bucket, "DENIAL_DASH_S3_BUCKET")
	envOverride(&cfg.S3Prefix, "DENIAL_DASH_S3_PREFIX")
	envOverride(&cfg.Region, "AWS_REGION")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackChannel, "DENIAL_DASH_SLACK_CHANNEL")
	if err := envOverrideInt64(&cfg.Seed, "DENIAL_DASH_SEED"); err != nil {
		return err
	}
	return envOverrideInt(&cfg.SessionTTLMins, "DENIAL_DASH_SESSION_TTL_MINUTES")
}

func applyDefaults(cfg *Config) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8501"
	}
	if cfg.LogoPath == "" {
		cfg.LogoPath = asset.DefaultLogoPath
	}
	if cfg.DefaultDateRange == "" {
		cfg.DefaultDateRange = string(filter.DefaultDateRange)
	}
	if cfg.SessionTTLMins == 0 {
		cfg.SessionTTLMins = 30
	}
	if cfg.ReportTitle == "" {
		cfg.ReportTitle = "Elica Dental Denial Snapshot"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.S3Prefix == "" {
		cfg.S3Prefix = "denial-dash"
	}
}

func (c *Config) validate() error {
	dr, err := filter.ParseDateRange(c.DefaultDateRange)
	if err != nil {
		return fmt.Errorf("%w: default_date_range: %v", ErrInvalidConfig, err)
	}
	c.DateRange = dr

	if c.SessionTTLMins < 1 {
		return fmt.Errorf("%w: session_ttl_minutes %d must be >= 1", ErrInvalidConfig, c.SessionTTLMins)
	}

	if strings.EqualFold(c.Timezone, "Local") {
		c.Location = time.Local
	} else {
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
		}
		c.Location = loc
	}
	return nil
}

// SessionTTL is the idle lifetime of a dashboard session.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMins) * time.Minute
}

// S3Configured reports whether exports can be published to S3.
func (c Config) S3Configured() bool {
	return c.S3Bucket != ""
}

// SlackConfigured reports whether snapshots can be shared to Slack.
func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != "" && c.SlackChannel != ""
}

// Now returns the current time in the configured location.
func (c Config) Now() time.Time {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return time.Now().In(loc)
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%w: %s %q: %v", ErrInvalidConfig, envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

func envOverrideInt64(field *int64, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s %q: %v", ErrInvalidConfig, envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

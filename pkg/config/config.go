package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the archiver.
type Config struct {
	// LinkedIn API client settings
	LinkedIn LinkedInConfig `yaml:"linkedin" json:"linkedin"`

	// Output settings for the on-disk archive
	Output OutputConfig `yaml:"output" json:"output"`

	// Media download settings
	Media MediaConfig `yaml:"media" json:"media"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// LinkedInConfig holds API client configuration.
type LinkedInConfig struct {
	// RateLimitDelay is the minimum spacing between API calls, in seconds.
	RateLimitDelay float64 `yaml:"rate_limit_delay" json:"rate_limit_delay"`
	MaxRetries     int     `yaml:"max_retries" json:"max_retries"`
	// Timeout is the per-request timeout, in seconds.
	Timeout int `yaml:"timeout" json:"timeout"`
	// APIVersion is sent as the LinkedIn-Version header.
	APIVersion string `yaml:"api_version" json:"api_version"`
	// PageSize is the pagination window, capped at 50 by the API.
	PageSize int `yaml:"page_size" json:"page_size"`
}

// OutputConfig holds archive layout configuration.
type OutputConfig struct {
	BaseDir string `yaml:"base_dir" json:"base_dir"`
	// DateFormat is the Go time layout for the per-post date bucket.
	DateFormat string `yaml:"date_format" json:"date_format"`
}

// MediaConfig holds media download preferences.
type MediaConfig struct {
	DownloadImages    bool `yaml:"download_images" json:"download_images"`
	DownloadVideos    bool `yaml:"download_videos" json:"download_videos"`
	DownloadDocuments bool `yaml:"download_documents" json:"download_documents"`
	MaxVideoSizeMB    int  `yaml:"max_video_size_mb" json:"max_video_size_mb"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// Delay returns the rate limit delay as a duration.
func (c *LinkedInConfig) Delay() time.Duration {
	return time.Duration(c.RateLimitDelay * float64(time.Second))
}

// RequestTimeout returns the per-request timeout as a duration.
func (c *LinkedInConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// DefaultConfig returns a Config instance with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LinkedIn: LinkedInConfig{
			RateLimitDelay: 1.5,
			MaxRetries:     3,
			Timeout:        30,
			APIVersion:     "202401",
			PageSize:       50,
		},
		Output: OutputConfig{
			BaseDir:    "./archive",
			DateFormat: "2006/01",
		},
		Media: MediaConfig{
			DownloadImages:    true,
			DownloadVideos:    true,
			DownloadDocuments: true,
			MaxVideoSizeMB:    500,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// Load builds the effective configuration: defaults, then config file, then
// environment variables, then command-line flag overrides.
func Load(path string, flags map[string]interface{}) (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(path); err != nil {
		return nil, err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	cfg.applyFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file. An empty path falls back
// to the standard locations; no file found is not an error.
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

// findConfigFile searches for a config file in standard locations.
func (c *Config) findConfigFile() string {
	locations := []string{
		".liarchive.yaml",
		".liarchive.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "liarchive", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "liarchive", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// LoadFromEnv loads configuration overrides from environment variables. A
// .env file in the working directory is honored if present.
func (c *Config) LoadFromEnv() error {
	// Missing .env is fine; explicit env vars still apply.
	_ = godotenv.Load()

	if dir := os.Getenv("LIARCHIVE_OUTPUT_DIR"); dir != "" {
		c.Output.BaseDir = dir
	}
	if level := os.Getenv("LIARCHIVE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if delay := os.Getenv("LIARCHIVE_RATE_LIMIT_DELAY"); delay != "" {
		if val, err := strconv.ParseFloat(delay, 64); err == nil && val >= 0 {
			c.LinkedIn.RateLimitDelay = val
		}
	}
	if retries := os.Getenv("LIARCHIVE_MAX_RETRIES"); retries != "" {
		if val, err := strconv.Atoi(retries); err == nil && val > 0 {
			c.LinkedIn.MaxRetries = val
		}
	}
	if size := os.Getenv("LIARCHIVE_MAX_VIDEO_SIZE_MB"); size != "" {
		if val, err := strconv.Atoi(size); err == nil && val > 0 {
			c.Media.MaxVideoSizeMB = val
		}
	}

	return nil
}

// applyFlags applies command-line flag overrides.
func (c *Config) applyFlags(flags map[string]interface{}) {
	for key, value := range flags {
		switch key {
		case "base-dir":
			if v, ok := value.(string); ok && v != "" {
				c.Output.BaseDir = v
			}
		case "log-level":
			if v, ok := value.(string); ok && v != "" {
				c.Logging.Level = v
			}
		case "max-retries":
			if v, ok := value.(int); ok && v > 0 {
				c.LinkedIn.MaxRetries = v
			}
		case "rate-limit-delay":
			if v, ok := value.(float64); ok && v >= 0 {
				c.LinkedIn.RateLimitDelay = v
			}
		case "timeout":
			if v, ok := value.(int); ok && v > 0 {
				c.LinkedIn.Timeout = v
			}
		case "page-size":
			if v, ok := value.(int); ok && v > 0 {
				c.LinkedIn.PageSize = v
			}
		}
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.LinkedIn.RateLimitDelay < 0 {
		return fmt.Errorf("linkedin.rate_limit_delay must not be negative")
	}
	if c.LinkedIn.MaxRetries < 1 {
		return fmt.Errorf("linkedin.max_retries must be at least 1")
	}
	if c.LinkedIn.Timeout < 1 {
		return fmt.Errorf("linkedin.timeout must be at least 1 second")
	}
	if c.LinkedIn.PageSize < 1 || c.LinkedIn.PageSize > 50 {
		return fmt.Errorf("linkedin.page_size must be between 1 and 50")
	}
	if c.Output.BaseDir == "" {
		return fmt.Errorf("output.base_dir must not be empty")
	}
	if c.Output.DateFormat == "" {
		return fmt.Errorf("output.date_format must not be empty")
	}
	if c.Media.MaxVideoSizeMB < 0 {
		return fmt.Errorf("media.max_video_size_mb must not be negative")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("logging.level %q is not valid", c.Logging.Level)
	}

	return nil
}

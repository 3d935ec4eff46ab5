package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents configuration data for the dashboard service.
type Config struct {
	ListenAddr            string `yaml:"listen_addr"`
	APIBaseURL            string `yaml:"api_base_url"`
	APIKey                string `yaml:"api_key"`
	Device                string `yaml:"device"`
	PollIntervalMS        int    `yaml:"poll_interval_ms"`
	PushIntervalMS        int    `yaml:"push_interval_ms"`
	ReadingsLimit         int    `yaml:"readings_limit"`
	AlertsLimit           int    `yaml:"alerts_limit"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
	DropStaleResponses    bool   `yaml:"drop_stale_responses"`
	Locale                string `yaml:"locale"`
	Timezone              string `yaml:"timezone"`
	Radar                 Radar  `yaml:"radar"`
}

// Radar describes the sweep canvas geometry.
type Radar struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	MaxRangeCM float64 `yaml:"max_range_cm"`
}

// DefaultConfig returns sensible defaults in case no configuration file is provided.
func DefaultConfig() Config {
	return Config{
		ListenAddr:     ":8080",
		APIBaseURL:     "http://localhost:5000/api",
		PollIntervalMS: 3000,
		PushIntervalMS: 1000,
		ReadingsLimit:  15,
		AlertsLimit:    10,
		Locale:         "en",
		Timezone:       "Local",
		Radar: Radar{
			Width:      400,
			Height:     220,
			MaxRangeCM: 200,
		},
	}
}

// Load reads configuration from yaml file. Missing files fall back to defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	defaults := DefaultConfig()
	if c.ListenAddr == "" {
		c.ListenAddr = defaults.ListenAddr
	}
	if c.PollIntervalMS <= 0 {
		c.PollIntervalMS = defaults.PollIntervalMS
	}
	if c.PushIntervalMS <= 0 {
		c.PushIntervalMS = defaults.PushIntervalMS
	}
	if c.ReadingsLimit <= 0 {
		c.ReadingsLimit = defaults.ReadingsLimit
	}
	if c.AlertsLimit <= 0 {
		c.AlertsLimit = defaults.AlertsLimit
	}
	if c.RequestTimeoutSeconds < 0 {
		c.RequestTimeoutSeconds = 0
	}
	if c.Locale == "" {
		c.Locale = defaults.Locale
	}
	if c.Timezone == "" {
		c.Timezone = defaults.Timezone
	}
	if c.Radar.Width <= 0 {
		c.Radar.Width = defaults.Radar.Width
	}
	if c.Radar.Height <= 0 {
		c.Radar.Height = defaults.Radar.Height
	}
	if c.Radar.MaxRangeCM <= 0 {
		c.Radar.MaxRangeCM = defaults.Radar.MaxRangeCM
	}

	c.APIBaseURL = strings.TrimSuffix(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" {
		return errors.New("api_base_url is required")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil {
		return fmt.Errorf("api_base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api_base_url must be http or https, got %q", u.Scheme)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// PollInterval is the fixed delay between poll ticks.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// PushInterval is how often websocket clients are checked for pending updates.
func (c Config) PushInterval() time.Duration {
	return time.Duration(c.PushIntervalMS) * time.Millisecond
}

// RequestTimeout returns zero when fetches are not bounded.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Location resolves the configured time zone used for time-of-day labels.
func (c Config) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

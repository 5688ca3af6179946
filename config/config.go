package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultOutputFile = "chart_data.json"
	DefaultInterval   = "1d"
	DefaultBatchSize  = 500
)

// Config represents the complete charti configuration
type Config struct {
	Download DownloadConfig `json:"download" yaml:"download"`
	Exchange ExchangeConfig `json:"exchange" yaml:"exchange"`
	Log      LogConfig      `json:"log" yaml:"log"`
}

// DownloadConfig holds the defaults of the download mode
type DownloadConfig struct {
	Intervals  []string `json:"intervals" yaml:"intervals"`
	OutputFile string   `json:"output_file" yaml:"output_file"`
	Format     string   `json:"format,omitempty" yaml:"format,omitempty"` // json, csv, yaml, sqlite; empty infers from output_file
	BatchSize  int      `json:"batch_size" yaml:"batch_size"`
}

// ExchangeConfig configures the exchange clients
type ExchangeConfig struct {
	RateLimit bool              `json:"rate_limit" yaml:"rate_limit"`
	Timeout   string            `json:"timeout" yaml:"timeout"` // e.g. "30s"
	BaseURLs  map[string]string `json:"base_urls,omitempty" yaml:"base_urls,omitempty"`
}

// ParseTimeout converts the timeout string to time.Duration
func (e ExchangeConfig) ParseTimeout() (time.Duration, error) {
	if e.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(e.Timeout)
}

// BaseURL returns the configured endpoint override for an exchange
func (e ExchangeConfig) BaseURL(exchange string) string {
	return e.BaseURLs[strings.ToLower(exchange)]
}

// LogConfig configures logging
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`   // logrus level name
	Format string `json:"format" yaml:"format"` // text or json
}

// LoadFromFile loads configuration from a file (YAML or JSON). Fields absent
// from the file keep their default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.Download.Intervals) == 0 {
		return fmt.Errorf("download.intervals must not be empty")
	}
	for _, iv := range c.Download.Intervals {
		if strings.TrimSpace(iv) == "" {
			return fmt.Errorf("download.intervals contains an empty interval")
		}
	}
	if c.Download.OutputFile == "" {
		return fmt.Errorf("download.output_file is required")
	}
	switch strings.ToLower(c.Download.Format) {
	case "", "json", "csv", "yaml", "yml", "sqlite", "sqlite3", "db":
	default:
		return fmt.Errorf("download.format must be one of json, csv, yaml, sqlite")
	}
	if c.Download.BatchSize <= 0 {
		return fmt.Errorf("download.batch_size must be positive")
	}
	d, err := c.Exchange.ParseTimeout()
	if err != nil {
		return fmt.Errorf("exchange.timeout: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("exchange.timeout must not be negative")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be 'text' or 'json'")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Download: DownloadConfig{
			Intervals:  []string{DefaultInterval},
			OutputFile: DefaultOutputFile,
			BatchSize:  DefaultBatchSize,
		},
		Exchange: ExchangeConfig{
			RateLimit: true,
			Timeout:   "30s",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

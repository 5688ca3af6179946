package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, []string{"1d"}, cfg.Download.Intervals)
	assert.Equal(t, "chart_data.json", cfg.Download.OutputFile)
	assert.Equal(t, 500, cfg.Download.BatchSize)
	assert.True(t, cfg.Exchange.RateLimit)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "no intervals",
			mutate:  func(c *Config) { c.Download.Intervals = nil },
			wantErr: true,
			errMsg:  "download.intervals must not be empty",
		},
		{
			name:    "blank interval",
			mutate:  func(c *Config) { c.Download.Intervals = []string{"1d", " "} },
			wantErr: true,
			errMsg:  "empty interval",
		},
		{
			name:    "missing output file",
			mutate:  func(c *Config) { c.Download.OutputFile = "" },
			wantErr: true,
			errMsg:  "download.output_file is required",
		},
		{
			name:    "unknown format",
			mutate:  func(c *Config) { c.Download.Format = "xlsx" },
			wantErr: true,
			errMsg:  "download.format must be one of",
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.Download.BatchSize = 0 },
			wantErr: true,
			errMsg:  "download.batch_size must be positive",
		},
		{
			name:    "bad timeout",
			mutate:  func(c *Config) { c.Exchange.Timeout = "soon" },
			wantErr: true,
			errMsg:  "exchange.timeout",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Exchange.Timeout = "-1s" },
			wantErr: true,
			errMsg:  "must not be negative",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: true,
			errMsg:  "log.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		ext  string
	}{
		{"json format", ".json"},
		{"yaml format", ".yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Download.Intervals = []string{"1h", "15m"}
			cfg.Exchange.BaseURLs = map[string]string{"binance": "http://localhost:9000"}
			path := filepath.Join(tmpDir, "charti"+tt.ext)

			require.NoError(t, cfg.SaveToFile(path))

			_, err := os.Stat(path)
			require.NoError(t, err)

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)

			assert.Equal(t, cfg.Download, loaded.Download)
			assert.Equal(t, cfg.Exchange, loaded.Exchange)
			assert.Equal(t, "http://localhost:9000", loaded.Exchange.BaseURL("Binance"))
		})
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("download:\n  output_file: btc.csv\n"), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "btc.csv", cfg.Download.OutputFile)
	assert.Equal(t, []string{"1d"}, cfg.Download.Intervals)
	assert.Equal(t, 500, cfg.Download.BatchSize)
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("download:\n  batch_size: -3\n"), 0o644))
	_, err = LoadFromFile(path)
	assert.ErrorContains(t, err, "invalid config")
}

func TestParseTimeout(t *testing.T) {
	tests := []struct {
		timeout  string
		expected time.Duration
		wantErr  bool
	}{
		{"30s", 30 * time.Second, false},
		{"1m", time.Minute, false},
		{"", 0, false},
		{"invalid", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.timeout, func(t *testing.T) {
			d, err := ExchangeConfig{Timeout: tt.timeout}.ParseTimeout()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, d)
			}
		})
	}
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CHARTI_"

// LoadEnv loads KEY=VALUE pairs from the given dotenv files into the process
// environment. Missing files are skipped; variables already set win.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s file: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides configuration values from CHARTI_* variables:
//
//	CHARTI_INTERVALS          comma separated list
//	CHARTI_OUTPUT_FILE
//	CHARTI_FORMAT
//	CHARTI_BATCH_SIZE
//	CHARTI_RATE_LIMIT         true/false
//	CHARTI_TIMEOUT            duration, e.g. 15s
//	CHARTI_LOG_LEVEL
//	CHARTI_LOG_FORMAT
//	CHARTI_<EXCHANGE>_BASE_URL
//
// lookup is normally os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool), exchanges []string) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("INTERVALS"); ok {
		c.Download.Intervals = SplitList(v)
	}
	if v, ok := get("OUTPUT_FILE"); ok {
		c.Download.OutputFile = v
	}
	if v, ok := get("FORMAT"); ok {
		c.Download.Format = v
	}
	if v, ok := get("BATCH_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sBATCH_SIZE: %w", EnvPrefix, err)
		}
		c.Download.BatchSize = n
	}
	if v, ok := get("RATE_LIMIT"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sRATE_LIMIT: %w", EnvPrefix, err)
		}
		c.Exchange.RateLimit = b
	}
	if v, ok := get("TIMEOUT"); ok {
		c.Exchange.Timeout = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		c.Log.Format = v
	}
	for _, ex := range exchanges {
		if v, ok := get(strings.ToUpper(ex) + "_BASE_URL"); ok {
			if c.Exchange.BaseURLs == nil {
				c.Exchange.BaseURLs = map[string]string{}
			}
			c.Exchange.BaseURLs[strings.ToLower(ex)] = v
		}
	}

	return c.Validate()
}

// SplitList splits a comma or space separated list, dropping empty items.
func SplitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

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

// Environment variables read by ApplyEnv.
const (
	EnvLogLevel    = "LOG_LEVEL"
	EnvOutputDir   = "TELCO_OUTPUT_DIR"
	EnvTowerWindow = "TELCO_TOWER_WINDOW_MINUTES"
	EnvIPWindow    = "TELCO_IP_WINDOW_MINUTES"
)

// LoadDotEnv loads variables from a .env file without overriding the ones
// already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides settings from the process environment.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup(EnvOutputDir); ok && v != "" {
		c.Output.Dir = v
	}
	var errs []error
	for _, e := range []struct {
		key string
		dst *int
	}{
		{EnvTowerWindow, &c.Correlation.TowerWindowMinutes},
		{EnvIPWindow, &c.Correlation.IPWindowMinutes},
	} {
		v, ok := lookup(e.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not a whole number of minutes", e.key, v))
			continue
		}
		*e.dst = n
	}
	return errors.Join(errs...)
}

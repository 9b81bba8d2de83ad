// Package config resolves CLI settings from defaults, an optional
// config.yaml, APPEALKIT_* environment variables and command-line flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Keys and defaults.
const (
	KeyBaseURL   = "api.base_url"
	KeyTimeout   = "api.timeout"
	KeyLogLevel  = "log.level"
	KeyConfigDir = "config_dir"
	KeyOutput    = "output"

	DefaultBaseURL = "http://localhost:5000/api"
	EnvPrefix      = "APPEALKIT"
	appDir         = "appealkit"
)

var (
	validLogLevels = []string{"debug", "info", "warn", "error"}
	validOutputs   = []string{"text", "json", "yaml"}
)

// Config is the resolved configuration.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	LogLevel string
	Dir      string
	Output   string
	// File is the config file that was read, if any.
	File string
}

// DefaultDir returns $XDG_CONFIG_HOME/appealkit, falling back to ~/.config/appealkit.
func DefaultDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, appDir)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appDir)
}

// Flags registers the global flags on fs.
func Flags(fs *pflag.FlagSet) {
	fs.String("api", "", "API base URL (default "+DefaultBaseURL+")")
	fs.String("config", "", "config file (default <config dir>/config.yaml)")
	fs.String("log-level", "", "log level: debug, info, warn, error")
	fs.StringP("output", "o", "", "output format: text, json, yaml")
	fs.Duration("timeout", 0, "request timeout, 0 for none")
}

// Load resolves the configuration. fs may be nil.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()

	v.SetDefault(KeyBaseURL, DefaultBaseURL)
	v.SetDefault(KeyTimeout, "0s")
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyConfigDir, DefaultDir())
	v.SetDefault(KeyOutput, "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var explicit string
	if fs != nil {
		for key, name := range map[string]string{
			KeyBaseURL:  "api",
			KeyLogLevel: "log-level",
			KeyOutput:   "output",
			KeyTimeout:  "timeout",
		} {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
		if f := fs.Lookup("config"); f != nil {
			explicit = f.Value.String()
		}
	}

	v.SetConfigType("yaml")
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(v.GetString(KeyConfigDir))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		BaseURL:  strings.TrimRight(strings.TrimSpace(v.GetString(KeyBaseURL)), "/"),
		Timeout:  v.GetDuration(KeyTimeout),
		LogLevel: strings.ToLower(v.GetString(KeyLogLevel)),
		Dir:      v.GetString(KeyConfigDir),
		Output:   strings.ToLower(v.GetString(KeyOutput)),
		File:     v.ConfigFileUsed(),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the resolved values.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid %s %q: want an http(s) URL", KeyBaseURL, c.BaseURL)
	}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if !slices.Contains(validOutputs, c.Output) {
		return fmt.Errorf("invalid output format %q", c.Output)
	}
	if c.Timeout < 0 {
		return errors.New("api.timeout must not be negative")
	}
	if c.Dir == "" {
		return errors.New("config_dir is empty")
	}
	return nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	Flags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return filepath.Join(dir, "appealkit")
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, time.Duration(0), cfg.Timeout)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "text", cfg.Output)
	assert.Equal(t, dir, cfg.Dir)
	assert.Empty(t, cfg.File)
}

func TestLoad_Precedence(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
api:
  base_url: https://file.example/api/
  timeout: 5s
log:
  level: info
`), 0o600))

	cfg, err := Load(flags(t))
	require.NoError(t, err)
	assert.Equal(t, "https://file.example/api", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), cfg.File)

	t.Setenv("APPEALKIT_LOG_LEVEL", "debug")
	t.Setenv("APPEALKIT_API_BASE_URL", "https://env.example")
	cfg, err = Load(flags(t))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "https://env.example", cfg.BaseURL)

	cfg, err = Load(flags(t, "--api", "https://flag.example", "-o", "yaml"))
	require.NoError(t, err)
	assert.Equal(t, "https://flag.example", cfg.BaseURL)
	assert.Equal(t, "yaml", cfg.Output)
}

func TestLoad_ExplicitFile(t *testing.T) {
	isolate(t)
	p := filepath.Join(t.TempDir(), "ak.yaml")
	require.NoError(t, os.WriteFile(p, []byte("output: json\n"), 0o600))

	cfg, err := Load(flags(t, "--config", p))
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Output)

	_, err = Load(flags(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	require.Error(t, err, "an explicit config file must exist")
}

func TestLoad_Invalid(t *testing.T) {
	isolate(t)
	for _, args := range [][]string{
		{"--api", "localhost:5000"},
		{"--api", "ftp://x.example"},
		{"--log-level", "loud"},
		{"--output", "xml"},
		{"--timeout", "-1s"},
	} {
		_, err := Load(flags(t, args...))
		assert.Error(t, err, "%v", args)
	}
}

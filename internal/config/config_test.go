package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/confgate/internal/loader"
)

func writeSettings(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, path, err := Load(LoadOptions{Dir: t.TempDir()})
	require.NoError(t, err)

	assert.Empty(t, path)
	assert.Equal(t, ".", cfg.Schemas)
	assert.Equal(t, loader.DefaultPattern, cfg.Pattern)
	assert.Empty(t, cfg.Features)
	assert.Equal(t, "json", cfg.Emit)
	assert.Equal(t, "config", cfg.GoPackage)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadSettingsFile(t *testing.T) {
	dir := t.TempDir()
	want := writeSettings(t, dir, `
schemas: ./schemas
features: [executors, integrated-timers]
allow_unstable: true
emit: env
log:
  level: debug
`)

	cfg, path, err := Load(LoadOptions{Dir: dir})
	require.NoError(t, err)

	assert.Equal(t, want, path)
	assert.Equal(t, "./schemas", cfg.Schemas)
	assert.Equal(t, []string{"executors", "integrated-timers"}, cfg.Features)
	assert.True(t, cfg.AllowUnstable)
	assert.Equal(t, "env", cfg.Emit)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadExplicitFileMustExist(t *testing.T) {
	_, _, err := Load(LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.ErrorContains(t, err, "config file not found")
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, "emit: env\n")
	t.Setenv("CONFGATE_EMIT", "markdown")
	t.Setenv("CONFGATE_FEATURES", "executors,wifi")
	t.Setenv("CONFGATE_LOG_FORMAT", "json")

	cfg, _, err := Load(LoadOptions{Dir: dir})
	require.NoError(t, err)

	assert.Equal(t, "markdown", cfg.Emit)
	assert.Equal(t, []string{"executors", "wifi"}, cfg.Features)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadChangedFlagsWin(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, "emit: env\ngo_package: embassy\n")

	fs := pflag.NewFlagSet("resolve", pflag.ContinueOnError)
	fs.String("emit", "json", "")
	fs.String("package", "config", "")
	require.NoError(t, fs.Parse([]string{"--emit", "go"}))

	cfg, _, err := Load(LoadOptions{
		Dir: dir,
		Flags: map[string]*pflag.Flag{
			"emit":       fs.Lookup("emit"),
			"go_package": fs.Lookup("package"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "go", cfg.Emit)
	assert.Equal(t, "embassy", cfg.GoPackage, "unchanged flag must not shadow the file")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, "emit: yaml\nlog:\n  level: loud\n")

	_, _, err := Load(LoadOptions{Dir: dir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `emit must be one of [json env go markdown], got "yaml"`)
	assert.Contains(t, err.Error(), "log.level must be one of")
}

func TestValidateRequired(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Schemas = ""
	cfg.Features = []string{"executors", ""}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schemas is required")
	assert.Contains(t, err.Error(), "features[1] is required")
}

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

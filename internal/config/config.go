// Package config loads confgate's own tool settings.
//
// Settings come, in increasing precedence, from built-in defaults, an
// optional confgate.yaml, CONFGATE_* environment variables and bound
// command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/confgate/internal/loader"
)

// FileName is the settings file looked up in LoadOptions.Dir.
const FileName = "confgate.yaml"

// EnvPrefix prefixes every settings environment variable.
const EnvPrefix = "CONFGATE"

// Config holds the tool settings.
type Config struct {
	// Schemas is the schema file or directory to load.
	Schemas string `mapstructure:"schemas" validate:"required"`
	// Pattern selects schema files when Schemas is a directory.
	Pattern string `mapstructure:"pattern" validate:"required"`

	Features           []string `mapstructure:"features" validate:"dive,required"`
	IgnoreFeatureGates bool     `mapstructure:"ignore_feature_gates"`
	AllowUnstable      bool     `mapstructure:"allow_unstable"`

	// Overrides is an optional YAML override file.
	Overrides string `mapstructure:"overrides"`

	Emit      string `mapstructure:"emit" validate:"oneof=json env go markdown"`
	GoPackage string `mapstructure:"go_package" validate:"required"`

	Log LogConfig `mapstructure:"log"`
}

// LogConfig configures diagnostic logging.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Schemas:   ".",
		Pattern:   loader.DefaultPattern,
		Features:  []string{},
		Emit:      "json",
		GoPackage: "config",
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// LoadOptions controls where Load looks for settings.
type LoadOptions struct {
	// ConfigFile is an explicit settings file; it must exist.
	ConfigFile string
	// Dir is searched for FileName when ConfigFile is empty. Empty means ".".
	Dir string
	// Flags maps settings keys to command-line flags. A flag takes
	// precedence only when it was set on the command line.
	Flags map[string]*pflag.Flag
}

// Load resolves the settings and returns them with the path of the settings
// file that was read ("" when none was).
func Load(opts LoadOptions) (*Config, string, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("schemas", defaults.Schemas)
	v.SetDefault("pattern", defaults.Pattern)
	v.SetDefault("features", defaults.Features)
	v.SetDefault("ignore_feature_gates", defaults.IgnoreFeatureGates)
	v.SetDefault("allow_unstable", defaults.AllowUnstable)
	v.SetDefault("overrides", defaults.Overrides)
	v.SetDefault("emit", defaults.Emit)
	v.SetDefault("go_package", defaults.GoPackage)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, flag := range opts.Flags {
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, "", fmt.Errorf("bind flag %s: %w", flag.Name, err)
		}
	}

	path, err := settingsFile(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, path, nil
}

func settingsFile(opts LoadOptions) (string, error) {
	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err != nil {
			return "", fmt.Errorf("config file not found: %s", opts.ConfigFile)
		}
		return opts.ConfigFile, nil
	}
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err != nil {
		return "", nil
	}
	return path, nil
}

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		return name
	})
	return v
}

// Validate checks every field against its constraints and reports all
// violations in one error.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	key := fe.Namespace()
	if _, rest, ok := strings.Cut(key, "."); ok {
		key = rest
	}
	switch fe.Tag() {
	case "required":
		return key + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", key, fe.Param(), fmt.Sprint(fe.Value()))
	}
	return fmt.Sprintf("%s failed %s", key, fe.Tag())
}

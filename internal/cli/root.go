package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/roach88/confgate/internal/config"
	"github.com/roach88/confgate/internal/ir"
	"github.com/roach88/confgate/internal/loader"
	"github.com/roach88/confgate/internal/logging"
)

// RootOptions holds global flags and the settings shared by all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string

	// Populated by the root PersistentPreRunE.
	Config *config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// settingsFlags maps settings keys to the command-line flags that override
// them. Commands that lack a flag simply do not bind it.
var settingsFlags = map[string]string{
	"features":             "feature",
	"ignore_feature_gates": "ignore-feature-gates",
	"allow_unstable":       "allow-unstable",
	"overrides":            "overrides",
	"emit":                 "emit",
	"go_package":           "package",
	"pattern":              "pattern",
}

// NewRootCommand creates the root command for the confgate CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "confgate",
		Short:   "Build-time configuration resolution",
		Version: ir.ToolVersion,
		Long: `confgate resolves declarative crate configuration schemas against a
build context (enabled features, documentation mode, overrides) into a
validated effective configuration.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				msg := fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", msg)
				return NewExitError(ExitCommandError, msg)
			}
			if err := opts.setup(cmd); err != nil {
				_ = newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr()).Error(loader.ErrCodeGeneric, err.Error(), nil)
				return err
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "settings file (default ./"+config.FileName+")")

	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewDocsCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// setup loads the settings, with cmd's changed flags taking precedence,
// and builds the logger.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	flags := make(map[string]*pflag.Flag, len(settingsFlags))
	for key, name := range settingsFlags {
		if f := cmd.Flags().Lookup(name); f != nil {
			flags[key] = f
		}
	}

	cfg, path, err := config.Load(config.LoadOptions{ConfigFile: o.ConfigFile, Flags: flags})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load settings", err)
	}

	logger, err := logging.New(cmd.ErrOrStderr(), logging.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Verbose: o.Verbose,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to configure logging", err)
	}
	if path != "" {
		logger.Debug("settings loaded", "path", path)
	}

	o.Config = cfg
	o.Logger = logger
	return nil
}

// schemaPath returns the positional schema path or the configured default.
func (o *RootOptions) schemaPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return o.Config.Schemas
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

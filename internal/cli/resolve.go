package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/confgate/internal/emit"
	"github.com/roach88/confgate/internal/ir"
	"github.com/roach88/confgate/internal/loader"
	"github.com/roach88/confgate/internal/resolver"
	"github.com/roach88/confgate/internal/watch"
)

// ResolveOptions holds flags for the resolve command. Context and emit
// flags are read through the merged settings, so only the command-local
// flags are kept here.
type ResolveOptions struct {
	*RootOptions
	Set    []string // name=value overrides
	Output string   // output file path
	Watch  bool
}

// ResolvedSchema is the JSON payload for one resolved schema.
type ResolvedSchema struct {
	Path        string              `json:"path"`
	Crate       string              `json:"crate"`
	Fingerprint string              `json:"fingerprint,omitempty"`
	ConfigID    string              `json:"config_id,omitempty"`
	Config      *ir.EffectiveConfig `json:"config,omitempty"`
	Failures    []Diagnostic        `json:"failures"`
	Warnings    []Diagnostic        `json:"warnings"`
}

// Diagnostic is the JSON form of a resolver failure or warning.
type Diagnostic struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Option  string `json:"option"`
	Message string `json:"message"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve [schema-path]",
		Short: "Resolve schemas into an effective configuration",
		Long: `Resolve one schema file, or every schema discovered in a directory,
against the build context and emit the effective configuration.

Overrides are applied in increasing precedence: PREFIX_OPTION environment
variables, the --overrides file, then --set flags.

Exit codes:
  0 - Every option resolved
  1 - One or more options failed (NoApplicableDefault, ConstraintViolation)
  2 - Command error (unreadable schema, bad flags, etc.)

Examples:
  confgate resolve testdata/schemas --feature executors
  confgate resolve esp_hal_embassy_config.yml --emit env --set generic-queue-size=128
  confgate resolve . --emit go --package embassyconfig -o config_gen.go
  confgate resolve . --watch`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.schemaPath(args)
			if opts.Watch {
				return runResolveWatch(cmd.Context(), opts, path, cmd)
			}
			return runResolve(cmd.Context(), opts, path, cmd)
		},
	}

	addContextFlags(cmd)
	cmd.Flags().StringSliceVar(&opts.Set, "set", nil, "override an option (name=value, repeatable)")
	cmd.Flags().String("overrides", "", "YAML override file")
	cmd.Flags().String("emit", "json", "artifact format (json|env|go|markdown)")
	cmd.Flags().String("package", "config", "package name for --emit go")
	cmd.Flags().String("pattern", loader.DefaultPattern, "schema discovery pattern for directories")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the artifact to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "re-resolve whenever a schema or the override file changes")

	return cmd
}

// addContextFlags registers the build context flags shared by resolve and docs.
func addContextFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("feature", nil, "enabled cargo feature (repeatable or comma separated)")
	cmd.Flags().Bool("ignore-feature-gates", false, "activate feature-gated options for documentation")
	cmd.Flags().Bool("allow-unstable", false, "accept unstable options without warnings")
}

func runResolve(ctx context.Context, opts *ResolveOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loadResult, loadErrors := loadSchemas(opts.RootOptions, path, loader.LoadModeFailFast)
	if len(loadErrors) > 0 {
		return outputLoadError(f, loadErrors[0])
	}
	f.VerboseLog("Loaded %d schema file(s) from %s", loadResult.FileCount, path)

	emitFormat := emit.Format(opts.Config.Emit)
	if emitFormat == emit.FormatGo && len(loadResult.Schemas) > 1 && !f.IsJSON() {
		return outputResolveError(f, fmt.Sprintf("--emit go needs a single schema, found %d", len(loadResult.Schemas)))
	}

	jobs := make([]resolver.Job, 0, len(loadResult.Schemas))
	for _, l := range loadResult.Schemas {
		ov, err := collectOverrides(opts.RootOptions, l.Schema, environ(), opts.Set, f.Warn)
		if err != nil {
			return outputResolveError(f, err.Error())
		}
		jobs = append(jobs, resolver.Job{Schema: l.Schema, Context: buildContext(opts.RootOptions), Overrides: ov})
	}

	r := resolver.New(resolver.WithLogger(opts.Logger))
	results, err := r.ResolveAll(ctx, jobs)
	if err != nil {
		return WrapExitError(ExitCommandError, "resolution cancelled", err)
	}

	payload := make([]ResolvedSchema, len(results))
	failed := 0
	for i, res := range results {
		payload[i] = describeResult(loadResult.Schemas[i], res)
		if res.Diagnostics.HasFailures() {
			failed++
		}
	}

	if f.IsJSON() {
		if failed > 0 {
			msg := fmt.Sprintf("%d schema(s) failed to resolve", failed)
			if err := f.Failure(ErrCodeResolveFailed, msg, payload); err != nil {
				return err
			}
			return NewExitError(ExitFailure, msg)
		}
		return f.Success(payload)
	}

	var artifact bytes.Buffer
	for i, res := range results {
		schema := loadResult.Schemas[i].Schema
		for _, w := range res.Diagnostics.Warnings {
			f.Warn("%s: %s", schema.Crate, w.String())
		}
		for _, fail := range res.Diagnostics.Failures {
			fmt.Fprintf(f.GetErrWriter(), "%s %s: %s\n", failStyle.Render("✗"), labelStyle.Render(schema.Crate), fail.Error())
		}
		if res.Config == nil {
			continue
		}
		data, err := render(emitFormat, schema, res.Config, opts.Config.GoPackage)
		if err != nil {
			_ = f.Error(ErrCodeEmitFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to emit configuration", err)
		}
		artifact.Write(data)
	}

	if err := writeArtifact(opts.Output, cmd.OutOrStdout(), artifact.Bytes()); err != nil {
		_ = f.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}

	if failed > 0 {
		msg := fmt.Sprintf("%d schema(s) failed to resolve", failed)
		_ = f.Failure(ErrCodeResolveFailed, msg, nil)
		return NewExitError(ExitFailure, msg)
	}
	return nil
}

func describeResult(l loader.Loaded, res resolver.Result) ResolvedSchema {
	out := ResolvedSchema{
		Path:     l.Path,
		Crate:    l.Schema.Crate,
		Config:   res.Config,
		Failures: []Diagnostic{},
		Warnings: []Diagnostic{},
	}
	if res.Config != nil {
		out.Fingerprint, _ = ir.Fingerprint(res.Config)
		out.ConfigID, _ = ir.ConfigID(res.Config)
	}
	for _, fail := range res.Diagnostics.Failures {
		out.Failures = append(out.Failures, Diagnostic{ID: fail.Code.ID(), Code: string(fail.Code), Option: fail.Option, Message: fail.Error()})
	}
	for _, w := range res.Diagnostics.Warnings {
		out.Warnings = append(out.Warnings, Diagnostic{ID: w.Code.ID(), Code: string(w.Code), Option: w.Option, Message: w.Message})
	}
	return out
}

// render produces the artifact for one resolved schema.
func render(format emit.Format, schema *ir.Schema, cfg *ir.EffectiveConfig, pkg string) ([]byte, error) {
	switch format {
	case emit.FormatJSON:
		return emit.JSON(cfg)
	case emit.FormatEnv:
		return emit.Env(cfg, schema.Prefix), nil
	case emit.FormatGo:
		return emit.GoConstants(cfg, pkg)
	case emit.FormatMarkdown:
		return emit.Markdown(schema, cfg, nil), nil
	}
	return nil, fmt.Errorf("unknown emit format %q", format)
}

// writeArtifact writes data to path, or to w when path is empty.
func writeArtifact(path string, w io.Writer, data []byte) error {
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func outputResolveError(f *OutputFormatter, message string) error {
	_ = f.Error(loader.ErrCodeGeneric, message, nil)
	return NewExitError(ExitCommandError, message)
}

// runResolveWatch resolves once, then again after every relevant change,
// until ctx is cancelled. Failures are reported but do not stop watching.
func runResolveWatch(ctx context.Context, opts *ResolveOptions, path string, cmd *cobra.Command) error {
	once := func() {
		if err := runResolve(ctx, opts, path, cmd); err != nil {
			opts.Logger.Warn("resolve failed", "exit_code", GetExitCode(err), "error", err)
		}
	}
	once()

	paths := []string{path}
	if opts.Config.Overrides != "" {
		paths = append(paths, opts.Config.Overrides)
	}
	w, err := watch.New(watch.Config{
		Paths:   paths,
		Pattern: opts.Config.Pattern,
		Logger:  opts.Logger,
		OnChange: func(_ context.Context, changed []string) error {
			opts.Logger.Info("change detected", "files", changed)
			once()
			return nil
		},
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to watch schemas", err)
	}
	opts.Logger.Info("watching for changes", "paths", paths)
	return w.Run(ctx)
}

package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/confgate/internal/emit"
	"github.com/roach88/confgate/internal/loader"
	"github.com/roach88/confgate/internal/overrides"
	"github.com/roach88/confgate/internal/resolver"
)

// DocsOptions holds flags for the docs command.
type DocsOptions struct {
	*RootOptions
	Render bool
	Width  int
	Style  string
	Output string
}

// NewDocsCommand creates the docs command.
func NewDocsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DocsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "docs [schema-path]",
		Short: "Generate option documentation",
		Long: `Generate a Markdown table of every option, resolved in documentation
mode: feature gates are ignored so feature-gated options appear with the
defaults they take when no feature rule matches. Overrides are not applied.

With --render the Markdown is rendered for the terminal.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocs(opts, opts.schemaPath(args), cmd)
		},
	}

	cmd.Flags().StringSlice("feature", nil, "enabled cargo feature (repeatable or comma separated)")
	cmd.Flags().String("pattern", loader.DefaultPattern, "schema discovery pattern for directories")
	cmd.Flags().BoolVar(&opts.Render, "render", false, "render Markdown for the terminal")
	cmd.Flags().IntVar(&opts.Width, "width", 100, "word wrap width for --render")
	cmd.Flags().StringVar(&opts.Style, "style", "", "glamour style for --render (dark, light, notty, ...)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the documentation to a file instead of stdout")

	return cmd
}

func runDocs(opts *DocsOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loadResult, loadErrors := loadSchemas(opts.RootOptions, path, loader.LoadModeFailFast)
	if len(loadErrors) > 0 {
		return outputLoadError(f, loadErrors[0])
	}

	ctx := buildContext(opts.RootOptions).WithIgnoreFeatureGates(true)
	r := resolver.New(resolver.WithLogger(opts.Logger))

	var md bytes.Buffer
	for i, l := range loadResult.Schemas {
		cfg, diag := r.ResolvePartial(l.Schema, ctx, overrides.Set{})
		failed := make(map[string]string, len(diag.Failures))
		for name, code := range diag.FailedOptions() {
			failed[name] = string(code)
		}
		for _, fail := range diag.Failures {
			f.Warn("%s: %s", l.Schema.Crate, fail.Error())
		}
		if i > 0 {
			md.WriteByte('\n')
		}
		md.Write(emit.Markdown(l.Schema, cfg, failed))
	}

	out := md.Bytes()
	if opts.Render {
		rendered, err := emit.RenderTerminal(out, emit.RenderOptions{Width: opts.Width, Style: opts.Style})
		if err != nil {
			_ = f.Error(ErrCodeEmitFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to render documentation", err)
		}
		out = []byte(rendered)
	}

	if f.IsJSON() {
		return f.Success(map[string]string{"markdown": string(out)})
	}
	if err := writeArtifact(opts.Output, f.Writer, out); err != nil {
		_ = f.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to write documentation", err)
	}
	if opts.Output != "" {
		fmt.Fprintf(f.GetErrWriter(), "%s wrote %s\n", okStyle.Render("✓"), opts.Output)
	}
	return nil
}

package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/confgate/internal/ir"
	"github.com/roach88/confgate/internal/loader"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompiledSchema is one compiled schema with its content hash.
type CompiledSchema struct {
	Path   string     `json:"path"`
	Hash   string     `json:"hash"`
	Schema *ir.Schema `json:"schema"`
}

// CompilationResult holds every compiled schema.
type CompilationResult struct {
	IRVersion string           `json:"ir_version"`
	Schemas   []CompiledSchema `json:"schemas"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [schema-path]",
		Short: "Compile schemas to their intermediate representation",
		Long: `Compile schema files (YAML, TOML or CUE) into the intermediate
representation used by the resolver and print it as JSON with a stable
schema hash. The hash changes whenever any rule, predicate or value does.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, opts.schemaPath(args), cmd)
		},
	}

	cmd.Flags().String("pattern", loader.DefaultPattern, "schema discovery pattern for directories")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loadResult, loadErrors := loadSchemas(opts.RootOptions, path, loader.LoadModeCollectAll)
	if loadResult == nil {
		return outputLoadError(f, loadErrors[0])
	}
	if len(loadErrors) > 0 {
		for _, err := range loadErrors[1:] {
			f.VerboseLog("%v", err)
		}
		return outputLoadError(f, loadErrors[0])
	}

	result := &CompilationResult{IRVersion: ir.IRVersion, Schemas: make([]CompiledSchema, 0, len(loadResult.Schemas))}
	for _, l := range loadResult.Schemas {
		hash, err := ir.SchemaHash(l.Schema)
		if err != nil {
			_ = f.Error(ErrCodeEmitFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to hash schema", err)
		}
		f.VerboseLog("Compiled %s (%s)", l.Schema.Crate, l.Path)
		result.Schemas = append(result.Schemas, CompiledSchema{Path: l.Path, Hash: hash, Schema: l.Schema})
	}

	if opts.Output != "" {
		if err := writeIRToFile(result, opts.Output); err != nil {
			_ = f.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
	}

	if f.IsJSON() {
		return f.Success(result)
	}

	w := f.Writer
	for _, s := range result.Schemas {
		fmt.Fprintf(w, "%s %s: %d option(s)  %s\n",
			okStyle.Render("✓"), labelStyle.Render(s.Schema.Crate), len(s.Schema.Options), hintStyle.Render(s.Hash))
	}
	if opts.Output != "" {
		fmt.Fprintf(w, "Output written to %s\n", opts.Output)
	}
	return nil
}

// writeIRToFile writes the compilation result as indented JSON.
func writeIRToFile(result *CompilationResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling IR: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

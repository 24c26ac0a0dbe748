package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/confgate/internal/compiler"
	"github.com/roach88/confgate/internal/loader"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Strict bool // treat warnings as errors
}

// Finding is a validation finding attributed to a schema file.
type Finding struct {
	Path string `json:"path,omitempty"`
	compiler.ValidationError
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool      `json:"valid"`
	Files    int       `json:"files"`
	Errors   []Finding `json:"errors,omitempty"`
	Warnings []Finding `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate [schema-path]",
		Short: "Validate schemas without resolving them",
		Long: `Validate schema files: structure against the schema definition,
predicate syntax and functions, validator specs and authoring checks such as
duplicate options or default rules without a catch-all.

Every file is checked and all findings are reported.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, opts.schemaPath(args), cmd)
		},
	}

	cmd.Flags().String("pattern", loader.DefaultPattern, "schema discovery pattern for directories")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat warnings as errors")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loadResult, loadErrors := loadSchemas(opts.RootOptions, path, loader.LoadModeCollectAll)
	if loadResult == nil {
		return outputLoadError(f, loadErrors[0])
	}
	f.VerboseLog("Found %d schema file(s) in %s", loadResult.FileCount, path)

	result := ValidationResult{Files: loadResult.FileCount}
	for _, err := range loadErrors {
		result.Errors = append(result.Errors, findings(err)...)
	}
	for _, l := range loadResult.Schemas {
		for _, w := range l.Warnings {
			finding := Finding{Path: l.Path, ValidationError: w}
			if opts.Strict {
				result.Errors = append(result.Errors, finding)
			} else {
				result.Warnings = append(result.Warnings, finding)
			}
		}
	}
	result.Valid = len(result.Errors) == 0

	if f.IsJSON() {
		if !result.Valid {
			msg := fmt.Sprintf("validation failed with %d error(s)", len(result.Errors))
			if err := f.Failure(result.Errors[0].Code, msg, result); err != nil {
				return err
			}
			return NewExitError(ExitFailure, msg)
		}
		return f.Success(result)
	}

	w := f.Writer
	for _, finding := range result.Warnings {
		f.Warn("%s", describeFinding(finding))
	}
	if result.Valid {
		fmt.Fprintf(w, "%s %d schema file(s) valid\n", okStyle.Render("✓"), result.Files)
		return nil
	}

	fmt.Fprintf(w, "%s Validation failed\n\n", failStyle.Render("✗"))
	for _, finding := range result.Errors {
		fmt.Fprintf(w, "  %s\n", describeFinding(finding))
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}

func describeFinding(fd Finding) string {
	loc := fd.Path
	if fd.Line > 0 {
		loc = fmt.Sprintf("%s:%d", loc, fd.Line)
	}
	if loc == "" {
		return fmt.Sprintf("%s: %s: %s", fd.Code, fd.Field, fd.Message)
	}
	return fmt.Sprintf("%s: %s: %s: %s", labelStyle.Render(loc), fd.Code, fd.Field, fd.Message)
}

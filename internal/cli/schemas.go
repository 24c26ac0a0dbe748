package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/confgate/internal/compiler"
	"github.com/roach88/confgate/internal/ir"
	"github.com/roach88/confgate/internal/loader"
	"github.com/roach88/confgate/internal/overrides"
)

// loadSchemas loads a schema file or discovers schema files in a directory
// using the configured pattern.
func loadSchemas(opts *RootOptions, path string, mode loader.LoadMode) (*loader.Result, []error) {
	l := &loader.Loader{Pattern: opts.Config.Pattern, Mode: mode}
	return l.Load(path)
}

// loadErrorDetails is the JSON detail payload of a load error.
type loadErrorDetails struct {
	Path   string `json:"path,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// outputLoadError reports a schema load failure as a command error.
func outputLoadError(f *OutputFormatter, err error) error {
	var le *loader.LoadError
	if !errors.As(err, &le) {
		_ = f.Error(loader.ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load schemas", err)
	}
	details := loadErrorDetails{Path: le.Path}
	if le.Pos.IsValid() {
		details.Line = le.Pos.Line()
		details.Column = le.Pos.Column()
	}
	_ = f.Error(le.Code, le.Error(), details)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", le.Code, le.Message))
}

// findings flattens a load error into validation findings for one file.
func findings(err error) []Finding {
	var le *loader.LoadError
	if !errors.As(err, &le) {
		return []Finding{{ValidationError: compiler.ValidationError{Field: "load", Code: loader.ErrCodeGeneric, Message: err.Error()}}}
	}

	if le.Code == loader.ErrCodeInvalid {
		if joined, ok := le.Err.(interface{ Unwrap() []error }); ok {
			var out []Finding
			for _, e := range joined.Unwrap() {
				var ve compiler.ValidationError
				if errors.As(e, &ve) {
					out = append(out, Finding{Path: le.Path, ValidationError: ve})
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}

	ve := compiler.ValidationError{Field: "load", Code: le.Code, Message: le.Message}
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		ve.Field = ce.Field
		ve.Message = ce.Message
		if ce.Pos.IsValid() {
			ve.Line = ce.Pos.Line()
		}
	} else if le.Pos.IsValid() {
		ve.Line = le.Pos.Line()
	}
	return []Finding{{Path: le.Path, ValidationError: ve}}
}

// buildContext assembles the resolution context from the settings.
func buildContext(opts *RootOptions) ir.Context {
	cfg := opts.Config
	return ir.NewContext(cfg.Features...).
		WithIgnoreFeatureGates(cfg.IgnoreFeatureGates).
		WithAllowUnstable(cfg.AllowUnstable)
}

// collectOverrides merges environment, file and --set overrides for schema,
// lowest precedence first. Environment variables under the schema prefix
// that match no option are reported through warn.
func collectOverrides(opts *RootOptions, schema *ir.Schema, environ, set []string, warn func(string, ...any)) (overrides.Set, error) {
	envSet, unknown := overrides.FromEnviron(schema, environ)
	for _, name := range unknown {
		warn("environment variable %s matches no option of %s", name, schema.Crate)
	}

	var fileSet overrides.Set
	if path := opts.Config.Overrides; path != "" {
		var err error
		fileSet, err = overrides.FromFile(path, schema.Crate)
		if err != nil {
			return nil, err
		}
	}

	flagSet, err := overrides.FromAssignments(set)
	if err != nil {
		return nil, err
	}
	return overrides.Merge(envSet, fileSet, flagSet), nil
}

// environ is swapped in tests.
var environ = os.Environ

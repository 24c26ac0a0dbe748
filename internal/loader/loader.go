package loader

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/roach88/confgate/internal/compiler"
	"github.com/roach88/confgate/internal/ir"
	"github.com/roach88/confgate/internal/validator"
)

//go:embed schema.cue
var schemaSource string

// DefaultPattern matches schema files during directory discovery.
const DefaultPattern = "**/*_config.{yml,yaml,toml,cue}"

// LoadMode controls how errors are handled during schema loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first file that fails.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll loads every file and collects all errors.
	LoadModeCollectAll
)

// Error code constants, shared with the CLI.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No schema files found
	ErrCodeLoadFailed  = "E004" // File could not be read or decoded
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // Document does not match #Schema
	ErrCodeInvalid     = "E007" // Schema failed validation
)

// LoadError represents an error that occurred during schema loading.
type LoadError struct {
	Code    string
	Path    string
	Message string
	Pos     token.Pos // CUE position if available
	Err     error
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() && e.Pos.Filename() != "" {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Loaded is one successfully compiled schema file.
type Loaded struct {
	Path     string
	Schema   *ir.Schema
	Warnings []compiler.ValidationError
}

// Result contains the results of loading schemas.
type Result struct {
	Schemas   []Loaded
	FileCount int
}

// Loader turns schema files into validated ir.Schema values.
// The zero value is usable: it validates against validator.Default() and
// discovers files with DefaultPattern.
type Loader struct {
	Registry *validator.Registry
	Pattern  string
	Mode     LoadMode
}

// LoadFile loads one schema file with default settings.
func LoadFile(path string) (*ir.Schema, error) {
	l := &Loader{}
	loaded, err := l.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return loaded.Schema, nil
}

// Load loads path, which may be a single file or a directory to discover
// schema files in. The result is nil only when path cannot be read or holds
// no schema files; per-file errors come with a non-nil result.
func (l *Loader) Load(path string) (*Result, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Path: path, Message: "path not found"}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Path: path, Message: err.Error(), Err: err}}
	}
	if !info.IsDir() {
		result := &Result{FileCount: 1}
		loaded, err := l.LoadFile(path)
		if err != nil {
			return result, []error{err}
		}
		result.Schemas = []Loaded{*loaded}
		return result, nil
	}
	return l.LoadDir(path)
}

// LoadDir discovers and loads every schema file below dir.
// If Mode is LoadModeFailFast, returns on the first error.
func (l *Loader) LoadDir(dir string) (*Result, []error) {
	files, err := Discover(dir, l.Pattern)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Path: dir, Message: fmt.Sprintf("error scanning directory: %v", err), Err: err}}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Path: dir, Message: "no schema files found"}}
	}

	result := &Result{FileCount: len(files)}
	var errs []error
	for _, f := range files {
		loaded, err := l.LoadFile(f)
		if err != nil {
			errs = append(errs, err)
			if l.Mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Schemas = append(result.Schemas, *loaded)
	}
	return result, errs
}

// Discover returns schema files under dir matching pattern (DefaultPattern
// when empty), sorted.
func Discover(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	files := make([]string, len(matches))
	for i, m := range matches {
		files[i] = filepath.Join(dir, filepath.FromSlash(m))
	}
	slices.Sort(files)
	return files, nil
}

// LoadFile reads, decodes, compiles and validates one schema file.
func (l *Loader) LoadFile(path string) (*Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		code := ErrCodeLoadFailed
		if os.IsNotExist(err) {
			code = ErrCodeNotFound
		}
		return nil, &LoadError{Code: code, Path: path, Message: err.Error(), Err: err}
	}
	return l.LoadBytes(path, data)
}

// LoadBytes loads schema data; the format is chosen by name's extension.
func (l *Loader) LoadBytes(name string, data []byte) (*Loaded, error) {
	ctx := cuecontext.New()

	doc, err := decode(ctx, name, data)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Path: name, Message: err.Error(), Err: err}
	}

	def := ctx.CompileString(schemaSource, cue.Filename("schema.cue")).LookupPath(cue.ParsePath("#Schema"))
	v := def.Unify(doc)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, buildError(name, err)
	}

	schema, err := compiler.CompileSchema(v)
	if err != nil {
		return nil, &LoadError{Code: compileCode(err), Path: name, Message: err.Error(), Err: err}
	}

	reg := l.Registry
	if reg == nil {
		reg = validator.Default()
	}
	findings := compiler.Validate(schema, reg)
	if compiler.HasErrors(findings) {
		msgs := make([]string, 0, len(findings))
		var joined []error
		for _, f := range findings {
			if !f.IsWarning() {
				msgs = append(msgs, f.Error())
				joined = append(joined, f)
			}
		}
		return nil, &LoadError{
			Code:    ErrCodeInvalid,
			Path:    name,
			Message: strings.Join(msgs, "; "),
			Err:     errors.Join(joined...),
		}
	}

	return &Loaded{Path: name, Schema: schema, Warnings: findings}, nil
}

// decode converts a schema document into a CUE value according to its
// file extension.
func decode(ctx *cue.Context, name string, data []byte) (cue.Value, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".cue":
		v := ctx.CompileBytes(data, cue.Filename(name))
		return v, v.Err()
	case ".yml", ".yaml":
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return cue.Value{}, fmt.Errorf("decoding YAML: %w", err)
		}
		return encode(ctx, doc)
	case ".toml":
		var doc map[string]any
		if err := toml.Unmarshal(data, &doc); err != nil {
			return cue.Value{}, fmt.Errorf("decoding TOML: %w", err)
		}
		return encode(ctx, doc)
	}
	return cue.Value{}, fmt.Errorf("unsupported schema format %q (want .yml, .yaml, .toml or .cue)", filepath.Ext(name))
}

func encode(ctx *cue.Context, doc map[string]any) (cue.Value, error) {
	if doc == nil {
		return cue.Value{}, fmt.Errorf("empty schema document")
	}
	v := ctx.Encode(doc)
	return v, v.Err()
}

// buildError reports the first #Schema mismatch with its position.
func buildError(name string, err error) *LoadError {
	le := &LoadError{Code: ErrCodeBuildFailed, Path: name, Message: err.Error(), Err: err}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		le.Message = errs[0].Error()
		if pos := cueerrors.Positions(errs[0]); len(pos) > 0 {
			le.Pos = pos[0]
		}
	}
	return le
}

// compileCode picks the most specific compiler code in err.
func compileCode(err error) string {
	var ce *compiler.CompileError
	if errors.As(err, &ce) && ce.Code != "" {
		return ce.Code
	}
	return ErrCodeBuildFailed
}

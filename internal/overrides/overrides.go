// Package overrides collects externally supplied option values.
//
// Overrides arrive through three channels: environment-style assignments
// (PREFIX_OPTION_NAME=value), YAML override files, and explicit name=value
// pairs from the command line. Values are kept verbatim; the resolver infers
// their kind with ir.ParseValue and still applies every constraint.
package overrides

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/confgate/internal/ir"
)

// Source identifies where an override came from.
type Source string

const (
	SourceEnv  Source = "env"
	SourceFile Source = "file"
	SourceFlag Source = "flag"
)

// Override is one supplied value for an option.
type Override struct {
	Name   string
	Text   string
	Source Source
}

// Set maps option names to overrides. The zero value is an empty set.
type Set map[string]Override

// Get returns the override for name.
func (s Set) Get(name string) (Override, bool) {
	o, ok := s[name]
	return o, ok
}

// Names returns the overridden option names, sorted.
func (s Set) Names() []string {
	return slices.Sorted(maps.Keys(s))
}

// Merge returns a new set where entries of later sets replace earlier ones.
// Pass sets from lowest to highest precedence: Merge(env, file, flags).
func Merge(sets ...Set) Set {
	out := make(Set)
	for _, s := range sets {
		maps.Copy(out, s)
	}
	return out
}

// FromEnviron extracts overrides for schema from environ entries
// ("KEY=value", as returned by os.Environ). Only variables named
// ir.EnvName(schema.Prefix, option) for an option in the schema are taken.
// Variables under the prefix that match no option are returned in unknown
// so the caller can warn about them.
func FromEnviron(schema *ir.Schema, environ []string) (set Set, unknown []string) {
	byEnv := make(map[string]string, len(schema.Options))
	for _, opt := range schema.Options {
		byEnv[ir.EnvName(schema.Prefix, opt.Name)] = opt.Name
	}

	set = make(Set)
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, schema.Prefix+"_") {
			continue
		}
		name, known := byEnv[key]
		if !known {
			unknown = append(unknown, key)
			continue
		}
		set[name] = Override{Name: name, Text: value, Source: SourceEnv}
	}
	slices.Sort(unknown)
	return set, unknown
}

// FromAssignments parses name=value pairs, e.g. from repeated --set flags.
func FromAssignments(pairs []string) (Set, error) {
	set := make(Set, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid override %q, expected name=value", p)
		}
		set[name] = Override{Name: name, Text: value, Source: SourceFlag}
	}
	return set, nil
}

// File is the YAML override file layout:
//
//	esp-hal-embassy:
//	  generic-queue-size: 128
//	  timer-queue: generic
//
// Top-level keys are crate names.
type File map[string]map[string]any

// FromFile reads a YAML override file and returns the overrides for crate.
func FromFile(path, crate string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading override file: %w", err)
	}
	return ParseFile(data, crate)
}

// ParseFile decodes YAML override data and returns the overrides for crate.
// Scalars are converted to their textual form; nested values are rejected.
func ParseFile(data []byte, crate string) (Set, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding override file: %w", err)
	}

	set := make(Set)
	for name, raw := range f[crate] {
		text, err := scalarText(raw)
		if err != nil {
			return nil, fmt.Errorf("override %s.%s: %w", crate, name, err)
		}
		set[name] = Override{Name: name, Text: text, Source: SourceFile}
	}
	return set, nil
}

func scalarText(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float64:
		return "", fmt.Errorf("float values are forbidden: %v", x)
	case nil:
		return "", fmt.Errorf("value is empty")
	}
	return "", fmt.Errorf("unsupported value of type %T", v)
}

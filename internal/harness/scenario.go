package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/confgate/internal/ir"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the schema file to load. Relative paths are resolved
	// against the scenario file's directory or the base path.
	Schema string `yaml:"schema"`

	Context ContextSpec `yaml:"context,omitempty"`

	// Env holds environment-style overrides ("PREFIX_OPTION=value").
	Env []string `yaml:"env,omitempty"`

	// Overrides are explicit name -> value overrides; they win over Env.
	Overrides map[string]string `yaml:"overrides,omitempty"`

	Expect Expectation `yaml:"expect"`
}

// ContextSpec is the resolution context of a scenario.
type ContextSpec struct {
	Features           []string `yaml:"features,omitempty"`
	IgnoreFeatureGates bool     `yaml:"ignore_feature_gates,omitempty"`
	AllowUnstable      bool     `yaml:"allow_unstable,omitempty"`
}

// Build returns the immutable resolution context.
func (c ContextSpec) Build() ir.Context {
	return ir.NewContext(c.Features...).
		WithIgnoreFeatureGates(c.IgnoreFeatureGates).
		WithAllowUnstable(c.AllowUnstable)
}

// Expectation is the expected outcome of a scenario.
type Expectation struct {
	// Values maps option names to the expected value text.
	Values map[string]string `yaml:"values,omitempty"`

	// Absent lists options that must not be in the configuration.
	Absent []string `yaml:"absent,omitempty"`

	// Failures and Warnings must match the diagnostics exactly, in order.
	Failures []DiagnosticSpec `yaml:"failures,omitempty"`
	Warnings []DiagnosticSpec `yaml:"warnings,omitempty"`

	// LoadError is the expected schema load error code. When set, nothing
	// is resolved.
	LoadError string `yaml:"load_error,omitempty"`
}

// DiagnosticSpec identifies one expected diagnostic.
type DiagnosticSpec struct {
	Code   string `yaml:"code"`
	Option string `yaml:"option"`
}

func (d DiagnosticSpec) String() string {
	return d.Code + "(" + d.Option + ")"
}

// LoadScenario reads and parses a scenario YAML file. The schema path is
// resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the schema path relative to basePath.
// Unknown fields are rejected so that typos do not silently weaken a test.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, basePath)
}

// ParseScenario parses scenario YAML, resolving the schema path against
// basePath.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) && basePath != "" {
		scenario.Schema = filepath.Join(basePath, scenario.Schema)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	if _, err := os.Stat(s.Schema); os.IsNotExist(err) {
		return fmt.Errorf("schema file not found: %s", s.Schema)
	}

	exp := s.Expect
	if exp.LoadError != "" && (len(exp.Values) > 0 || len(exp.Absent) > 0 || len(exp.Failures) > 0 || len(exp.Warnings) > 0) {
		return fmt.Errorf("expect: load_error excludes values, absent, failures and warnings")
	}
	for name := range exp.Values {
		if name == "" {
			return fmt.Errorf("expect.values: option name is required")
		}
	}
	for i, d := range exp.Failures {
		if d.Code == "" {
			return fmt.Errorf("expect.failures[%d]: code is required", i)
		}
	}
	for i, d := range exp.Warnings {
		if d.Code == "" {
			return fmt.Errorf("expect.warnings[%d]: code is required", i)
		}
	}
	return nil
}

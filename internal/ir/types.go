package ir

import (
	"slices"
)

// Stability marks whether an option is safe for general use.
type Stability string

const (
	Stable   Stability = "stable"
	Unstable Stability = "unstable"
)

// ValidStabilities defines allowed stability levels.
var ValidStabilities = map[Stability]bool{
	Stable:   true,
	Unstable: true,
}

// Schema is a compiled configuration schema for one crate.
type Schema struct {
	Crate   string   `json:"crate"`
	Prefix  string   `json:"prefix"` // env-style prefix, e.g. "ESP_HAL_EMBASSY_CONFIG"
	Options []Option `json:"options"`
}

// Lookup returns the option with the given name.
func (s *Schema) Lookup(name string) (*Option, bool) {
	for i := range s.Options {
		if s.Options[i].Name == name {
			return &s.Options[i], true
		}
	}
	return nil, false
}

// Option is one independently resolvable configuration value.
type Option struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Stability   Stability        `json:"stability"`
	Since       string           `json:"since,omitempty"`  // version the option became stable
	Active      Predicate        `json:"active,omitempty"` // nil means always active
	Defaults    []DefaultRule    `json:"defaults"`         // first true rule wins
	Constraints []ConstraintRule `json:"constraints,omitempty"`
}

// DefaultRule supplies Value when When evaluates true.
type DefaultRule struct {
	When  Predicate `json:"when"`
	Value Value     `json:"value"`
}

// ConstraintRule applies Validator whenever When evaluates true.
type ConstraintRule struct {
	When      Predicate     `json:"when"`
	Validator ValidatorSpec `json:"validator"`
}

// Condition returns the rule's predicate.
func (r DefaultRule) Condition() Predicate { return r.When }

// Condition returns the rule's predicate.
func (r ConstraintRule) Condition() Predicate { return r.When }

// ValidatorKind is the tag of a ValidatorSpec.
type ValidatorKind string

const (
	ValidatorEnumeration        ValidatorKind = "enumeration"
	ValidatorPositiveInteger    ValidatorKind = "positive_integer"
	ValidatorNonNegativeInteger ValidatorKind = "non_negative_integer"
	ValidatorIntegerInRange     ValidatorKind = "integer_in_range"
	ValidatorStringLength       ValidatorKind = "string_length"
)

// ValidatorSpec describes a value-shape check.
// Values is used by enumeration; Min/Max by integer_in_range and string_length.
type ValidatorSpec struct {
	Kind   ValidatorKind `json:"kind"`
	Values []string      `json:"values,omitempty"`
	Min    int64         `json:"min,omitempty"`
	Max    int64         `json:"max,omitempty"`
}

// Context holds the build-time facts predicates are evaluated against.
// Construct with NewContext; treat as immutable afterwards.
type Context struct {
	Features           []string `json:"features"` // sorted and unique when built by NewContext
	IgnoreFeatureGates bool     `json:"ignore_feature_gates"`
	AllowUnstable      bool     `json:"allow_unstable"`
}

// NewContext builds a Context with a deduplicated, sorted feature set.
func NewContext(features ...string) Context {
	set := make([]string, 0, len(features))
	for _, f := range features {
		if f != "" {
			set = append(set, f)
		}
	}
	slices.Sort(set)
	return Context{Features: slices.Compact(set)}
}

// HasFeature reports whether name is in the enabled feature set.
func (c Context) HasFeature(name string) bool {
	return slices.Contains(c.Features, name)
}

// WithIgnoreFeatureGates returns a copy of c with the documentation flag set to v.
func (c Context) WithIgnoreFeatureGates(v bool) Context {
	c.Features = slices.Clone(c.Features)
	c.IgnoreFeatureGates = v
	return c
}

// WithAllowUnstable returns a copy of c with the unstable opt-in set to v.
func (c Context) WithAllowUnstable(v bool) Context {
	c.Features = slices.Clone(c.Features)
	c.AllowUnstable = v
	return c
}

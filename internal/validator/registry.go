package validator

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/roach88/confgate/internal/ir"
)

// CheckFunc returns nil when value satisfies spec, otherwise a reason.
type CheckFunc func(spec ir.ValidatorSpec, value ir.Value) error

// Violation describes a value that failed a validator.
type Violation struct {
	Kind    ir.ValidatorKind
	Value   string
	Reason  string
	Allowed []string // enumeration members, when applicable
}

func (v *Violation) Error() string {
	msg := fmt.Sprintf("value %q fails %s: %s", v.Value, v.Kind, v.Reason)
	if len(v.Allowed) > 0 {
		msg += fmt.Sprintf(" (allowed: %s)", strings.Join(v.Allowed, ", "))
	}
	return msg
}

// Registry maps validator kinds to checks. The zero value is not usable;
// construct with New or Default. A Registry is read-only once shared.
type Registry struct {
	checks map[ir.ValidatorKind]CheckFunc
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{checks: make(map[ir.ValidatorKind]CheckFunc)}
}

// Default returns a registry holding the built-in validators.
func Default() *Registry {
	r := New()
	r.Register(ir.ValidatorEnumeration, checkEnumeration)
	r.Register(ir.ValidatorPositiveInteger, checkPositiveInteger)
	r.Register(ir.ValidatorNonNegativeInteger, checkNonNegativeInteger)
	r.Register(ir.ValidatorIntegerInRange, checkIntegerInRange)
	r.Register(ir.ValidatorStringLength, checkStringLength)
	return r
}

// Register adds or replaces the check for kind.
func (r *Registry) Register(kind ir.ValidatorKind, fn CheckFunc) {
	r.checks[kind] = fn
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []ir.ValidatorKind {
	return slices.Sorted(maps.Keys(r.checks))
}

// Has reports whether kind is registered.
func (r *Registry) Has(kind ir.ValidatorKind) bool {
	_, ok := r.checks[kind]
	return ok
}

// Validate applies spec to value. It returns nil on success and a
// *Violation otherwise, including for unregistered kinds.
func (r *Registry) Validate(spec ir.ValidatorSpec, value ir.Value) error {
	fn, ok := r.checks[spec.Kind]
	if !ok {
		return &Violation{Kind: spec.Kind, Value: value.Text, Reason: "unknown validator kind"}
	}
	if err := fn(spec, value); err != nil {
		v := &Violation{Kind: spec.Kind, Value: value.Text, Reason: err.Error()}
		if spec.Kind == ir.ValidatorEnumeration {
			v.Allowed = slices.Clone(spec.Values)
		}
		return v
	}
	return nil
}

// SpecCheck reports whether spec is well formed for this registry.
func (r *Registry) SpecCheck(spec ir.ValidatorSpec) error {
	if !r.Has(spec.Kind) {
		return fmt.Errorf("unknown validator kind %q", spec.Kind)
	}
	switch spec.Kind {
	case ir.ValidatorEnumeration:
		if len(spec.Values) == 0 {
			return fmt.Errorf("enumeration requires at least one value")
		}
		seen := make(map[string]bool, len(spec.Values))
		for _, v := range spec.Values {
			if seen[v] {
				return fmt.Errorf("enumeration lists %q twice", v)
			}
			seen[v] = true
		}
	case ir.ValidatorIntegerInRange:
		if spec.Min > spec.Max {
			return fmt.Errorf("integer_in_range min %d exceeds max %d", spec.Min, spec.Max)
		}
	case ir.ValidatorStringLength:
		if spec.Min < 0 || spec.Min > spec.Max {
			return fmt.Errorf("string_length bounds [%d, %d] are invalid", spec.Min, spec.Max)
		}
	}
	return nil
}

func checkEnumeration(spec ir.ValidatorSpec, value ir.Value) error {
	if slices.Contains(spec.Values, value.Text) {
		return nil
	}
	return fmt.Errorf("not a member of the enumeration")
}

func parseInt(value ir.Value) (int64, error) {
	n, err := strconv.ParseInt(value.Text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("not a base-10 integer")
	}
	return n, nil
}

func checkPositiveInteger(_ ir.ValidatorSpec, value ir.Value) error {
	n, err := parseInt(value)
	if err != nil {
		return err
	}
	if n <= 0 {
		return fmt.Errorf("must be greater than 0")
	}
	return nil
}

func checkNonNegativeInteger(_ ir.ValidatorSpec, value ir.Value) error {
	n, err := parseInt(value)
	if err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

func checkIntegerInRange(spec ir.ValidatorSpec, value ir.Value) error {
	n, err := parseInt(value)
	if err != nil {
		return err
	}
	if n < spec.Min || n > spec.Max {
		return fmt.Errorf("must be in range [%d, %d]", spec.Min, spec.Max)
	}
	return nil
}

func checkStringLength(spec ir.ValidatorSpec, value ir.Value) error {
	n := int64(utf8.RuneCountInString(value.Text))
	if n < spec.Min || n > spec.Max {
		return fmt.Errorf("length %d not in [%d, %d]", n, spec.Min, spec.Max)
	}
	return nil
}

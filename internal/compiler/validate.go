package compiler

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/roach88/confgate/internal/ir"
	"github.com/roach88/confgate/internal/predicate"
	"github.com/roach88/confgate/internal/validator"
)

// Validation error codes.
const (
	// Schema structure errors (E101-E119)
	ErrEmptyCrate        = "E101" // crate is required
	ErrEmptyOptionName   = "E102" // option name is required
	ErrInvalidOptionName = "E103" // option name has invalid characters
	ErrDuplicateOption   = "E104" // duplicate option name
	ErrInvalidStability  = "E106" // stability is not stable/unstable
	ErrInvalidValidator  = "E107" // malformed or unknown validator spec
	ErrInvalidValue      = "E108" // value is not bool/integer/string
	ErrFloatForbidden    = "E109" // float values not allowed
	ErrInvalidPrefix     = "E110" // env prefix has invalid characters
	ErrDuplicateEnvName  = "E111" // two options map to the same env variable

	// Predicate errors (E201-E209)
	ErrUnknownPredicateFunction = "E201" // unknown function or wrong arity
	ErrPredicateSyntax          = "E202" // not part of the predicate grammar

	// Warnings (W101-W199) never fail validation on their own.
	WarnNoCatchAll        = "W101" // last default rule is conditional
	WarnDefaultNotAllowed = "W102" // unconditional enumeration excludes a default value
	WarnNoDefaults        = "W103" // option resolves only through an override
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// IsWarning reports whether the finding is advisory.
func (e ValidationError) IsWarning() bool {
	return strings.HasPrefix(e.Code, "W")
}

// HasErrors reports whether any finding is not a warning.
func HasErrors(errs []ValidationError) bool {
	return slices.ContainsFunc(errs, func(e ValidationError) bool { return !e.IsWarning() })
}

var (
	optionNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
	prefixPattern     = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
)

// Validate validates a compiled schema.
// Returns all errors found (does not fail-fast). A nil registry means
// validator.Default().
func Validate(s *ir.Schema, reg *validator.Registry) []ValidationError {
	if reg == nil {
		reg = validator.Default()
	}
	var errs []ValidationError

	// E101: crate is required
	if strings.TrimSpace(s.Crate) == "" {
		errs = append(errs, ValidationError{
			Field:   "crate",
			Message: "crate is required and must be non-empty",
			Code:    ErrEmptyCrate,
		})
	}

	// E110: prefix must be a valid env identifier
	if s.Prefix != "" && !prefixPattern.MatchString(s.Prefix) {
		errs = append(errs, ValidationError{
			Field:   "prefix",
			Message: fmt.Sprintf("prefix %q must match %s", s.Prefix, prefixPattern),
			Code:    ErrInvalidPrefix,
		})
	}

	names := make(map[string]bool)
	envNames := make(map[string]string)

	for i := range s.Options {
		opt := &s.Options[i]
		field := fmt.Sprintf("options[%d]", i)

		switch {
		case opt.Name == "":
			// E102
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: "option name is required",
				Code:    ErrEmptyOptionName,
			})
		case !optionNamePattern.MatchString(opt.Name):
			// E103
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("option name %q must match %s", opt.Name, optionNamePattern),
				Code:    ErrInvalidOptionName,
			})
		case names[opt.Name]:
			// E104
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate option name: %q", opt.Name),
				Code:    ErrDuplicateOption,
			})
		default:
			// E111: "a-b" and "a_b" collide in the environment
			env := ir.EnvName(s.Prefix, opt.Name)
			if other, ok := envNames[env]; ok {
				errs = append(errs, ValidationError{
					Field:   field + ".name",
					Message: fmt.Sprintf("options %q and %q both map to %s", other, opt.Name, env),
					Code:    ErrDuplicateEnvName,
				})
			}
			envNames[env] = opt.Name
		}
		names[opt.Name] = true

		// E106
		if !ir.ValidStabilities[opt.Stability] {
			errs = append(errs, ValidationError{
				Field:   field + ".stability",
				Message: fmt.Sprintf("invalid stability %q, must be \"stable\" or \"unstable\"", opt.Stability),
				Code:    ErrInvalidStability,
			})
		}

		errs = append(errs, validatePredicate(opt.Active, field+".active")...)
		errs = append(errs, validateDefaults(opt, field)...)
		errs = append(errs, validateConstraints(opt, field, reg)...)
	}

	return errs
}

func validateDefaults(opt *ir.Option, field string) []ValidationError {
	var errs []ValidationError

	// W103: without defaults the option fails with NoApplicableDefault
	// unless an override supplies it
	if len(opt.Defaults) == 0 {
		return append(errs, ValidationError{
			Field:   field + ".default",
			Message: fmt.Sprintf("option %q has no default rules; it must be set by an override", opt.Name),
			Code:    WarnNoDefaults,
		})
	}

	for j, d := range opt.Defaults {
		ruleField := fmt.Sprintf("%s.default[%d]", field, j)
		errs = append(errs, validatePredicate(d.When, ruleField+".when")...)
		if d.Value.IsZero() {
			errs = append(errs, ValidationError{
				Field:   ruleField + ".value",
				Message: "default rule has no value",
				Code:    ErrInvalidValue,
			})
		}
	}

	// W101: without a catch-all, some contexts end in NoApplicableDefault
	last := opt.Defaults[len(opt.Defaults)-1]
	if !isAlwaysTrue(last.When) {
		errs = append(errs, ValidationError{
			Field:   fmt.Sprintf("%s.default[%d].when", field, len(opt.Defaults)-1),
			Message: fmt.Sprintf("option %q has no unconditional default; some contexts will fail to resolve", opt.Name),
			Code:    WarnNoCatchAll,
		})
	}

	return errs
}

func validateConstraints(opt *ir.Option, field string, reg *validator.Registry) []ValidationError {
	var errs []ValidationError

	for j, c := range opt.Constraints {
		ruleField := fmt.Sprintf("%s.constraints[%d]", field, j)
		errs = append(errs, validatePredicate(c.When, ruleField+".when")...)

		// E107
		if err := reg.SpecCheck(c.Validator); err != nil {
			errs = append(errs, ValidationError{
				Field:   ruleField + ".validator",
				Message: err.Error(),
				Code:    ErrInvalidValidator,
			})
			continue
		}

		// W102: an unconditional enumeration that rejects a default
		if c.Validator.Kind != ir.ValidatorEnumeration || !isAlwaysTrue(c.When) {
			continue
		}
		for k, d := range opt.Defaults {
			if !d.Value.IsZero() && !slices.Contains(c.Validator.Values, d.Value.Text) {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.default[%d].value", field, k),
					Message: fmt.Sprintf("default %q is not in enumeration %v", d.Value.Text, c.Validator.Values),
					Code:    WarnDefaultNotAllowed,
				})
			}
		}
	}

	return errs
}

// validatePredicate re-checks trees that were built in Go rather than parsed.
func validatePredicate(p ir.Predicate, field string) []ValidationError {
	err := predicate.Check(p)
	if err == nil {
		return nil
	}
	code := ErrPredicateSyntax
	if predicate.IsUnknownFunction(err) {
		code = ErrUnknownPredicateFunction
	}
	return []ValidationError{{Field: field, Message: err.Error(), Code: code}}
}

func isAlwaysTrue(p ir.Predicate) bool {
	if p == nil {
		return true
	}
	lit, ok := p.(ir.Literal)
	return ok && lit.Value
}

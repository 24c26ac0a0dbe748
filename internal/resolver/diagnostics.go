package resolver

import (
	"errors"
	"fmt"

	"github.com/roach88/confgate/internal/ir"
)

// Code categorizes diagnostics.
type Code string

const (
	// CodeNoApplicableDefault: no override and no default rule matched.
	CodeNoApplicableDefault Code = "NoApplicableDefault"

	// CodeConstraintViolation: an applicable constraint rejected the value.
	CodeConstraintViolation Code = "ConstraintViolation"

	// CodeUnstableOption: an unstable option resolved without opt-in.
	CodeUnstableOption Code = "UnstableOption"

	// CodeUnknownOverride: an override names an option the schema lacks.
	CodeUnknownOverride Code = "UnknownOverride"

	// CodeInactiveOverride: an override targets an inactive option.
	CodeInactiveOverride Code = "InactiveOverride"
)

var codeIDs = map[Code]string{
	CodeNoApplicableDefault: "E301",
	CodeConstraintViolation: "E302",
	CodeUnstableOption:      "W301",
	CodeUnknownOverride:     "W302",
	CodeInactiveOverride:    "W303",
}

// ID returns the short diagnostic identifier (E301, W302, ...).
func (c Code) ID() string {
	return codeIDs[c]
}

// Failure is a per-option resolution error. The option is absent from the
// effective configuration.
type Failure struct {
	Code   Code
	Option string

	// Value is the rejected candidate (ConstraintViolation only).
	Value ir.Value

	// Validator is the failing spec (ConstraintViolation only).
	Validator *ir.ValidatorSpec

	// Overridden reports whether Value came from an override.
	Overridden bool

	// Cause is the validator's violation, when there is one.
	Cause error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	switch f.Code {
	case CodeNoApplicableDefault:
		return fmt.Sprintf("[%s] %s: option %q has no applicable default rule and no override", f.Code.ID(), f.Code, f.Option)
	case CodeConstraintViolation:
		src := "default"
		if f.Overridden {
			src = "override"
		}
		msg := fmt.Sprintf("[%s] %s: option %q %s value %q", f.Code.ID(), f.Code, f.Option, src, f.Value.Text)
		if f.Cause != nil {
			msg += ": " + f.Cause.Error()
		}
		return msg
	}
	return fmt.Sprintf("[%s] %s: option %q", f.Code.ID(), f.Code, f.Option)
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

// Warning is advisory; the option (if any) still resolved.
type Warning struct {
	Code    Code
	Option  string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("[%s] %s: %s", w.Code.ID(), w.Code, w.Message)
}

// Diagnostics collects the failures and warnings of one resolution, in
// schema order.
type Diagnostics struct {
	Failures []*Failure
	Warnings []Warning
}

// HasFailures reports whether any option failed to resolve.
func (d *Diagnostics) HasFailures() bool {
	return len(d.Failures) > 0
}

// Err returns all failures joined into one error, or nil.
func (d *Diagnostics) Err() error {
	if len(d.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(d.Failures))
	for i, f := range d.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// FailedOptions maps each failed option to the code of its first failure.
func (d *Diagnostics) FailedOptions() map[string]Code {
	failed := make(map[string]Code, len(d.Failures))
	for _, f := range d.Failures {
		if _, seen := failed[f.Option]; !seen {
			failed[f.Option] = f.Code
		}
	}
	return failed
}

// Codes returns every diagnostic code in order: failures first, then warnings.
func (d *Diagnostics) Codes() []Code {
	codes := make([]Code, 0, len(d.Failures)+len(d.Warnings))
	for _, f := range d.Failures {
		codes = append(codes, f.Code)
	}
	for _, w := range d.Warnings {
		codes = append(codes, w.Code)
	}
	return codes
}

func (d *Diagnostics) fail(f *Failure) {
	d.Failures = append(d.Failures, f)
}

func (d *Diagnostics) warn(code Code, option, format string, args ...any) {
	d.Warnings = append(d.Warnings, Warning{Code: code, Option: option, Message: fmt.Sprintf(format, args...)})
}

// IsFailure reports whether err is (or wraps) a Failure with the given code.
func IsFailure(err error, code Code) bool {
	var f *Failure
	if errors.As(err, &f) {
		return f.Code == code
	}
	return false
}

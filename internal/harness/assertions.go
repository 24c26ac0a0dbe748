package harness

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// AssertionError is returned when an expectation does not hold.
type AssertionError struct {
	Type     string // values | absent | failures | warnings | load_error
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("expectation failed: %s\n  Expected: %s\n  Actual: %s", e.Type, e.Expected, e.Actual)
}

// EvaluateExpectations checks result against exp and returns one message
// per mismatch, in a stable order.
func EvaluateExpectations(exp Expectation, result *Result) []string {
	var errs []string
	add := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	add(assertLoadError(exp, result))
	if result.LoadError != "" {
		return errs
	}

	for _, name := range slices.Sorted(maps.Keys(exp.Values)) {
		add(assertValue(result, name, exp.Values[name]))
	}
	for _, name := range exp.Absent {
		add(assertAbsent(result, name))
	}
	add(assertDiagnostics("failures", exp.Failures, result.failures()))
	add(assertDiagnostics("warnings", exp.Warnings, result.warnings()))
	return errs
}

func assertLoadError(exp Expectation, result *Result) error {
	if exp.LoadError == result.LoadError {
		return nil
	}
	expected, actual := exp.LoadError, result.LoadError
	if expected == "" {
		expected = "schema loads"
	}
	if actual == "" {
		actual = "schema loaded"
	}
	return &AssertionError{Type: "load_error", Expected: expected, Actual: actual}
}

func assertValue(result *Result, name, want string) error {
	if result.Config == nil {
		return &AssertionError{
			Type:     "values",
			Expected: fmt.Sprintf("%s = %q", name, want),
			Actual:   "no configuration (resolution failed)",
		}
	}
	entry, ok := result.Config.Get(name)
	if !ok {
		return &AssertionError{
			Type:     "values",
			Expected: fmt.Sprintf("%s = %q", name, want),
			Actual:   fmt.Sprintf("%s not resolved", name),
		}
	}
	if entry.Value.Text != want {
		return &AssertionError{
			Type:     "values",
			Expected: fmt.Sprintf("%s = %q", name, want),
			Actual:   fmt.Sprintf("%s = %q", name, entry.Value.Text),
		}
	}
	return nil
}

func assertAbsent(result *Result, name string) error {
	if result.Config == nil || !result.Config.Has(name) {
		return nil
	}
	entry, _ := result.Config.Get(name)
	return &AssertionError{
		Type:     "absent",
		Expected: fmt.Sprintf("%s absent", name),
		Actual:   fmt.Sprintf("%s = %q", name, entry.Value.Text),
	}
}

// assertDiagnostics requires an exact, ordered match. An empty Option in
// an expected entry matches any option.
func assertDiagnostics(kind string, want, got []DiagnosticSpec) error {
	match := len(want) == len(got)
	for i := 0; match && i < len(want); i++ {
		match = want[i].Code == got[i].Code && (want[i].Option == "" || want[i].Option == got[i].Option)
	}
	if match {
		return nil
	}
	return &AssertionError{Type: kind, Expected: formatDiagnostics(want), Actual: formatDiagnostics(got)}
}

func formatDiagnostics(ds []DiagnosticSpec) string {
	if len(ds) == 0 {
		return "none"
	}
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = d.String()
	}
	return strings.Join(parts, ", ")
}

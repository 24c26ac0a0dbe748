package harness

import (
	"github.com/roach88/confgate/internal/ir"
	"github.com/roach88/confgate/internal/resolver"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation matched.
	Pass bool `json:"pass"`

	// Config is the effective configuration; nil when loading or any
	// option failed.
	Config *ir.EffectiveConfig `json:"config,omitempty"`

	// Diagnostics of the resolution; nil when the schema did not load.
	Diagnostics *resolver.Diagnostics `json:"-"`

	// LoadError is the schema load error code, "" when the schema loaded.
	LoadError string `json:"load_error,omitempty"`

	// Errors lists expectation mismatches. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError records a mismatch and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// failures returns the failure diagnostics as specs, in order.
func (r *Result) failures() []DiagnosticSpec {
	if r.Diagnostics == nil {
		return nil
	}
	out := make([]DiagnosticSpec, len(r.Diagnostics.Failures))
	for i, f := range r.Diagnostics.Failures {
		out[i] = DiagnosticSpec{Code: string(f.Code), Option: f.Option}
	}
	return out
}

// warnings returns the warning diagnostics as specs, in order.
func (r *Result) warnings() []DiagnosticSpec {
	if r.Diagnostics == nil {
		return nil
	}
	out := make([]DiagnosticSpec, len(r.Diagnostics.Warnings))
	for i, w := range r.Diagnostics.Warnings {
		out[i] = DiagnosticSpec{Code: string(w.Code), Option: w.Option}
	}
	return out
}

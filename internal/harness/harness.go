package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/roach88/confgate/internal/loader"
	"github.com/roach88/confgate/internal/overrides"
	"github.com/roach88/confgate/internal/predicate"
	"github.com/roach88/confgate/internal/resolver"
)

// Harness is the scenario execution engine.
type Harness struct {
	loader   *loader.Loader
	resolver *resolver.Resolver
	logger   *slog.Logger
}

// New creates a harness that logs to logger. A nil logger discards.
func New(logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Harness{
		loader:   &loader.Loader{},
		resolver: resolver.New(resolver.WithLogger(logger)),
		logger:   logger,
	}
}

// Run executes a scenario with a silent harness.
func Run(scenario *Scenario) (*Result, error) {
	return New(nil).Run(scenario)
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Load and compile the schema
//  2. Collect environment and explicit overrides
//  3. Resolve against the scenario context
//  4. Check expectations
//
// A schema that fails to load is an outcome, not an error; the returned
// error covers malformed override input only.
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	result := NewResult()

	loaded, err := h.loader.LoadFile(scenario.Schema)
	if err != nil {
		result.LoadError = loadErrorCode(err)
		h.logger.Debug("schema load failed", "scenario", scenario.Name, "code", result.LoadError, "error", err)
		for _, msg := range EvaluateExpectations(scenario.Expect, result) {
			result.AddError(msg)
		}
		return result, nil
	}
	schema := loaded.Schema

	envSet, unknown := overrides.FromEnviron(schema, scenario.Env)
	for _, name := range unknown {
		h.logger.Warn("environment variable matches no option", "scenario", scenario.Name, "variable", name)
	}

	pairs := make([]string, 0, len(scenario.Overrides))
	for _, name := range slices.Sorted(maps.Keys(scenario.Overrides)) {
		pairs = append(pairs, name+"="+scenario.Overrides[name])
	}
	flagSet, err := overrides.FromAssignments(pairs)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	cfg, diag := h.resolver.Resolve(schema, scenario.Context.Build(), overrides.Merge(envSet, flagSet))
	result.Config = cfg
	result.Diagnostics = diag

	h.logger.Debug("scenario resolved",
		"scenario", scenario.Name,
		"failures", len(diag.Failures),
		"warnings", len(diag.Warnings))

	for _, msg := range EvaluateExpectations(scenario.Expect, result) {
		result.AddError(msg)
	}
	return result, nil
}

// loadErrorCode names a schema load failure. Predicate errors keep their
// own code so scenarios can name the defect rather than the loader stage.
func loadErrorCode(err error) string {
	if predicate.IsUnknownFunction(err) {
		return predicate.CodeUnknownFunction
	}
	var se *predicate.SyntaxError
	if errors.As(err, &se) {
		return predicate.CodeSyntax
	}
	var le *loader.LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return loader.ErrCodeGeneric
}

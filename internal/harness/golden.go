package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/confgate/internal/ir"
)

// Snapshot renders a scenario outcome as canonical JSON:
//
//	{"config": {...}, "failures": [...], "load_error": "...", "scenario": "...", "warnings": [...]}
//
// config is omitted when resolution produced none; load_error only appears
// when the schema failed to load.
func Snapshot(name string, result *Result) ([]byte, error) {
	snap := ir.IRObject{
		"scenario": ir.IRString(name),
		"failures": diagnosticsArray(result.failures()),
		"warnings": diagnosticsArray(result.warnings()),
	}
	if result.Config != nil {
		snap["config"] = result.Config.ToIRObject()
	}
	if result.LoadError != "" {
		snap["load_error"] = ir.IRString(result.LoadError)
	}
	return ir.MarshalCanonical(snap)
}

func diagnosticsArray(ds []DiagnosticSpec) ir.IRArray {
	arr := make(ir.IRArray, len(ds))
	for i, d := range ds {
		arr[i] = ir.IRObject{
			"code":   ir.IRString(d.Code),
			"option": ir.IRString(d.Option),
		}
	}
	return arr
}

// RunWithGolden executes a scenario, fails t on any unmet expectation, and
// compares the snapshot against dir/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, dir string) *Result {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("run scenario %s: %v", scenario.Name, err)
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}

	AssertGolden(t, dir, scenario.Name, result)
	return result
}

// AssertGolden compares result's snapshot against dir/{name}.golden.
func AssertGolden(t *testing.T, dir, name string, result *Result) {
	t.Helper()

	data, err := Snapshot(name, result)
	if err != nil {
		t.Fatalf("snapshot %s: %v", name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(dir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}

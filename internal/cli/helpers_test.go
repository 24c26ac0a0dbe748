package cli

import (
	"bytes"
	"testing"
)

const (
	schemasDir   = "../../testdata/schemas"
	invalidDir   = "../../testdata/invalid"
	scenariosDir = "../../testdata/scenarios"
	embassyYAML  = "../../testdata/schemas/esp_hal_embassy_config.yml"
)

// execute runs the root command with args and captures both streams.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

// withEnviron replaces the process environment seen by resolve.
func withEnviron(t *testing.T, env ...string) {
	t.Helper()
	prev := environ
	environ = func() []string { return env }
	t.Cleanup(func() { environ = prev })
}

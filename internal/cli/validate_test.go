package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateValidDirectory(t *testing.T) {
	stdout, _, err := execute(t, "validate", schemasDir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ 3 schema file(s) valid")
}

func TestValidateInvalidDirectory(t *testing.T) {
	stdout, _, err := execute(t, "validate", invalidDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ Validation failed")
	assert.Contains(t, stdout, "duplicate_option_config.yml")
	assert.Contains(t, stdout, "unknown_field_config.yml")
	assert.Contains(t, stdout, "unknown_function_config.yml")
}

func TestValidateJSON(t *testing.T) {
	stdout, _, err := execute(t, "validate", schemasDir, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 3, resp.Data.Files)
	assert.Empty(t, resp.Data.Errors)
}

func TestValidateJSONFailure(t *testing.T) {
	stdout, _, err := execute(t, "validate", invalidDir, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  CLIError         `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	assert.Equal(t, 3, resp.Data.Files)
	assert.GreaterOrEqual(t, len(resp.Data.Errors), 3)
	assert.Contains(t, resp.Error.Message, "validation failed")
}

func TestValidateStrict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo_config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`crate: demo
options:
  - name: mode
    default:
      - when: 'cargo_feature("fast")'
        value: 1
`), 0o644))

	stdout, stderr, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ 1 schema file(s) valid")
	assert.Contains(t, stderr, "W101")

	stdout, _, err = execute(t, "validate", path, "--strict")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "W101")
}

func TestValidateMissingPath(t *testing.T) {
	stdout, _, err := execute(t, "validate", "does/not/exist")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "[E005]")
}

func TestValidateInvalidFile(t *testing.T) {
	stdout, _, err := execute(t, "validate", "../../testdata/invalid/duplicate_option_config.yml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ Validation failed")
}

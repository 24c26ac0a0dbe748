package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEmitsJSON(t *testing.T) {
	withEnviron(t)

	stdout, stderr, err := execute(t, "resolve", embassyYAML, "--feature", "executors")
	require.NoError(t, err)

	golden, err := os.ReadFile("../emit/testdata/golden/embassy_executors.json.golden")
	require.NoError(t, err)
	assert.Equal(t, string(golden), stdout)
	assert.Contains(t, stderr, "esp-hal-embassy: [W301] UnstableOption")
	assert.Contains(t, stderr, `option "timer-queue" is unstable`)
}

func TestResolveAllowUnstableSilencesWarning(t *testing.T) {
	withEnviron(t)

	_, stderr, err := execute(t, "resolve", embassyYAML, "--feature", "executors", "--allow-unstable")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "UnstableOption")
}

func TestResolveEmitEnvWithSet(t *testing.T) {
	withEnviron(t)

	stdout, _, err := execute(t, "resolve", embassyYAML,
		"--feature", "executors", "--allow-unstable", "--emit", "env", "--set", "generic-queue-size=128")
	require.NoError(t, err)
	assert.Contains(t, stdout, "ESP_HAL_EMBASSY_CONFIG_GENERIC_QUEUE_SIZE=128\n")
	assert.Contains(t, stdout, "ESP_HAL_EMBASSY_CONFIG_TIMER_QUEUE=single-integrated\n")
	assert.Contains(t, stdout, "ESP_HAL_EMBASSY_CONFIG_LOW_POWER_WAIT=true\n")
}

func TestResolveConstraintViolation(t *testing.T) {
	withEnviron(t)

	stdout, stderr, err := execute(t, "resolve", embassyYAML,
		"--feature", "executors", "--allow-unstable", "--set", "generic-queue-size=0")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "ConstraintViolation")
	assert.Contains(t, stderr, "generic-queue-size")
	assert.Contains(t, stderr, "1 schema(s) failed to resolve")
}

func TestResolveJSONFormat(t *testing.T) {
	withEnviron(t)

	stdout, _, err := execute(t, "resolve", embassyYAML, "--feature", "executors", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   []ResolvedSchema `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 1)

	got := resp.Data[0]
	assert.Equal(t, "esp-hal-embassy", got.Crate)
	assert.Len(t, got.Fingerprint, 64)
	assert.NotEmpty(t, got.ConfigID)
	assert.NotNil(t, got.Config)
	assert.Empty(t, got.Failures)
	require.Len(t, got.Warnings, 1)
	assert.Equal(t, "UnstableOption", got.Warnings[0].Code)
	assert.Equal(t, "W301", got.Warnings[0].ID)
	assert.Equal(t, "timer-queue", got.Warnings[0].Option)
}

func TestResolveJSONFormatFailure(t *testing.T) {
	withEnviron(t)

	stdout, _, err := execute(t, "resolve", embassyYAML,
		"--feature", "executors", "--set", "generic-queue-size=0", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   []ResolvedSchema `json:"data"`
		Error  CLIError         `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeResolveFailed, resp.Error.Code)
	require.Len(t, resp.Data, 1)
	assert.Nil(t, resp.Data[0].Config)
	assert.Empty(t, resp.Data[0].Fingerprint)
	require.Len(t, resp.Data[0].Failures, 1)
	assert.Equal(t, "ConstraintViolation", resp.Data[0].Failures[0].Code)
}

func TestResolveDirectory(t *testing.T) {
	withEnviron(t)

	stdout, _, err := execute(t, "resolve", schemasDir,
		"--feature", "executors,wifi", "--allow-unstable", "--emit", "env")
	require.NoError(t, err)
	assert.Contains(t, stdout, "ESP_HAL_CONFIG_STACK_GUARD_OFFSET=4096\n")
	assert.Contains(t, stdout, "ESP_HAL_EMBASSY_CONFIG_TIMER_QUEUE=single-integrated\n")
	assert.Contains(t, stdout, "ESP_WIFI_CONFIG_RX_QUEUE_SIZE=5\n")
	assert.Contains(t, stdout, "ESP_WIFI_CONFIG_COUNTRY_CODE=CN\n")
}

func TestResolveGoNeedsSingleSchema(t *testing.T) {
	withEnviron(t)

	stdout, _, err := execute(t, "resolve", schemasDir, "--emit", "go")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "--emit go needs a single schema")
}

func TestResolveEmitGo(t *testing.T) {
	withEnviron(t)

	stdout, _, err := execute(t, "resolve", embassyYAML,
		"--feature", "executors", "--allow-unstable", "--emit", "go", "--package", "esphalembassy")
	require.NoError(t, err)

	golden, err := os.ReadFile("../emit/testdata/golden/embassy_executors.go.golden")
	require.NoError(t, err)
	assert.Equal(t, string(golden), stdout)
}

func TestResolveEnvironmentOverrides(t *testing.T) {
	withEnviron(t,
		"ESP_HAL_EMBASSY_CONFIG_GENERIC_QUEUE_SIZE=256",
		"ESP_HAL_EMBASSY_CONFIG_QUEUE_DEPTH=3",
		"HOME=/root",
	)

	stdout, stderr, err := execute(t, "resolve", embassyYAML, "--feature", "executors", "--allow-unstable", "--emit", "env")
	require.NoError(t, err)
	assert.Contains(t, stdout, "ESP_HAL_EMBASSY_CONFIG_GENERIC_QUEUE_SIZE=256\n")
	assert.Contains(t, stderr, "ESP_HAL_EMBASSY_CONFIG_QUEUE_DEPTH matches no option of esp-hal-embassy")
	assert.NotContains(t, stderr, "HOME")
}

func TestResolveOverridePrecedence(t *testing.T) {
	withEnviron(t, "ESP_HAL_EMBASSY_CONFIG_GENERIC_QUEUE_SIZE=256")

	file := filepath.Join(t.TempDir(), "overrides.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`esp-hal-embassy:
  generic-queue-size: 32
  low-power-wait: false
`), 0o644))

	stdout, _, err := execute(t, "resolve", embassyYAML,
		"--feature", "executors", "--allow-unstable", "--emit", "env",
		"--overrides", file, "--set", "generic-queue-size=16")
	require.NoError(t, err)
	assert.Contains(t, stdout, "ESP_HAL_EMBASSY_CONFIG_GENERIC_QUEUE_SIZE=16\n")
	assert.Contains(t, stdout, "ESP_HAL_EMBASSY_CONFIG_LOW_POWER_WAIT=false\n")

	stdout, _, err = execute(t, "resolve", embassyYAML,
		"--feature", "executors", "--allow-unstable", "--emit", "env", "--overrides", file)
	require.NoError(t, err)
	assert.Contains(t, stdout, "ESP_HAL_EMBASSY_CONFIG_GENERIC_QUEUE_SIZE=32\n")
}

func TestResolveMalformedSet(t *testing.T) {
	withEnviron(t)

	stdout, _, err := execute(t, "resolve", embassyYAML, "--set", "generic-queue-size")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E001]")
}

func TestResolveOutputFile(t *testing.T) {
	withEnviron(t)
	out := filepath.Join(t.TempDir(), "config.env")

	stdout, _, err := execute(t, "resolve", embassyYAML,
		"--feature", "executors", "--allow-unstable", "--emit", "env", "-o", out)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ESP_HAL_EMBASSY_CONFIG_TIMER_QUEUE=single-integrated\n")
}

func TestResolveMissingPath(t *testing.T) {
	withEnviron(t)

	stdout, _, err := execute(t, "resolve", "does/not/exist.yml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "[E005]")
}

func TestResolveInvalidEmit(t *testing.T) {
	withEnviron(t)

	_, _, err := execute(t, "resolve", embassyYAML, "--emit", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestResolveOptionWithoutDefaults(t *testing.T) {
	withEnviron(t)
	path := filepath.Join(t.TempDir(), "board_config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`crate: board
options:
  - name: board-id
  - name: log-level
    default:
      - value: info
`), 0o644))

	_, stderr, err := execute(t, "resolve", path, "--emit", "env")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stderr, "NoApplicableDefault")

	stdout, _, err := execute(t, "resolve", path, "--emit", "env", "--set", "board-id=7")
	require.NoError(t, err)
	assert.Contains(t, stdout, "BOARD_CONFIG_BOARD_ID=7\n")
	assert.Contains(t, stdout, "BOARD_CONFIG_LOG_LEVEL=info\n")
}

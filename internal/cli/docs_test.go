package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocsMarkdown(t *testing.T) {
	stdout, _, err := execute(t, "docs", embassyYAML)
	require.NoError(t, err)

	golden, err := os.ReadFile("../emit/testdata/golden/embassy_docs.md.golden")
	require.NoError(t, err)
	assert.Equal(t, string(golden), stdout)
}

func TestDocsIgnoresOverrides(t *testing.T) {
	withEnviron(t, "ESP_HAL_EMBASSY_CONFIG_GENERIC_QUEUE_SIZE=256")

	stdout, _, err := execute(t, "docs", embassyYAML)
	require.NoError(t, err)
	assert.Contains(t, stdout, "`64`")
	assert.NotContains(t, stdout, "256")
}

func TestDocsDirectory(t *testing.T) {
	stdout, _, err := execute(t, "docs", schemasDir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "# esp-hal configuration")
	assert.Contains(t, stdout, "# esp-hal-embassy configuration")
	assert.Contains(t, stdout, "# esp-wifi configuration")
}

func TestDocsRender(t *testing.T) {
	stdout, _, err := execute(t, "docs", embassyYAML, "--render", "--style", "notty", "--width", "200")
	require.NoError(t, err)
	assert.Contains(t, stdout, "esp-hal-embassy configuration")
	assert.NotContains(t, stdout, "|--------|")
}

func TestDocsJSON(t *testing.T) {
	stdout, _, err := execute(t, "docs", embassyYAML, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Contains(t, resp.Data["markdown"], "| `timer-queue`")
}

func TestDocsOutputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "CONFIG.md")

	stdout, stderr, err := execute(t, "docs", embassyYAML, "-o", out)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "wrote "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# esp-hal-embassy configuration")
}

func TestDocsShowsHealthyOptionsNextToFailures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo_config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`crate: demo
options:
  - name: a
    default:
      - value: 1
  - name: b
    default:
      - when: 'cargo_feature("x")'
        value: 2
`), 0o644))

	stdout, stderr, err := execute(t, "docs", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "| `a`<br>`DEMO_CONFIG_A` | stable | `1` |")
	assert.Contains(t, stdout, "| `b`<br>`DEMO_CONFIG_B` | stable | *error: NoApplicableDefault* |")
	assert.NotContains(t, stdout, "*inactive*")
	assert.Contains(t, stderr, "NoApplicableDefault")
}

func TestDocsOptionWithoutDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board_config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`crate: board
options:
  - name: board-id
  - name: log-level
    default:
      - value: info
`), 0o644))

	stdout, _, err := execute(t, "docs", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "*error: NoApplicableDefault*")
	assert.Contains(t, stdout, "`info`")
}

package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/confgate/internal/ir"
	"github.com/roach88/confgate/internal/loader"
)

// The Go fixture and the YAML fixture must describe the same schema.
func TestEmbassySchemaMatchesYAMLFixture(t *testing.T) {
	fromFile, err := loader.LoadFile(filepath.Join("..", "..", "testdata", "schemas", "esp_hal_embassy_config.yml"))
	require.NoError(t, err)

	want, err := ir.SchemaHash(EmbassySchema())
	require.NoError(t, err)
	got, err := ir.SchemaHash(fromFile)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEmbassySchemaIsFresh(t *testing.T) {
	a := EmbassySchema()
	a.Options[0].Name = "mutated"
	assert.Equal(t, LowPowerWait, EmbassySchema().Options[0].Name)
}

func TestDocsContext(t *testing.T) {
	ctx := DocsContext()
	assert.True(t, ctx.IgnoreFeatureGates)
	assert.Empty(t, ctx.Features)
}

package emit

import (
	"go/parser"
	"go/token"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/confgate/internal/ir"
	"github.com/roach88/confgate/internal/resolver"
	"github.com/roach88/confgate/internal/testutil"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func resolveEmbassy(t *testing.T, ctx ir.Context) (*ir.Schema, *ir.EffectiveConfig) {
	t.Helper()
	schema := testutil.EmbassySchema()
	cfg, diag := resolver.Resolve(schema, ctx, nil)
	require.NoError(t, diag.Err())
	return schema, cfg
}

func TestJSONGolden(t *testing.T) {
	_, cfg := resolveEmbassy(t, ir.NewContext("executors"))
	data, err := JSON(cfg)
	require.NoError(t, err)
	newGoldie(t).Assert(t, "embassy_executors.json", data)
}

func TestEnvGolden(t *testing.T) {
	schema, cfg := resolveEmbassy(t, ir.NewContext("executors"))
	newGoldie(t).Assert(t, "embassy_executors.env", Env(cfg, schema.Prefix))
}

func TestGoConstantsGolden(t *testing.T) {
	_, cfg := resolveEmbassy(t, ir.NewContext("executors"))
	src, err := GoConstants(cfg, "esphalembassy")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "embassy_executors.go", src)

	_, err = parser.ParseFile(token.NewFileSet(), "config.go", src, parser.AllErrors)
	assert.NoError(t, err)
}

func TestMarkdownGolden(t *testing.T) {
	schema, cfg := resolveEmbassy(t, testutil.DocsContext())
	newGoldie(t).Assert(t, "embassy_docs.md", Markdown(schema, cfg, nil))
}

func TestMarkdownInactiveAndEscaping(t *testing.T) {
	schema := &ir.Schema{Crate: "c", Prefix: "C", Options: []ir.Option{{
		Name:        "x",
		Stability:   ir.Unstable,
		Description: "multi\nline | piped",
		Active:      ir.Feature("never"),
		Defaults:    []ir.DefaultRule{{When: ir.True, Value: ir.IntValue(1)}},
		Constraints: []ir.ConstraintRule{{
			When:      ir.Or{L: ir.Feature("a"), R: ir.Feature("b")},
			Validator: ir.ValidatorSpec{Kind: ir.ValidatorIntegerInRange, Min: 1, Max: 4},
		}},
	}}}
	cfg, diag := resolver.Resolve(schema, ir.NewContext(), nil)
	require.NoError(t, diag.Err())

	md := string(Markdown(schema, cfg, nil))
	assert.Contains(t, md, "*inactive*")
	assert.Contains(t, md, `multi line \| piped`)
	assert.Contains(t, md, "integer in 1..=4 when `cargo_feature(\"a\") \\|\\| cargo_feature(\"b\")`")
}

func TestMarkdownFailedOption(t *testing.T) {
	schema := &ir.Schema{Crate: "c", Prefix: "C", Options: []ir.Option{
		{Name: "a", Stability: ir.Stable, Defaults: []ir.DefaultRule{{When: ir.True, Value: ir.IntValue(1)}}},
		{Name: "b", Stability: ir.Stable, Defaults: []ir.DefaultRule{{When: ir.Feature("x"), Value: ir.IntValue(2)}}},
	}}
	cfg, diag := resolver.New().ResolvePartial(schema, ir.NewContext().WithIgnoreFeatureGates(true), nil)
	require.Len(t, diag.Failures, 1)

	md := string(Markdown(schema, cfg, map[string]string{"b": "NoApplicableDefault"}))
	assert.Contains(t, md, "| `a`<br>`C_A` | stable | `1` |")
	assert.Contains(t, md, "| `b`<br>`C_B` | stable | *error: NoApplicableDefault* |")
	assert.NotContains(t, md, "*inactive*")
}

func TestEnvKeepsValuesVerbatim(t *testing.T) {
	cfg := &ir.EffectiveConfig{Crate: "c", Entries: []ir.Entry{
		{Name: "size", Value: ir.ParseValue("0128")},
	}}
	assert.Equal(t, "C_SIZE=0128\n", string(Env(cfg, "C")))
}

func TestGoConstantsEdgeCases(t *testing.T) {
	cfg := &ir.EffectiveConfig{Crate: "c", Entries: []ir.Entry{
		{Name: "2fast", Value: ir.StringValue(`quote " and \ slash`), Stability: ir.Stable},
		{Name: "huge", Value: ir.Value{Kind: ir.KindInteger, Text: "99999999999999999999"}, Stability: ir.Stable},
	}}
	src, err := GoConstants(cfg, "cfg")
	require.NoError(t, err)
	assert.Contains(t, string(src), `const Option2fast string = "quote \" and \\ slash"`)
	assert.Contains(t, string(src), `const Huge string = "99999999999999999999"`)

	_, err = GoConstants(cfg, "not-a-package")
	assert.Error(t, err)

	clash := &ir.EffectiveConfig{Crate: "c", Entries: []ir.Entry{
		{Name: "a-b", Value: ir.IntValue(1)},
		{Name: "a_b", Value: ir.IntValue(2)},
	}}
	_, err = GoConstants(clash, "cfg")
	assert.ErrorContains(t, err, "AB")
}

func TestGoIdentifier(t *testing.T) {
	tests := map[string]string{
		"low-power-wait":     "LowPowerWait",
		"generic_queue_size": "GenericQueueSize",
		"x":                  "X",
		"9lives":             "Option9lives",
		"--":                 "Option",
	}
	for in, want := range tests {
		assert.Equal(t, want, GoIdentifier(in), in)
	}
}

func TestFeatures(t *testing.T) {
	assert.Equal(t, []string{"executors"}, Features(testutil.EmbassySchema()))
}

func TestRenderTerminal(t *testing.T) {
	schema, cfg := resolveEmbassy(t, testutil.DocsContext())
	out, err := RenderTerminal(Markdown(schema, cfg, nil), RenderOptions{Width: 120, Style: "notty"})
	require.NoError(t, err)
	assert.Contains(t, out, "esp-hal-embassy configuration")
}

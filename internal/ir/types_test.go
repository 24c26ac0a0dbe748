package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContextNormalizesFeatures(t *testing.T) {
	ctx := NewContext("executors", "", "defmt", "executors")
	assert.Equal(t, []string{"defmt", "executors"}, ctx.Features)
	assert.True(t, ctx.HasFeature("executors"))
	assert.False(t, ctx.HasFeature("log"))
}

func TestHasFeatureUnsortedFeatures(t *testing.T) {
	literal := Context{Features: []string{"wifi", "executors", "ble"}}
	assert.True(t, literal.HasFeature("executors"))
	assert.True(t, literal.HasFeature("ble"))
	assert.False(t, literal.HasFeature("defmt"))

	var decoded Context
	require.NoError(t, json.Unmarshal([]byte(`{"features":["z","a","m"]}`), &decoded))
	assert.True(t, decoded.HasFeature("a"))
	assert.True(t, decoded.HasFeature("z"))
}

func TestContextWithDoesNotAlias(t *testing.T) {
	base := NewContext("a")
	docs := base.WithIgnoreFeatureGates(true).WithAllowUnstable(true)

	assert.False(t, base.IgnoreFeatureGates)
	assert.False(t, base.AllowUnstable)
	assert.True(t, docs.IgnoreFeatureGates)
	assert.True(t, docs.AllowUnstable)

	docs.Features[0] = "mutated"
	assert.Equal(t, "a", base.Features[0])
}

func TestSchemaLookup(t *testing.T) {
	s := &Schema{Options: []Option{{Name: "a"}, {Name: "b"}}}

	opt, ok := s.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, "b", opt.Name)

	_, ok = s.Lookup("c")
	assert.False(t, ok)
}

func TestPredicateString(t *testing.T) {
	tests := []struct {
		name string
		pred Predicate
		want string
	}{
		{"nil", nil, "true"},
		{"literal", Literal{Value: false}, "false"},
		{"feature", Feature("executors"), `cargo_feature("executors")`},
		{"gates", IgnoreFeatureGates(), "ignore_feature_gates()"},
		{"not", Not{X: Feature("a")}, `!cargo_feature("a")`},
		{"and", And{L: Feature("a"), R: Feature("b")}, `cargo_feature("a") && cargo_feature("b")`},
		{
			"or inside and",
			And{L: Or{L: Feature("a"), R: Feature("b")}, R: Feature("c")},
			`(cargo_feature("a") || cargo_feature("b")) && cargo_feature("c")`,
		},
		{
			"and inside or",
			Or{L: And{L: Feature("a"), R: Feature("b")}, R: Feature("c")},
			`cargo_feature("a") && cargo_feature("b") || cargo_feature("c")`,
		},
		{"not of and", Not{X: And{L: Feature("a"), R: Feature("b")}}, `!(cargo_feature("a") && cargo_feature("b"))`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PredicateString(tt.pred))
		})
	}
}

func TestPredicateMarshalJSON(t *testing.T) {
	data, err := json.Marshal(DefaultRule{When: Feature("executors"), Value: StringValue("generic")})
	require.NoError(t, err)
	assert.Equal(t, `{"when":"cargo_feature(\"executors\")","value":"generic"}`, string(data))
}

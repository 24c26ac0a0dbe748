package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/confgate/internal/ir"
)

func TestScanPolicies(t *testing.T) {
	rules := []ir.DefaultRule{
		{When: ir.Feature("a"), Value: ir.IntValue(1)},
		{When: ir.Feature("b"), Value: ir.IntValue(2)},
		{When: ir.Feature("a"), Value: ir.IntValue(3)},
		{When: ir.True, Value: ir.IntValue(4)},
	}
	ctx := ir.NewContext("a")

	first := scan(rules, ctx, FirstMatch)
	assert.Equal(t, []ir.DefaultRule{rules[0]}, first)

	all := scan(rules, ctx, AllMatch)
	assert.Equal(t, []ir.DefaultRule{rules[0], rules[2], rules[3]}, all, "declaration order, duplicates kept")

	assert.Empty(t, scan([]ir.ConstraintRule{{When: ir.Literal{Value: false}}}, ctx, AllMatch))
	assert.Empty(t, scan[ir.DefaultRule](nil, ctx, FirstMatch))
}

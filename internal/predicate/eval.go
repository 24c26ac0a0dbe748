package predicate

import (
	"slices"

	"github.com/roach88/confgate/internal/ir"
)

// Evaluate reports whether p holds in ctx. A nil predicate is true.
//
// Evaluate is pure: it reads only ctx. Trees that passed Parse or Check
// always evaluate; a call that slipped through unchecked evaluates false.
func Evaluate(p ir.Predicate, ctx ir.Context) bool {
	switch x := p.(type) {
	case nil:
		return true
	case ir.Literal:
		return x.Value
	case ir.Call:
		switch x.Func {
		case ir.FuncCargoFeature:
			return len(x.Args) == 1 && ctx.HasFeature(x.Args[0])
		case ir.FuncIgnoreFeatureGates:
			return ctx.IgnoreFeatureGates
		}
		return false
	case ir.Not:
		return !Evaluate(x.X, ctx)
	case ir.And:
		return Evaluate(x.L, ctx) && Evaluate(x.R, ctx)
	case ir.Or:
		return Evaluate(x.L, ctx) || Evaluate(x.R, ctx)
	}
	return false
}

// Features returns the sorted, unique feature names p references.
func Features(p ir.Predicate) []string {
	var out []string
	walk(p, func(c ir.Call) {
		if c.Func == ir.FuncCargoFeature && len(c.Args) == 1 {
			out = append(out, c.Args[0])
		}
	})
	slices.Sort(out)
	return slices.Compact(out)
}

// UsesFeatureGates reports whether p calls ignore_feature_gates().
func UsesFeatureGates(p ir.Predicate) bool {
	found := false
	walk(p, func(c ir.Call) {
		if c.Func == ir.FuncIgnoreFeatureGates {
			found = true
		}
	})
	return found
}

func walk(p ir.Predicate, visit func(ir.Call)) {
	switch x := p.(type) {
	case ir.Call:
		visit(x)
	case ir.Not:
		walk(x.X, visit)
	case ir.And:
		walk(x.L, visit)
		walk(x.R, visit)
	case ir.Or:
		walk(x.L, visit)
		walk(x.R, visit)
	}
}

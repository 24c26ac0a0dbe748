package resolver

import (
	"github.com/roach88/confgate/internal/ir"
	"github.com/roach88/confgate/internal/predicate"
)

// Policy selects how scan combines rules whose predicates are true.
type Policy int

const (
	// FirstMatch stops at the first true rule (default rules).
	FirstMatch Policy = iota
	// AllMatch returns every true rule in order (constraint rules).
	AllMatch
)

// conditional is any rule guarded by a predicate.
type conditional interface {
	Condition() ir.Predicate
}

// scan returns the rules whose condition holds in ctx, in declaration order.
// Rules are never reordered or deduplicated.
func scan[R conditional](rules []R, ctx ir.Context, policy Policy) []R {
	var matched []R
	for _, r := range rules {
		if !predicate.Evaluate(r.Condition(), ctx) {
			continue
		}
		matched = append(matched, r)
		if policy == FirstMatch {
			break
		}
	}
	return matched
}

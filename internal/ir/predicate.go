package ir

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Predicate function names understood by the evaluator.
const (
	FuncCargoFeature       = "cargo_feature"
	FuncIgnoreFeatureGates = "ignore_feature_gates"
)

// Predicate is a sealed boolean expression tree over the build context.
// Only Literal, Call, And, Or and Not implement it.
type Predicate interface {
	predicate() // Sealed
	String() string
}

// Literal is the constant true or false.
type Literal struct {
	Value bool
}

// Call invokes a context function, e.g. cargo_feature("executors").
type Call struct {
	Func string
	Args []string
}

// And is logical conjunction.
type And struct {
	L, R Predicate
}

// Or is logical disjunction.
type Or struct {
	L, R Predicate
}

// Not is logical negation.
type Not struct {
	X Predicate
}

func (Literal) predicate() {}
func (Call) predicate()    {}
func (And) predicate()     {}
func (Or) predicate()      {}
func (Not) predicate()     {}

// True is the always-true predicate used for absent conditions.
var True Predicate = Literal{Value: true}

// Feature is shorthand for cargo_feature(name).
func Feature(name string) Predicate {
	return Call{Func: FuncCargoFeature, Args: []string{name}}
}

// IgnoreFeatureGates is shorthand for ignore_feature_gates().
func IgnoreFeatureGates() Predicate {
	return Call{Func: FuncIgnoreFeatureGates}
}

func (p Literal) String() string {
	return strconv.FormatBool(p.Value)
}

func (p Call) String() string {
	args := make([]string, len(p.Args))
	for i, a := range p.Args {
		args[i] = strconv.Quote(a)
	}
	return p.Func + "(" + strings.Join(args, ", ") + ")"
}

func (p And) String() string {
	return wrap(p.L, 2) + " && " + wrap(p.R, 2)
}

func (p Or) String() string {
	return wrap(p.L, 1) + " || " + wrap(p.R, 1)
}

func (p Not) String() string {
	return "!" + wrap(p.X, 3)
}

// precedence: || = 1, && = 2, ! = 3, atoms = 4.
func precedence(p Predicate) int {
	switch p.(type) {
	case Or:
		return 1
	case And:
		return 2
	case Not:
		return 3
	default:
		return 4
	}
}

// wrap parenthesizes p when its precedence is lower than the surrounding operator.
func wrap(p Predicate, min int) string {
	s := PredicateString(p)
	if precedence(p) < min {
		return "(" + s + ")"
	}
	return s
}

// PredicateString renders p as source text; nil renders as "true".
func PredicateString(p Predicate) string {
	if p == nil {
		return "true"
	}
	return p.String()
}

func (p Literal) MarshalJSON() ([]byte, error) { return json.Marshal(p.String()) }
func (p Call) MarshalJSON() ([]byte, error)    { return json.Marshal(p.String()) }
func (p And) MarshalJSON() ([]byte, error)     { return json.Marshal(p.String()) }
func (p Or) MarshalJSON() ([]byte, error)      { return json.Marshal(p.String()) }
func (p Not) MarshalJSON() ([]byte, error)     { return json.Marshal(p.String()) }

// Package predicate parses and evaluates activation, default and constraint
// conditions.
//
// The grammar is small and closed:
//
//	expr  := or
//	or    := and ("||" and)*
//	and   := unary ("&&" unary)*
//	unary := "!" unary | atom
//	atom  := "true" | "false" | call | "(" expr ")"
//	call  := "cargo_feature" "(" string ")" | "ignore_feature_gates" "(" ")"
//
// Parsing and evaluation are separate passes. Parse turns source text into an
// ir.Predicate tree, Evaluate walks a tree against an ir.Context. Trees can
// be built directly in Go (ir.Feature, ir.And, ...) and evaluated without any
// textual form.
//
// Source text is tokenized by the CUE expression parser; its AST is then
// narrowed to the node kinds listed above. Anything else is rejected when the
// schema is loaded, never during resolution.
package predicate

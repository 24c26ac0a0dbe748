// Package resolver turns a compiled schema plus a build context into an
// effective configuration.
//
// Each option is resolved independently and in schema order:
//
//  1. Activation: an option whose activation predicate is false is skipped
//     entirely. It never appears in the output and cannot fail.
//  2. Value: an override is used verbatim; otherwise the first default rule
//     whose predicate is true supplies the value (FirstMatch).
//  3. Constraints: every constraint rule whose predicate is true must accept
//     the value (AllMatch).
//  4. Stability: unstable options resolve normally and are tagged; a warning
//     is emitted unless the context opts in to unstable options.
//
// Failures of one option never stop the others. All failures and warnings are
// returned together in a Diagnostics value. Resolution is a pure function of
// its inputs: no I/O, no shared mutable state, byte-identical results for
// identical inputs.
package resolver

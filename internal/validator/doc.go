// Package validator checks resolved option values against value-shape rules.
//
// A Registry maps each ir.ValidatorKind to a CheckFunc. Default returns a
// registry with the built-in kinds; callers add kinds with Register without
// touching the resolver. Checks are pure functions of (spec, value).
package validator

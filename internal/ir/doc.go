// Package ir provides the in-memory representation of configuration schemas,
// build contexts and resolved configurations for confgate.
//
// This package contains type definitions and serialization only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Option, rule and predicate slices keep declaration order; nothing reorders them
//   - NO float types anywhere - option values are bool, integer or string
//   - Values keep their verbatim text so overrides round-trip exactly
//   - Canonical JSON (RFC 8785) is the only serialization used for hashing
//   - All JSON tags use snake_case
package ir

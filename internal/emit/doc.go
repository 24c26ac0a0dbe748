// Package emit renders an effective configuration for downstream consumers:
// canonical JSON for tooling, environment assignments and Go constants for
// builds, and a Markdown options table for documentation.
//
// Every emitter is deterministic: entries appear in schema order and the
// output depends only on the configuration (and schema, for Markdown).
package emit

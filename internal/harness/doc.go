// Package harness runs configuration conformance scenarios.
//
// A scenario is a YAML file naming a schema, a resolution context, optional
// overrides and the expected outcome: resolved values, absent options,
// failure and warning codes, or a schema load error. Run loads the schema,
// resolves it exactly as the resolve command does, and checks every
// expectation. Snapshot renders the outcome as canonical JSON for golden
// comparison, so any behavioral drift shows up as a byte diff.
//
// Example scenario:
//
//	name: executors-integrated-queue
//	description: The executors feature selects the integrated timer queue.
//	schema: esp_hal_embassy_config.yml
//	context:
//	  features: [executors]
//	expect:
//	  values:
//	    timer-queue: single-integrated
//	  warnings:
//	    - code: UnstableOption
//	      option: timer-queue
package harness

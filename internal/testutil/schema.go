// Package testutil provides fixture schemas and contexts for tests.
//
// The fixtures mirror testdata/schemas/esp_hal_embassy_config.yml so that
// resolver tests do not depend on the loader.
package testutil

import (
	"github.com/roach88/confgate/internal/ir"
)

// Option names in the embassy fixture.
const (
	LowPowerWait     = "low-power-wait"
	TimerQueue       = "timer-queue"
	GenericQueueSize = "generic-queue-size"
)

// EmbassySchema returns a fresh copy of the esp-hal-embassy fixture:
//
//   - low-power-wait: always active, stable, default true.
//   - timer-queue: active with executors or in docs mode, unstable,
//     "single-integrated" with executors else "generic"; the allowed set
//     depends on the executors feature.
//   - generic-queue-size: active with executors or in docs mode, stable,
//     default 64, positive integer.
//
// Each call builds new values; tests may mutate the result.
func EmbassySchema() *ir.Schema {
	executors := ir.Feature("executors")
	executorsOrDocs := ir.Or{L: executors, R: ir.IgnoreFeatureGates()}

	return &ir.Schema{
		Crate:  "esp-hal-embassy",
		Prefix: "ESP_HAL_EMBASSY_CONFIG",
		Options: []ir.Option{
			{
				Name:        LowPowerWait,
				Description: "Enables the lower-power wait if no tasks are ready to run on the thread-mode executor.",
				Stability:   ir.Stable,
				Since:       "0.5.0",
				Defaults:    []ir.DefaultRule{{When: ir.True, Value: ir.BoolValue(true)}},
			},
			{
				Name:        TimerQueue,
				Description: "The flavour of the timer queue provided by this crate. Integrated queues require the executors feature.",
				Stability:   ir.Unstable,
				Active:      executorsOrDocs,
				Defaults: []ir.DefaultRule{
					{When: executors, Value: ir.StringValue("single-integrated")},
					{When: ir.True, Value: ir.StringValue("generic")},
				},
				Constraints: []ir.ConstraintRule{
					{When: executors, Validator: Enumeration("generic", "single-integrated", "multiple-integrated")},
					{When: ir.Not{X: executors}, Validator: Enumeration("generic")},
				},
			},
			{
				Name:        GenericQueueSize,
				Description: "The capacity of the queue when the generic timer queue flavour is selected.",
				Stability:   ir.Stable,
				Since:       "0.6.0",
				Active:      executorsOrDocs,
				Defaults:    []ir.DefaultRule{{When: ir.True, Value: ir.IntValue(64)}},
				Constraints: []ir.ConstraintRule{
					{When: ir.True, Validator: ir.ValidatorSpec{Kind: ir.ValidatorPositiveInteger}},
				},
			},
		},
	}
}

// Enumeration builds an enumeration validator spec.
func Enumeration(values ...string) ir.ValidatorSpec {
	return ir.ValidatorSpec{Kind: ir.ValidatorEnumeration, Values: values}
}

// DocsContext returns the documentation-generation context: no features,
// ignore_feature_gates set.
func DocsContext() ir.Context {
	return ir.NewContext().WithIgnoreFeatureGates(true)
}

package resolver

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/confgate/internal/ir"
	"github.com/roach88/confgate/internal/logging"
	"github.com/roach88/confgate/internal/overrides"
	"github.com/roach88/confgate/internal/predicate"
	"github.com/roach88/confgate/internal/validator"
)

// UnstableFeature is the feature name that opts a build in to unstable
// options, equivalent to Context.AllowUnstable.
const UnstableFeature = "unstable"

// Resolver resolves schemas. It holds only read-only collaborators and is
// safe for concurrent use.
type Resolver struct {
	registry *validator.Registry
	logger   *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRegistry sets the validator registry (default validator.Default()).
func WithRegistry(reg *validator.Registry) Option {
	return func(r *Resolver) {
		r.registry = reg
	}
}

// WithLogger sets the logger for debug tracing (default discards).
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		registry: validator.Default(),
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve is shorthand for New(opts...).Resolve(schema, ctx, ov).
func Resolve(schema *ir.Schema, ctx ir.Context, ov overrides.Set, opts ...Option) (*ir.EffectiveConfig, *Diagnostics) {
	return New(opts...).Resolve(schema, ctx, ov)
}

// Resolve resolves every option of schema against ctx.
//
// When any option fails, the returned configuration is nil and
// Diagnostics.Err() describes every failure; a partial configuration is
// never handed out. Warnings are reported in both cases.
func (r *Resolver) Resolve(schema *ir.Schema, ctx ir.Context, ov overrides.Set) (*ir.EffectiveConfig, *Diagnostics) {
	cfg, diag := r.ResolvePartial(schema, ctx, ov)
	if diag.HasFailures() {
		return nil, diag
	}
	return cfg, diag
}

// ResolvePartial resolves like Resolve but always returns the options that
// did resolve, even when others failed. It serves documentation generation,
// which must show every healthy option next to the failed ones; build
// artifacts come from Resolve.
func (r *Resolver) ResolvePartial(schema *ir.Schema, ctx ir.Context, ov overrides.Set) (*ir.EffectiveConfig, *Diagnostics) {
	diag := &Diagnostics{}
	cfg := &ir.EffectiveConfig{Crate: schema.Crate, Entries: make([]ir.Entry, 0, len(schema.Options))}

	for i := range schema.Options {
		entry, ok := r.resolveOption(&schema.Options[i], ctx, ov, diag)
		if ok {
			cfg.Entries = append(cfg.Entries, entry)
		}
	}

	for _, name := range ov.Names() {
		if _, known := schema.Lookup(name); !known {
			o := ov[name]
			diag.warn(CodeUnknownOverride, name, "override %q (from %s) matches no option of %s", name, o.Source, schema.Crate)
		}
	}

	r.logger.Debug("resolved schema",
		"crate", schema.Crate,
		"features", ctx.Features,
		"options", len(cfg.Entries),
		"failures", len(diag.Failures),
		"warnings", len(diag.Warnings))

	return cfg, diag
}

// resolveOption runs the per-option algorithm. ok is false when the option
// is inactive or failed.
func (r *Resolver) resolveOption(opt *ir.Option, ctx ir.Context, ov overrides.Set, diag *Diagnostics) (ir.Entry, bool) {
	override, hasOverride := ov.Get(opt.Name)

	// 1. Activation
	if !predicate.Evaluate(opt.Active, ctx) {
		r.logger.Debug("option inactive", "option", opt.Name)
		if hasOverride {
			diag.warn(CodeInactiveOverride, opt.Name, "override for inactive option %q ignored", opt.Name)
		}
		return ir.Entry{}, false
	}

	entry := ir.Entry{
		Name:        opt.Name,
		Stability:   opt.Stability,
		Description: opt.Description,
		DocsOnly:    ctx.IgnoreFeatureGates && !predicate.Evaluate(opt.Active, ctx.WithIgnoreFeatureGates(false)),
	}

	// 2. Override or first matching default
	if hasOverride {
		entry.Value = ir.ParseValue(override.Text)
		entry.Overridden = true
	} else {
		matched := scan(opt.Defaults, ctx, FirstMatch)
		if len(matched) == 0 {
			diag.fail(&Failure{Code: CodeNoApplicableDefault, Option: opt.Name})
			return ir.Entry{}, false
		}
		entry.Value = matched[0].Value
	}

	// 3. Every applicable constraint must pass
	failed := false
	for _, rule := range scan(opt.Constraints, ctx, AllMatch) {
		if err := r.registry.Validate(rule.Validator, entry.Value); err != nil {
			spec := rule.Validator
			diag.fail(&Failure{
				Code:       CodeConstraintViolation,
				Option:     opt.Name,
				Value:      entry.Value,
				Validator:  &spec,
				Overridden: entry.Overridden,
				Cause:      err,
			})
			failed = true
		}
	}
	if failed {
		return ir.Entry{}, false
	}

	// 4. Stability tagging
	if opt.Stability == ir.Unstable && !ctx.AllowUnstable && !ctx.HasFeature(UnstableFeature) {
		diag.warn(CodeUnstableOption, opt.Name, "option %q is unstable and may change without notice", opt.Name)
	}

	r.logger.Debug("option resolved",
		"option", opt.Name,
		"value", entry.Value.Text,
		"overridden", entry.Overridden,
		"docs_only", entry.DocsOnly)

	return entry, true
}

// Job is one independent resolution for ResolveAll.
type Job struct {
	Schema    *ir.Schema
	Context   ir.Context
	Overrides overrides.Set
}

// Result pairs a job's configuration with its diagnostics.
type Result struct {
	Config      *ir.EffectiveConfig
	Diagnostics *Diagnostics
}

// ResolveAll resolves independent jobs in parallel. Results are in job
// order. The only error is ctx's, when it is cancelled before all jobs start.
func (r *Resolver) ResolveAll(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cfg, diag := r.Resolve(job.Schema, job.Context, job.Overrides)
			results[i] = Result{Config: cfg, Diagnostics: diag}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

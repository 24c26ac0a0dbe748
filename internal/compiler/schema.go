package compiler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue"

	"github.com/roach88/confgate/internal/ir"
	"github.com/roach88/confgate/internal/predicate"
)

// CompileSchema parses a CUE value into an ir.Schema.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The value is normally a decoded schema document unified with the loader's
// #Schema definition, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`crate: "esp-hal-embassy", options: [...]`)
//	schema, err := CompileSchema(v)
//
// Structural errors (missing crate, wrong field types) abort immediately.
// Predicate and value errors are collected across every option and returned
// together via errors.Join, so one load reports every broken rule.
func CompileSchema(v cue.Value) (*ir.Schema, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	schema := &ir.Schema{}

	crateVal, ok := lookup(v, "crate")
	if !ok {
		return nil, &CompileError{
			Field:   "crate",
			Code:    ErrEmptyCrate,
			Message: "crate is required",
			Pos:     v.Pos(),
		}
	}
	crate, err := crateVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	schema.Crate = crate

	prefix, err := optionalString(v, "prefix")
	if err != nil {
		return nil, err
	}
	if prefix == "" {
		prefix = ir.DefaultPrefix(crate)
	}
	schema.Prefix = prefix

	optsVal, ok := lookup(v, "options")
	if !ok {
		return schema, nil
	}
	iter, err := optsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var errs []error
	for i := 0; iter.Next(); i++ {
		opt, optErrs := compileOption(iter.Value(), i)
		errs = append(errs, optErrs...)
		if opt != nil {
			schema.Options = append(schema.Options, *opt)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return schema, nil
}

// compileOption compiles one entry of the options list. It returns every
// rule-level error it finds; structural errors return a nil option.
func compileOption(v cue.Value, index int) (*ir.Option, []error) {
	field := fmt.Sprintf("options[%d]", index)

	name, err := optionalString(v, "name")
	if err != nil {
		return nil, []error{err}
	}
	if name != "" {
		field = fmt.Sprintf("options[%s]", name)
	}

	opt := &ir.Option{Name: name, Stability: ir.Stable}
	var errs []error

	if opt.Description, err = optionalString(v, "description"); err != nil {
		errs = append(errs, err)
	}
	if opt.Since, err = optionalString(v, "since"); err != nil {
		errs = append(errs, err)
	}

	stability, err := optionalString(v, "stability")
	if err != nil {
		errs = append(errs, err)
	}
	if stability != "" {
		opt.Stability = ir.Stability(stability)
	}

	if activeVal, ok := lookup(v, "active"); ok {
		active, err := compilePredicate(activeVal, field+".active")
		if err != nil {
			errs = append(errs, err)
		}
		opt.Active = active
	}

	defaults, derrs := compileDefaults(v, field)
	opt.Defaults = defaults
	errs = append(errs, derrs...)

	constraints, cerrs := compileConstraints(v, field)
	opt.Constraints = constraints
	errs = append(errs, cerrs...)

	return opt, errs
}

func compileDefaults(v cue.Value, field string) ([]ir.DefaultRule, []error) {
	listVal, ok := lookup(v, "default")
	if !ok {
		return nil, nil
	}
	iter, err := listVal.List()
	if err != nil {
		return nil, []error{formatCUEError(err)}
	}

	var rules []ir.DefaultRule
	var errs []error
	for i := 0; iter.Next(); i++ {
		ruleField := fmt.Sprintf("%s.default[%d]", field, i)
		rv := iter.Value()

		when, err := compileWhen(rv, ruleField)
		if err != nil {
			errs = append(errs, err)
		}

		valueVal, ok := lookup(rv, "value")
		if !ok {
			errs = append(errs, &CompileError{
				Field:   ruleField + ".value",
				Code:    ErrInvalidValue,
				Message: "default rule requires a value",
				Pos:     rv.Pos(),
			})
			continue
		}
		value, err := compileValue(valueVal, ruleField+".value")
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rules = append(rules, ir.DefaultRule{When: when, Value: value})
	}
	return rules, errs
}

func compileConstraints(v cue.Value, field string) ([]ir.ConstraintRule, []error) {
	listVal, ok := lookup(v, "constraints")
	if !ok {
		return nil, nil
	}
	iter, err := listVal.List()
	if err != nil {
		return nil, []error{formatCUEError(err)}
	}

	var rules []ir.ConstraintRule
	var errs []error
	for i := 0; iter.Next(); i++ {
		ruleField := fmt.Sprintf("%s.constraints[%d]", field, i)
		rv := iter.Value()

		when, err := compileWhen(rv, ruleField)
		if err != nil {
			errs = append(errs, err)
		}

		spec, err := compileValidatorSpec(rv, ruleField)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rules = append(rules, ir.ConstraintRule{When: when, Validator: spec})
	}
	return rules, errs
}

// compileValidatorSpec reads the flat {validator, values, min, max} form.
func compileValidatorSpec(v cue.Value, field string) (ir.ValidatorSpec, error) {
	kind, err := optionalString(v, "validator")
	if err != nil {
		return ir.ValidatorSpec{}, err
	}
	if kind == "" {
		return ir.ValidatorSpec{}, &CompileError{
			Field:   field + ".validator",
			Code:    ErrInvalidValidator,
			Message: "constraint requires a validator",
			Pos:     v.Pos(),
		}
	}
	spec := ir.ValidatorSpec{Kind: ir.ValidatorKind(kind)}

	if valuesVal, ok := lookup(v, "values"); ok {
		iter, err := valuesVal.List()
		if err != nil {
			return spec, formatCUEError(err)
		}
		for i := 0; iter.Next(); i++ {
			value, err := compileValue(iter.Value(), fmt.Sprintf("%s.values[%d]", field, i))
			if err != nil {
				return spec, err
			}
			spec.Values = append(spec.Values, value.Text)
		}
	}
	for _, bound := range []struct {
		name string
		dst  *int64
	}{{"min", &spec.Min}, {"max", &spec.Max}} {
		bv, ok := lookup(v, bound.name)
		if !ok {
			continue
		}
		n, err := bv.Int64()
		if err != nil {
			return spec, &CompileError{
				Field:   field + "." + bound.name,
				Code:    ErrInvalidValidator,
				Message: "must be an integer",
				Pos:     bv.Pos(),
			}
		}
		*bound.dst = n
	}
	return spec, nil
}

// compileWhen reads the optional rule condition; absent means true.
func compileWhen(v cue.Value, field string) (ir.Predicate, error) {
	whenVal, ok := lookup(v, "when")
	if !ok {
		return ir.True, nil
	}
	return compilePredicate(whenVal, field+".when")
}

// compilePredicate accepts a bool or predicate source text.
func compilePredicate(v cue.Value, field string) (ir.Predicate, error) {
	switch v.Kind() {
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Literal{Value: b}, nil
	case cue.StringKind:
		src, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		p, err := predicate.Parse(src)
		if err != nil {
			code := ErrPredicateSyntax
			if predicate.IsUnknownFunction(err) {
				code = ErrUnknownPredicateFunction
			}
			return nil, &CompileError{
				Field:   field,
				Code:    code,
				Message: err.Error(),
				Pos:     v.Pos(),
				Err:     err,
			}
		}
		return p, nil
	}
	return nil, &CompileError{
		Field:   field,
		Code:    ErrPredicateSyntax,
		Message: fmt.Sprintf("predicate must be a string or bool, got %v", v.IncompleteKind()),
		Pos:     v.Pos(),
	}
}

// compileValue converts a concrete CUE scalar to an ir.Value.
// Floats are forbidden; a string holding a quoted literal ('"generic"') is
// unquoted so that both spellings of a string default are accepted.
func compileValue(v cue.Value, field string) (ir.Value, error) {
	switch v.Kind() {
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return ir.Value{}, formatCUEError(err)
		}
		return ir.BoolValue(b), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return ir.Value{}, &CompileError{Field: field, Code: ErrInvalidValue, Message: err.Error(), Pos: v.Pos()}
		}
		return ir.IntValue(n), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return ir.Value{}, formatCUEError(err)
		}
		if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
			if unq, err := strconv.Unquote(s); err == nil {
				s = unq
			}
		}
		return ir.StringValue(s), nil
	case cue.FloatKind, cue.NumberKind:
		return ir.Value{}, &CompileError{
			Field:   field,
			Code:    ErrFloatForbidden,
			Message: "float values are forbidden - use an integer or a string",
			Pos:     v.Pos(),
		}
	}
	return ir.Value{}, &CompileError{
		Field:   field,
		Code:    ErrInvalidValue,
		Message: fmt.Sprintf("value must be a bool, integer or string, got %v", v.IncompleteKind()),
		Pos:     v.Pos(),
	}
}

func optionalString(v cue.Value, field string) (string, error) {
	fv, ok := lookup(v, field)
	if !ok {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// lookup returns the field's value with CUE defaults applied. Fields that are
// missing, or declared but never given a concrete value, report false.
func lookup(v cue.Value, field string) (cue.Value, bool) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return fv, false
	}
	if d, ok := fv.Default(); ok {
		fv = d
	}
	return fv, fv.IsConcrete()
}

package emit

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/roach88/confgate/internal/ir"
	"github.com/roach88/confgate/internal/predicate"
)

// Markdown renders the schema's options as a Markdown table. Values come
// from cfg, which is normally resolved in documentation mode so that gated
// options are included. failed maps options that failed to resolve to their
// diagnostic code; they are listed as errors. Any other option absent from
// cfg is listed as inactive.
func Markdown(schema *ir.Schema, cfg *ir.EffectiveConfig, failed map[string]string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s configuration\n\n", schema.Crate)
	buf.WriteString("| Option | Stability | Default | Allowed values | Description |\n")
	buf.WriteString("|--------|-----------|---------|----------------|-------------|\n")

	for i := range schema.Options {
		opt := &schema.Options[i]

		value := "*inactive*"
		if code, ok := failed[opt.Name]; ok {
			value = "*error: " + code + "*"
		} else if cfg != nil {
			if e, ok := cfg.Get(opt.Name); ok {
				value = "`" + e.Value.Text + "`"
			}
		}

		stability := string(opt.Stability)
		if opt.Stability == ir.Stable && opt.Since != "" {
			stability += " since " + opt.Since
		}

		fmt.Fprintf(&buf, "| `%s`<br>`%s` | %s | %s | %s | %s |\n",
			opt.Name,
			ir.EnvName(schema.Prefix, opt.Name),
			stability,
			cell(value),
			cell(allowed(opt)),
			cell(opt.Description))
	}
	return buf.Bytes()
}

// allowed summarizes the option's constraints in declaration order.
func allowed(opt *ir.Option) string {
	parts := make([]string, 0, len(opt.Constraints))
	for _, c := range opt.Constraints {
		text := describeValidator(c.Validator)
		if !isTrue(c.When) {
			text += " when `" + c.When.String() + "`"
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "; ")
}

func describeValidator(spec ir.ValidatorSpec) string {
	switch spec.Kind {
	case ir.ValidatorEnumeration:
		vals := make([]string, len(spec.Values))
		for i, v := range spec.Values {
			vals[i] = "`" + v + "`"
		}
		return strings.Join(vals, ", ")
	case ir.ValidatorPositiveInteger:
		return "positive integer"
	case ir.ValidatorNonNegativeInteger:
		return "non-negative integer"
	case ir.ValidatorIntegerInRange:
		return fmt.Sprintf("integer in %d..=%d", spec.Min, spec.Max)
	case ir.ValidatorStringLength:
		return fmt.Sprintf("%d to %d characters", spec.Min, spec.Max)
	}
	return string(spec.Kind)
}

func isTrue(p ir.Predicate) bool {
	if p == nil {
		return true
	}
	lit, ok := p.(ir.Literal)
	return ok && lit.Value
}

// cell makes text safe for a single table cell.
func cell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

// Features returns every feature name the schema's predicates reference,
// sorted. Documentation uses it to list the crate's configuration features.
func Features(schema *ir.Schema) []string {
	var out []string
	for _, opt := range schema.Options {
		out = append(out, predicate.Features(opt.Active)...)
		for _, d := range opt.Defaults {
			out = append(out, predicate.Features(d.When)...)
		}
		for _, c := range opt.Constraints {
			out = append(out, predicate.Features(c.When)...)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// RenderOptions controls terminal rendering.
type RenderOptions struct {
	Width int
	Style string // glamour style name; empty selects automatically
}

// RenderTerminal renders Markdown for display in a terminal.
func RenderTerminal(md []byte, opts RenderOptions) (string, error) {
	var rendererOpts []glamour.TermRendererOption
	if opts.Style == "" {
		rendererOpts = append(rendererOpts, glamour.WithAutoStyle())
	} else {
		rendererOpts = append(rendererOpts, glamour.WithStandardStyle(opts.Style))
	}
	if opts.Width > 0 {
		rendererOpts = append(rendererOpts, glamour.WithWordWrap(opts.Width))
	}

	renderer, err := glamour.NewTermRenderer(rendererOpts...)
	if err != nil {
		return "", err
	}
	return renderer.Render(string(md))
}

package emit

import (
	"bytes"
	"fmt"
	"go/format"
	"strconv"
	"strings"
	"unicode"

	"github.com/roach88/confgate/internal/ir"
)

// Format names an output format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatEnv      Format = "env"
	FormatGo       Format = "go"
	FormatMarkdown Format = "markdown"
)

// Formats lists the supported formats in display order.
var Formats = []Format{FormatJSON, FormatEnv, FormatGo, FormatMarkdown}

// JSON returns the canonical (RFC 8785) encoding followed by a newline.
func JSON(cfg *ir.EffectiveConfig) ([]byte, error) {
	data, err := cfg.MarshalCanonical()
	if err != nil {
		return nil, fmt.Errorf("emit json: %w", err)
	}
	return append(data, '\n'), nil
}

// Env returns one PREFIX_OPTION=value line per entry, in schema order.
// Values are written verbatim.
func Env(cfg *ir.EffectiveConfig, prefix string) []byte {
	var buf bytes.Buffer
	for _, e := range cfg.Entries {
		fmt.Fprintf(&buf, "%s=%s\n", ir.EnvName(prefix, e.Name), e.Value.Text)
	}
	return buf.Bytes()
}

// GoConstants returns gofmt-ed Go source declaring one typed constant per
// entry in package pkg.
func GoConstants(cfg *ir.EffectiveConfig, pkg string) ([]byte, error) {
	if !isIdentifier(pkg) {
		return nil, fmt.Errorf("emit go: invalid package name %q", pkg)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by confgate. DO NOT EDIT.\n\n")
	fmt.Fprintf(&buf, "package %s\n\n", pkg)
	fmt.Fprintf(&buf, "// Crate is the crate these values were resolved for.\n")
	fmt.Fprintf(&buf, "const Crate = %s\n", strconv.Quote(cfg.Crate))

	seen := map[string]string{"Crate": "Crate"}
	for _, e := range cfg.Entries {
		ident := GoIdentifier(e.Name)
		if prev, dup := seen[ident]; dup {
			return nil, fmt.Errorf("emit go: options %q and %q both map to %s", prev, e.Name, ident)
		}
		seen[ident] = e.Name

		typ, lit := goLiteral(e.Value)
		fmt.Fprintf(&buf, "\n// %s is the resolved value of %s (%s).\n", ident, e.Name, e.Stability)
		fmt.Fprintf(&buf, "const %s %s = %s\n", ident, typ, lit)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("emit go: %w", err)
	}
	return src, nil
}

func goLiteral(v ir.Value) (typ, lit string) {
	switch v.Kind {
	case ir.KindBool:
		if b, err := v.Bool(); err == nil {
			return "bool", strconv.FormatBool(b)
		}
	case ir.KindInteger:
		if n, err := v.Int(); err == nil {
			return "int64", strconv.FormatInt(n, 10)
		}
	}
	return "string", strconv.Quote(v.Text)
}

// GoIdentifier converts an option name to an exported Go identifier:
// "generic-queue-size" becomes "GenericQueueSize".
func GoIdentifier(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	ident := b.String()
	if ident == "" || unicode.IsDigit(rune(ident[0])) {
		ident = "Option" + ident
	}
	return ident
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r != '_' && !unicode.IsLetter(r) && (i == 0 || !unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}

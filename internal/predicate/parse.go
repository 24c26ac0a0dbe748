package predicate

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/literal"
	"cuelang.org/go/cue/parser"
	"cuelang.org/go/cue/token"

	"github.com/roach88/confgate/internal/ir"
)

// arity lists the functions the evaluator provides and their argument counts.
var arity = map[string]int{
	ir.FuncCargoFeature:       1,
	ir.FuncIgnoreFeatureGates: 0,
}

// Parse converts predicate source text into an ir.Predicate tree.
// Empty text parses as true.
func Parse(src string) (ir.Predicate, error) {
	text := strings.TrimSpace(src)
	if text == "" {
		return ir.True, nil
	}

	expr, err := parser.ParseExpr("predicate", text)
	if err != nil {
		return nil, &SyntaxError{Source: text, Message: err.Error()}
	}

	return convert(expr, text)
}

// MustParse is like Parse but panics on error.
// Use only in tests or for predicates known to be valid.
func MustParse(src string) ir.Predicate {
	p, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return p
}

// convert narrows a CUE AST node to the predicate grammar.
func convert(n ast.Expr, src string) (ir.Predicate, error) {
	switch x := n.(type) {
	case *ast.ParenExpr:
		return convert(x.X, src)

	case *ast.BasicLit:
		switch {
		case x.Kind == token.TRUE || x.Value == "true":
			return ir.Literal{Value: true}, nil
		case x.Kind == token.FALSE || x.Value == "false":
			return ir.Literal{Value: false}, nil
		}
		return nil, syntaxAt(x, src, fmt.Sprintf("unexpected literal %s", x.Value))

	case *ast.Ident:
		switch x.Name {
		case "true":
			return ir.Literal{Value: true}, nil
		case "false":
			return ir.Literal{Value: false}, nil
		}
		return nil, syntaxAt(x, src, fmt.Sprintf("bare identifier %q (did you mean %s(%q)?)", x.Name, ir.FuncCargoFeature, x.Name))

	case *ast.UnaryExpr:
		if x.Op != token.NOT {
			return nil, syntaxAt(x, src, fmt.Sprintf("unsupported operator %s", x.Op))
		}
		inner, err := convert(x.X, src)
		if err != nil {
			return nil, err
		}
		return ir.Not{X: inner}, nil

	case *ast.BinaryExpr:
		l, err := convert(x.X, src)
		if err != nil {
			return nil, err
		}
		r, err := convert(x.Y, src)
		if err != nil {
			return nil, err
		}
		switch x.Op {
		case token.LAND:
			return ir.And{L: l, R: r}, nil
		case token.LOR:
			return ir.Or{L: l, R: r}, nil
		}
		return nil, syntaxAt(x, src, fmt.Sprintf("unsupported operator %s", x.Op))

	case *ast.CallExpr:
		return convertCall(x, src)
	}

	return nil, syntaxAt(n, src, fmt.Sprintf("unsupported expression %T", n))
}

// convertCall validates the callee and its string arguments.
func convertCall(x *ast.CallExpr, src string) (ir.Predicate, error) {
	fn, ok := x.Fun.(*ast.Ident)
	if !ok {
		return nil, syntaxAt(x, src, "callee must be a function name")
	}

	args := make([]string, 0, len(x.Args))
	for _, a := range x.Args {
		lit, ok := a.(*ast.BasicLit)
		if !ok || lit.Kind != token.STRING {
			return nil, syntaxAt(a, src, fmt.Sprintf("arguments to %s must be string literals", fn.Name))
		}
		s, err := literal.Unquote(lit.Value)
		if err != nil {
			return nil, syntaxAt(a, src, err.Error())
		}
		args = append(args, s)
	}

	call := ir.Call{Func: fn.Name, Args: args}
	if err := checkCall(call); err != nil {
		err.Source = src
		return nil, err
	}
	return call, nil
}

// checkCall verifies the function exists and has the right arity.
func checkCall(c ir.Call) *UnknownFunctionError {
	want, known := arity[c.Func]
	if !known {
		return &UnknownFunctionError{Name: c.Func, Arity: len(c.Args), Reason: "no such function"}
	}
	if want != len(c.Args) {
		return &UnknownFunctionError{
			Name:   c.Func,
			Arity:  len(c.Args),
			Reason: fmt.Sprintf("expects %d argument(s)", want),
		}
	}
	if c.Func == ir.FuncCargoFeature && strings.TrimSpace(c.Args[0]) == "" {
		return &UnknownFunctionError{Name: c.Func, Arity: 1, Reason: "feature name must be non-empty"}
	}
	return nil
}

func syntaxAt(n ast.Node, src, msg string) *SyntaxError {
	col := 0
	if pos := n.Pos(); pos.IsValid() {
		col = pos.Column()
	}
	return &SyntaxError{Source: src, Column: col, Message: msg}
}

// Check validates a tree built in Go rather than parsed from text.
// nil is valid (always true).
func Check(p ir.Predicate) error {
	switch x := p.(type) {
	case nil, ir.Literal:
		return nil
	case ir.Call:
		if err := checkCall(x); err != nil {
			err.Source = x.String()
			return err
		}
		return nil
	case ir.Not:
		if x.X == nil {
			return &SyntaxError{Source: "!", Message: "negation without operand"}
		}
		return Check(x.X)
	case ir.And:
		return checkBinary(x.L, x.R, "&&")
	case ir.Or:
		return checkBinary(x.L, x.R, "||")
	}
	return &SyntaxError{Message: fmt.Sprintf("unsupported predicate %T", p)}
}

func checkBinary(l, r ir.Predicate, op string) error {
	if l == nil || r == nil {
		return &SyntaxError{Source: op, Message: "operator with missing operand"}
	}
	if err := Check(l); err != nil {
		return err
	}
	return Check(r)
}

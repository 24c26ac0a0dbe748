package predicate

import (
	"errors"
	"fmt"
)

// Error codes for predicate problems. Both are schema-authoring defects.
const (
	CodeUnknownFunction = "UnknownPredicateFunction"
	CodeSyntax          = "PredicateSyntax"
)

// UnknownFunctionError reports a call to a function the evaluator does not
// provide, or a known function called with the wrong number of arguments.
type UnknownFunctionError struct {
	Name   string
	Arity  int
	Source string
	Reason string
}

func (e *UnknownFunctionError) Error() string {
	msg := fmt.Sprintf("%s: %s/%d", CodeUnknownFunction, e.Name, e.Arity)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Source != "" {
		msg += fmt.Sprintf(" (in %q)", e.Source)
	}
	return msg
}

// SyntaxError reports predicate text that is not part of the grammar.
type SyntaxError struct {
	Source  string
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("%s: %q col %d: %s", CodeSyntax, e.Source, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %q: %s", CodeSyntax, e.Source, e.Message)
}

// IsUnknownFunction reports whether err is (or wraps) an UnknownFunctionError.
func IsUnknownFunction(err error) bool {
	var ue *UnknownFunctionError
	return errors.As(err, &ue)
}

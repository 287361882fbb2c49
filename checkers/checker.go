package checkers

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"kresolve/ast"
	"kresolve/depm"
	"kresolve/report"
	"kresolve/resolve"
	"kresolve/trace"
	"kresolve/types"
)

// CallChecker inspects a resolved call and reports any problems it finds.
// Checkers never change the resolution of a call: their diagnostics are only
// ever added to it.
type CallChecker interface {
	Check(call *resolve.ResolvedCall, cctx *CheckContext)
}

// ConstantEvaluator computes the compile-time values of expressions.  Values
// are represented as: nil for `null`, bool, Char, int32 for `Int`, int64 for
// `Long`, float64 for `Double`, and string.
type ConstantEvaluator interface {
	// Evaluate returns the compile-time value of expr given the type it is
	// expected to have (which may be nil).  It returns false if expr is not a
	// constant.
	Evaluate(expr ast.Expr, expected types.Type) (any, bool)
}

// CheckContext is the context a resolved call is checked in.
type CheckContext struct {
	// The context used to cancel analysis.
	Ctx context.Context

	// The trace diagnostics are reported to.
	Trace *trace.BindingTrace

	// The arena holding the finalized descriptors.
	Arena *depm.Arena

	// The innermost lexical scope enclosing the call.
	Scope *depm.LexicalScope

	// The module and package of the file containing the call.
	Module  *depm.ModuleDescriptor
	Package *depm.PackageDescriptor

	// Whether the call is an argument of an annotation.
	InAnnotation bool

	// The evaluator for compile-time constants.
	Constants ConstantEvaluator

	// The line index of the file containing the call.  It is used to build the
	// spans of diagnostics which point inside of nodes.
	Lines *report.LineIndex
}

// Char is the compile-time value of a `Char` constant.
type Char rune

// ConstantString converts a compile-time value to the text it contributes to a
// string template.
func ConstantString(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case Char:
		return string(rune(v))
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			switch {
			case math.IsNaN(v):
				return "NaN"
			case v > 0:
				return "Infinity"
			default:
				return "-Infinity"
			}
		}

		// Doubles always show a fractional part.
		text := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.Contains(text, ".") {
			text += ".0"
		}

		return text
	default:
		return fmt.Sprint(v)
	}
}

// -----------------------------------------------------------------------------

// Chain is an ordered list of call checkers.
type Chain []CallChecker

// Check runs each checker of the chain on a call in order.
func (c Chain) Check(call *resolve.ResolvedCall, cctx *CheckContext) {
	for _, checker := range c {
		checker.Check(call, cctx)
	}
}

// DefaultOrder is the order checkers run in when no order is configured.
var DefaultOrder = []string{"visibility", "deprecation", "jscode"}

// registry maps checker names to their constructors.
var registry = map[string]func() CallChecker{
	"visibility":  func() CallChecker { return &VisibilityChecker{} },
	"deprecation": func() CallChecker { return &DeprecationChecker{} },
	"jscode":      func() CallChecker { return &JsCodeChecker{} },
}

// NewChain creates a chain of the named checkers in the given order.  An empty
// list of names selects the default order.
func NewChain(names []string) (Chain, error) {
	if len(names) == 0 {
		names = DefaultOrder
	}

	chain := make(Chain, len(names))
	seen := make(map[string]struct{})
	for i, name := range names {
		newChecker, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("unknown call checker `%s`", name)
		}

		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("call checker `%s` is listed more than once", name)
		}

		seen[name] = struct{}{}
		chain[i] = newChecker()
	}

	return chain, nil
}

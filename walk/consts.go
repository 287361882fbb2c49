package walk

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"kresolve/ast"
	"kresolve/checkers"
	"kresolve/depm"
	"kresolve/syntax"
	"kresolve/trace"
	"kresolve/types"
)

// ConstEvaluator computes the compile-time values of the expressions of a
// single file: literals, string templates, read-only properties initialized
// with constants, and arithmetic and string concatenation over constants.
// Computed values are recorded in the file's trace.
type ConstEvaluator struct {
	// The trace of the file.  References are looked up in it.  This may be
	// nil in which case only expressions without references are constant.
	trace *trace.BindingTrace

	// The file whose expressions are evaluated.
	file *ast.File

	// The shared environment holding the initializers of the non-local
	// properties.  This may be nil.
	env *Env

	// The initializers of the read-only local variables.
	locals map[*depm.PropertyDescriptor]ast.Expr

	// The initializers currently being evaluated.
	evaluating map[ast.Expr]struct{}
}

// NewConstEvaluator creates a constant evaluator for a file.
func NewConstEvaluator(bt *trace.BindingTrace, file *ast.File, env *Env) *ConstEvaluator {
	return &ConstEvaluator{
		trace:      bt,
		file:       file,
		env:        env,
		locals:     make(map[*depm.PropertyDescriptor]ast.Expr),
		evaluating: make(map[ast.Expr]struct{}),
	}
}

// defineLocal registers the initializer of a read-only local variable.
func (ce *ConstEvaluator) defineLocal(pd *depm.PropertyDescriptor, init ast.Expr) {
	ce.locals[pd] = init
}

func (ce *ConstEvaluator) Evaluate(expr ast.Expr, expected types.Type) (any, bool) {
	if ce.trace != nil {
		if value, ok := trace.Get(ce.trace, expr, trace.CompileTimeValue); ok {
			return widen(value, expected), true
		}
	}

	value, ok := ce.evaluate(expr)
	if !ok {
		return nil, false
	}

	if ce.trace != nil {
		trace.Record(ce.trace, expr, trace.CompileTimeValue, value)
	}

	return widen(value, expected), true
}

// evaluate computes the value of an expression.
func (ce *ConstEvaluator) evaluate(expr ast.Expr) (any, bool) {
	switch v := expr.(type) {
	case *ast.Literal:
		return parseLiteral(v)
	case *ast.StringTemplate:
		return ce.evaluateTemplate(v)
	case *ast.NameRef:
		return ce.evaluateNameRef(v)
	case *ast.BinaryExpr:
		left, ok := ce.Evaluate(v.Left, nil)
		if !ok {
			return nil, false
		}

		right, ok := ce.Evaluate(v.Right, nil)
		if !ok {
			return nil, false
		}

		return fold(v.Op, left, right)
	default:
		return nil, false
	}
}

// evaluateTemplate computes the value of a string template.
func (ce *ConstEvaluator) evaluateTemplate(tmpl *ast.StringTemplate) (any, bool) {
	sb := strings.Builder{}

	for _, entry := range tmpl.Entries {
		switch entry.Kind {
		case ast.LiteralEntry:
			sb.WriteString(entry.Text)
		case ast.EscapeEntry:
			value, ok := syntax.Unescape(entry.Text)
			if !ok {
				return nil, false
			}

			sb.WriteString(value)
		default:
			value, ok := ce.Evaluate(entry.Expr, nil)
			if !ok {
				return nil, false
			}

			sb.WriteString(checkers.ConstantString(value))
		}
	}

	return sb.String(), true
}

// evaluateNameRef computes the value of a reference to a read-only property
// initialized with a constant.  Only properties declared in the same file are
// followed.
func (ce *ConstEvaluator) evaluateNameRef(ref *ast.NameRef) (any, bool) {
	if ce.trace == nil || ref.Receiver != nil {
		return nil, false
	}

	d, ok := trace.Get(ce.trace, ref, trace.Reference)
	if !ok {
		return nil, false
	}

	pd, ok := d.(*depm.PropertyDescriptor)
	if !ok || pd.IsVar {
		return nil, false
	}

	pd = pd.Original()

	init, ok := ce.locals[pd]
	if !ok {
		if ce.env == nil {
			return nil, false
		}

		entry, ok := ce.env.initializers[pd]
		if !ok || entry.file != ce.file {
			return nil, false
		}

		init = entry.expr
	}

	if _, ok := ce.evaluating[init]; ok {
		return nil, false
	}

	ce.evaluating[init] = struct{}{}
	defer delete(ce.evaluating, init)

	return ce.Evaluate(init, pd.Type)
}

// -----------------------------------------------------------------------------

// parseLiteral computes the value of a literal.
func parseLiteral(lit *ast.Literal) (any, bool) {
	text := strings.ReplaceAll(lit.Value, "_", "")

	switch lit.Kind {
	case ast.IntLit, ast.LongLit:
		isLong := lit.Kind == ast.LongLit || strings.HasSuffix(text, "L")
		text = strings.TrimSuffix(text, "L")

		n, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return nil, false
		}

		// Integer literals too large for an `Int` are `Long`s.
		if !isLong && int64(int32(n)) == n {
			return int32(n), true
		}

		return n, true
	case ast.DoubleLit:
		x, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, false
		}

		return x, true
	case ast.BoolLit:
		return lit.Value == "true", true
	case ast.CharLit:
		inner := strings.TrimSuffix(strings.TrimPrefix(lit.Value, "'"), "'")

		if strings.HasPrefix(inner, `\`) {
			value, ok := syntax.Unescape(inner)
			if !ok || utf8.RuneCountInString(value) != 1 {
				return nil, false
			}

			r, _ := utf8.DecodeRuneInString(value)
			return checkers.Char(r), true
		}

		if utf8.RuneCountInString(inner) != 1 {
			return nil, false
		}

		r, _ := utf8.DecodeRuneInString(inner)
		return checkers.Char(r), true
	case ast.NullLit:
		return nil, true
	default:
		return nil, false
	}
}

// widen converts an `Int` constant to a `Long` when a `Long` is expected.
func widen(value any, expected types.Type) any {
	if n, ok := value.(int32); ok && expected != nil && types.Equals(types.MakeNotNull(expected), types.LongType) {
		return int64(n)
	}

	return value
}

// fold applies a binary operator to two constants.  String concatenation
// accepts any right operand.  Arithmetic promotes to the wider operand type.
func fold(op string, left, right any) (any, bool) {
	if s, ok := left.(string); ok {
		if op == "+" {
			return s + checkers.ConstantString(right), true
		}

		return nil, false
	}

	switch l := left.(type) {
	case int32:
		switch r := right.(type) {
		case int32:
			return foldInt(op, l, r)
		case int64:
			return foldInt(op, int64(l), r)
		case float64:
			return foldDouble(op, float64(l), r)
		}
	case int64:
		switch r := right.(type) {
		case int32:
			return foldInt(op, l, int64(r))
		case int64:
			return foldInt(op, l, r)
		case float64:
			return foldDouble(op, float64(l), r)
		}
	case float64:
		switch r := right.(type) {
		case int32:
			return foldDouble(op, l, float64(r))
		case int64:
			return foldDouble(op, l, float64(r))
		case float64:
			return foldDouble(op, l, r)
		}
	}

	return nil, false
}

// foldInt applies an arithmetic operator to two integers.  Overflow wraps.
func foldInt[T int32 | int64](op string, l, r T) (any, bool) {
	switch op {
	case "+":
		return l + r, true
	case "-":
		return l - r, true
	case "*":
		return l * r, true
	case "/":
		if r == 0 {
			return nil, false
		}

		return l / r, true
	case "%":
		if r == 0 {
			return nil, false
		}

		return l % r, true
	default:
		return nil, false
	}
}

// foldDouble applies an arithmetic operator to two doubles.
func foldDouble(op string, l, r float64) (any, bool) {
	switch op {
	case "+":
		return l + r, true
	case "-":
		return l - r, true
	case "*":
		return l * r, true
	case "/":
		return l / r, true
	default:
		return nil, false
	}
}

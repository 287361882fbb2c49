package syntax

import (
	"kresolve/ast"
)

// renderExpr renders an expression.
func (r *Renderer) renderExpr(expr ast.Expr) {
	switch v := expr.(type) {
	case *ast.Literal:
		r.node(v, func() {
			r.write(v.Value)
		})
	case *ast.StringTemplate:
		r.renderTemplate(v)
	case *ast.NameRef:
		r.node(v, func() {
			if v.Receiver != nil {
				r.renderExpr(v.Receiver)
				r.write(".")
			}

			r.write(v.Name)
		})
	case *ast.CallExpr:
		r.renderCall(v)
	case *ast.BinaryExpr:
		r.node(v, func() {
			r.renderOperand(v.Left, false)
			r.write(" " + v.Op + " ")
			r.renderOperand(v.Right, true)
		})
	}
}

// renderOperand renders an operand of a binary operator.  Operators are left
// associative so a binary right operand is parenthesized.
func (r *Renderer) renderOperand(expr ast.Expr, right bool) {
	if _, ok := expr.(*ast.BinaryExpr); ok && right {
		r.write("(")
		r.renderExpr(expr)
		r.write(")")
	} else {
		r.renderExpr(expr)
	}
}

// template = quote {entry} quote
// entry = text | escape | '$' name | '${' expr '}'
func (r *Renderer) renderTemplate(st *ast.StringTemplate) {
	quote := st.Quote
	if quote == "" {
		quote = `"`
	}

	r.node(st, func() {
		r.write(quote)

		for _, entry := range st.Entries {
			r.node(entry, func() {
				switch entry.Kind {
				case ast.LiteralEntry, ast.EscapeEntry:
					r.write(entry.Text)
				case ast.ShortEntry:
					r.write("$")
					r.renderExpr(entry.Expr)
				case ast.BlockEntry:
					r.write("${")
					r.renderExpr(entry.Expr)
					r.write("}")
				}
			})
		}

		r.write(quote)
	})
}

// call = [expr '.'] name ['<' type_ref {',' type_ref} '>'] '(' [args] ')'
func (r *Renderer) renderCall(call *ast.CallExpr) {
	r.node(call, func() {
		if call.Receiver != nil {
			r.renderExpr(call.Receiver)
			r.write(".")
		}

		r.node(call.Callee, func() {
			r.write(call.Callee.Name)
		})

		if len(call.TypeArgs) > 0 {
			r.write("<")
			r.commaList(len(call.TypeArgs), func(i int) {
				r.renderTypeRef(call.TypeArgs[i])
			})
			r.write(">")
		}

		r.write("(")
		r.renderArgs(call.Args)
		r.write(")")
	})
}

// args = arg {',' arg}
// arg = [name '='] expr
func (r *Renderer) renderArgs(args []*ast.ValueArgument) {
	r.commaList(len(args), func(i int) {
		arg := args[i]

		r.node(arg, func() {
			if arg.Name != "" {
				r.write(arg.Name + " = ")
			}

			r.renderExpr(arg.Expr)
		})
	})
}

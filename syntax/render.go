package syntax

import (
	"strings"

	"kresolve/ast"
	"kresolve/report"
)

// NOTE: Syntax trees reach the analyzer without position information when they
// are loaded from tree files rather than produced by a parser.  The renderer
// prints such a tree in canonical source form and gives every node the text
// span it occupies in that source.  Diagnostics can then be displayed against
// the rendered text exactly as if it had been parsed.

// indentWidth is the number of spaces per indentation level.
const indentWidth = 4

// Renderer prints a syntax tree and records the spans of its nodes.
// Renderers are created once per file.
type Renderer struct {
	// sb holds the rendered text.
	sb strings.Builder

	// indent is the current indentation level.
	indent int

	// marks are the offsets recorded for each rendered node.
	marks []mark
}

// mark is the start and end offset of a rendered node.
type mark struct {
	node       ast.Node
	start, end int
}

// Render renders a file in canonical source form: it stores the text in the
// file and updates the span of every node in the tree.
func Render(file *ast.File) []byte {
	r := &Renderer{}
	r.renderFile(file)

	text := []byte(r.sb.String())
	li := report.NewLineIndex(text)
	for _, m := range r.marks {
		m.node.SetSpan(li.Span(m.start, m.end))
	}

	file.Text = text
	return text
}

// -----------------------------------------------------------------------------

// write writes literal text.
func (r *Renderer) write(text string) {
	r.sb.WriteString(text)
}

// newline ends the current line and indents the next one.
func (r *Renderer) newline() {
	r.sb.WriteRune('\n')
	r.sb.WriteString(strings.Repeat(" ", r.indent*indentWidth))
}

// node renders a node using the given function and records its span.
func (r *Renderer) node(n ast.Node, render func()) {
	start := r.sb.Len()
	render()
	r.marks = append(r.marks, mark{node: n, start: start, end: r.sb.Len()})
}

// commaList renders n items separated by commas.
func (r *Renderer) commaList(n int, render func(i int)) {
	for i := 0; i < n; i++ {
		if i > 0 {
			r.write(", ")
		}

		render(i)
	}
}

// -----------------------------------------------------------------------------

// file = ['package' fqname] {import} {decl}
func (r *Renderer) renderFile(file *ast.File) {
	r.node(file, func() {
		if file.Package != "" {
			r.write("package " + file.Package + "\n\n")
		}

		for _, imp := range file.Imports {
			r.node(imp, func() {
				r.write("import " + imp.Path)
				if imp.All {
					r.write(".*")
				}
			})
			r.write("\n")
		}

		if len(file.Imports) > 0 {
			r.write("\n")
		}

		for i, decl := range file.Decls {
			if i > 0 {
				r.write("\n\n")
			}

			r.renderDecl(decl)
		}

		r.write("\n")
	})
}

// modifiers = {annotation} [visibility]
func (r *Renderer) renderModifiers(mods *ast.Modifiers) {
	for _, annot := range mods.Annotations {
		r.node(annot, func() {
			r.write("@" + annot.Name)
			if len(annot.Args) > 0 {
				r.write("(")
				r.renderArgs(annot.Args)
				r.write(")")
			}
		})
		r.newline()
	}

	if mods.Visibility != "" {
		r.write(mods.Visibility + " ")
	}
}

// renderDecl renders a declaration.
func (r *Renderer) renderDecl(decl ast.Decl) {
	switch v := decl.(type) {
	case *ast.FunDecl:
		r.renderFunDecl(v)
	case *ast.ClassDecl:
		r.renderClassDecl(v)
	case *ast.PropertyDecl:
		r.renderPropertyDecl(v)
	}
}

// fun_decl = modifiers 'fun' [type_params] [type_ref '.'] name params
//
//	[':' type_ref] [block | '=' expr]
func (r *Renderer) renderFunDecl(fd *ast.FunDecl) {
	r.node(fd, func() {
		r.renderModifiers(&fd.Modifiers)
		r.write("fun ")

		if len(fd.TypeParams) > 0 {
			r.renderTypeParams(fd.TypeParams)
			r.write(" ")
		}

		if fd.Receiver != nil {
			r.renderTypeRef(fd.Receiver)
			r.write(".")
		}

		r.write(fd.Name)
		r.renderParams(fd.Params)

		if fd.ReturnType != nil {
			r.write(": ")
			r.renderTypeRef(fd.ReturnType)
		}

		switch {
		case fd.ExprBody != nil:
			r.write(" = ")
			r.renderExpr(fd.ExprBody)
		case fd.Body != nil:
			r.write(" ")
			r.renderBlock(fd.Body)
		}
	})
}

// class_decl = modifiers ('class' | 'interface') name [type_params]
//
//	[params] [':' type_ref {',' type_ref}] ['{' {decl} '}']
func (r *Renderer) renderClassDecl(cd *ast.ClassDecl) {
	r.node(cd, func() {
		r.renderModifiers(&cd.Modifiers)

		if cd.IsInterface {
			r.write("interface ")
		} else {
			r.write("class ")
		}

		r.write(cd.Name)

		if len(cd.TypeParams) > 0 {
			r.renderTypeParams(cd.TypeParams)
		}

		if len(cd.CtorParams) > 0 {
			r.renderParams(cd.CtorParams)
		}

		if len(cd.Supertypes) > 0 {
			r.write(" : ")
			r.commaList(len(cd.Supertypes), func(i int) {
				r.renderTypeRef(cd.Supertypes[i])
			})
		}

		if len(cd.Members) > 0 {
			r.write(" {")
			r.indent++

			for i, member := range cd.Members {
				if i > 0 {
					r.write("\n")
				}

				r.newline()
				r.renderDecl(member)
			}

			r.indent--
			r.newline()
			r.write("}")
		}
	})
}

// property_decl = modifiers ('val' | 'var') name [':' type_ref] ['=' expr]
func (r *Renderer) renderPropertyDecl(pd *ast.PropertyDecl) {
	r.node(pd, func() {
		r.renderModifiers(&pd.Modifiers)

		if pd.IsVar {
			r.write("var ")
		} else {
			r.write("val ")
		}

		r.write(pd.Name)

		if pd.Type != nil {
			r.write(": ")
			r.renderTypeRef(pd.Type)
		}

		if pd.Initializer != nil {
			r.write(" = ")
			r.renderExpr(pd.Initializer)
		}
	})
}

// type_params = '<' type_param {',' type_param} '>'
// type_param = ['in' | 'out'] name [':' type_ref]
func (r *Renderer) renderTypeParams(tps []*ast.TypeParam) {
	r.write("<")
	r.commaList(len(tps), func(i int) {
		tp := tps[i]

		r.node(tp, func() {
			if tp.Variance != "" {
				r.write(tp.Variance + " ")
			}

			r.write(tp.Name)

			// Multiple bounds would require a where clause: only the first is
			// printed inline and the rest follow it with an ampersand.
			for j, bound := range tp.Bounds {
				if j == 0 {
					r.write(" : ")
				} else {
					r.write(" & ")
				}

				r.renderTypeRef(bound)
			}
		})
	})
	r.write(">")
}

// params = '(' [param {',' param}] ')'
// param = ['val' | 'var'] ['vararg'] name ':' type_ref ['=' expr]
func (r *Renderer) renderParams(params []*ast.Param) {
	r.write("(")
	r.commaList(len(params), func(i int) {
		param := params[i]

		r.node(param, func() {
			if param.Property != "" {
				r.write(param.Property + " ")
			}

			if param.Vararg {
				r.write("vararg ")
			}

			r.write(param.Name + ": ")
			r.renderTypeRef(param.Type)

			if param.Default != nil {
				r.write(" = ")
				r.renderExpr(param.Default)
			}
		})
	})
	r.write(")")
}

// type_ref = (name ['<' type_ref {',' type_ref} '>'] | func_type) ['?']
// func_type = '(' [type_ref {',' type_ref}] ')' '->' type_ref
func (r *Renderer) renderTypeRef(tr *ast.TypeRef) {
	if tr == nil {
		return
	}

	r.node(tr, func() {
		if tr.IsFunction {
			if tr.Nullable {
				r.write("(")
			}

			r.write("(")
			r.commaList(len(tr.Params), func(i int) {
				r.renderTypeRef(tr.Params[i])
			})
			r.write(") -> ")
			r.renderTypeRef(tr.Return)

			if tr.Nullable {
				r.write(")?")
			}

			return
		}

		r.write(tr.Name)

		if len(tr.Args) > 0 {
			r.write("<")
			r.commaList(len(tr.Args), func(i int) {
				r.renderTypeRef(tr.Args[i])
			})
			r.write(">")
		}

		if tr.Nullable {
			r.write("?")
		}
	})
}

// block = '{' {stmt} '}'
func (r *Renderer) renderBlock(stmts []ast.Stmt) {
	r.write("{")
	r.indent++

	for _, stmt := range stmts {
		r.newline()
		r.renderStmt(stmt)
	}

	r.indent--
	r.newline()
	r.write("}")
}

// stmt = fun_decl | property_decl | 'return' [expr] | expr
func (r *Renderer) renderStmt(stmt ast.Stmt) {
	switch v := stmt.(type) {
	case *ast.FunDecl:
		r.renderFunDecl(v)
	case *ast.PropertyDecl:
		r.renderPropertyDecl(v)
	case *ast.ReturnStmt:
		r.node(v, func() {
			r.write("return")
			if v.Value != nil {
				r.write(" ")
				r.renderExpr(v.Value)
			}
		})
	case ast.Expr:
		r.renderExpr(v)
	}
}

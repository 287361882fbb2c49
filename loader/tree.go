package loader

import (
	"os"
	"regexp"
	"strings"

	"kresolve/ast"

	"gopkg.in/yaml.v3"
)

// NOTE: Tree files are the YAML form of parsed source files.  They stand in
// for the output of the parser: every node of the syntax tree has a YAML
// counterpart and the tree carries no positions.  The positions are assigned
// when the tree is rendered.  A tree file looks like:
//
//	package: app
//	imports: [kotlin.js.js, "lib.text.*"]
//	decls:
//	  - kind: fun
//	    name: main
//	    body:
//	      - kind: val
//	        name: n
//	        init: 1
//	      - call: println
//	        args: [{op: +, left: n, right: 2}]
//
// Expressions are written in a shorthand: plain integers, floats and booleans
// and `null` are literals; a plain `12L` is a `Long` literal; a plain
// identifier is a name reference; a quoted string is a string literal.  All
// other expressions are mappings.

// LoadFile loads the tree file at path.
func LoadFile(path string) (*ast.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return DecodeFile(data, path)
}

// DecodeFile decodes the contents of a tree file.  The path is stored in the
// file for display.
func DecodeFile(data []byte, path string) (file *ast.File, err error) {
	d := &decoder{path: path}

	root, err := d.document(data)
	if err != nil {
		return nil, err
	}

	defer catchDecodeError(&err)

	f := d.mapping(root, "package", "imports", "decls")
	file = &ast.File{Path: path, Package: d.optStr(f, "package")}

	for _, item := range d.list(f, "imports") {
		file.Imports = append(file.Imports, d.decodeImport(item))
	}

	for _, item := range d.list(f, "decls") {
		file.Decls = append(file.Decls, d.decodeDecl(item))
	}

	return file, nil
}

// decodeImport decodes an import: either a path string, optionally ending in
// `.*`, or a mapping with a path and a star flag.
func (d *decoder) decodeImport(node *yaml.Node) *ast.Import {
	if node.Kind == yaml.ScalarNode {
		if path, ok := strings.CutSuffix(node.Value, ".*"); ok {
			return &ast.Import{Path: path, All: true}
		}

		return &ast.Import{Path: node.Value}
	}

	f := d.mapping(node, "path", "all")
	return &ast.Import{Path: d.str(f, "path"), All: d.optBool(f, "all")}
}

// -----------------------------------------------------------------------------

// The fields common to all declarations.
var modifierFields = []string{"kind", "name", "visibility", "annotations"}

// decodeDecl decodes a declaration.  The kind of declaration is given by its
// `kind` field.
func (d *decoder) decodeDecl(node *yaml.Node) ast.Decl {
	if node.Kind != yaml.MappingNode {
		d.fail(node, "expected a declaration")
	}

	kind := ""
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == "kind" {
			kind = node.Content[i+1].Value
		}
	}

	switch kind {
	case "fun":
		return d.decodeFunction(node)
	case "class", "interface":
		return d.decodeClass(node, kind == "interface")
	case "val", "var":
		return d.decodeProperty(node, kind == "var")
	case "":
		d.fail(node, "declaration has no kind")
	default:
		d.fail(node, "unknown declaration kind `%s`", kind)
	}

	return nil
}

// decodeModifiers decodes the visibility and annotations of a declaration.
func (d *decoder) decodeModifiers(f fields) ast.Modifiers {
	mods := ast.Modifiers{Visibility: d.optStr(f, "visibility")}

	for _, item := range d.list(f, "annotations") {
		if item.Kind == yaml.ScalarNode {
			mods.Annotations = append(mods.Annotations, &ast.Annotation{Name: item.Value})
			continue
		}

		af := d.mapping(item, "name", "args")
		mods.Annotations = append(mods.Annotations, &ast.Annotation{
			Name: d.str(af, "name"),
			Args: d.decodeArgs(d.list(af, "args")),
		})
	}

	return mods
}

func (d *decoder) decodeFunction(node *yaml.Node) *ast.FunDecl {
	f := d.mapping(node, append(modifierFields, "type-params", "receiver", "params", "returns", "body", "expr")...)

	fd := &ast.FunDecl{
		Modifiers:  d.decodeModifiers(f),
		Name:       d.str(f, "name"),
		TypeParams: d.decodeTypeParams(d.list(f, "type-params")),
		Receiver:   d.optTypeRef(f, "receiver"),
		Params:     d.decodeParams(d.list(f, "params"), false),
		ReturnType: d.optTypeRef(f, "returns"),
	}

	if f.has("body") && f.has("expr") {
		d.fail(node, "function %s has both a block body and an expression body", fd.Name)
	}

	if f.has("body") {
		// An empty body is still a body.
		fd.Body = []ast.Stmt{}
		for _, item := range d.list(f, "body") {
			fd.Body = append(fd.Body, d.decodeStmt(item))
		}
	} else if v := f.value("expr"); v != nil {
		fd.ExprBody = d.decodeExpr(v)
	}

	return fd
}

func (d *decoder) decodeClass(node *yaml.Node, isInterface bool) *ast.ClassDecl {
	f := d.mapping(node, append(modifierFields, "type-params", "ctor-params", "supertypes", "members")...)

	cd := &ast.ClassDecl{
		Modifiers:   d.decodeModifiers(f),
		Name:        d.str(f, "name"),
		IsInterface: isInterface,
		TypeParams:  d.decodeTypeParams(d.list(f, "type-params")),
		CtorParams:  d.decodeParams(d.list(f, "ctor-params"), true),
	}

	if isInterface && f.has("ctor-params") {
		d.fail(node, "interface %s cannot have a constructor", cd.Name)
	}

	for _, item := range d.list(f, "supertypes") {
		cd.Supertypes = append(cd.Supertypes, d.decodeTypeRef(item))
	}

	for _, item := range d.list(f, "members") {
		cd.Members = append(cd.Members, d.decodeDecl(item))
	}

	return cd
}

func (d *decoder) decodeProperty(node *yaml.Node, isVar bool) *ast.PropertyDecl {
	f := d.mapping(node, append(modifierFields, "type", "init")...)

	pd := &ast.PropertyDecl{
		Modifiers: d.decodeModifiers(f),
		Name:      d.str(f, "name"),
		IsVar:     isVar,
		Type:      d.optTypeRef(f, "type"),
	}

	if v := f.value("init"); v != nil {
		pd.Initializer = d.decodeExpr(v)
	} else if pd.Type == nil {
		d.fail(node, "property %s needs a type or an initializer", pd.Name)
	}

	return pd
}

// decodeTypeParams decodes type parameters: either a name or a mapping with a
// name, a variance and bounds.
func (d *decoder) decodeTypeParams(items []*yaml.Node) []*ast.TypeParam {
	var tps []*ast.TypeParam

	for _, item := range items {
		if item.Kind == yaml.ScalarNode {
			tps = append(tps, &ast.TypeParam{Name: item.Value})
			continue
		}

		f := d.mapping(item, "name", "variance", "bounds")
		tp := &ast.TypeParam{Name: d.str(f, "name"), Variance: d.optStr(f, "variance")}

		if tp.Variance != "" && tp.Variance != "in" && tp.Variance != "out" {
			d.fail(f.get("variance"), "unknown variance `%s`", tp.Variance)
		}

		for _, bound := range d.list(f, "bounds") {
			tp.Bounds = append(tp.Bounds, d.decodeTypeRef(bound))
		}

		tps = append(tps, tp)
	}

	return tps
}

// decodeParams decodes value parameters.  Only constructor parameters may
// declare properties.
func (d *decoder) decodeParams(items []*yaml.Node, isCtor bool) []*ast.Param {
	var params []*ast.Param

	for _, item := range items {
		f := d.mapping(item, "name", "type", "vararg", "default", "property")

		param := &ast.Param{
			Name:     d.str(f, "name"),
			Type:     d.decodeTypeRef(f.get("type")),
			Vararg:   d.optBool(f, "vararg"),
			Property: d.optStr(f, "property"),
		}

		if f.get("type") == nil {
			d.fail(item, "parameter %s has no type", param.Name)
		}

		switch {
		case param.Property == "":
		case !isCtor:
			d.fail(item, "only constructor parameters can declare properties")
		case param.Property != "val" && param.Property != "var":
			d.fail(f.get("property"), "expected `val` or `var`")
		}

		if v := f.value("default"); v != nil {
			param.Default = d.decodeExpr(v)
		}

		params = append(params, param)
	}

	return params
}

// optTypeRef decodes an optional type reference field.
func (d *decoder) optTypeRef(f fields, key string) *ast.TypeRef {
	if v := f.get(key); v != nil {
		return d.decodeTypeRef(v)
	}

	return nil
}

// decodeTypeRef decodes a type reference from its textual form.  A nil node
// decodes to nil.
func (d *decoder) decodeTypeRef(node *yaml.Node) *ast.TypeRef {
	if node == nil {
		return nil
	}

	tr, err := ParseTypeRef(d.scalar(node))
	if err != nil {
		d.fail(node, "%s", err)
	}

	return tr
}

// -----------------------------------------------------------------------------

// decodeStmt decodes a statement: a declaration, a return or an expression.
func (d *decoder) decodeStmt(node *yaml.Node) ast.Stmt {
	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			switch node.Content[i].Value {
			case "kind":
				return d.decodeDecl(node)
			case "return":
				f := d.mapping(node, "return")
				rs := &ast.ReturnStmt{}
				if v := f.get("return"); v != nil {
					rs.Value = d.decodeExpr(v)
				}

				return rs
			}
		}
	}

	return d.decodeExpr(node)
}

// longPattern matches the text of a `Long` literal.
var longPattern = regexp.MustCompile(`^-?(0[xX][0-9a-fA-F_]+|0[bB][01_]+|[0-9][0-9_]*)L$`)

// identPattern matches a plain identifier.
var identPattern = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_]*$`)

// decodeExpr decodes an expression.
func (d *decoder) decodeExpr(node *yaml.Node) ast.Expr {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle|yaml.LiteralStyle|yaml.FoldedStyle) != 0 {
			return &ast.StringTemplate{Quote: `"`, Entries: splitTemplateText(node.Value, false)}
		}

		return d.decodeScalar(node)
	case yaml.MappingNode:
		return d.decodeExprMapping(node)
	default:
		d.fail(node, "expected an expression")
		return nil
	}
}

// decodeScalar decodes a plain scalar as a literal or a name reference.
func (d *decoder) decodeScalar(node *yaml.Node) ast.Expr {
	switch node.ShortTag() {
	case "!!int":
		return &ast.Literal{Kind: ast.IntLit, Value: node.Value}
	case "!!float":
		if strings.ContainsAny(node.Value, "nN") {
			d.fail(node, "`%s` is not a valid floating point literal", node.Value)
		}

		return &ast.Literal{Kind: ast.DoubleLit, Value: node.Value}
	case "!!bool":
		if node.Value != "true" && node.Value != "false" {
			d.fail(node, "boolean literals must be `true` or `false`")
		}

		return &ast.Literal{Kind: ast.BoolLit, Value: node.Value}
	case "!!null":
		return &ast.Literal{Kind: ast.NullLit, Value: "null"}
	}

	switch {
	case longPattern.MatchString(node.Value):
		return &ast.Literal{Kind: ast.LongLit, Value: node.Value}
	case identPattern.MatchString(node.Value):
		return &ast.NameRef{Name: node.Value}
	}

	d.fail(node, "`%s` is not an expression", node.Value)
	return nil
}

// decodeExprMapping decodes an expression written as a mapping.  The kind of
// expression is given by which fields are present.
func (d *decoder) decodeExprMapping(node *yaml.Node) ast.Expr {
	keys := make(map[string]bool)
	for i := 0; i < len(node.Content); i += 2 {
		keys[node.Content[i].Value] = true
	}

	switch {
	case keys["call"]:
		f := d.mapping(node, "call", "of", "type-args", "args")

		call := &ast.CallExpr{
			Callee: &ast.NameRef{Name: d.str(f, "call")},
			Args:   d.decodeArgs(d.list(f, "args")),
		}

		if v := f.get("of"); v != nil {
			call.Receiver = d.decodeExpr(v)
		}

		for _, item := range d.list(f, "type-args") {
			call.TypeArgs = append(call.TypeArgs, d.decodeTypeRef(item))
		}

		return call
	case keys["name"]:
		f := d.mapping(node, "name", "of")

		ref := &ast.NameRef{Name: d.str(f, "name")}
		if v := f.get("of"); v != nil {
			ref.Receiver = d.decodeExpr(v)
		}

		return ref
	case keys["op"]:
		f := d.mapping(node, "op", "left", "right")

		op := d.str(f, "op")
		if _, ok := ast.OperatorFunctions[op]; !ok {
			d.fail(f.get("op"), "unknown operator `%s`", op)
		}

		if f.value("left") == nil || f.value("right") == nil {
			d.fail(node, "operator `%s` needs a left and a right operand", op)
		}

		return &ast.BinaryExpr{
			Op:    op,
			Left:  d.decodeExpr(f.value("left")),
			Right: d.decodeExpr(f.value("right")),
		}
	case keys["str"]:
		f := d.mapping(node, "str", "raw")

		raw := d.optBool(f, "raw")
		return &ast.StringTemplate{Quote: templateQuote(raw), Entries: splitTemplateText(d.str(f, "str"), raw)}
	case keys["template"]:
		return d.decodeTemplate(node)
	case keys["char"]:
		f := d.mapping(node, "char")
		return &ast.Literal{Kind: ast.CharLit, Value: "'" + d.str(f, "char") + "'"}
	case keys["lit"]:
		f := d.mapping(node, "lit")

		v := f.value("lit")
		if v.Kind != yaml.ScalarNode {
			d.fail(node, "expected a literal")
		}

		lit, ok := d.decodeScalar(v).(*ast.Literal)
		if !ok {
			d.fail(v, "`%s` is not a literal", v.Value)
		}

		return lit
	}

	d.fail(node, "unknown expression")
	return nil
}

// decodeTemplate decodes a string template.  Its parts are plain text,
// `{short: name}` interpolations and any other expression as a block
// interpolation.
func (d *decoder) decodeTemplate(node *yaml.Node) *ast.StringTemplate {
	f := d.mapping(node, "template", "raw")

	raw := d.optBool(f, "raw")
	tmpl := &ast.StringTemplate{Quote: templateQuote(raw)}

	for _, part := range d.list(f, "template") {
		switch {
		case part.Kind == yaml.ScalarNode && part.ShortTag() == "!!str":
			tmpl.Entries = append(tmpl.Entries, splitTemplateText(part.Value, raw)...)
		case part.Kind == yaml.MappingNode && len(part.Content) == 2 && part.Content[0].Value == "short":
			name := d.scalar(part.Content[1])
			if !identPattern.MatchString(name) {
				d.fail(part.Content[1], "`%s` is not a name", name)
			}

			tmpl.Entries = append(tmpl.Entries, &ast.TemplateEntry{Kind: ast.ShortEntry, Expr: &ast.NameRef{Name: name}})
		default:
			tmpl.Entries = append(tmpl.Entries, &ast.TemplateEntry{Kind: ast.BlockEntry, Expr: d.decodeExpr(part)})
		}
	}

	return tmpl
}

// decodeArgs decodes value arguments.  A named argument is written
// `{named: x, value: expr}`.
func (d *decoder) decodeArgs(items []*yaml.Node) []*ast.ValueArgument {
	var args []*ast.ValueArgument

	for _, item := range items {
		if item.Kind == yaml.MappingNode && len(item.Content) > 0 && item.Content[0].Value == "named" {
			f := d.mapping(item, "named", "value")

			v := f.value("value")
			if v == nil {
				d.fail(item, "named argument has no value")
			}

			args = append(args, &ast.ValueArgument{Name: d.str(f, "named"), Expr: d.decodeExpr(v)})
			continue
		}

		args = append(args, &ast.ValueArgument{Expr: d.decodeExpr(item)})
	}

	return args
}

func templateQuote(raw bool) string {
	if raw {
		return `"""`
	}

	return `"`
}

// splitTemplateText splits the source text of a template into literal and
// escape entries.  Raw strings have no escapes.
func splitTemplateText(text string, raw bool) []*ast.TemplateEntry {
	var entries []*ast.TemplateEntry

	appendLiteral := func(s string) {
		if s != "" {
			entries = append(entries, &ast.TemplateEntry{Kind: ast.LiteralEntry, Text: s})
		}
	}

	if raw {
		appendLiteral(text)
		return entries
	}

	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '\\' || i+1 == len(text) {
			continue
		}

		appendLiteral(text[start:i])

		end := i + 2
		if text[i+1] == 'u' && i+6 <= len(text) {
			end = i + 6
		}

		entries = append(entries, &ast.TemplateEntry{Kind: ast.EscapeEntry, Text: text[i:end]})
		start = end
		i = end - 1
	}

	appendLiteral(text[start:])
	return entries
}

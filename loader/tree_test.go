package loader

import (
	"os"
	"path/filepath"
	"testing"

	"kresolve/ast"
	"kresolve/syntax"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mainTree = `
package: app
imports: [kotlin.js.js, "lib.text.*", {path: lib.io, all: true}]
decls:
  - kind: fun
    name: main
    params:
      - {name: x, type: Int, default: 1}
    body:
      - kind: val
        name: code
        init: {template: ['var a = ', {short: x}, '\n']}
      - {call: js, args: [code]}
      - return:
`

func TestDecodeFileRenders(t *testing.T) {
	file, err := DecodeFile([]byte(mainTree), "main.kt.yaml")
	require.NoError(t, err)

	expected := "package app\n\n" +
		"import kotlin.js.js\n" +
		"import lib.text.*\n" +
		"import lib.io.*\n\n" +
		"fun main(x: Int = 1) {\n" +
		"    val code = \"var a = $x\\n\"\n" +
		"    js(code)\n" +
		"    return\n" +
		"}\n"

	assert.Equal(t, expected, string(syntax.Render(file)))
	assert.Equal(t, "main.kt.yaml", file.Path)
}

func TestDecodeDeclarations(t *testing.T) {
	src := `
decls:
  - kind: class
    name: Box
    visibility: internal
    annotations: [{name: Deprecated, args: ["use Crate"]}]
    type-params: [{name: T, variance: out, bounds: ["Comparable<T>"]}]
    ctor-params: [{name: value, type: T, property: val}]
    supertypes: ["Comparable<Box<T>>"]
    members:
      - kind: fun
        name: get
        returns: T
        expr: value
      - kind: var
        name: count
        type: Int
  - kind: interface
    name: Shape
    members:
      - {kind: fun, name: area, returns: Double}
  - kind: fun
    name: sum
    type-params: [T]
    receiver: List<T>
    params: [{name: xs, type: Int, vararg: true}]
    body: []
  - {kind: val, name: big, init: 12L}
`

	file, err := DecodeFile([]byte(src), "decls.kt.yaml")
	require.NoError(t, err)
	require.Len(t, file.Decls, 4)

	box := file.Decls[0].(*ast.ClassDecl)
	assert.Equal(t, "Box", box.Name)
	assert.Equal(t, "internal", box.Visibility)
	assert.False(t, box.IsInterface)
	require.Len(t, box.Annotations, 1)
	assert.Equal(t, "Deprecated", box.Annotations[0].Name)
	assert.IsType(t, &ast.StringTemplate{}, box.Annotations[0].Args[0].Expr)
	assert.Equal(t, "out", box.TypeParams[0].Variance)
	assert.Equal(t, "Comparable", box.TypeParams[0].Bounds[0].Name)
	assert.Equal(t, "val", box.CtorParams[0].Property)
	assert.Equal(t, "Box", box.Supertypes[0].Args[0].Name)

	require.Len(t, box.Members, 2)
	get := box.Members[0].(*ast.FunDecl)
	assert.Nil(t, get.Body)
	assert.Equal(t, &ast.NameRef{Name: "value"}, get.ExprBody)
	assert.True(t, box.Members[1].(*ast.PropertyDecl).IsVar)

	shape := file.Decls[1].(*ast.ClassDecl)
	assert.True(t, shape.IsInterface)
	area := shape.Members[0].(*ast.FunDecl)
	assert.Nil(t, area.Body)
	assert.Nil(t, area.ExprBody)

	sum := file.Decls[2].(*ast.FunDecl)
	assert.Equal(t, "T", sum.TypeParams[0].Name)
	assert.Equal(t, "List", sum.Receiver.Name)
	assert.True(t, sum.Params[0].Vararg)
	assert.NotNil(t, sum.Body)
	assert.Empty(t, sum.Body)

	big := file.Decls[3].(*ast.PropertyDecl)
	assert.Equal(t, &ast.Literal{Kind: ast.LongLit, Value: "12L"}, big.Initializer)
}

func TestDecodeExpressions(t *testing.T) {
	decode := func(t *testing.T, expr string) ast.Expr {
		t.Helper()

		file, err := DecodeFile([]byte("decls: [{kind: val, name: v, init: "+expr+"}]"), "expr.kt.yaml")
		require.NoError(t, err)

		return file.Decls[0].(*ast.PropertyDecl).Initializer
	}

	tests := []struct {
		src  string
		want ast.Expr
	}{
		{"42", &ast.Literal{Kind: ast.IntLit, Value: "42"}},
		{"0x1F", &ast.Literal{Kind: ast.IntLit, Value: "0x1F"}},
		{"2.5", &ast.Literal{Kind: ast.DoubleLit, Value: "2.5"}},
		{"true", &ast.Literal{Kind: ast.BoolLit, Value: "true"}},
		{"null", &ast.Literal{Kind: ast.NullLit, Value: "null"}},
		{"{lit: 7}", &ast.Literal{Kind: ast.IntLit, Value: "7"}},
		{"{char: c}", &ast.Literal{Kind: ast.CharLit, Value: "'c'"}},
		{"x", &ast.NameRef{Name: "x"}},
		{"{name: length, of: s}", &ast.NameRef{Name: "length", Receiver: &ast.NameRef{Name: "s"}}},
		{`"hi"`, &ast.StringTemplate{Quote: `"`, Entries: []*ast.TemplateEntry{{Kind: ast.LiteralEntry, Text: "hi"}}}},
		{`{str: 'a\tb', raw: true}`, &ast.StringTemplate{Quote: `"""`, Entries: []*ast.TemplateEntry{{Kind: ast.LiteralEntry, Text: `a\tb`}}}},
		{"{op: +, left: 1, right: x}", &ast.BinaryExpr{
			Op:    "+",
			Left:  &ast.Literal{Kind: ast.IntLit, Value: "1"},
			Right: &ast.NameRef{Name: "x"},
		}},
		{"{call: get, of: xs, type-args: [Int], args: [0, {named: default, value: y}]}", &ast.CallExpr{
			Receiver: &ast.NameRef{Name: "xs"},
			Callee:   &ast.NameRef{Name: "get"},
			TypeArgs: []*ast.TypeRef{{Name: "Int"}},
			Args: []*ast.ValueArgument{
				{Expr: &ast.Literal{Kind: ast.IntLit, Value: "0"}},
				{Name: "default", Expr: &ast.NameRef{Name: "y"}},
			},
		}},
		{"{template: [{op: +, left: 1, right: 2}]}", &ast.StringTemplate{Quote: `"`, Entries: []*ast.TemplateEntry{{
			Kind: ast.BlockEntry,
			Expr: &ast.BinaryExpr{Op: "+", Left: &ast.Literal{Kind: ast.IntLit, Value: "1"}, Right: &ast.Literal{Kind: ast.IntLit, Value: "2"}},
		}}}},
	}

	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			assert.Equal(t, test.want, decode(t, test.src))
		})
	}
}

func TestSplitTemplateText(t *testing.T) {
	entries := splitTemplateText(`a\n\u0041b\`, false)

	var kinds []ast.TemplateEntryKind
	var texts []string
	for _, entry := range entries {
		kinds = append(kinds, entry.Kind)
		texts = append(texts, entry.Text)
	}

	assert.Equal(t, []ast.TemplateEntryKind{ast.LiteralEntry, ast.EscapeEntry, ast.EscapeEntry, ast.LiteralEntry}, kinds)
	assert.Equal(t, []string{"a", `\n`, `\u0041`, `b\`}, texts)

	assert.Nil(t, splitTemplateText("", false))
	assert.Len(t, splitTemplateText(`\n`, true), 1)
}

func TestDecodeFileErrors(t *testing.T) {
	tests := []struct {
		name, src, err string
	}{
		{"not a mapping", "- 1", "expected a mapping"},
		{"unknown field", "pkg: app", "unknown field `pkg`"},
		{"no kind", "decls: [{name: f}]", "declaration has no kind"},
		{"unknown kind", "decls: [{kind: object, name: f}]", "unknown declaration kind `object`"},
		{"both bodies", "decls: [{kind: fun, name: f, body: [], expr: 1}]", "both a block body and an expression body"},
		{"untyped property", "decls: [{kind: val, name: v}]", "needs a type or an initializer"},
		{"bad type", "decls: [{kind: val, name: v, type: 'List<'}]", "invalid type `List<`"},
		{"bad operator", "decls: [{kind: val, name: v, init: {op: '**', left: 1, right: 2}}]", "unknown operator `**`"},
		{"member property param", "decls: [{kind: fun, name: f, params: [{name: p, type: Int, property: val}]}]", "only constructor parameters"},
		{"quoted text is a string", "decls: [{kind: val, name: v, init: 'a b'}]", ""},
		{"bad scalar", "decls: [{kind: val, name: v, init: a b}]", "`a b` is not an expression"},
		{"nan", "decls: [{kind: val, name: v, init: .nan}]", "not a valid floating point literal"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := DecodeFile([]byte(test.src), "bad.kt.yaml")
			if test.err == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), "bad.kt.yaml:")
			assert.Contains(t, err.Error(), test.err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.kt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(mainTree), 0o644))

	file, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, file.Path)
	assert.Equal(t, "app", file.Package)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.kt.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

package walk

import (
	"context"
	"testing"

	"kresolve/ast"
	"kresolve/checkers"
	"kresolve/depm"
	"kresolve/resolve"
	"kresolve/syntax"
	"kresolve/trace"
	"kresolve/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// module is a set of files declared together in the module `app`.
type module struct {
	arena    *depm.Arena
	declarer *Declarer
	files    []*SourceFile
}

// declare renders and declares files.  The arena is finalized afterwards.
func declare(t *testing.T, files ...*ast.File) *module {
	t.Helper()

	arena := depm.NewArena()
	u := depm.EnterUniverse(arena)

	chain, err := checkers.NewChain(nil)
	require.NoError(t, err)

	d := NewDeclarer(arena, u, arena.NewModule("app"), chain)

	m := &module{arena: arena, declarer: d}
	for _, file := range files {
		syntax.Render(file)
		m.files = append(m.files, d.Enter(file))
	}

	require.NoError(t, d.Declare(context.Background()))
	arena.Finalize()

	return m
}

// walk declares files and walks the bodies of the first one.
func walk(t *testing.T, files ...*ast.File) (*SourceFile, []*resolve.ResolvedCall) {
	t.Helper()

	m := declare(t, files...)

	calls, err := WalkFile(context.Background(), m.declarer.Env(), m.files[0])
	require.NoError(t, err)

	return m.files[0], calls
}

func messages(bt *trace.BindingTrace) []string {
	var msgs []string
	for _, diag := range bt.Diagnostics() {
		msgs = append(msgs, diag.Factory.Name+": "+diag.Message())
	}

	return msgs
}

// -----------------------------------------------------------------------------

func file(pkg string, decls ...ast.Decl) *ast.File {
	return &ast.File{Path: pkg + ".kt", Package: pkg, Decls: decls}
}

func fun(name string, params []*ast.Param, ret *ast.TypeRef, body ...ast.Stmt) *ast.FunDecl {
	return &ast.FunDecl{Name: name, Params: params, ReturnType: ret, Body: body}
}

func exprFun(name string, ret *ast.TypeRef, body ast.Expr, params ...*ast.Param) *ast.FunDecl {
	return &ast.FunDecl{Name: name, Params: params, ReturnType: ret, ExprBody: body}
}

func val(name string, typ *ast.TypeRef, init ast.Expr) *ast.PropertyDecl {
	return &ast.PropertyDecl{Name: name, Type: typ, Initializer: init}
}

func param(name string, typ *ast.TypeRef) *ast.Param {
	return &ast.Param{Name: name, Type: typ}
}

func typeRef(name string, args ...*ast.TypeRef) *ast.TypeRef {
	return &ast.TypeRef{Name: name, Args: args}
}

func nullable(tr *ast.TypeRef) *ast.TypeRef {
	tr.Nullable = true
	return tr
}

func name(n string) *ast.NameRef {
	return &ast.NameRef{Name: n}
}

func member(recv ast.Expr, n string) *ast.NameRef {
	return &ast.NameRef{Receiver: recv, Name: n}
}

func call(callee string, args ...ast.Expr) *ast.CallExpr {
	ce := &ast.CallExpr{Callee: name(callee)}
	for _, arg := range args {
		ce.Args = append(ce.Args, &ast.ValueArgument{Expr: arg})
	}

	return ce
}

func intLit(value string) *ast.Literal {
	return &ast.Literal{Kind: ast.IntLit, Value: value}
}

func str(text string) *ast.StringTemplate {
	return &ast.StringTemplate{
		Quote:   `"`,
		Entries: []*ast.TemplateEntry{{Kind: ast.LiteralEntry, Text: text}},
	}
}

func binary(op string, left, right ast.Expr) *ast.BinaryExpr {
	return &ast.BinaryExpr{Op: op, Left: left, Right: right}
}

// -----------------------------------------------------------------------------

func TestWalkResolvesCalls(t *testing.T) {
	greet := call("greet", str("bob"))
	printCall := call("println", greet)

	src, calls := walk(t, file("app",
		exprFun("greet", typeRef("String"), str("hi"), param("name", typeRef("String"))),
		fun("main", nil, nil, printCall),
	))

	assert.Empty(t, messages(src.Trace))
	require.Len(t, calls, 2)
	assert.Equal(t, "greet", calls[0].Candidate.Name())
	assert.Equal(t, "println", calls[1].Candidate.Name())

	ref, ok := trace.Get(src.Trace, greet.Callee, trace.Reference)
	require.True(t, ok)
	assert.Same(t, calls[0].Candidate, ref)

	typ, ok := trace.Get(src.Trace, printCall, trace.ExpressionType)
	require.True(t, ok)
	assert.True(t, types.Equals(types.UnitType, typ))
}

func TestWalkTypeMismatch(t *testing.T) {
	src, _ := walk(t, file("app",
		fun("f", []*ast.Param{param("x", typeRef("Int"))}, nil),
		fun("main", nil, nil, call("f", str("s"))),
		val("n", typeRef("Int"), str("text")),
	))

	assert.Equal(t, []string{
		"TYPE_MISMATCH: type mismatch: expected Int but got String",
		"TYPE_MISMATCH: type mismatch: expected Int but got String",
	}, messages(src.Trace))
}

func TestWalkUnresolvedReference(t *testing.T) {
	src, calls := walk(t, file("app",
		fun("main", nil, nil,
			call("foo"),
			call("println", name("bar")),
		),
	))

	assert.Equal(t, []string{
		"UNRESOLVED_REFERENCE: unresolved reference: foo",
		"UNRESOLVED_REFERENCE: unresolved reference: bar",
	}, messages(src.Trace))

	require.Len(t, calls, 1)
	assert.Equal(t, "println", calls[0].Candidate.Name())
}

func TestInferredTypes(t *testing.T) {
	// `a` is declared before the function its type depends on.
	a := exprFun("a", nil, call("b"))
	b := exprFun("b", nil, binary("+", intLit("1"), intLit("2")))
	greeting := val("greeting", nil, str("hi"))
	length := val("length", nil, member(name("greeting"), "length"))

	m := declare(t, file("app", a, b, greeting, length))
	src := m.files[0]

	for _, fd := range []*ast.FunDecl{a, b} {
		fn := declaredFunction(src.Trace, fd)
		require.NotNil(t, fn.ReturnType)
		assert.True(t, types.Equals(types.IntType, fn.ReturnType), fn.ReturnType.Repr())
	}

	assert.True(t, types.Equals(types.StringType, declaredProperty(src.Trace, greeting).Type))
	assert.True(t, types.Equals(types.IntType, declaredProperty(src.Trace, length).Type))

	// Nothing is reported until the bodies are walked.
	assert.Empty(t, messages(src.Trace))
}

func TestInferenceCycle(t *testing.T) {
	a := exprFun("a", nil, call("b"))
	b := exprFun("b", nil, call("a"))

	m := declare(t, file("app", a, b))
	fn := declaredFunction(m.files[0].Trace, a)
	assert.True(t, types.IsError(fn.ReturnType))
}

func TestConstructorCall(t *testing.T) {
	box := &ast.ClassDecl{
		Name:       "Box",
		TypeParams: []*ast.TypeParam{{Name: "T"}},
		CtorParams: []*ast.Param{{Name: "value", Type: typeRef("T"), Property: "val"}},
	}

	read := member(name("b"), "value")
	src, calls := walk(t, file("app",
		box,
		fun("main", nil, nil,
			val("b", nil, call("Box", intLit("1"))),
			val("v", typeRef("Int"), read),
		),
	))

	assert.Empty(t, messages(src.Trace))
	require.Len(t, calls, 1)
	assert.True(t, calls[0].Candidate.IsConstructor)
	assert.Equal(t, "Box<Int>", calls[0].ReturnType.Repr())

	typ, ok := trace.Get(src.Trace, read, trace.ExpressionType)
	require.True(t, ok)
	assert.True(t, types.Equals(types.IntType, typ))
}

func TestMemberFunctionsAndImplicitReceiver(t *testing.T) {
	counter := &ast.ClassDecl{
		Name:       "Counter",
		CtorParams: []*ast.Param{{Name: "start", Type: typeRef("Int")}},
		Members: []ast.Decl{
			val("count", nil, name("start")),
			exprFun("next", typeRef("Int"), binary("+", name("count"), intLit("1"))),
			exprFun("twice", typeRef("Int"), binary("+", call("next"), call("next"))),
		},
	}

	src, _ := walk(t, file("app", counter))
	assert.Empty(t, messages(src.Trace))
}

func TestUnsafeCall(t *testing.T) {
	src, _ := walk(t, file("app",
		exprFun("f", typeRef("Int"), member(name("s"), "length"), param("s", nullable(typeRef("String")))),
	))

	assert.Equal(t, []string{
		"UNSAFE_CALL: only safe calls are allowed on a nullable receiver of type String?",
	}, messages(src.Trace))
}

func TestUnsupportedOperator(t *testing.T) {
	src, _ := walk(t, file("app",
		fun("main", nil, nil, binary("&&", intLit("1"), intLit("2"))),
	))

	assert.Equal(t, []string{
		"UNSUPPORTED_OPERATOR: operator && is not supported",
	}, messages(src.Trace))
}

func TestLocalDeclarations(t *testing.T) {
	sq := exprFun("double", nil, binary("+", name("x"), name("x")), param("x", typeRef("Int")))
	y := val("y", nil, call("double", intLit("3")))

	src, calls := walk(t, file("app",
		fun("main", nil, typeRef("Int"),
			sq,
			y,
			&ast.ReturnStmt{Value: name("y")},
		),
	))

	assert.Empty(t, messages(src.Trace))
	require.NotEmpty(t, calls)

	d, ok := trace.Get(src.Trace, y, trace.Declaration)
	require.True(t, ok)
	local := d.(*depm.PropertyDescriptor)
	assert.True(t, local.IsLocal)
	assert.True(t, types.Equals(types.IntType, local.Type))
}

func TestReturnMismatch(t *testing.T) {
	src, _ := walk(t, file("app",
		fun("main", nil, typeRef("Int"), &ast.ReturnStmt{Value: str("s")}),
		fun("unit", nil, nil, &ast.ReturnStmt{}),
	))

	assert.Equal(t, []string{
		"TYPE_MISMATCH: type mismatch: expected Int but got String",
	}, messages(src.Trace))
}

func TestLocalClassIsInternalError(t *testing.T) {
	src, _ := walk(t, file("app",
		fun("main", nil, nil, &ast.ClassDecl{Name: "Local"}),
	))

	assert.Equal(t, []string{
		"INTERNAL_ERROR: internal error: local classes are not supported",
	}, messages(src.Trace))
}

func TestConstantsAndJsCode(t *testing.T) {
	tmpl := &ast.StringTemplate{
		Quote: `"`,
		Entries: []*ast.TemplateEntry{
			{Kind: ast.LiteralEntry, Text: "var x = "},
			{Kind: ast.BlockEntry, Expr: binary("+", name("n"), intLit("1"))},
			{Kind: ast.LiteralEntry, Text: ";"},
		},
	}

	src, calls := walk(t, file("app",
		val("n", nil, intLit("41")),
		val("code", nil, str("var y;")),
		fun("main", nil, nil,
			call("js", tmpl),
			call("js", str("var = ;")),
			call("js", name("code")),
		),
	))

	var jsCalls int
	for _, c := range calls {
		if c.Candidate.Intrinsic == depm.JsIntrinsic {
			jsCalls++
		}
	}
	assert.Equal(t, 3, jsCalls)

	value, ok := trace.Get(src.Trace, tmpl, trace.CompileTimeValue)
	require.True(t, ok)
	assert.Equal(t, "var x = 42;", value)

	msgs := messages(src.Trace)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0], "JSCODE_ERROR: JavaScript: ")
	assert.Equal(t, "JSCODE_ARGUMENT_SHOULD_BE_LITERAL: argument must be string literal", msgs[1])
}

func TestImports(t *testing.T) {
	app := file("app", fun("main", nil, nil, call("helper")))
	app.Imports = []*ast.Import{{Path: "lib.helper"}, {Path: "lib.missing"}, {Path: "nowhere", All: true}}

	lib := file("lib", exprFun("helper", nil, intLit("1")))

	src, calls := walk(t, app, lib)

	assert.Equal(t, []string{
		"UNRESOLVED_REFERENCE: unresolved reference: nowhere",
		"UNRESOLVED_REFERENCE: unresolved reference: lib.missing",
	}, messages(src.Trace))

	require.Len(t, calls, 1)
	assert.Equal(t, "helper", calls[0].Candidate.Name())
}

func TestDeclarationErrors(t *testing.T) {
	m := declare(t, file("app",
		&ast.ClassDecl{Name: "A", Supertypes: []*ast.TypeRef{typeRef("B")}},
		&ast.ClassDecl{Name: "B", Supertypes: []*ast.TypeRef{typeRef("A")}},
		&ast.ClassDecl{Name: "A"},
		&ast.PropertyDecl{Name: "x"},
		&ast.PropertyDecl{Modifiers: ast.Modifiers{Visibility: "open"}, Name: "y", Type: typeRef("Int")},
		val("xs", typeRef("List", typeRef("Int"), typeRef("Int")), nil),
		val("z", typeRef("Missing"), nil),
	))

	var names []string
	for _, diag := range m.files[0].Trace.Diagnostics() {
		names = append(names, diag.Factory.Name)
	}

	assert.ElementsMatch(t, []string{
		"REDECLARATION",
		"CYCLIC_INHERITANCE_HIERARCHY",
		"PROPERTY_WITH_NO_TYPE_NO_INITIALIZER",
		"ILLEGAL_MODIFIER",
		"WRONG_NUMBER_OF_TYPE_ARGUMENTS",
		"UNRESOLVED_REFERENCE",
	}, names)
}

func TestWalkCancelled(t *testing.T) {
	m := declare(t, file("app", fun("main", nil, nil, call("println"))))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WalkFile(ctx, m.declarer.Env(), m.files[0])
	assert.ErrorIs(t, err, context.Canceled)

	// A cancelled walk leaves the trace as it was so the file can be walked
	// again.
	calls, err := WalkFile(context.Background(), m.declarer.Env(), m.files[0])
	require.NoError(t, err)
	assert.Len(t, calls, 1)
	assert.Empty(t, m.files[0].Trace.Diagnostics())
}

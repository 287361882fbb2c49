package checkers

import (
	"context"
	"math"
	"strings"
	"testing"

	"kresolve/ast"
	"kresolve/depm"
	"kresolve/report"
	"kresolve/resolve"
	"kresolve/syntax"
	"kresolve/trace"
	"kresolve/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	arena    *depm.Arena
	universe *depm.Universe
	app, lib *depm.PackageDescriptor
	other    *depm.PackageDescriptor
}

func newFixture() *fixture {
	arena := depm.NewArena()
	u := depm.EnterUniverse(arena)

	mod := arena.NewModule("app")
	otherMod := arena.NewModule("other")

	return &fixture{
		arena:    arena,
		universe: u,
		app:      arena.NewPackage(mod, "app"),
		lib:      arena.NewPackage(mod, "lib"),
		other:    arena.NewPackage(otherMod, "other"),
	}
}

func (fx *fixture) fn(container depm.Descriptor, name string, vis depm.Visibility) *depm.FunctionDescriptor {
	return fx.arena.NewFunction(container, depm.FunctionSpec{
		Name:       name,
		Visibility: vis,
		ReturnType: types.UnitType,
	})
}

// check runs the named checker on a call to fd made from scope in the app
// package.
func (fx *fixture) check(checker CallChecker, fd *depm.FunctionDescriptor, scope *depm.LexicalScope) *trace.BindingTrace {
	fx.arena.Finalize()

	bt := trace.New()
	checker.Check(resolvedCall(fd, &ast.CallExpr{}), &CheckContext{
		Ctx:     context.Background(),
		Trace:   bt,
		Arena:   fx.arena,
		Scope:   scope,
		Module:  fx.arena.ModuleOf(fx.app),
		Package: fx.app,
	})

	return bt
}

func resolvedCall(fd *depm.FunctionDescriptor, node *ast.CallExpr) *resolve.ResolvedCall {
	if node.Callee == nil {
		node.Callee = &ast.NameRef{Name: fd.Name()}
	}

	return &resolve.ResolvedCall{
		Call: &resolve.Call{
			Node:   node,
			Callee: node.Callee,
			Name:   fd.Name(),
		},
		Candidate:  fd,
		Descriptor: fd,
		ReturnType: fd.ReturnType,
	}
}

func messages(bt *trace.BindingTrace) []string {
	var msgs []string
	for _, diag := range bt.Diagnostics() {
		msgs = append(msgs, diag.Factory.Name+": "+diag.Message())
	}

	return msgs
}

// -----------------------------------------------------------------------------

func TestNewChain(t *testing.T) {
	chain, err := NewChain(nil)
	require.NoError(t, err)
	require.Len(t, chain, 3)
	assert.IsType(t, &VisibilityChecker{}, chain[0])
	assert.IsType(t, &DeprecationChecker{}, chain[1])
	assert.IsType(t, &JsCodeChecker{}, chain[2])

	chain, err = NewChain([]string{"jscode", "visibility"})
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.IsType(t, &JsCodeChecker{}, chain[0])
	assert.IsType(t, &VisibilityChecker{}, chain[1])

	_, err = NewChain([]string{"visibility", "nullability"})
	assert.EqualError(t, err, "unknown call checker `nullability`")

	_, err = NewChain([]string{"jscode", "jscode"})
	assert.EqualError(t, err, "call checker `jscode` is listed more than once")
}

// recordingChecker records the order checkers run in.
type recordingChecker struct {
	name string
	log  *[]string
}

func (rc *recordingChecker) Check(call *resolve.ResolvedCall, cctx *CheckContext) {
	*rc.log = append(*rc.log, rc.name)
}

func TestChainOrder(t *testing.T) {
	var log []string
	chain := Chain{
		&recordingChecker{name: "b", log: &log},
		&recordingChecker{name: "a", log: &log},
		&recordingChecker{name: "c", log: &log},
	}

	fx := newFixture()
	fd := fx.fn(fx.app, "f", depm.Public)
	chain.Check(resolvedCall(fd, &ast.CallExpr{}), &CheckContext{Ctx: context.Background(), Trace: trace.New(), Arena: fx.arena})

	assert.Equal(t, []string{"b", "a", "c"}, log)
}

// -----------------------------------------------------------------------------

func TestVisibilityTopLevel(t *testing.T) {
	tests := []struct {
		name     string
		pkg      func(fx *fixture) *depm.PackageDescriptor
		vis      depm.Visibility
		expected []string
	}{
		{"public elsewhere", func(fx *fixture) *depm.PackageDescriptor { return fx.other }, depm.Public, nil},
		{"private same package", func(fx *fixture) *depm.PackageDescriptor { return fx.app }, depm.Private, nil},
		{
			"private other package",
			func(fx *fixture) *depm.PackageDescriptor { return fx.lib },
			depm.Private,
			[]string{"INVISIBLE_MEMBER: cannot access f: it is private in package lib"},
		},
		{"internal same module", func(fx *fixture) *depm.PackageDescriptor { return fx.lib }, depm.Internal, nil},
		{
			"internal other module",
			func(fx *fixture) *depm.PackageDescriptor { return fx.other },
			depm.Internal,
			[]string{"INVISIBLE_MEMBER: cannot access f: it is internal in package other"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fx := newFixture()
			fd := fx.fn(test.pkg(fx), "f", test.vis)

			bt := fx.check(&VisibilityChecker{}, fd, depm.NewLexicalScope(nil, nil))
			assert.Equal(t, test.expected, messages(bt))
		})
	}
}

func TestVisibilityMembers(t *testing.T) {
	fx := newFixture()

	base := fx.arena.NewClass(fx.lib, "Base", depm.Public, nil)
	secret := fx.fn(base, "secret", depm.Private)
	helper := fx.fn(base, "helper", depm.Protected)
	inside := fx.fn(base, "inside", depm.Public)

	derived := fx.arena.NewClass(fx.app, "Derived", depm.Public, nil)
	require.NoError(t, fx.arena.SetSupertypes(derived, []types.Type{base.DefaultType()}))
	method := fx.fn(derived, "method", depm.Public)

	unrelated := fx.arena.NewClass(fx.app, "Unrelated", depm.Public, nil)
	other := fx.fn(unrelated, "other", depm.Public)

	fx.arena.Finalize()

	scopeIn := func(owner depm.Descriptor) *depm.LexicalScope {
		return depm.NewLexicalScope(depm.NewLexicalScope(nil, nil), owner)
	}

	tests := []struct {
		name     string
		callee   *depm.FunctionDescriptor
		owner    depm.Descriptor
		expected []string
	}{
		{"private inside its class", secret, inside, nil},
		{"private from a subclass", secret, method, []string{"INVISIBLE_MEMBER: cannot access secret: it is private in class Base"}},
		{"protected from a subclass", helper, method, nil},
		{"protected inside its class", helper, inside, nil},
		{"protected from elsewhere", helper, other, []string{"INVISIBLE_MEMBER: cannot access helper: it is protected in class Base"}},
		{"protected from top level", helper, nil, []string{"INVISIBLE_MEMBER: cannot access helper: it is protected in class Base"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			bt := trace.New()
			(&VisibilityChecker{}).Check(resolvedCall(test.callee, &ast.CallExpr{}), &CheckContext{
				Ctx:     context.Background(),
				Trace:   bt,
				Arena:   fx.arena,
				Scope:   scopeIn(test.owner),
				Module:  fx.arena.ModuleOf(fx.app),
				Package: fx.app,
			})

			assert.Equal(t, test.expected, messages(bt))
		})
	}
}

func TestVisibilityConstructor(t *testing.T) {
	fx := newFixture()

	box := fx.arena.NewClass(fx.lib, "Box", depm.Private, nil)
	ctor := fx.arena.NewFunction(box, depm.FunctionSpec{
		Name:          "Box",
		IsConstructor: true,
		ReturnType:    box.DefaultType(),
	})

	bt := fx.check(&VisibilityChecker{}, ctor, depm.NewLexicalScope(nil, nil))
	assert.Equal(t, []string{"INVISIBLE_MEMBER: cannot access Box: it is private in package lib"}, messages(bt))
}

func TestVisibilityLocalFunction(t *testing.T) {
	fx := newFixture()
	local := depm.NewLocalFunction(depm.NoDescriptor, depm.FunctionSpec{
		Name:       "local",
		Visibility: depm.Private,
		ReturnType: types.UnitType,
	})

	bt := fx.check(&VisibilityChecker{}, local, depm.NewLexicalScope(nil, nil))
	assert.Empty(t, bt.Diagnostics())
}

// -----------------------------------------------------------------------------

func TestDeprecation(t *testing.T) {
	fx := newFixture()
	old := fx.arena.NewFunction(fx.app, depm.FunctionSpec{
		Name:               "old",
		ReturnType:         types.UnitType,
		Deprecated:         true,
		DeprecationMessage: "use new",
	})
	fresh := fx.fn(fx.app, "new", depm.Public)

	bt := fx.check(&DeprecationChecker{}, old, nil)
	require.Len(t, bt.Diagnostics(), 1)

	diag := bt.Diagnostics()[0]
	assert.Equal(t, report.SeverityWarning, diag.Severity())
	assert.Equal(t, "fun old(): Unit is deprecated: use new", diag.Message())

	bt = trace.New()
	(&DeprecationChecker{}).Check(resolvedCall(fresh, &ast.CallExpr{}), &CheckContext{Trace: bt, Arena: fx.arena})
	assert.Empty(t, bt.Diagnostics())
}

// -----------------------------------------------------------------------------

// templateConstants evaluates string templates whose interpolations name
// known constants.
type templateConstants map[string]any

func (tc templateConstants) Evaluate(expr ast.Expr, expected types.Type) (any, bool) {
	switch v := expr.(type) {
	case *ast.NameRef:
		value, ok := tc[v.Name]
		return value, ok
	case *ast.StringTemplate:
		sb := strings.Builder{}
		for _, entry := range v.Entries {
			switch entry.Kind {
			case ast.LiteralEntry:
				sb.WriteString(entry.Text)
			case ast.EscapeEntry:
				value, _ := syntax.Unescape(entry.Text)
				sb.WriteString(value)
			default:
				value, ok := tc.Evaluate(entry.Expr, nil)
				if !ok {
					return nil, false
				}

				sb.WriteString(value.(string))
			}
		}

		return sb.String(), true
	default:
		return nil, false
	}
}

// jsCall renders a file calling `js` with the given argument and returns the
// call expression along with the file's line index.
func jsCall(arg ast.Expr) (*ast.CallExpr, *report.LineIndex, string) {
	call := &ast.CallExpr{
		Callee: &ast.NameRef{Name: "js"},
		Args:   []*ast.ValueArgument{{Expr: arg}},
	}

	file := &ast.File{
		Package: "app",
		Decls: []ast.Decl{
			&ast.FunDecl{Name: "main", Body: []ast.Stmt{call}},
		},
	}

	text := syntax.Render(file)
	return call, report.NewLineIndex(text), string(text)
}

func (fx *fixture) checkJs(call *ast.CallExpr, lines *report.LineIndex, inAnnotation bool) *trace.BindingTrace {
	fx.arena.Finalize()

	js := fx.arena.LookupPackageMembers(fx.universe.JS, "js")[0].(*depm.FunctionDescriptor)

	bt := trace.New()
	(&JsCodeChecker{}).Check(resolvedCall(js, call), &CheckContext{
		Ctx:          context.Background(),
		Trace:        bt,
		Arena:        fx.arena,
		Package:      fx.app,
		InAnnotation: inAnnotation,
		Constants:    templateConstants{"name": "x"},
		Lines:        lines,
	})

	return bt
}

func literal(text string) *ast.StringTemplate {
	return &ast.StringTemplate{
		Quote:   `"`,
		Entries: []*ast.TemplateEntry{{Kind: ast.LiteralEntry, Text: text}},
	}
}

func TestJsCodeValid(t *testing.T) {
	fx := newFixture()

	tmpl := &ast.StringTemplate{
		Quote: `"`,
		Entries: []*ast.TemplateEntry{
			{Kind: ast.LiteralEntry, Text: "var "},
			{Kind: ast.ShortEntry, Expr: &ast.NameRef{Name: "name"}},
			{Kind: ast.LiteralEntry, Text: " = "},
			{Kind: ast.EscapeEntry, Text: `\"`},
			{Kind: ast.LiteralEntry, Text: "a"},
			{Kind: ast.EscapeEntry, Text: `\"`},
			{Kind: ast.LiteralEntry, Text: ";"},
		},
	}

	call, lines, _ := jsCall(tmpl)
	bt := fx.checkJs(call, lines, false)
	assert.Empty(t, bt.Diagnostics())
}

func TestJsCodeArgumentShouldBeLiteral(t *testing.T) {
	t.Run("not a template", func(t *testing.T) {
		fx := newFixture()

		call, lines, _ := jsCall(&ast.NameRef{Name: "name"})
		bt := fx.checkJs(call, lines, false)

		require.Len(t, bt.Diagnostics(), 1)
		diag := bt.Diagnostics()[0]
		assert.Same(t, JsCodeArgumentShouldBeLiteral, diag.Factory)
		assert.Equal(t, call.Span(), diag.Span())
	})

	t.Run("non-constant interpolation", func(t *testing.T) {
		fx := newFixture()

		// The code would not parse either but only the literal rule applies.
		tmpl := &ast.StringTemplate{
			Quote: `"`,
			Entries: []*ast.TemplateEntry{
				{Kind: ast.LiteralEntry, Text: "var = "},
				{Kind: ast.BlockEntry, Expr: &ast.NameRef{Name: "unknown"}},
			},
		}

		call, lines, _ := jsCall(tmpl)
		bt := fx.checkJs(call, lines, false)

		assert.Equal(t, []string{"JSCODE_ARGUMENT_SHOULD_BE_LITERAL: argument must be string literal"}, messages(bt))
	})
}

func TestJsCodeSyntaxError(t *testing.T) {
	fx := newFixture()

	tmpl := literal("var a = ;\nfoo(")
	call, lines, text := jsCall(tmpl)
	bt := fx.checkJs(call, lines, false)

	require.Len(t, bt.Diagnostics(), 1)
	diag := bt.Diagnostics()[0]
	assert.Same(t, JsCodeError, diag.Factory)
	assert.True(t, strings.HasPrefix(diag.Message(), "JavaScript: "))

	// The diagnostic points at a single character of the template's contents.
	span := diag.Span()
	assert.Equal(t, 1, span.Len())
	assert.Greater(t, span.StartOffset, tmpl.Span().StartOffset)
	assert.Less(t, span.StartOffset, tmpl.Span().EndOffset)

	line, col := lines.Position(span.StartOffset)
	assert.Equal(t, line, span.StartLine)
	assert.Equal(t, col, span.StartCol)
	assert.NotEmpty(t, text[span.StartOffset:span.EndOffset])
}

func TestJsCodeInAnnotation(t *testing.T) {
	fx := newFixture()

	call, lines, _ := jsCall(&ast.NameRef{Name: "name"})
	bt := fx.checkJs(call, lines, true)
	assert.Empty(t, bt.Diagnostics())
}

func TestJsCodeOtherFunction(t *testing.T) {
	fx := newFixture()
	printFn := fx.arena.LookupPackageMembers(fx.universe.Kotlin, "println")[0].(*depm.FunctionDescriptor)
	fx.arena.Finalize()

	call, _, _ := jsCall(&ast.NameRef{Name: "name"})
	bt := trace.New()
	(&JsCodeChecker{}).Check(resolvedCall(printFn, call), &CheckContext{Ctx: context.Background(), Trace: bt, Arena: fx.arena})
	assert.Empty(t, bt.Diagnostics())
}

// -----------------------------------------------------------------------------

func TestOffsetFromStart(t *testing.T) {
	code := "ab\ncde\n\nf"

	tests := []struct {
		line, col int
		expected  int
	}{
		{0, 0, 0},
		{0, 2, 2},
		{1, 0, 3},
		{1, 2, 5},
		{2, 0, 7},
		{3, 0, 8},
		{3, 1, 9},
		{7, 0, 9},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, offsetFromStart(code, test.line, test.col), "line %d col %d", test.line, test.col)
	}
}

func TestSourceOffset(t *testing.T) {
	// `"a\n${x}b"` where x is `xyz`, starting at offset 10.
	entry := func(kind ast.TemplateEntryKind, text string, start, end int) *ast.TemplateEntry {
		te := &ast.TemplateEntry{Kind: kind, Text: text}
		te.SetSpan(&report.TextSpan{StartOffset: start, EndOffset: end})
		return te
	}

	tmpl := &ast.StringTemplate{
		Quote: `"`,
		Entries: []*ast.TemplateEntry{
			entry(ast.LiteralEntry, "a", 11, 12),
			entry(ast.EscapeEntry, `\n`, 12, 14),
			entry(ast.BlockEntry, "", 14, 18),
			entry(ast.LiteralEntry, "b", 18, 19),
		},
	}
	tmpl.SetSpan(&report.TextSpan{StartOffset: 10, EndOffset: 20})

	values := []string{"a", "\n", "xyz", "b"}

	tests := []struct {
		valueOffset int
		expected    int
	}{
		{0, 11},
		{1, 12},
		{2, 14},
		{3, 14},
		{4, 14},
		{5, 18},
		{6, 19},
		{42, 19},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, sourceOffset(tmpl, values, test.valueOffset), "value offset %d", test.valueOffset)
	}
}

func TestConstantString(t *testing.T) {
	tests := []struct {
		value    any
		expected string
	}{
		{nil, "null"},
		{"text", "text"},
		{Char('c'), "c"},
		{true, "true"},
		{int32(-12), "-12"},
		{int64(1) << 40, "1099511627776"},
		{2.5, "2.5"},
		{3.0, "3.0"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, ConstantString(test.value), "%#v", test.value)
	}
}

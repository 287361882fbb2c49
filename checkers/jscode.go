package checkers

import (
	"fmt"

	"kresolve/ast"
	"kresolve/depm"
	"kresolve/report"
	"kresolve/resolve"
	"kresolve/syntax"
	"kresolve/types"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// The diagnostics reported for embedded JavaScript code.
var (
	JsCodeArgumentShouldBeLiteral = report.NewFactory(
		"JSCODE_ARGUMENT_SHOULD_BE_LITERAL",
		report.SeverityError,
		"argument must be string literal",
	)

	JsCodeError = report.NewFactory(
		"JSCODE_ERROR",
		report.SeverityError,
		"JavaScript: %s",
	)
)

// JsCodeChecker validates the code passed to the `js` intrinsic: it must be a
// constant string and it must be syntactically valid JavaScript.
type JsCodeChecker struct{}

func (jc *JsCodeChecker) Check(call *resolve.ResolvedCall, cctx *CheckContext) {
	if cctx.InAnnotation || call.Descriptor.Original().Intrinsic != depm.JsIntrinsic {
		return
	}

	callExpr, ok := call.Call.Node.(*ast.CallExpr)
	if !ok || len(callExpr.Args) == 0 {
		return
	}

	tmpl, ok := callExpr.Args[0].Expr.(*ast.StringTemplate)
	if !ok {
		cctx.Trace.Report(JsCodeArgumentShouldBeLiteral.On(callExpr))
		return
	}

	value, ok := cctx.Constants.Evaluate(tmpl, types.StringType)
	code, isString := value.(string)
	if !ok || !isString {
		cctx.Trace.Report(JsCodeArgumentShouldBeLiteral.On(callExpr))
		return
	}

	jc.checkSyntax(tmpl, code, cctx)
}

// checkSyntax parses the code and reports its first syntax error, if any.
func (jc *JsCodeChecker) checkSyntax(tmpl *ast.StringTemplate, code string, cctx *CheckContext) {
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(cctx.Ctx, nil, []byte(code))
	if err != nil {
		if cctx.Ctx.Err() != nil {
			report.Abort(cctx.Ctx.Err())
		}

		report.Raise(tmpl.Span(), "failed to parse embedded JavaScript: %s", err)
	}

	errNode := firstSyntaxError(tree.RootNode())
	if errNode == nil {
		return
	}

	point := errNode.StartPoint()
	codeOffset := offsetFromStart(code, int(point.Row), int(point.Column))

	offset := sourceOffset(tmpl, jc.entryValues(tmpl, cctx), codeOffset)
	var span *report.TextSpan
	if cctx.Lines != nil {
		span = cctx.Lines.Span(offset, offset+1)
	} else {
		span = &report.TextSpan{StartOffset: offset, EndOffset: offset + 1}
	}

	cctx.Trace.Report(JsCodeError.OnSpans(tmpl, []*report.TextSpan{span}, syntaxErrorMessage(errNode, code)))
}

// entryValues returns the value each entry of a constant template contributes
// to the template's value.
func (jc *JsCodeChecker) entryValues(tmpl *ast.StringTemplate, cctx *CheckContext) []string {
	values := make([]string, len(tmpl.Entries))

	for i, entry := range tmpl.Entries {
		switch entry.Kind {
		case ast.LiteralEntry:
			values[i] = entry.Text
		case ast.EscapeEntry:
			values[i], _ = syntax.Unescape(entry.Text)
		default:
			if value, ok := cctx.Constants.Evaluate(entry.Expr, nil); ok {
				values[i] = ConstantString(value)
			}
		}
	}

	return values
}

// -----------------------------------------------------------------------------

// firstSyntaxError returns the first error or missing node of a tree in
// document order.
func firstSyntaxError(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}

	if !node.HasError() {
		return nil
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		if found := firstSyntaxError(node.Child(i)); found != nil {
			return found
		}
	}

	return nil
}

// syntaxErrorMessage describes a syntax error node.
func syntaxErrorMessage(node *sitter.Node, code string) string {
	if node.IsMissing() {
		return fmt.Sprintf("missing %s", node.Type())
	}

	start, end := int(node.StartByte()), int(node.EndByte())
	if start >= len(code) {
		return "unexpected end of input"
	}

	// Only the first line of the unexpected text is shown.
	end = min(end, len(code))
	for i := start; i < end; i++ {
		if code[i] == '\n' {
			end = i
			break
		}
	}

	return fmt.Sprintf("unexpected `%s`", code[start:end])
}

// offsetFromStart calculates the offset from the start of text of a position
// given by its line and its byte offset within that line.
func offsetFromStart(text string, line, col int) int {
	lineCount, offsetInLine := 0, 0

	for i := 0; i < len(text); i++ {
		if lineCount == line && offsetInLine == col {
			return i
		}

		if text[i] == '\n' {
			lineCount++
			offsetInLine = 0
		} else {
			offsetInLine++
		}
	}

	return len(text)
}

// sourceOffset maps an offset into the value of a template to the absolute
// offset in the source text of the character that produced it.  Characters
// produced by an escape sequence or an interpolation map to the start of their
// entry.  An offset past the end of the value maps to the closing quote.
func sourceOffset(tmpl *ast.StringTemplate, values []string, valueOffset int) int {
	pos := 0
	for i, entry := range tmpl.Entries {
		if valueOffset < pos+len(values[i]) {
			if entry.Kind == ast.LiteralEntry {
				return ast.TextOffset(entry) + valueOffset - pos
			}

			return ast.TextOffset(entry)
		}

		pos += len(values[i])
	}

	quote := tmpl.Quote
	if quote == "" {
		quote = `"`
	}

	return tmpl.Span().EndOffset - len(quote)
}

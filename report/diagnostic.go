package report

import (
	"fmt"
	"html"
	"strings"
)

// Severity is the severity of a diagnostic.
type Severity int

// Enumeration of diagnostic severities.
const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}

	return "error"
}

// Spanned is anything that occupies a range of source text: usually a syntax
// node.  Diagnostics are attached to a spanned element.
type Spanned interface {
	Span() *TextSpan
}

// Renderable is implemented by diagnostic parameters that know how to
// represent themselves in a message (types, descriptors, etc.).
type Renderable interface {
	Repr() string
}

// List is a diagnostic parameter rendered as a bulleted list.
type List []string

// -----------------------------------------------------------------------------

// Factory identifies a kind of diagnostic.  Factories are created once and
// compared by identity.
type Factory struct {
	// The unique name of the diagnostic kind: eg. `UNRESOLVED_REFERENCE`.
	Name string

	// The severity of all diagnostics produced by the factory.
	Severity Severity

	// The message format.  It contains one `%s` verb per parameter.
	Format string
}

// NewFactory creates a new diagnostic factory.
func NewFactory(name string, severity Severity, format string) *Factory {
	return &Factory{Name: name, Severity: severity, Format: format}
}

// On creates a diagnostic of this kind reported on the whole element.
func (f *Factory) On(elem Spanned, params ...any) *Diagnostic {
	return &Diagnostic{
		Factory: f,
		Element: elem,
		Spans:   []*TextSpan{elem.Span()},
		Params:  params,
	}
}

// OnSpans creates a diagnostic of this kind attached to the element but
// highlighting the given spans instead of the element's own range.
func (f *Factory) OnSpans(elem Spanned, spans []*TextSpan, params ...any) *Diagnostic {
	return &Diagnostic{
		Factory: f,
		Element: elem,
		Spans:   spans,
		Params:  params,
	}
}

// -----------------------------------------------------------------------------

// Diagnostic is a single reported error or warning.  Diagnostics are immutable
// once created.
type Diagnostic struct {
	// The kind of diagnostic.
	Factory *Factory

	// The element the diagnostic was reported on.
	Element Spanned

	// The highlighted ranges: there is always at least one.
	Spans []*TextSpan

	// The kind-specific message parameters.
	Params []any
}

// Severity returns the diagnostic's severity.
func (d *Diagnostic) Severity() Severity {
	return d.Factory.Severity
}

// IsError returns whether the diagnostic is an error.
func (d *Diagnostic) IsError() bool {
	return d.Factory.Severity == SeverityError
}

// Span returns the primary range of the diagnostic.
func (d *Diagnostic) Span() *TextSpan {
	return d.Spans[0]
}

// Message renders the diagnostic as a plain-text message.
func (d *Diagnostic) Message() string {
	args := make([]any, len(d.Params))
	for i, param := range d.Params {
		args[i] = renderParam(param)
	}

	return fmt.Sprintf(d.Factory.Format, args...)
}

// HTMLMessage renders the diagnostic as a structured (HTML) message for use by
// tooling.
func (d *Diagnostic) HTMLMessage() string {
	args := make([]any, len(d.Params))
	for i, param := range d.Params {
		args[i] = renderParamHTML(param)
	}

	return fmt.Sprintf(html.EscapeString(d.Factory.Format), args...)
}

func (d *Diagnostic) String() string {
	span := d.Span()
	return fmt.Sprintf("%d:%d: %s: %s", span.StartLine+1, span.StartCol+1, d.Factory.Severity, d.Message())
}

// renderParam renders a single parameter as plain text.
func renderParam(param any) string {
	switch v := param.(type) {
	case string:
		return v
	case List:
		sb := strings.Builder{}
		for _, item := range v {
			sb.WriteString("\n  ")
			sb.WriteString(item)
		}

		return sb.String()
	case Renderable:
		return v.Repr()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// renderParamHTML renders a single parameter as escaped HTML.
func renderParamHTML(param any) string {
	if list, ok := param.(List); ok {
		sb := strings.Builder{}
		sb.WriteString("<ul>")
		for _, item := range list {
			sb.WriteString("<li>")
			sb.WriteString(html.EscapeString(item))
			sb.WriteString("</li>")
		}
		sb.WriteString("</ul>")

		return sb.String()
	}

	return "<b>" + html.EscapeString(renderParam(param)) + "</b>"
}

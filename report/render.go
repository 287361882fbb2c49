package report

import (
	"html"
	"strings"
)

// UnderlineAsText renders src with the half-open range [from, to) marked by a
// line of carets beneath every line it touches.  Lines the range does not touch
// are printed unchanged.
func UnderlineAsText(src string, from, to int) string {
	sb := strings.Builder{}

	lineStart := 0
	for lineStart <= len(src) {
		lineEnd := strings.IndexByte(src[lineStart:], '\n')
		if lineEnd < 0 {
			lineEnd = len(src)
		} else {
			lineEnd += lineStart
		}

		line := src[lineStart:lineEnd]
		sb.WriteString(line)
		sb.WriteByte('\n')

		// Build the marker line for the selected portion of this line.
		if from < lineEnd && to > lineStart {
			markStart := max(from, lineStart) - lineStart
			markEnd := min(to, lineEnd) - lineStart

			for i := 0; i < markStart; i++ {
				if line[i] == '\t' {
					sb.WriteByte('\t')
				} else {
					sb.WriteByte(' ')
				}
			}

			sb.WriteString(strings.Repeat("^", markEnd-markStart))
			sb.WriteByte('\n')
		}

		lineStart = lineEnd + 1
	}

	return sb.String()
}

// UnderlineAsHTML renders src as escaped HTML with the half-open range [from,
// to) wrapped in an underline tag.
func UnderlineAsHTML(src string, from, to int) string {
	from = clamp(from, 0, len(src))
	to = clamp(to, from, len(src))

	sb := strings.Builder{}
	sb.WriteString(html.EscapeString(src[:from]))
	sb.WriteString("<u>")
	sb.WriteString(html.EscapeString(src[from:to]))
	sb.WriteString("</u>")
	sb.WriteString(html.EscapeString(src[to:]))

	return strings.ReplaceAll(sb.String(), "\n", "<br/>\n")
}

func clamp(n, lo, hi int) int {
	return min(max(n, lo), hi)
}

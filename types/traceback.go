package types

import (
	"strings"
)

// buildTraceback builds the message of an inference error: the failure reason
// followed by the bounds which were collected for the type parameter.
func buildTraceback(ie *InferenceError) string {
	sb := strings.Builder{}

	sb.WriteString("cannot infer type argument ")
	sb.WriteString(ie.Param.Name)
	if ie.Param.Owner != "" {
		sb.WriteString(" of ")
		sb.WriteString(ie.Param.Owner)
	}
	sb.WriteString(": ")
	sb.WriteString(ie.Reason)

	// If no bounds were collected, there is nothing more to show.
	if ie.bounds == nil || (!ie.bounds.constrained() && len(ie.Param.UpperBounds) == 0) {
		return sb.String()
	}

	sb.WriteString("\ninvolving the following bounds:\n")
	sb.WriteString("  ")
	sb.WriteString(ie.Param.Name)
	sb.WriteRune('\n')

	buildBoundList(&sb, "declared upper", ie.Param.UpperBounds)
	buildBoundList(&sb, "upper", ie.bounds.Upper)
	buildBoundList(&sb, "lower", ie.bounds.Lower)
	buildBoundList(&sb, "exact", ie.bounds.Equal)

	return strings.TrimSuffix(sb.String(), "\n")
}

// buildBoundList builds one kind of bound list in a traceback.
func buildBoundList(sb *strings.Builder, kind string, bounds []Type) {
	if len(bounds) == 0 {
		return
	}

	sb.WriteString("    -> ")
	sb.WriteString(kind)
	sb.WriteString(" bounds:\n")

	// Print the leading indentation (7 spaces) of the first line.
	sb.WriteString("       ")

	// Keep track of the length of the line so we know when to wrap.
	lineLen := 0

	for i, bound := range bounds {
		boundRepr := bound.Repr()

		if lineLen > 0 && lineLen+len(boundRepr) > 64 {
			sb.WriteString("\n       ")
			lineLen = 0
		}

		sb.WriteString(boundRepr)
		lineLen += len(boundRepr)

		if i != len(bounds)-1 {
			sb.WriteString(", ")
			lineLen += 2
		}
	}

	sb.WriteRune('\n')
}

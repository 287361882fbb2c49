package loader

import (
	"strings"
	"testing"

	"kresolve/ast"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// typeRefString prints a type reference back in its textual form.
func typeRefString(tr *ast.TypeRef) string {
	sb := strings.Builder{}

	if tr.IsFunction {
		sb.WriteString("((")
		for i, param := range tr.Params {
			if i > 0 {
				sb.WriteString(", ")
			}

			sb.WriteString(typeRefString(param))
		}
		sb.WriteString(") -> ")
		sb.WriteString(typeRefString(tr.Return))
		sb.WriteString(")")
	} else {
		sb.WriteString(tr.Name)

		if len(tr.Args) > 0 {
			sb.WriteString("<")
			for i, arg := range tr.Args {
				if i > 0 {
					sb.WriteString(", ")
				}

				sb.WriteString(typeRefString(arg))
			}
			sb.WriteString(">")
		}
	}

	if tr.Nullable {
		sb.WriteString("?")
	}

	return sb.String()
}

func TestParseTypeRef(t *testing.T) {
	tests := []struct {
		text, want string
	}{
		{"Int", "Int"},
		{"String?", "String?"},
		{"List<Int>", "List<Int>"},
		{"Map< K , List<V?> >?", "Map<K, List<V?>>?"},
		{"kotlin.collections.List<T>", "kotlin.collections.List<T>"},
		{"() -> Unit", "(() -> Unit)"},
		{"(Int, String) -> Boolean", "((Int, String) -> Boolean)"},
		{"((Int) -> Unit)?", "((Int) -> Unit)?"},
		{"(Int) -> (String) -> Unit", "((Int) -> ((String) -> Unit))"},
		{"(Int)", "Int"},
		{"Ünïcode_1", "Ünïcode_1"},
	}

	for _, test := range tests {
		t.Run(test.text, func(t *testing.T) {
			tr, err := ParseTypeRef(test.text)
			require.NoError(t, err)
			assert.Equal(t, test.want, typeRefString(tr))
		})
	}
}

func TestParseTypeRefErrors(t *testing.T) {
	tests := []struct {
		text, err string
	}{
		{"", "unexpected end of type"},
		{"List<", "unexpected end of type"},
		{"List<Int", "expected `,` or `>`"},
		{"(Int?)?", "redundant `?`"},
		{"(Int, String)", "expected `->`"},
		{"1Int", "expected a type name"},
		{"Int String", "unexpected `S`"},
		{"kotlin.", "unexpected end of type"},
	}

	for _, test := range tests {
		t.Run(test.text, func(t *testing.T) {
			_, err := ParseTypeRef(test.text)
			assert.ErrorContains(t, err, test.err)
		})
	}
}

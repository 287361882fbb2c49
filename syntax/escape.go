package syntax

import (
	"strconv"
)

// escapeValues maps the character following the backslash of a simple escape
// sequence to the character it stands for.
var escapeValues = map[byte]string{
	't':  "\t",
	'b':  "\b",
	'n':  "\n",
	'r':  "\r",
	'\'': "'",
	'"':  "\"",
	'\\': "\\",
	'$':  "$",
}

// Unescape returns the value of a single escape sequence such as `\n` or
// `\u0041`.  It returns false if the sequence is malformed.
func Unescape(seq string) (string, bool) {
	if len(seq) < 2 || seq[0] != '\\' {
		return "", false
	}

	if seq[1] == 'u' {
		if len(seq) != 6 {
			return "", false
		}

		code, err := strconv.ParseUint(seq[2:], 16, 32)
		if err != nil {
			return "", false
		}

		return string(rune(code)), true
	}

	if len(seq) != 2 {
		return "", false
	}

	value, ok := escapeValues[seq[1]]
	return value, ok
}

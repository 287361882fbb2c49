package loader

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"kresolve/ast"
)

// ParseTypeRef parses the textual form of a type reference as it appears in
// tree and library files: eg. `Int`, `List<String>?`, `kotlin.Comparable<T>`
// or `(Int, String) -> Unit`.
func ParseTypeRef(text string) (*ast.TypeRef, error) {
	p := &typeParser{text: text}

	tr, err := p.parseType()
	if err != nil {
		return nil, err
	}

	p.skipSpace()
	if p.pos < len(p.text) {
		return nil, p.errorf("unexpected `%c`", p.text[p.pos])
	}

	return tr, nil
}

// typeParser is a recursive descent parser over a type string.
type typeParser struct {
	text string
	pos  int
}

// parseType parses a possibly nullable type.
func (p *typeParser) parseType() (*ast.TypeRef, error) {
	var tr *ast.TypeRef
	var err error

	p.skipSpace()
	if p.got('(') {
		tr, err = p.parseParenthesized()
	} else {
		tr, err = p.parseNamed()
	}

	if err != nil {
		return nil, err
	}

	p.skipSpace()
	if p.got('?') {
		if tr.Nullable {
			return nil, p.errorf("redundant `?`")
		}

		tr.Nullable = true
	}

	return tr, nil
}

// parseParenthesized parses either a function type or a parenthesized type.
// The opening parenthesis has already been consumed.
func (p *typeParser) parseParenthesized() (*ast.TypeRef, error) {
	var params []*ast.TypeRef

	p.skipSpace()
	if !p.got(')') {
		for {
			param, err := p.parseType()
			if err != nil {
				return nil, err
			}

			params = append(params, param)

			p.skipSpace()
			if p.got(')') {
				break
			}

			if !p.got(',') {
				return nil, p.errorf("expected `,` or `)`")
			}
		}
	}

	p.skipSpace()
	if !strings.HasPrefix(p.text[p.pos:], "->") {
		if len(params) != 1 {
			return nil, p.errorf("expected `->`")
		}

		return params[0], nil
	}

	p.pos += 2

	ret, err := p.parseType()
	if err != nil {
		return nil, err
	}

	return &ast.TypeRef{IsFunction: true, Params: params, Return: ret}, nil
}

// parseNamed parses a possibly qualified class or type parameter name with
// optional type arguments.
func (p *typeParser) parseNamed() (*ast.TypeRef, error) {
	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}

	for p.got('.') {
		next, err := p.parseIdent()
		if err != nil {
			return nil, err
		}

		name += "." + next
	}

	tr := &ast.TypeRef{Name: name}

	p.skipSpace()
	if !p.got('<') {
		return tr, nil
	}

	for {
		arg, err := p.parseType()
		if err != nil {
			return nil, err
		}

		tr.Args = append(tr.Args, arg)

		p.skipSpace()
		if p.got('>') {
			return tr, nil
		}

		if !p.got(',') {
			return nil, p.errorf("expected `,` or `>`")
		}
	}
}

// parseIdent parses a single identifier.
func (p *typeParser) parseIdent() (string, error) {
	p.skipSpace()

	start := p.pos
	for p.pos < len(p.text) {
		r, size := utf8.DecodeRuneInString(p.text[p.pos:])
		if r != '_' && !unicode.IsLetter(r) && (p.pos == start || !unicode.IsDigit(r)) {
			break
		}

		p.pos += size
	}

	if p.pos == start {
		if start == len(p.text) {
			return "", p.errorf("unexpected end of type")
		}

		return "", p.errorf("expected a type name")
	}

	return p.text[start:p.pos], nil
}

// got consumes the given byte if it is next.
func (p *typeParser) got(c byte) bool {
	if p.pos < len(p.text) && p.text[p.pos] == c {
		p.pos++
		return true
	}

	return false
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.text) && p.text[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) errorf(msg string, a ...interface{}) error {
	return fmt.Errorf("invalid type `%s` at column %d: %s", p.text, p.pos+1, fmt.Sprintf(msg, a...))
}

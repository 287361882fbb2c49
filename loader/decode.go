package loader

import (
	"fmt"
	"strings"

	"kresolve/util"

	"gopkg.in/yaml.v3"
)

// decodeError is an error in the structure of a YAML document.  It is raised
// as a panic by the decoding functions and recovered at the entry point of
// each decoder.
type decodeError struct {
	err error
}

// decoder holds the state shared by the tree and library decoders.
type decoder struct {
	// The path of the decoded file used for error messages.
	path string
}

// fail raises a decode error positioned on node.
func (d *decoder) fail(node *yaml.Node, msg string, a ...interface{}) {
	panic(decodeError{fmt.Errorf("%s:%d:%d: %s", d.path, node.Line, node.Column, fmt.Sprintf(msg, a...))})
}

// catchDecodeError recovers a decode error into err.  Any other panic is
// propagated.
func catchDecodeError(err *error) {
	if x := recover(); x != nil {
		if de, ok := x.(decodeError); ok {
			*err = de.err
		} else {
			panic(x)
		}
	}
}

// document parses a YAML document and returns its root node.
func (d *decoder) document(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", d.path, err)
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%s: empty document", d.path)
	}

	return doc.Content[0], nil
}

// -----------------------------------------------------------------------------

// fields is the decoded content of a YAML mapping.
type fields struct {
	node   *yaml.Node
	values map[string]*yaml.Node
}

// mapping decodes a mapping node whose keys must be among allowed.
func (d *decoder) mapping(node *yaml.Node, allowed ...string) fields {
	if node.Kind != yaml.MappingNode {
		d.fail(node, "expected a mapping")
	}

	f := fields{node: node, values: make(map[string]*yaml.Node)}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		if !util.Contains(allowed, key.Value) {
			d.fail(key, "unknown field `%s`: expected one of %s", key.Value, strings.Join(allowed, ", "))
		}

		if _, ok := f.values[key.Value]; ok {
			d.fail(key, "duplicate field `%s`", key.Value)
		}

		f.values[key.Value] = value
	}

	return f
}

// has returns whether the mapping has the given key.
func (f fields) has(key string) bool {
	_, ok := f.values[key]
	return ok
}

// get returns the value of a key or nil if it is absent or null.
func (f fields) get(key string) *yaml.Node {
	if v, ok := f.values[key]; ok && !isNull(v) {
		return v
	}

	return nil
}

// value returns the value of a key or nil if it is absent.  Unlike get, an
// explicit null is returned.
func (f fields) value(key string) *yaml.Node {
	return f.values[key]
}

// str decodes a required string field.
func (d *decoder) str(f fields, key string) string {
	v := f.get(key)
	if v == nil {
		d.fail(f.node, "missing field `%s`", key)
	}

	return d.scalar(v)
}

// optStr decodes an optional string field.
func (d *decoder) optStr(f fields, key string) string {
	if v := f.get(key); v != nil {
		return d.scalar(v)
	}

	return ""
}

// optBool decodes an optional boolean field.
func (d *decoder) optBool(f fields, key string) bool {
	v := f.get(key)
	if v == nil {
		return false
	}

	var b bool
	if v.Kind != yaml.ScalarNode || v.Decode(&b) != nil {
		d.fail(v, "expected a boolean")
	}

	return b
}

// list returns the items of an optional sequence field.
func (d *decoder) list(f fields, key string) []*yaml.Node {
	v := f.get(key)
	if v == nil {
		return nil
	}

	if v.Kind != yaml.SequenceNode {
		d.fail(v, "expected a sequence")
	}

	return v.Content
}

// scalar returns the value of a scalar node.
func (d *decoder) scalar(node *yaml.Node) string {
	if node.Kind != yaml.ScalarNode {
		d.fail(node, "expected a scalar")
	}

	return node.Value
}

// isNull returns whether a node is an explicit or implicit null.
func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

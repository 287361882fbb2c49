package trace

import (
	"kresolve/ast"
	"kresolve/report"
)

// Slot is a kind of fact recorded about a syntax node: eg. the type of an
// expression or the descriptor a name refers to.  The type parameter is the
// type of the recorded values.
type Slot[V any] struct {
	// The unique name of the slot.
	Name string

	// Whether values in this slot may be replaced after they are first
	// recorded.
	Rewritable bool
}

// NewSlot creates a new write-once slot.
func NewSlot[V any](name string) *Slot[V] {
	return &Slot[V]{Name: name}
}

// NewRewritableSlot creates a new slot whose values can be replaced.
func NewRewritableSlot[V any](name string) *Slot[V] {
	return &Slot[V]{Name: name, Rewritable: true}
}

// key identifies a single entry in a trace.
type key struct {
	node ast.Node
	slot string
}

// entry is a value recorded in a trace.
type entry struct {
	value any

	// Whether the entry's slot is rewritable.
	rewritable bool
}

// traceState is the lifecycle state of a trace.
type traceState int

const (
	traceOpen traceState = iota
	traceCommitted
	traceDiscarded
)

// BindingTrace records the results of analysis: facts about syntax nodes
// stored in slots and an ordered list of diagnostics.  A trace can have child
// traces which overlay it: reads go through to the parent, writes stay in the
// child until it is committed.  A trace is not safe for concurrent use: each
// file is analyzed with its own trace.
type BindingTrace struct {
	// The parent trace or nil if this is a root trace.
	parent *BindingTrace

	// The entries written to this trace.
	entries map[key]entry

	// The keys of the entries in the order they were first written.
	order []key

	// The diagnostics reported to this trace.
	diags []*report.Diagnostic

	// The lifecycle state of the trace.  Root traces are always open.
	state traceState
}

// New creates a new root trace.
func New() *BindingTrace {
	return &BindingTrace{entries: make(map[key]entry)}
}

// Child creates a new child trace overlaying bt.
func (bt *BindingTrace) Child() *BindingTrace {
	bt.checkOpen()

	return &BindingTrace{parent: bt, entries: make(map[key]entry)}
}

// IsOpen returns whether the trace can still be read and written.
func (bt *BindingTrace) IsOpen() bool {
	return bt.state == traceOpen
}

// Commit merges the writes and diagnostics of a child trace into its parent.
// A write-once value the parent recorded after the child was created wins over
// the child's.  The child is closed afterward.
func (bt *BindingTrace) Commit() {
	bt.checkOpen()
	if bt.parent == nil {
		report.Raise(nil, "cannot commit a root trace")
	}

	bt.parent.checkOpen()

	for _, k := range bt.order {
		e := bt.entries[k]
		if !e.rewritable {
			if _, ok := bt.parent.lookup(k); ok {
				continue
			}
		}

		bt.parent.put(k, e)
	}

	bt.parent.diags = append(bt.parent.diags, bt.diags...)
	bt.close(traceCommitted)
}

// Discard drops the writes and diagnostics of a child trace.  The child is
// closed afterward.
func (bt *BindingTrace) Discard() {
	bt.checkOpen()
	if bt.parent == nil {
		report.Raise(nil, "cannot discard a root trace")
	}

	bt.close(traceDiscarded)
}

// Report appends a diagnostic to the trace.
func (bt *BindingTrace) Report(diag *report.Diagnostic) {
	bt.checkOpen()

	bt.diags = append(bt.diags, diag)
}

// Diagnostics returns all the diagnostics visible through the trace in the
// order they were reported: those of its parents first.
func (bt *BindingTrace) Diagnostics() []*report.Diagnostic {
	bt.checkOpen()

	var diags []*report.Diagnostic
	if bt.parent != nil {
		diags = bt.parent.Diagnostics()
	}

	return append(diags, bt.diags...)
}

// -----------------------------------------------------------------------------

// Record records a value for node in slot.  The first value recorded for a
// node and slot is authoritative: if a value is already visible through the
// trace, the new value is ignored.  It returns whether the value was recorded.
func Record[V any](bt *BindingTrace, node ast.Node, slot *Slot[V], value V) bool {
	bt.checkOpen()

	k := key{node: node, slot: slot.Name}
	if _, ok := bt.lookup(k); ok {
		return false
	}

	bt.put(k, entry{value: value, rewritable: slot.Rewritable})
	return true
}

// Replace records a value for node in slot overwriting any existing value.
// Only rewritable slots can be replaced.
func Replace[V any](bt *BindingTrace, node ast.Node, slot *Slot[V], value V) {
	bt.checkOpen()

	if !slot.Rewritable {
		report.Raise(node.Span(), "cannot replace a value in the write-once slot %s", slot.Name)
	}

	bt.put(key{node: node, slot: slot.Name}, entry{value: value, rewritable: true})
}

// Get returns the value visible through the trace for node in slot.
func Get[V any](bt *BindingTrace, node ast.Node, slot *Slot[V]) (V, bool) {
	bt.checkOpen()

	var value V
	if v, ok := bt.lookup(key{node: node, slot: slot.Name}); ok {
		// A nil interface value is stored as a nil any.
		value, _ = v.(V)
		return value, true
	}

	return value, false
}

// -----------------------------------------------------------------------------

// lookup finds an entry in the trace or its parents.
func (bt *BindingTrace) lookup(k key) (any, bool) {
	for t := bt; t != nil; t = t.parent {
		if e, ok := t.entries[k]; ok {
			return e.value, true
		}
	}

	return nil, false
}

// put writes an entry into this trace only.
func (bt *BindingTrace) put(k key, e entry) {
	if _, ok := bt.entries[k]; !ok {
		bt.order = append(bt.order, k)
	}

	bt.entries[k] = e
}

// close closes a child trace and releases its entries.
func (bt *BindingTrace) close(state traceState) {
	bt.state = state
	bt.entries = nil
	bt.order = nil
	bt.diags = nil
}

// checkOpen raises an internal error if the trace is closed.
func (bt *BindingTrace) checkOpen() {
	switch bt.state {
	case traceCommitted:
		report.Raise(nil, "trace was already committed")
	case traceDiscarded:
		report.Raise(nil, "trace was already discarded")
	}
}

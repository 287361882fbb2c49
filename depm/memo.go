package depm

import (
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// MemoState is the state of a memoized computation for one key.
type MemoState int

// Enumeration of memo states.
const (
	NotComputed MemoState = iota
	Computed
	Failed
)

// memoEntry is the stored outcome of a memoized computation.
type memoEntry[V any] struct {
	state MemoState
	value V
	err   error
}

// Memo is a lazily computed, cached property of descriptors keyed by
// descriptor ID.  Each key is computed at most once, even when several
// goroutines ask for it at the same time, and a failure is remembered just
// like a success.
type Memo[V any] struct {
	// The mutex guarding entries.
	m *sync.Mutex

	// The stored outcomes by key.
	entries map[DescriptorID]*memoEntry[V]

	// The group collapsing concurrent computations of the same key.
	group *singleflight.Group

	// The computation being memoized.
	compute func(DescriptorID) (V, error)
}

// NewMemo creates a new memo for the given computation.
func NewMemo[V any](compute func(DescriptorID) (V, error)) *Memo[V] {
	return &Memo[V]{
		m:       &sync.Mutex{},
		entries: make(map[DescriptorID]*memoEntry[V]),
		group:   &singleflight.Group{},
		compute: compute,
	}
}

// Get returns the value for a key, computing it if it has not been computed
// yet.
func (mm *Memo[V]) Get(id DescriptorID) (V, error) {
	if entry, ok := mm.lookup(id); ok {
		return entry.value, entry.err
	}

	result, _, _ := mm.group.Do(strconv.Itoa(int(id)), func() (any, error) {
		// Another caller may have finished the computation between our lookup
		// and entering the group.
		if entry, ok := mm.lookup(id); ok {
			return entry, nil
		}

		entry := &memoEntry[V]{}
		entry.value, entry.err = mm.compute(id)
		if entry.err == nil {
			entry.state = Computed
		} else {
			entry.state = Failed
		}

		mm.m.Lock()
		mm.entries[id] = entry
		mm.m.Unlock()

		return entry, nil
	})

	entry := result.(*memoEntry[V])
	return entry.value, entry.err
}

// State returns the state of the computation for a key.
func (mm *Memo[V]) State(id DescriptorID) MemoState {
	if entry, ok := mm.lookup(id); ok {
		return entry.state
	}

	return NotComputed
}

// lookup returns the stored entry for a key.
func (mm *Memo[V]) lookup(id DescriptorID) (*memoEntry[V], bool) {
	mm.m.Lock()
	defer mm.m.Unlock()

	entry, ok := mm.entries[id]
	return entry, ok
}

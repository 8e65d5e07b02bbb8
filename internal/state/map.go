package state

import (
	"errors"
	"fmt"
	"sort"

	"layerdb/internal/logging"
	"layerdb/pkg/value"
)

var (
	ErrEmptyKey     = errors.New("key must not be empty")
	ErrInvalidValue = errors.New("value cannot be stored")
)

var logger = logging.For("state")

// Map is the in-memory mapping from keys to Values. It counts mutations and
// remembers the revision of the last durable snapshot; the map is dirty
// while the two differ.
//
// Map does no locking. Callers that share one across goroutines must
// serialize access themselves.
type Map struct {
	entries map[string]value.Value
	rev     Revision
	clean   uint64
}

// NewMap creates an empty, clean map.
func NewMap() *Map {
	return &Map{entries: make(map[string]value.Value)}
}

// Set inserts or overwrites key. Empty keys and values that fail
// value.Validate are rejected and leave the map unchanged.
func (m *Map) Set(key string, v value.Value) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := v.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	m.entries[key] = v
	m.rev.Tick()
	return nil
}

// Get returns the value for key, or false if it is absent. Values are
// immutable, so the result can never alias mutable map state.
func (m *Map) Get(key string) (value.Value, bool) {
	v, ok := m.entries[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.entries[key]
	return ok
}

// Remove deletes key and reports whether it was present. The map only
// becomes dirty when something was actually removed.
func (m *Map) Remove(key string) bool {
	if _, ok := m.entries[key]; !ok {
		return false
	}
	delete(m.entries, key)
	m.rev.Tick()
	return true
}

// Len returns the number of entries in the map.
func (m *Map) Len() int {
	return len(m.entries)
}

// Keys returns all keys in sorted order.
func (m *Map) Keys() []string {
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Dirty reports whether the map changed since the last MarkClean or Replace.
func (m *Map) Dirty() bool {
	return m.rev.Current() != m.clean
}

// Revision returns the number of mutations applied so far.
func (m *Map) Revision() uint64 {
	return m.rev.Current()
}

// MarkClean records that the contents as of rev are durable. A later
// mutation keeps the map dirty.
func (m *Map) MarkClean(rev uint64) {
	m.clean = rev
}

// Records returns a copy of the mapping.
func (m *Map) Records() map[string]value.Value {
	out := make(map[string]value.Value, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out
}

// Replace swaps in records as the complete contents and marks the map
// clean. Used when loading a snapshot.
func (m *Map) Replace(records map[string]value.Value) {
	m.entries = make(map[string]value.Value, len(records))
	for k, v := range records {
		m.entries[k] = v
	}
	m.clean = m.rev.Tick()
}

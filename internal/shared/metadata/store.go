// Package metadata provides a typed key/value side-channel.
//
// A Store carries loosely coupled data between collaborators that do not know
// each other's types: navigation flags on a navigation context, event handlers
// on a view-model's settings. Keys are typed so reads never need a manual
// type assertion.
//
// Example Usage:
//
//	var ImmediateClose = metadata.NewKey[bool]("ImmediateClose")
//
//	store := metadata.NewStore()
//	ImmediateClose.Set(store, true)
//	if ImmediateClose.Value(store) {
//		// ...
//	}
package metadata

import (
	"sort"
	"sync"
)

// Store is a concurrency-safe map of named values. A nil *Store behaves as an
// empty, read-only store.
type Store struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{values: make(map[string]any)}
}

func (s *Store) load(name string) (any, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

func (s *Store) store(name string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]any)
	}
	s.values[name] = v
}

func (s *Store) remove(name string) bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[name]; !ok {
		return false
	}
	delete(s.values, name)
	return true
}

// Len returns the number of values held
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Names returns the sorted names of all values held
func (s *Store) Names() []string {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	s.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Key identifies a value of type T inside a Store.
type Key[T any] struct {
	name string
}

// NewKey creates a key. Two keys with the same name address the same slot, so
// names should be unique per value type.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the key name
func (k Key[T]) Name() string {
	return k.name
}

// Get returns the value stored under k. The second result is false when the
// value is missing or holds a different type.
func (k Key[T]) Get(s *Store) (T, bool) {
	var zero T
	v, ok := s.load(k.name)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Value returns the stored value or the zero value of T
func (k Key[T]) Value(s *Store) T {
	v, _ := k.Get(s)
	return v
}

// Set stores v under k. Setting on a nil store panics.
func (k Key[T]) Set(s *Store, v T) {
	s.store(k.name, v)
}

// Remove deletes the value stored under k and reports whether it existed
func (k Key[T]) Remove(s *Store) bool {
	return s.remove(k.name)
}

// Has reports whether a value of type T is stored under k
func (k Key[T]) Has(s *Store) bool {
	_, ok := k.Get(s)
	return ok
}

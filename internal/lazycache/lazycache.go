// Package lazycache provides a small generic memoizing cache, shared by
// every package in this tool that lazily parses and validates a static
// resource exactly once per key: catalog.Lookup (per CPU-model YAML) and
// report.Lookup (per model's metric-definition YAML) both build one of
// these over their own loader function instead of each hand-rolling a
// mutex-guarded map.
//
// Adapted from the onceMap used internally by
// aclements-go-perfevent/events for caching parsed PMU event tables;
// exported and pulled out to internal/lazycache here so two packages
// can share one implementation instead of each keeping their own copy.
package lazycache

import "sync"

// Map lazily computes and caches one value per key, computing each
// value at most once even under concurrent access, and caching a
// load error the same way a successful value is cached.
type Map[K comparable, V any] struct {
	entries sync.Map // K -> *entry[V]
	load    func(K) (V, error)
}

type entry[V any] struct {
	once sync.Once
	val  V
	err  error
}

// New returns a Map that computes each key's value with load, at most
// once.
func New[K comparable, V any](load func(K) (V, error)) *Map[K, V] {
	return &Map[K, V]{load: load}
}

// Get returns the cached value for key, computing and storing it via
// load on the first call for that key. Concurrent calls for the same
// key block on the same computation rather than racing to load it
// twice.
func (m *Map[K, V]) Get(key K) (V, error) {
	raw, ok := m.entries.Load(key)
	if !ok {
		raw, _ = m.entries.LoadOrStore(key, &entry[V]{})
	}
	e := raw.(*entry[V])

	e.once.Do(func() {
		e.val, e.err = m.load(key)
	})

	return e.val, e.err
}

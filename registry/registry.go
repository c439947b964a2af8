// Package registry provides thread-safe storage and retrieval of dependency bindings.
package registry

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Key identifies a binding: the canonical type key of the abstract identity
// plus an optional name. The empty name is the default binding.
type Key struct {
	Type string
	Name string
}

// String renders the key as "type" or "type#name".
func (k Key) String() string {
	if k.Name == "" {
		return k.Type
	}
	return k.Type + "#" + k.Name
}

// Binding describes how to produce instances for one identity.
//
// A Binding is immutable after registration except for its singleton cell,
// which is populated lazily on first resolution.
type Binding struct {
	// Key is the lookup key. For open generic bindings Key.Type is the
	// unbound shape (e.g. "example.com/app.Repo").
	Key Key

	// Lifetime defines how instances are managed.
	// Values: "transient", "singleton", "scoped"
	Lifetime string

	// Producer is the production recipe owned by the resolution engine.
	Producer interface{}

	// OpenGeneric marks a binding registered for an unbound generic shape.
	OpenGeneric bool

	// Description is a human readable summary of the producer, used for diagnostics.
	Description string

	singleton Cell
}

// Singleton returns the binding's singleton cache cell.
func (b *Binding) Singleton() *Cell {
	return &b.singleton
}

// Registry provides concurrent storage for bindings.
// Lookups never block on writers for unrelated keys.
type Registry struct {
	bindings sync.Map // Key -> *Binding
	size     atomic.Int64
}

// New creates a new Registry instance.
func New() *Registry {
	return &Registry{}
}

// Register stores a binding, replacing any binding previously stored under
// the same key. The replaced binding is returned, or nil.
//
// This method is goroutine-safe.
func (r *Registry) Register(binding *Binding) *Binding {
	previous, loaded := r.bindings.Swap(binding.Key, binding)
	if !loaded {
		r.size.Add(1)
		return nil
	}
	return previous.(*Binding)
}

// Get retrieves a binding by key.
//
// This method is goroutine-safe.
func (r *Registry) Get(key Key) (*Binding, bool) {
	v, ok := r.bindings.Load(key)
	if !ok {
		return nil, false
	}
	return v.(*Binding), true
}

// Has checks if a binding exists for the given key.
func (r *Registry) Has(key Key) bool {
	_, ok := r.bindings.Load(key)
	return ok
}

// GetAll returns every binding registered for a type key (default and named),
// ordered by name so the default binding comes first.
func (r *Registry) GetAll(typeKey string) []*Binding {
	var result []*Binding
	r.bindings.Range(func(k, v interface{}) bool {
		if k.(Key).Type == typeKey {
			result = append(result, v.(*Binding))
		}
		return true
	})
	sort.Slice(result, func(i, j int) bool { return result[i].Key.Name < result[j].Key.Name })
	return result
}

// Keys returns all registered keys sorted by type then name.
func (r *Registry) Keys() []Key {
	keys := make([]Key, 0, r.Len())
	r.bindings.Range(func(k, _ interface{}) bool {
		keys = append(keys, k.(Key))
		return true
	})
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Type != keys[j].Type {
			return keys[i].Type < keys[j].Type
		}
		return keys[i].Name < keys[j].Name
	})
	return keys
}

// Len returns the number of registered bindings.
func (r *Registry) Len() int {
	return int(r.size.Load())
}

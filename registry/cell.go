package registry

import (
	"sync"
	"sync/atomic"
)

// Cell holds a lazily constructed instance and guarantees it is constructed
// at most once, even under concurrent first access.
//
// Unlike sync.Once, a failed construction leaves the cell empty so a later
// call may try again.
type Cell struct {
	mu    sync.Mutex
	ready atomic.Bool
	value interface{}
}

// Load returns the cached instance, if any, without locking.
func (c *Cell) Load() (interface{}, bool) {
	if c.ready.Load() {
		return c.value, true
	}
	return nil, false
}

// GetOrCreate returns the cached instance or calls create to build it.
// created reports whether this call performed the construction.
//
// This method is goroutine-safe.
func (c *Cell) GetOrCreate(create func() (interface{}, error)) (value interface{}, created bool, err error) {
	// Fast path: already populated
	if c.ready.Load() {
		return c.value, false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring the lock
	if c.ready.Load() {
		return c.value, false, nil
	}

	value, err = create()
	if err != nil {
		return nil, false, err
	}

	c.value = value
	c.ready.Store(true)
	return value, true, nil
}

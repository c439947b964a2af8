package nasc

import (
	"reflect"
	"sync"
)

// reflectionCache caches reflection metadata to avoid repeated type analysis.
type reflectionCache struct {
	mu sync.RWMutex

	// Injectable struct fields, keyed by struct type
	fields map[reflect.Type][]fieldInfo
}

// fieldInfo stores metadata about an injectable struct field.
type fieldInfo struct {
	index   int
	name    string
	typ     reflect.Type
	options tagOptions
}

// newReflectionCache creates a new reflection cache.
func newReflectionCache() *reflectionCache {
	return &reflectionCache{
		fields: make(map[reflect.Type][]fieldInfo),
	}
}

// getFieldInfo retrieves or computes the injectable fields of a struct type.
// Only exported fields carrying an inject tag other than "-" are returned.
func (rc *reflectionCache) getFieldInfo(typ reflect.Type) []fieldInfo {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	// Fast path: check cache with read lock
	rc.mu.RLock()
	fields, exists := rc.fields[typ]
	rc.mu.RUnlock()

	if exists {
		return fields
	}

	// Slow path: compute and cache with write lock
	rc.mu.Lock()
	defer rc.mu.Unlock()

	// Double-check after acquiring write lock
	fields, exists = rc.fields[typ]
	if exists {
		return fields
	}

	if typ.Kind() != reflect.Struct {
		rc.fields[typ] = nil
		return nil
	}

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)

		tag, hasInjectTag := field.Tag.Lookup("inject")
		if field.PkgPath != "" || !hasInjectTag {
			continue
		}

		opts := parseInjectTag(tag)
		if opts.skip {
			continue
		}

		fields = append(fields, fieldInfo{
			index:   i,
			name:    field.Name,
			typ:     field.Type,
			options: opts,
		})
	}

	rc.fields[typ] = fields
	return fields
}

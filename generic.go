package nasc

import "fmt"

// Get resolves the default binding of T through r.
//
// Example:
//
//	logger, err := nasc.Get[Logger](container)
func Get[T any](r Resolver) (T, error) {
	return GetNamed[T](r, "")
}

// GetNamed resolves the binding of T registered under name through r.
func GetNamed[T any](r Resolver, name string) (T, error) {
	var zero T
	instance, err := r.ResolveNamed((*T)(nil), name)
	if err != nil {
		return zero, err
	}
	switch v := instance.(type) {
	case T:
		return v, nil
	case *T:
		return *v, nil
	default:
		return zero, fmt.Errorf("resolved %T, which is not a %T", instance, zero)
	}
}

// MustGet is like Get but panics on failure.
func MustGet[T any](r Resolver) T {
	v, err := Get[T](r)
	if err != nil {
		panic(err)
	}
	return v
}

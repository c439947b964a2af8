package intercept

import "fmt"

// Arg returns args[i] as T. Missing or nil arguments yield the zero value.
func Arg[T any](args []interface{}, i int) T {
	var zero T
	if i < 0 || i >= len(args) || args[i] == nil {
		return zero
	}
	v, ok := args[i].(T)
	if !ok {
		return zero
	}
	return v
}

// Result returns results[i] as T. Missing or nil results yield the zero value.
func Result[T any](results []interface{}, i int) T {
	return Arg[T](results, i)
}

// Check panics with err when a method without an error result fails inside
// the pipeline.
func Check(err error) {
	if err != nil {
		panic(err)
	}
}

// As asserts that target implements T. Generated proxy factories use it to
// type the real instance.
func As[T any](target interface{}) (T, error) {
	typed, ok := target.(T)
	if !ok {
		var zero T
		return zero, &TargetTypeError{Target: fmt.Sprintf("%T", target), Want: fmt.Sprintf("%T", (*T)(nil))[1:]}
	}
	return typed, nil
}

// TargetTypeError is returned when a proxy is asked to wrap an instance of
// the wrong type.
type TargetTypeError struct {
	Target string
	Want   string
}

func (e *TargetTypeError) Error() string {
	return fmt.Sprintf("intercept: %s does not implement %s", e.Target, e.Want)
}

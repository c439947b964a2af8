package nasc

import (
	"fmt"
	"reflect"
	"runtime"
)

// ConstructorFunc represents a constructor function type.
// Supported signatures:
//   - func() T
//   - func() (T, error)
//   - func(Dep1, Dep2, ...) T
//   - func(Dep1, Dep2, ...) (T, error)
//
// Scalar parameters (bool, numeric and string kinds) are never resolved;
// they receive their zero value.
type ConstructorFunc interface{}

// constructorInfo holds metadata about a constructor function.
type constructorInfo struct {
	fn           reflect.Value
	name         string
	paramTypes   []reflect.Type
	returnsError bool
	returnType   reflect.Type
	designated   bool
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// parseConstructor analyzes a constructor function and extracts metadata.
func parseConstructor(constructor ConstructorFunc) (*constructorInfo, error) {
	if constructor == nil {
		return nil, fmt.Errorf("constructor cannot be nil")
	}

	fnValue := reflect.ValueOf(constructor)
	fnType := fnValue.Type()

	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function, got %v", fnType.Kind())
	}
	if fnValue.IsNil() {
		return nil, fmt.Errorf("constructor cannot be nil")
	}
	if fnType.IsVariadic() {
		return nil, fmt.Errorf("variadic constructors are not supported: %v", fnType)
	}

	// Validate return values
	numOut := fnType.NumOut()
	if numOut == 0 || numOut > 2 {
		return nil, fmt.Errorf("constructor must return (T) or (T, error), got %d return values", numOut)
	}

	returnsError := false
	if numOut == 2 {
		if !fnType.Out(1).Implements(errorType) {
			return nil, fmt.Errorf("constructor's second return value must be error, got %v", fnType.Out(1))
		}
		returnsError = true
	}

	paramTypes := make([]reflect.Type, fnType.NumIn())
	for i := range paramTypes {
		paramTypes[i] = fnType.In(i)
	}

	return &constructorInfo{
		fn:           fnValue,
		name:         funcName(fnValue),
		paramTypes:   paramTypes,
		returnsError: returnsError,
		returnType:   fnType.Out(0),
	}, nil
}

func funcName(fn reflect.Value) string {
	if f := runtime.FuncForPC(fn.Pointer()); f != nil {
		return f.Name()
	}
	return fn.Type().String()
}

// isScalar reports whether values of t are supplied as zero values instead
// of being resolved.
func isScalar(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	default:
		return false
	}
}

// eligible reports whether every parameter of the constructor is non-scalar.
func (c *constructorInfo) eligible() bool {
	for _, p := range c.paramTypes {
		if isScalar(p) {
			return false
		}
	}
	return true
}

// selectConstructor picks the constructor used to build instances.
//
// A single designated constructor always wins. Otherwise the eligible
// constructor with the most parameters is chosen; ties go to the one
// declared first.
func selectConstructor(typeName string, candidates []*constructorInfo) (*constructorInfo, error) {
	var designated []*constructorInfo
	for _, c := range candidates {
		if c.designated {
			designated = append(designated, c)
		}
	}
	if len(designated) == 1 {
		return designated[0], nil
	}

	var best *constructorInfo
	for _, c := range candidates {
		if !c.eligible() {
			continue
		}
		if best == nil || len(c.paramTypes) > len(best.paramTypes) {
			best = c
		}
	}
	if best == nil {
		return nil, &NoEligibleConstructorError{Type: typeName, Candidates: len(candidates)}
	}
	return best, nil
}

// invoke calls the constructor with resolved dependencies.
func (c *constructorInfo) invoke(r *boundResolver, owner Identity) (interface{}, error) {
	params := make([]reflect.Value, len(c.paramTypes))
	for i, paramType := range c.paramTypes {
		if isScalar(paramType) {
			params[i] = reflect.Zero(paramType)
			continue
		}

		resolved, err := r.resolve(identityOfType(paramType))
		if err != nil {
			return nil, &ResolutionError{
				Identity: owner.Key(),
				Name:     owner.Name(),
				Context:  fmt.Sprintf("parameter %d (%v) of %s", i, paramType, c.name),
				Cause:    err,
			}
		}

		value, err := assignable(resolved, paramType)
		if err != nil {
			return nil, &ResolutionError{
				Identity: owner.Key(),
				Name:     owner.Name(),
				Context:  fmt.Sprintf("parameter %d of %s", i, c.name),
				Cause:    err,
			}
		}
		params[i] = value
	}

	results := c.fn.Call(params)

	if c.returnsError {
		if errValue := results[1]; !errValue.IsNil() {
			return nil, &TargetConstructionFailedError{
				Identity: owner.String(),
				Cause:    errValue.Interface().(error),
			}
		}
	}

	return results[0].Interface(), nil
}

// assignable converts a resolved instance into a value of type target,
// dereferencing pointers to struct values when needed.
func assignable(instance interface{}, target reflect.Type) (reflect.Value, error) {
	if instance == nil {
		return reflect.Value{}, fmt.Errorf("resolved nil for %v", target)
	}
	v := reflect.ValueOf(instance)
	if v.Type().AssignableTo(target) {
		return v, nil
	}
	if v.Kind() == reflect.Ptr && !v.IsNil() && v.Elem().Type().AssignableTo(target) {
		return v.Elem(), nil
	}
	return reflect.Value{}, fmt.Errorf("resolved type %v is not assignable to %v", v.Type(), target)
}

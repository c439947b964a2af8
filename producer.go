package nasc

import (
	"fmt"
	"reflect"
)

// Resolver resolves identities. Nasc, Scope and the resolver handed to
// factories all implement it.
type Resolver interface {
	Resolve(abstract interface{}) (interface{}, error)
	ResolveNamed(abstract interface{}, name string) (interface{}, error)
}

// FactoryFunc is a function that creates instances dynamically.
// It receives a resolver bound to the calling scope; dependencies resolved
// through it take part in cycle detection.
//
// Example:
//
//	factory := func(r nasc.Resolver) (interface{}, error) {
//	    config, err := nasc.Get[*Config](r)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return NewConnection(config.DSN), nil
//	}
//	container.Factory((*Connection)(nil), factory)
type FactoryFunc func(r Resolver) (interface{}, error)

// FactoryOf adapts a zero-argument closure to a FactoryFunc.
func FactoryOf(fn func() (interface{}, error)) FactoryFunc {
	return func(Resolver) (interface{}, error) {
		return fn()
	}
}

// OpenProducer builds an instance for a closed instantiation of an open
// generic binding. A nil OpenProducer default-constructs the closed type.
type OpenProducer func(closed Identity) (interface{}, error)

// Producer declares how a concrete type is constructed: its candidate
// constructors, the designated injection constructor, and the fields that
// receive property injection.
//
// Example:
//
//	producer := nasc.Construct(&UserService{}).
//	    Constructor(NewUserService).
//	    Inject(NewUserServiceWithCache).
//	    Property("Audit", "file")
type Producer struct {
	prototype    reflect.Type
	constructors []ConstructorFunc
	designated   []bool
	properties   []propertySpec
}

type propertySpec struct {
	field string
	name  string
}

// Construct starts a producer for the concrete type of prototype, which
// must be a pointer to struct (or nil when only constructors are declared).
// Without declared constructors, instances are zero values of the struct.
func Construct(prototype interface{}) *Producer {
	p := &Producer{}
	if prototype != nil {
		p.prototype = reflect.TypeOf(prototype)
	}
	return p
}

// Constructor adds a candidate constructor.
func (p *Producer) Constructor(fn ConstructorFunc) *Producer {
	p.constructors = append(p.constructors, fn)
	p.designated = append(p.designated, false)
	return p
}

// Inject adds the designated injection constructor. It is used in
// preference to every other candidate.
func (p *Producer) Inject(fn ConstructorFunc) *Producer {
	p.constructors = append(p.constructors, fn)
	p.designated = append(p.designated, true)
	return p
}

// Property declares that field receives the dependency bound under name.
// Fields tagged with `inject` are injected without being declared.
func (p *Producer) Property(field, name string) *Producer {
	p.properties = append(p.properties, propertySpec{field: field, name: name})
	return p
}

// plan is the compiled form of a producer stored on a binding.
type plan struct {
	produced    reflect.Type
	prototype   reflect.Type
	ctor        *constructorInfo
	selectErr   error
	properties  []propertySpec
	factory     FactoryFunc
	open        OpenProducer
	description string
}

// compileProducer turns a producer argument into a plan. Accepted values:
// *Producer, FactoryFunc, func(Resolver) (interface{}, error), a
// constructor function, or a pointer-to-struct prototype.
func compileProducer(producer interface{}) (*plan, error) {
	switch p := producer.(type) {
	case nil:
		return nil, &InvalidBindingError{Reason: "producer cannot be nil"}
	case FactoryFunc:
		return factoryPlan(p)
	case func(Resolver) (interface{}, error):
		return factoryPlan(p)
	case *Producer:
		return p.compile()
	}

	t := reflect.TypeOf(producer)
	switch {
	case t.Kind() == reflect.Func:
		return Construct(nil).Constructor(producer).compile()
	case t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Struct:
		return Construct(producer).compile()
	default:
		return nil, &InvalidBindingError{
			Reason: fmt.Sprintf("producer must be a constructor, factory or pointer to struct, got %v", t),
		}
	}
}

func factoryPlan(fn FactoryFunc) (*plan, error) {
	if fn == nil {
		return nil, &InvalidBindingError{Reason: "factory function cannot be nil"}
	}
	return &plan{factory: fn, description: "factory " + funcName(reflect.ValueOf(fn))}, nil
}

func (p *Producer) compile() (*plan, error) {
	if p.prototype != nil && !(p.prototype.Kind() == reflect.Ptr && p.prototype.Elem().Kind() == reflect.Struct) {
		return nil, &InvalidBindingError{
			Reason: fmt.Sprintf("concrete type must be pointer to struct, got %v", p.prototype),
		}
	}
	if p.prototype == nil && len(p.constructors) == 0 {
		return nil, &InvalidBindingError{Reason: "producer needs a prototype or a constructor"}
	}

	candidates := make([]*constructorInfo, 0, len(p.constructors))
	for i, fn := range p.constructors {
		info, err := parseConstructor(fn)
		if err != nil {
			return nil, &InvalidBindingError{Reason: fmt.Sprintf("invalid constructor: %v", err)}
		}
		if p.prototype != nil && !info.returnType.AssignableTo(p.prototype) {
			return nil, &InvalidBindingError{
				Reason: fmt.Sprintf("constructor %s returns %v, not %v", info.name, info.returnType, p.prototype),
			}
		}
		info.designated = p.designated[i]
		candidates = append(candidates, info)
	}

	pl := &plan{prototype: p.prototype, properties: p.properties}
	if len(candidates) == 0 {
		// Implicit zero-argument constructor
		pl.produced = p.prototype
		pl.description = "new " + p.prototype.String()
	} else {
		pl.produced = candidates[0].returnType
		if p.prototype != nil {
			pl.produced = p.prototype
		}
		pl.ctor, pl.selectErr = selectConstructor(pl.produced.String(), candidates)
		if pl.ctor != nil {
			pl.description = pl.ctor.name
		} else {
			pl.description = pl.produced.String() + " (no eligible constructor)"
		}
		for _, c := range candidates[1:] {
			if p.prototype == nil && c.returnType != pl.produced {
				return nil, &InvalidBindingError{
					Reason: fmt.Sprintf("constructors return different types: %v and %v", pl.produced, c.returnType),
				}
			}
		}
	}

	for _, prop := range p.properties {
		if err := checkProperty(pl.produced, prop.field); err != nil {
			return nil, err
		}
	}

	return pl, nil
}

func checkProperty(produced reflect.Type, field string) error {
	if !(produced.Kind() == reflect.Ptr && produced.Elem().Kind() == reflect.Struct) {
		return &InvalidBindingError{Reason: fmt.Sprintf("property %s declared on %v, which is not a pointer to struct", field, produced)}
	}
	f, ok := produced.Elem().FieldByName(field)
	if !ok || f.PkgPath != "" || len(f.Index) != 1 {
		return &InvalidBindingError{Reason: fmt.Sprintf("%v has no exported field %s", produced, field)}
	}
	if isScalar(f.Type) {
		return &InvalidBindingError{Reason: fmt.Sprintf("property %s of %v has scalar type %v", field, produced, f.Type)}
	}
	return nil
}

// satisfies reports whether instances of produced can be returned for the
// identity type.
func satisfies(produced, abstract reflect.Type) bool {
	if produced.AssignableTo(abstract) {
		return true
	}
	return produced.Kind() == reflect.Ptr && produced.Elem() == abstract
}

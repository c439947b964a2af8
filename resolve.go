package nasc

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/toutaio/toutago-nasc-resolver/intercept"
	"github.com/toutaio/toutago-nasc-resolver/registry"
)

var errNilInstance = errors.New("producer returned nil")

// resolution is one link of the chain of identities being realized by a
// top-level resolve call. Links are immutable: each nested resolve extends
// its caller's chain, so goroutines a factory fans out to never observe
// each other's entries. The nil chain is empty.
type resolution struct {
	key    string
	parent *resolution
}

func newResolution() *resolution {
	return nil
}

// enter extends the chain with key, or reports a cycle when key is already
// on it.
func (r *resolution) enter(key string) (*resolution, error) {
	for link := r; link != nil; link = link.parent {
		if link.key == key {
			return nil, &CircularDependencyError{Path: append(r.path(), key)}
		}
	}
	return &resolution{key: key, parent: r}, nil
}

// path lists the chain from the outermost identity inwards.
func (r *resolution) path() []string {
	var path []string
	for link := r; link != nil; link = link.parent {
		path = append(path, link.key)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// boundResolver resolves within one scope, extending one resolution chain.
// It is the Resolver handed to factories.
type boundResolver struct {
	container *Nasc
	scope     *Scope
	res       *resolution
}

// Resolve implements Resolver.
func (r *boundResolver) Resolve(abstract interface{}) (interface{}, error) {
	return r.ResolveNamed(abstract, "")
}

// ResolveNamed implements Resolver.
func (r *boundResolver) ResolveNamed(abstract interface{}, name string) (interface{}, error) {
	id, err := IdentityOf(abstract)
	if err != nil {
		return nil, err
	}
	return r.resolve(id.Named(name))
}

func (r *boundResolver) resolve(id Identity) (interface{}, error) {
	return r.container.resolve(r.scope, r.res, id)
}

// lookup finds the binding for id: the exact key first, then the open
// generic shape for closed generic identities.
func (n *Nasc) lookup(id Identity) (*registry.Binding, error) {
	if b, ok := n.registry.Get(id.registryKey()); ok {
		if b.OpenGeneric && !id.IsGeneric() {
			return nil, &OpenGenericMissingParametersError{Shape: id.key}
		}
		return b, nil
	}
	if id.IsGeneric() {
		if b, ok := n.registry.Get(id.shapeKey()); ok && b.OpenGeneric {
			return b, nil
		}
	}
	return nil, &UnregisteredIdentityError{Identity: id.key, Name: id.name}
}

// resolve is the resolution engine: lookup, cycle check, realization under
// the binding's lifetime, then interception.
func (n *Nasc) resolve(s *Scope, res *resolution, id Identity) (interface{}, error) {
	binding, err := n.lookup(id)
	if err != nil {
		return nil, err
	}

	res, err = res.enter(id.String())
	if err != nil {
		return nil, err
	}

	instance, err := n.realize(s, res, binding, id)
	if err != nil {
		return nil, err
	}

	return n.wrap(id, instance)
}

// realize obtains an instance for a binding, honoring its lifetime.
func (n *Nasc) realize(s *Scope, res *resolution, b *registry.Binding, id Identity) (interface{}, error) {
	p := b.Producer.(*plan)

	if b.OpenGeneric {
		return n.closeGeneric(p, id)
	}

	switch Lifetime(b.Lifetime) {
	case LifetimeSingleton:
		// Singletons never capture scoped instances: their dependencies
		// come from the root scope.
		instance, created, err := b.Singleton().GetOrCreate(func() (interface{}, error) {
			return n.produce(n.root, res, p, id)
		})
		if created {
			n.logger.Debug("singleton constructed", zap.String("identity", id.String()))
		}
		return instance, err

	case LifetimeScoped:
		if s.root {
			return n.produce(s, res, p, id)
		}
		return s.getOrCreate(b, func() (interface{}, error) {
			return n.produce(s, res, p, id)
		})

	default:
		return n.produce(s, res, p, id)
	}
}

// produce runs a plan once: factory call, or constructor invocation followed
// by property injection and initialization.
func (n *Nasc) produce(s *Scope, res *resolution, p *plan, id Identity) (instance interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("panic: %v", r)
			}
			instance, err = nil, &TargetConstructionFailedError{Identity: id.String(), Cause: cause}
		}
	}()

	r := &boundResolver{container: n, scope: s, res: res}

	if p.factory != nil {
		instance, err = p.factory(r)
		if err != nil {
			return nil, &TargetConstructionFailedError{Identity: id.String(), Cause: err}
		}
		if isNil(instance) {
			return nil, &TargetConstructionFailedError{Identity: id.String(), Cause: errNilInstance}
		}
		return instance, nil
	}

	if p.selectErr != nil {
		return nil, p.selectErr
	}

	if p.ctor == nil {
		instance = reflect.New(p.prototype.Elem()).Interface()
	} else {
		instance, err = p.ctor.invoke(r, id)
		if err != nil {
			return nil, err
		}
		if isNil(instance) {
			return nil, &TargetConstructionFailedError{Identity: id.String(), Cause: errNilInstance}
		}
	}

	if err := n.injectProperties(r, p, instance, id); err != nil {
		return nil, err
	}

	if initializable, ok := instance.(Initializable); ok {
		if err := initializable.Initialize(); err != nil {
			return nil, &TargetConstructionFailedError{
				Identity: id.String(),
				Cause:    fmt.Errorf("initialize: %w", err),
			}
		}
	}

	return instance, nil
}

// injectProperties sets declared and tagged fields on a constructed
// pointer-to-struct instance.
func (n *Nasc) injectProperties(r *boundResolver, p *plan, instance interface{}, id Identity) error {
	v := reflect.ValueOf(instance)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil
	}
	elem := v.Elem()

	declared := make(map[string]bool, len(p.properties))
	for _, prop := range p.properties {
		declared[prop.field] = true
		field := elem.FieldByName(prop.field)
		if err := injectField(r, field, prop.name, false); err != nil {
			return &PropertyInjectionFailedError{Identity: id.String(), Field: prop.field, Cause: err}
		}
	}

	for _, info := range n.reflectionCache.getFieldInfo(elem.Type()) {
		if declared[info.name] {
			continue
		}
		if err := injectField(r, elem.Field(info.index), info.options.name, info.options.optional); err != nil {
			return &PropertyInjectionFailedError{Identity: id.String(), Field: info.name, Cause: err}
		}
	}
	return nil
}

// injectField resolves the field's type under name and assigns it.
// Optional fields are left untouched when resolution fails.
func injectField(r *boundResolver, field reflect.Value, name string, optional bool) error {
	if !field.CanSet() {
		return fmt.Errorf("field is not settable")
	}

	resolved, err := r.resolve(identityOfType(field.Type()).Named(name))
	if err == nil && isNil(resolved) {
		err = errNilInstance
	}
	if err != nil {
		if optional {
			return nil
		}
		return err
	}

	value, err := assignable(resolved, field.Type())
	if err != nil {
		return err
	}
	field.Set(value)
	return nil
}

// closeGeneric builds an instance for a closed generic identity. No
// dependencies are resolved for it.
func (n *Nasc) closeGeneric(p *plan, id Identity) (instance interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			instance, err = nil, &TargetConstructionFailedError{Identity: id.String(), Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	if p.open != nil {
		instance, err = p.open(id)
		if err != nil {
			return nil, &TargetConstructionFailedError{Identity: id.String(), Cause: err}
		}
		if isNil(instance) {
			return nil, &TargetConstructionFailedError{Identity: id.String(), Cause: errNilInstance}
		}
		if id.typ != nil && !satisfies(reflect.TypeOf(instance), id.typ) {
			return nil, &TargetConstructionFailedError{
				Identity: id.String(),
				Cause:    fmt.Errorf("open producer returned %T", instance),
			}
		}
		return instance, nil
	}

	if id.typ == nil || id.typ.Kind() == reflect.Interface {
		return nil, &TargetConstructionFailedError{
			Identity: id.String(),
			Cause:    fmt.Errorf("cannot default-construct %s", id.key),
		}
	}
	return reflect.New(id.typ).Interface(), nil
}

// wrap threads the instance through the identity's interceptor chain, if any.
func (n *Nasc) wrap(id Identity, instance interface{}) (interface{}, error) {
	v, ok := n.interceptors.Load(id.key)
	if !ok {
		return instance, nil
	}
	chain := v.(*intercept.Chain)
	if chain.Len() == 0 {
		return instance, nil
	}

	f, ok := n.proxies.Load(id.key)
	if !ok {
		return nil, &ProxyUnavailableError{Identity: id.key}
	}

	proxy, err := f.(ProxyFactory)(instance, intercept.NewPipeline(id.key, instance, chain))
	if err != nil {
		return nil, &TargetConstructionFailedError{Identity: id.String(), Cause: fmt.Errorf("proxy: %w", err)}
	}
	return proxy, nil
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}

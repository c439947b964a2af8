// Package nasc provides a dependency resolution container for Go.
//
// Nasc (Old Irish: "Link" or "Bond") builds fully wired object graphs on
// demand from declared bindings. It manages instance lifetimes, rejects
// circular dependency graphs, instantiates open generic bindings and weaves
// interceptor chains around resolved services.
//
// Basic usage:
//
//	// Create container
//	container := nasc.New()
//
//	// Bind interface to implementation
//	container.Bind((*Logger)(nil), &ConsoleLogger{})
//
//	// Resolve instance
//	logger := container.Make((*Logger)(nil)).(Logger)
//	logger.Log("Hello, Nasc!")
package nasc

import (
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/toutaio/toutago-nasc-resolver/registry"
)

// Nasc is the main dependency injection container.
// It manages bindings and resolves dependencies in a thread-safe manner.
type Nasc struct {
	registry        *registry.Registry
	interceptors    sync.Map // identity key -> *intercept.Chain
	proxies         sync.Map // identity key -> ProxyFactory
	reflectionCache *reflectionCache
	root            *Scope
	logger          *zap.Logger

	mu             sync.Mutex
	modules        []*moduleEntry
	validateOnBoot bool
}

// New creates a new Nasc container instance.
// Options can be provided to configure the container behavior.
//
// Example:
//
//	container := nasc.New()
//	// or with options:
//	container := nasc.New(nasc.WithDebug())
func New(options ...Option) *Nasc {
	n := &Nasc{
		registry:        registry.New(),
		reflectionCache: newReflectionCache(),
		logger:          zap.NewNop(),
	}
	n.root = newScope(n, nil, true)

	// Apply options
	for _, opt := range options {
		if err := opt(n); err != nil {
			panic(fmt.Sprintf("failed to apply option: %v", err))
		}
	}

	return n
}

// Logger returns the container's logger.
func (n *Nasc) Logger() *zap.Logger {
	return n.logger
}

// Register binds abstract under name to producer with the given lifetime.
// A later registration for the same abstract and name replaces this one.
//
// The producer may be a *Producer built with Construct, a constructor
// function, a pointer-to-struct prototype, or a FactoryFunc.
//
// Example:
//
//	container.Register((*Logger)(nil), "", NewConsoleLogger, nasc.LifetimeSingleton)
//	container.Register((*Logger)(nil), "file", nasc.Construct(&FileLogger{}).Inject(NewFileLogger), nasc.LifetimeTransient)
func (n *Nasc) Register(abstract interface{}, name string, producer interface{}, lifetime Lifetime) error {
	id, err := IdentityOf(abstract)
	if err != nil {
		return err
	}
	if id.IsShape() {
		return &InvalidBindingError{Reason: fmt.Sprintf("%s is an unbound generic shape, use RegisterOpenGeneric()", id.Key())}
	}

	lifetime, err = lifetime.normalize()
	if err != nil {
		return err
	}

	p, err := compileProducer(producer)
	if err != nil {
		return err
	}
	if p.produced != nil && !satisfies(p.produced, id.Type()) {
		return &InvalidBindingError{
			Reason: fmt.Sprintf("%v does not implement %v", p.produced, id.Type()),
		}
	}

	n.add(&registry.Binding{
		Key:         id.Named(name).registryKey(),
		Lifetime:    string(lifetime),
		Producer:    p,
		Description: p.description,
	})
	return nil
}

// RegisterFactory binds abstract under name to a factory function.
//
// Example:
//
//	container.RegisterFactory((*Connection)(nil), "", nasc.LifetimeScoped, func(r nasc.Resolver) (interface{}, error) {
//	    cfg, err := nasc.Get[*Config](r)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return NewConnection(cfg.DSN), nil
//	})
func (n *Nasc) RegisterFactory(abstract interface{}, name string, lifetime Lifetime, factory FactoryFunc) error {
	if factory == nil {
		return &InvalidBindingError{Reason: "factory function cannot be nil"}
	}
	return n.Register(abstract, name, factory, lifetime)
}

// RegisterOpenGeneric binds every instantiation of a generic type. abstract
// is any instantiation of it, e.g. (*Repo[any])(nil). When a closed
// instantiation such as Repo[User] is resolved and has no binding of its
// own, producer builds it; a nil producer default-constructs the closed
// type. Open generic instances are never cached and their dependencies are
// not resolved.
func (n *Nasc) RegisterOpenGeneric(abstract interface{}, producer OpenProducer) error {
	id, err := IdentityOf(abstract)
	if err != nil {
		return err
	}
	if id.Shape() == "" {
		return &InvalidBindingError{Reason: fmt.Sprintf("%s is not a generic type", id.Key())}
	}

	description := "new " + id.Shape() + "[...]"
	if producer != nil {
		description = "open producer " + funcName(reflect.ValueOf(producer))
	}

	n.add(&registry.Binding{
		Key:         registry.Key{Type: id.Shape()},
		Lifetime:    string(LifetimeTransient),
		Producer:    &plan{open: producer, description: description},
		OpenGeneric: true,
		Description: description,
	})
	return nil
}

func (n *Nasc) add(b *registry.Binding) {
	if replaced := n.registry.Register(b); replaced != nil {
		n.logger.Debug("binding replaced",
			zap.String("identity", b.Key.String()),
			zap.String("lifetime", b.Lifetime),
			zap.String("producer", b.Description),
			zap.String("previous", replaced.Description),
		)
		return
	}
	n.logger.Debug("binding registered",
		zap.String("identity", b.Key.String()),
		zap.String("lifetime", b.Lifetime),
		zap.String("producer", b.Description),
	)
}

// Bind registers a transient binding between an abstract type and a
// concrete implementation.
// The abstractType should be a type token like (*Logger)(nil).
// The concrete value is a pointer-to-struct prototype or a constructor.
//
// Example:
//
//	container.Bind((*Logger)(nil), &ConsoleLogger{})
func (n *Nasc) Bind(abstractType, concrete interface{}) error {
	return n.Register(abstractType, "", concrete, LifetimeTransient)
}

// Singleton registers a singleton binding.
// The instance is created lazily on first resolution and reused for all subsequent resolutions.
//
// Example:
//
//	container.Singleton((*Database)(nil), &PostgresDB{})
//	db1 := container.Make((*Database)(nil)).(Database)
//	db2 := container.Make((*Database)(nil)).(Database)
//	// db1 == db2 (same instance)
func (n *Nasc) Singleton(abstractType, concrete interface{}) error {
	return n.Register(abstractType, "", concrete, LifetimeSingleton)
}

// Scoped registers a scoped binding.
// One instance is created per scope; resolved from the container itself it
// behaves like a transient binding.
//
// Example:
//
//	container.Scoped((*UnitOfWork)(nil), &DbUnitOfWork{})
//	scope := container.CreateScope()
//	uow := scope.Make((*UnitOfWork)(nil)).(UnitOfWork)
func (n *Nasc) Scoped(abstractType, concrete interface{}) error {
	return n.Register(abstractType, "", concrete, LifetimeScoped)
}

// BindNamed registers a transient named binding.
// Named bindings allow multiple implementations of the same interface.
//
// Example:
//
//	container.BindNamed((*Logger)(nil), &FileLogger{}, "file")
//	container.BindNamed((*Logger)(nil), &ConsoleLogger{}, "console")
//
//	fileLogger := container.MakeNamed((*Logger)(nil), "file").(Logger)
func (n *Nasc) BindNamed(abstractType, concrete interface{}, name string) error {
	if name == "" {
		return &InvalidBindingError{Reason: "name cannot be empty"}
	}
	return n.Register(abstractType, name, concrete, LifetimeTransient)
}

// BindConstructor registers a transient binding using a constructor function.
// The constructor function's parameters are resolved from the container.
//
// Example:
//
//	container.BindConstructor((*UserService)(nil), NewUserService)
//	// Where: func NewUserService(logger Logger, db Database) (*UserService, error)
func (n *Nasc) BindConstructor(abstractType interface{}, constructor ConstructorFunc) error {
	return n.bindConstructor(abstractType, constructor, LifetimeTransient)
}

// SingletonConstructor registers a singleton binding using a constructor function.
//
// Example:
//
//	container.SingletonConstructor((*Database)(nil), NewDatabase)
func (n *Nasc) SingletonConstructor(abstractType interface{}, constructor ConstructorFunc) error {
	return n.bindConstructor(abstractType, constructor, LifetimeSingleton)
}

// ScopedConstructor registers a scoped binding using a constructor function.
//
// Example:
//
//	container.ScopedConstructor((*UnitOfWork)(nil), NewUnitOfWork)
func (n *Nasc) ScopedConstructor(abstractType interface{}, constructor ConstructorFunc) error {
	return n.bindConstructor(abstractType, constructor, LifetimeScoped)
}

func (n *Nasc) bindConstructor(abstractType interface{}, constructor ConstructorFunc, lifetime Lifetime) error {
	if constructor == nil || reflect.TypeOf(constructor).Kind() != reflect.Func {
		return &InvalidBindingError{Reason: fmt.Sprintf("invalid constructor: %T", constructor)}
	}
	return n.Register(abstractType, "", Construct(nil).Constructor(constructor), lifetime)
}

// Factory registers a transient factory binding.
// The factory function is called on every resolution to create instances.
//
// Example:
//
//	container.Factory((*Connection)(nil), func(r nasc.Resolver) (interface{}, error) {
//	    config := nasc.MustGet[*Config](r)
//	    return NewConnection(config.DSN), nil
//	})
func (n *Nasc) Factory(abstractType interface{}, factory FactoryFunc) error {
	return n.RegisterFactory(abstractType, "", LifetimeTransient, factory)
}

// Resolve resolves the default binding of abstract from the root scope.
func (n *Nasc) Resolve(abstract interface{}) (interface{}, error) {
	return n.root.ResolveNamed(abstract, "")
}

// ResolveNamed resolves the binding of abstract registered under name from
// the root scope.
func (n *Nasc) ResolveNamed(abstract interface{}, name string) (interface{}, error) {
	return n.root.ResolveNamed(abstract, name)
}

// Make resolves and returns an instance of the registered type.
// It panics with the resolution error on failure; use Resolve to handle
// errors.
//
// Example:
//
//	logger := container.Make((*Logger)(nil)).(Logger)
func (n *Nasc) Make(abstractType interface{}) interface{} {
	return n.root.Make(abstractType)
}

// MakeNamed resolves and returns a named instance, panicking on failure.
//
// Example:
//
//	logger := container.MakeNamed((*Logger)(nil), "file").(Logger)
func (n *Nasc) MakeNamed(abstractType interface{}, name string) interface{} {
	return n.root.MakeNamed(abstractType, name)
}

// ResolveAll resolves every binding registered for abstract, default
// binding first, then named bindings ordered by name.
func (n *Nasc) ResolveAll(abstract interface{}) ([]interface{}, error) {
	id, err := IdentityOf(abstract)
	if err != nil {
		return nil, err
	}

	bindings := n.registry.GetAll(id.Key())
	instances := make([]interface{}, 0, len(bindings))
	for _, b := range bindings {
		instance, err := n.root.ResolveNamed(id, b.Key.Name)
		if err != nil {
			return nil, err
		}
		instances = append(instances, instance)
	}
	return instances, nil
}

// MakeAll resolves and returns all implementations of an interface.
// This includes both named and unnamed bindings. It panics on failure.
//
// Example:
//
//	loggers := container.MakeAll((*Logger)(nil))
//	for _, logger := range loggers {
//	    logger.(Logger).Log("message")
//	}
func (n *Nasc) MakeAll(abstractType interface{}) []interface{} {
	instances, err := n.ResolveAll(abstractType)
	if err != nil {
		panic(err)
	}
	return instances
}

// Has reports whether a binding is registered for abstract under name.
func (n *Nasc) Has(abstract interface{}, name string) bool {
	id, err := IdentityOf(abstract)
	if err != nil {
		return false
	}
	_, err = n.lookup(id.Named(name))
	return err == nil
}

// CreateScope creates a new dependency resolution scope.
// Scoped bindings create one instance per scope.
//
// Example:
//
//	scope := container.CreateScope()
//	defer scope.Close()
//	uow := scope.Make((*UnitOfWork)(nil)).(UnitOfWork)
func (n *Nasc) CreateScope() *Scope {
	s := newScope(n, nil, false)
	n.logger.Debug("scope created", zap.String("scope", s.ID()))
	return s
}

// Root returns the container's root scope.
func (n *Nasc) Root() *Scope {
	return n.root
}

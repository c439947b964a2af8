package nasc

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/toutaio/toutago-nasc-resolver/registry"
)

// Disposable represents a service that requires cleanup.
// Scoped instances implementing this interface have Dispose called
// when their scope is closed.
//
// Example:
//
//	type DatabaseConnection struct {}
//	func (d *DatabaseConnection) Dispose() error {
//	    return d.connection.Close()
//	}
type Disposable interface {
	Dispose() error
}

// Initializable represents a service that requires initialization.
// Constructed instances implementing this interface have Initialize called
// after property injection.
//
// Example:
//
//	type Service struct {}
//	func (s *Service) Initialize() error {
//	    return s.setup()
//	}
type Initializable interface {
	Initialize() error
}

// Scope represents an isolated dependency resolution context.
// Scoped bindings create one instance per scope, allowing for request-scoped
// or transaction-scoped dependencies. Every scope shares the container's
// bindings.
//
// Example:
//
//	scope := container.CreateScope()
//	defer scope.Close()
//
//	// Scoped instances are unique to this scope
//	uow := scope.Make((*UnitOfWork)(nil)).(UnitOfWork)
type Scope struct {
	id            uuid.UUID
	container     *Nasc
	parent        *Scope
	root          bool
	instances     map[*registry.Binding]*registry.Cell
	creationOrder []interface{} // Track order for reverse disposal
	children      []*Scope
	closed        bool
	mu            sync.Mutex
}

// newScope creates a new scope for the given container.
func newScope(container *Nasc, parent *Scope, root bool) *Scope {
	return &Scope{
		id:        uuid.New(),
		container: container,
		parent:    parent,
		root:      root,
		instances: make(map[*registry.Binding]*registry.Cell),
	}
}

// ID returns the scope's unique identifier.
func (s *Scope) ID() string {
	return s.id.String()
}

// IsRoot reports whether this is the container's root scope.
func (s *Scope) IsRoot() bool {
	return s.root
}

// Resolve resolves the default binding of abstract within this scope.
func (s *Scope) Resolve(abstract interface{}) (interface{}, error) {
	return s.ResolveNamed(abstract, "")
}

// ResolveNamed resolves the binding of abstract registered under name
// within this scope.
func (s *Scope) ResolveNamed(abstract interface{}, name string) (interface{}, error) {
	id, err := IdentityOf(abstract)
	if err != nil {
		return nil, err
	}
	id = id.Named(name)

	if s.isClosed() {
		return nil, &ScopeClosedError{ScopeID: s.ID()}
	}

	instance, err := s.container.resolve(s, newResolution(), id)
	if err != nil {
		s.container.logger.Debug("resolution failed",
			zap.String("identity", id.Key()),
			zap.String("name", id.Name()),
			zap.String("scope", s.ID()),
			zap.Error(err),
		)
		return nil, err
	}
	return instance, nil
}

// Make resolves an instance within this scope and panics on failure.
//
// Example:
//
//	service := scope.Make((*Service)(nil)).(Service)
func (s *Scope) Make(abstract interface{}) interface{} {
	instance, err := s.Resolve(abstract)
	if err != nil {
		panic(err)
	}
	return instance
}

// MakeNamed resolves a named instance within this scope and panics on failure.
func (s *Scope) MakeNamed(abstract interface{}, name string) interface{} {
	instance, err := s.ResolveNamed(abstract, name)
	if err != nil {
		panic(err)
	}
	return instance
}

// getOrCreate returns the scope's instance for binding, constructing it at
// most once. Cells belong to the binding, so a re-registration under the
// same key starts a fresh cell.
func (s *Scope) getOrCreate(binding *registry.Binding, create func() (interface{}, error)) (interface{}, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, &ScopeClosedError{ScopeID: s.ID()}
	}
	cell, ok := s.instances[binding]
	if !ok {
		cell = &registry.Cell{}
		s.instances[binding] = cell
	}
	s.mu.Unlock()

	instance, created, err := cell.GetOrCreate(create)
	if err != nil {
		return nil, err
	}
	if !created {
		return instance, nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		// Close already ran its disposal pass.
		if disposable, ok := instance.(Disposable); ok {
			if err := disposable.Dispose(); err != nil {
				s.container.logger.Warn("disposal error after scope close",
					zap.String("scope", s.ID()),
					zap.Error(err),
				)
			}
		}
		return nil, &ScopeClosedError{ScopeID: s.ID()}
	}
	s.creationOrder = append(s.creationOrder, instance)
	s.mu.Unlock()
	return instance, nil
}

func (s *Scope) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// CreateScope creates a child scope sharing the container's bindings.
// Child scopes are closed when their parent is closed. Scopes created from
// the root scope are independent.
//
// Example:
//
//	parentScope := container.CreateScope()
//	defer parentScope.Close()
//
//	childScope := parentScope.CreateScope()
//	// Child will be closed with parent
func (s *Scope) CreateScope() (*Scope, error) {
	if s.root {
		return s.container.CreateScope(), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, &ScopeClosedError{ScopeID: s.ID()}
	}

	child := newScope(s.container, s, false)
	s.children = append(s.children, child)
	s.container.logger.Debug("scope created", zap.String("scope", child.ID()), zap.String("parent", s.ID()))
	return child, nil
}

// Close releases resources held by this scope.
// Child scopes are closed first, then Dispose() is called on scoped
// instances implementing Disposable in reverse creation order (dependents
// disposed before their dependencies). Closing twice is a no-op.
//
// Example:
//
//	scope := container.CreateScope()
//	defer scope.Close()
func (s *Scope) Close() error {
	if s.root {
		return &InvalidBindingError{Reason: "the root scope cannot be closed"}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	children := s.children
	order := s.creationOrder
	s.children = nil
	s.creationOrder = nil
	s.instances = make(map[*registry.Binding]*registry.Cell)
	s.mu.Unlock()

	var errs []error

	for _, child := range children {
		if err := child.Close(); err != nil {
			errs = append(errs, fmt.Errorf("child scope %s: %w", child.ID(), err))
		}
	}

	for i := len(order) - 1; i >= 0; i-- {
		instance := order[i]
		if disposable, ok := instance.(Disposable); ok {
			if err := disposable.Dispose(); err != nil {
				errs = append(errs, fmt.Errorf("disposal error for %T: %w", instance, err))
			}
		}
	}

	if s.parent != nil {
		s.parent.removeChild(s)
	}

	s.container.logger.Debug("scope closed", zap.String("scope", s.ID()), zap.Int("disposed", len(order)))

	return errors.Join(errs...)
}

func (s *Scope) removeChild(child *Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.children {
		if c == child {
			s.children = append(s.children[:i], s.children[i+1:]...)
			return
		}
	}
}

// Package nasc provides a dependency resolution container for Go.
//
// Nasc (Old Irish: "Link" or "Bond") constructs fully wired object graphs
// from declared bindings. It manages instance lifetimes, detects circular
// dependencies, instantiates open generic bindings and threads method calls
// on resolved services through interceptor chains.
//
// # Features
//
//   - Type-safe identities built from type tokens like (*Logger)(nil)
//   - Multiple lifetime strategies (Transient, Singleton, Scoped)
//   - Constructor injection with explicit constructor selection
//   - Property injection through `inject` tags or declared properties
//   - Named bindings, last registration wins
//   - Open generic bindings
//   - Conditional registration and modules
//   - Interceptor chains with generated forwarding types
//   - Circular dependency detection
//   - Thread-safe resolution
//
// # Quick Start
//
// Create a container and bind services:
//
//	container := nasc.New()
//	container.Bind((*Logger)(nil), &ConsoleLogger{})
//	logger := container.Make((*Logger)(nil)).(Logger)
//
// # Lifetimes
//
// Transient - New instance each time:
//
//	container.Bind((*Service)(nil), &MyService{})
//
// Singleton - Single shared instance:
//
//	container.Singleton((*Cache)(nil), &MemoryCache{})
//
// Scoped - One instance per scope:
//
//	scope := container.CreateScope()
//	defer scope.Close()
//	service := scope.Make((*ScopedService)(nil))
//
// # Constructors
//
// A constructor's parameters are resolved from the container. When a type
// has several constructors, the designated one wins; otherwise the one with
// the most parameters that takes no scalar parameter is used:
//
//	container.Register((*UserService)(nil), "", nasc.Construct(&UserService{}).
//	    Constructor(NewUserService).
//	    Inject(NewUserServiceWithCache), nasc.LifetimeSingleton)
//
// # Property Injection
//
//	type UserService struct {
//	    DB     Database `inject:""`
//	    Audit  Logger   `inject:"name=audit"`
//	    Cache  Cache    `inject:"optional"`
//	}
//
// # Open Generics
//
//	container.RegisterOpenGeneric((*Repo[any])(nil), nil)
//	users, _ := nasc.Get[*Repo[User]](container)
//
// # Interception
//
//	container.RegisterInterceptor((*Greeter)(nil), intercept.Logging(logger))
//	nasc.RegisterProxyFor[Greeter](container, NewGreeterProxy)
//
// Forwarding types such as NewGreeterProxy are generated by
// cmd/nasc-proxygen.
//
// # Error Handling
//
// Resolve returns typed errors that can be matched with errors.As:
//
//	service, err := container.Resolve((*Service)(nil))
//	var missing *nasc.UnregisteredIdentityError
//	if errors.As(err, &missing) {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// All operations are thread-safe and can be used concurrently.
package nasc

package nasc

import "fmt"

// Lifetime represents the lifecycle strategy for a bound dependency.
type Lifetime string

const (
	// LifetimeTransient creates a new instance on every resolution.
	// This is the default lifetime for Bind() operations.
	LifetimeTransient Lifetime = "transient"

	// LifetimeSingleton creates a single instance that is reused for all resolutions.
	// The instance is created lazily on first resolution; concurrent first
	// resolutions construct it exactly once.
	//
	// Cycles are detected per resolve call. Two goroutines entering the same
	// singleton cycle at different members can block each other on the
	// members' construction locks instead of reporting the cycle; run
	// Validate at startup to catch such cycles before anything is built.
	LifetimeSingleton Lifetime = "singleton"

	// LifetimeScoped creates one instance per scope.
	// Each scope maintains its own instance cache, isolated from other scopes.
	// Resolved from the root container, a scoped binding behaves like a
	// transient one.
	LifetimeScoped Lifetime = "scoped"
)

// String returns the string representation of the lifetime.
func (l Lifetime) String() string {
	return string(l)
}

// normalize maps the zero value to transient and rejects unknown lifetimes.
func (l Lifetime) normalize() (Lifetime, error) {
	switch l {
	case "":
		return LifetimeTransient, nil
	case LifetimeTransient, LifetimeSingleton, LifetimeScoped:
		return l, nil
	default:
		return "", &InvalidBindingError{Reason: fmt.Sprintf("unknown lifetime %q", string(l))}
	}
}

package nasc

import (
	"fmt"
	"strings"

	"github.com/toutaio/toutago-nasc-resolver/intercept"
)

// UnregisteredIdentityError is returned when no binding exists for the
// requested identity and name.
type UnregisteredIdentityError struct {
	Identity string
	Name     string
}

func (e *UnregisteredIdentityError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("no binding registered for %s (name=%s)", e.Identity, e.Name)
	}
	return fmt.Sprintf("no binding registered for %s", e.Identity)
}

// CircularDependencyError indicates an identity reappeared while it was
// still being resolved. Path lists the identities on the resolution stack,
// ending with the repeated one.
type CircularDependencyError struct {
	Path []string
}

func (e *CircularDependencyError) Error() string {
	if len(e.Path) == 0 {
		return "circular dependency detected"
	}
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Path, " -> "))
}

// NoEligibleConstructorError is returned when none of a producer's
// constructors can be used: every candidate takes a scalar parameter, or
// there are no candidates at all.
type NoEligibleConstructorError struct {
	Type       string
	Candidates int
}

func (e *NoEligibleConstructorError) Error() string {
	if e.Candidates == 0 {
		return fmt.Sprintf("no constructor available for %s", e.Type)
	}
	return fmt.Sprintf("none of the %d constructors of %s is eligible: every candidate takes a scalar parameter", e.Candidates, e.Type)
}

// PropertyInjectionFailedError is returned when an injectable field could
// not be resolved.
type PropertyInjectionFailedError struct {
	Identity string
	Field    string
	Cause    error
}

func (e *PropertyInjectionFailedError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("property %s of %s resolved to nothing", e.Field, e.Identity)
	}
	return fmt.Sprintf("property %s of %s could not be injected: %v", e.Field, e.Identity, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *PropertyInjectionFailedError) Unwrap() error {
	return e.Cause
}

// TargetConstructionFailedError is returned when a factory or constructor
// fails, returns nothing, or panics.
type TargetConstructionFailedError struct {
	Identity string
	Cause    error
}

func (e *TargetConstructionFailedError) Error() string {
	return fmt.Sprintf("constructing %s failed: %v", e.Identity, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *TargetConstructionFailedError) Unwrap() error {
	return e.Cause
}

// OpenGenericMissingParametersError is returned when an open generic
// binding is resolved without concrete type arguments.
type OpenGenericMissingParametersError struct {
	Shape string
}

func (e *OpenGenericMissingParametersError) Error() string {
	return fmt.Sprintf("open generic %s cannot be resolved without type parameters", e.Shape)
}

// ProxyUnavailableError is returned when interceptors are registered for an
// identity but no forwarding type is registered to wrap it.
type ProxyUnavailableError struct {
	Identity string
}

func (e *ProxyUnavailableError) Error() string {
	return fmt.Sprintf("interceptors registered for %s but no proxy is registered. Did you forget RegisterProxy()?", e.Identity)
}

// ScopeClosedError is returned when resolving from a closed scope.
type ScopeClosedError struct {
	ScopeID string
}

func (e *ScopeClosedError) Error() string {
	return fmt.Sprintf("scope %s is closed", e.ScopeID)
}

// NullTargetError is returned when an interception pipeline reaches the end
// of its chain without a real instance.
type NullTargetError = intercept.NullTargetError

// InvalidBindingError is returned when a binding has invalid parameters.
type InvalidBindingError struct {
	Reason string
}

func (e *InvalidBindingError) Error() string {
	return fmt.Sprintf("invalid binding: %s", e.Reason)
}

// ResolutionError adds dependency context to a failure that happened while
// resolving one of an identity's dependencies.
type ResolutionError struct {
	Identity string
	Name     string
	Cause    error
	Context  string
}

func (e *ResolutionError) Error() string {
	identity := "unknown"
	if e.Identity != "" {
		identity = e.Identity
	}

	nameStr := ""
	if e.Name != "" {
		nameStr = fmt.Sprintf(" (name=%s)", e.Name)
	}

	contextStr := ""
	if e.Context != "" {
		contextStr = fmt.Sprintf(": %s", e.Context)
	}

	causeStr := ""
	if e.Cause != nil {
		causeStr = fmt.Sprintf(": %v", e.Cause)
	}

	return fmt.Sprintf("failed to resolve %s%s%s%s", identity, nameStr, contextStr, causeStr)
}

// Unwrap returns the underlying cause error.
func (e *ResolutionError) Unwrap() error {
	return e.Cause
}

// ValidationError collects the problems found by Validate.
type ValidationError struct {
	Errors []error
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation failed: %v", e.Errors[0])
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("validation failed with %d errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		b.WriteString(fmt.Sprintf("  %d. %v\n", i+1, err))
	}
	return b.String()
}

func (e *ValidationError) Unwrap() []error {
	return e.Errors
}

package nasc

import (
	"go.uber.org/zap"
)

// Predicate decides whether a conditional binding is registered.
type Predicate func() (bool, error)

// PredicateOf adapts a plain boolean function to a Predicate.
func PredicateOf(fn func() bool) Predicate {
	return func() (bool, error) {
		return fn(), nil
	}
}

// RegisterConditional evaluates predicate once, now, and registers the
// binding only when it returns true. The predicate is never re-evaluated.
// It reports whether the binding was registered.
//
// Example:
//
//	ev := condition.NewExprEvaluator()
//	container.RegisterConditional((*Cache)(nil), "", nasc.LifetimeSingleton,
//	    condition.When(ev, `env == "production"`, cfg.Values()), NewRedisCache)
func (n *Nasc) RegisterConditional(abstract interface{}, name string, lifetime Lifetime, predicate Predicate, producer interface{}) (bool, error) {
	if predicate == nil {
		return false, &InvalidBindingError{Reason: "predicate cannot be nil"}
	}

	ok, err := predicate()
	if err != nil {
		return false, err
	}
	if !ok {
		id, idErr := IdentityOf(abstract)
		if idErr != nil {
			return false, idErr
		}
		n.logger.Debug("conditional binding skipped", zap.String("identity", id.Named(name).String()))
		return false, nil
	}

	if err := n.Register(abstract, name, producer, lifetime); err != nil {
		return false, err
	}
	return true, nil
}

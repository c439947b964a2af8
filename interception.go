package nasc

import (
	"go.uber.org/zap"

	"github.com/toutaio/toutago-nasc-resolver/intercept"
)

// ProxyFactory builds the forwarding type for an intercepted identity.
// target is the real instance; every method of the returned proxy must
// call p.Invoke. Factories are usually generated by cmd/nasc-proxygen.
type ProxyFactory func(target interface{}, p *intercept.Pipeline) (interface{}, error)

// RegisterInterceptor appends hook to the interceptor chain of abstract.
// Hooks run in registration order around every method call on instances
// resolved afterwards, and on proxies already handed out.
//
// Example:
//
//	container.RegisterInterceptor((*Greeter)(nil), intercept.Logging(logger))
//	container.RegisterProxy((*Greeter)(nil), GreeterProxyFactory)
func (n *Nasc) RegisterInterceptor(abstract interface{}, hook intercept.Interceptor) error {
	if hook == nil {
		return &InvalidBindingError{Reason: "interceptor cannot be nil"}
	}
	id, err := IdentityOf(abstract)
	if err != nil {
		return err
	}

	v, _ := n.interceptors.LoadOrStore(id.Key(), intercept.NewChain())
	chain := v.(*intercept.Chain)
	chain.Append(hook)

	n.logger.Debug("interceptor appended", zap.String("identity", id.Key()), zap.Int("chain", chain.Len()))
	return nil
}

// RegisterProxy registers the forwarding type used to wrap instances of
// abstract when interceptors are registered for it.
func (n *Nasc) RegisterProxy(abstract interface{}, factory ProxyFactory) error {
	if factory == nil {
		return &InvalidBindingError{Reason: "proxy factory cannot be nil"}
	}
	id, err := IdentityOf(abstract)
	if err != nil {
		return err
	}
	n.proxies.Store(id.Key(), factory)
	return nil
}

// RegisterProxyFor registers a typed forwarding constructor for the
// interface T.
//
// Example:
//
//	nasc.RegisterProxyFor[Greeter](container, NewGreeterProxy)
func RegisterProxyFor[T any](n *Nasc, factory func(target T, p *intercept.Pipeline) T) error {
	if factory == nil {
		return &InvalidBindingError{Reason: "proxy factory cannot be nil"}
	}
	return n.RegisterProxy((*T)(nil), func(target interface{}, p *intercept.Pipeline) (interface{}, error) {
		typed, err := intercept.As[T](target)
		if err != nil {
			return nil, err
		}
		return factory(typed, p), nil
	})
}

// Interceptors returns a snapshot of the interceptor chain of abstract.
func (n *Nasc) Interceptors(abstract interface{}) []intercept.Interceptor {
	id, err := IdentityOf(abstract)
	if err != nil {
		return nil
	}
	v, ok := n.interceptors.Load(id.Key())
	if !ok {
		return nil
	}
	return v.(*intercept.Chain).Hooks()
}

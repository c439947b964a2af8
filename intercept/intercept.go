// Package intercept threads method calls on a resolved service through an
// ordered chain of hooks before they reach the real instance.
//
// Go cannot synthesize interface implementations at runtime, so every
// intercepted interface needs a forwarding type. Forwarding types are plain
// Go code, written by hand or generated with cmd/nasc-proxygen, that call
// Pipeline.Invoke for each method:
//
//	func (p *greeterProxy) Greet(name string) (string, error) {
//	    results, err := p.pipeline.Invoke("Greet", []interface{}{name}, func(args []interface{}) ([]interface{}, error) {
//	        out, err := p.target.Greet(intercept.Arg[string](args, 0))
//	        return []interface{}{out}, err
//	    })
//	    return intercept.Result[string](results, 0), err
//	}
package intercept

import (
	"fmt"
	"reflect"
	"sync"
)

// Method describes the operation being invoked.
type Method struct {
	// Service is the canonical key of the intercepted identity.
	Service string
	// Name is the method name.
	Name string
}

// String returns "Service.Name".
func (m Method) String() string {
	return m.Service + "." + m.Name
}

// Next continues the chain: the next hook, or the real call once every hook
// has been entered.
type Next func() ([]interface{}, error)

// Interceptor is a hook around method invocations.
//
// A hook may run logic before or after calling next, skip next entirely to
// short-circuit the call, or translate the results and error it returns.
type Interceptor interface {
	Intercept(m Method, args []interface{}, next Next) ([]interface{}, error)
}

// Func adapts a function to the Interceptor interface.
type Func func(m Method, args []interface{}, next Next) ([]interface{}, error)

// Intercept implements Interceptor.
func (f Func) Intercept(m Method, args []interface{}, next Next) ([]interface{}, error) {
	return f(m, args, next)
}

// Chain is an append-only, ordered list of hooks.
// Hooks run in the order they were appended.
type Chain struct {
	mu    sync.RWMutex
	hooks []Interceptor
}

// NewChain creates a chain holding hooks.
func NewChain(hooks ...Interceptor) *Chain {
	c := &Chain{}
	for _, h := range hooks {
		c.Append(h)
	}
	return c
}

// Append adds a hook to the end of the chain. Nil hooks are ignored.
func (c *Chain) Append(hook Interceptor) {
	if hook == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, hook)
}

// Hooks returns a snapshot of the chain.
func (c *Chain) Hooks() []Interceptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Interceptor, len(c.hooks))
	copy(out, c.hooks)
	return out
}

// Len returns the number of hooks in the chain.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.hooks)
}

// Pipeline binds a chain to the real instance it forwards to.
type Pipeline struct {
	service string
	target  interface{}
	chain   *Chain
}

// NewPipeline creates a pipeline for service that forwards to target.
func NewPipeline(service string, target interface{}, chain *Chain) *Pipeline {
	if chain == nil {
		chain = &Chain{}
	}
	return &Pipeline{service: service, target: target, chain: chain}
}

// Service returns the canonical key of the intercepted identity.
func (p *Pipeline) Service() string {
	return p.service
}

// Target returns the real instance behind the pipeline.
func (p *Pipeline) Target() interface{} {
	return p.target
}

// Invoke runs method through every hook, then through call.
//
// The hooks observed are those in the chain when Invoke starts; each hook
// receives a continuation that advances a shared cursor. When the cursor
// moves past the last hook, call is invoked with args, or a NullTargetError
// is returned if the pipeline has no target.
func (p *Pipeline) Invoke(method string, args []interface{}, call func(args []interface{}) ([]interface{}, error)) ([]interface{}, error) {
	hooks := p.chain.Hooks()
	m := Method{Service: p.service, Name: method}

	cursor := -1
	var advance Next
	advance = func() ([]interface{}, error) {
		cursor++
		if cursor < len(hooks) {
			return hooks[cursor].Intercept(m, args, advance)
		}
		if isNil(p.target) {
			return nil, &NullTargetError{Method: m}
		}
		return call(args)
	}
	return advance()
}

// NullTargetError is returned when a call reaches the end of the chain and
// there is no real instance to forward it to.
type NullTargetError struct {
	Method Method
}

func (e *NullTargetError) Error() string {
	return fmt.Sprintf("intercept: no target to forward %s to", e.Method)
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

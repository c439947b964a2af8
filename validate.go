package nasc

import (
	"fmt"
	"reflect"

	"github.com/toutaio/toutago-nasc-resolver/registry"
)

// Validate checks every constructor-based binding without constructing
// anything: constructors must be selectable, their dependencies and
// non-optional properties must be registered, and the dependency graph must
// be acyclic. Factories and open generics are opaque and not inspected.
// It returns a *ValidationError listing every problem, or nil.
func (n *Nasc) Validate() error {
	var errs []error
	edges := make(map[string][]string)
	keys := n.registry.Keys()

	for _, key := range keys {
		b, ok := n.registry.Get(key)
		if !ok || b.OpenGeneric {
			continue
		}
		p := b.Producer.(*plan)
		if p.factory != nil {
			continue
		}
		if p.selectErr != nil {
			errs = append(errs, &ResolutionError{Identity: key.Type, Name: key.Name, Context: "constructor selection", Cause: p.selectErr})
			continue
		}

		node := key.String()
		depend := func(dep Identity, context string) {
			target, err := n.lookup(dep)
			if err != nil {
				errs = append(errs, &ResolutionError{Identity: key.Type, Name: key.Name, Context: context, Cause: err})
				return
			}
			edges[node] = append(edges[node], target.Key.String())
		}

		if p.ctor != nil {
			for i, pt := range p.ctor.paramTypes {
				if isScalar(pt) {
					continue
				}
				depend(identityOfType(pt), fmt.Sprintf("parameter %d (%v) of %s", i, pt, p.ctor.name))
			}
		}

		if p.produced == nil || p.produced.Kind() != reflect.Ptr || p.produced.Elem().Kind() != reflect.Struct {
			continue
		}
		declared := make(map[string]bool)
		for _, prop := range p.properties {
			declared[prop.field] = true
			f, _ := p.produced.Elem().FieldByName(prop.field)
			depend(identityOfType(f.Type).Named(prop.name), "property "+prop.field)
		}
		for _, info := range n.reflectionCache.getFieldInfo(p.produced) {
			if declared[info.name] || info.options.optional {
				continue
			}
			depend(identityOfType(info.typ).Named(info.options.name), "property "+info.name)
		}
	}

	errs = append(errs, findCycles(keys, edges)...)

	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: errs}
}

// findCycles reports every cycle reachable in the dependency graph, each
// once, using a depth-first search.
func findCycles(keys []registry.Key, edges map[string][]string) []error {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int)
	var stack []string
	var errs []error

	var visit func(node string)
	visit = func(node string) {
		color[node] = gray
		stack = append(stack, node)

		for _, next := range edges[node] {
			switch color[next] {
			case white:
				visit(next)
			case gray:
				for i := len(stack) - 1; i >= 0; i-- {
					if stack[i] == next {
						path := append(append([]string{}, stack[i:]...), next)
						errs = append(errs, &CircularDependencyError{Path: path})
						break
					}
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[node] = black
	}

	for _, key := range keys {
		if node := key.String(); color[node] == white {
			visit(node)
		}
	}
	return errs
}

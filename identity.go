package nasc

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/toutaio/toutago-nasc-resolver/registry"
)

// Identity is an abstract service descriptor plus an optional name.
//
// Identities are normally built from type tokens such as (*Logger)(nil).
// Pointer levels are stripped, so (*Logger)(nil), (*Service)(nil) and
// (**Service)(nil) identify Logger, Service and Service respectively.
type Identity struct {
	typ    reflect.Type
	key    string
	name   string
	shape  string
	params []string
}

var typeKeyCache sync.Map // reflect.Type -> string

// IdentityOf builds an identity from a type token, a reflect.Type or an
// existing Identity.
func IdentityOf(abstract interface{}) (Identity, error) {
	switch v := abstract.(type) {
	case nil:
		return Identity{}, &InvalidBindingError{Reason: "abstract type cannot be nil"}
	case Identity:
		if v.key == "" {
			return Identity{}, &InvalidBindingError{Reason: "empty identity"}
		}
		return v, nil
	case reflect.Type:
		return identityOfType(v), nil
	default:
		return identityOfType(reflect.TypeOf(abstract)), nil
	}
}

// ShapeOf returns an identity addressing the unbound generic shape of
// token, e.g. ShapeOf((*Repo[any])(nil)) addresses Repo. Resolving a
// shape identity fails with OpenGenericMissingParametersError.
func ShapeOf(abstract interface{}) (Identity, error) {
	id, err := IdentityOf(abstract)
	if err != nil {
		return Identity{}, err
	}
	if id.shape == "" {
		return Identity{}, &InvalidBindingError{Reason: fmt.Sprintf("%s is not a generic type", id.key)}
	}
	return Identity{typ: id.typ, key: id.shape, shape: id.shape, name: id.name}, nil
}

func identityOfType(t reflect.Type) Identity {
	t = baseType(t)
	id := Identity{typ: t, key: typeKey(t)}

	name := t.Name()
	if i := strings.IndexByte(name, '['); i > 0 && strings.HasSuffix(name, "]") {
		id.shape = t.PkgPath() + "." + name[:i]
		id.params = splitTypeArgs(name[i+1 : len(name)-1])
	}
	return id
}

// baseType strips every pointer level.
func baseType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

func typeKey(t reflect.Type) string {
	if cached, ok := typeKeyCache.Load(t); ok {
		return cached.(string)
	}

	var key string
	if t.Name() != "" && t.PkgPath() != "" {
		key = t.PkgPath() + "." + t.Name()
	} else {
		key = t.String()
	}
	typeKeyCache.Store(t, key)
	return key
}

// splitTypeArgs splits a type argument list at top-level commas.
func splitTypeArgs(s string) []string {
	var args []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(args, strings.TrimSpace(s[start:]))
}

// Type returns the described type. It is nil for identities built from
// plain keys.
func (id Identity) Type() reflect.Type { return id.typ }

// Key returns the canonical type key, e.g. "example.com/app.Logger".
func (id Identity) Key() string { return id.key }

// Name returns the discriminator. The empty name is the default binding.
func (id Identity) Name() string { return id.name }

// Shape returns the unbound generic shape key, or "" for non-generic types.
func (id Identity) Shape() string { return id.shape }

// Params returns the generic type arguments of a closed generic identity.
func (id Identity) Params() []string {
	out := make([]string, len(id.params))
	copy(out, id.params)
	return out
}

// IsGeneric reports whether the identity is a closed generic type.
func (id Identity) IsGeneric() bool { return len(id.params) > 0 }

// IsShape reports whether the identity addresses an unbound generic shape.
func (id Identity) IsShape() bool { return id.shape != "" && id.key == id.shape }

// Named returns a copy of the identity with the given discriminator.
func (id Identity) Named(name string) Identity {
	id.name = name
	return id
}

func (id Identity) registryKey() registry.Key {
	return registry.Key{Type: id.key, Name: id.name}
}

func (id Identity) shapeKey() registry.Key {
	return registry.Key{Type: id.shape, Name: id.name}
}

// String renders the identity as "key" or "key#name".
func (id Identity) String() string {
	return id.registryKey().String()
}

package nasc

import (
	"fmt"
	"reflect"
	"strings"
)

// tagOptions represents parsed options from an inject tag.
type tagOptions struct {
	skip     bool   // Don't inject this field
	optional bool   // Leave the field untouched if resolution fails
	name     string // Named binding to use
}

// parseInjectTag parses an inject struct tag and returns options.
// Supported formats:
//   - `inject:""` - basic injection
//   - `inject:"optional"` - optional injection
//   - `inject:"name=foo"` - named binding
//   - `inject:"optional,name=foo"` - combined options
//   - `inject:"-"` - never injected
func parseInjectTag(tag string) tagOptions {
	opts := tagOptions{}

	if tag == "" {
		return opts
	}

	if tag == "-" {
		opts.skip = true
		return opts
	}

	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)

		if part == "optional" {
			opts.optional = true
		} else if strings.HasPrefix(part, "name=") {
			opts.name = strings.TrimPrefix(part, "name=")
		}
	}

	return opts
}

// AutoWire injects dependencies into the tagged fields of an instance
// created outside the container, resolving from the root scope.
//
// Supported tag options:
//   - `inject:""` - basic injection (fails if not resolvable)
//   - `inject:"optional"` - optional (skipped if not resolvable)
//   - `inject:"name=foo"` - uses named binding
//
// Example:
//
//	type Handler struct {
//	    Logger  Logger `inject:""`
//	    Cache   Cache  `inject:"optional"`
//	    FileLog Logger `inject:"name=file"`
//	}
//
//	handler := &Handler{}
//	container.AutoWire(handler)
func (n *Nasc) AutoWire(instance interface{}) error {
	return n.root.AutoWire(instance)
}

// AutoWire injects dependencies into the tagged fields of instance,
// resolving from this scope.
func (s *Scope) AutoWire(instance interface{}) error {
	if instance == nil {
		return fmt.Errorf("cannot auto-wire nil instance")
	}

	value := reflect.ValueOf(instance)
	if value.Kind() != reflect.Ptr || value.IsNil() {
		return fmt.Errorf("AutoWire requires a pointer to struct, got %T", instance)
	}
	if value.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("AutoWire requires a pointer to struct, got pointer to %v", value.Elem().Kind())
	}
	if s.isClosed() {
		return &ScopeClosedError{ScopeID: s.ID()}
	}

	r := &boundResolver{container: s.container, scope: s, res: newResolution()}
	id := identityOfType(value.Type())
	return s.container.injectProperties(r, &plan{}, instance, id)
}

package pipeline

import (
	"fmt"
)

// Kind is the type of value a port carries.
type Kind int

const (
	KindString Kind = iota
	KindList
	KindEntity
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindEntity:
		return "entity"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Port describes one named input or output of a component.
type Port struct {
	Name     string
	Kind     Kind
	Required bool
}

// Value is a kind-tagged port value.
type Value struct {
	kind Kind
	str  string
	data any
}

func StringValue(s string) Value {
	return Value{kind: KindString, str: s}
}

// ListValue wraps a slice-typed value such as tools.Spec.
func ListValue(items any) Value {
	return Value{kind: KindList, data: items}
}

// EntityValue wraps a reference to a constructed entity such as an agent.
func EntityValue(entity any) Value {
	return Value{kind: KindEntity, data: entity}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) Str() string {
	return v.str
}

func (v Value) Data() any {
	return v.data
}

// As extracts the payload of a list or entity value as T.
func As[T any](v Value) (T, bool) {
	t, ok := v.data.(T)
	return t, ok
}

// Values maps port names to values.
type Values map[string]Value

// Text returns the named string input, or "" if unset.
func (vs Values) Text(name string) string {
	v, ok := vs[name]
	if !ok || v.kind != KindString {
		return ""
	}
	return v.str
}

// Has reports whether a value is bound to name.
func (vs Values) Has(name string) bool {
	_, ok := vs[name]
	return ok
}

// Get returns the payload of the named value as T.
func Get[T any](vs Values, name string) (T, bool) {
	var zero T
	v, ok := vs[name]
	if !ok {
		return zero, false
	}
	return As[T](v)
}

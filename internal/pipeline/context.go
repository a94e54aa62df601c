// Package pipeline hosts components: a per-run Context shared by every node,
// the toolbelt registration protocol on top of it, and a scheduler that runs
// a component graph in dependency order.
package pipeline

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/rahul/crewline/internal/tools"
)

const (
	// DefaultToolbelt is used whenever a toolbelt name is left empty.
	DefaultToolbelt = "default"

	toolbeltPrefix = "toolbelt_"
)

var ErrReservedKey = errors.New("key is reserved for toolbelts")

// Context is the store shared by all components of one pipeline run.
// It is not safe for concurrent use; the scheduler runs nodes one at a time.
type Context struct {
	values map[string]any
}

func NewContext() *Context {
	return &Context{values: make(map[string]any)}
}

// ToolbeltKey returns the Context key for a toolbelt name.
func ToolbeltKey(name string) string {
	return toolbeltPrefix + toolbeltName(name)
}

func toolbeltName(name string) string {
	if strings.TrimSpace(name) == "" {
		return DefaultToolbelt
	}
	return name
}

// Set stores a value. Keys with the toolbelt prefix only accept *tools.Belt.
func (c *Context) Set(key string, value any) error {
	if strings.HasPrefix(key, toolbeltPrefix) {
		belt, ok := value.(*tools.Belt)
		if !ok {
			return errors.Wrapf(ErrReservedKey, "set %q to %T", key, value)
		}
		if belt == nil {
			return errors.Wrapf(ErrReservedKey, "set %q to a nil toolbelt", key)
		}
	}
	c.values[key] = value
	return nil
}

func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

func (c *Context) Delete(key string) {
	delete(c.values, key)
}

// Keys returns all keys in sorted order.
func (c *Context) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the value under key if it exists and has type T.
func Lookup[T any](c *Context, key string) (T, bool) {
	var zero T
	v, ok := c.values[key]
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// Toolbelt returns the named toolbelt if one has been created.
func (c *Context) Toolbelt(name string) (*tools.Belt, bool) {
	return Lookup[*tools.Belt](c, ToolbeltKey(name))
}

// EnsureToolbelt returns the named toolbelt, creating it on first use.
func (c *Context) EnsureToolbelt(name string) *tools.Belt {
	if belt, ok := c.Toolbelt(name); ok {
		return belt
	}
	belt := tools.NewBelt()
	c.values[ToolbeltKey(name)] = belt
	return belt
}

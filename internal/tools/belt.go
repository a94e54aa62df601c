package tools

// Entry pairs a qualified tool name (e.g. "ConversionTools.convert_images")
// with the tool registered under it.
type Entry struct {
	Name string
	Tool Tool
}

// Belt is a named collection of tools keyed by qualified name.
// Iteration follows first-insertion order; replacing a tool keeps its slot.
type Belt struct {
	order []string
	tools map[string]Tool
}

func NewBelt() *Belt {
	return &Belt{
		tools: make(map[string]Tool),
	}
}

// Put upserts a tool. A later Put under the same name wins.
func (b *Belt) Put(name string, t Tool) {
	if _, ok := b.tools[name]; !ok {
		b.order = append(b.order, name)
	}
	b.tools[name] = t
}

func (b *Belt) Get(name string) (Tool, bool) {
	t, ok := b.tools[name]
	return t, ok
}

func (b *Belt) Len() int {
	return len(b.order)
}

// Names returns the qualified names in insertion order.
func (b *Belt) Names() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Spec snapshots the belt's tools in insertion order.
func (b *Belt) Spec() Spec {
	spec := make(Spec, 0, len(b.order))
	for _, name := range b.order {
		spec = append(spec, b.tools[name])
	}
	return spec
}

// Spec is an ordered, read-only list of tools handed to an agent.
type Spec []Tool

// Names returns each tool's Name() in order.
func (s Spec) Names() []string {
	out := make([]string, 0, len(s))
	for _, t := range s {
		out = append(out, t.Name())
	}
	return out
}

// Lookup finds a tool by its Name(). The last tool with a given name wins.
func (s Spec) Lookup(name string) (Tool, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Name() == name {
			return s[i], true
		}
	}
	return nil, false
}

func (s Spec) Clone() Spec {
	out := make(Spec, len(s))
	copy(out, s)
	return out
}

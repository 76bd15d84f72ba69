package nn

import (
	"fmt"

	"github.com/YuminosukeSato/atomscale/config"
	"github.com/YuminosukeSato/atomscale/pkg/errors"
)

// Model is anything that produces output fields from a batch.
type Model interface {
	// OutputFields lists the fields the model produces.
	OutputFields() []string
	Forward(b *Batch) error
}

// HasOutput reports whether m produces key.
func HasOutput(m Model, key string) bool {
	for _, f := range m.OutputFields() {
		if f == key {
			return true
		}
	}
	return false
}

// InsertOptions describes a module insertion relative to an anchor module.
type InsertOptions struct {
	// Anchor is the name of an existing module.
	Anchor string
	// Name is the name of the new module; it must be unique in the graph.
	Name    string
	Builder Builder
	Params  map[string]interface{}
	Shared  *config.Config
	// Prepend inserts before the anchor instead of after it.
	Prepend bool
}

// Inserter is a model whose structure can be edited.
type Inserter interface {
	Insert(opts InsertOptions) error
}

// Graph is an ordered sequence of uniquely named modules. Insert edits it in
// place and is not safe for concurrent use.
type Graph struct {
	modules []Module
	outputs []string
}

// NewGraph builds a graph producing outputs by running modules in order.
func NewGraph(outputs []string, modules ...Module) (*Graph, error) {
	g := &Graph{outputs: append([]string(nil), outputs...)}
	for _, m := range modules {
		if g.Index(m.Name()) >= 0 {
			return nil, errors.NewValidationError("module", "duplicate module name", m.Name())
		}
		g.modules = append(g.modules, m)
	}
	return g, nil
}

// OutputFields implements Model.
func (g *Graph) OutputFields() []string {
	return append([]string(nil), g.outputs...)
}

// Names returns the module names in execution order.
func (g *Graph) Names() []string {
	out := make([]string, len(g.modules))
	for i, m := range g.modules {
		out[i] = m.Name()
	}
	return out
}

// Index returns the position of the named module, or -1.
func (g *Graph) Index(name string) int {
	for i, m := range g.modules {
		if m.Name() == name {
			return i
		}
	}
	return -1
}

// Module returns the named module, or nil.
func (g *Graph) Module(name string) Module {
	if i := g.Index(name); i >= 0 {
		return g.modules[i]
	}
	return nil
}

// Modules returns the modules in execution order.
func (g *Graph) Modules() []Module {
	return append([]Module(nil), g.modules...)
}

// Insert builds a module and places it next to the anchor.
func (g *Graph) Insert(opts InsertOptions) error {
	anchor := g.Index(opts.Anchor)
	if anchor < 0 {
		return errors.NewValidationError("anchor", fmt.Sprintf("no module named %q in %v", opts.Anchor, g.Names()), opts.Anchor)
	}
	if g.Index(opts.Name) >= 0 {
		return errors.NewValidationError("name", "duplicate module name", opts.Name)
	}
	if opts.Builder == nil {
		return errors.NewValidationError("builder", "must not be nil", opts.Name)
	}
	m, err := opts.Builder(opts.Name, opts.Params, opts.Shared)
	if err != nil {
		return errors.Wrapf(err, "building module %s", opts.Name)
	}

	at := anchor + 1
	if opts.Prepend {
		at = anchor
	}
	g.modules = append(g.modules, nil)
	copy(g.modules[at+1:], g.modules[at:])
	g.modules[at] = m
	return nil
}

// Forward runs every module in order.
func (g *Graph) Forward(b *Batch) error {
	for _, m := range g.modules {
		if err := m.Forward(b); err != nil {
			return errors.Wrapf(err, "module %s", m.Name())
		}
	}
	return nil
}

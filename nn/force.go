package nn

import (
	"github.com/YuminosukeSato/atomscale/data"
)

// ForceOutput wraps an energy model and additionally exposes forces. The
// energy-producing graph stays reachable as Func so that structural edits
// land in it rather than in the wrapper.
type ForceOutput struct {
	Func *Graph
	// Gradient computes forces from the batch after Func has run. Its
	// implementation belongs to the autodiff layer; nil leaves forces unset.
	Gradient func(b *Batch) error
}

// NewForceOutput wraps fn.
func NewForceOutput(fn *Graph, gradient func(*Batch) error) *ForceOutput {
	return &ForceOutput{Func: fn, Gradient: gradient}
}

// OutputFields implements Model.
func (f *ForceOutput) OutputFields() []string {
	out := f.Func.OutputFields()
	if !HasOutput(f.Func, data.ForceKey) {
		out = append(out, data.ForceKey)
	}
	return out
}

// Forward implements Model.
func (f *ForceOutput) Forward(b *Batch) error {
	if err := f.Func.Forward(b); err != nil {
		return err
	}
	if f.Gradient != nil {
		return f.Gradient(b)
	}
	return nil
}

// EnergyGraph returns the graph that produces energies: Func for a force
// wrapper, the model itself for a plain graph, nil otherwise.
func EnergyGraph(m Model) *Graph {
	switch v := m.(type) {
	case *ForceOutput:
		return v.Func
	case *Graph:
		return v
	default:
		return nil
	}
}

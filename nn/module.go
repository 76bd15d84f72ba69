// Package nn holds the model-side collaborators of the rescale configurators:
// an ordered graph of named modules, the force-output wrapper, the global
// rescale wrapper and the per-species scale/shift module.
//
// Learned layers are out of scope; modules here only move and transform the
// fields that normalization touches.
package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/atomscale/config"
	"github.com/YuminosukeSato/atomscale/data"
	"github.com/YuminosukeSato/atomscale/pkg/errors"
)

// Batch carries the fields of one frame through a model. Per-atom fields
// have one row per atom; graph fields are 1x1.
type Batch struct {
	AtomTypes []int
	Fields    map[string]*mat.Dense
}

// NewBatch returns an empty batch for a frame with the given atom types.
func NewBatch(atomTypes []int) *Batch {
	return &Batch{AtomTypes: atomTypes, Fields: map[string]*mat.Dense{}}
}

// Get returns a field and whether it is present.
func (b *Batch) Get(key string) (*mat.Dense, bool) {
	m, ok := b.Fields[key]
	return m, ok
}

// Set stores a field.
func (b *Batch) Set(key string, m *mat.Dense) {
	b.Fields[key] = m
}

func (b *Batch) require(op, key string) (*mat.Dense, error) {
	m, ok := b.Fields[key]
	if !ok {
		return nil, errors.NewValueError(op, fmt.Sprintf("batch has no field %q", key))
	}
	return m, nil
}

// Module is one named step of a Graph.
type Module interface {
	Name() string
	Forward(b *Batch) error
}

// Builder constructs a module from per-module params and the shared config.
type Builder func(name string, params map[string]interface{}, shared *config.Config) (Module, error)

// FuncModule adapts a function to Module.
type FuncModule struct {
	name string
	fn   func(*Batch) error
}

// NewFuncModule returns a module named name running fn.
func NewFuncModule(name string, fn func(*Batch) error) *FuncModule {
	return &FuncModule{name: name, fn: fn}
}

func (m *FuncModule) Name() string           { return m.name }
func (m *FuncModule) Forward(b *Batch) error { return m.fn(b) }

// AtomwiseReduce sums a per-atom field into a 1x1 graph field.
type AtomwiseReduce struct {
	name     string
	field    string
	outField string
}

// NewAtomwiseReduce returns a sum reduction from field into outField.
func NewAtomwiseReduce(name, field, outField string) *AtomwiseReduce {
	return &AtomwiseReduce{name: name, field: field, outField: outField}
}

func (m *AtomwiseReduce) Name() string { return m.name }

func (m *AtomwiseReduce) Forward(b *Batch) error {
	x, err := b.require(m.name, m.field)
	if err != nil {
		return err
	}
	b.Set(m.outField, mat.NewDense(1, 1, []float64{mat.Sum(x)}))
	return nil
}

// TotalEnergySumName is the conventional name of the reduction that turns
// per-atom energies into the total energy.
const TotalEnergySumName = "total_energy_sum"

// NewEnergyGraph returns the skeleton of an energy model: perAtom writes
// atomic_energy, followed by the total_energy_sum reduction.
func NewEnergyGraph(perAtom Module) *Graph {
	g, _ := NewGraph(
		[]string{data.PerAtomEnergyKey, data.TotalEnergyKey},
		perAtom,
		NewAtomwiseReduce(TotalEnergySumName, data.PerAtomEnergyKey, data.TotalEnergyKey),
	)
	return g
}

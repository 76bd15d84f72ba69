package data

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/atomscale/pkg/errors"
)

// Frame is one atomic configuration.
type Frame struct {
	// AtomTypes holds the species index of every atom.
	AtomTypes []int
	// Graph holds per-frame scalar fields such as total_energy.
	Graph map[string]float64
	// Node holds per-atom fields, one row per atom.
	Node map[string]*mat.Dense
}

// NumAtoms returns the number of atoms in f.
func (f *Frame) NumAtoms() int {
	return len(f.AtomTypes)
}

// HasField reports whether f carries field as a graph or node field.
func (f *Frame) HasField(field string) bool {
	if _, ok := f.Graph[field]; ok {
		return true
	}
	_, ok := f.Node[field]
	return ok
}

// Fields returns the sorted names of every field in f.
func (f *Frame) Fields() []string {
	out := make([]string, 0, len(f.Graph)+len(f.Node))
	for k := range f.Graph {
		out = append(out, k)
	}
	for k := range f.Node {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (f *Frame) validate(index, numTypes int) error {
	n := f.NumAtoms()
	if n == 0 {
		return errors.NewValidationError(fmt.Sprintf("frames[%d].%s", index, AtomTypeKey), "frame has no atoms", n)
	}
	for _, t := range f.AtomTypes {
		if t < 0 || t >= numTypes {
			return errors.NewValidationError(fmt.Sprintf("frames[%d].%s", index, AtomTypeKey),
				fmt.Sprintf("atom type must be in [0, %d)", numTypes), t)
		}
	}
	for name, m := range f.Node {
		if r, _ := m.Dims(); r != n {
			return errors.NewValidationError(fmt.Sprintf("frames[%d].%s", index, name),
				fmt.Sprintf("per-atom field must have %d rows", n), r)
		}
	}
	return nil
}

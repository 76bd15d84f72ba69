package main

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/atomscale/nn"
	"github.com/YuminosukeSato/atomscale/pkg/errors"
	"github.com/YuminosukeSato/atomscale/stats"
)

// plotPerSpecies draws the scales and shifts of m side by side per species.
// The image format follows the extension of path.
func plotPerSpecies(m *nn.PerSpeciesScaleShift, typeNames []string, path string) error {
	n := m.NumTypes
	if n == 0 {
		n = len(typeNames)
	}
	if n == 0 {
		return errors.NewValidationError("num_types", "unknown number of species to plot", n)
	}
	names := make([]string, n)
	for i := range names {
		if i < len(typeNames) {
			names[i] = typeNames[i]
		} else {
			names[i] = fmt.Sprintf("type %d", i)
		}
	}

	p := plot.New()
	p.Title.Text = "Per-species scale/shift"
	p.Y.Label.Text = "value"

	w := vg.Points(14)
	series := []struct {
		label string
		value stats.Value
	}{
		{"scale", m.Scales},
		{"shift", m.Shifts},
	}
	offset := -w / 2
	for i, s := range series {
		if s.value.IsNone() {
			continue
		}
		vec, err := s.value.VecDense(n)
		if err != nil {
			return errors.Wrapf(err, "plotting %s", s.label)
		}
		bars, err := plotter.NewBarChart(plotter.Values(vec.RawVector().Data), w)
		if err != nil {
			return errors.Wrap(err, "building bar chart")
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = offset
		offset += w
		p.Add(bars)
		p.Legend.Add(s.label, bars)
	}
	p.Legend.Top = true
	p.NominalX(names...)

	if err := p.Save(4*vg.Inch, 3*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "saving plot %s", path)
	}
	return nil
}

package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/atomscale/config"
	"github.com/YuminosukeSato/atomscale/pkg/errors"
	"github.com/YuminosukeSato/atomscale/stats"
)

// PerSpeciesScaleShiftName is the name under which the per-species module is
// inserted.
const PerSpeciesScaleShiftName = "per_species_scale_shift"

// PerSpeciesScaleShift applies out[i] = scales[t_i]*x[i] + shifts[t_i] to a
// per-atom field, where t_i is the type of atom i.
type PerSpeciesScaleShift struct {
	name      string
	Field     string
	OutField  string
	NumTypes  int
	Scales    stats.Value
	Shifts    stats.Value
	Trainable bool
}

// NewPerSpeciesScaleShift is a Builder. Recognised params: field, out_field,
// scales, shifts (stats.Value, float64 or []float64), trainable. The module
// width comes from the shared num_types key, falling back to the length of
// a vector parameter.
func NewPerSpeciesScaleShift(name string, params map[string]interface{}, shared *config.Config) (Module, error) {
	m := &PerSpeciesScaleShift{name: name}

	var ok bool
	if m.Field, ok = params["field"].(string); !ok || m.Field == "" {
		return nil, errors.NewValidationError("field", "required string param", params["field"])
	}
	m.OutField = m.Field
	if out, isString := params["out_field"].(string); isString && out != "" {
		m.OutField = out
	}
	m.Trainable, _ = params["trainable"].(bool)

	var err error
	if m.Scales, err = paramValue("scales", params["scales"]); err != nil {
		return nil, err
	}
	if m.Shifts, err = paramValue("shifts", params["shifts"]); err != nil {
		return nil, err
	}

	width := 0
	for _, v := range []stats.Value{m.Scales, m.Shifts} {
		if v.IsVector() {
			if width != 0 && width != v.Len() {
				return nil, errors.NewValidationError("shifts", fmt.Sprintf("length %d does not match scales length %d", v.Len(), width), v.String())
			}
			width = v.Len()
		}
	}
	if m.NumTypes, err = shared.Int("num_types", width); err != nil {
		return nil, err
	}
	if width != 0 && m.NumTypes != width {
		return nil, errors.NewValidationError("num_types", fmt.Sprintf("parameters have %d entries", width), m.NumTypes)
	}
	return m, nil
}

func paramValue(name string, v interface{}) (stats.Value, error) {
	switch x := v.(type) {
	case nil:
		return stats.None(), nil
	case stats.Value:
		return x, nil
	case float64:
		return stats.Scalar(x), nil
	case []float64:
		return stats.Vector(x), nil
	default:
		return stats.None(), errors.NewValidationError(name, "expected a number or a vector", v)
	}
}

func (m *PerSpeciesScaleShift) Name() string { return m.name }

// Forward implements Module. A none parameter leaves that half untouched.
func (m *PerSpeciesScaleShift) Forward(b *Batch) error {
	x, err := b.require(m.name, m.Field)
	if err != nil {
		return err
	}
	rows, cols := x.Dims()
	if rows != len(b.AtomTypes) {
		return errors.NewValueError(m.name, fmt.Sprintf("%s has %d rows for %d atoms", m.Field, rows, len(b.AtomTypes)))
	}
	for _, t := range b.AtomTypes {
		if m.NumTypes > 0 && (t < 0 || t >= m.NumTypes) {
			return errors.NewValueError(m.name, fmt.Sprintf("atom type %d outside [0, %d)", t, m.NumTypes))
		}
	}

	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(i, _ int, val float64) float64 {
		t := b.AtomTypes[i]
		if !m.Scales.IsNone() {
			val *= m.Scales.At(t)
		}
		if !m.Shifts.IsNone() {
			val += m.Shifts.At(t)
		}
		return val
	}, x)
	b.Set(m.OutField, out)
	return nil
}

// Parameters implements Parameterized.
func (m *PerSpeciesScaleShift) Parameters() map[string]stats.Value {
	return map[string]stats.Value{"scales": m.Scales, "shifts": m.Shifts}
}

// SetParameter implements Parameterized.
func (m *PerSpeciesScaleShift) SetParameter(name string, v stats.Value) error {
	if v.IsVector() && m.NumTypes > 0 && v.Len() != m.NumTypes {
		return errors.NewValidationError(name, fmt.Sprintf("expected %d entries", m.NumTypes), v.String())
	}
	switch name {
	case "scales":
		m.Scales = v
	case "shifts":
		m.Shifts = v
	default:
		return errors.NewValidationError("parameter", "unknown per-species parameter", name)
	}
	return nil
}

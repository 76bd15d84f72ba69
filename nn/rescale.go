package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/atomscale/data"
	"github.com/YuminosukeSato/atomscale/pkg/errors"
	"github.com/YuminosukeSato/atomscale/stats"
)

// RescaleParams configures a RescaleOutput. A none ScaleBy or ShiftBy turns
// that half of the transform off.
type RescaleParams struct {
	ScaleKeys      []string
	ScaleBy        stats.Value
	ShiftKeys      []string
	ShiftBy        stats.Value
	TrainableScale bool
	TrainableShift bool
}

// RescaleOutput wraps a model and maps its normalized outputs back to
// physical units: x*scale on ScaleKeys, then +shift on ShiftKeys.
type RescaleOutput struct {
	Model Model
	RescaleParams
}

// NewRescaleOutput wraps model. Every scale and shift key must be one of the
// model's outputs.
func NewRescaleOutput(model Model, p RescaleParams) (*RescaleOutput, error) {
	for _, k := range append(append([]string(nil), p.ScaleKeys...), p.ShiftKeys...) {
		if !HasOutput(model, k) {
			return nil, errors.NewValidationError("keys", fmt.Sprintf("model does not output %q", k), model.OutputFields())
		}
	}
	for name, v := range map[string]stats.Value{"scale_by": p.ScaleBy, "shift_by": p.ShiftBy} {
		if err := v.Check("RescaleOutput." + name); err != nil {
			return nil, err
		}
	}
	if err := checkComponents("scale_by", p.ScaleBy, p.ScaleKeys); err != nil {
		return nil, err
	}
	if err := checkComponents("shift_by", p.ShiftBy, p.ShiftKeys); err != nil {
		return nil, err
	}
	p.ScaleKeys = append([]string(nil), p.ScaleKeys...)
	p.ShiftKeys = append([]string(nil), p.ShiftKeys...)
	return &RescaleOutput{Model: model, RescaleParams: p}, nil
}

// OutputFields implements Model.
func (r *RescaleOutput) OutputFields() []string {
	return r.Model.OutputFields()
}

// HasScale reports whether the wrapper scales anything.
func (r *RescaleOutput) HasScale() bool { return !r.ScaleBy.IsNone() }

// HasShift reports whether the wrapper shifts anything.
func (r *RescaleOutput) HasShift() bool { return !r.ShiftBy.IsNone() }

// Forward runs the wrapped model and rescales its outputs.
func (r *RescaleOutput) Forward(b *Batch) error {
	if err := r.Model.Forward(b); err != nil {
		return err
	}
	return r.Scale(b)
}

// Scale applies x*scale + shift in place to the fields present in b.
func (r *RescaleOutput) Scale(b *Batch) error {
	if r.HasScale() {
		for _, k := range r.ScaleKeys {
			if err := r.apply(b, k, r.ScaleBy, mulOp); err != nil {
				return err
			}
		}
	}
	if r.HasShift() {
		for _, k := range r.ShiftKeys {
			if err := r.apply(b, k, r.ShiftBy, addOp); err != nil {
				return err
			}
		}
	}
	return nil
}

// Unscale is the inverse of Scale: (x - shift) / scale. It brings reference
// targets into the normalized space the wrapped model predicts in.
func (r *RescaleOutput) Unscale(b *Batch) error {
	if r.HasShift() {
		for _, k := range r.ShiftKeys {
			if err := r.apply(b, k, r.ShiftBy, subOp); err != nil {
				return err
			}
		}
	}
	if r.HasScale() {
		for _, k := range r.ScaleKeys {
			if err := r.apply(b, k, r.ScaleBy, divOp); err != nil {
				return err
			}
		}
	}
	return nil
}

type elementOp func(x, c float64) float64

func mulOp(x, c float64) float64 { return x * c }
func addOp(x, c float64) float64 { return x + c }
func subOp(x, c float64) float64 { return x - c }
func divOp(x, c float64) float64 { return x / c }

// apply combines field k with v. A scalar broadcasts; a vector applies per
// column and must match the field's column count. Absent fields are skipped.
func (r *RescaleOutput) apply(b *Batch, k string, v stats.Value, op elementOp) error {
	x, ok := b.Get(k)
	if !ok {
		return nil
	}
	rows, cols := x.Dims()
	if v.IsVector() && v.Len() != cols {
		return errors.NewValueError("RescaleOutput", fmt.Sprintf("%s has %d columns, parameter has %d", k, cols, v.Len()))
	}
	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(_, j int, val float64) float64 {
		return op(val, v.At(j))
	}, x)
	b.Set(k, out)
	return nil
}

// checkComponents requires a vector parameter to match the column count of
// every field it applies to.
func checkComponents(name string, v stats.Value, keys []string) error {
	if !v.IsVector() {
		return nil
	}
	for _, k := range keys {
		n, ok := data.FieldComponents(k)
		if !ok {
			return errors.NewValidationError(name, fmt.Sprintf("column count of %q is unknown; use a scalar", k), v.String())
		}
		if n != v.Len() {
			return errors.NewValidationError(name, fmt.Sprintf("%s has %d columns, parameter has %d", k, n, v.Len()), v.String())
		}
	}
	return nil
}

// Parameters implements Parameterized.
func (r *RescaleOutput) Parameters() map[string]stats.Value {
	return map[string]stats.Value{"scale_by": r.ScaleBy, "shift_by": r.ShiftBy}
}

// SetParameter implements Parameterized.
func (r *RescaleOutput) SetParameter(name string, v stats.Value) error {
	switch name {
	case "scale_by":
		if err := checkComponents(name, v, r.ScaleKeys); err != nil {
			return err
		}
		r.ScaleBy = v
	case "shift_by":
		if err := checkComponents(name, v, r.ShiftKeys); err != nil {
			return err
		}
		r.ShiftBy = v
	default:
		return errors.NewValidationError("parameter", "unknown rescale parameter", name)
	}
	return nil
}

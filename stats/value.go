package stats

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/atomscale/pkg/errors"
)

type valueKind int

const (
	noneValue valueKind = iota
	scalarValue
	vectorValue
)

// Value is a resolved statistic or literal: nothing, a scalar, or a vector
// (one entry per species for per-species statistics). Values are immutable;
// constructors and accessors copy vector data.
type Value struct {
	kind   valueKind
	scalar float64
	vec    []float64
}

// None returns the empty Value, meaning "no rescale of this kind".
func None() Value {
	return Value{}
}

// Scalar returns a scalar Value.
func Scalar(x float64) Value {
	return Value{kind: scalarValue, scalar: x}
}

// Vector returns a vector Value holding a copy of xs.
func Vector(xs []float64) Value {
	return Value{kind: vectorValue, vec: append([]float64(nil), xs...)}
}

// FromVec returns a vector Value holding a copy of v.
func FromVec(v mat.Vector) Value {
	xs := make([]float64, v.Len())
	for i := range xs {
		xs[i] = v.AtVec(i)
	}
	return Value{kind: vectorValue, vec: xs}
}

// IsNone reports whether v holds nothing.
func (v Value) IsNone() bool { return v.kind == noneValue }

// IsScalar reports whether v is a scalar.
func (v Value) IsScalar() bool { return v.kind == scalarValue }

// IsVector reports whether v is a vector.
func (v Value) IsVector() bool { return v.kind == vectorValue }

// Float returns the scalar held by v. It returns 0 for none and vectors.
func (v Value) Float() float64 {
	if v.kind != scalarValue {
		return 0
	}
	return v.scalar
}

// Len returns the number of elements: 0 for none, 1 for scalars.
func (v Value) Len() int {
	switch v.kind {
	case scalarValue:
		return 1
	case vectorValue:
		return len(v.vec)
	default:
		return 0
	}
}

// At returns element i. Scalars broadcast to every index.
func (v Value) At(i int) float64 {
	if v.kind == scalarValue {
		return v.scalar
	}
	return v.vec[i]
}

// Floats returns a copy of the elements of v.
func (v Value) Floats() []float64 {
	switch v.kind {
	case scalarValue:
		return []float64{v.scalar}
	case vectorValue:
		return append([]float64(nil), v.vec...)
	default:
		return nil
	}
}

// VecDense returns v broadcast to a vector of length n. A vector Value must
// already have length n.
func (v Value) VecDense(n int) (*mat.VecDense, error) {
	switch v.kind {
	case scalarValue:
		out := mat.NewVecDense(n, nil)
		for i := 0; i < n; i++ {
			out.SetVec(i, v.scalar)
		}
		return out, nil
	case vectorValue:
		if len(v.vec) != n {
			return nil, errors.NewValueError("Value.VecDense", fmt.Sprintf("vector of length %d cannot broadcast to %d", len(v.vec), n))
		}
		return mat.NewVecDense(n, v.Floats()), nil
	default:
		return nil, errors.NewValueError("Value.VecDense", "none has no elements")
	}
}

// Div divides v element-wise by d. A scalar divisor broadcasts; two vectors
// must have equal length. Dividing none yields none.
func (v Value) Div(d Value) (Value, error) {
	switch {
	case v.IsNone():
		return v, nil
	case d.IsNone():
		return Value{}, errors.NewValueError("Value.Div", "cannot divide by none")
	case v.IsScalar() && d.IsScalar():
		return Scalar(v.scalar / d.scalar), nil
	case v.IsScalar():
		out := make([]float64, len(d.vec))
		for i := range out {
			out[i] = v.scalar
		}
		floats.Div(out, d.vec)
		return Value{kind: vectorValue, vec: out}, nil
	case d.IsScalar():
		out := v.Floats()
		floats.Scale(1/d.scalar, out)
		return Value{kind: vectorValue, vec: out}, nil
	default:
		if len(v.vec) != len(d.vec) {
			return Value{}, errors.NewValueError("Value.Div", fmt.Sprintf("length mismatch: %d / %d", len(v.vec), len(d.vec)))
		}
		out := v.Floats()
		floats.Div(out, d.vec)
		return Value{kind: vectorValue, vec: out}, nil
	}
}

// Equal reports whether v and o hold the same kind and elements.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case scalarValue:
		return v.scalar == o.scalar
	case vectorValue:
		return floats.Equal(v.vec, o.vec)
	default:
		return true
	}
}

// EqualApprox is Equal with an absolute tolerance.
func (v Value) EqualApprox(o Value, tol float64) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case scalarValue:
		return scalar.EqualWithinAbs(v.scalar, o.scalar, tol)
	case vectorValue:
		return floats.EqualApprox(v.vec, o.vec, tol)
	default:
		return true
	}
}

// Check fails with a NumericalInstabilityError if v holds NaN or Inf.
func (v Value) Check(operation string) error {
	return errors.CheckNumericalStability(operation, v.Floats())
}

func (v Value) String() string {
	switch v.kind {
	case scalarValue:
		return strconv.FormatFloat(v.scalar, 'g', -1, 64)
	case vectorValue:
		parts := make([]string, len(v.vec))
		for i, x := range v.vec {
			parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "none"
	}
}

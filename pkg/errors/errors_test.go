package errors

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

func TestNewUnsupportedStatisticKindError(t *testing.T) {
	err := NewUnsupportedStatisticKindError("dataset_energy_foo", "foo")

	want := `atomscale: cannot handle "foo" type quantity in statistic request "dataset_energy_foo" (expected mean, std or rms)`
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	// スタックトレースの存在確認
	formatted := fmt.Sprintf("%+v", err)
	if !strings.Contains(formatted, "errors_test.go") {
		t.Error("Expected stack trace to contain test file name")
	}

	var kindErr *UnsupportedStatisticKindError
	if !As(err, &kindErr) {
		t.Fatal("Error should be castable to *UnsupportedStatisticKindError")
	}
	if kindErr.Kind != "foo" {
		t.Errorf("Kind = %q, want foo", kindErr.Kind)
	}
}

func TestNewDegenerateScaleError(t *testing.T) {
	err := NewDegenerateScaleError(1e-8, 1e-6)

	if !strings.Contains(err.Error(), "1e-08") {
		t.Errorf("Error() should carry the offending value, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "global_rescale_scale: null") {
		t.Errorf("Error() should suggest disabling the scale, got %q", err.Error())
	}

	var degErr *DegenerateScaleError
	if !As(err, &degErr) {
		t.Fatal("Error should be castable to *DegenerateScaleError")
	}
	if degErr.Value != 1e-8 || degErr.Threshold != 1e-6 {
		t.Errorf("got value=%g threshold=%g", degErr.Value, degErr.Threshold)
	}
}

func TestTypedErrorsCastable(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{
			name: "InvalidScaleSourceTypeError",
			err:  NewInvalidScaleSourceTypeError("global_rescale_scale", true),
			check: func(err error) bool {
				var target *InvalidScaleSourceTypeError
				return As(err, &target) && target.Key == "global_rescale_scale"
			},
		},
		{
			name: "ConflictingShiftConfigError",
			err:  NewConflictingShiftConfigError(1.0),
			check: func(err error) bool {
				var target *ConflictingShiftConfigError
				return As(err, &target) && target.GlobalShift == 1.0
			},
		},
		{
			name: "InvalidStatRequestError",
			err:  NewInvalidStatRequestError("dataset_mean", "empty field name"),
			check: func(err error) bool {
				var target *InvalidStatRequestError
				return As(err, &target) && target.Reason == "empty field name"
			},
		},
		{
			name: "StatisticsShapeError",
			err:  NewStatisticsShapeError("forces", "rms", 1, 2),
			check: func(err error) bool {
				var target *StatisticsShapeError
				return As(err, &target) && target.Expected == 1 && target.Got == 2
			},
		},
		{
			name: "ValidationError",
			err:  NewValidationError("dataset_statistics_stride", "must be >= 1", 0),
			check: func(err error) bool {
				var target *ValidationError
				return As(err, &target) && target.ParamName == "dataset_statistics_stride"
			},
		},
		{
			name: "ValueError",
			err:  NewValueError("Statistics", "unknown field"),
			check: func(err error) bool {
				var target *ValueError
				return As(err, &target)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(tt.err) {
				t.Errorf("%s is not castable or carries wrong fields: %v", tt.name, tt.err)
			}
		})
	}
}

func TestMarshalZerologObject(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	var kindErr *UnsupportedStatisticKindError
	if !As(NewUnsupportedStatisticKindError("energy_foo", "foo"), &kindErr) {
		t.Fatal("cast failed")
	}
	logger.Error().EmbedObject(kindErr).Msg("parse failed")

	out := buf.String()
	for _, want := range []string{`"kind":"foo"`, `"request":"energy_foo"`, `"type":"UnsupportedStatisticKindError"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %s does not contain %s", out, want)
		}
	}
}

func TestWarnRouting(t *testing.T) {
	var got []error
	SetZerologWarnFunc(func(w error) { got = append(got, w) })
	defer SetZerologWarnFunc(nil)

	Warn(NewSamplingWarning(10, 5, 1))
	if len(got) != 1 {
		t.Fatalf("expected 1 routed warning, got %d", len(got))
	}
	want := "dataset statistics stride 10 over 5 frames uses only 1 frame(s); statistics may be unreliable"
	if got[0].Error() != want {
		t.Errorf("Error() = %q, want %q", got[0].Error(), want)
	}
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "computing %s", "forces/rms")

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}
	if !strings.Contains(wrapped.Error(), "computing forces/rms") {
		t.Errorf("unexpected message %q", wrapped.Error())
	}
}

func TestCheckNumericalStability(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		wantErr bool
	}{
		{"finite", []float64{1, 2, 3}, false},
		{"nan", []float64{1, math.NaN()}, true},
		{"inf", []float64{math.Inf(-1)}, true},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckNumericalStability("stats", tt.values)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := CheckScalar("scale", math.NaN()); err == nil {
		t.Error("CheckScalar(NaN) should fail")
	}

	v := mat.NewVecDense(3, []float64{1, math.Inf(1), 2})
	err := CheckVector("scales", v)
	var numErr *NumericalInstabilityError
	if !As(err, &numErr) {
		t.Fatalf("expected NumericalInstabilityError, got %v", err)
	}
	if len(numErr.Values) != 1 {
		t.Errorf("expected only offending values, got %v", numErr.Values)
	}
}

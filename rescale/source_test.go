package rescale

import (
	"testing"

	"github.com/YuminosukeSato/atomscale/config"
	"github.com/YuminosukeSato/atomscale/pkg/errors"
	"github.com/YuminosukeSato/atomscale/stats"
)

func TestParseSource(t *testing.T) {
	tests := []struct {
		name  string
		in    interface{}
		kind  SourceKind
		value stats.Value
		req   string
	}{
		{"null", nil, SourceDisabled, stats.None(), ""},
		{"request", "dataset_force_rms", SourceRequest, stats.None(), "dataset_force_rms"},
		{"float", 1.5, SourceLiteral, stats.Scalar(1.5), ""},
		{"int", 2, SourceLiteral, stats.Scalar(2), ""},
		{"yaml sequence", []interface{}{1, 2.5}, SourceLiteralVector, stats.Vector([]float64{1, 2.5}), ""},
		{"float slice", []float64{3, 4}, SourceLiteralVector, stats.Vector([]float64{3, 4}), ""},
		{"value", stats.Scalar(7), SourceLiteral, stats.Scalar(7), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseSource("k", tt.in)
			if err != nil {
				t.Fatalf("ParseSource: %v", err)
			}
			if s.Kind() != tt.kind {
				t.Errorf("Kind() = %v, want %v", s.Kind(), tt.kind)
			}
			if !s.Value().Equal(tt.value) {
				t.Errorf("Value() = %v, want %v", s.Value(), tt.value)
			}
			if s.Request() != tt.req {
				t.Errorf("Request() = %q, want %q", s.Request(), tt.req)
			}
		})
	}
}

func TestParseSourceInvalid(t *testing.T) {
	for _, in := range []interface{}{true, map[string]interface{}{}, []interface{}{1, "x"}} {
		_, err := ParseSource("global_rescale_scale", in)
		var e *errors.InvalidScaleSourceTypeError
		if !errors.As(err, &e) {
			t.Errorf("ParseSource(%v) error = %v, want InvalidScaleSourceTypeError", in, err)
		}
	}
}

func TestSourceFromConfigPresence(t *testing.T) {
	def := FromRequest("dataset_energy_mean")
	c := config.New(map[string]interface{}{"explicit_null": nil})

	s, err := sourceFromConfig(c, "missing", def)
	if err != nil || s.Request() != "dataset_energy_mean" {
		t.Errorf("missing key: got %v, %v; want default", s, err)
	}
	s, err = sourceFromConfig(c, "explicit_null", def)
	if err != nil || !s.IsDisabled() {
		t.Errorf("explicit null: got %v, %v; want disabled", s, err)
	}
}

func TestCollectRequestsDeduplicates(t *testing.T) {
	got := collectRequests(FromRequest("a_mean"), Literal(1), FromRequest("a_mean"), Disabled(), FromRequest("b_rms"))
	if len(got) != 2 || got[0] != "a_mean" || got[1] != "b_rms" {
		t.Errorf("collectRequests = %v", got)
	}
}

func TestDecodeOptions(t *testing.T) {
	opts, err := DecodeOptions(config.New(map[string]interface{}{
		StrideKey:              4,
		TrainableShiftKey:      true,
		PerSpeciesTrainableKey: nil,
		GlobalScaleKey:         "dataset_force_rms",
	}))
	if err != nil {
		t.Fatalf("DecodeOptions: %v", err)
	}
	if opts.Stride != 4 || !opts.TrainableShift || opts.TrainableScale || opts.TrainablePerSpecies {
		t.Errorf("opts = %+v", opts)
	}

	if _, err := DecodeOptions(config.New(map[string]interface{}{StrideKey: -1})); err == nil {
		t.Error("expected error for negative stride")
	}
}

func TestDecodeOptionsStrideMustBeIntegral(t *testing.T) {
	_, err := DecodeOptions(config.New(map[string]interface{}{StrideKey: 2.7}))
	var ve *errors.ValidationError
	if !errors.As(err, &ve) || ve.ParamName != StrideKey {
		t.Fatalf("stride 2.7: error = %v, want ValidationError on %s", err, StrideKey)
	}

	opts, err := DecodeOptions(config.New(map[string]interface{}{StrideKey: 2.0}))
	if err != nil || opts.Stride != 2 {
		t.Errorf("stride 2.0: got %d, %v; want 2", opts.Stride, err)
	}
}

package stats

import (
	"testing"

	"github.com/YuminosukeSato/atomscale/pkg/errors"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		raw         string
		granularity Granularity
		field       string
		kind        Kind
		mode        Mode
	}{
		{"dataset_force_rms", Global, "force", KindRMS, ModeRMS},
		{"energy_mean", Global, "energy", KindMean, ModeMeanStd},
		{"dataset_energy_std", Global, "energy", KindStd, ModeMeanStd},
		{"dataset_per_species_forces_rms", PerSpecies, "forces", KindRMS, ModePerSpeciesRMS},
		{"per_species_total_energy_mean", PerSpecies, "total_energy", KindMean, ModePerSpeciesMeanStd},
		{"dataset_per_atom_total_energy_std", PerAtom, "total_energy", KindStd, ModePerAtomMeanStd},
		{"per_atom_total_energy_rms", PerAtom, "total_energy", KindRMS, ModePerAtomRMS},
		{"dataset_dataset_energy_mean", Global, "dataset_energy", KindMean, ModeMeanStd},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			req, err := ParseRequest(tt.raw)
			if err != nil {
				t.Fatalf("ParseRequest(%q) error: %v", tt.raw, err)
			}
			if req.Granularity != tt.granularity || req.Field != tt.field || req.Kind != tt.kind {
				t.Errorf("got %+v", req)
			}
			if req.Mode() != tt.mode {
				t.Errorf("Mode() = %s, want %s", req.Mode(), tt.mode)
			}
			if req.Raw != tt.raw {
				t.Errorf("Raw = %q, want %q", req.Raw, tt.raw)
			}
		})
	}
}

func TestParseRequestErrors(t *testing.T) {
	tests := []struct {
		raw         string
		wantKindErr bool
	}{
		{"energy_foo", true},
		{"dataset_energy_median", true},
		{"", true},
		{"forces", true},
		{"dataset_rms", false},
		{"per_species_mean", false},
		{"per_species_per_atom_energy_mean", false},
		{"per_atom_per_species_energy_mean", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			_, err := ParseRequest(tt.raw)
			if err == nil {
				t.Fatalf("ParseRequest(%q) should fail", tt.raw)
			}
			var kindErr *errors.UnsupportedStatisticKindError
			var reqErr *errors.InvalidStatRequestError
			if tt.wantKindErr && !errors.As(err, &kindErr) {
				t.Errorf("expected UnsupportedStatisticKindError, got %v", err)
			}
			if !tt.wantKindErr && !errors.As(err, &reqErr) {
				t.Errorf("expected InvalidStatRequestError, got %v", err)
			}
		})
	}
}

func TestRequestStringRoundTrip(t *testing.T) {
	for _, raw := range []string{"per_species_forces_rms", "total_energy_std", "per_atom_total_energy_mean"} {
		req, err := ParseRequest("dataset_" + raw)
		if err != nil {
			t.Fatal(err)
		}
		if req.String() != raw {
			t.Errorf("String() = %q, want %q", req.String(), raw)
		}
	}
}

func TestModeProperties(t *testing.T) {
	tests := []struct {
		mode        Mode
		tupleLen    int
		granularity Granularity
	}{
		{ModeMeanStd, 2, Global},
		{ModeRMS, 1, Global},
		{ModePerSpeciesMeanStd, 2, PerSpecies},
		{ModePerSpeciesRMS, 1, PerSpecies},
		{ModePerAtomMeanStd, 2, PerAtom},
		{ModePerAtomRMS, 1, PerAtom},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			if !tt.mode.Valid() {
				t.Error("mode should be valid")
			}
			if tt.mode.TupleLen() != tt.tupleLen {
				t.Errorf("TupleLen = %d, want %d", tt.mode.TupleLen(), tt.tupleLen)
			}
			if tt.mode.Granularity() != tt.granularity {
				t.Errorf("Granularity = %v, want %v", tt.mode.Granularity(), tt.granularity)
			}
		})
	}
	if Mode("median").Valid() {
		t.Error("unknown mode should be invalid")
	}
}

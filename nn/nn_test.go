package nn

import (
	"bytes"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/atomscale/config"
	"github.com/YuminosukeSato/atomscale/data"
	"github.com/YuminosukeSato/atomscale/pkg/errors"
	"github.com/YuminosukeSato/atomscale/stats"
)

// constantEnergy writes the given per-atom energies.
func constantEnergy(energies ...float64) Module {
	return NewFuncModule("per_atom_energy", func(b *Batch) error {
		b.Set(data.PerAtomEnergyKey, mat.NewDense(len(energies), 1, append([]float64(nil), energies...)))
		return nil
	})
}

func totalEnergy(t *testing.T, b *Batch) float64 {
	t.Helper()
	e, ok := b.Get(data.TotalEnergyKey)
	if !ok {
		t.Fatal("total_energy missing")
	}
	return e.At(0, 0)
}

func TestGraphInsert(t *testing.T) {
	tests := []struct {
		name    string
		prepend bool
		want    []string
	}{
		{"prepend", true, []string{"per_atom_energy", "extra", TotalEnergySumName}},
		{"append", false, []string{"per_atom_energy", TotalEnergySumName, "extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewEnergyGraph(constantEnergy(1, 2))
			err := g.Insert(InsertOptions{
				Anchor:  TotalEnergySumName,
				Name:    "extra",
				Prepend: tt.prepend,
				Builder: func(name string, _ map[string]interface{}, _ *config.Config) (Module, error) {
					return NewFuncModule(name, func(*Batch) error { return nil }), nil
				},
			})
			if err != nil {
				t.Fatalf("Insert: %v", err)
			}
			got := g.Names()
			if len(got) != len(tt.want) {
				t.Fatalf("Names() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Names() = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestGraphInsertErrors(t *testing.T) {
	noop := func(name string, _ map[string]interface{}, _ *config.Config) (Module, error) {
		return NewFuncModule(name, func(*Batch) error { return nil }), nil
	}
	tests := []struct {
		name string
		opts InsertOptions
	}{
		{"unknown anchor", InsertOptions{Anchor: "missing", Name: "x", Builder: noop}},
		{"duplicate name", InsertOptions{Anchor: TotalEnergySumName, Name: "per_atom_energy", Builder: noop}},
		{"nil builder", InsertOptions{Anchor: TotalEnergySumName, Name: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewEnergyGraph(constantEnergy(1))
			err := g.Insert(tt.opts)
			var ve *errors.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Insert error = %v, want ValidationError", err)
			}
			if len(g.Names()) != 2 {
				t.Errorf("graph modified on failure: %v", g.Names())
			}
		})
	}
}

func TestForceOutputExposesFunc(t *testing.T) {
	g := NewEnergyGraph(constantEnergy(1, 2))
	f := NewForceOutput(g, nil)

	if EnergyGraph(f) != g {
		t.Error("EnergyGraph(force wrapper) should return Func")
	}
	if EnergyGraph(g) != g {
		t.Error("EnergyGraph(graph) should return the graph")
	}
	if !HasOutput(f, data.ForceKey) || !HasOutput(f, data.TotalEnergyKey) {
		t.Errorf("OutputFields() = %v", f.OutputFields())
	}
	if HasOutput(g, data.ForceKey) {
		t.Error("plain energy graph must not output forces")
	}

	b := NewBatch([]int{0, 1})
	if err := f.Forward(b); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if got := totalEnergy(t, b); got != 3 {
		t.Errorf("total_energy = %v, want 3", got)
	}
}

func TestRescaleOutput(t *testing.T) {
	g := NewEnergyGraph(constantEnergy(1, 2))
	r, err := NewRescaleOutput(g, RescaleParams{
		ScaleKeys: []string{data.TotalEnergyKey, data.PerAtomEnergyKey},
		ScaleBy:   stats.Scalar(2),
		ShiftKeys: []string{data.TotalEnergyKey},
		ShiftBy:   stats.Scalar(-1),
	})
	if err != nil {
		t.Fatalf("NewRescaleOutput: %v", err)
	}

	b := NewBatch([]int{0, 0})
	if err := r.Forward(b); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if got := totalEnergy(t, b); got != 5 {
		t.Errorf("total_energy = %v, want 3*2-1 = 5", got)
	}
	pa, _ := b.Get(data.PerAtomEnergyKey)
	if pa.At(1, 0) != 4 {
		t.Errorf("atomic_energy[1] = %v, want 4", pa.At(1, 0))
	}

	if err := r.Unscale(b); err != nil {
		t.Fatalf("Unscale: %v", err)
	}
	if got := totalEnergy(t, b); got != 3 {
		t.Errorf("unscaled total_energy = %v, want 3", got)
	}
}

func TestRescaleOutputNoneIsIdentity(t *testing.T) {
	g := NewEnergyGraph(constantEnergy(1, 2))
	r, err := NewRescaleOutput(g, RescaleParams{ScaleKeys: []string{data.TotalEnergyKey}})
	if err != nil {
		t.Fatalf("NewRescaleOutput: %v", err)
	}
	if r.HasScale() || r.HasShift() {
		t.Fatal("none parameters should disable rescaling")
	}
	b := NewBatch([]int{0, 0})
	if err := r.Forward(b); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if got := totalEnergy(t, b); got != 3 {
		t.Errorf("total_energy = %v, want 3", got)
	}
}

func TestRescaleOutputRejectsUnknownKey(t *testing.T) {
	g := NewEnergyGraph(constantEnergy(1))
	_, err := NewRescaleOutput(g, RescaleParams{ScaleKeys: []string{data.ForceKey}, ScaleBy: stats.Scalar(1)})
	var ve *errors.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
}

func TestPerSpeciesScaleShift(t *testing.T) {
	params := map[string]interface{}{
		"field":     data.PerAtomEnergyKey,
		"out_field": data.PerAtomEnergyKey,
		"scales":    stats.Vector([]float64{1, 2}),
		"shifts":    stats.Vector([]float64{-1, 10}),
	}
	g := NewEnergyGraph(constantEnergy(1, 1, 3))
	err := g.Insert(InsertOptions{
		Anchor:  TotalEnergySumName,
		Name:    PerSpeciesScaleShiftName,
		Builder: NewPerSpeciesScaleShift,
		Params:  params,
		Shared:  config.New(map[string]interface{}{"num_types": 2}),
		Prepend: true,
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	b := NewBatch([]int{0, 1, 1})
	if err := g.Forward(b); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	// (1*1-1) + (1*2+10) + (3*2+10)
	if got := totalEnergy(t, b); got != 28 {
		t.Errorf("total_energy = %v, want 28", got)
	}

	b = NewBatch([]int{0, 2, 1})
	if err := g.Forward(b); err == nil {
		t.Error("expected error for atom type outside num_types")
	}
}

func TestPerSpeciesScaleShiftBuilderErrors(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]interface{}
		shared *config.Config
	}{
		{"missing field", map[string]interface{}{}, nil},
		{"bad scales", map[string]interface{}{"field": "atomic_energy", "scales": "x"}, nil},
		{"length mismatch", map[string]interface{}{
			"field":  "atomic_energy",
			"scales": []float64{1, 2},
			"shifts": []float64{1, 2, 3},
		}, nil},
		{"num_types mismatch", map[string]interface{}{
			"field":  "atomic_energy",
			"scales": []float64{1, 2},
		}, config.New(map[string]interface{}{"num_types": 3})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewPerSpeciesScaleShift("pss", tt.params, tt.shared); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	build := func(scale, shift, scales stats.Value) *RescaleOutput {
		g := NewEnergyGraph(constantEnergy(1, 2))
		if err := g.Insert(InsertOptions{
			Anchor:  TotalEnergySumName,
			Name:    PerSpeciesScaleShiftName,
			Builder: NewPerSpeciesScaleShift,
			Params:  map[string]interface{}{"field": data.PerAtomEnergyKey, "scales": scales},
			Prepend: true,
		}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		r, err := NewRescaleOutput(NewForceOutput(g, nil), RescaleParams{
			ScaleKeys: []string{data.TotalEnergyKey},
			ScaleBy:   scale,
			ShiftKeys: []string{data.TotalEnergyKey},
			ShiftBy:   shift,
		})
		if err != nil {
			t.Fatalf("NewRescaleOutput: %v", err)
		}
		return r
	}

	trained := build(stats.Scalar(0.5), stats.Scalar(-3), stats.Vector([]float64{2, 4}))
	var buf bytes.Buffer
	if err := SaveCheckpointToWriter(trained, &buf); err != nil {
		t.Fatalf("save: %v", err)
	}

	placeholder := build(stats.Scalar(1), stats.Scalar(0), stats.Scalar(1))
	if err := LoadCheckpointFromReader(placeholder, &buf); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !placeholder.ScaleBy.Equal(stats.Scalar(0.5)) || !placeholder.ShiftBy.Equal(stats.Scalar(-3)) {
		t.Errorf("restored rescale = %v/%v", placeholder.ScaleBy, placeholder.ShiftBy)
	}
	pss := EnergyGraph(placeholder.Model).Module(PerSpeciesScaleShiftName).(*PerSpeciesScaleShift)
	if !pss.Scales.Equal(stats.Vector([]float64{2, 4})) {
		t.Errorf("restored scales = %v", pss.Scales)
	}

	keys := NewCheckpoint(trained).Keys()
	want := []string{"per_species_scale_shift.scales", "per_species_scale_shift.shifts", "rescale.scale_by", "rescale.shift_by"}
	if len(keys) != len(want) {
		t.Fatalf("Keys() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys() = %v, want %v", keys, want)
		}
	}
}

func TestCheckpointPresenceMismatch(t *testing.T) {
	g := NewEnergyGraph(constantEnergy(1))
	saved, _ := NewRescaleOutput(g, RescaleParams{ScaleKeys: []string{data.TotalEnergyKey}, ScaleBy: stats.Scalar(2)})
	target, _ := NewRescaleOutput(NewEnergyGraph(constantEnergy(1)), RescaleParams{ScaleKeys: []string{data.TotalEnergyKey}})

	err := NewCheckpoint(saved).Restore(target)
	var ve *errors.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Restore error = %v, want ValidationError", err)
	}
}

func TestCheckpointRestoreLeavesModelOnPresenceMismatch(t *testing.T) {
	target, err := NewRescaleOutput(NewEnergyGraph(constantEnergy(1)), RescaleParams{
		ScaleKeys: []string{data.TotalEnergyKey},
		ScaleBy:   stats.Scalar(1),
		ShiftKeys: []string{data.TotalEnergyKey},
		ShiftBy:   stats.Scalar(0),
	})
	if err != nil {
		t.Fatalf("NewRescaleOutput: %v", err)
	}
	ckpt := &Checkpoint{Params: map[string]Record{
		"rescale.scale_by": toRecord(stats.Scalar(7)),
		"rescale.shift_by": toRecord(stats.None()),
	}}

	for i := 0; i < 20; i++ {
		err := ckpt.Restore(target)
		var ve *errors.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("Restore error = %v, want ValidationError", err)
		}
		if !target.ScaleBy.Equal(stats.Scalar(1)) || !target.ShiftBy.Equal(stats.Scalar(0)) {
			t.Fatalf("model modified by failed restore: scale=%v shift=%v", target.ScaleBy, target.ShiftBy)
		}
	}
}

func TestCheckpointRestoreRollsBackOnRejectedValue(t *testing.T) {
	g := NewEnergyGraph(constantEnergy(1, 2))
	if err := g.Insert(InsertOptions{
		Anchor:  TotalEnergySumName,
		Name:    PerSpeciesScaleShiftName,
		Builder: NewPerSpeciesScaleShift,
		Params: map[string]interface{}{
			"field":  data.PerAtomEnergyKey,
			"scales": []float64{1, 1},
			"shifts": []float64{0, 0},
		},
		Prepend: true,
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	ckpt := &Checkpoint{Params: map[string]Record{
		"per_species_scale_shift.scales": toRecord(stats.Vector([]float64{2, 3})),
		"per_species_scale_shift.shifts": toRecord(stats.Vector([]float64{1, 2, 3})),
	}}

	if err := ckpt.Restore(g); err == nil {
		t.Fatal("expected error for shifts of the wrong length")
	}
	pss := g.Module(PerSpeciesScaleShiftName).(*PerSpeciesScaleShift)
	if !pss.Scales.Equal(stats.Vector([]float64{1, 1})) {
		t.Errorf("scales = %v, want the original [1, 1]", pss.Scales)
	}
}

func TestCheckpointFileRoundTrip(t *testing.T) {
	saved, err := NewRescaleOutput(NewEnergyGraph(constantEnergy(1)), RescaleParams{
		ScaleKeys: []string{data.TotalEnergyKey},
		ScaleBy:   stats.Scalar(0.25),
	})
	if err != nil {
		t.Fatalf("NewRescaleOutput: %v", err)
	}
	path := filepath.Join(t.TempDir(), "rescale.gob")
	if err := SaveCheckpoint(saved, path); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}

	target, _ := NewRescaleOutput(NewEnergyGraph(constantEnergy(1)), RescaleParams{
		ScaleKeys: []string{data.TotalEnergyKey},
		ScaleBy:   stats.Scalar(1),
	})
	if err := LoadCheckpoint(target, path); err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}
	if !target.ScaleBy.Equal(stats.Scalar(0.25)) {
		t.Errorf("ScaleBy = %v, want 0.25", target.ScaleBy)
	}

	if err := SaveCheckpoint(saved, filepath.Join(t.TempDir(), "missing", "rescale.gob")); err == nil {
		t.Error("expected error for an unwritable path")
	}
}

func TestRescaleOutputChecksVectorComponents(t *testing.T) {
	model := NewForceOutput(NewEnergyGraph(constantEnergy(1)), nil)
	tests := []struct {
		name    string
		params  RescaleParams
		wantErr bool
	}{
		{"vector on scalar field", RescaleParams{ScaleKeys: []string{data.TotalEnergyKey}, ScaleBy: stats.Vector([]float64{1, 2})}, true},
		{"vector on forces", RescaleParams{ScaleKeys: []string{data.ForceKey}, ScaleBy: stats.Vector([]float64{1, 2, 3})}, false},
		{"short vector on forces", RescaleParams{ScaleKeys: []string{data.ForceKey}, ScaleBy: stats.Vector([]float64{1, 2})}, true},
		{"shift vector on total energy", RescaleParams{ShiftKeys: []string{data.TotalEnergyKey}, ShiftBy: stats.Vector([]float64{1})}, false},
		{"scalar anywhere", RescaleParams{ScaleKeys: []string{data.TotalEnergyKey, data.ForceKey}, ScaleBy: stats.Scalar(2)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRescaleOutput(model, tt.params)
			if tt.wantErr {
				var ve *errors.ValidationError
				if !errors.As(err, &ve) {
					t.Errorf("error = %v, want ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}

	r, err := NewRescaleOutput(model, RescaleParams{ScaleKeys: []string{data.TotalEnergyKey}, ScaleBy: stats.Scalar(1)})
	if err != nil {
		t.Fatalf("NewRescaleOutput: %v", err)
	}
	if err := r.SetParameter("scale_by", stats.Vector([]float64{1, 2})); err == nil {
		t.Error("SetParameter should reject a vector that does not match total_energy")
	}
}

package stats

import "testing"

func TestNewPlan(t *testing.T) {
	plan, err := NewPlan([]string{
		"dataset_per_species_energy_std",
		"energy_rms",
		"per_species_energy_mean",
		"dataset_energy_rms",
		"per_atom_energy_mean",
	})
	if err != nil {
		t.Fatal(err)
	}

	wantSlots := []Slot{
		{Field: "energy", Mode: ModePerSpeciesMeanStd},
		{Field: "energy", Mode: ModeRMS},
		{Field: "energy", Mode: ModePerAtomMeanStd},
	}
	if len(plan.Slots) != len(wantSlots) {
		t.Fatalf("slots = %v, want %v", plan.Slots, wantSlots)
	}
	for i, s := range wantSlots {
		if plan.Slots[i] != s {
			t.Errorf("slot %d = %v, want %v", i, plan.Slots[i], s)
		}
	}

	wantIndex := []Index{{0, 1}, {1, 0}, {0, 0}, {1, 0}, {2, 0}}
	for i, idx := range wantIndex {
		if plan.Index[i] != idx {
			t.Errorf("index %d = %v, want %v", i, plan.Index[i], idx)
		}
	}

	fields, modes := plan.Fields(), plan.Modes()
	if len(fields) != 3 || len(modes) != 3 || modes[2] != ModePerAtomMeanStd {
		t.Errorf("fields=%v modes=%v", fields, modes)
	}
}

func TestPlanUnderscoreFields(t *testing.T) {
	plan, err := NewPlan([]string{"dataset_total_energy_mean", "dataset_total_energy_std"})
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Slots) != 1 || plan.Slots[0].Field != "total_energy" {
		t.Errorf("slots = %v", plan.Slots)
	}
}

func TestPlanRejectsWholeListOnBadRequest(t *testing.T) {
	if _, err := NewPlan([]string{"energy_mean", "energy_var"}); err == nil {
		t.Error("expected error")
	}
}

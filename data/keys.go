// Package data holds atomic configurations (frames) and computes the dataset
// statistics that normalization constants are derived from.
package data

// Standard field keys.
const (
	// TotalEnergyKey is the per-frame total potential energy.
	TotalEnergyKey = "total_energy"
	// PerAtomEnergyKey is the per-atom energy contribution.
	PerAtomEnergyKey = "atomic_energy"
	// ForceKey is the per-atom force, three components per atom.
	ForceKey = "forces"
	// AtomTypeKey is the per-atom species index.
	AtomTypeKey = "atom_types"
)

// fieldAliases maps the short names used in statistic requests
// ("dataset_force_rms", "dataset_energy_std") onto field keys.
var fieldAliases = map[string]string{
	"energy":          TotalEnergyKey,
	"force":           ForceKey,
	"per_atom_energy": PerAtomEnergyKey,
	"atom_energy":     PerAtomEnergyKey,
}

// CanonicalField resolves a field alias to its key. Unknown names are
// returned unchanged.
func CanonicalField(name string) string {
	if key, ok := fieldAliases[name]; ok {
		return key
	}
	return name
}

// fieldComponents is the number of columns each known field has per row.
var fieldComponents = map[string]int{
	TotalEnergyKey:   1,
	PerAtomEnergyKey: 1,
	ForceKey:         3,
}

// FieldComponents returns the column count of a known field key.
func FieldComponents(key string) (int, bool) {
	n, ok := fieldComponents[CanonicalField(key)]
	return n, ok
}

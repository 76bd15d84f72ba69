// Package rescale decides how a model's outputs are normalized.
//
// Two configurators are provided. RescaleEnergyEtc wraps a model in a global
// scale/shift (nn.RescaleOutput); PerSpeciesRescale inserts a per-species
// scale/shift module in front of the total energy sum. Both take their
// sources from the config (statistic request, literal or null), resolve all
// requests with a single dataset pass when initialize is true, and fall back
// to placeholder values when it is false so that trained parameters can be
// restored from a checkpoint.
package rescale

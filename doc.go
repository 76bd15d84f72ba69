// Package atomscale computes dataset normalization statistics for
// interatomic potential models and configures how model outputs are
// rescaled with them.
//
// # Packages
//
//   - stats: statistic requests ("dataset_force_rms", "per_species_energy_mean"),
//     deduplication into a single dataset pass, and the Provider interface.
//   - data: in-memory datasets of frames, YAML loading, and the statistics
//     they provide (mean/std, RMS; global, per species, per atom).
//   - nn: the model side: a graph of named modules, the force wrapper, the
//     global rescale wrapper, the per-species scale/shift module and
//     checkpoints of their parameters.
//   - rescale: the global and per-species configurators.
//   - config: read-only configuration with presence-aware lookups.
//
// # Quick Start
//
//	ds, err := data.Load("train.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg, err := config.Load("model.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	model := nn.NewForceOutput(nn.NewEnergyGraph(energy), gradient)
//	wrapped, spec, err := rescale.RescaleEnergyEtc(model, cfg, ds, true)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(spec.ScaleBy, spec.ShiftBy)
//
// With initialize set to false no statistics are computed and configured
// parameters get placeholder values; load trained values with
// nn.LoadCheckpoint.
//
// # Error Handling
//
// Errors are typed (see pkg/errors) and carry stack traces:
//
//	var de *errors.DegenerateScaleError
//	if errors.As(err, &de) {
//	    // disable the global scale or check the dataset
//	}
package atomscale

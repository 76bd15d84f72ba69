package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/atomscale/config"
	"github.com/YuminosukeSato/atomscale/data"
	"github.com/YuminosukeSato/atomscale/nn"
	"github.com/YuminosukeSato/atomscale/pkg/errors"
	"github.com/YuminosukeSato/atomscale/rescale"
	"github.com/YuminosukeSato/atomscale/stats"
)

const (
	variantGlobal     = "global"
	variantPerSpecies = "per-species"
)

type rescaleOptions struct {
	datasetPath    string
	configPath     string
	variant        string
	noInitialize   bool
	forces         bool
	checkpointPath string
	restorePath    string
	plotPath       string
}

func newRescaleCommand() *cobra.Command {
	opts := &rescaleOptions{}
	cmd := &cobra.Command{
		Use:   "rescale",
		Short: "Configure output rescaling for a model skeleton",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRescale(cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.datasetPath, "dataset", "", "Dataset file (YAML); required unless --no-initialize")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Model config (YAML)")
	cmd.Flags().StringVar(&opts.variant, "variant", variantGlobal, "Configurator: global or per-species")
	cmd.Flags().BoolVar(&opts.noInitialize, "no-initialize", false, "Skip dataset statistics and use placeholder values")
	cmd.Flags().BoolVar(&opts.forces, "forces", true, "Model predicts forces")
	cmd.Flags().StringVar(&opts.checkpointPath, "checkpoint", "", "Write the rescale parameters to this file")
	cmd.Flags().StringVar(&opts.restorePath, "restore", "", "Load rescale parameters from this checkpoint after configuring")
	cmd.Flags().StringVar(&opts.plotPath, "plot", "", "Plot per-species parameters to this image file")
	return cmd
}

func buildModel(forces bool) nn.Model {
	g := nn.NewEnergyGraph(nn.NewFuncModule("per_atom_energy", func(b *nn.Batch) error {
		b.Set(data.PerAtomEnergyKey, mat.NewDense(len(b.AtomTypes), 1, nil))
		return nil
	}))
	if forces {
		return nn.NewForceOutput(g, nil)
	}
	return g
}

func runRescale(w io.Writer, opts *rescaleOptions) error {
	cfg := config.New(nil)
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return err
		}
	}

	initialize := !opts.noInitialize
	var ds *data.InMemoryDataset
	if opts.datasetPath != "" {
		var err error
		if ds, err = data.Load(opts.datasetPath); err != nil {
			return err
		}
	} else if initialize {
		return errors.NewValidationError("dataset", "required unless --no-initialize", "")
	}
	if ds != nil && !cfg.Has("num_types") {
		cfg = cfg.With("num_types", ds.NumTypes())
	}

	model := buildModel(opts.forces)
	switch opts.variant {
	case variantGlobal:
		out, spec, err := rescale.RescaleEnergyEtc(model, cfg, provider(ds), initialize)
		if err != nil {
			return err
		}
		if err := restore(out, opts.restorePath); err != nil {
			return err
		}
		fmt.Fprintf(w, "scale_keys\t%v\nscale_by\t%s\nshift_keys\t%v\nshift_by\t%s\n",
			spec.ScaleKeys, out.ScaleBy, spec.ShiftKeys, out.ShiftBy)
		return save(out, opts.checkpointPath)

	case variantPerSpecies:
		out, params, err := rescale.PerSpeciesRescale(model, cfg, provider(ds), initialize)
		if err != nil {
			return err
		}
		if err := restore(out, opts.restorePath); err != nil {
			return err
		}
		pss := nn.EnergyGraph(out).Module(nn.PerSpeciesScaleShiftName).(*nn.PerSpeciesScaleShift)
		fmt.Fprintf(w, "modules\t%v\nscales\t%s\nshifts\t%s\n", nn.EnergyGraph(out).Names(), pss.Scales, pss.Shifts)
		if opts.plotPath != "" {
			var names []string
			if ds != nil {
				names = ds.TypeNames()
			}
			if err := plotPerSpecies(pss, names, opts.plotPath); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "trainable\t%v\n", params.Trainable)
		return save(out, opts.checkpointPath)

	default:
		return errors.NewValidationError("variant", "must be global or per-species", opts.variant)
	}
}

// provider avoids handing a typed nil dataset to the configurators.
func provider(ds *data.InMemoryDataset) stats.Provider {
	if ds == nil {
		return stats.ProviderFunc(func([]string, []stats.Mode, int) ([][]stats.Value, error) {
			return nil, errors.New("no dataset loaded")
		})
	}
	return ds
}

func restore(m nn.Model, path string) error {
	if path == "" {
		return nil
	}
	return nn.LoadCheckpoint(m, path)
}

func save(m nn.Model, path string) error {
	if path == "" {
		return nil
	}
	return nn.SaveCheckpoint(m, path)
}

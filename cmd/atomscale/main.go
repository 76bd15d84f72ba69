// Command atomscale computes dataset normalization statistics and shows how
// a model's outputs would be rescaled.
//
//	atomscale stats --dataset train.yaml dataset_force_rms per_species_energy_mean
//	atomscale rescale --dataset train.yaml --config model.yaml --variant per-species --plot params.png
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/atomscale/pkg/log"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	logLevel string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "atomscale",
		Short:         "Dataset statistics and output rescaling for interatomic potentials",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := log.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			logger := log.NewZerologLogger(cmd.ErrOrStderr(), level)
			log.SetLogger(logger)
			log.InstallWarnings(logger)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.AddCommand(newStatsCommand())
	cmd.AddCommand(newRescaleCommand())
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/atomscale/data"
	"github.com/YuminosukeSato/atomscale/stats"
)

func newStatsCommand() *cobra.Command {
	var (
		datasetPath string
		stride      int
	)
	cmd := &cobra.Command{
		Use:   "stats request...",
		Short: "Resolve statistic requests against a dataset",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := data.Load(datasetPath)
			if err != nil {
				return err
			}
			values, err := stats.Resolve(args, ds, stride)
			if err != nil {
				return err
			}
			for i, v := range values {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", args[i], v)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Dataset file (YAML)")
	cmd.Flags().IntVar(&stride, "stride", 1, "Use every n-th frame")
	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}

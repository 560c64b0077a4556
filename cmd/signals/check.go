package main

import (
	"github.com/spf13/cobra"
	"github.com/vango-dev/signals/internal/graph"
)

func checkCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration",
		Long:  `Load the configuration and build the graph without serving it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if err := graph.Check(cfg); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "%s is valid (%d signals, %d computed)",
				flags.config, len(cfg.Signals), len(cfg.Computed))
			return nil
		},
	}
}

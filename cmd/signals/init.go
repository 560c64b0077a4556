package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/vango-dev/signals/internal/config"
	"github.com/vango-dev/signals/internal/errors"
)

func initCmd(flags *globalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write an example configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(flags.config); err == nil && !force {
				return errors.New("E151").
					WithDetail(flags.config).
					WithSuggestion("Pass --force to overwrite it")
			}
			if err := config.Example().Save(flags.config); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Wrote %s", flags.config)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}

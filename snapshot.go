package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"cosmo_command/internal/graph"
)

func snapshotCmd() *cobra.Command {
	var pretty bool

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print one snapshot as JSON",
		Long:  "Build a single snapshot from the sessions directory and print it. Exits non-zero when the snapshot carries an error.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			snap := graph.NewAssembler(graph.OptionsFromConfig(cfg)).Build(cmd.Context())

			enc := json.NewEncoder(cmd.OutOrStdout())
			if pretty {
				enc.SetIndent("", "  ")
			}
			if err := enc.Encode(snap); err != nil {
				return err
			}

			if snap.Error != "" {
				cmd.SilenceUsage = true
				return errors.New(snap.Error)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
	return cmd
}

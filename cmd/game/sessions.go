package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tatianab/saga/internal/config"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List saved sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		names, err := st.List(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(names) == 0 {
			fmt.Fprintln(out, "No saved sessions.")
			return nil
		}
		for _, name := range names {
			fmt.Fprintln(out, name)
		}
		return nil
	},
}

package main

import (
	"fmt"

	"github.com/cuemby/modelkeeper/pkg/desired"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the environment and desired-state file",
		Long: `Check the environment and desired-state file without contacting the
server, then print the declared models in reconciliation order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := desired.Load(cfg.ConfigPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d model(s)\n", store.Source(), store.Len())
			for _, spec := range store.Specs() {
				uid := spec.UID
				if uid == "" {
					uid = "<assigned>"
				}
				engine := spec.Engine
				if engine == "" {
					engine = "-"
				}
				fmt.Fprintf(out, "  %-30s %-12s %-12s %s\n", spec.Name, spec.Type, engine, uid)
			}
			return nil
		},
	}
}

func newActiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "List the model identifiers the server reports as running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			client, err := newClient(cfg)
			if err != nil {
				return err
			}

			active, err := client.ListActive(cmd.Context())
			if err != nil {
				return err
			}
			for _, uid := range active.Sorted() {
				fmt.Fprintln(cmd.OutOrStdout(), uid)
			}
			return nil
		},
	}
}

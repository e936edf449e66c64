package cmd

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/msalah0e/relmap/internal/config"
	"github.com/msalah0e/relmap/internal/ui"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Run: func(cmd *cobra.Command, args []string) {
			ui.Banner(cmd.OutOrStdout(), "config")
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n\n", ui.Subtle.Sprint(config.Path()))
			if err := toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg); err != nil {
				fail("%v", err)
			}
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Write the default config file if none exists",
			Run: func(cmd *cobra.Command, args []string) {
				if err := config.EnsureExists(); err != nil {
					fail("Failed to write config: %v", err)
				}
				ui.Good.Fprintf(cmd.OutOrStdout(), "  %s %s\n", ui.StatusIcon(true), config.Path())
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), config.Path())
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Overwrite the config file with defaults",
			Run: func(cmd *cobra.Command, args []string) {
				if err := config.Save(config.Default()); err != nil {
					fail("Failed to write config: %v", err)
				}
				ui.Good.Fprintf(cmd.OutOrStdout(), "  %s defaults written to %s\n", ui.StatusIcon(true), config.Path())
				if _, err := os.Stat(".relmap.toml"); err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s .relmap.toml in this directory still overrides it\n", ui.WarnIcon())
				}
			},
		},
	)

	return cmd
}

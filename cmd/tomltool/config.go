// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bryanwweber/tomltool/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and manage tomltool configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, path, err := config.LoadWith(cmd.Context(), config.LoadOptions{ConfigFilePath: cfgFile})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if path == "" {
			fmt.Fprintln(out, SubtitleStyle.Render("No config file found; showing built-in defaults."))
		} else {
			fmt.Fprintln(out, SubtitleStyle.Render("Loaded from ")+PathStyle.Render(path))
		}
		fmt.Fprintln(out)
		fmt.Fprint(out, config.GenerateTOML(cfg))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Create a config file with the built-in defaults in the platform config
directory. An existing config file is never overwritten.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := config.CreateDefaultConfig()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("config file: ")+PathStyle.Render(path))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

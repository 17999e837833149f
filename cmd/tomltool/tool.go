// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bryanwweber/tomltool/internal/tool"
)

var toolCmd = &cobra.Command{
	Use:   "tool",
	Short: "Manage the taplo binary",
}

var toolEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Download and verify the pinned taplo binary",
	Long: `Download the pinned taplo release asset for this platform, verify it
against the pinned checksum and size, and install it into the cache.
A no-op when a verified binary is already cached.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		installer, err := tool.NewInstaller(cfg)
		if err != nil {
			return err
		}
		path, err := installer.Ensure(cmd.Context())
		if err != nil {
			explainKnownIssue(cmd.ErrOrStderr(), err)
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("taplo ready: ")+PathStyle.Render(path))
		return nil
	},
}

var toolInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the pinned taplo version and cache state",
	RunE: func(cmd *cobra.Command, _ []string) error {
		installer, err := tool.NewInstaller(cfg)
		if err != nil {
			return err
		}
		info, err := installer.Describe()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, TitleStyle.Render("taplo"))
		fmt.Fprintf(out, "  version:  %s\n", info.Version)
		fmt.Fprintf(out, "  platform: %s\n", info.Platform)
		fmt.Fprintf(out, "  url:      %s\n", info.URL)
		fmt.Fprintf(out, "  sha256:   %s\n", info.SHA256)
		fmt.Fprintf(out, "  size:     %d bytes\n", info.Size)
		fmt.Fprintf(out, "  path:     %s\n", info.Path)
		if info.Cached {
			fmt.Fprintln(out, "  cached:   "+SuccessStyle.Render("yes"))
		} else {
			fmt.Fprintln(out, "  cached:   "+WarningStyle.Render("no (will download on first use)"))
		}
		return nil
	},
}

func init() {
	toolCmd.AddCommand(toolEnsureCmd)
	toolCmd.AddCommand(toolInfoCmd)
}

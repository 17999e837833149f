// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bryanwweber/tomltool/internal/manifest"
	"github.com/bryanwweber/tomltool/internal/rules"
	"github.com/bryanwweber/tomltool/internal/tailor"
)

var tailorWrite bool

var tailorCmd = &cobra.Command{
	Use:   "tailor [dir]",
	Short: "Propose targets for TOML files nothing owns",
	Long: `Scan the workspace for TOML files no BUILD manifest declares and
propose one toml_sources generator per directory that has unclaimed
files. Without --write the proposals are printed; with --write they
are appended to the BUILD manifests, creating them when absent.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ""
		if len(args) > 0 {
			dir = args[0]
		}

		registry, err := newRegistry()
		if err != nil {
			return err
		}
		req, err := scanRequest(dir)
		if err != nil {
			return err
		}

		resp, err := registry.Dispatch(cmd.Context(), rules.KindTailor, rules.LanguageTOML, req)
		if err != nil {
			return err
		}

		if len(resp.Proposals) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), SubtitleStyle.Render("Every TOML file is already owned by a target."))
			return nil
		}

		if tailorWrite {
			if err := tailor.WriteProposals(req.Root, resp.Proposals); err != nil {
				return err
			}
			for _, p := range resp.Proposals {
				fmt.Fprintln(cmd.OutOrStdout(),
					SuccessStyle.Render("updated ")+PathStyle.Render(manifestPath(p.Dir))+
						SubtitleStyle.Render(fmt.Sprintf(" (%d files)", len(p.Files))))
			}
			return nil
		}

		for i, p := range resp.Proposals {
			if i > 0 {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			fmt.Fprintln(cmd.OutOrStdout(), TitleStyle.Render(manifestPath(p.Dir)))
			fmt.Fprint(cmd.OutOrStdout(), p.Render())
		}
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintln(cmd.OutOrStdout(), SubtitleStyle.Render("Run 'tomltool tailor --write' to apply."))
		return nil
	},
}

func init() {
	tailorCmd.Flags().BoolVar(&tailorWrite, "write", false, "append proposals to BUILD manifests")
}

// manifestPath renders the BUILD path of a proposal directory for display.
func manifestPath(dir string) string {
	if dir == "." {
		return manifest.Filename
	}
	return strings.TrimSuffix(dir, "/") + "/" + manifest.Filename
}

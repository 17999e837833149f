// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bryanwweber/tomltool/internal/execute"
	"github.com/bryanwweber/tomltool/internal/issue"
	"github.com/bryanwweber/tomltool/internal/rules"
)

var fmtCmd = &cobra.Command{
	Use:   "fmt [dir]",
	Short: "Format the declared TOML files of a workspace",
	Long: `Format every TOML file declared by the workspace's BUILD manifests,
plus any pyproject.toml files no target owns. Files marked skip are left
alone. Changed files are rewritten in place.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFormat(cmd, args, rules.KindFmt)
	},
}

var lintCmd = &cobra.Command{
	Use:   "lint [dir]",
	Short: "Report TOML files that are not formatted",
	Long: `Run the formatter in check mode: report every file that would change
without touching the workspace. Exits non-zero when any file needs
formatting, for use in CI.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFormat(cmd, args, rules.KindLint)
	},
}

// runFormat dispatches a fmt or lint request and renders per-file results.
func runFormat(cmd *cobra.Command, args []string, kind rules.Kind) error {
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

	resp, err := registry.Dispatch(cmd.Context(), kind, rules.LanguageTOML, req)
	if err != nil {
		var exitErr *execute.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("taplo failed:"))
			fmt.Fprintln(cmd.ErrOrStderr(), exitErr.Stderr)
			return &ExitError{Code: exitErr.ExitCode, Err: err}
		}
		explainKnownIssue(cmd.ErrOrStderr(), err)
		return err
	}

	changed := 0
	total := 0
	for _, res := range resp.Results {
		for _, fr := range res.Files {
			total++
			if !fr.Changed {
				continue
			}
			changed++
			switch kind {
			case rules.KindFmt:
				fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("formatted ")+PathStyle.Render(fr.Path))
			default:
				fmt.Fprintln(cmd.OutOrStdout(), WarningStyle.Render("would reformat ")+PathStyle.Render(fr.Path))
			}
		}
	}

	switch {
	case total == 0:
		fmt.Fprintln(cmd.OutOrStdout(), SubtitleStyle.Render("No TOML files to format."))
		if known := issue.Lookup(issue.NoTargetsFoundId); known != nil && !cfg.Taplo.Skip {
			if rendered, renderErr := known.Render("auto"); renderErr == nil {
				fmt.Fprintln(cmd.OutOrStdout(), rendered)
			}
		}
	case changed == 0:
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", SuccessStyle.Render(fmt.Sprintf("%d files already formatted.", total)))
	case kind == rules.KindLint:
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", ErrorStyle.Render(fmt.Sprintf("%d of %d files need formatting.", changed, total)))
		return &ExitError{Code: 1}
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", SuccessStyle.Render(fmt.Sprintf("Formatted %d of %d files.", changed, total)))
	}
	return nil
}

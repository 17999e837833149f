// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for tomltool.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/bryanwweber/tomltool/internal/config"
	"github.com/bryanwweber/tomltool/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// cfg is the loaded configuration, populated by initRootConfig.
	cfg *config.Config

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "tomltool",
		Short: "TOML formatting and target discovery, backed by taplo",
		Long: TitleStyle.Render("tomltool") + SubtitleStyle.Render(" - TOML formatting and target discovery") + `

tomltool formats the TOML files of a workspace with a pinned taplo
binary, downloaded and checksum-verified on first use. Files are
declared as targets in BUILD manifests; the tailor command proposes
declarations for files nothing owns yet.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Run 'tomltool tailor --write' to generate BUILD manifests
  2. Run 'tomltool fmt' to format every declared TOML file
  3. Run 'tomltool lint' in CI to fail on unformatted files

` + SubtitleStyle.Render("Examples:") + `
  tomltool tailor           Show proposed target declarations
  tomltool fmt              Format all declared TOML files
  tomltool lint             Report files that would change
  tomltool tool ensure      Pre-download the taplo binary
  tomltool config show      Show current configuration`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is the platform config dir)")

	// Add subcommands
	rootCmd.AddCommand(fmtCmd)
	rootCmd.AddCommand(lintCmd)
	rootCmd.AddCommand(tailorCmd)
	rootCmd.AddCommand(toolCmd)
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig loads the config file and installs the slog handler.
func initRootConfig() {
	opts := config.LoadOptions{ConfigFilePath: cfgFile}
	loaded, _, err := config.LoadWith(context.Background(), opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
		loaded = config.DefaultConfig()
	}
	cfg = loaded

	if !verbose {
		verbose = cfg.Verbose
	}

	logger := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: false,
	})
	if verbose {
		logger.SetLevel(charmlog.DebugLevel)
	} else {
		logger.SetLevel(charmlog.WarnLevel)
	}
	slog.SetDefault(slog.New(logger))
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

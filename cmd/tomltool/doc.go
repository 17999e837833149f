// SPDX-License-Identifier: MPL-2.0

// Package cmd implements the tomltool command-line interface: fmt, lint,
// tailor, tool and config subcommands built on cobra with fang styling.
package cmd

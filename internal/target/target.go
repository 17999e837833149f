// SPDX-License-Identifier: MPL-2.0

// Package target materializes BUILD manifest declarations into concrete
// TOML file targets. Generator targets (toml_sources) are expanded here:
// globs are resolved against the manifest directory and per-file overrides
// are applied, so every downstream consumer only ever sees single-file
// targets.
package target

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnmatchedOverride is the sentinel error wrapped by UnmatchedOverrideError.
var ErrUnmatchedOverride = errors.New("override key matches no generated file")

type (
	// Address names a target in the workspace. Dir is the manifest
	// directory ("." for the root), Name the declared target name, and
	// File, when non-empty, the generated file of an expanded generator.
	Address struct {
		Dir  string
		Name string
		File string
	}

	// SourceTarget is a materialized single-file TOML target: either a
	// declared toml_source or one file of an expanded toml_sources
	// generator.
	SourceTarget struct {
		// Address identifies the target.
		Address Address
		// Path is the workspace-relative, slash-separated file path.
		Path string
		// Skip excludes the file from formatting runs.
		Skip bool
		// Dependencies carries build-graph edges, verbatim from the manifest.
		Dependencies []string
		// Description is free-form documentation.
		Description string
	}

	// UnmatchedOverrideError is returned when a toml_sources overrides table
	// references files its globs did not match. It wraps ErrUnmatchedOverride
	// for errors.Is() compatibility.
	UnmatchedOverrideError struct {
		Address Address
		Keys    []string
	}
)

// String renders the address in //dir:name or //dir:name#file form.
func (a Address) String() string {
	dir := a.Dir
	if dir == "." {
		dir = ""
	}
	s := "//" + dir + ":" + a.Name
	if a.File != "" {
		s += "#" + a.File
	}
	return s
}

// Error lists the unmatched override keys.
func (e *UnmatchedOverrideError) Error() string {
	return fmt.Sprintf("%s: override keys do not match any generated file: %s",
		e.Address, strings.Join(e.Keys, ", "))
}

// Unwrap returns ErrUnmatchedOverride for errors.Is.
func (e *UnmatchedOverrideError) Unwrap() error { return ErrUnmatchedOverride }

// SPDX-License-Identifier: MPL-2.0

package target

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"golang.org/x/exp/maps"

	"github.com/bryanwweber/tomltool/internal/manifest"
)

// FromManifest materializes every target a manifest declares: toml_source
// declarations map 1:1, toml_sources generators are expanded against the
// filesystem under root. Results are ordered by target name, generated
// files sorted within each generator.
func FromManifest(root string, m *manifest.Manifest) ([]SourceTarget, error) {
	var targets []SourceTarget

	names := make([]string, 0, len(m.Sources))
	for name := range m.Sources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		decl := m.Sources[name]
		targets = append(targets, SourceTarget{
			Address:      Address{Dir: m.Dir, Name: name},
			Path:         joinRel(m.Dir, decl.Source),
			Skip:         decl.Skip,
			Dependencies: decl.Dependencies,
			Description:  decl.Description,
		})
	}

	genNames := make([]string, 0, len(m.Generators))
	for name := range m.Generators {
		genNames = append(genNames, name)
	}
	sort.Strings(genNames)

	for _, name := range genNames {
		expanded, err := Expand(root, m, name, m.Generators[name])
		if err != nil {
			return nil, err
		}
		targets = append(targets, expanded...)
	}

	return targets, nil
}

// Expand resolves one toml_sources generator into single-file targets.
//
// Globs are resolved relative to the manifest directory (never through
// source-root remapping), matches are deduplicated by path before anything
// else, and shared fields are copied onto each generated target with the
// dependencies field moved rather than copied. Every key in the overrides
// table must name a matched file; unmatched keys fail the expansion.
func Expand(root string, m *manifest.Manifest, name string, decl manifest.SourcesDecl) ([]SourceTarget, error) {
	base := filepath.Join(root, filepath.FromSlash(m.Dir))

	// A file matched by several globs must be generated exactly once.
	matched := make(map[string]struct{})
	for _, glob := range decl.Globs() {
		hits, err := filepath.Glob(filepath.Join(base, filepath.FromSlash(glob)))
		if err != nil {
			return nil, fmt.Errorf("expanding %s glob %q: %w", Address{Dir: m.Dir, Name: name}, glob, err)
		}
		for _, hit := range hits {
			info, err := os.Stat(hit)
			if err != nil || info.IsDir() {
				continue
			}
			rel, err := filepath.Rel(base, hit)
			if err != nil {
				return nil, fmt.Errorf("expanding %s: %w", Address{Dir: m.Dir, Name: name}, err)
			}
			matched[filepath.ToSlash(rel)] = struct{}{}
		}
	}

	if err := checkOverrides(m, name, decl, matched); err != nil {
		return nil, err
	}

	files := maps.Keys(matched)
	sort.Strings(files)

	targets := make([]SourceTarget, 0, len(files))
	for _, file := range files {
		t := SourceTarget{
			Address: Address{Dir: m.Dir, Name: name, File: file},
			Path:    joinRel(m.Dir, file),
			// Copied fields.
			Skip:        decl.Skip,
			Description: decl.Description,
			// Moved field: generated targets own the edges, the generator
			// itself never appears in the build graph.
			Dependencies: decl.Dependencies,
		}

		if ov, ok := decl.Overrides[file]; ok {
			if ov.Skip != nil {
				t.Skip = *ov.Skip
			}
			if ov.Dependencies != nil {
				t.Dependencies = ov.Dependencies
			}
			if ov.Description != nil {
				t.Description = *ov.Description
			}
		}

		targets = append(targets, t)
	}

	return targets, nil
}

// checkOverrides fails fast when override keys reference files the globs
// did not match.
func checkOverrides(m *manifest.Manifest, name string, decl manifest.SourcesDecl, matched map[string]struct{}) error {
	var unmatched []string
	for key := range decl.Overrides {
		if _, ok := matched[key]; !ok {
			unmatched = append(unmatched, key)
		}
	}
	if len(unmatched) == 0 {
		return nil
	}
	sort.Strings(unmatched)
	return &UnmatchedOverrideError{
		Address: Address{Dir: m.Dir, Name: name},
		Keys:    unmatched,
	}
}

// joinRel joins a workspace-relative dir and a file path into a clean,
// slash-separated workspace-relative path.
func joinRel(dir, file string) string {
	return path.Clean(path.Join(dir, file))
}

// SPDX-License-Identifier: MPL-2.0

// Package workspace walks a source tree: it finds candidate TOML files,
// loads every BUILD manifest, and computes the set of files already owned
// by declared targets.
package workspace

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bryanwweber/tomltool/internal/manifest"
	"github.com/bryanwweber/tomltool/internal/target"
)

type (
	// Workspace is a rooted source tree.
	Workspace struct {
		// Root is the absolute workspace root.
		Root string
	}

	// Snapshot is one consistent walk of the tree: the TOML candidates, the
	// parsed manifests, and the targets they expand to.
	Snapshot struct {
		// Files are all candidate TOML files, workspace-relative,
		// slash-separated, sorted.
		Files []string
		// Manifests are the parsed BUILD files, ordered by directory.
		Manifests []*manifest.Manifest
		// Targets are the materialized targets of every manifest.
		Targets []target.SourceTarget
	}
)

// New opens a workspace rooted at dir.
func New(dir string) (*Workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace root %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("opening workspace root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root %s is not a directory", abs)
	}
	return &Workspace{Root: abs}, nil
}

// Scan walks the tree once and returns candidates, manifests and targets.
func (w *Workspace) Scan() (*Snapshot, error) {
	var (
		files        []string
		manifestDirs []string
	)

	err := filepath.WalkDir(w.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("skipping unreadable path during workspace scan", "path", path, "error", err)
			return nil
		}

		name := d.Name()
		if d.IsDir() {
			if path != w.Root && strings.HasPrefix(name, ".") {
				return fs.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(w.Root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		switch {
		case name == manifest.Filename:
			manifestDirs = append(manifestDirs, filepath.ToSlash(filepath.Dir(rel)))
		case strings.HasSuffix(name, manifest.SourceExtension) && !strings.HasPrefix(name, "."):
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning workspace: %w", err)
	}

	sort.Strings(files)
	sort.Strings(manifestDirs)

	snap := &Snapshot{Files: files}
	for _, dir := range manifestDirs {
		m, err := manifest.Load(w.Root, dir)
		if err != nil {
			return nil, err
		}
		if m == nil {
			continue
		}
		snap.Manifests = append(snap.Manifests, m)

		targets, err := target.FromManifest(w.Root, m)
		if err != nil {
			return nil, err
		}
		snap.Targets = append(snap.Targets, targets...)
	}

	return snap, nil
}

// OwnedFiles returns the set of workspace-relative paths claimed by any
// target in the snapshot, skipped targets included.
func (s *Snapshot) OwnedFiles() map[string]struct{} {
	owned := make(map[string]struct{}, len(s.Targets))
	for _, t := range s.Targets {
		owned[t.Path] = struct{}{}
	}
	return owned
}

// FormatTargets returns the targets eligible for formatting: everything not
// marked skip, sorted by path.
func (s *Snapshot) FormatTargets() []target.SourceTarget {
	var out []target.SourceTarget
	for _, t := range s.Targets {
		if t.Skip {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

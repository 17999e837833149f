// SPDX-License-Identifier: MPL-2.0

// Package tailor proposes BUILD targets for TOML files no declared target
// owns yet. One toml_sources generator is proposed per directory that has
// unclaimed files.
package tailor

import (
	"log/slog"
	"path"
	"sort"

	"github.com/bryanwweber/tomltool/internal/config"
	"github.com/bryanwweber/tomltool/internal/workspace"
)

// DefaultTargetName is the name given to proposed generator targets.
const DefaultTargetName = "tomls"

// Proposal is one suggested toml_sources target: a directory and the
// unclaimed files it would own.
type Proposal struct {
	// Dir is the workspace-relative directory ("." for the root).
	Dir string
	// Name is the proposed target name.
	Name string
	// Files are the unclaimed TOML filenames in Dir, sorted.
	Files []string
}

// FindProposals computes the generator targets to propose for a snapshot.
//
// When tailoring is disabled by configuration the result is empty. Otherwise
// every candidate file not owned by an existing target is grouped under its
// parent directory and one proposal per directory is returned, ordered by
// directory.
func FindProposals(cfg *config.Config, snap *workspace.Snapshot) ([]Proposal, error) {
	if cfg != nil && !cfg.Tailor.Enabled {
		return nil, nil
	}

	owned := snap.OwnedFiles()

	byDir := make(map[string][]string)
	for _, file := range snap.Files {
		if _, ok := owned[file]; ok {
			continue
		}
		slog.Debug("unclaimed TOML file", "path", file)
		dir := path.Dir(file)
		byDir[dir] = append(byDir[dir], path.Base(file))
	}

	dirs := make([]string, 0, len(byDir))
	for dir := range byDir {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	proposals := make([]Proposal, 0, len(dirs))
	for _, dir := range dirs {
		files := byDir[dir]
		sort.Strings(files)
		proposals = append(proposals, Proposal{
			Dir:   dir,
			Name:  DefaultTargetName,
			Files: files,
		})
	}

	return proposals, nil
}

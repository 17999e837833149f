// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"strings"

	"github.com/bryanwweber/tomltool/internal/target"
)

// pyprojectName is the filename matched by the pyproject pathway.
const pyprojectName = "pyproject.toml"

// PartitionTargets returns the file paths of the given targets that are
// eligible for formatting: skipped targets are dropped, and the subsystem
// skip empties the batch. Paths are sorted and deduplicated.
func PartitionTargets(targets []target.SourceTarget, subsystemSkip bool) []string {
	if subsystemSkip {
		return nil
	}
	var files []string
	for _, t := range targets {
		if t.Skip {
			continue
		}
		files = append(files, t.Path)
	}
	return SortedUnique(files)
}

// PartitionPyproject returns the paths among candidates that contain
// "pyproject.toml", for formatting files not modeled as targets. Results
// are sorted and deduplicated; the subsystem skip empties the batch.
func PartitionPyproject(candidates []string, subsystemSkip bool) []string {
	if subsystemSkip {
		return nil
	}
	var files []string
	for _, c := range candidates {
		if strings.Contains(c, pyprojectName) {
			files = append(files, c)
		}
	}
	return SortedUnique(files)
}

// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
)

// configFilenames are the taplo configuration files discovered alongside
// inputs, in preference order.
var configFilenames = []string{".taplo.toml", "taplo.toml"}

// DiscoverConfigs finds taplo config files relevant to the given inputs:
// for each input file's directory it walks up to the workspace root and
// collects every config candidate on the way. The root itself is always
// checked, even with no inputs below it. Results are workspace-relative,
// sorted and deduplicated.
func DiscoverConfigs(root string, files []string) ([]string, error) {
	dirs := map[string]struct{}{".": {}}
	for _, file := range files {
		for dir := path.Dir(file); ; dir = path.Dir(dir) {
			dirs[dir] = struct{}{}
			if dir == "." {
				break
			}
		}
	}

	var found []string
	for dir := range dirs {
		for _, name := range configFilenames {
			rel := path.Join(dir, name)
			full := filepath.Join(root, filepath.FromSlash(rel))
			info, err := os.Stat(full)
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return nil, fmt.Errorf("checking config file %s: %w", rel, err)
			}
			if info.IsDir() {
				continue
			}
			found = append(found, rel)
		}
	}

	return SortedUnique(found), nil
}

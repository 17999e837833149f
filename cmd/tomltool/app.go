// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/bryanwweber/tomltool/internal/rules"
	"github.com/bryanwweber/tomltool/internal/workspace"
)

// newRegistry builds the rule registry with every language plugin installed.
// Today that is just TOML.
func newRegistry() (*rules.Registry, error) {
	r := rules.NewRegistry()
	if err := rules.RegisterTOML(r); err != nil {
		return nil, fmt.Errorf("registering TOML handlers: %w", err)
	}
	return r, nil
}

// scanRequest opens the workspace at dir (default: the working directory),
// scans it, and assembles a dispatch request.
func scanRequest(dir string) (rules.Request, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return rules.Request{}, fmt.Errorf("determining working directory: %w", err)
		}
		dir = wd
	}

	ws, err := workspace.New(dir)
	if err != nil {
		return rules.Request{}, err
	}
	snap, err := ws.Scan()
	if err != nil {
		return rules.Request{}, err
	}

	return rules.Request{
		Config:   cfg,
		Snapshot: snap,
		Root:     ws.Root,
	}, nil
}

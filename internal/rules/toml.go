// SPDX-License-Identifier: MPL-2.0

package rules

import (
	"context"

	"github.com/bryanwweber/tomltool/internal/execute"
	"github.com/bryanwweber/tomltool/internal/tailor"
	"github.com/bryanwweber/tomltool/internal/tool"
)

// LanguageTOML is the language key for the taplo-backed handlers.
const LanguageTOML = "toml"

// RegisterTOML installs the TOML handlers: tailor, fmt and lint. The fmt
// and lint handlers run two batches through taplo: the targeted files and
// the untargeted pyproject.toml pathway.
func RegisterTOML(r *Registry) error {
	if err := r.Register(KindTailor, LanguageTOML, tailorTOML); err != nil {
		return err
	}
	if err := r.Register(KindFmt, LanguageTOML, formatTOML(execute.ModeWrite)); err != nil {
		return err
	}
	return r.Register(KindLint, LanguageTOML, formatTOML(execute.ModeCheck))
}

func tailorTOML(_ context.Context, req Request) (*Response, error) {
	proposals, err := tailor.FindProposals(req.Config, req.Snapshot)
	if err != nil {
		return nil, err
	}
	return &Response{Proposals: proposals}, nil
}

func formatTOML(mode execute.Mode) Handler {
	return func(ctx context.Context, req Request) (*Response, error) {
		installer, err := tool.NewInstaller(req.Config)
		if err != nil {
			return nil, err
		}
		runner := execute.NewRunner(req.Config, installer)

		targeted := execute.PartitionTargets(req.Snapshot.FormatTargets(), req.Config.Taplo.Skip)

		// pyproject.toml files without a target still get formatted; files
		// already in the targeted batch are excluded to avoid double runs.
		owned := req.Snapshot.OwnedFiles()
		var untargeted []string
		for _, f := range req.Snapshot.Files {
			if _, ok := owned[f]; !ok {
				untargeted = append(untargeted, f)
			}
		}
		pyprojects := execute.PartitionPyproject(untargeted, req.Config.Taplo.Skip)

		resp := &Response{}
		for _, batch := range [][]string{targeted, pyprojects} {
			if len(batch) == 0 {
				continue
			}
			res, err := runner.Run(ctx, execute.Request{Root: req.Root, Files: batch}, mode)
			if err != nil {
				return nil, err
			}
			resp.Results = append(resp.Results, res)
		}
		return resp, nil
	}
}

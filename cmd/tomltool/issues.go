// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/bryanwweber/tomltool/internal/config"
	"github.com/bryanwweber/tomltool/internal/issue"
	"github.com/bryanwweber/tomltool/internal/tool"
)

// classifyIssue maps an error to a known issue id, or 0 when no canned
// explanation applies.
func classifyIssue(err error) issue.Id {
	switch {
	case errors.Is(err, tool.ErrDownloadFailed):
		return issue.ToolDownloadFailedId
	case errors.Is(err, tool.ErrChecksumMismatch), errors.Is(err, tool.ErrSizeMismatch):
		return issue.ToolChecksumMismatchId
	case errors.Is(err, tool.ErrUnsupportedPlatform):
		return issue.UnsupportedPlatformId
	case errors.Is(err, config.ErrInvalidConfig):
		return issue.ConfigLoadFailedId
	}
	return 0
}

// explainKnownIssue prints the canned explanation for an error when one
// exists. The plain error still propagates; this only adds context.
func explainKnownIssue(w io.Writer, err error) {
	id := classifyIssue(err)
	if id == 0 {
		return
	}
	known := issue.Lookup(id)
	if known == nil {
		return
	}
	rendered, renderErr := known.Render("auto")
	if renderErr != nil {
		// Fall back to the raw markdown when the terminal renderer fails.
		rendered = string(known.MarkdownMsg())
	}
	fmt.Fprintln(w, rendered)
}

// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bryanwweber/tomltool/internal/config"
	"github.com/bryanwweber/tomltool/internal/issue"
	"github.com/bryanwweber/tomltool/internal/tool"
)

func TestClassifyIssue(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected issue.Id
	}{
		{
			name:     "download failure",
			err:      fmt.Errorf("ensure: %w", tool.ErrDownloadFailed),
			expected: issue.ToolDownloadFailedId,
		},
		{
			name:     "checksum mismatch",
			err:      fmt.Errorf("verify: %w", tool.ErrChecksumMismatch),
			expected: issue.ToolChecksumMismatchId,
		},
		{
			name:     "size mismatch",
			err:      fmt.Errorf("verify: %w", tool.ErrSizeMismatch),
			expected: issue.ToolChecksumMismatchId,
		},
		{
			name:     "unsupported platform",
			err:      &tool.UnsupportedPlatformError{OS: "plan9", Arch: "mips"},
			expected: issue.UnsupportedPlatformId,
		},
		{
			name:     "invalid config",
			err:      fmt.Errorf("startup: %w", config.ErrInvalidConfig),
			expected: issue.ConfigLoadFailedId,
		},
		{
			name:     "unrelated error",
			err:      errors.New("something else"),
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyIssue(tt.err); got != tt.expected {
				t.Errorf("classifyIssue() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestExplainKnownIssue_UnknownErrorWritesNothing(t *testing.T) {
	var buf strings.Builder
	explainKnownIssue(&buf, errors.New("plain failure"))
	if buf.Len() != 0 {
		t.Errorf("explainKnownIssue wrote %q for an unclassified error", buf.String())
	}
}

func TestExitError(t *testing.T) {
	cause := errors.New("taplo exited")
	err := &ExitError{Code: 2, Err: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if err.Error() != "taplo exited" {
		t.Errorf("Error() = %q", err.Error())
	}

	bare := &ExitError{Code: 1}
	if bare.Error() != "exit status 1" {
		t.Errorf("Error() = %q", bare.Error())
	}
}

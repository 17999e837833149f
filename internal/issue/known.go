// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
)

// Id identifies a known issue with a canned explanation.
type Id int

const (
	ToolDownloadFailedId Id = iota + 1
	ToolChecksumMismatchId
	UnsupportedPlatformId
	NoTargetsFoundId
	ConfigLoadFailedId
)

type (
	// MarkdownMsg is a markdown document describing an issue and its fixes.
	MarkdownMsg string

	// Issue pairs a known failure mode with a rendered explanation shown
	// when the plain error message is unlikely to be enough.
	Issue struct {
		id    Id
		mdMsg MarkdownMsg
	}
)

// render is a test seam over glamour.Render.
var render = glamour.Render

// Id returns the issue identifier.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the raw markdown for the issue.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// Render produces the terminal-styled explanation for the issue.
func (i *Issue) Render(stylePath string) (string, error) {
	return render(string(i.mdMsg), stylePath)
}

var (
	toolDownloadFailedIssue = &Issue{
		id: ToolDownloadFailedId,
		mdMsg: `
# Could not download taplo

tomltool formats TOML files by shelling out to a pinned release of
[taplo](https://taplo.tamasfe.dev/), downloaded on first use.

## Things you can try
- Check your network connection and retry
- Pre-fetch the binary explicitly:
~~~
$ tomltool tool ensure
~~~
- If you are behind a proxy, make sure HTTPS_PROXY is exported`,
	}

	toolChecksumMismatchIssue = &Issue{
		id: ToolChecksumMismatchId,
		mdMsg: `
# Downloaded taplo binary failed verification

The downloaded release asset did not match the pinned SHA256 checksum.
The download was discarded and nothing was cached.

## Things you can try
- Retry; a truncated download produces the same symptom
- If you overrode ` + "`taplo.version`" + ` or ` + "`taplo.known_versions`" + ` in your
  config, make sure the checksum row matches the version`,
	}

	unsupportedPlatformIssue = &Issue{
		id: UnsupportedPlatformId,
		mdMsg: `
# No taplo release for this platform

Prebuilt taplo binaries are pinned for linux and macOS on x86_64 and
aarch64 only.

## Things you can try
- Install taplo yourself and add a ` + "`known_versions`" + ` row for your platform
- Run tomltool on a supported host`,
	}

	noTargetsFoundIssue = &Issue{
		id: NoTargetsFoundId,
		mdMsg: `
# No TOML targets found

No BUILD manifest under the given paths declares a ` + "`toml_source`" + ` or
` + "`toml_sources`" + ` target.

## Things you can try
- Let tomltool propose declarations for untracked TOML files:
~~~
$ tomltool tailor
~~~
- Apply the proposals directly:
~~~
$ tomltool tailor --write
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration could not be loaded

The tomltool config file exists but failed to parse or validate.

## Things you can try
- Show where the config is read from and what it resolves to:
~~~
$ tomltool config show
~~~
- Recreate a default config file:
~~~
$ tomltool config init
~~~`,
	}

	knownIssues = map[Id]*Issue{
		ToolDownloadFailedId:   toolDownloadFailedIssue,
		ToolChecksumMismatchId: toolChecksumMismatchIssue,
		UnsupportedPlatformId:  unsupportedPlatformIssue,
		NoTargetsFoundId:       noTargetsFoundIssue,
		ConfigLoadFailedId:     configLoadFailedIssue,
	}
)

// Lookup returns the known issue for id, or nil if none is registered.
func Lookup(id Id) *Issue {
	return knownIssues[id]
}

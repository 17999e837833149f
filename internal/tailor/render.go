// SPDX-License-Identifier: MPL-2.0

package tailor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bryanwweber/tomltool/internal/manifest"
)

// Render produces the ready-to-paste manifest stanza for one proposal:
//
//	[toml_sources.tomls]
//	sources = ["a.toml", "b.toml"]
//
// The sources list names exactly the unclaimed files, so an existing
// single-file target in the same directory keeps sole ownership of its file.
func (p Proposal) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s.%s]\n", manifest.KindSources, p.Name)
	quoted := make([]string, len(p.Files))
	for i, f := range p.Files {
		quoted[i] = fmt.Sprintf("%q", f)
	}
	fmt.Fprintf(&b, "sources = [%s]\n", strings.Join(quoted, ", "))
	return b.String()
}

// WriteProposals appends each proposal's stanza to its directory's BUILD
// manifest, creating the manifest when absent. Proposals whose target name
// already exists in the manifest are renamed with a numeric suffix first.
func WriteProposals(root string, proposals []Proposal) error {
	for _, p := range proposals {
		m, err := manifest.Load(root, p.Dir)
		if err != nil {
			return err
		}
		if m != nil && m.HasTarget(p.Name) {
			p.Name = uniqueName(m, p.Name)
		}

		path := filepath.Join(root, filepath.FromSlash(p.Dir), manifest.Filename)
		existing, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		var b strings.Builder
		b.Write(existing)
		if len(existing) > 0 && !strings.HasSuffix(string(existing), "\n") {
			b.WriteString("\n")
		}
		if len(existing) > 0 {
			b.WriteString("\n")
		}
		b.WriteString(p.Render())

		if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}

// uniqueName appends the smallest numeric suffix that avoids a name collision.
func uniqueName(m *manifest.Manifest, base string) string {
	for i := 0; ; i++ {
		candidate := fmt.Sprintf("%s%d", base, i)
		if !m.HasTarget(candidate) {
			return candidate
		}
	}
}

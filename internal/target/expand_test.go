// SPDX-License-Identifier: MPL-2.0

package target

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bryanwweber/tomltool/internal/manifest"
)

// writeFiles populates root with empty files at the given relative paths.
func writeFiles(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(root, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("key = 1\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func parseManifest(t *testing.T, data, relDir string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Parse([]byte(data), relDir)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return m
}

func TestExpand_OverrideAppliesToSingleFile(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "p.toml", "q.toml")

	m := parseManifest(t, `
[toml_sources.tomls]
[toml_sources.tomls.overrides."q.toml"]
skip = true
`, ".")

	targets, err := FromManifest(root, m)
	if err != nil {
		t.Fatalf("FromManifest() error = %v", err)
	}

	if len(targets) != 2 {
		t.Fatalf("len(targets) = %d, want 2", len(targets))
	}

	byFile := map[string]SourceTarget{}
	for _, tgt := range targets {
		byFile[tgt.Address.File] = tgt
	}

	if byFile["p.toml"].Skip {
		t.Error("p.toml should not be skipped")
	}
	if !byFile["q.toml"].Skip {
		t.Error("q.toml should carry skip = true from its override")
	}
}

func TestExpand_UnmatchedOverrideFailsFast(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "p.toml")

	m := parseManifest(t, `
[toml_sources.tomls]
[toml_sources.tomls.overrides."nope.toml"]
skip = true
`, ".")

	_, err := FromManifest(root, m)
	if err == nil {
		t.Fatal("FromManifest() should fail for unmatched override keys")
	}
	if !errors.Is(err, ErrUnmatchedOverride) {
		t.Errorf("errors.Is(err, ErrUnmatchedOverride) = false, err = %v", err)
	}

	var ovErr *UnmatchedOverrideError
	if !errors.As(err, &ovErr) {
		t.Fatalf("error type = %T", err)
	}
	if len(ovErr.Keys) != 1 || ovErr.Keys[0] != "nope.toml" {
		t.Errorf("Keys = %v, want [nope.toml]", ovErr.Keys)
	}
}

func TestExpand_OverlappingGlobsDeduplicate(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.toml")

	m := parseManifest(t, `
[toml_sources.tomls]
sources = ["*.toml", "a.toml"]
`, ".")

	targets, err := FromManifest(root, m)
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 1 {
		t.Errorf("len(targets) = %d, want 1 (a.toml double-matched)", len(targets))
	}
}

func TestExpand_MovesDependenciesAndCopiesFields(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "sub/a.toml", "sub/b.toml")

	m := parseManifest(t, `
[toml_sources.tomls]
dependencies = ["//other:cfg"]
description = "All the TOMLs"
`, "sub")

	targets, err := FromManifest(root, m)
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 2 {
		t.Fatalf("len(targets) = %d, want 2", len(targets))
	}

	for _, tgt := range targets {
		if len(tgt.Dependencies) != 1 || tgt.Dependencies[0] != "//other:cfg" {
			t.Errorf("%s: Dependencies = %v", tgt.Address, tgt.Dependencies)
		}
		if tgt.Description != "All the TOMLs" {
			t.Errorf("%s: Description = %q", tgt.Address, tgt.Description)
		}
	}

	// Deterministic ordering: files sorted lexicographically.
	if targets[0].Address.File != "a.toml" || targets[1].Address.File != "b.toml" {
		t.Errorf("order = [%s %s]", targets[0].Address.File, targets[1].Address.File)
	}
	if targets[0].Path != "sub/a.toml" {
		t.Errorf("Path = %q, want sub/a.toml", targets[0].Path)
	}
}

func TestExpand_EmptyDirectory(t *testing.T) {
	root := t.TempDir()

	m := parseManifest(t, "[toml_sources.tomls]\n", ".")

	targets, err := FromManifest(root, m)
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 0 {
		t.Errorf("len(targets) = %d, want 0", len(targets))
	}
}

func TestFromManifest_SingleSource(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "cfg/app.toml")

	m := parseManifest(t, `
[toml_source.app]
source = "app.toml"
skip = true
`, "cfg")

	targets, err := FromManifest(root, m)
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 1 {
		t.Fatalf("len(targets) = %d, want 1", len(targets))
	}

	tgt := targets[0]
	if tgt.Path != "cfg/app.toml" {
		t.Errorf("Path = %q", tgt.Path)
	}
	if !tgt.Skip {
		t.Error("Skip should carry through from the declaration")
	}
	if got := tgt.Address.String(); got != "//cfg:app" {
		t.Errorf("Address = %q, want //cfg:app", got)
	}
}

func TestAddress_String(t *testing.T) {
	tests := []struct {
		addr     Address
		expected string
	}{
		{Address{Dir: ".", Name: "tomls"}, "//:tomls"},
		{Address{Dir: "src/app", Name: "tomls"}, "//src/app:tomls"},
		{Address{Dir: "src/app", Name: "tomls", File: "q.toml"}, "//src/app:tomls#q.toml"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.addr.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

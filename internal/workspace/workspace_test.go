// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/bryanwweber/tomltool/internal/testutil"
)

func TestScan_FindsCandidatesSorted(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"zebra.toml":          "a = 1\n",
		"alpha.toml":          "a = 1\n",
		"sub/pyproject.toml":  "[tool]\n",
		"sub/notes.txt":       "not toml",
		".hidden/secret.toml": "a = 1\n",
		".hidden.toml":        "a = 1\n",
	})

	ws, err := New(root)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := ws.Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	expected := []string{"alpha.toml", "sub/pyproject.toml", "zebra.toml"}
	if !reflect.DeepEqual(snap.Files, expected) {
		t.Errorf("Files = %v, want %v", snap.Files, expected)
	}
}

func TestScan_ManifestsAndTargets(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"BUILD":          "[toml_source.py]\nsource = \"pyproject.toml\"\n",
		"pyproject.toml": "[tool]\n",
		"cfg/BUILD":      "[toml_sources.tomls]\n",
		"cfg/a.toml":     "a = 1\n",
		"cfg/b.toml":     "b = 1\n",
	})

	ws, err := New(root)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := ws.Scan()
	if err != nil {
		t.Fatal(err)
	}

	if len(snap.Manifests) != 2 {
		t.Fatalf("len(Manifests) = %d, want 2", len(snap.Manifests))
	}
	if len(snap.Targets) != 3 {
		t.Fatalf("len(Targets) = %d, want 3", len(snap.Targets))
	}

	owned := snap.OwnedFiles()
	for _, p := range []string{"pyproject.toml", "cfg/a.toml", "cfg/b.toml"} {
		if _, ok := owned[p]; !ok {
			t.Errorf("OwnedFiles() missing %s", p)
		}
	}

	// BUILD manifests themselves are never candidates.
	for _, f := range snap.Files {
		if filepath.Base(f) == "BUILD" {
			t.Errorf("manifest %s listed as candidate", f)
		}
	}
}

func TestSnapshot_FormatTargetsSkipsSkipped(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"BUILD": `
[toml_sources.tomls]
[toml_sources.tomls.overrides."b.toml"]
skip = true
`,
		"a.toml": "a = 1\n",
		"b.toml": "b = 1\n",
	})

	ws, err := New(root)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := ws.Scan()
	if err != nil {
		t.Fatal(err)
	}

	fts := snap.FormatTargets()
	if len(fts) != 1 || fts[0].Path != "a.toml" {
		t.Errorf("FormatTargets() = %v, want only a.toml", fts)
	}

	// Skipped targets still own their file.
	if _, ok := snap.OwnedFiles()["b.toml"]; !ok {
		t.Error("skipped target should still own b.toml")
	}
}

func TestScan_InvalidManifestFails(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"BUILD": "[python_source.x]\nsource = \"x.py\"\n",
	})

	ws, err := New(root)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ws.Scan(); err == nil {
		t.Error("Scan() should fail on an invalid manifest")
	}
}

func TestNew_RejectsNonDirectory(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(file); err == nil {
		t.Error("New() should reject a non-directory root")
	}
}

// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParse_SingleSource(t *testing.T) {
	data := []byte(`
[toml_source.pyproject]
source = "pyproject.toml"
dependencies = ["src/other:cfg"]
description = "Project metadata"
`)

	m, err := Parse(data, "src/app")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if m.Dir != "src/app" {
		t.Errorf("Dir = %q, want src/app", m.Dir)
	}
	if m.Path != "src/app/BUILD" {
		t.Errorf("Path = %q, want src/app/BUILD", m.Path)
	}

	decl, ok := m.Sources["pyproject"]
	if !ok {
		t.Fatal("missing toml_source.pyproject")
	}
	if decl.Source != "pyproject.toml" {
		t.Errorf("Source = %q", decl.Source)
	}
	if decl.Skip {
		t.Error("Skip should default to false")
	}
	if len(decl.Dependencies) != 1 || decl.Dependencies[0] != "src/other:cfg" {
		t.Errorf("Dependencies = %v", decl.Dependencies)
	}
}

func TestParse_GeneratorWithOverrides(t *testing.T) {
	data := []byte(`
[toml_sources.tomls]
sources = ["*.toml", "configs/*.toml"]

[toml_sources.tomls.overrides."generated.toml"]
skip = true
`)

	m, err := Parse(data, ".")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if m.Path != "BUILD" {
		t.Errorf("Path = %q, want BUILD", m.Path)
	}

	decl, ok := m.Generators["tomls"]
	if !ok {
		t.Fatal("missing toml_sources.tomls")
	}
	if len(decl.Globs()) != 2 {
		t.Errorf("Globs() = %v", decl.Globs())
	}

	ov, ok := decl.Overrides["generated.toml"]
	if !ok {
		t.Fatal("missing override for generated.toml")
	}
	if ov.Skip == nil || !*ov.Skip {
		t.Error("override skip should be explicitly true")
	}
	if ov.Description != nil {
		t.Error("description should not be overridden")
	}
}

func TestSourcesDecl_GlobsDefault(t *testing.T) {
	var decl SourcesDecl
	globs := decl.Globs()
	if len(globs) != 1 || globs[0] != DefaultGlob {
		t.Errorf("Globs() = %v, want [%s]", globs, DefaultGlob)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown target kind", "[python_source.x]\nsource = \"x.py\"\n"},
		{"bad target name", "[toml_source.\"my target\"]\nsource = \"a.toml\"\n"},
		{"missing source", "[toml_source.x]\ndescription = \"no source\"\n"},
		{"wrong extension", "[toml_source.x]\nsource = \"settings.yaml\"\n"},
		{"absolute source", "[toml_source.x]\nsource = \"/etc/app.toml\"\n"},
		{"escaping source", "[toml_source.x]\nsource = \"../app.toml\"\n"},
		{"escaping glob", "[toml_sources.x]\nsources = [\"../*.toml\"]\n"},
		{"empty glob", "[toml_sources.x]\nsources = [\"\"]\n"},
		{"not toml at all", "toml_source = [1, 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data), "."); err == nil {
				t.Errorf("Parse() = nil error, want failure")
			}
		})
	}
}

func TestParse_InvalidWrapsSentinel(t *testing.T) {
	_, err := Parse([]byte("[toml_source.x]\nsource = \"settings.yaml\"\n"), ".")
	if !errors.Is(err, ErrInvalidManifest) {
		t.Errorf("errors.Is(err, ErrInvalidManifest) = false, err = %v", err)
	}
}

func TestManifest_TargetNames(t *testing.T) {
	data := []byte(`
[toml_source.zeta]
source = "z.toml"

[toml_sources.alpha]
sources = ["*.toml"]
`)

	m, err := Parse(data, ".")
	if err != nil {
		t.Fatal(err)
	}

	names := m.TargetNames()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Errorf("TargetNames() = %v, want [alpha zeta]", names)
	}

	if !m.HasTarget("zeta") || !m.HasTarget("alpha") {
		t.Error("HasTarget() should find declared targets")
	}
	if m.HasTarget("missing") {
		t.Error("HasTarget(missing) = true")
	}
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "configs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	data := "[toml_sources.tomls]\nsources = [\"*.toml\"]\n"
	if err := os.WriteFile(filepath.Join(dir, Filename), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(root, "configs")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if m == nil {
		t.Fatal("Load() = nil manifest for existing BUILD file")
	}
	if m.Dir != "configs" {
		t.Errorf("Dir = %q", m.Dir)
	}

	// No manifest is not an error.
	m, err = Load(root, ".")
	if err != nil {
		t.Fatalf("Load() error = %v for missing manifest", err)
	}
	if m != nil {
		t.Errorf("Load() = %v, want nil for missing manifest", m)
	}
}

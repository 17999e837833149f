// SPDX-License-Identifier: MPL-2.0

// Package manifest parses BUILD manifests.
//
// A BUILD file is a TOML document declaring the TOML targets of its
// directory. Two target kinds exist: toml_source wraps a single file,
// toml_sources is a generator that expands a glob into one toml_source
// per matched file.
//
//	[toml_source.pyproject]
//	source = "pyproject.toml"
//
//	[toml_sources.tomls]
//	sources = ["*.toml"]
//	[toml_sources.tomls.overrides."generated.toml"]
//	skip = true
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/bryanwweber/tomltool/internal/issue"
)

const (
	// Filename is the manifest filename. It is deliberately not a .toml
	// file itself, so manifests never show up as formatting candidates.
	Filename = "BUILD"

	// KindSource is the single-file target kind.
	KindSource = "toml_source"
	// KindSources is the generator target kind.
	KindSources = "toml_sources"

	// DefaultGlob is the glob used when a toml_sources target omits sources.
	DefaultGlob = "*.toml"

	// SourceExtension is the only file extension toml_source targets accept.
	SourceExtension = ".toml"
)

// ErrInvalidManifest is the sentinel error wrapped by manifest validation errors.
var ErrInvalidManifest = errors.New("invalid manifest")

// targetNameRe restricts target names to the characters that survive in
// target addresses unescaped.
var targetNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

type (
	// Override selectively replaces fields on one generated target, keyed by
	// the generated file's name. Pointer fields distinguish "not overridden"
	// from an explicit zero value.
	Override struct {
		Skip         *bool    `toml:"skip"`
		Dependencies []string `toml:"dependencies"`
		Description  *string  `toml:"description"`
	}

	// SourceDecl declares a toml_source target: exactly one TOML file.
	SourceDecl struct {
		// Source is the file path relative to the manifest directory.
		Source string `toml:"source"`
		// Skip excludes the file from formatting runs.
		Skip bool `toml:"skip"`
		// Dependencies carries build-graph edges; tomltool stores them verbatim.
		Dependencies []string `toml:"dependencies"`
		// Description is free-form documentation.
		Description string `toml:"description"`
	}

	// SourcesDecl declares a toml_sources generator target.
	SourcesDecl struct {
		// Sources are globs relative to the manifest directory.
		// Empty means DefaultGlob.
		Sources []string `toml:"sources"`
		// Skip excludes every generated file from formatting runs.
		Skip bool `toml:"skip"`
		// Dependencies are moved onto each generated target at expansion.
		Dependencies []string `toml:"dependencies"`
		// Description is copied onto each generated target.
		Description string `toml:"description"`
		// Overrides replaces fields per generated file. Every key must match
		// a file produced by Sources; expansion fails fast otherwise.
		Overrides map[string]Override `toml:"overrides"`
	}

	// Manifest is one parsed BUILD file.
	Manifest struct {
		// Path is the workspace-relative path of the BUILD file (slash-separated).
		Path string
		// Dir is the workspace-relative directory the manifest governs
		// ("." for the workspace root).
		Dir string
		// Sources maps target name to toml_source declarations.
		Sources map[string]SourceDecl
		// Generators maps target name to toml_sources declarations.
		Generators map[string]SourcesDecl
	}

	// rawManifest is the TOML wire shape of a BUILD file.
	rawManifest struct {
		TomlSource  map[string]SourceDecl  `toml:"toml_source"`
		TomlSources map[string]SourcesDecl `toml:"toml_sources"`
	}
)

// Globs returns the declared globs, falling back to DefaultGlob.
func (d SourcesDecl) Globs() []string {
	if len(d.Sources) == 0 {
		return []string{DefaultGlob}
	}
	return d.Sources
}

// TargetNames returns all target names declared in the manifest, sorted.
func (m *Manifest) TargetNames() []string {
	names := make([]string, 0, len(m.Sources)+len(m.Generators))
	for name := range m.Sources {
		names = append(names, name)
	}
	for name := range m.Generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasTarget reports whether a target with the given name is declared.
func (m *Manifest) HasTarget(name string) bool {
	if _, ok := m.Sources[name]; ok {
		return true
	}
	_, ok := m.Generators[name]
	return ok
}

// Parse decodes and validates a BUILD manifest. relDir is the
// workspace-relative directory containing the file and becomes Manifest.Dir.
func Parse(data []byte, relDir string) (*Manifest, error) {
	relDir = filepath.ToSlash(filepath.Clean(relDir))
	manifestPath := relDir + "/" + Filename
	if relDir == "." {
		manifestPath = Filename
	}

	var raw rawManifest
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		var strictErr *toml.StrictMissingError
		if errors.As(err, &strictErr) {
			return nil, issue.NewErrorContext().
				WithOperation("load manifest").
				WithResource(manifestPath).
				WithSuggestion("Only [toml_source.<name>] and [toml_sources.<name>] tables are recognized").
				Wrap(fmt.Errorf("%w: unknown fields:\n%s", ErrInvalidManifest, strictErr.String())).
				BuildError()
		}
		return nil, issue.NewErrorContext().
			WithOperation("load manifest").
			WithResource(manifestPath).
			WithSuggestion("Check the TOML syntax of the manifest").
			Wrap(err).
			BuildError()
	}

	m := &Manifest{
		Path:       manifestPath,
		Dir:        relDir,
		Sources:    raw.TomlSource,
		Generators: raw.TomlSources,
	}

	if err := m.validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load manifest").
			WithResource(manifestPath).
			Wrap(err).
			BuildError()
	}

	return m, nil
}

// Load reads and parses the BUILD manifest of root/relDir.
// Returns (nil, nil) when the directory has no manifest.
func Load(root, relDir string) (*Manifest, error) {
	path := filepath.Join(root, filepath.FromSlash(relDir), Filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	return Parse(data, relDir)
}

// validate checks declaration shape: target names, source extensions and
// relative paths. Glob/override consistency is checked at expansion time,
// where the matched file set is known.
func (m *Manifest) validate() error {
	for name, decl := range m.Sources {
		if !targetNameRe.MatchString(name) {
			return fmt.Errorf("%w: invalid target name %q", ErrInvalidManifest, name)
		}
		if err := validateSourcePath(decl.Source); err != nil {
			return fmt.Errorf("%w: toml_source.%s: %w", ErrInvalidManifest, name, err)
		}
	}

	for name, decl := range m.Generators {
		if !targetNameRe.MatchString(name) {
			return fmt.Errorf("%w: invalid target name %q", ErrInvalidManifest, name)
		}
		for _, glob := range decl.Globs() {
			if strings.TrimSpace(glob) == "" {
				return fmt.Errorf("%w: toml_sources.%s: empty glob", ErrInvalidManifest, name)
			}
			if filepath.IsAbs(glob) || strings.Contains(glob, "..") {
				return fmt.Errorf("%w: toml_sources.%s: glob %q must stay inside the manifest directory", ErrInvalidManifest, name, glob)
			}
		}
		for key := range decl.Overrides {
			if strings.TrimSpace(key) == "" {
				return fmt.Errorf("%w: toml_sources.%s: empty override key", ErrInvalidManifest, name)
			}
		}
	}

	return nil
}

// validateSourcePath checks a toml_source file path: relative, inside the
// manifest directory, with the .toml extension.
func validateSourcePath(source string) error {
	if strings.TrimSpace(source) == "" {
		return errors.New("source must not be empty")
	}
	if filepath.IsAbs(source) || strings.Contains(source, "..") {
		return fmt.Errorf("source %q must stay inside the manifest directory", source)
	}
	if !strings.HasSuffix(source, SourceExtension) {
		return fmt.Errorf("source %q must have the %s extension", source, SourceExtension)
	}
	return nil
}

// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Taplo.Version != DefaultTaploVersion {
		t.Errorf("Taplo.Version = %q, want %q", cfg.Taplo.Version, DefaultTaploVersion)
	}
	if cfg.Taplo.URLTemplate != DefaultURLTemplate {
		t.Errorf("Taplo.URLTemplate = %q, want %q", cfg.Taplo.URLTemplate, DefaultURLTemplate)
	}
	if len(cfg.Taplo.KnownVersions) != 4 {
		t.Errorf("len(KnownVersions) = %d, want 4", len(cfg.Taplo.KnownVersions))
	}
	if !cfg.Taplo.ConfigDiscovery {
		t.Error("ConfigDiscovery should default to true")
	}
	if cfg.Taplo.Skip {
		t.Error("Skip should default to false")
	}
	if !cfg.Tailor.Enabled {
		t.Error("Tailor.Enabled should default to true")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestKnownVersionFor(t *testing.T) {
	cfg := DefaultConfig()

	kv, ok := cfg.Taplo.KnownVersionFor("0.8.0", PlatformLinuxX86)
	if !ok {
		t.Fatal("expected a pinned row for 0.8.0/linux-x86_64")
	}
	if kv.SHA256 != "3703294fac37ca9a9f76308f9f98c3939ccb7588f8972acec68a48d7a10d8ee5" {
		t.Errorf("SHA256 = %q", kv.SHA256)
	}
	if kv.Size != 4123593 {
		t.Errorf("Size = %d", kv.Size)
	}

	if _, ok := cfg.Taplo.KnownVersionFor("9.9.9", PlatformLinuxX86); ok {
		t.Error("unexpected row for unpinned version")
	}
}

func TestToolVersion_IsValid(t *testing.T) {
	tests := []struct {
		version ToolVersion
		valid   bool
	}{
		{"0.8.0", true},
		{"1.0.0-rc1", true},
		{"", false},
		{"not-a-version", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.version), func(t *testing.T) {
			if got := tt.version.IsValid(); got != tt.valid {
				t.Errorf("IsValid(%q) = %v, want %v", tt.version, got, tt.valid)
			}
		})
	}
}

func TestConfig_Validate_CollectsFieldErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Taplo.Version = "bogus"
	cfg.Taplo.KnownVersions = append(cfg.Taplo.KnownVersions, KnownVersion{
		Version:  "0.8.0",
		Platform: "windows-x86_64",
		SHA256:   "short",
		Size:     -1,
	})

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("errors.Is(err, ErrInvalidConfig) = false")
	}

	var cfgErr *InvalidConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error type = %T", err)
	}
	if len(cfgErr.FieldErrors) != 2 {
		t.Errorf("len(FieldErrors) = %d, want 2", len(cfgErr.FieldErrors))
	}
	if !errors.Is(err, ErrInvalidToolVersion) {
		t.Error("expected wrapped ErrInvalidToolVersion")
	}
}

func TestLoad_NoConfigFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	p := NewProvider()
	cfg, err := p.Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Taplo.Version != DefaultTaploVersion {
		t.Errorf("Taplo.Version = %q, want default", cfg.Taplo.Version)
	}
}

func TestLoad_ConfigFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `
verbose = true

[taplo]
args = "--option align_entries=true"
config_discovery = false

[tailor]
enabled = false
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewProvider()
	cfg, err := p.Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !cfg.Verbose {
		t.Error("Verbose should be overridden to true")
	}
	if cfg.Taplo.Args != "--option align_entries=true" {
		t.Errorf("Args = %q", cfg.Taplo.Args)
	}
	if cfg.Taplo.ConfigDiscovery {
		t.Error("ConfigDiscovery should be overridden to false")
	}
	if cfg.Tailor.Enabled {
		t.Error("Tailor.Enabled should be overridden to false")
	}
	// Untouched fields keep their defaults.
	if cfg.Taplo.Version != DefaultTaploVersion {
		t.Errorf("Taplo.Version = %q, want default", cfg.Taplo.Version)
	}
}

func TestLoad_SchemaRejectsUnknownField(t *testing.T) {
	dir := t.TempDir()
	content := `
[taplo]
verison = "0.8.0"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewProvider()
	_, err := p.Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err == nil {
		t.Fatal("Load() should reject a misspelled field")
	}
	if !strings.Contains(err.Error(), "load configuration") {
		t.Errorf("error should carry the load operation, got: %v", err)
	}
}

func TestLoad_SchemaRejectsBadChecksumRow(t *testing.T) {
	dir := t.TempDir()
	content := `
[[taplo.known_versions]]
version = "0.8.0"
platform = "linux-x86_64"
sha256 = "nothex"
size = 123
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewProvider()
	if _, err := p.Load(context.Background(), LoadOptions{ConfigDirPath: dir}); err == nil {
		t.Fatal("Load() should reject a malformed sha256")
	}
}

func TestLoad_ExplicitConfigFileNotFound(t *testing.T) {
	p := NewProvider()
	_, err := p.Load(context.Background(), LoadOptions{
		ConfigFilePath: filepath.Join(t.TempDir(), "missing.toml"),
	})
	if err == nil {
		t.Fatal("Load() should fail for an explicit missing config file")
	}
}

func TestCacheDir_Override(t *testing.T) {
	dir := t.TempDir()
	SetCacheDirOverride(dir)
	defer Reset()

	got, err := CacheDir()
	if err != nil {
		t.Fatalf("CacheDir() error = %v", err)
	}
	if got != dir {
		t.Errorf("CacheDir() = %q, want %q", got, dir)
	}
}

func TestCreateDefaultConfig_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	defer Reset()

	path, err := CreateDefaultConfig()
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("config written to %s, want under %s", path, dir)
	}

	// The generated file must load back cleanly to the defaults.
	p := NewProvider()
	cfg, err := p.Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() of generated config error = %v", err)
	}
	if cfg.Taplo.Version != DefaultTaploVersion {
		t.Errorf("Taplo.Version = %q, want default", cfg.Taplo.Version)
	}
	if len(cfg.Taplo.KnownVersions) != 4 {
		t.Errorf("len(KnownVersions) = %d, want 4", len(cfg.Taplo.KnownVersions))
	}

	// A second call must not clobber the existing file.
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := CreateDefaultConfig(); err != nil {
		t.Fatalf("second CreateDefaultConfig() error = %v", err)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("CreateDefaultConfig() overwrote an existing config file")
	}
}

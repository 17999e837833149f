// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

const (
	// PlatformDarwinARM64 is the taplo release platform for macOS on Apple Silicon.
	PlatformDarwinARM64 ToolPlatform = "darwin-aarch64"
	// PlatformDarwinX86 is the taplo release platform for macOS on Intel.
	PlatformDarwinX86 ToolPlatform = "darwin-x86_64"
	// PlatformLinuxARM64 is the taplo release platform for Linux on aarch64.
	PlatformLinuxARM64 ToolPlatform = "linux-aarch64"
	// PlatformLinuxX86 is the taplo release platform for Linux on x86_64.
	PlatformLinuxX86 ToolPlatform = "linux-x86_64"

	// DefaultTaploVersion is the pinned taplo release downloaded when the
	// config does not override taplo.version.
	DefaultTaploVersion ToolVersion = "0.8.0"

	// DefaultURLTemplate is the download location for taplo release assets.
	// {version} and {platform} are substituted at download time.
	DefaultURLTemplate = "https://github.com/tamasfe/taplo/releases/download/{version}/taplo-{platform}.gz"

	// sha256HexLen is the length of a hex-encoded SHA256 digest.
	sha256HexLen = 64
)

var (
	// ErrInvalidToolVersion is returned when a ToolVersion is not valid semver.
	ErrInvalidToolVersion = errors.New("invalid tool version")
	// ErrInvalidToolPlatform is returned when a ToolPlatform value is not recognized.
	ErrInvalidToolPlatform = errors.New("invalid tool platform")
	// ErrInvalidKnownVersion is the sentinel error wrapped by InvalidKnownVersionError.
	ErrInvalidKnownVersion = errors.New("invalid known version entry")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ToolVersion is a pinned taplo release version, without "v" prefix
	// (taplo tags releases as bare versions, e.g. "0.8.0").
	ToolVersion string

	// ToolPlatform names a taplo release platform string as it appears in
	// release asset filenames.
	ToolPlatform string

	// InvalidToolVersionError is returned when a ToolVersion value is not
	// valid semver. It wraps ErrInvalidToolVersion for errors.Is() compatibility.
	InvalidToolVersionError struct {
		Value ToolVersion
	}

	// InvalidToolPlatformError is returned when a ToolPlatform value is not
	// one of the four supported platforms. It wraps ErrInvalidToolPlatform.
	InvalidToolPlatformError struct {
		Value ToolPlatform
	}

	// KnownVersion pins one downloadable taplo asset: the release version,
	// the platform it targets, and the SHA256 and byte size of the asset as
	// published. Downloads failing either check are discarded.
	KnownVersion struct {
		Version  ToolVersion  `json:"version" mapstructure:"version"`
		Platform ToolPlatform `json:"platform" mapstructure:"platform"`
		SHA256   string       `json:"sha256" mapstructure:"sha256"`
		Size     int64        `json:"size" mapstructure:"size"`
	}

	// InvalidKnownVersionError is returned when a KnownVersion row has invalid
	// fields. It wraps ErrInvalidKnownVersion for errors.Is() compatibility
	// and collects field-level validation errors.
	InvalidKnownVersionError struct {
		Index       int
		FieldErrors []error
	}

	// TaploConfig configures the external taplo binary and its invocation.
	TaploConfig struct {
		// Version selects which pinned taplo release to download.
		Version ToolVersion `json:"version" mapstructure:"version"`
		// URLTemplate is the download URL with {version}/{platform} placeholders.
		URLTemplate string `json:"url_template" mapstructure:"url_template"`
		// KnownVersions is the checksum/size table for downloadable assets.
		KnownVersions []KnownVersion `json:"known_versions" mapstructure:"known_versions"`
		// Args holds extra CLI arguments appended verbatim to every taplo
		// invocation, split with shell word rules (e.g. "--option align_entries=false").
		Args string `json:"args" mapstructure:"args"`
		// ConfigDiscovery enables searching for .taplo.toml/taplo.toml files
		// from each input file's directory up through the workspace root.
		ConfigDiscovery bool `json:"config_discovery" mapstructure:"config_discovery"`
		// Skip disables taplo entirely for fmt and lint runs.
		Skip bool `json:"skip" mapstructure:"skip"`
	}

	// TailorConfig configures target discovery.
	TailorConfig struct {
		// Enabled gates whether tailor proposes toml_sources targets at all.
		Enabled bool `json:"enabled" mapstructure:"enabled"`
	}

	// Config holds the application configuration. It is passed explicitly
	// into discovery and format execution; nothing reads it as global state.
	Config struct {
		// Taplo configures the external formatter binary.
		Taplo TaploConfig `json:"taplo" mapstructure:"taplo"`
		// Tailor configures target discovery.
		Tailor TailorConfig `json:"tailor" mapstructure:"tailor"`
		// Verbose enables verbose diagnostic output.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// Error returns the message for an invalid tool version.
func (e *InvalidToolVersionError) Error() string {
	return fmt.Sprintf("invalid tool version %q: must be a semantic version like \"0.8.0\"", e.Value)
}

// Unwrap returns ErrInvalidToolVersion for errors.Is.
func (e *InvalidToolVersionError) Unwrap() error { return ErrInvalidToolVersion }

// Error returns the message for an invalid tool platform.
func (e *InvalidToolPlatformError) Error() string {
	return fmt.Sprintf("invalid tool platform %q: must be one of %s, %s, %s, %s",
		e.Value, PlatformDarwinARM64, PlatformDarwinX86, PlatformLinuxARM64, PlatformLinuxX86)
}

// Unwrap returns ErrInvalidToolPlatform for errors.Is.
func (e *InvalidToolPlatformError) Unwrap() error { return ErrInvalidToolPlatform }

// Error joins the field errors for an invalid known-version row.
func (e *InvalidKnownVersionError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		msgs = append(msgs, fe.Error())
	}
	return fmt.Sprintf("known_versions[%d]: %s", e.Index, strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidKnownVersion for errors.Is.
func (e *InvalidKnownVersionError) Unwrap() error { return ErrInvalidKnownVersion }

// Error joins the field errors for an invalid config.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		msgs = append(msgs, fe.Error())
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidConfig for errors.Is.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// IsValid reports whether the version parses as semver. Taplo tags bare
// versions, so a "v" prefix is added before validation.
func (v ToolVersion) IsValid() bool {
	return semver.IsValid("v" + string(v))
}

// IsValid reports whether the platform is one of the supported release targets.
func (p ToolPlatform) IsValid() bool {
	switch p {
	case PlatformDarwinARM64, PlatformDarwinX86, PlatformLinuxARM64, PlatformLinuxX86:
		return true
	}
	return false
}

// Validate checks a known-version row, collecting all field errors.
func (k KnownVersion) Validate(index int) error {
	var fieldErrors []error

	if !k.Version.IsValid() {
		fieldErrors = append(fieldErrors, &InvalidToolVersionError{Value: k.Version})
	}
	if !k.Platform.IsValid() {
		fieldErrors = append(fieldErrors, &InvalidToolPlatformError{Value: k.Platform})
	}
	if len(k.SHA256) != sha256HexLen {
		fieldErrors = append(fieldErrors, fmt.Errorf("sha256 must be %d hex characters, got %d", sha256HexLen, len(k.SHA256)))
	}
	if k.Size <= 0 {
		fieldErrors = append(fieldErrors, fmt.Errorf("size must be positive, got %d", k.Size))
	}

	if len(fieldErrors) > 0 {
		return &InvalidKnownVersionError{Index: index, FieldErrors: fieldErrors}
	}
	return nil
}

// Validate checks the whole configuration, collecting all field errors into
// a single InvalidConfigError.
func (c *Config) Validate() error {
	var fieldErrors []error

	if !c.Taplo.Version.IsValid() {
		fieldErrors = append(fieldErrors, &InvalidToolVersionError{Value: c.Taplo.Version})
	}
	if strings.TrimSpace(c.Taplo.URLTemplate) == "" {
		fieldErrors = append(fieldErrors, errors.New("taplo.url_template must not be empty"))
	}
	for i, kv := range c.Taplo.KnownVersions {
		if err := kv.Validate(i); err != nil {
			fieldErrors = append(fieldErrors, err)
		}
	}

	if len(fieldErrors) > 0 {
		return &InvalidConfigError{FieldErrors: fieldErrors}
	}
	return nil
}

// KnownVersionFor returns the checksum row matching version and platform,
// or false when no row pins that combination.
func (c *TaploConfig) KnownVersionFor(version ToolVersion, platform ToolPlatform) (KnownVersion, bool) {
	for _, kv := range c.KnownVersions {
		if kv.Version == version && kv.Platform == platform {
			return kv, true
		}
	}
	return KnownVersion{}, false
}

// DefaultConfig returns the built-in configuration: taplo 0.8.0 with the
// upstream release checksums, config discovery and tailor enabled.
func DefaultConfig() *Config {
	return &Config{
		Taplo: TaploConfig{
			Version:     DefaultTaploVersion,
			URLTemplate: DefaultURLTemplate,
			KnownVersions: []KnownVersion{
				{Version: "0.8.0", Platform: PlatformDarwinARM64, SHA256: "79c1691c3c46be981fa0cec930ec9a6d6c4ffd27272d37d1885514ce59bd8ccf", Size: 3661689},
				{Version: "0.8.0", Platform: PlatformDarwinX86, SHA256: "a1917f1b9168cb4f7d579422dcdf9c733028d873963d8fa3a6f499e41719c502", Size: 3926263},
				{Version: "0.8.0", Platform: PlatformLinuxARM64, SHA256: "a6a94482f125c21090593f94cad23df099c4924f5b9620cda4a8653527c097a1", Size: 3995383},
				{Version: "0.8.0", Platform: PlatformLinuxX86, SHA256: "3703294fac37ca9a9f76308f9f98c3939ccb7588f8972acec68a48d7a10d8ee5", Size: 4123593},
			},
			Args:            "",
			ConfigDiscovery: true,
			Skip:            false,
		},
		Tailor: TailorConfig{
			Enabled: true,
		},
		Verbose: false,
	}
}

// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bryanwweber/tomltool/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name, used for config and cache directories.
	AppName = "tomltool"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "toml"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the tomltool configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	// Allow tests to override the config directory
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// CacheDir returns the tomltool cache directory, where downloaded taplo
// binaries are kept. Uses $XDG_CACHE_HOME conventions on Linux, the user
// cache dir elsewhere.
func CacheDir() (string, error) {
	if cacheDirOverride != "" {
		return cacheDirOverride, nil
	}

	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user cache directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level cache state. Callers that want caching can wrap this function.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	// Set defaults
	defaults := DefaultConfig()
	v.SetDefault("verbose", defaults.Verbose)
	v.SetDefault("taplo.version", defaults.Taplo.Version)
	v.SetDefault("taplo.url_template", defaults.Taplo.URLTemplate)
	v.SetDefault("taplo.known_versions", defaults.Taplo.KnownVersions)
	v.SetDefault("taplo.args", defaults.Taplo.Args)
	v.SetDefault("taplo.config_discovery", defaults.Taplo.ConfigDiscovery)
	v.SetDefault("taplo.skip", defaults.Taplo.Skip)
	v.SetDefault("tailor.enabled", defaults.Tailor.Enabled)

	resolvedPath := ""

	// If a custom config file path is set via --config flag, use it exclusively.
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'tomltool config show' to see the default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		if err := loadTOMLIntoViper(v, opts.ConfigFilePath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Check that the file contains valid TOML syntax").
				WithSuggestion("Verify the values match the expected schema ('tomltool config show')").
				Wrap(err).
				BuildError()
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, "", err
		}

		tomlPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
		if fileExists(tomlPath) {
			if err := loadTOMLIntoViper(v, tomlPath); err != nil {
				return nil, "", issue.NewErrorContext().
					WithOperation("load configuration").
					WithResource(tomlPath).
					WithSuggestion("Check that the file contains valid TOML syntax").
					WithSuggestion("Recreate the default config with 'tomltool config init'").
					Wrap(err).
					BuildError()
			}
			resolvedPath = tomlPath
		}
		// If no config file found, use defaults (no error)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Pinned versions must be bare semver strings like \"0.8.0\"").
			WithSuggestion("Each known_versions row needs version, platform, sha256 and size").
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadTOMLIntoViper parses a TOML config file, validates it against the
// embedded #Config CUE schema, and merges its contents into Viper.
//
// The file syntax is TOML (this is a TOML tool, after all), but validation
// goes through CUE: the decoded document is unified with #Config so that
// unknown fields, wrong types and malformed checksum rows are rejected with
// a precise message instead of silently unmarshaling to zero values.
func loadTOMLIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse TOML: %w", err)
	}

	cuectx := cuecontext.New()

	schemaValue := cuectx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(cuectx.Encode(doc))
	// Concrete(false): every config field is optional.
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return fmt.Errorf("config does not match schema: %w", err)
	}

	if err := v.MergeConfigMap(doc); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(cfgDir, 0o755)
}

// CreateDefaultConfig creates a default config file if it doesn't exist.
func CreateDefaultConfig() (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)

	// Never clobber an existing config.
	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, nil
	}

	content := GenerateTOML(DefaultConfig())
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return cfgPath, nil
}

// GenerateTOML generates a commented TOML representation of the configuration.
func GenerateTOML(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("# tomltool configuration file\n")
	sb.WriteString("# See https://github.com/bryanwweber/tomltool for documentation.\n\n")

	fmt.Fprintf(&sb, "verbose = %v\n", cfg.Verbose)

	sb.WriteString("\n[taplo]\n")
	fmt.Fprintf(&sb, "version = %q\n", cfg.Taplo.Version)
	fmt.Fprintf(&sb, "url_template = %q\n", cfg.Taplo.URLTemplate)
	if cfg.Taplo.Args != "" {
		fmt.Fprintf(&sb, "args = %q\n", cfg.Taplo.Args)
	} else {
		sb.WriteString("# args = \"--option align_entries=false\"\n")
	}
	fmt.Fprintf(&sb, "config_discovery = %v\n", cfg.Taplo.ConfigDiscovery)
	fmt.Fprintf(&sb, "skip = %v\n", cfg.Taplo.Skip)

	for _, kv := range cfg.Taplo.KnownVersions {
		sb.WriteString("\n[[taplo.known_versions]]\n")
		fmt.Fprintf(&sb, "version = %q\n", kv.Version)
		fmt.Fprintf(&sb, "platform = %q\n", kv.Platform)
		fmt.Fprintf(&sb, "sha256 = %q\n", kv.SHA256)
		fmt.Fprintf(&sb, "size = %d\n", kv.Size)
	}

	sb.WriteString("\n[tailor]\n")
	fmt.Fprintf(&sb, "enabled = %v\n", cfg.Tailor.Enabled)

	return sb.String()
}

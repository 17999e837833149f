// SPDX-License-Identifier: MPL-2.0

// Package config loads and validates the tomltool configuration.
//
// Configuration lives in a TOML file under the platform config directory
// and is merged over built-in defaults with Viper. Before merging, the
// document is validated against an embedded CUE schema so malformed files
// fail loudly at load time. The resulting Config value is passed explicitly
// into discovery and format execution; nothing in this module reads
// configuration as ambient global state.
package config

// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride allows tests to override the config directory.
// This is necessary because os.UserHomeDir() doesn't reliably respect
// the HOME environment variable on all platforms (e.g., macOS in CI).
var configDirOverride string

// cacheDirOverride allows tests to override the cache directory, keeping
// downloaded tool binaries inside t.TempDir().
var cacheDirOverride string

// Reset clears test overrides. Call from test cleanup to restore defaults.
func Reset() {
	configDirOverride = ""
	cacheDirOverride = ""
}

// SetConfigDirOverride sets a custom config directory path.
// Primarily intended for testing, to bypass os.UserHomeDir().
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// SetCacheDirOverride sets a custom cache directory path.
// Primarily intended for testing, to bypass os.UserCacheDir().
func SetCacheDirOverride(dir string) {
	cacheDirOverride = dir
}

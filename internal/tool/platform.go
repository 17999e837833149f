// SPDX-License-Identifier: MPL-2.0

// Package tool downloads and caches the pinned taplo binary. Assets are
// fetched from the upstream release page, verified against pinned SHA256
// digests and sizes, and unpacked into the user cache directory.
package tool

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/bryanwweber/tomltool/internal/config"
)

// ErrUnsupportedPlatform is the sentinel error wrapped by UnsupportedPlatformError.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// UnsupportedPlatformError is returned when no taplo release asset exists
// for the host OS/architecture pair.
type UnsupportedPlatformError struct {
	OS   string
	Arch string
}

// Error names the unsupported OS/architecture pair.
func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("no taplo release asset for %s/%s", e.OS, e.Arch)
}

// Unwrap returns ErrUnsupportedPlatform for errors.Is.
func (e *UnsupportedPlatformError) Unwrap() error { return ErrUnsupportedPlatform }

// HostPlatform maps the running OS/architecture to a taplo release platform.
func HostPlatform() (config.ToolPlatform, error) {
	return detectPlatform(runtime.GOOS, runtime.GOARCH)
}

// detectPlatform is HostPlatform with explicit inputs, for tests.
func detectPlatform(goos, goarch string) (config.ToolPlatform, error) {
	switch {
	case goos == "darwin" && goarch == "arm64":
		return config.PlatformDarwinARM64, nil
	case goos == "darwin" && goarch == "amd64":
		return config.PlatformDarwinX86, nil
	case goos == "linux" && goarch == "arm64":
		return config.PlatformLinuxARM64, nil
	case goos == "linux" && goarch == "amd64":
		return config.PlatformLinuxX86, nil
	}
	return "", &UnsupportedPlatformError{OS: goos, Arch: goarch}
}

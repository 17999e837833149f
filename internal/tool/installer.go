// SPDX-License-Identifier: MPL-2.0

package tool

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/bryanwweber/tomltool/internal/config"
	"github.com/bryanwweber/tomltool/internal/issue"
)

// ErrDownloadFailed indicates the release asset could not be fetched.
var ErrDownloadFailed = errors.New("tool download failed")

const (
	// binaryName is the executable name inside the cache.
	binaryName = "taplo"

	// maxBinaryBytes is the upper bound on the decompressed binary size
	// (100 MB). Prevents decompression bombs when gunzipping release assets.
	maxBinaryBytes = 100 << 20

	// lockRetryDelay is how often a blocked Ensure re-attempts the download lock.
	lockRetryDelay = 100 * time.Millisecond
)

type (
	// Installer downloads and caches the taplo binary for one platform.
	Installer struct {
		cfg      *config.Config
		platform config.ToolPlatform
		cacheDir string
		client   *http.Client
	}

	// InstallerOption configures an Installer during construction.
	InstallerOption func(*Installer)

	// Info describes the pinned asset and its cache state.
	Info struct {
		Version  config.ToolVersion
		Platform config.ToolPlatform
		URL      string
		SHA256   string
		Size     int64
		Path     string
		Cached   bool
	}
)

// WithHTTPClient overrides the default HTTP client used for downloads.
func WithHTTPClient(c *http.Client) InstallerOption {
	return func(i *Installer) {
		i.client = c
	}
}

// WithCacheDir overrides the cache directory.
func WithCacheDir(dir string) InstallerOption {
	return func(i *Installer) {
		i.cacheDir = dir
	}
}

// WithPlatform overrides host platform detection.
func WithPlatform(p config.ToolPlatform) InstallerOption {
	return func(i *Installer) {
		i.platform = p
	}
}

// NewInstaller creates an Installer for the configured taplo version. Without
// options it detects the host platform and uses the user cache directory.
func NewInstaller(cfg *config.Config, opts ...InstallerOption) (*Installer, error) {
	i := &Installer{cfg: cfg}
	for _, opt := range opts {
		opt(i)
	}

	if i.platform == "" {
		p, err := HostPlatform()
		if err != nil {
			return nil, err
		}
		i.platform = p
	}
	if i.cacheDir == "" {
		dir, err := config.CacheDir()
		if err != nil {
			return nil, fmt.Errorf("resolving cache directory: %w", err)
		}
		i.cacheDir = dir
	}
	if i.client == nil {
		i.client = &http.Client{Timeout: 2 * time.Minute}
	}

	return i, nil
}

// BinaryPath returns the cache location of the executable, whether or not it
// exists yet.
func (i *Installer) BinaryPath() string {
	return filepath.Join(i.versionDir(), binaryName)
}

// AssetURL expands the configured URL template for this version and platform.
func (i *Installer) AssetURL() string {
	url := strings.ReplaceAll(i.cfg.Taplo.URLTemplate, "{version}", string(i.cfg.Taplo.Version))
	return strings.ReplaceAll(url, "{platform}", string(i.platform))
}

// Pinned returns the checksum row for the configured version and platform.
func (i *Installer) Pinned() (config.KnownVersion, error) {
	kv, ok := i.cfg.Taplo.KnownVersionFor(i.cfg.Taplo.Version, i.platform)
	if !ok {
		return config.KnownVersion{}, issue.NewErrorContext().
			WithOperation("resolve tool download").
			WithResource(fmt.Sprintf("taplo %s (%s)", i.cfg.Taplo.Version, i.platform)).
			WithSuggestion("Add a [[taplo.known_versions]] row with the sha256 and size of the release asset").
			Wrap(fmt.Errorf("no known_versions entry pins taplo %s for %s", i.cfg.Taplo.Version, i.platform)).
			BuildError()
	}
	return kv, nil
}

// Ensure returns the path of a verified taplo binary, downloading it on a
// cache miss. Concurrent calls (across processes too) are serialized with a
// file lock so only one download runs per cache directory.
func (i *Installer) Ensure(ctx context.Context) (string, error) {
	kv, err := i.Pinned()
	if err != nil {
		return "", err
	}

	binPath := i.BinaryPath()
	if i.cachedMatches(kv) {
		return binPath, nil
	}

	if err := os.MkdirAll(i.versionDir(), 0o755); err != nil {
		return "", fmt.Errorf("creating tool cache directory: %w", err)
	}

	lock := flock.New(filepath.Join(i.versionDir(), ".download.lock"))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return "", fmt.Errorf("acquiring download lock: %w", err)
	}
	if !locked {
		return "", fmt.Errorf("download lock unavailable for %s", i.versionDir())
	}
	defer func() { _ = lock.Unlock() }()

	// Another process may have finished the download while we waited.
	if i.cachedMatches(kv) {
		return binPath, nil
	}

	if err := i.download(ctx, kv); err != nil {
		return "", err
	}
	return binPath, nil
}

// Describe reports the pinned asset and whether a verified binary is cached.
func (i *Installer) Describe() (Info, error) {
	kv, err := i.Pinned()
	if err != nil {
		return Info{}, err
	}
	return Info{
		Version:  kv.Version,
		Platform: kv.Platform,
		URL:      i.AssetURL(),
		SHA256:   kv.SHA256,
		Size:     kv.Size,
		Path:     i.BinaryPath(),
		Cached:   i.cachedMatches(kv),
	}, nil
}

func (i *Installer) versionDir() string {
	return filepath.Join(i.cacheDir, "tools", binaryName, string(i.cfg.Taplo.Version), string(i.platform))
}

// digestPath is a sidecar recording the verified asset digest of the cached
// binary. The pinned hash covers the compressed asset, not the unpacked
// binary, so the sidecar is what ties a cache entry back to its pin.
func (i *Installer) digestPath() string {
	return i.BinaryPath() + ".sha256"
}

// cachedMatches reports whether the cached binary exists and was unpacked
// from an asset with the pinned digest.
func (i *Installer) cachedMatches(kv config.KnownVersion) bool {
	if _, err := os.Stat(i.BinaryPath()); err != nil {
		return false
	}
	recorded, err := os.ReadFile(i.digestPath())
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(string(recorded)), kv.SHA256)
}

// download fetches the gzipped asset, verifies it against the pin, unpacks
// it, and atomically installs the executable into the cache.
func (i *Installer) download(ctx context.Context, kv config.KnownVersion) (err error) {
	url := i.AssetURL()

	assetPath, err := i.fetchToTempFile(ctx, url)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("download tool").
			WithResource(url).
			WithSuggestion("Check network connectivity and the taplo.url_template setting").
			Wrap(fmt.Errorf("%w: %w", ErrDownloadFailed, err)).
			BuildError()
	}
	defer func() { _ = os.Remove(assetPath) }()

	// The pin covers the compressed asset as published upstream.
	if err := VerifyFile(assetPath, kv.SHA256, kv.Size); err != nil {
		return issue.NewErrorContext().
			WithOperation("verify tool download").
			WithResource(url).
			WithSuggestion("Re-run to retry the download; a persistent mismatch means the pinned checksum is stale or the asset was tampered with").
			Wrap(err).
			BuildError()
	}

	tmpBin, err := i.gunzipToTempFile(assetPath)
	if err != nil {
		return fmt.Errorf("unpacking %s: %w", url, err)
	}
	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmpBin)
		}
	}()

	if err := os.Chmod(tmpBin, 0o755); err != nil {
		return fmt.Errorf("marking binary executable: %w", err)
	}

	// Same-directory rename keeps the install atomic.
	if err := os.Rename(tmpBin, i.BinaryPath()); err != nil {
		return fmt.Errorf("installing binary: %w", err)
	}
	renamed = true

	if err := os.WriteFile(i.digestPath(), []byte(kv.SHA256+"\n"), 0o644); err != nil {
		return fmt.Errorf("recording asset digest: %w", err)
	}
	return nil
}

// fetchToTempFile downloads url into a temp file in the version directory
// and returns its path. The caller removes the file when done.
func (i *Installer) fetchToTempFile(ctx context.Context, url string) (_ string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching asset: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only HTTP response body

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching asset: unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp(i.versionDir(), binaryName+"-asset-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if closeErr := tmp.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("writing to temp file: %w", err)
	}
	return tmp.Name(), nil
}

// gunzipToTempFile decompresses the asset into a temp file in the version
// directory, bounded by maxBinaryBytes.
func (i *Installer) gunzipToTempFile(assetPath string) (_ string, err error) {
	f, err := os.Open(assetPath)
	if err != nil {
		return "", fmt.Errorf("opening asset: %w", err)
	}
	defer func() { _ = f.Close() }()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("creating gzip reader: %w", err)
	}
	defer func() { _ = gz.Close() }()

	tmp, err := os.CreateTemp(i.versionDir(), binaryName+"-unpack-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if closeErr := tmp.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err := io.Copy(tmp, io.LimitReader(gz, maxBinaryBytes)); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("decompressing binary: %w", err)
	}
	return tmp.Name(), nil
}

// SPDX-License-Identifier: MPL-2.0

// Package execute runs taplo over a batch of TOML files. Inputs are staged
// into a sandbox directory, taplo rewrites them in place, and per-file
// change detection is done by digest comparison. In write mode changed
// files are copied back into the workspace.
package execute

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"mvdan.cc/sh/v3/shell"

	"github.com/bryanwweber/tomltool/internal/config"
	"github.com/bryanwweber/tomltool/internal/tool"
)

// ErrTaploFailed is the sentinel error wrapped by ExitError.
var ErrTaploFailed = errors.New("taplo exited with an error")

type (
	// Mode selects what happens with formatting results.
	Mode int

	// BinaryProvider resolves the taplo executable. Satisfied by
	// *tool.Installer; tests substitute a stub.
	BinaryProvider interface {
		Ensure(ctx context.Context) (string, error)
	}

	// Request is one formatting batch: workspace-relative file paths under a
	// common root.
	Request struct {
		// Root is the absolute workspace root.
		Root string
		// Files are workspace-relative, slash-separated paths to format.
		Files []string
	}

	// FileResult reports the outcome for one input file.
	FileResult struct {
		// Path is the workspace-relative input path.
		Path string
		// Changed reports whether taplo rewrote the file.
		Changed bool
	}

	// Result is the outcome of one batch.
	Result struct {
		// Files holds per-file outcomes, ordered like the request.
		Files []FileResult
		// Stdout is taplo's standard output, verbatim.
		Stdout string
	}

	// ExitError is returned when taplo exits non-zero. The whole batch fails;
	// nothing is written back. It wraps ErrTaploFailed.
	ExitError struct {
		ExitCode int
		Stderr   string
	}

	// Runner executes taplo batches with a fixed configuration.
	Runner struct {
		cfg      *config.Config
		provider BinaryProvider
	}
)

const (
	// ModeCheck reports changes without touching the workspace.
	ModeCheck Mode = iota
	// ModeWrite copies changed files back into the workspace.
	ModeWrite
)

// Error reports the exit code and taplo's stderr.
func (e *ExitError) Error() string {
	msg := fmt.Sprintf("taplo exited with code %d", e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ":\n" + s
	}
	return msg
}

// Unwrap returns ErrTaploFailed for errors.Is.
func (e *ExitError) Unwrap() error { return ErrTaploFailed }

// NewRunner creates a Runner using the given binary provider.
func NewRunner(cfg *config.Config, provider BinaryProvider) *Runner {
	return &Runner{cfg: cfg, provider: provider}
}

// Run formats one batch. An empty request (or taplo.skip = true) succeeds
// immediately without resolving the binary.
func (r *Runner) Run(ctx context.Context, req Request, mode Mode) (*Result, error) {
	if r.cfg.Taplo.Skip || len(req.Files) == 0 {
		return &Result{}, nil
	}

	var (
		binPath string
		configs []string
	)

	// Resolving the binary may hit the network; overlap it with config
	// discovery, which only touches the local tree.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := r.provider.Ensure(gctx)
		if err != nil {
			return err
		}
		binPath = p
		return nil
	})
	g.Go(func() error {
		if !r.cfg.Taplo.ConfigDiscovery {
			return nil
		}
		found, err := DiscoverConfigs(req.Root, req.Files)
		if err != nil {
			return err
		}
		configs = found
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sandbox, err := os.MkdirTemp("", "tomltool-fmt-*")
	if err != nil {
		return nil, fmt.Errorf("creating sandbox: %w", err)
	}
	defer func() { _ = os.RemoveAll(sandbox) }()

	staged := append(append([]string{}, req.Files...), configs...)
	if err := stage(req.Root, sandbox, staged); err != nil {
		return nil, err
	}

	before, err := digestAll(sandbox, req.Files)
	if err != nil {
		return nil, err
	}

	args, err := r.argv(req.Files)
	if err != nil {
		return nil, err
	}

	slog.Debug("running taplo", "binary", binPath, "args", args, "sandbox", sandbox)
	stdout, stderr, exitCode, err := runTaplo(ctx, binPath, sandbox, args)
	if err != nil {
		return nil, fmt.Errorf("running taplo: %w", err)
	}
	if exitCode != 0 {
		return nil, &ExitError{ExitCode: exitCode, Stderr: stderr}
	}

	after, err := digestAll(sandbox, req.Files)
	if err != nil {
		return nil, err
	}

	result := &Result{Stdout: stdout}
	for _, file := range req.Files {
		changed := before[file] != after[file]
		result.Files = append(result.Files, FileResult{Path: file, Changed: changed})

		if changed && mode == ModeWrite {
			src := filepath.Join(sandbox, filepath.FromSlash(file))
			dst := filepath.Join(req.Root, filepath.FromSlash(file))
			if err := copyFile(src, dst); err != nil {
				return nil, fmt.Errorf("writing %s back: %w", file, err)
			}
		}
	}
	return result, nil
}

// argv builds the taplo command line: fmt, the configured extra arguments
// (shell-split), then the files.
func (r *Runner) argv(files []string) ([]string, error) {
	args := []string{"fmt"}
	if extra := strings.TrimSpace(r.cfg.Taplo.Args); extra != "" {
		fields, err := shell.Fields(extra, nil)
		if err != nil {
			return nil, fmt.Errorf("splitting taplo.args %q: %w", extra, err)
		}
		args = append(args, fields...)
	}
	return append(args, files...), nil
}

// stage copies the given workspace-relative files into the sandbox,
// preserving their relative layout.
func stage(root, sandbox string, files []string) error {
	for _, file := range files {
		src := filepath.Join(root, filepath.FromSlash(file))
		dst := filepath.Join(sandbox, filepath.FromSlash(file))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("staging %s: %w", file, err)
		}
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("staging %s: %w", file, err)
		}
	}
	return nil
}

// digestAll hashes the given files under dir, keyed by relative path.
func digestAll(dir string, files []string) (map[string]string, error) {
	digests := make(map[string]string, len(files))
	for _, file := range files {
		h, err := tool.ComputeFileHash(filepath.Join(dir, filepath.FromSlash(file)))
		if err != nil {
			return nil, fmt.Errorf("hashing %s: %w", file, err)
		}
		digests[file] = h
	}
	return digests, nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

// SortedUnique sorts and deduplicates a path slice in place, returning it.
func SortedUnique(paths []string) []string {
	sort.Strings(paths)
	out := paths[:0]
	var prev string
	for i, p := range paths {
		if i > 0 && p == prev {
			continue
		}
		out = append(out, p)
		prev = p
	}
	return out
}

// SPDX-License-Identifier: MPL-2.0

package tool

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	// ErrChecksumMismatch indicates the computed SHA256 hash does not match the pinned hash.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrSizeMismatch indicates the downloaded asset size does not match the pinned size.
	ErrSizeMismatch = errors.New("size mismatch")
)

type (
	// ChecksumError provides details about a checksum verification failure.
	// It wraps ErrChecksumMismatch so callers can use errors.Is for classification.
	ChecksumError struct {
		Filename string
		Expected string
		Got      string
	}

	// SizeError provides details about a size verification failure.
	// It wraps ErrSizeMismatch.
	SizeError struct {
		Filename string
		Expected int64
		Got      int64
	}
)

// Error returns a human-readable description of the checksum mismatch,
// showing both expected and actual hash values for debugging.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum verification failed for %s\nExpected: %s\nGot:      %s", e.Filename, e.Expected, e.Got)
}

// Unwrap returns ErrChecksumMismatch so callers can use errors.Is.
func (e *ChecksumError) Unwrap() error { return ErrChecksumMismatch }

// Error returns a human-readable description of the size mismatch.
func (e *SizeError) Error() string {
	return fmt.Sprintf("size verification failed for %s: expected %d bytes, got %d", e.Filename, e.Expected, e.Got)
}

// Unwrap returns ErrSizeMismatch so callers can use errors.Is.
func (e *SizeError) Unwrap() error { return ErrSizeMismatch }

// VerifyFile checks the file at path against the pinned SHA256 hash and byte
// size. Size is checked first since it is cheap; either failure wraps its
// sentinel error.
func VerifyFile(path, expectedHash string, expectedSize int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if expectedSize > 0 && info.Size() != expectedSize {
		return &SizeError{Filename: path, Expected: expectedSize, Got: info.Size()}
	}

	got, err := ComputeFileHash(path)
	if err != nil {
		return err
	}
	if !strings.EqualFold(got, expectedHash) {
		return &ChecksumError{
			Filename: path,
			Expected: strings.ToLower(expectedHash),
			Got:      got,
		}
	}
	return nil
}

// ComputeFileHash computes and returns the lowercase hex-encoded SHA256 digest
// of the file at path. It streams the file through the hash function to avoid
// loading the entire file into memory.
func ComputeFileHash(path string) (_ string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		// Read-only file handle; close errors are exotic.
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing file %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

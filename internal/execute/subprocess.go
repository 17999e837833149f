// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// runTaplo is a package-level var so tests can substitute a fake subprocess.
var runTaplo = runSubprocess

// runSubprocess executes the binary in dir and returns stdout, stderr and
// the exit code. A non-zero exit is not an error here; the caller decides
// what to do with the code.
func runSubprocess(ctx context.Context, binary, dir string, args []string) (stdout, stderr string, exitCode int, err error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = dir

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()
	stdout = outBuf.String()
	stderr = errBuf.String()

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return stdout, stderr, exitErr.ExitCode(), nil
		}
		// Startup failure (binary missing, context canceled before exec).
		return stdout, stderr, -1, runErr
	}
	return stdout, stderr, 0, nil
}

package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Runner runs a command to completion and returns its stdout
type Runner func(ctx context.Context, executable string, args ...string) (string, error)

// Run executes the command and captures stdout. A non-zero exit yields
// *ExecutionFailedError carrying the exit code and stderr.
func Run(ctx context.Context, executable string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, executable, args...)
	cmd.WaitDelay = waitDelay

	var stdout bytes.Buffer
	stderr := &limitedBuffer{max: maxStderr}
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &ExecutionFailedError{ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return "", fmt.Errorf("failed to run %s: %w", executable, err)
	}
	return stdout.String(), nil
}

// FindExecutable returns the first candidate that exists and is executable
func FindExecutable(paths []string) (string, bool) {
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Mode().Perm()&0o111 != 0 {
			return path, true
		}
	}
	return "", false
}

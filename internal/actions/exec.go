package actions

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"
)

// commandTimeout bounds every external command.
const commandTimeout = 60 * time.Second

// maxOutput caps the command output quoted in errors.
const maxOutput = 200

// runner executes a command and returns its combined output. Tests swap it.
var runner = func(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// ExitError is a command that ran and exited non-zero.
type ExitError struct {
	Command string
	Code    int
	Output  string
}

func (e *ExitError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s failed (exit code %d): %s", e.Command, e.Code, e.Output)
	}
	return fmt.Sprintf("%s failed (exit code %d)", e.Command, e.Code)
}

// runCommand runs name with args under commandTimeout.
func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	output, err := runner(ctx, name, args...)
	if err != nil {
		return string(output), commandError(ctx, name, err, output)
	}
	return string(output), nil
}

// commandError wraps an exec error with the command's context.
func commandError(ctx context.Context, name string, err error, output []byte) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s timed out after %s", name, commandTimeout)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", name, ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Command: name, Code: exitErr.ExitCode(), Output: clip(string(output))}
	}
	var ours *ExitError
	if errors.As(err, &ours) {
		return ours
	}
	return fmt.Errorf("%s: %w", name, err)
}

// clip trims s to maxOutput bytes on a UTF-8 boundary.
func clip(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxOutput {
		return s
	}
	s = s[:maxOutput]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s + "..."
}

// exitCode returns the exit code carried by err, or -1.
func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

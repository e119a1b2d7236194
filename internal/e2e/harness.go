// Package e2e provides testing infrastructure for end-to-end CLI tests.
// It includes a test harness for running CLI commands, fixture management,
// and utilities for setting up isolated test environments.
package e2e

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauern/goldenfile/internal/cli"
)

// Result contains the outcome of running a CLI command.
type Result struct {
	// Stdout contains the captured standard output.
	Stdout string
	// Err is the error returned by the CLI command, if any.
	Err error
	// ExitCode is the inferred exit code (0 for success, 1 for error).
	ExitCode int
}

// Success returns true if the command completed without error.
func (r *Result) Success() bool {
	return r.Err == nil
}

// Harness provides a test harness for running E2E CLI tests.
// It manages environment isolation, temp directories, and output capture.
type Harness struct {
	t       *testing.T
	homeDir string
	workDir string
}

// NewHarness creates a new E2E test harness.
// It points GOLDENFILE_HOME and the snapshot location at an isolated
// directory and creates a work directory for golden and staged trees.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	h := &Harness{
		t:       t,
		homeDir: t.TempDir(),
		workDir: t.TempDir(),
	}

	h.SetEnv("GOLDENFILE_HOME", h.homeDir)
	h.SetEnv("GOLDENFILE_SNAPSHOT_LOCATION", filepath.Join(h.homeDir, "snapshots"))
	h.SetEnv("NO_COLOR", "1")

	return h
}

// SetEnv sets an environment variable for CLI commands run through this harness.
// The environment will be restored after the test completes.
func (h *Harness) SetEnv(key, value string) {
	h.t.Helper()
	h.t.Setenv(key, value)
}

// HomeDir returns the isolated GOLDENFILE_HOME directory.
func (h *Harness) HomeDir() string {
	return h.homeDir
}

// SnapshotDir returns the snapshot location used by the CLI.
func (h *Harness) SnapshotDir() string {
	return filepath.Join(h.homeDir, "snapshots")
}

// WorkDir returns the directory fixtures are created in.
func (h *Harness) WorkDir() string {
	return h.workDir
}

// Golden returns a fixture for the "golden" tree in the work directory.
func (h *Harness) Golden() *Fixture {
	return NewFixture(h.t, filepath.Join(h.workDir, "golden"))
}

// Staged returns a fixture for the "staged" tree in the work directory.
func (h *Harness) Staged() *Fixture {
	return NewFixture(h.t, filepath.Join(h.workDir, "staged"))
}

// Normalize replaces the harness directories in s with stable placeholders
// so output can be compared against golden files.
func (h *Harness) Normalize(s string) string {
	s = strings.ReplaceAll(s, h.workDir, "$WORK")
	return strings.ReplaceAll(s, h.homeDir, "$HOME")
}

// Run executes a CLI command with the given arguments and captures the output.
func (h *Harness) Run(args ...string) *Result {
	h.t.Helper()

	// Prepend "goldenfile" as the program name if not provided
	if len(args) == 0 || args[0] != "goldenfile" {
		args = append([]string{"goldenfile"}, args...)
	}

	oldStdout := os.Stdout
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		h.t.Fatalf("failed to create stdout pipe: %v", err)
	}
	os.Stdout = stdoutW

	// Read stdout concurrently so large outputs cannot fill the pipe buffer
	// and block the command.
	var stdoutBuf bytes.Buffer
	var copyErr error
	copyDone := make(chan struct{})
	go func() {
		defer close(copyDone)
		_, copyErr = io.Copy(&stdoutBuf, stdoutR)
	}()

	cmdErr := cli.Run(context.Background(), args)

	if err := stdoutW.Close(); err != nil {
		h.t.Fatalf("failed to close stdout pipe writer: %v", err)
	}
	os.Stdout = oldStdout

	<-copyDone
	if copyErr != nil {
		h.t.Fatalf("failed to read captured stdout: %v", copyErr)
	}

	exitCode := 0
	if cmdErr != nil {
		exitCode = 1
	}

	return &Result{
		Stdout:   stdoutBuf.String(),
		Err:      cmdErr,
		ExitCode: exitCode,
	}
}

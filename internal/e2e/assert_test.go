package e2e

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAssertHelpers(t *testing.T) {
	r := &Result{Stdout: "ok", Err: nil, ExitCode: 0}

	AssertSuccess(t, r)
	AssertExitCode(t, r, 0)
	AssertOutputContains(t, r, "ok")
	AssertOutputNotContains(t, r, "fail")

	failed := &Result{Err: errors.New("boom"), ExitCode: 1}
	AssertError(t, failed)
	AssertErrorContains(t, failed, "boom")
}

func TestAssertFileEquals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(path, []byte("content"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	AssertFileExists(t, path)
	AssertFileEquals(t, path, "content")
	AssertFileNotExists(t, path+".missing")
}

func TestNormalize(t *testing.T) {
	h := NewHarness(t)
	got := h.Normalize(filepath.Join(h.WorkDir(), "golden") + " " + h.SnapshotDir())
	want := filepath.Join("$WORK", "golden") + " " + filepath.Join("$HOME", "snapshots")
	if got != want {
		t.Errorf("Normalize = %q, want %q", got, want)
	}
}

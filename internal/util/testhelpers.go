//nolint:revive // var-naming - package name is meaningful
package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauern/goldenfile/differ"
	"github.com/klauern/goldenfile/mint"
)

// CreateTempDir creates a temporary directory for testing
func CreateTempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "goldenfile-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		_ = os.RemoveAll(dir)
	})
	return dir
}

// WriteFile writes content to a file in the test directory
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
}

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertEqual fails if got != want
func AssertEqual[T comparable](t *testing.T, got, want T) {
	t.Helper()
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

// GoldenFile registers got as the new content of testdataDir/name.golden.
// The comparison (or the update, see SetUpdateGolden) runs when t finishes.
func GoldenFile(t *testing.T, testdataDir, name, got string) {
	t.Helper()
	m := mint.NewT(t, testdataDir)

	f, err := m.NewGoldenFileWithDiffer(name+".golden", differ.Text)
	if err != nil {
		t.Fatalf("failed to register golden file %s: %v", name, err)
	}
	if _, err := f.WriteString(got); err != nil {
		t.Fatalf("failed to write golden file %s: %v", name, err)
	}
}

// SetUpdateGolden switches golden files between update and check mode
// (call from TestMain, typically after parsing an -update flag).
func SetUpdateGolden(update bool) {
	if update {
		mint.SetDefaultMode(mint.ModeUpdate)
		return
	}
	mint.SetDefaultMode(mint.ModeCheck)
}

// UpdateGolden returns whether golden files should be updated
func UpdateGolden() bool {
	return mint.DefaultMode() == mint.ModeUpdate
}

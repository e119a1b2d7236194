package mint

import (
	"errors"
	"strings"
	"testing"
)

// NewT creates a Mint for the test t and finalizes it when the test ends.
//
// The mode comes from DefaultMode. Setup failures stop the test with
// t.Fatalf. At cleanup, mismatches are reported with t.Error and other
// finalization failures with t.Fatalf. A test that has already failed skips
// the check so the original failure is not buried.
//
// Cleanup functions cannot tell that the test is panicking: t.Failed is still
// false while they run. Tests that may panic should also defer FinalizeT:
//
//	m := mint.NewT(t, "testdata")
//	defer m.FinalizeT(t)
func NewT(t testing.TB, goldenDir string, opts ...Option) *Mint {
	t.Helper()

	opts = append([]Option{WithMode(DefaultMode()), WithOutput(tbWriter{t})}, opts...)
	m, err := New(goldenDir, opts...)
	if err != nil {
		t.Fatalf("goldenfile: %v", err)
		return nil
	}

	t.Cleanup(func() {
		finalizeT(t, m)
	})
	return m
}

// NewNonEmptyT is NewT for a Mint built with WithCreateEmpty(false).
func NewNonEmptyT(t testing.TB, goldenDir string, opts ...Option) *Mint {
	t.Helper()
	return NewT(t, goldenDir, append(opts, WithCreateEmpty(false))...)
}

// FinalizeT finalizes m at the end of a test function and must be called
// with defer. If the test is panicking, the check is skipped, the Staging
// Area is removed and the panic continues. The cleanup registered by NewT
// does nothing once FinalizeT has run.
func (m *Mint) FinalizeT(t testing.TB) {
	t.Helper()
	if r := recover(); r != nil {
		_ = m.Finalize(true)
		panic(r)
	}
	finalizeT(t, m)
}

func finalizeT(t testing.TB, m *Mint) {
	t.Helper()

	err := m.Finalize(t.Failed())
	if err == nil || errors.Is(err, ErrFinalized) {
		return
	}

	var checkErr *CheckError
	if errors.As(err, &checkErr) {
		t.Error(checkErr.Error())
		return
	}
	t.Fatalf("goldenfile: %v", err)
}

// tbWriter sends guidance text to the test log.
type tbWriter struct {
	t testing.TB
}

func (w tbWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

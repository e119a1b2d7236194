package mint

import (
	"errors"
	"fmt"
	"strings"

	"github.com/klauern/goldenfile/differ"
)

var (
	// ErrSetup wraps failures to create the golden directory or the staging
	// area. These indicate a broken environment rather than a failing test.
	ErrSetup = errors.New("goldenfile setup failed")

	// ErrInvalidPath is returned when a golden file path is not a local
	// relative path.
	ErrInvalidPath = errors.New("invalid golden file path")

	// ErrPathNotRelative is returned when an absolute path is registered.
	ErrPathNotRelative = fmt.Errorf("%w: path must be relative", ErrInvalidPath)

	// ErrPathEscapes is returned when a relative path leaves the golden
	// directory, for example through "..".
	ErrPathEscapes = fmt.Errorf("%w: path must not escape the golden directory", ErrInvalidPath)

	// ErrFinalized is returned when a Mint is used after Finalize.
	ErrFinalized = errors.New("mint already finalized")
)

// Mismatch pairs a registered path with the differ's mismatch report.
type Mismatch struct {
	Path string
	Err  *differ.MismatchError
}

// CheckError is returned by Check when one or more golden files differ.
// The first mismatch is listed first, in registration order.
type CheckError struct {
	Mismatches []Mismatch
	// Checked is the number of registry entries compared.
	Checked int
}

func (e *CheckError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "golden file mismatch: %d of %d files differ", len(e.Mismatches), e.Checked)
	for _, m := range e.Mismatches {
		fmt.Fprintf(&b, "\n\n%s: %v", m.Path, m.Err)
	}
	return b.String()
}

// Unwrap exposes each mismatch to errors.As.
func (e *CheckError) Unwrap() []error {
	errs := make([]error, len(e.Mismatches))
	for i, m := range e.Mismatches {
		errs[i] = m.Err
	}
	return errs
}

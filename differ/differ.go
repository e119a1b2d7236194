// Package differ provides the comparison strategies used to check freshly
// produced files against their golden copies.
//
// A Differ receives two paths, the golden ("old") file and the candidate
// ("new") file. It returns nil when the contents are equivalent under its
// rule and a *MismatchError when they are not. Any other error means the
// comparison could not run at all.
package differ

import (
	"errors"
	"fmt"
	"os"
)

// Differ compares a golden file against a candidate file.
// Implementations must not modify either file.
type Differ interface {
	Diff(old, new string) error
}

// Func adapts an ordinary function to the Differ interface.
type Func func(old, new string) error

// Diff calls f(old, new).
func (f Func) Diff(old, new string) error {
	return f(old, new)
}

// Kind classifies a mismatch.
type Kind int

const (
	// KindSize means the files have different byte lengths.
	KindSize Kind = iota
	// KindContent means equal-length files differ at some byte offset.
	KindContent
	// KindText means the files differ as text; Diff holds a unified diff.
	KindText
)

// String returns a human-readable string for Kind.
func (k Kind) String() string {
	switch k {
	case KindSize:
		return "size"
	case KindContent:
		return "content"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// MismatchError reports that a candidate file does not match its golden copy.
// The message is meant for direct display to a human.
type MismatchError struct {
	Kind Kind
	// Old and New are the compared paths.
	Old string
	New string
	// OldSize and NewSize are byte lengths, set for binary comparisons.
	OldSize int64
	NewSize int64
	// Offset is the 1-based offset of the first differing byte (KindContent).
	Offset int64
	// Missing is set when the golden file does not exist.
	Missing bool
	// Diff is the unified diff of old against new (KindText).
	Diff string
}

func (e *MismatchError) Error() string {
	switch e.Kind {
	case KindSize:
		if e.Missing {
			return fmt.Sprintf("file sizes differ: old file does not exist, new file is %d bytes", e.NewSize)
		}
		return fmt.Sprintf("file sizes differ: old file is %d bytes, new file is %d bytes", e.OldSize, e.NewSize)
	case KindContent:
		return fmt.Sprintf("files differ at byte %d", e.Offset)
	case KindText:
		if e.Missing {
			return fmt.Sprintf("golden file %s does not exist:\n%s", e.Old, e.Diff)
		}
		return fmt.Sprintf("text differs from golden file %s:\n%s", e.Old, e.Diff)
	default:
		return "files differ"
	}
}

// IsMismatch reports whether err (or any error it wraps) is a *MismatchError.
func IsMismatch(err error) bool {
	var m *MismatchError
	return errors.As(err, &m)
}

// Name returns a short name for d, suitable for logs and configuration.
func Name(d Differ) string {
	if s, ok := d.(fmt.Stringer); ok {
		return s.String()
	}
	return "custom"
}

// Parse maps a configuration name to a built-in Differ.
func Parse(name string) (Differ, error) {
	switch name {
	case "text":
		return Text, nil
	case "binary":
		return Binary, nil
	default:
		return nil, fmt.Errorf("unknown differ %q (valid: text, binary)", name)
	}
}

// statOptional stats path, reporting a missing file as exists=false rather
// than as an error.
func statOptional(path string) (info os.FileInfo, exists bool, err error) {
	info, err = os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return info, true, nil
}

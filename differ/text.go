package differ

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
)

// Text compares files as text and reports a unified diff on mismatch.
//
// Content that is not valid UTF-8 is read as empty text instead of failing
// the comparison. Two binary files therefore compare equal under Text, and a
// binary candidate against a text golden file shows up as "everything was
// removed". Use Binary for such files.
var Text Differ = textDiffer{}

// textContextLines is the number of unchanged lines shown around each hunk.
const textContextLines = 3

type textDiffer struct{}

func (textDiffer) String() string { return "text" }

func (textDiffer) Diff(old, new string) error {
	newText, newExists, err := readText(new)
	if err != nil {
		return err
	}
	if !newExists {
		return fmt.Errorf("failed to read new file %q: %w", new, os.ErrNotExist)
	}
	oldText, exists, err := readText(old)
	if err != nil {
		return err
	}

	if exists && oldText == newText {
		return nil
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldText),
		B:        difflib.SplitLines(newText),
		FromFile: "old",
		ToFile:   "new",
		Context:  textContextLines,
	})
	if err != nil {
		return fmt.Errorf("failed to diff %q against %q: %w", new, old, err)
	}

	return &MismatchError{
		Kind:    KindText,
		Old:     old,
		New:     new,
		Missing: !exists,
		Diff:    diff,
	}
}

// readText reads path as UTF-8 text. A missing file yields exists=false.
func readText(path string) (text string, exists bool, err error) {
	_, exists, err = statOptional(path)
	if err != nil {
		return "", false, fmt.Errorf("failed to stat %q: %w", path, err)
	}
	if !exists {
		return "", false, nil
	}

	// #nosec G304 - paths come from the Mint's golden and staging directories
	data, err := os.ReadFile(path)
	if err != nil {
		return "", true, fmt.Errorf("failed to read %q: %w", path, err)
	}
	if !utf8.Valid(data) {
		return "", true, nil
	}
	return string(data), true, nil
}

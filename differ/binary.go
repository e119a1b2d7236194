package differ

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Binary compares files byte for byte. Lengths are compared first; files of
// equal length are streamed and the first differing byte is reported.
var Binary Differ = binaryDiffer{}

const binaryChunkSize = 32 * 1024

type binaryDiffer struct{}

func (binaryDiffer) String() string { return "binary" }

func (binaryDiffer) Diff(old, new string) error {
	newInfo, err := os.Stat(new)
	if err != nil {
		return fmt.Errorf("failed to stat new file %q: %w", new, err)
	}

	oldInfo, exists, err := statOptional(old)
	if err != nil {
		return fmt.Errorf("failed to stat old file %q: %w", old, err)
	}
	if !exists {
		return &MismatchError{Kind: KindSize, Old: old, New: new, NewSize: newInfo.Size(), Missing: true}
	}

	if oldInfo.Size() != newInfo.Size() {
		return &MismatchError{
			Kind:    KindSize,
			Old:     old,
			New:     new,
			OldSize: oldInfo.Size(),
			NewSize: newInfo.Size(),
		}
	}

	offset, err := firstDifference(old, new)
	if err != nil {
		return err
	}
	if offset > 0 {
		return &MismatchError{
			Kind:    KindContent,
			Old:     old,
			New:     new,
			OldSize: oldInfo.Size(),
			NewSize: newInfo.Size(),
			Offset:  offset,
		}
	}
	return nil
}

// firstDifference streams both files and returns the 1-based offset of the
// first differing byte, or 0 when the files are identical.
func firstDifference(old, new string) (int64, error) {
	// #nosec G304 - paths come from the Mint's golden and staging directories
	oldFile, err := os.Open(old)
	if err != nil {
		return 0, fmt.Errorf("failed to open old file %q: %w", old, err)
	}
	defer func() { _ = oldFile.Close() }()

	// #nosec G304 - paths come from the Mint's golden and staging directories
	newFile, err := os.Open(new)
	if err != nil {
		return 0, fmt.Errorf("failed to open new file %q: %w", new, err)
	}
	defer func() { _ = newFile.Close() }()

	oldReader := bufio.NewReaderSize(oldFile, binaryChunkSize)
	newReader := bufio.NewReaderSize(newFile, binaryChunkSize)
	oldBuf := make([]byte, binaryChunkSize)
	newBuf := make([]byte, binaryChunkSize)

	var pos int64
	for {
		n1, err1 := io.ReadFull(oldReader, oldBuf)
		n2, err2 := io.ReadFull(newReader, newBuf)
		if err1 != nil && err1 != io.EOF && err1 != io.ErrUnexpectedEOF {
			return 0, fmt.Errorf("failed to read old file %q: %w", old, err1)
		}
		if err2 != nil && err2 != io.EOF && err2 != io.ErrUnexpectedEOF {
			return 0, fmt.Errorf("failed to read new file %q: %w", new, err2)
		}

		n := min(n1, n2)
		for i := range n {
			if oldBuf[i] != newBuf[i] {
				return pos + int64(i) + 1, nil
			}
		}
		if n1 != n2 {
			// A file changed size while being read.
			return pos + int64(n) + 1, nil
		}
		pos += int64(n)

		if n1 < binaryChunkSize {
			return 0, nil
		}
	}
}

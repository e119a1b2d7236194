package mint

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// removeExisting removes the file at path. A missing file is not an error.
func removeExisting(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat %q: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("refusing to remove directory %q", path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove %q: %w", path, err)
	}
	return nil
}

// copyFile copies src over dst, creating or truncating dst.
func copyFile(src, dst string) error {
	// #nosec G304 - src is a staged file inside the Mint's staging directory
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open staged file %q: %w", src, err)
	}
	defer func() { _ = srcFile.Close() }()

	// #nosec G302 G304 - golden files are checked in and meant to be readable
	dstFile, err := os.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_TRUNC, FilePerm)
	if err != nil {
		return fmt.Errorf("failed to create golden file %q: %w", dst, err)
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return fmt.Errorf("failed to copy content to %q: %w", dst, err)
	}
	if err := dstFile.Close(); err != nil {
		return fmt.Errorf("failed to close golden file %q: %w", dst, err)
	}
	return nil
}

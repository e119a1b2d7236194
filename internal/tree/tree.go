// Package tree stages whole directories of candidate output into a Mint and
// compares directories without one.
package tree

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauern/goldenfile/differ"
	"github.com/klauern/goldenfile/internal/logging"
	"github.com/klauern/goldenfile/internal/progress"
	"github.com/klauern/goldenfile/mint"
)

// Status classifies a compared file.
type Status int

const (
	// StatusMatch means the golden file equals the candidate.
	StatusMatch Status = iota
	// StatusMismatch means the contents differ.
	StatusMismatch
	// StatusMissing means no golden file exists yet.
	StatusMissing
	// StatusError means the comparison itself failed.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusMatch:
		return "match"
	case StatusMismatch:
		return "mismatch"
	case StatusMissing:
		return "missing"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result is the outcome of comparing one candidate file.
type Result struct {
	// Path is slash-separated and relative to both directories.
	Path   string
	Differ string
	Status Status
	// Err is a *differ.MismatchError for mismatches or the I/O error.
	Err error
}

// Diff returns the human-readable difference, empty for matches.
func (r Result) Diff() string {
	var mm *differ.MismatchError
	if errors.As(r.Err, &mm) && mm.Diff != "" {
		return mm.Diff
	}
	if r.Err != nil {
		return r.Err.Error()
	}
	return ""
}

// Files returns the regular files under dir as slash-separated relative
// paths in lexical order.
func Files(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	return files, nil
}

// Stage registers every regular file under dir with m and copies its bytes
// into the staging area. bar may be nil. It returns the staged paths.
func Stage(m *mint.Mint, dir string, bar *progress.Bar) ([]string, error) {
	files, err := Files(dir)
	if err != nil {
		return nil, err
	}

	for _, name := range files {
		if err := stageOne(m, dir, name); err != nil {
			return nil, err
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	m.Logger().Debug("staged tree", logging.Path(dir), logging.Count(len(files)))
	return files, nil
}

func stageOne(m *mint.Mint, dir, name string) error {
	// #nosec G304 - name comes from walking dir
	src, err := os.Open(filepath.Join(dir, filepath.FromSlash(name)))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer func() { _ = src.Close() }()

	dst, err := m.NewGoldenFile(name)
	if err != nil {
		return fmt.Errorf("failed to register %s: %w", name, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("failed to stage %s: %w", name, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("failed to stage %s: %w", name, err)
	}
	return nil
}

// Compare runs the selected Differ for every regular file under stagedDir
// against its counterpart in goldenDir. A nil selector uses the default
// extension table. Per-file failures are reported in the results.
func Compare(sel *differ.Selector, goldenDir, stagedDir string) ([]Result, error) {
	if sel == nil {
		sel = differ.NewSelector()
	}
	files, err := Files(stagedDir)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(files))
	for _, name := range files {
		d := sel.For(name)
		r := Result{Path: name, Differ: differ.Name(d)}
		native := filepath.FromSlash(name)
		r.Err = d.Diff(filepath.Join(goldenDir, native), filepath.Join(stagedDir, native))

		var mm *differ.MismatchError
		switch {
		case r.Err == nil:
			r.Status = StatusMatch
		case errors.As(r.Err, &mm) && mm.Missing:
			r.Status = StatusMissing
		case errors.As(r.Err, &mm):
			r.Status = StatusMismatch
		default:
			r.Status = StatusError
		}
		results = append(results, r)
	}
	return results, nil
}

// Accept copies one staged file over its golden counterpart. With
// createEmpty false an empty staged file removes the golden file instead.
func Accept(goldenDir, stagedDir, name string, createEmpty bool) error {
	native := filepath.FromSlash(name)
	if !filepath.IsLocal(native) {
		return fmt.Errorf("%w: %s", mint.ErrPathEscapes, name)
	}
	src := filepath.Join(stagedDir, native)
	dst := filepath.Join(goldenDir, native)

	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat staged file %s: %w", name, err)
	}
	if info.Size() == 0 && !createEmpty {
		if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove golden file %s: %w", name, err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), mint.DirPerm); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", name, err)
	}
	// #nosec G304 - src is validated as local to stagedDir
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open staged file %s: %w", name, err)
	}
	defer func() { _ = in.Close() }()

	// #nosec G302 G304 - golden files are checked in and meant to be readable
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mint.FilePerm)
	if err != nil {
		return fmt.Errorf("failed to create golden file %s: %w", name, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to write golden file %s: %w", name, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to write golden file %s: %w", name, err)
	}
	logging.Info("accepted golden file", logging.Path(dst))
	return nil
}

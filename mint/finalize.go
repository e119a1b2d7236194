package mint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/klauern/goldenfile/differ"
	"github.com/klauern/goldenfile/internal/logging"
)

// Guidance is written to the Mint's output before a CheckError is returned.
const Guidance = "To regenerate golden files, run:\n    " + EnvUpdate + "=1 go test ./...\n"

// Finalize ends the Mint's life. It must be called exactly once.
//
// When alreadyFailing is true the test has failed for another reason and
// nothing is checked or updated. Otherwise Finalize runs Update in ModeUpdate
// and Check in ModeCheck. In every case the staging area is removed before
// Finalize returns. A second call returns ErrFinalized.
func (m *Mint) Finalize(alreadyFailing bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != stateActive {
		return ErrFinalized
	}
	m.state = stateFinalizing
	defer m.release()

	if alreadyFailing {
		m.logger.Debug("test already failing, skipping golden files",
			logging.Count(len(m.entries)))
		return nil
	}

	m.closeFiles()

	if m.mode == ModeUpdate {
		return m.update()
	}
	return m.check()
}

// Check compares every staged file against its golden copy, in registration
// order. Mismatches are collected into a *CheckError; any other failure stops
// the pass and is returned as is.
func (m *Mint) Check() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == stateDone {
		return ErrFinalized
	}
	return m.check()
}

// Update copies every staged file over its golden copy, in registration
// order. Empty staged files delete their golden copy instead when the Mint
// was built with WithCreateEmpty(false).
func (m *Mint) Update() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == stateDone {
		return ErrFinalized
	}
	return m.update()
}

func (m *Mint) check() error {
	var mismatches []Mismatch

	for _, e := range m.entries {
		old := filepath.Join(m.goldenDir, e.path)
		new := filepath.Join(m.stagingDir, e.path)

		err := e.differ.Diff(old, new)
		if err == nil {
			m.logger.Debug("golden file matches", logging.Path(e.path))
			continue
		}

		var mismatch *differ.MismatchError
		if !errors.As(err, &mismatch) {
			return fmt.Errorf("failed to check golden file %q: %w", e.path, err)
		}
		mismatches = append(mismatches, Mismatch{Path: e.path, Err: mismatch})
	}

	if len(mismatches) == 0 {
		return nil
	}

	_, _ = fmt.Fprint(m.output, Guidance)
	return &CheckError{Mismatches: mismatches, Checked: len(m.entries)}
}

func (m *Mint) update() error {
	for _, e := range m.entries {
		old := filepath.Join(m.goldenDir, e.path)
		new := filepath.Join(m.stagingDir, e.path)

		info, err := os.Stat(new)
		if err != nil {
			return fmt.Errorf("failed to stat staged file %q: %w", e.path, err)
		}

		if info.Size() == 0 && !m.createEmpty {
			if err := removeExisting(old); err != nil {
				return err
			}
			m.logger.Info("removed golden file", logging.Path(e.path))
			continue
		}

		if err := os.MkdirAll(filepath.Dir(old), DirPerm); err != nil {
			return fmt.Errorf("failed to create golden directory for %q: %w", e.path, err)
		}
		if err := copyFile(new, old); err != nil {
			return err
		}
		m.logger.Info("updated golden file", logging.Path(e.path))
	}
	return nil
}

// release closes staged handles and removes the staging area. Callers hold mu.
func (m *Mint) release() {
	m.closeFiles()
	if err := os.RemoveAll(m.stagingDir); err != nil {
		m.logger.Warn("failed to remove staging area",
			logging.Path(m.stagingDir),
			logging.Err(err),
		)
	} else {
		m.logger.Debug("staging area removed", logging.Path(m.stagingDir))
	}
	m.state = stateDone
	runtime.SetFinalizer(m, nil)
}

func (m *Mint) closeFiles() {
	for _, f := range m.files {
		_ = f.Close()
	}
	m.files = nil
}

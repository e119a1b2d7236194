package mint

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/klauern/goldenfile/differ"
	"github.com/klauern/goldenfile/internal/logging"
)

const (
	// DirPerm is the permission for created golden and staging directories.
	DirPerm = 0o750
	// FilePerm is the permission for written golden files.
	FilePerm = 0o644

	stagingPattern = "goldenfile-"
)

type state int

const (
	stateActive state = iota
	stateFinalizing
	stateDone
)

type entry struct {
	path   string
	differ differ.Differ
}

// Mint stages golden files for one test and checks or updates them when the
// test ends. All methods are safe for concurrent use.
type Mint struct {
	mu sync.Mutex

	id          string
	goldenDir   string
	stagingDir  string
	createEmpty bool
	mode        Mode
	selector    *differ.Selector
	logger      *slog.Logger
	output      io.Writer

	entries []entry
	files   []*os.File
	state   state
}

// New creates a Mint rooted at goldenDir. The golden directory is created if
// needed and a fresh staging area is allocated. Errors wrap ErrSetup.
//
// The caller owns the Mint's lifetime and must call Finalize exactly once;
// NewT does this for tests.
func New(goldenDir string, opts ...Option) (*Mint, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.selector == nil {
		o.selector = differ.NewSelector()
	}
	if o.logger == nil {
		o.logger = logging.Default()
	}
	if o.output == nil {
		o.output = io.Discard
	}

	if err := os.MkdirAll(goldenDir, DirPerm); err != nil {
		return nil, fmt.Errorf("%w: failed to create golden directory %q: %v", ErrSetup, goldenDir, err)
	}

	stagingDir, err := os.MkdirTemp(o.tempDir, stagingPattern)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create staging directory: %v", ErrSetup, err)
	}

	m := &Mint{
		id:          uuid.NewString(),
		goldenDir:   goldenDir,
		stagingDir:  stagingDir,
		createEmpty: o.createEmpty,
		mode:        o.mode,
		selector:    o.selector,
		output:      o.output,
	}
	m.logger = o.logger.With(logging.Mint(m.id))

	if o.leakCheck {
		watchFinalization(m)
	}

	m.logger.Debug("staging area created",
		logging.Path(stagingDir),
		logging.Mode(m.mode.String()),
	)
	return m, nil
}

// NewNonEmpty creates a Mint whose Update removes golden files for empty
// staged files instead of writing empty golden files.
func NewNonEmpty(goldenDir string, opts ...Option) (*Mint, error) {
	return New(goldenDir, append(opts, WithCreateEmpty(false))...)
}

// GoldenDir returns the directory holding the golden files.
func (m *Mint) GoldenDir() string { return m.goldenDir }

// StagingDir returns the private directory holding staged files.
func (m *Mint) StagingDir() string { return m.stagingDir }

// Mode returns the mode Finalize will run in.
func (m *Mint) Mode() Mode { return m.mode }

// Logger returns the Mint's logger, tagged with its ID.
func (m *Mint) Logger() *slog.Logger { return m.logger }

// Len returns the number of registered golden files.
func (m *Mint) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// NewGoldenFile registers a golden file and returns the staged file to write
// its new contents to. The Differ is chosen from the file's extension.
//
// The returned file is not the golden file itself. It is closed by Finalize
// if the caller has not closed it.
func (m *Mint) NewGoldenFile(path string) (*os.File, error) {
	return m.register(path, nil)
}

// NewGoldenFileWithDiffer is like NewGoldenFile but compares with d.
func (m *Mint) NewGoldenFileWithDiffer(path string, d differ.Differ) (*os.File, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: nil differ for %q", ErrInvalidPath, path)
	}
	return m.register(path, d)
}

// NewGoldenPath registers a golden file and returns the absolute path of the
// empty staged file, for producers that write to a path rather than a handle.
func (m *Mint) NewGoldenPath(path string) (string, error) {
	f, err := m.register(path, nil)
	if err != nil {
		return "", err
	}
	name := f.Name()

	m.mu.Lock()
	m.forget(f)
	m.mu.Unlock()

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close staged file %q: %w", name, err)
	}
	return name, nil
}

func (m *Mint) register(path string, d differ.Differ) (*os.File, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}
	rel := filepath.Clean(path)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != stateActive {
		return nil, ErrFinalized
	}

	if d == nil {
		d = m.selector.For(rel)
	}

	staged := filepath.Join(m.stagingDir, rel)
	if err := os.MkdirAll(filepath.Dir(staged), DirPerm); err != nil {
		return nil, fmt.Errorf("failed to create staging directory for %q: %w", rel, err)
	}

	// #nosec G304 - staged is confined to the staging directory by validatePath
	f, err := os.Create(staged)
	if err != nil {
		return nil, fmt.Errorf("failed to create staged file for %q: %w", rel, err)
	}

	m.entries = append(m.entries, entry{path: rel, differ: d})
	m.files = append(m.files, f)

	m.logger.Debug("golden file registered",
		logging.Path(rel),
		logging.Differ(differ.Name(d)),
	)
	return f, nil
}

// forget drops f from the handles closed at finalization. Callers hold mu.
func (m *Mint) forget(f *os.File) {
	for i, open := range m.files {
		if open == f {
			m.files = append(m.files[:i], m.files[i+1:]...)
			return
		}
	}
}

// validatePath rejects absolute paths and paths that leave the root.
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if filepath.IsAbs(path) {
		return ErrPathNotRelative
	}
	if !filepath.IsLocal(path) {
		return ErrPathEscapes
	}
	return nil
}

package mint

import (
	"io"
	"log/slog"
	"os"

	"github.com/klauern/goldenfile/differ"
)

// EnvDebug enables the unfinalized-Mint check when set to "1".
const EnvDebug = "GOLDENFILE_DEBUG"

// Option configures a Mint.
type Option func(*options)

type options struct {
	mode        Mode
	createEmpty bool
	selector    *differ.Selector
	logger      *slog.Logger
	output      io.Writer
	tempDir     string
	leakCheck   bool
}

func defaultOptions() options {
	return options{
		mode:        ModeCheck,
		createEmpty: true,
		output:      os.Stderr,
		leakCheck:   os.Getenv(EnvDebug) == "1",
	}
}

// WithMode sets what Finalize does. The default is ModeCheck.
func WithMode(m Mode) Option {
	return func(o *options) { o.mode = m }
}

// WithCreateEmpty controls whether Update writes zero-length golden files.
// When false, an empty staged file deletes its golden copy instead.
func WithCreateEmpty(create bool) Option {
	return func(o *options) { o.createEmpty = create }
}

// WithSelector sets the Selector used for files registered without an
// explicit Differ.
func WithSelector(s *differ.Selector) Option {
	return func(o *options) { o.selector = s }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithOutput sets where regeneration guidance is written on mismatch.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.output = w }
}

// WithTempDir sets the parent directory of the staging area. The default is
// os.TempDir().
func WithTempDir(dir string) Option {
	return func(o *options) { o.tempDir = dir }
}

// WithLeakCheck reports Mints that are garbage-collected without having been
// finalized. It is also enabled by GOLDENFILE_DEBUG=1.
func WithLeakCheck(enabled bool) Option {
	return func(o *options) { o.leakCheck = enabled }
}

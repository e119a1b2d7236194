// Package logging configures the slog loggers used by goldenfile.
//
// Library code (mint, tree, archive) logs through Default unless a logger is
// passed in explicitly. The CLI builds its logger from flags, installs it
// with SetDefault and carries it through the command context.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// EnvLevel sets the level of the default logger (debug, info, warn, error).
const EnvLevel = "GOLDENFILE_LOG_LEVEL"

// Level aliases for convenience.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
)

var (
	mu            sync.Mutex
	defaultLogger *slog.Logger
)

// Options configures a logger.
type Options struct {
	Level slog.Level
	// Output defaults to os.Stderr.
	Output io.Writer
	// JSON selects slog's JSON handler instead of the text handler.
	JSON      bool
	AddSource bool
}

// DefaultOptions returns the options of the default logger: text on stderr
// at warn level, or at the level named by GOLDENFILE_LOG_LEVEL. Golden file
// updates log at info level, so tests stay quiet unless asked.
func DefaultOptions() Options {
	opts := Options{Level: LevelWarn, Output: os.Stderr}
	if lvl, err := ParseLevel(os.Getenv(EnvLevel)); err == nil {
		opts.Level = lvl
	}
	return opts
}

// ParseLevel maps a level name to a slog.Level. The empty string is an error.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q (valid: debug, info, warn, error)", name)
	}
}

// New creates a logger with the given options.
func New(opts Options) *slog.Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{
		Level:     opts.Level,
		AddSource: opts.AddSource,
	}
	if opts.JSON {
		return slog.New(slog.NewJSONHandler(opts.Output, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(opts.Output, handlerOpts))
}

// Default returns the process-wide logger, building it from DefaultOptions
// on first use.
func Default() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New(DefaultOptions())
	}
	return defaultLogger
}

// SetDefault replaces the process-wide logger. It does not touch
// slog.Default, so goldenfile's verbosity never leaks into the code under
// test.
func SetDefault(logger *slog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = logger
}

// Debug logs at debug level using the default logger.
func Debug(msg string, args ...any) {
	Default().Debug(msg, args...)
}

// Info logs at info level using the default logger.
func Info(msg string, args ...any) {
	Default().Info(msg, args...)
}

// Warn logs at warn level using the default logger.
func Warn(msg string, args ...any) {
	Default().Warn(msg, args...)
}

type loggerKey struct{}

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger carried by ctx, or Default.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return Default()
}

// Attribute keys.
const (
	KeyMint      = "mint"
	KeyMode      = "mode"
	KeyDiffer    = "differ"
	KeyPath      = "path"
	KeyOperation = "operation"
	KeyCount     = "count"
	KeyError     = "error"
	KeyDuration  = "duration"
)

// Mint identifies a Mint instance.
func Mint(id string) slog.Attr { return slog.String(KeyMint, id) }

// Mode is the finalization mode (check, update).
func Mode(m string) slog.Attr { return slog.String(KeyMode, m) }

// Differ is the name of the differ used for a golden file.
func Differ(name string) slog.Attr { return slog.String(KeyDiffer, name) }

// Path is a file or directory path.
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }

// Operation is the CLI command being run.
func Operation(op string) slog.Attr { return slog.String(KeyOperation, op) }

// Count is a number of files.
func Count(n int) slog.Attr { return slog.Int(KeyCount, n) }

// Duration is the time an operation took.
func Duration(d time.Duration) slog.Attr { return slog.Duration(KeyDuration, d) }

// Err attaches err; a nil error yields an empty attribute, which slog drops.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any(KeyError, err)
}

// Package cli provides the command-line interface for goldenfile.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/klauern/goldenfile/internal/config"
	"github.com/klauern/goldenfile/internal/logging"
	"github.com/klauern/goldenfile/internal/ui"
)

var (
	// Version is the current version of the application.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// BuildDate is the date and time of the build.
	BuildDate = "unknown"
)

// app holds state shared by every command of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer
	cfg    *config.Config
}

// Run executes the CLI application with the given context and arguments.
func Run(ctx context.Context, args []string) error {
	return newApp(os.Stdout, os.Stderr).command().Run(ctx, args)
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr, cfg: config.Default()}
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:      "goldenfile",
		Usage:     "Check and update golden files",
		Version:   Version,
		Writer:    a.stdout,
		ErrWriter: a.stderr,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output (info level logging)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug output (debug level logging, implies verbose)",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Value: "text",
				Usage: "Log format on stderr: text, json",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to a config file (default: .goldenfile.yaml or user config)",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if err := a.loadConfig(cmd); err != nil {
				return ctx, err
			}
			if err := a.configureColors(cmd); err != nil {
				return ctx, err
			}
			logger, err := a.configureLogging(cmd)
			if err != nil {
				return ctx, err
			}
			return logging.NewContext(ctx, logger), nil
		},
		Commands: []*cli.Command{
			a.diffCommand(),
			a.checkCommand(),
			a.updateCommand(),
			a.reviewCommand(),
			a.snapshotCommand(),
			a.configCommand(),
			a.versionCommand(),
		},
	}
}

func (a *app) loadConfig(cmd *cli.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if path := cmd.String("config"); path != "" {
		cfg, err = config.LoadFromPath(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg
	return nil
}

// configureColors sets up color output from config and CLI flags.
func (a *app) configureColors(cmd *cli.Command) error {
	if cmd.Bool("no-color") {
		ui.DisableColors()
		return nil
	}
	return ui.ConfigureColor(a.cfg.Output.Color, a.stdout)
}

// configureLogging builds the logger for this invocation from CLI flags and
// installs it as the default for library code.
func (a *app) configureLogging(cmd *cli.Command) (*slog.Logger, error) {
	opts := logging.Options{Output: a.stderr, Level: logging.LevelWarn}

	switch format := cmd.String("log-format"); format {
	case "text", "":
	case "json":
		opts.JSON = true
	default:
		return nil, fmt.Errorf("unsupported log format %q (valid: text, json)", format)
	}

	if cmd.Bool("debug") {
		opts.Level = logging.LevelDebug
		opts.AddSource = true
	} else if cmd.Bool("verbose") || a.cfg.Output.Verbose {
		opts.Level = logging.LevelInfo
	}

	logger := logging.New(opts)
	logging.SetDefault(logger)
	logger.Debug("logging configured", slog.String("level", opts.Level.String()))
	return logger, nil
}

// commandLogger returns the invocation's logger tagged with the command name.
func commandLogger(ctx context.Context, cmd *cli.Command) *slog.Logger {
	return logging.FromContext(ctx).With(logging.Operation(cmd.FullName()))
}

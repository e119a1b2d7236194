package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/klauern/goldenfile/internal/archive"
	"github.com/klauern/goldenfile/internal/logging"
	"github.com/klauern/goldenfile/internal/progress"
	"github.com/klauern/goldenfile/internal/tree"
	"github.com/klauern/goldenfile/internal/ui"
	"github.com/klauern/goldenfile/mint"
)

func (a *app) checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Check a directory of candidate files against golden files",
		UsageText: "goldenfile check [golden-dir] <staged-dir>",
		Description: `Stage every regular file of staged-dir and compare it with the file of
   the same relative path in golden-dir. Every mismatch is reported.

   golden-dir defaults to the configured golden_dir.

   Examples:
     goldenfile check testdata /tmp/out
     goldenfile check /tmp/out`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			goldenDir, stagedDir, err := a.dirArgs(cmd, "check")
			if err != nil {
				return err
			}
			return a.runCheck(commandLogger(ctx, cmd), goldenDir, stagedDir)
		},
	}
}

func (a *app) updateCommand() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Overwrite golden files with candidate files",
		UsageText: "goldenfile update [--nonempty] [--snapshot] [golden-dir] <staged-dir>",
		Description: `Stage every regular file of staged-dir and copy it over the golden file
   of the same relative path. Golden files with no staged counterpart are
   left alone.

   Examples:
     goldenfile update testdata /tmp/out
     goldenfile update --snapshot --nonempty testdata /tmp/out`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "nonempty",
				Usage: "Delete golden files whose candidate is empty instead of writing empty files",
			},
			&cli.BoolFlag{
				Name:  "snapshot",
				Usage: "Snapshot the golden files about to change before updating",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			goldenDir, stagedDir, err := a.dirArgs(cmd, "update")
			if err != nil {
				return err
			}
			return a.runUpdate(commandLogger(ctx, cmd), goldenDir, stagedDir, cmd.Bool("nonempty"), cmd.Bool("snapshot") || a.cfg.Snapshot.Enabled)
		},
	}
}

// dirArgs parses "[golden-dir] <staged-dir>".
func (a *app) dirArgs(cmd *cli.Command, name string) (goldenDir, stagedDir string, err error) {
	args := cmd.Args()
	switch args.Len() {
	case 1:
		return a.cfg.GoldenDir, args.Get(0), nil
	case 2:
		return args.Get(0), args.Get(1), nil
	default:
		return "", "", fmt.Errorf("%s requires 1 or 2 arguments: [golden-dir] <staged-dir>", name)
	}
}

// stage builds a Mint for goldenDir in the given mode and stages stagedDir
// into it. On error the Mint is already finalized.
func (a *app) stage(log *slog.Logger, goldenDir, stagedDir string, mode mint.Mode, extra ...mint.Option) (*mint.Mint, int, error) {
	opts, err := a.cfg.MintOptions()
	if err != nil {
		return nil, 0, err
	}
	opts = append(opts, mint.WithMode(mode), mint.WithOutput(io.Discard), mint.WithLogger(log))
	opts = append(opts, extra...)

	files, err := tree.Files(stagedDir)
	if err != nil {
		return nil, 0, err
	}

	m, err := mint.New(goldenDir, opts...)
	if err != nil {
		return nil, 0, err
	}

	bar := progress.New(progress.Options{
		Max:         int64(len(files)),
		Description: "Staging",
		Writer:      a.stderr,
	})
	if _, err := tree.Stage(m, stagedDir, bar); err != nil {
		_ = m.Finalize(true)
		return nil, 0, err
	}
	return m, len(files), nil
}

func (a *app) runCheck(log *slog.Logger, goldenDir, stagedDir string) error {
	start := time.Now()
	m, n, err := a.stage(log, goldenDir, stagedDir, mint.ModeCheck)
	if err != nil {
		return err
	}

	err = m.Finalize(false)
	log.Info("check finished", logging.Path(goldenDir), logging.Count(n), logging.Duration(time.Since(start)))
	var ce *mint.CheckError
	if errors.As(err, &ce) {
		a.printMismatches(ce)
		fmt.Fprintln(a.stdout, ui.Dim("To accept these changes, run: goldenfile update "+goldenDir+" "+stagedDir))
		return errFilesDiffer
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(a.stdout, ui.StatusSuccess(fmt.Sprintf("%d golden file(s) match", n)))
	return nil
}

func (a *app) printMismatches(ce *mint.CheckError) {
	for _, mm := range ce.Mismatches {
		fmt.Fprintln(a.stdout, ui.StatusError(ui.Bold(mm.Path)))
		fmt.Fprintln(a.stdout, ui.ColorizeDiff(mm.Err.Error()))
	}
	fmt.Fprintln(a.stdout, ui.StatusWarning(fmt.Sprintf("%d of %d golden file(s) differ", len(ce.Mismatches), ce.Checked)))
}

func (a *app) runUpdate(log *slog.Logger, goldenDir, stagedDir string, nonEmpty, snapshot bool) error {
	var extra []mint.Option
	if nonEmpty {
		extra = append(extra, mint.WithCreateEmpty(false))
	}
	m, n, err := a.stage(log, goldenDir, stagedDir, mint.ModeUpdate, extra...)
	if err != nil {
		return err
	}

	if snapshot {
		if err := a.snapshotBefore(goldenDir, stagedDir); err != nil {
			_ = m.Finalize(true)
			return err
		}
	}

	if err := m.Finalize(false); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, ui.StatusSuccess(fmt.Sprintf("Updated %d golden file(s) in %s", n, goldenDir)))
	return nil
}

// snapshotBefore archives the golden files that staging stagedDir would
// touch, then applies the retention limit.
func (a *app) snapshotBefore(goldenDir, stagedDir string) error {
	files, err := tree.Files(stagedDir)
	if err != nil {
		return err
	}
	info, err := archive.Snapshot(a.cfg.Snapshot.Location, goldenDir, files)
	if err != nil {
		return fmt.Errorf("failed to snapshot golden files: %w", err)
	}
	fmt.Fprintln(a.stdout, ui.Info(fmt.Sprintf("Snapshot %s saved (%d file(s))", shortID(info.ID), info.FileCount)))

	if _, err := archive.Prune(a.cfg.Snapshot.Location, a.cfg.Snapshot.MaxSnapshots); err != nil {
		return fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/klauern/goldenfile/internal/archive"
	"github.com/klauern/goldenfile/internal/logging"
	"github.com/klauern/goldenfile/internal/tree"
	"github.com/klauern/goldenfile/internal/ui"
	"github.com/klauern/goldenfile/internal/ui/tui"
)

// runReview is swapped out in tests.
var runReview = tui.RunReview

func (a *app) reviewCommand() *cli.Command {
	return &cli.Command{
		Name:      "review",
		Usage:     "Interactively review and accept golden file changes",
		UsageText: "goldenfile review [golden-dir] <staged-dir>",
		Description: `List every candidate file that differs from its golden file, view the
   diffs and accept changes one file at a time.

   Examples:
     goldenfile review testdata /tmp/out`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			goldenDir, stagedDir, err := a.dirArgs(cmd, "review")
			if err != nil {
				return err
			}
			return a.runReviewSession(commandLogger(ctx, cmd), goldenDir, stagedDir)
		},
	}
}

func (a *app) runReviewSession(log *slog.Logger, goldenDir, stagedDir string) error {
	sel, err := a.cfg.Selector()
	if err != nil {
		return err
	}
	results, err := tree.Compare(sel, goldenDir, stagedDir)
	if err != nil {
		return err
	}

	pending := 0
	for _, r := range results {
		if r.Status != tree.StatusMatch {
			pending++
		}
	}
	if pending == 0 {
		fmt.Fprintln(a.stdout, ui.StatusSuccess(fmt.Sprintf("%d golden file(s) match", len(results))))
		return nil
	}

	res, err := runReview(results)
	if err != nil {
		return fmt.Errorf("review failed: %w", err)
	}
	if res.Action != tui.ReviewActionApply || len(res.Accepted) == 0 {
		fmt.Fprintln(a.stdout, ui.StatusSkipped("No golden files changed"))
		return nil
	}
	log.Info("review finished", logging.Count(len(res.Accepted)))
	return a.applyAccepted(log, goldenDir, stagedDir, res.Accepted)
}

// applyAccepted writes the accepted staged files into goldenDir.
func (a *app) applyAccepted(log *slog.Logger, goldenDir, stagedDir string, paths []string) error {
	if a.cfg.Snapshot.Enabled {
		info, err := archive.Snapshot(a.cfg.Snapshot.Location, goldenDir, paths)
		if err != nil {
			return fmt.Errorf("failed to snapshot golden files: %w", err)
		}
		fmt.Fprintln(a.stdout, ui.Info(fmt.Sprintf("Snapshot %s saved (%d file(s))", shortID(info.ID), info.FileCount)))
		if _, err := archive.Prune(a.cfg.Snapshot.Location, a.cfg.Snapshot.MaxSnapshots); err != nil {
			return fmt.Errorf("failed to prune snapshots: %w", err)
		}
	}

	var errs []error
	for _, p := range paths {
		if err := tree.Accept(goldenDir, stagedDir, p, a.cfg.CreateEmpty); err != nil {
			log.Warn("failed to accept golden file", logging.Path(p), logging.Err(err))
			fmt.Fprintln(a.stdout, ui.StatusError(p))
			errs = append(errs, err)
			continue
		}
		fmt.Fprintln(a.stdout, ui.StatusSuccess(p))
	}
	return errors.Join(errs...)
}

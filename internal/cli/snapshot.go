package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/klauern/goldenfile/internal/archive"
	"github.com/klauern/goldenfile/internal/logging"
	"github.com/klauern/goldenfile/internal/ui"
)

func (a *app) snapshotCommand() *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "Manage golden file snapshots taken before updates",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Snapshot directory (default: configured snapshot.location)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List snapshots, newest first",
				Action: func(_ context.Context, cmd *cli.Command) error {
					return a.listSnapshots(a.snapshotDir(cmd))
				},
			},
			{
				Name:      "restore",
				Usage:     "Restore golden files from a snapshot",
				UsageText: "goldenfile snapshot restore [--dry-run] [--golden-dir DIR] <id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "dry-run",
						Aliases: []string{"n"},
						Usage:   "Verify the snapshot and list files without writing",
					},
					&cli.StringFlag{
						Name:  "golden-dir",
						Usage: "Restore into this directory instead of the original one",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 1 {
						return errors.New("restore requires exactly 1 argument: <id>")
					}
					return a.restoreSnapshot(commandLogger(ctx, cmd), a.snapshotDir(cmd), cmd.Args().Get(0), archive.RestoreOptions{
						TargetDir: cmd.String("golden-dir"),
						DryRun:    cmd.Bool("dry-run"),
					})
				},
			},
		},
	}
}

func (a *app) snapshotDir(cmd *cli.Command) string {
	if dir := cmd.String("dir"); dir != "" {
		return dir
	}
	return a.cfg.Snapshot.Location
}

func (a *app) listSnapshots(dir string) error {
	infos, err := archive.List(dir)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Fprintln(a.stdout, "No snapshots found in", dir)
		return nil
	}

	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tFILES\tSIZE\tGOLDEN DIR")
	for _, info := range infos {
		var size int64
		for _, f := range info.Files {
			size += f.Size
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			shortID(info.ID),
			humanize.Time(info.CreatedAt),
			info.FileCount,
			humanize.Bytes(uint64(size)), // #nosec G115 - sizes are non-negative
			info.GoldenDir,
		)
	}
	return w.Flush()
}

func (a *app) restoreSnapshot(log *slog.Logger, dir, id string, opts archive.RestoreOptions) error {
	info, err := archive.Find(dir, id)
	if err != nil {
		return err
	}
	manifest, restored, err := archive.Restore(info.Archive, opts)
	if err != nil {
		log.Warn("snapshot restore failed", logging.Path(info.Archive), logging.Err(err))
		return err
	}
	log.Info("snapshot restored", logging.Path(info.Archive), logging.Count(len(restored)))

	target := opts.TargetDir
	if target == "" {
		target = manifest.GoldenDir
	}
	verb := "Restored"
	if opts.DryRun {
		verb = "Would restore"
	}
	for _, p := range restored {
		fmt.Fprintln(a.stdout, ui.StatusSuccess(p))
	}
	fmt.Fprintf(a.stdout, "%s %d file(s) from snapshot %s into %s\n", verb, len(restored), shortID(manifest.ID), target)
	return nil
}

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/klauern/goldenfile/differ"
	"github.com/klauern/goldenfile/internal/logging"
	"github.com/klauern/goldenfile/internal/ui"
)

// errFilesDiffer is returned by commands that found content mismatches.
var errFilesDiffer = errors.New("files differ")

func (a *app) diffCommand() *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Usage:     "Compare a golden file against a candidate file",
		UsageText: "goldenfile diff [--differ auto|text|binary] <golden> <candidate>",
		Description: `Run one differ on two files and print the difference.

   With --differ auto (the default) the differ is chosen from the golden
   file's name using the configured rules and extension table.

   Examples:
     goldenfile diff testdata/out.txt /tmp/out.txt
     goldenfile diff --differ binary testdata/blob.dat /tmp/blob.dat`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "differ",
				Aliases: []string{"d"},
				Value:   "auto",
				Usage:   "Differ to use: auto, text, binary",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() != 2 {
				return errors.New("diff requires exactly 2 arguments: <golden> <candidate>")
			}
			golden, candidate := args.Get(0), args.Get(1)

			d, err := a.resolveDiffer(cmd.String("differ"), golden)
			if err != nil {
				return err
			}

			commandLogger(ctx, cmd).Debug("comparing files",
				logging.Path(candidate),
				logging.Differ(differ.Name(d)))
			err = d.Diff(golden, candidate)
			switch {
			case err == nil:
				fmt.Fprintln(a.stdout, ui.StatusSuccess(fmt.Sprintf("%s matches %s", candidate, golden)))
				return nil
			case differ.IsMismatch(err):
				fmt.Fprintln(a.stdout, ui.ColorizeDiff(err.Error()))
				return errFilesDiffer
			default:
				return fmt.Errorf("failed to compare files: %w", err)
			}
		},
	}
}

func (a *app) resolveDiffer(name, path string) (differ.Differ, error) {
	if name != "auto" && name != "" {
		return differ.Parse(name)
	}
	sel, err := a.cfg.Selector()
	if err != nil {
		return nil, err
	}
	return sel.For(path), nil
}

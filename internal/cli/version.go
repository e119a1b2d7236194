package cli

import (
	"context"
	"fmt"
	"runtime"

	"github.com/urfave/cli/v3"
)

func (a *app) versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Display version and build information",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			fmt.Fprintf(a.stdout, "goldenfile version %s\n", Version)
			fmt.Fprintf(a.stdout, "  commit: %s\n", Commit)
			fmt.Fprintf(a.stdout, "  built: %s\n", BuildDate)
			fmt.Fprintf(a.stdout, "  go: %s\n", runtime.Version())
			return nil
		},
	}
}

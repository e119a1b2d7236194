package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/klauern/goldenfile/internal/config"
	"github.com/klauern/goldenfile/internal/ui"
)

func (a *app) configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show or create goldenfile configuration",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the effective configuration",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "yaml",
						Usage:   "Output format: yaml, toml",
					},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					data, err := a.cfg.Marshal(cmd.String("format"))
					if err != nil {
						return err
					}
					wd, _ := os.Getwd()
					if path := config.Find(wd); path != "" {
						fmt.Fprintln(a.stdout, ui.Dim("# loaded from "+path))
					}
					_, err = a.stdout.Write(data)
					return err
				},
			},
			{
				Name:      "init",
				Usage:     "Write a default project config file",
				UsageText: "goldenfile config init [--format yaml|toml] [--force] [--user | dir]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "yaml",
						Usage:   "File format: yaml, toml",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing config file",
					},
					&cli.BoolFlag{
						Name:  "user",
						Usage: "Write the user-level config file instead of a project file",
					},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					if cmd.Bool("user") {
						return a.initUserConfig(cmd.Bool("force"))
					}
					dir := "."
					if cmd.Args().Len() > 0 {
						dir = cmd.Args().Get(0)
					}
					return a.initConfig(dir, cmd.String("format"), cmd.Bool("force"))
				},
			},
		},
	}
}

func (a *app) initConfig(dir, format string, force bool) error {
	var name string
	switch format {
	case "yaml", "":
		name = ".goldenfile.yaml"
	case "toml":
		name = ".goldenfile.toml"
	default:
		return fmt.Errorf("unsupported config format %q (valid: yaml, toml)", format)
	}

	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	cfg := config.Default()
	// Project files fall back to the user snapshot location
	cfg.Snapshot.Location = ""
	if err := cfg.SaveToPath(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintln(a.stdout, ui.StatusSuccess("Created "+path))
	return nil
}

// initUserConfig writes the defaults to the user-level config file, which is
// always YAML.
func (a *app) initUserConfig(force bool) error {
	path := config.FilePath()
	if config.Exists() && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.Default().Save(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintln(a.stdout, ui.StatusSuccess("Created "+path))
	return nil
}

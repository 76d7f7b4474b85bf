package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/johndauphine/db-utility/internal/exitcodes"
	"github.com/johndauphine/db-utility/internal/logging"
	"github.com/johndauphine/db-utility/internal/orchestrator"
	"github.com/johndauphine/db-utility/internal/ui"
	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	err := newApp().Run(os.Args)
	if err != nil {
		ui.Error(os.Stderr, "Error (%s): %v", exitcodes.Classify(err), err)
	}
	os.Exit(exitcodes.FromError(err))
}

func newApp() *cli.App {
	actionFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "Backup file to restore, or SQLite file to migrate from",
		},
		&cli.BoolFlag{
			Name:  "clean",
			Usage: "Truncate destination tables before restoring or migrating",
		},
	}

	return &cli.App{
		Name:            "db-utility",
		Usage:           "Back up, restore and migrate the application database",
		UsageText:       fmt.Sprintf("db-utility [global options] <%s> [options]", strings.Join(actionNames(), "|")),
		Version:         version,
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to an optional YAML configuration file",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "Dotenv file providing DB_* settings",
			},
			&cli.StringFlag{
				Name:  "storage-dir",
				Usage: "Directory holding backups/ and temp/ (default: storage/app)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Value: "text",
				Usage: "Log format: text or json",
			},
			&cli.StringFlag{
				Name:  "verbosity",
				Value: "info",
				Usage: "Log verbosity level (debug, info, warn, error)",
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Disable progress output",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not record this run in the run history",
			},
		},
		Before: func(c *cli.Context) error {
			level, err := logging.ParseLevel(c.String("verbosity"))
			if err != nil {
				return exitcodes.InputError(err)
			}
			logging.SetLevel(level)

			switch c.String("log-format") {
			case "json":
				logging.SetFormat("json")
			case "text":
			default:
				return exitcodes.InputError(fmt.Errorf("unknown log format %q (want text or json)", c.String("log-format")))
			}
			return nil
		},
		// Reached only when the first argument names no known action.
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				_ = cli.ShowAppHelp(c)
				return exitcodes.InputError(fmt.Errorf("an action is required (available actions: %s)", strings.Join(actionNames(), ", ")))
			}
			_, err := orchestrator.ParseAction(c.Args().First())
			return exitcodes.InputError(err)
		},
		Commands: []*cli.Command{
			{
				Name:  string(orchestrator.ActionBackup),
				Usage: "Write every table to a new backup under backups/",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Value: "sql",
						Usage: "Backup format: sql or json",
					},
					&cli.BoolFlag{
						Name:  "compress",
						Usage: "Pack the backup into a zip archive",
					},
				},
				Action: runAction(orchestrator.ActionBackup),
			},
			{
				Name:  string(orchestrator.ActionRestore),
				Usage: "Restore a SQL or JSON backup (format detected from content)",
				Flags: append(actionFlags, &cli.BoolFlag{
					Name:  "force",
					Usage: "Skip the confirmation prompt",
				}),
				Action: runAction(orchestrator.ActionRestore),
			},
			{
				Name:   string(orchestrator.ActionMigrateSQLite),
				Usage:  "Copy rows from a SQLite file into existing tables",
				Flags:  actionFlags,
				Action: runAction(orchestrator.ActionMigrateSQLite),
			},
			{
				Name:  "history",
				Usage: "List recorded runs, or view details of a specific run",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Value: 20,
						Usage: "Number of runs to list",
					},
					&cli.StringFlag{
						Name:  "run",
						Usage: "Show details for a specific run ID",
					},
					&cli.IntFlag{
						Name:  "prune",
						Usage: "Delete runs older than this many days",
					},
				},
				Action: showHistory,
			},
		},
	}
}

func actionNames() []string {
	names := make([]string, len(orchestrator.Actions))
	for i, a := range orchestrator.Actions {
		names[i] = string(a)
	}
	return names
}

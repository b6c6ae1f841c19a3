// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file, initialize the database and run migrations",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "rollback",
				Usage: "Roll back the most recent migration instead of migrating up",
			},
		},
		Action: r.Setup,
	}
}

// syncCommand runs one sync family and prints the result
func syncCommand(r *Runner) *cli.Command {
	flags := func() []cli.Flag {
		return []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the result as JSON",
			},
			&cli.BoolFlag{
				Name:    "progress",
				Aliases: []string{"p"},
				Usage:   "Print progress updates while syncing",
			},
		}
	}

	return &cli.Command{
		Name:  "sync",
		Usage: "Run a sync once and print its result",
		Commands: []*cli.Command{
			{
				Name:   "venues",
				Usage:  "Sync facilities and halls changed since the last venue sync",
				Flags:  flags(),
				Action: r.SyncVenues,
			},
			{
				Name:   "concerts",
				Usage:  "Sync performances across the configured genres and horizon",
				Flags:  flags(),
				Action: r.SyncConcerts,
			},
			{
				Name:    "boxoffice",
				Aliases: []string{"ranking"},
				Usage:   "Replace the box-office ranking slots for the trailing window",
				Flags:   flags(),
				Action:  r.SyncBoxoffice,
			},
			{
				Name:   "all",
				Usage:  "Sync venues, then concerts and box-office rankings",
				Flags:  flags(),
				Action: r.SyncAll,
			},
		},
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the daily scheduler and the admin HTTP server",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Override the listen address (host:port)",
			},
		},
		Action: r.Serve,
	}
}

func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the watermark and counters of each sync type",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: table, csv, md, text or json",
				Value:   "table",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (stdout when empty)",
			},
		},
		Action: r.Status,
	}
}

func tokenCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Issue an admin bearer token for POST /kopis/sync",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "subject",
				Usage: "Token subject",
				Value: "admin",
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "Token lifetime",
				Value: 24 * time.Hour,
			},
		},
		Action: r.Token,
	}
}

// Package bootstrap wires configuration, the git runner and the repository
// state into the blendgit command line.
package bootstrap

import (
	urfavecli "github.com/urfave/cli/v3"
)

// globalFlags returns all global flags for the application.
// Note: --version is provided automatically by urfave/cli via Command.Version
func globalFlags() []urfavecli.Flag {
	return []urfavecli.Flag{
		&urfavecli.StringFlag{
			Name:    "repo",
			Aliases: []string{"C"},
			Usage:   "Run as if blendgit was started in this directory; path arguments are relative to it",
			Value:   ".",
		},
		&urfavecli.StringFlag{
			Name:  "git-path",
			Usage: "Path to the git executable (PATH is never searched)",
		},
		&urfavecli.StringFlag{
			Name:  "config-file",
			Usage: "Path to configuration file",
		},
		&urfavecli.StringSliceFlag{
			Name:  "config",
			Usage: "Override config values (repeatable): --config=bg.key=value",
		},
		&urfavecli.StringFlag{
			Name:  "debug-log",
			Usage: "Path to debug log file",
		},
		&urfavecli.StringFlag{
			Name:    "theme",
			Aliases: []string{"t"},
			Usage:   "Override the colour theme",
		},
		&urfavecli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "Do not ask before destructive actions",
		},
		&urfavecli.BoolFlag{
			Name:  "show-themes",
			Usage: "List available themes",
		},
	}
}

// Package cli provides the command-line interface for joplin-runner.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

// errCasesFailed makes the process exit with 1 without printing an error:
// the summary already explains what went wrong.
var errCasesFailed = errors.New("cases failed")

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Usage:   "Path to config.yaml (default: ./config.yaml when present)",
		EnvVars: []string{"JOPLIN_RUNNER_CONFIG"},
	},
	&cli.BoolFlag{
		Name:    "no-color",
		Aliases: []string{"no-ansi"},
		Usage:   "Disable ANSI colors",
	},
}

// Execute runs the CLI.
func Execute() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	app := newApp()
	if err := app.Run(args); err != nil {
		if !errors.Is(err, errCasesFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "joplin-runner",
		Usage:   "UI test runner for the Joplin desktop application",
		Version: Version,
		Description: `joplin-runner starts the desktop application under chromedriver or with
remote debugging enabled, drives it with OS-level key events and checks the
results through the DOM and the local data API.

Examples:
  joplin-runner test
  joplin-runner test --testname Sidebar
  joplin-runner test --testname Go/focus_top_menu_sidebar --no-xvfb
  joplin-runner menu --layout menu.yaml`,
		Flags: GlobalFlags,
		Before: func(c *cli.Context) error {
			if c.Bool("no-color") {
				colorsEnabled = false
			}
			return nil
		},
		Commands: []*cli.Command{
			testCommand,
			menuCommand,
		},
	}
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/dirac/internal/version"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "dirac",
		Usage:   "Even-odd preconditioned lattice fermion operators",
		Version: version.String(),
		Flags:   loggingFlags(),
		Before:  setupLogging,

		// main reports errors and picks the exit code.
		ExitErrHandler: func(context.Context, *cli.Command, error) {},

		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			checkCmd(),
			benchCmd(),
			flopsCmd(),
			serveCmd(),
			versionCmd(),
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

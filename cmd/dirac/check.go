package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/dirac/internal/check"
	"github.com/samcharles93/dirac/internal/logger"
)

func checkCmd() *cli.Command {
	var (
		runPath string
		format  string
	)

	return &cli.Command{
		Name:  "check",
		Usage: "Run the consistency checks for one operator",
		Flags: []cli.Flag{
			runFlag(&runPath),
			&cli.StringFlag{
				Name:        "format",
				Usage:       "report format (text, json)",
				Value:       "text",
				Destination: &format,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if format != "text" && format != "json" {
				return cli.Exit(fmt.Sprintf("error: unknown report format %q", format), exitUsage)
			}
			r, err := loadRun(runPath)
			if err != nil {
				return fail("load run", err)
			}
			rep, err := check.Run(ctx, r, logger.FromContext(ctx))
			if err != nil {
				return fail("check", err)
			}

			w := cmd.Root().Writer
			if format == "json" {
				err = rep.WriteJSON(w)
			} else {
				err = rep.WriteText(w)
			}
			if err != nil {
				return fail("write report", err)
			}
			if failed := rep.Failed(); len(failed) > 0 {
				return cli.Exit("failed: "+strings.Join(failed, ", "), exitFailure)
			}
			return nil
		},
	}
}

package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/dirac/internal/version"
)

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			info := version.Resolve()
			w := cmd.Root().Writer
			_, _ = fmt.Fprintf(w, "dirac %s\n", info.Version)
			if info.Commit != "" {
				_, _ = fmt.Fprintf(w, "commit: %s\n", info.Commit)
			}
			if info.BuildTime != "" {
				_, _ = fmt.Fprintf(w, "built:  %s\n", info.BuildTime)
			}
			_, _ = fmt.Fprintf(w, "go:     %s\n", info.GoVersion)
			return nil
		},
	}
}

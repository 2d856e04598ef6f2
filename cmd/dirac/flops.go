package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/dirac/internal/check"
)

func flopsCmd() *cli.Command {
	var runPath string

	return &cli.Command{
		Name:  "flops",
		Usage: "Print the per-node flop count of one operator application",
		Flags: []cli.Flag{runFlag(&runPath)},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			r, err := loadRun(runPath)
			if err != nil {
				return fail("load run", err)
			}
			t, err := check.Build(r)
			if err != nil {
				return fail("create operator", err)
			}
			w := cmd.Root().Writer
			_, _ = fmt.Fprintf(w, "Operator: %s\n", r.Operator)
			_, _ = fmt.Fprintf(w, "Lattice:  %v\n", t.Layout.Lattice)
			_, _ = fmt.Fprintf(w, "Grid:     %v\n", t.Layout.Grid)
			if n5 := t.N5(); n5 > 0 {
				_, _ = fmt.Fprintf(w, "N5:       %d\n", n5)
			}
			_, _ = fmt.Fprintf(w, "NFlops:   %d\n", t.NFlops())
			return nil
		},
	}
}

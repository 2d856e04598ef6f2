package main

import (
	"context"
	"fmt"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/dirac/internal/check"
	"github.com/samcharles93/dirac/internal/linop"
	"github.com/samcharles93/dirac/internal/logger"
	"github.com/samcharles93/dirac/internal/metrics"
	"github.com/samcharles93/dirac/internal/spin"
)

func benchCmd() *cli.Command {
	var (
		runPath string
		runs    int64
		warmup  int64
	)

	return &cli.Command{
		Name:  "bench",
		Usage: "Time repeated operator applications",
		Flags: []cli.Flag{
			runFlag(&runPath),
			&cli.Int64Flag{
				Name:        "runs",
				Usage:       "number of timed applications per sign",
				Value:       20,
				Destination: &runs,
			},
			&cli.Int64Flag{
				Name:        "warmup",
				Usage:       "untimed applications before measuring",
				Value:       2,
				Destination: &warmup,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyBenchConfig(cmd, LoadUserConfig(), &runs, &warmup)
			if runs < 1 || warmup < 0 {
				return cli.Exit("error: --runs must be positive and --warmup non-negative", exitUsage)
			}

			r, err := loadRun(runPath)
			if err != nil {
				return fail("load run", err)
			}
			timers := metrics.NewTimers()
			start := time.Now()
			t, err := check.Build(r, linop.WithSink(timers))
			if err != nil {
				return fail("create operator", err)
			}
			setup := time.Since(start)
			log.Debug("operator created", "operator", string(r.Operator), "took", setup)

			for range warmup {
				if err := t.Apply(spin.Plus); err != nil {
					return fail("warmup", err)
				}
			}
			timers.Reset()

			w := cmd.Root().Writer
			_, _ = fmt.Fprintf(w, "Operator: %s\n", r.Operator)
			_, _ = fmt.Fprintf(w, "Lattice:  %v\n", t.Layout.Lattice)
			if n5 := t.N5(); n5 > 0 {
				_, _ = fmt.Fprintf(w, "N5:       %d\n", n5)
			}
			_, _ = fmt.Fprintf(w, "CPUs:     %d\n", runtime.NumCPU())
			_, _ = fmt.Fprintf(w, "GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))
			_, _ = fmt.Fprintf(w, "Setup:    %s\n", setup.Round(time.Millisecond))
			_, _ = fmt.Fprintf(w, "Warmup:   %d runs\n", warmup)
			_, _ = fmt.Fprintf(w, "Runs:     %d\n\n", runs)

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
			_, _ = fmt.Fprintln(tw, "sign\tcalls\tseconds\tus/call\tGFLOP/s\t")
			nflops := float64(t.NFlops())
			for _, sign := range []spin.Sign{spin.Plus, spin.Minus} {
				if err := ctx.Err(); err != nil {
					return fail("bench", err)
				}
				begin := time.Now()
				for range runs {
					if err := t.Apply(sign); err != nil {
						return fail("apply", err)
					}
				}
				secs := time.Since(begin).Seconds()
				_, _ = fmt.Fprintf(tw, "%s\t%d\t%.4f\t%.1f\t%.3f\t\n",
					sign, runs, secs, 1e6*secs/float64(runs), nflops*float64(runs)/secs/1e9)
			}
			if err := tw.Flush(); err != nil {
				return fail("write", err)
			}

			if entries := timers.Snapshot(); len(entries) > 0 {
				_, _ = fmt.Fprintln(w)
				tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintln(tw, "section\tcalls\tseconds")
				for _, e := range entries {
					_, _ = fmt.Fprintf(tw, "%s\t%d\t%.4f\n", e.Section, e.Calls, e.Seconds)
				}
				_ = tw.Flush()
			}

			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			_, _ = fmt.Fprintf(w, "\nMemory: %.1f MB alloc, %.1f MB sys\n",
				float64(ms.Alloc)/(1<<20), float64(ms.Sys)/(1<<20))
			if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
				_, _ = fmt.Fprintf(w, "Host:   %.1f GB total, %.1f GB available (%.0f%% used)\n",
					float64(vm.Total)/(1<<30), float64(vm.Available)/(1<<30), vm.UsedPercent)
			} else {
				log.Debug("host memory unavailable", "error", err)
			}
			return nil
		},
	}
}


// Package check evaluates the algebraic properties of a configured operator
// at run time: adjointness, the Schur identity, diagonal inverses,
// log-determinants, the free-field spectrum and gauge forces.
package check

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/samcharles93/dirac/internal/config"
	"github.com/samcharles93/dirac/internal/linop"
	"github.com/samcharles93/dirac/internal/logger"
	"github.com/samcharles93/dirac/internal/metrics"
)

type namedCheck struct {
	name string
	fn   checkFn
}

// Names lists the checks Run evaluates for op, in order.
func Names(op config.Operator) []string {
	var out []string
	for _, c := range checksFor(op) {
		out = append(out, c.name)
	}
	return out
}

func checksFor(op config.Operator) []namedCheck {
	switch op {
	case config.Clover:
		return cloverChecks(linop.Clover)
	case config.Orbifold:
		return cloverChecks(linop.Orbifold)
	case config.DWF:
		return dwfChecks()
	default:
		return nil
	}
}

// Run builds the operator described by r and evaluates every check for its
// kind. A failing check is reported, not returned; the error is reserved for
// runs that could not complete.
func Run(ctx context.Context, r config.Run, log logger.Logger) (*Report, error) {
	timers := metrics.NewTimers()
	t, err := Build(r, linop.WithSink(timers))
	if err != nil {
		return nil, err
	}

	rep := &Report{
		ID:       uuid.NewString(),
		Operator: r.Operator,
		Lattice:  t.Layout.Lattice,
		Grid:     t.Layout.Grid,
		N5:       t.N5(),
		NFlops:   t.NFlops(),
		Started:  time.Now().UTC(),
	}
	log = log.With("run", rep.ID, "operator", string(r.Operator))
	log.Info("checking operator", "lattice", rep.Lattice, "n5", rep.N5, "nflops", rep.NFlops)

	for i, c := range checksFor(r.Operator) {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "check %s", c.name)
		}
		start := time.Now()
		res, err := c.fn(t, r.RNG(uint64(i)+2))
		if err != nil {
			return nil, errors.Wrapf(err, "check %s", c.name)
		}
		rep.Results = append(rep.Results, res)
		attrs := []any{"check", res.Name, "residual", res.Residual, "tolerance", res.Tolerance, "took", time.Since(start)}
		if res.Pass {
			log.Debug("passed", attrs...)
		} else {
			log.Warn("failed", attrs...)
		}
	}

	rep.Elapsed = time.Since(rep.Started).Seconds()
	rep.Timers = timers.Snapshot()
	log.Info("done", "passed", len(rep.Results)-len(rep.Failed()), "total", len(rep.Results), "elapsed", rep.Elapsed)
	return rep, nil
}

package check

import (
	"github.com/cockroachdb/errors"

	"github.com/samcharles93/dirac/internal/config"
	"github.com/samcharles93/dirac/internal/field"
	"github.com/samcharles93/dirac/internal/lattice"
	"github.com/samcharles93/dirac/internal/linop"
	"github.com/samcharles93/dirac/internal/spin"
)

// Target is a created operator together with the fields it acts on. Exactly
// one of Clover and DWF is set.
type Target struct {
	Run      config.Run
	Geometry *lattice.Geometry
	Layout   lattice.Layout
	Gauge    *field.Gauge

	Clover *linop.CloverOp
	DWF    *linop.DWFArray

	opts []linop.Option

	// Operator sources and results reused by Apply.
	psi, chi   *field.Fermion
	psi5, chi5 *field.FermionArray
}

// Build validates r, builds its gauge field and creates the operator.
func Build(r config.Run, opts ...linop.Option) (*Target, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	g, err := r.Geometry()
	if err != nil {
		return nil, err
	}
	l, err := r.Layout()
	if err != nil {
		return nil, err
	}
	t := &Target{Run: r, Geometry: g, Layout: l, Gauge: r.NewGauge(g)}
	t.opts = append([]linop.Option{linop.WithLayout(l)}, opts...)
	if err := t.create(t.Gauge); err != nil {
		return nil, err
	}

	src := r.RNG(1)
	switch r.Operator {
	case config.DWF:
		t.psi5 = field.RandomFermionArray(g, r.DWF.N5, src)
		t.psi5.ZeroCB(lattice.Even)
		t.chi5 = field.NewFermionArray(g, r.DWF.N5)
	default:
		t.psi = field.RandomFermion(g, src)
		t.psi.ZeroCB(lattice.Even)
		t.chi = field.NewFermion(g)
	}
	return t, nil
}

func (t *Target) create(u *field.Gauge) error {
	switch t.Run.Operator {
	case config.Clover:
		t.Clover = linop.NewClover(t.opts...)
		return t.Clover.Create(u, t.Run.Clover)
	case config.Orbifold:
		t.Clover = linop.NewOrbifold(t.opts...)
		return t.Clover.Create(u, t.Run.Clover)
	case config.DWF:
		t.DWF = linop.NewDWF(t.opts...)
		return t.DWF.Create(u, t.Run.DWF)
	default:
		return errors.Mark(errors.Newf("check: unknown operator %q", t.Run.Operator), linop.ErrConfiguration)
	}
}

// recreate returns a fresh operator of the same kind over u.
func (t *Target) recreate(u *field.Gauge) (*Target, error) {
	c := &Target{Run: t.Run, Geometry: t.Geometry, Layout: t.Layout, Gauge: u, opts: t.opts}
	if err := c.create(u); err != nil {
		return nil, err
	}
	return c, nil
}

// NFlops returns the cost of one Apply on this node.
func (t *Target) NFlops() uint64 {
	if t.DWF != nil {
		return t.DWF.NFlops()
	}
	return t.Clover.NFlops()
}

// N5 returns the fifth-dimension extent, or 0 for 4D operators.
func (t *Target) N5() int {
	if t.DWF != nil {
		return t.Run.DWF.N5
	}
	return 0
}

// Apply runs one Operator call on the stored odd-checkerboard source.
func (t *Target) Apply(sign spin.Sign) error {
	if t.DWF != nil {
		return t.DWF.Operator(t.chi5, t.psi5, sign)
	}
	return t.Clover.Operator(t.chi, t.psi, sign)
}

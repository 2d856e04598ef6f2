// Package field provides the lattice-wide data types the operators act on:
// gauge links, forces, and 4D/5D fermion fields.
package field

import (
	"math/rand/v2"

	"github.com/samcharles93/dirac/internal/lattice"
	"github.com/samcharles93/dirac/internal/su3"
)

// Gauge holds one colour matrix per site and direction. Operators only read
// it; callers may share one Gauge between many operators.
type Gauge struct {
	geom  *lattice.Geometry
	Links [lattice.Nd][]su3.Matrix
}

func newGauge(g *lattice.Geometry) *Gauge {
	u := &Gauge{geom: g}
	for mu := range lattice.Nd {
		u.Links[mu] = make([]su3.Matrix, g.Volume())
	}
	return u
}

// UnitGauge returns the free-field configuration.
func UnitGauge(g *lattice.Geometry) *Gauge {
	u := newGauge(g)
	id := su3.Identity()
	for mu := range lattice.Nd {
		for i := range u.Links[mu] {
			u.Links[mu][i] = id
		}
	}
	return u
}

// RandomGauge draws unitary links; disorder controls the distance from the
// identity.
func RandomGauge(g *lattice.Geometry, r *rand.Rand, disorder float64) *Gauge {
	u := newGauge(g)
	for mu := range lattice.Nd {
		for i := range u.Links[mu] {
			u.Links[mu][i] = su3.RandomUnitary(r, disorder)
		}
	}
	return u
}

func (u *Gauge) Geometry() *lattice.Geometry { return u.geom }

// Link returns U_mu(site).
func (u *Gauge) Link(mu, site int) su3.Matrix { return u.Links[mu][site] }

// Clone returns a deep copy.
func (u *Gauge) Clone() *Gauge {
	c := &Gauge{geom: u.geom}
	for mu := range lattice.Nd {
		c.Links[mu] = append([]su3.Matrix(nil), u.Links[mu]...)
	}
	return c
}

// Force is a link-shaped array of colour matrices holding a derivative with
// respect to the gauge field.
type Force struct {
	geom *lattice.Geometry
	M    [lattice.Nd][]su3.Matrix
}

// NewForce returns a zero force.
func NewForce(g *lattice.Geometry) *Force {
	f := &Force{geom: g}
	for mu := range lattice.Nd {
		f.M[mu] = make([]su3.Matrix, g.Volume())
	}
	return f
}

func (f *Force) Geometry() *lattice.Geometry { return f.geom }

// Zero clears every entry.
func (f *Force) Zero() {
	for mu := range lattice.Nd {
		clear(f.M[mu])
	}
}

// AddScaled adds alpha*o.
func (f *Force) AddScaled(alpha float64, o *Force) {
	mustMatch(f.geom, o.geom)
	a := complex(alpha, 0)
	for mu := range lattice.Nd {
		dst := f.M[mu]
		for i, m := range o.M[mu] {
			dst[i] = dst[i].Add(m.Scale(a))
		}
	}
}

// Contract returns sum_{mu,x} Re Tr[x_mu(x) f_mu(x)].
func (f *Force) Contract(x *Force) float64 {
	mustMatch(f.geom, x.geom)
	var s float64
	for mu := range lattice.Nd {
		for i := range f.M[mu] {
			s += su3.ReTraceMul(x.M[mu][i], f.M[mu][i])
		}
	}
	return s
}

func mustMatch(a, b *lattice.Geometry) {
	if !a.Same(b) {
		panic("field: geometry mismatch")
	}
}

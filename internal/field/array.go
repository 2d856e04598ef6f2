package field

import (
	"math"
	"math/rand/v2"

	"github.com/samcharles93/dirac/internal/lattice"
)

// FermionArray is an ordered set of 4D fermions indexed by the fifth
// coordinate. All slices share one geometry.
type FermionArray struct {
	geom   *lattice.Geometry
	Slices []*Fermion
}

// NewFermionArray returns n5 zero slices.
func NewFermionArray(g *lattice.Geometry, n5 int) *FermionArray {
	a := &FermionArray{geom: g, Slices: make([]*Fermion, n5)}
	for s := range a.Slices {
		a.Slices[s] = NewFermion(g)
	}
	return a
}

// RandomFermionArray fills every slice with Gaussian noise.
func RandomFermionArray(g *lattice.Geometry, n5 int, r *rand.Rand) *FermionArray {
	a := &FermionArray{geom: g, Slices: make([]*Fermion, n5)}
	for s := range a.Slices {
		a.Slices[s] = RandomFermion(g, r)
	}
	return a
}

func (a *FermionArray) Geometry() *lattice.Geometry { return a.geom }

// N5 returns the fifth-dimension extent.
func (a *FermionArray) N5() int { return len(a.Slices) }

func (a *FermionArray) Clone() *FermionArray {
	c := &FermionArray{geom: a.geom, Slices: make([]*Fermion, len(a.Slices))}
	for s, f := range a.Slices {
		c.Slices[s] = f.Clone()
	}
	return c
}

func (a *FermionArray) ZeroCB(cb lattice.Checkerboard) {
	for _, f := range a.Slices {
		f.ZeroCB(cb)
	}
}

func (a *FermionArray) AXPYCB(alpha complex128, x *FermionArray, cb lattice.Checkerboard) {
	mustMatchArray(a, x)
	for s, f := range a.Slices {
		f.AXPYCB(alpha, x.Slices[s], cb)
	}
}

func (a *FermionArray) InnerCB(o *FermionArray, cb lattice.Checkerboard) complex128 {
	mustMatchArray(a, o)
	var r complex128
	for s, f := range a.Slices {
		r += f.InnerCB(o.Slices[s], cb)
	}
	return r
}

func (a *FermionArray) Norm2CB(cb lattice.Checkerboard) float64 {
	var r float64
	for _, f := range a.Slices {
		r += f.Norm2CB(cb)
	}
	return r
}

func (a *FermionArray) DistanceCB(o *FermionArray, cb lattice.Checkerboard) float64 {
	mustMatchArray(a, o)
	var r float64
	for s, f := range a.Slices {
		d := f.DistanceCB(o.Slices[s], cb)
		r += d * d
	}
	return math.Sqrt(r)
}

func mustMatchArray(a, b *FermionArray) {
	mustMatch(a.geom, b.geom)
	if len(a.Slices) != len(b.Slices) {
		panic("field: fifth-dimension extent mismatch")
	}
}

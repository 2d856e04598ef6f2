package field

import (
	"math"
	"math/rand/v2"

	"github.com/samcharles93/dirac/internal/lattice"
	"github.com/samcharles93/dirac/internal/spin"
)

// Fermion is a spinor-valued field over all sites of a 4D lattice.
type Fermion struct {
	geom  *lattice.Geometry
	Sites []spin.Spinor
}

// NewFermion returns a zero field.
func NewFermion(g *lattice.Geometry) *Fermion {
	return &Fermion{geom: g, Sites: make([]spin.Spinor, g.Volume())}
}

// RandomFermion fills every site with Gaussian noise.
func RandomFermion(g *lattice.Geometry, r *rand.Rand) *Fermion {
	f := NewFermion(g)
	for i := range f.Sites {
		f.Sites[i] = spin.RandomSpinor(r)
	}
	return f
}

func (f *Fermion) Geometry() *lattice.Geometry { return f.geom }

func (f *Fermion) Zero() { clear(f.Sites) }

// ZeroCB clears the sites of one checkerboard.
func (f *Fermion) ZeroCB(cb lattice.Checkerboard) {
	for i := range f.geom.Sites(cb) {
		f.Sites[i] = spin.Spinor{}
	}
}

// Clone returns a deep copy.
func (f *Fermion) Clone() *Fermion {
	return &Fermion{geom: f.geom, Sites: append([]spin.Spinor(nil), f.Sites...)}
}

// Copy overwrites f with o.
func (f *Fermion) Copy(o *Fermion) {
	mustMatch(f.geom, o.geom)
	copy(f.Sites, o.Sites)
}

// CopyCB overwrites the sites of one checkerboard with those of o.
func (f *Fermion) CopyCB(o *Fermion, cb lattice.Checkerboard) {
	mustMatch(f.geom, o.geom)
	for i := range f.geom.Sites(cb) {
		f.Sites[i] = o.Sites[i]
	}
}

// ScaleCB multiplies the sites of one checkerboard by alpha.
func (f *Fermion) ScaleCB(alpha float64, cb lattice.Checkerboard) {
	a := complex(alpha, 0)
	for i := range f.geom.Sites(cb) {
		f.Sites[i] = f.Sites[i].Scale(a)
	}
}

// AXPY adds alpha*x on every site.
func (f *Fermion) AXPY(alpha complex128, x *Fermion) {
	mustMatch(f.geom, x.geom)
	for i := range f.Sites {
		f.Sites[i] = f.Sites[i].AXPY(alpha, x.Sites[i])
	}
}

// AXPYCB adds alpha*x on one checkerboard.
func (f *Fermion) AXPYCB(alpha complex128, x *Fermion, cb lattice.Checkerboard) {
	mustMatch(f.geom, x.geom)
	for i := range f.geom.Sites(cb) {
		f.Sites[i] = f.Sites[i].AXPY(alpha, x.Sites[i])
	}
}

// Inner returns <f, o> summed over all sites.
func (f *Fermion) Inner(o *Fermion) complex128 {
	mustMatch(f.geom, o.geom)
	var s complex128
	for i := range f.Sites {
		s += f.Sites[i].Dot(o.Sites[i])
	}
	return s
}

// InnerCB returns <f, o> restricted to one checkerboard.
func (f *Fermion) InnerCB(o *Fermion, cb lattice.Checkerboard) complex128 {
	mustMatch(f.geom, o.geom)
	var s complex128
	for i := range f.geom.Sites(cb) {
		s += f.Sites[i].Dot(o.Sites[i])
	}
	return s
}

// Norm2CB returns |f|^2 on one checkerboard.
func (f *Fermion) Norm2CB(cb lattice.Checkerboard) float64 {
	var s float64
	for i := range f.geom.Sites(cb) {
		s += f.Sites[i].Norm2()
	}
	return s
}

// Norm2 returns |f|^2.
func (f *Fermion) Norm2() float64 {
	return f.Norm2CB(lattice.Even) + f.Norm2CB(lattice.Odd)
}

// DistanceCB returns |f - o| on one checkerboard.
func (f *Fermion) DistanceCB(o *Fermion, cb lattice.Checkerboard) float64 {
	mustMatch(f.geom, o.geom)
	var s float64
	for i := range f.geom.Sites(cb) {
		s += f.Sites[i].Sub(o.Sites[i]).Norm2()
	}
	return math.Sqrt(s)
}

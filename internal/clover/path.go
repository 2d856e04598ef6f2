package clover

import (
	"github.com/samcharles93/dirac/internal/field"
	"github.com/samcharles93/dirac/internal/lattice"
	"github.com/samcharles93/dirac/internal/su3"
)

type step struct {
	dir int
	fwd bool
}

// link is one gauge link visited by a path; dagger marks a backward step.
type link struct {
	mu, site int
	dagger   bool
}

type path [4]link

// leaves returns the four plaquettes in the mu-nu plane that start and end at
// x, one per quadrant, all with the same orientation.
func leaves(mu, nu int) [4][4]step {
	return [4][4]step{
		{{mu, true}, {nu, true}, {mu, false}, {nu, false}},
		{{nu, true}, {mu, false}, {nu, false}, {mu, true}},
		{{mu, false}, {nu, false}, {mu, true}, {nu, true}},
		{{nu, false}, {mu, true}, {nu, true}, {mu, false}},
	}
}

func walk(g *lattice.Geometry, x int, steps [4]step) path {
	var p path
	y := x
	for i, s := range steps {
		if s.fwd {
			p[i] = link{mu: s.dir, site: y}
			y = g.Forward(y, s.dir)
		} else {
			y = g.Backward(y, s.dir)
			p[i] = link{mu: s.dir, site: y, dagger: true}
		}
	}
	return p
}

func matrixOf(u *field.Gauge, l link) su3.Matrix {
	m := u.Links[l.mu][l.site]
	if l.dagger {
		return m.Adj()
	}
	return m
}

// product returns the ordered product of p[lo:hi], or the identity when the
// range is empty.
func product(u *field.Gauge, p path, lo, hi int) su3.Matrix {
	r := su3.Identity()
	for i := lo; i < hi; i++ {
		r = su3.Mul(r, matrixOf(u, p[i]))
	}
	return r
}

// pathDeriv adds the gauge derivative of Re Tr[P c] to f, P being the
// ordered product along p.
//
// Writing P = X W Y around the link W, a forward link contributes U Y c X
// and a backward link (W = U†) contributes -Y c X U†.
func pathDeriv(f *field.Force, u *field.Gauge, p path, c su3.Matrix) {
	for k, l := range p {
		x := product(u, p, 0, k)
		y := product(u, p, k+1, len(p))
		ycx := su3.Mul(su3.Mul(y, c), x)
		m := u.Links[l.mu][l.site]
		if l.dagger {
			f.M[l.mu][l.site] = f.M[l.mu][l.site].Sub(su3.MulAdj(ycx, m))
		} else {
			f.M[l.mu][l.site] = f.M[l.mu][l.site].Add(su3.Mul(m, ycx))
		}
	}
}

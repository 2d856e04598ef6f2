package check

import (
	"math"
	"math/cmplx"
	"math/rand/v2"

	"github.com/samcharles93/dirac/internal/field"
	"github.com/samcharles93/dirac/internal/lattice"
	"github.com/samcharles93/dirac/internal/spin"
	"github.com/samcharles93/dirac/internal/su3"
)

// Check names, in the order Run evaluates them.
const (
	Hermiticity  = "hermiticity"
	Schur        = "schur_identity"
	RoundTrip    = "diag_round_trip"
	LogDet       = "log_det"
	FreeField    = "free_field"
	DerivEvenOdd = "deriv_even_odd"
	DerivOddOdd  = "deriv_odd_odd"
	DerivLogDet  = "deriv_log_det"
)

// Default tolerances. Identities that hold to rounding use tolIdentity; the
// force checks compare against a central difference.
const (
	tolIdentity = 1e-10
	tolDeriv    = 1e-6
	fdStep      = 1e-4
)

type checkFn func(t *Target, r *rand.Rand) (Result, error)

func relative(diff, scale float64) float64 {
	if scale == 0 {
		return diff
	}
	return diff / scale
}

func randomDirection(g *lattice.Geometry, r *rand.Rand) *field.Force {
	x := field.NewForce(g)
	for mu := range lattice.Nd {
		for i := range x.M[mu] {
			x.M[mu][i] = su3.RandomAntiHermitian(r)
		}
	}
	return x
}

// perturb returns (1 + eps X) U.
func perturb(u *field.Gauge, x *field.Force, eps float64) *field.Gauge {
	p := u.Clone()
	id := su3.Identity()
	for mu := range lattice.Nd {
		for i := range p.Links[mu] {
			p.Links[mu][i] = su3.Mul(id.Add(x.M[mu][i].Scale(complex(eps, 0))), u.Links[mu][i])
		}
	}
	return p
}

// centralDiff differentiates action along x at the target's gauge field.
func centralDiff(t *Target, x *field.Force, action func(*Target) (float64, error)) (float64, error) {
	var s [2]float64
	for i, eps := range []float64{fdStep, -fdStep} {
		c, err := t.recreate(perturb(t.Gauge, x, eps))
		if err != nil {
			return 0, err
		}
		if s[i], err = action(c); err != nil {
			return 0, err
		}
	}
	return (s[0] - s[1]) / (2 * fdStep), nil
}

// momentum returns the lattice momentum with one unit in every direction.
func momentum(g *lattice.Geometry) [lattice.Nd]float64 {
	var p [lattice.Nd]float64
	for mu := range lattice.Nd {
		p[mu] = 2 * math.Pi / float64(g.Extent(mu))
	}
	return p
}

func planeWave(g *lattice.Geometry, p [lattice.Nd]float64, amp spin.Spinor) *field.Fermion {
	f := field.NewFermion(g)
	for x := range f.Sites {
		c := g.Coords(x)
		var phase float64
		for mu := range lattice.Nd {
			phase += p[mu] * float64(c[mu])
		}
		f.Sites[x] = amp.Scale(cmplx.Exp(complex(0, phase)))
	}
	return f
}

// freeHop returns the spin matrix -1/2 D(p) acting on a plane wave of
// momentum p: -sum c_mu cos p_mu + i sign sum c_mu sin p_mu gamma_mu.
func freeHop(p [lattice.Nd]float64, c [lattice.Nd]float64, sign spin.Sign) spin.Matrix {
	var m spin.Matrix
	for mu := range lattice.Nd {
		g := spin.Gamma(1 << mu)
		for a := range spin.Ns {
			m[a][a] -= complex(c[mu]*math.Cos(p[mu]), 0)
			for b := range spin.Ns {
				m[a][b] += complex(0, sign.Float()*c[mu]*math.Sin(p[mu])) * g[a][b]
			}
		}
	}
	return m
}

// siteResidual returns max_x |got(x) - m want(x)| / |want(x)|.
func siteResidual(got, want *field.Fermion, m spin.Matrix) float64 {
	var worst float64
	for x := range got.Sites {
		w := m.Apply(want.Sites[x])
		d := math.Sqrt(got.Sites[x].Sub(w).Norm2())
		worst = max(worst, relative(d, math.Sqrt(want.Sites[x].Norm2())))
	}
	return worst
}

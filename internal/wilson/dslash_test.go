package wilson

import (
	"math"
	"math/cmplx"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samcharles93/dirac/internal/field"
	"github.com/samcharles93/dirac/internal/lattice"
	"github.com/samcharles93/dirac/internal/spin"
	"github.com/samcharles93/dirac/internal/su3"
)

func newGeometry(t testing.TB, dims [lattice.Nd]int) *lattice.Geometry {
	t.Helper()
	g, err := lattice.NewGeometry(dims)
	require.NoError(t, err)
	return g
}

var anisotropic = Aniso{Enabled: true, TDir: 3, Xi0: 2.0, Nu: 0.9}

func TestHermiticity(t *testing.T) {
	t.Parallel()
	g := newGeometry(t, [lattice.Nd]int{4, 2, 4, 2})
	r := rand.New(rand.NewPCG(21, 1))
	u := field.RandomGauge(g, r, 0.8)

	for _, aniso := range []Aniso{Isotropic(), anisotropic} {
		d, err := New(u, aniso)
		require.NoError(t, err)
		for _, cb := range []lattice.Checkerboard{lattice.Even, lattice.Odd} {
			for _, sign := range []spin.Sign{spin.Plus, spin.Minus} {
				chi := field.RandomFermion(g, r)
				psi := field.RandomFermion(g, r)
				dpsi := field.NewFermion(g)
				dchi := field.NewFermion(g)
				d.Apply(dpsi, psi, sign, cb)
				d.Apply(dchi, chi, sign.Flip(), cb.Other())

				lhs := chi.InnerCB(dpsi, cb)
				rhs := cmplx.Conj(psi.InnerCB(dchi, cb.Other()))
				require.InDeltaf(t, 0, cmplx.Abs(lhs-rhs), 1e-9*cmplx.Abs(lhs), "cb=%v sign=%v", cb, sign)
			}
		}
	}
}

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

func action(t *testing.T, u *field.Gauge, aniso Aniso, chi, psi *field.Fermion, sign spin.Sign, cb lattice.Checkerboard) float64 {
	t.Helper()
	d, err := New(u, aniso)
	require.NoError(t, err)
	out := field.NewFermion(u.Geometry())
	d.Apply(out, psi, sign, cb)
	return real(chi.InnerCB(out, cb))
}

func TestDerivMatchesFiniteDifference(t *testing.T) {
	t.Parallel()
	g := newGeometry(t, [lattice.Nd]int{4, 2, 4, 2})
	r := rand.New(rand.NewPCG(22, 2))
	u := field.RandomGauge(g, r, 0.8)

	x := field.NewForce(g)
	for mu := range lattice.Nd {
		for i := range x.M[mu] {
			x.M[mu][i] = su3.RandomAntiHermitian(r)
		}
	}

	const eps = 1e-3
	for _, aniso := range []Aniso{Isotropic(), anisotropic} {
		for _, cb := range []lattice.Checkerboard{lattice.Even, lattice.Odd} {
			for _, sign := range []spin.Sign{spin.Plus, spin.Minus} {
				chi := field.RandomFermion(g, r)
				psi := field.RandomFermion(g, r)

				d, err := New(u, aniso)
				require.NoError(t, err)
				f := field.NewForce(g)
				d.Deriv(f, chi, psi, sign, cb)

				// The hopping term is linear in each link, so the difference is exact.
				want := (action(t, perturb(u, x, eps), aniso, chi, psi, sign, cb) - action(t, u, aniso, chi, psi, sign, cb)) / eps
				got := f.Contract(x)
				require.InDeltaf(t, want, got, 1e-7*math.Abs(want), "cb=%v sign=%v", cb, sign)
			}
		}
	}
}

func TestDerivAccumulates(t *testing.T) {
	t.Parallel()
	g := newGeometry(t, [lattice.Nd]int{2, 2, 2, 2})
	r := rand.New(rand.NewPCG(23, 3))
	u := field.RandomGauge(g, r, 0.5)
	d, err := New(u, Isotropic())
	require.NoError(t, err)
	chi := field.RandomFermion(g, r)
	psi := field.RandomFermion(g, r)

	once := field.NewForce(g)
	d.Deriv(once, chi, psi, spin.Plus, lattice.Odd)
	twice := field.NewForce(g)
	d.Deriv(twice, chi, psi, spin.Plus, lattice.Odd)
	d.Deriv(twice, chi, psi, spin.Plus, lattice.Odd)

	twice.AddScaled(-2, once)
	for mu := range lattice.Nd {
		for i := range twice.M[mu] {
			require.InDelta(t, 0, su3.FrobeniusDistance(twice.M[mu][i], su3.Matrix{}), 1e-12)
		}
	}
}

// A single momentum mode on a free field is an eigenvector of D with
// eigenvalue sum_mu (2 cos p_mu - 2 i s sin p_mu g_mu).
func TestFreeFieldPlaneWave(t *testing.T) {
	t.Parallel()
	g := newGeometry(t, [lattice.Nd]int{4, 4, 4, 4})
	r := rand.New(rand.NewPCG(24, 4))
	d, err := New(field.UnitGauge(g), Isotropic())
	require.NoError(t, err)

	n := [lattice.Nd]int{1, 0, 2, 3}
	var p [lattice.Nd]float64
	for mu := range lattice.Nd {
		p[mu] = 2 * math.Pi * float64(n[mu]) / float64(g.Extent(mu))
	}
	amp := spin.RandomSpinor(r)

	psi := field.NewFermion(g)
	for i := range psi.Sites {
		c := g.Coords(i)
		var phase float64
		for mu := range lattice.Nd {
			phase += p[mu] * float64(c[mu])
		}
		psi.Sites[i] = amp.Scale(cmplx.Exp(complex(0, phase)))
	}

	for _, sign := range []spin.Sign{spin.Plus, spin.Minus} {
		var k spin.Matrix
		for mu := range lattice.Nd {
			gm := spin.Gamma(1 << mu)
			for a := range spin.Ns {
				k[a][a] += complex(2*math.Cos(p[mu]), 0)
				for b := range spin.Ns {
					k[a][b] += complex(0, -2*sign.Float()*math.Sin(p[mu])) * gm[a][b]
				}
			}
		}

		out := field.NewFermion(g)
		d.Apply(out, psi, sign, lattice.Even)
		d.Apply(out, psi, sign, lattice.Odd)
		for i := range out.Sites {
			want := k.Apply(psi.Sites[i])
			require.InDelta(t, 0, math.Sqrt(out.Sites[i].Sub(want).Norm2()), 1e-10)
		}
	}
}

func TestAniso(t *testing.T) {
	t.Parallel()
	require.Equal(t, [lattice.Nd]float64{1, 1, 1, 1}, Isotropic().Coefficients())
	require.Equal(t, [lattice.Nd]float64{0.45, 0.45, 0.45, 1}, anisotropic.Coefficients())

	require.ErrorIs(t, Aniso{Enabled: true, TDir: 4, Xi0: 1}.Validate(), ErrBadAnisotropy)
	require.ErrorIs(t, Aniso{Enabled: true, TDir: 3, Xi0: 0}.Validate(), ErrBadAnisotropy)

	g := newGeometry(t, [lattice.Nd]int{2, 2, 2, 2})
	_, err := New(field.UnitGauge(g), Aniso{Enabled: true, Xi0: -1})
	require.ErrorIs(t, err, ErrBadAnisotropy)
}

func BenchmarkApply(b *testing.B) {
	g := newGeometry(b, [lattice.Nd]int{8, 8, 8, 8})
	r := rand.New(rand.NewPCG(25, 5))
	d, err := New(field.RandomGauge(g, r, 1), Isotropic())
	require.NoError(b, err)
	psi := field.RandomFermion(g, r)
	out := field.NewFermion(g)
	for b.Loop() {
		d.Apply(out, psi, spin.Plus, lattice.Odd)
	}
}

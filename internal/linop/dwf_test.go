package linop

import (
	"fmt"
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samcharles93/dirac/internal/field"
	"github.com/samcharles93/dirac/internal/lattice"
	"github.com/samcharles93/dirac/internal/spin"
	"github.com/samcharles93/dirac/internal/su3"
	"github.com/samcharles93/dirac/internal/tensor"
)

func createdDWF(t testing.TB, u *field.Gauge, p DWFParams, opts ...Option) *DWFArray {
	t.Helper()
	op := NewDWF(opts...)
	require.NoError(t, op.Create(u, p))
	return op
}

func TestDWFDiagRoundTrip(t *testing.T) {
	t.Parallel()
	g := geometry(t, 2, 2, 2, 2)
	u := field.UnitGauge(g)
	r := rng(30)
	for _, n5 := range []int{2, 3, 4, 5, 7, 8} {
		for _, mf := range []float64{0, 0.04, 0.5, -0.3} {
			op := createdDWF(t, u, DWFParams{M5: 1.8, Mf: mf, N5: n5})
			for _, sign := range signs {
				for _, cb := range cbs {
					name := fmt.Sprintf("n5=%d mf=%g sign=%v cb=%v", n5, mf, sign, cb)
					psi := field.RandomFermionArray(g, n5, r)
					tmp := field.NewFermionArray(g, n5)
					back := field.NewFermionArray(g, n5)
					scale := math.Sqrt(psi.Norm2CB(cb))

					require.NoError(t, op.ApplyDiag(tmp, psi, sign, cb))
					require.NoError(t, op.ApplyDiagInv(back, tmp, sign, cb))
					require.InDeltaf(t, 0, back.DistanceCB(psi, cb), 1e-12*scale, "inv(diag) %s", name)

					require.NoError(t, op.ApplyDiagInv(tmp, psi, sign, cb))
					require.NoError(t, op.ApplyDiag(back, tmp, sign, cb))
					require.InDeltaf(t, 0, back.DistanceCB(psi, cb), 1e-12*scale, "diag(inv) %s", name)
				}
			}
		}
	}
}

// denseDiag builds the 12*N5 square site block directly from its definition,
// indexed s*12 + spin*3 + colour.
func denseDiag(p DWFParams, sign spin.Sign) tensor.Mat {
	n5 := p.N5
	m := tensor.NewMat(n5*spin.Components, n5*spin.Components)
	a := complex(5-p.M5, 0)
	for s := range n5 {
		for sp := range spin.Ns {
			chi := spin.Chirality(sp)
			fwd := 0.5 * (1 - sign.Float()*chi)
			bwd := 0.5 * (1 + sign.Float()*chi)
			for c := range su3.Nc {
				row := s*spin.Components + sp*su3.Nc + c
				m.Add(row, row, a)

				up, wu := s+1, fwd
				if up == n5 {
					up, wu = 0, -p.Mf*fwd
				}
				m.Add(row, up*spin.Components+sp*su3.Nc+c, complex(wu, 0))

				dn, wd := s-1, bwd
				if dn < 0 {
					dn, wd = n5-1, -p.Mf*bwd
				}
				m.Add(row, dn*spin.Components+sp*su3.Nc+c, complex(wd, 0))
			}
		}
	}
	return m
}

func flattenSite(a *field.FermionArray, x int) []complex128 {
	v := make([]complex128, a.N5()*spin.Components)
	for s, f := range a.Slices {
		f.Sites[x].Flatten(v[s*spin.Components : (s+1)*spin.Components])
	}
	return v
}

func TestDWFDiagMatchesDense(t *testing.T) {
	t.Parallel()
	g := geometry(t, 2, 2, 2, 2)
	u := field.RandomGauge(g, rng(31), 0.5)
	r := rng(32)
	for _, n5 := range []int{4, 8, 5} {
		p := DWFParams{M5: 1.5, Mf: 0.1, N5: n5}
		op := createdDWF(t, u, p)
		for _, sign := range signs {
			dense := denseDiag(p, sign)
			lu, err := tensor.Factor(&dense)
			require.NoError(t, err)

			psi := field.RandomFermionArray(g, n5, r)
			diag := field.NewFermionArray(g, n5)
			inv := field.NewFermionArray(g, n5)
			require.NoError(t, op.ApplyDiag(diag, psi, sign, lattice.Even))
			require.NoError(t, op.ApplyDiagInv(inv, psi, sign, lattice.Even))

			for x := range g.Sites(lattice.Even) {
				in := flattenSite(psi, x)
				want := make([]complex128, len(in))
				tensor.MatVec(want, &dense, in)
				got := flattenSite(diag, x)
				for i := range want {
					require.InDelta(t, 0, cmplx.Abs(got[i]-want[i]), 1e-12)
				}

				want = lu.Solve(in)
				got = flattenSite(inv, x)
				for i := range want {
					require.InDeltaf(t, 0, cmplx.Abs(got[i]-want[i]), 1e-12, "n5=%d sign=%v", n5, sign)
				}
			}

			// ln|det| per site is 12 ln|a^N5 + (-1)^N5 mf|.
			ld, err := op.LogDetEvenEven()
			require.NoError(t, err)
			require.InDelta(t, real(lu.LogDet())*float64(g.CBVolume()), ld, 1e-10)
		}

		// The MINUS block is the adjoint of the PLUS block.
		plus, minus := denseDiag(p, spin.Plus), denseDiag(p, spin.Minus)
		adj := plus.Adj()
		require.Zero(t, tensor.MaxAbsDiff(&adj, &minus))
	}
}

func TestDWFHermiticity(t *testing.T) {
	t.Parallel()
	g := geometry(t, 4, 2, 2, 2)
	u := field.RandomGauge(g, rng(33), 0.7)
	r := rng(34)
	op := createdDWF(t, u, DWFParams{M5: 1.6, Mf: 0.05, N5: 6})

	type pair struct {
		name    string
		b, badj func(chi, psi *field.FermionArray, sign spin.Sign) error
		out, in lattice.Checkerboard
	}
	pairs := []pair{
		{"EvenEven", op.EvenEven, op.EvenEven, lattice.Even, lattice.Even},
		{"OddOdd", op.OddOdd, op.OddOdd, lattice.Odd, lattice.Odd},
		{"EvenEvenInv", op.EvenEvenInv, op.EvenEvenInv, lattice.Even, lattice.Even},
		{"EvenOdd", op.EvenOdd, op.OddEven, lattice.Even, lattice.Odd},
		{"Operator", op.Operator, op.Operator, lattice.Odd, lattice.Odd},
	}
	for _, pr := range pairs {
		for _, sign := range signs {
			chi := field.RandomFermionArray(g, 6, r)
			psi := field.RandomFermionArray(g, 6, r)
			chi.ZeroCB(pr.out.Other())
			psi.ZeroCB(pr.in.Other())
			bpsi := field.NewFermionArray(g, 6)
			bchi := field.NewFermionArray(g, 6)
			require.NoError(t, pr.b(bpsi, psi, sign))
			require.NoError(t, pr.badj(bchi, chi, sign.Flip()))
			lhs := chi.InnerCB(bpsi, pr.out)
			rhs := cmplx.Conj(psi.InnerCB(bchi, pr.in))
			require.InDeltaf(t, 0, cmplx.Abs(lhs-rhs), 1e-10*cmplx.Abs(lhs), "%s sign=%v", pr.name, sign)
		}
	}
}

func TestDWFSchurIdentity(t *testing.T) {
	t.Parallel()
	g := geometry(t, 2, 4, 2, 2)
	u := field.RandomGauge(g, rng(35), 0.7)
	r := rng(36)
	const n5 = 4
	op := createdDWF(t, u, DWFParams{M5: 1.4, Mf: 0.2, N5: n5})

	for _, sign := range signs {
		psi := field.RandomFermionArray(g, n5, r)
		psi.ZeroCB(lattice.Even)

		// The null vector of the even rows has psi_e = -even.
		t1 := field.NewFermionArray(g, n5)
		even := field.NewFermionArray(g, n5)
		require.NoError(t, op.EvenOdd(t1, psi, sign))
		require.NoError(t, op.EvenEvenInv(even, t1, sign))

		row := field.NewFermionArray(g, n5)
		require.NoError(t, op.EvenEven(row, even, sign))
		row.AXPYCB(-1, t1, lattice.Even)
		require.InDelta(t, 0, math.Sqrt(row.Norm2CB(lattice.Even)), 1e-12*math.Sqrt(t1.Norm2CB(lattice.Even)))

		// Odd rows equal the Schur complement.
		full := field.NewFermionArray(g, n5)
		hop := field.NewFermionArray(g, n5)
		require.NoError(t, op.OddOdd(full, psi, sign))
		require.NoError(t, op.OddEven(hop, even, sign))
		full.AXPYCB(-1, hop, lattice.Odd)

		got := field.NewFermionArray(g, n5)
		require.NoError(t, op.Operator(got, psi, sign))
		require.InDelta(t, 0, got.DistanceCB(full, lattice.Odd), 1e-12*math.Sqrt(full.Norm2CB(lattice.Odd)))
	}
}

func TestDWFCreateRejects(t *testing.T) {
	t.Parallel()
	u := field.UnitGauge(geometry(t, 2, 2, 2, 2))

	err := NewDWF().Create(u, DWFParams{M5: 1.8, N5: 1})
	require.Equal(t, KindConfiguration, KindOf(err))

	err = NewDWF().Create(u, DWFParams{M5: 5, N5: 4})
	require.Equal(t, KindConfiguration, KindOf(err))

	// a = 1, N5 = 2: the pivot 1 + mf vanishes at mf = -1.
	err = NewDWF().Create(u, DWFParams{M5: 4, Mf: -1, N5: 2})
	require.Equal(t, KindNumericalBreakdown, KindOf(err))

	// Odd N5 flips the sign of the wall term.
	require.NoError(t, NewDWF().Create(u, DWFParams{M5: 4, Mf: -1, N5: 3}))
	err = NewDWF().Create(u, DWFParams{M5: 4, Mf: 1, N5: 3})
	require.Equal(t, KindNumericalBreakdown, KindOf(err))

	require.Equal(t, KindConfiguration, KindOf(NewDWF().Create(nil, DWFParams{M5: 1, N5: 4})))
}

func TestDWFUsageErrors(t *testing.T) {
	t.Parallel()
	g := geometry(t, 2, 2, 2, 2)
	op := NewDWF()
	psi := field.NewFermionArray(g, 4)
	requireIs(t, op.Operator(psi, psi, spin.Plus), ErrNotCreated)
	_, err := op.LogDetEvenEven()
	requireIs(t, err, ErrNotCreated)
	require.Zero(t, op.NFlops())

	require.NoError(t, op.Create(field.UnitGauge(g), DWFParams{M5: 1.8, N5: 4}))
	requireIs(t, op.Operator(field.NewFermionArray(g, 5), psi, spin.Plus), ErrGeometry)
	requireIs(t, op.ApplyDiag(psi, psi, spin.Plus, lattice.Checkerboard(2)), ErrGeometry)
	requireIs(t, op.DerivEvenEven(field.NewForce(geometry(t, 4, 2, 2, 2)), psi, psi, spin.Plus), ErrGeometry)
	require.Equal(t, KindUsage, KindOf(op.ApplyDiagInv(psi, psi, spin.Sign(3), lattice.Even)))
}

func TestDWFDerivatives(t *testing.T) {
	t.Parallel()
	g := geometry(t, 4, 2, 2, 2)
	r := rng(37)
	u := field.RandomGauge(g, r, 0.7)
	x := randomDirection(g, r)
	p := DWFParams{M5: 1.8, Mf: 0.1, N5: 3}
	const eps = 1e-3

	for _, cb := range cbs {
		for _, sign := range signs {
			chi := field.RandomFermionArray(g, p.N5, r)
			psi := field.RandomFermionArray(g, p.N5, r)
			action := func(u *field.Gauge) float64 {
				op := createdDWF(t, u, p)
				out := field.NewFermionArray(g, p.N5)
				require.NoError(t, op.ApplyOffDiag(out, psi, sign, cb))
				return real(chi.InnerCB(out, cb))
			}
			want := (action(perturb(u, x, eps)) - action(u)) / eps

			op := createdDWF(t, u, p)
			f := field.NewForce(g)
			if cb == lattice.Even {
				require.NoError(t, op.DerivEvenOdd(f, chi, psi, sign))
			} else {
				require.NoError(t, op.DerivOddEven(f, chi, psi, sign))
			}
			require.InDelta(t, want, f.Contract(x), 1e-7*math.Abs(want))

			zero := field.NewForce(g)
			require.NoError(t, op.DerivEvenEven(zero, chi, psi, sign))
			require.NoError(t, op.DerivOddOdd(zero, chi, psi, sign))
			require.NoError(t, op.DerivLogDetEvenEven(zero, sign))
			require.Zero(t, zero.Contract(x))
		}
	}
}

func TestDWFNFlops(t *testing.T) {
	t.Parallel()
	small := geometry(t, 4, 4, 4, 4)
	large := geometry(t, 4, 4, 8, 4)
	p := DWFParams{M5: 1.8, Mf: 0.02, N5: 8}
	perSite := uint64(2*1320 + 8*12 + 16*12 + 4*12)

	a := createdDWF(t, field.UnitGauge(small), p)
	b := createdDWF(t, field.RandomGauge(small, rng(38), 1), p)
	c := createdDWF(t, field.UnitGauge(large), p)
	require.Equal(t, 8*perSite*uint64(small.CBVolume()), a.NFlops())
	require.Equal(t, a.NFlops(), b.NFlops())
	require.Equal(t, 2*a.NFlops(), c.NFlops())

	p.N5 = 4
	require.Equal(t, a.NFlops()/2, createdDWF(t, field.UnitGauge(small), p).NFlops())
}

func BenchmarkDWFDiagInv(b *testing.B) {
	g := geometry(b, 4, 4, 4, 4)
	r := rng(39)
	op := createdDWF(b, field.UnitGauge(g), DWFParams{M5: 1.8, Mf: 0.02, N5: 16})
	psi := field.RandomFermionArray(g, 16, r)
	chi := field.NewFermionArray(g, 16)
	for b.Loop() {
		if err := op.ApplyDiagInv(chi, psi, spin.Plus, lattice.Even); err != nil {
			b.Fatal(err)
		}
	}
}

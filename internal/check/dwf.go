package check

import (
	"math"
	"math/cmplx"
	"math/rand/v2"

	"github.com/samcharles93/dirac/internal/field"
	"github.com/samcharles93/dirac/internal/lattice"
	"github.com/samcharles93/dirac/internal/spin"
	"github.com/samcharles93/dirac/internal/tensor"
	"github.com/samcharles93/dirac/internal/wilson"
)

type dwfBlock func(chi, psi *field.FermionArray, sign spin.Sign) error

func dwfChecks() []namedCheck {
	return []namedCheck{
		{Hermiticity, dwfHermiticity},
		{Schur, dwfSchur},
		{RoundTrip, dwfRoundTrip},
		{LogDet, dwfLogDet},
		{FreeField, dwfFreeField},
		{DerivEvenOdd, dwfDerivEvenOdd},
	}
}

func randomArrayOn(g *lattice.Geometry, n5 int, r *rand.Rand, cb lattice.Checkerboard) *field.FermionArray {
	a := field.RandomFermionArray(g, n5, r)
	a.ZeroCB(cb.Other())
	return a
}

func dwfHermiticity(t *Target, r *rand.Rand) (Result, error) {
	op, g, n5 := t.DWF, t.Geometry, t.N5()
	var worst float64
	for _, p := range []struct {
		b, badj dwfBlock
		out, in lattice.Checkerboard
	}{
		{op.Operator, op.Operator, lattice.Odd, lattice.Odd},
		{op.EvenEven, op.EvenEven, lattice.Even, lattice.Even},
		{op.EvenEvenInv, op.EvenEvenInv, lattice.Even, lattice.Even},
		{op.EvenOdd, op.OddEven, lattice.Even, lattice.Odd},
	} {
		chi, psi := randomArrayOn(g, n5, r, p.out), randomArrayOn(g, n5, r, p.in)
		bpsi, bchi := field.NewFermionArray(g, n5), field.NewFermionArray(g, n5)
		if err := p.b(bpsi, psi, spin.Plus); err != nil {
			return Result{}, err
		}
		if err := p.badj(bchi, chi, spin.Minus); err != nil {
			return Result{}, err
		}
		lhs := chi.InnerCB(bpsi, p.out)
		rhs := cmplx.Conj(psi.InnerCB(bchi, p.in))
		worst = max(worst, relative(cmplx.Abs(lhs-rhs), cmplx.Abs(lhs)))
	}
	return result(Hermiticity, worst, tolIdentity, "Operator, M_ee, M_ee^-1 and M_eo against their MINUS adjoints"), nil
}

func dwfSchur(t *Target, r *rand.Rand) (Result, error) {
	op, g, n5 := t.DWF, t.Geometry, t.N5()
	var worst float64
	for _, sign := range []spin.Sign{spin.Plus, spin.Minus} {
		psi := randomArrayOn(g, n5, r, lattice.Odd)
		eo, even, oe := field.NewFermionArray(g, n5), field.NewFermionArray(g, n5), field.NewFermionArray(g, n5)
		want, got := field.NewFermionArray(g, n5), field.NewFermionArray(g, n5)
		if err := op.EvenOdd(eo, psi, sign); err != nil {
			return Result{}, err
		}
		if err := op.EvenEvenInv(even, eo, sign); err != nil {
			return Result{}, err
		}
		if err := op.OddEven(oe, even, sign); err != nil {
			return Result{}, err
		}
		if err := op.OddOdd(want, psi, sign); err != nil {
			return Result{}, err
		}
		want.AXPYCB(-1, oe, lattice.Odd)
		if err := op.Operator(got, psi, sign); err != nil {
			return Result{}, err
		}
		worst = max(worst, relative(got.DistanceCB(want, lattice.Odd), math.Sqrt(want.Norm2CB(lattice.Odd))))
	}
	return result(Schur, worst, tolIdentity, ""), nil
}

// dwfRoundTrip applies the diagonal block and its inverse in both orders on
// both checkerboards.
func dwfRoundTrip(t *Target, r *rand.Rand) (Result, error) {
	op, g, n5 := t.DWF, t.Geometry, t.N5()
	var worst float64
	for _, cb := range []lattice.Checkerboard{lattice.Even, lattice.Odd} {
		for _, sign := range []spin.Sign{spin.Plus, spin.Minus} {
			psi := randomArrayOn(g, n5, r, cb)
			scale := math.Sqrt(psi.Norm2CB(cb))
			tmp, back := field.NewFermionArray(g, n5), field.NewFermionArray(g, n5)
			for _, pair := range [][2]func(chi, psi *field.FermionArray, sign spin.Sign, cb lattice.Checkerboard) error{
				{op.ApplyDiag, op.ApplyDiagInv},
				{op.ApplyDiagInv, op.ApplyDiag},
			} {
				if err := pair[0](tmp, psi, sign, cb); err != nil {
					return Result{}, err
				}
				if err := pair[1](back, tmp, sign, cb); err != nil {
					return Result{}, err
				}
				worst = max(worst, relative(back.DistanceCB(psi, cb), scale))
			}
		}
	}
	return result(RoundTrip, worst, tolIdentity, "M_ee^-1 M_ee and M_ee M_ee^-1"), nil
}

// dwfLogDet factors one N5×N5 fifth-dimension block densely. Every
// spin-colour component of every even site carries a copy of it.
func dwfLogDet(t *Target, _ *rand.Rand) (Result, error) {
	got, err := t.DWF.LogDetEvenEven()
	if err != nil {
		return Result{}, err
	}
	p := t.Run.DWF
	m := tensor.NewMat(p.N5, p.N5)
	for s := range p.N5 {
		m.Set(s, s, complex(5-p.M5, 0))
		if s > 0 {
			m.Set(s, s-1, 1)
		}
	}
	m.Add(0, p.N5-1, complex(-p.Mf, 0))
	lu, err := tensor.Factor(&m)
	if err != nil {
		return Result{}, err
	}
	want := real(lu.LogDet()) * float64(spin.Components*t.Geometry.CBVolume())
	return result(LogDet, relative(math.Abs(got-want), math.Abs(want)), tolIdentity, "closed form against dense LU"), nil
}

// dwfFreeField checks that the off-diagonal blocks reproduce -1/2 D(p) on
// every slice of a plane wave over unit links.
func dwfFreeField(t *Target, r *rand.Rand) (Result, error) {
	free, err := t.recreate(field.UnitGauge(t.Geometry))
	if err != nil {
		return Result{}, err
	}
	g, n5 := t.Geometry, t.N5()
	p := momentum(g)
	psi := field.NewFermionArray(g, n5)
	for s := range n5 {
		psi.Slices[s] = planeWave(g, p, spin.RandomSpinor(r))
	}

	var worst float64
	for _, sign := range []spin.Sign{spin.Plus, spin.Minus} {
		m := freeHop(p, wilson.Isotropic().Coefficients(), sign)
		out := field.NewFermionArray(g, n5)
		for _, cb := range []lattice.Checkerboard{lattice.Even, lattice.Odd} {
			if err := free.DWF.ApplyOffDiag(out, psi, sign, cb); err != nil {
				return Result{}, err
			}
		}
		for s := range n5 {
			worst = max(worst, siteResidual(out.Slices[s], psi.Slices[s], m))
		}
	}
	return result(FreeField, worst, tolIdentity, "unit links, one unit of momentum per direction"), nil
}

func dwfDerivEvenOdd(t *Target, r *rand.Rand) (Result, error) {
	g, n5 := t.Geometry, t.N5()
	chi, psi := randomArrayOn(g, n5, r, lattice.Even), randomArrayOn(g, n5, r, lattice.Odd)
	x := randomDirection(g, r)
	var worst float64
	for _, sign := range []spin.Sign{spin.Plus, spin.Minus} {
		want, err := centralDiff(t, x, func(c *Target) (float64, error) {
			res := field.NewFermionArray(g, n5)
			if err := c.DWF.EvenOdd(res, psi, sign); err != nil {
				return 0, err
			}
			return real(chi.InnerCB(res, lattice.Even)), nil
		})
		if err != nil {
			return Result{}, err
		}
		f := field.NewForce(g)
		if err := t.DWF.DerivEvenOdd(f, chi, psi, sign); err != nil {
			return Result{}, err
		}
		worst = max(worst, relative(math.Abs(f.Contract(x)-want), math.Abs(want)))
	}
	return result(DerivEvenOdd, worst, tolDeriv, "central difference"), nil
}

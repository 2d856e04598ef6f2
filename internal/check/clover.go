package check

import (
	"math"
	"math/cmplx"
	"math/rand/v2"

	"github.com/samcharles93/dirac/internal/clover"
	"github.com/samcharles93/dirac/internal/field"
	"github.com/samcharles93/dirac/internal/lattice"
	"github.com/samcharles93/dirac/internal/linop"
	"github.com/samcharles93/dirac/internal/spin"
	"github.com/samcharles93/dirac/internal/tensor"
)

type cloverBlock func(chi, psi *field.Fermion, sign spin.Sign) error

func cloverChecks(variant linop.Variant) []namedCheck {
	checks := []namedCheck{
		{Hermiticity, cloverHermiticity},
		{Schur, cloverSchur},
		{RoundTrip, cloverRoundTrip},
		{LogDet, cloverLogDet},
	}
	// The twist breaks translation invariance.
	if variant == linop.Clover {
		checks = append(checks, namedCheck{FreeField, cloverFreeField})
	}
	return append(checks,
		namedCheck{DerivEvenOdd, cloverDerivEvenOdd},
		namedCheck{DerivOddOdd, cloverDerivOddOdd},
		namedCheck{DerivLogDet, cloverDerivLogDet},
	)
}

func randomOn(g *lattice.Geometry, r *rand.Rand, cb lattice.Checkerboard) *field.Fermion {
	f := field.RandomFermion(g, r)
	f.ZeroCB(cb.Other())
	return f
}

// adjointResidual compares <chi, B(+) psi> with conj <psi, Badj(-) chi>.
func adjointResidual(g *lattice.Geometry, r *rand.Rand, b, badj cloverBlock, out, in lattice.Checkerboard) (float64, error) {
	chi, psi := randomOn(g, r, out), randomOn(g, r, in)
	bpsi, bchi := field.NewFermion(g), field.NewFermion(g)
	if err := b(bpsi, psi, spin.Plus); err != nil {
		return 0, err
	}
	if err := badj(bchi, chi, spin.Minus); err != nil {
		return 0, err
	}
	lhs := chi.InnerCB(bpsi, out)
	rhs := cmplx.Conj(psi.InnerCB(bchi, in))
	return relative(cmplx.Abs(lhs-rhs), cmplx.Abs(lhs)), nil
}

func cloverHermiticity(t *Target, r *rand.Rand) (Result, error) {
	op := t.Clover
	var worst float64
	for _, p := range []struct {
		b, badj cloverBlock
		out, in lattice.Checkerboard
	}{
		{op.Operator, op.Operator, lattice.Odd, lattice.Odd},
		{op.EvenEven, op.EvenEven, lattice.Even, lattice.Even},
		{op.EvenOdd, op.OddEven, lattice.Even, lattice.Odd},
	} {
		res, err := adjointResidual(t.Geometry, r, p.b, p.badj, p.out, p.in)
		if err != nil {
			return Result{}, err
		}
		worst = max(worst, res)
	}
	return result(Hermiticity, worst, tolIdentity, "Operator, A_ee and D_eo against their MINUS adjoints"), nil
}

// cloverSchur compares Operator with the composition of its blocks, and for
// the plain variant also with the full matrix on the eliminated vector.
func cloverSchur(t *Target, r *rand.Rand) (Result, error) {
	op, g := t.Clover, t.Geometry
	var worst float64
	for _, sign := range []spin.Sign{spin.Plus, spin.Minus} {
		psi := randomOn(g, r, lattice.Odd)
		eo, even, oe := field.NewFermion(g), field.NewFermion(g), field.NewFermion(g)
		want, got := field.NewFermion(g), field.NewFermion(g)
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
		scale := math.Sqrt(want.Norm2CB(lattice.Odd))
		worst = max(worst, relative(got.DistanceCB(want, lattice.Odd), scale))

		if op.Variant() != linop.Clover {
			continue
		}
		full := psi.Clone()
		full.AXPYCB(-1, even, lattice.Even)
		m := field.NewFermion(g)
		if err := op.Unprec(m, full, sign); err != nil {
			return Result{}, err
		}
		worst = max(worst,
			relative(m.DistanceCB(got, lattice.Odd), scale),
			relative(math.Sqrt(m.Norm2CB(lattice.Even)), scale))
	}
	return result(Schur, worst, tolIdentity, ""), nil
}

func cloverRoundTrip(t *Target, r *rand.Rand) (Result, error) {
	op, g := t.Clover, t.Geometry
	var worst float64
	for _, sign := range []spin.Sign{spin.Plus, spin.Minus} {
		psi := randomOn(g, r, lattice.Even)
		a, back := field.NewFermion(g), field.NewFermion(g)
		if err := op.EvenEven(a, psi, sign); err != nil {
			return Result{}, err
		}
		if err := op.EvenEvenInv(back, a, sign); err != nil {
			return Result{}, err
		}
		worst = max(worst, relative(back.DistanceCB(psi, lattice.Even), math.Sqrt(psi.Norm2CB(lattice.Even))))
	}
	return result(RoundTrip, worst, tolIdentity, "A_ee^-1 A_ee"), nil
}

// cloverLogDet sums dense LU log-determinants of the even site blocks.
func cloverLogDet(t *Target, _ *rand.Rand) (Result, error) {
	op := t.Clover
	got, err := op.LogDetEvenEven()
	if err != nil {
		return Result{}, err
	}
	var want float64
	for x := range t.Geometry.Sites(lattice.Even) {
		b, err := op.SiteBlock(x)
		if err != nil {
			return Result{}, err
		}
		m := denseBlock(b)
		lu, err := tensor.Factor(&m)
		if err != nil {
			return Result{}, err
		}
		want += real(lu.LogDet())
	}
	return result(LogDet, relative(math.Abs(got-want), math.Abs(want)), tolIdentity, "Cholesky against dense LU"), nil
}

func denseBlock(b clover.Block) tensor.Mat {
	m := tensor.NewMat(clover.N, clover.N)
	for i := range clover.N {
		for j := range clover.N {
			m.Set(i, j, b[i][j])
		}
	}
	return m
}

// cloverFreeField checks the plane-wave eigenvalue of the full matrix on
// unit links: A = d and -1/2 D(p) from freeHop.
func cloverFreeField(t *Target, r *rand.Rand) (Result, error) {
	free, err := t.recreate(field.UnitGauge(t.Geometry))
	if err != nil {
		return Result{}, err
	}
	params := t.Run.Clover
	d := clover.Params{Mass: params.Mass, CswR: params.CswR, CswT: params.CswT, Aniso: params.Aniso}.DiagMass()
	p := momentum(t.Geometry)
	psi := planeWave(t.Geometry, p, spin.RandomSpinor(r))

	var worst float64
	for _, sign := range []spin.Sign{spin.Plus, spin.Minus} {
		m := freeHop(p, params.Aniso.Coefficients(), sign)
		for a := range spin.Ns {
			m[a][a] += complex(d, 0)
		}
		out := field.NewFermion(t.Geometry)
		if err := free.Clover.Unprec(out, psi, sign); err != nil {
			return Result{}, err
		}
		worst = max(worst, siteResidual(out, psi, m))
	}
	return result(FreeField, worst, tolIdentity, "unit links, one unit of momentum per direction"), nil
}

type (
	blockExpr func(op *linop.CloverOp, chi, psi *field.Fermion, sign spin.Sign) error
	derivExpr func(op *linop.CloverOp, f *field.Force, chi, psi *field.Fermion, sign spin.Sign) error
)

func cloverDerivEvenOdd(t *Target, r *rand.Rand) (Result, error) {
	return cloverBlockDeriv(t, r, DerivEvenOdd, lattice.Even, lattice.Odd,
		(*linop.CloverOp).EvenOdd, (*linop.CloverOp).DerivEvenOdd)
}

func cloverDerivOddOdd(t *Target, r *rand.Rand) (Result, error) {
	return cloverBlockDeriv(t, r, DerivOddOdd, lattice.Odd, lattice.Odd,
		(*linop.CloverOp).OddOdd, (*linop.CloverOp).DerivOddOdd)
}

// cloverBlockDeriv compares the force of S = Re <chi, B psi> with a central
// difference along a random direction.
func cloverBlockDeriv(t *Target, r *rand.Rand, name string, out, in lattice.Checkerboard, block blockExpr, deriv derivExpr) (Result, error) {
	g := t.Geometry
	chi, psi := randomOn(g, r, out), randomOn(g, r, in)
	x := randomDirection(g, r)
	var worst float64
	for _, sign := range []spin.Sign{spin.Plus, spin.Minus} {
		want, err := centralDiff(t, x, func(c *Target) (float64, error) {
			res := field.NewFermion(g)
			if err := block(c.Clover, res, psi, sign); err != nil {
				return 0, err
			}
			return real(chi.InnerCB(res, out)), nil
		})
		if err != nil {
			return Result{}, err
		}
		f := field.NewForce(g)
		if err := deriv(t.Clover, f, chi, psi, sign); err != nil {
			return Result{}, err
		}
		worst = max(worst, relative(math.Abs(f.Contract(x)-want), math.Abs(want)))
	}
	return result(name, worst, tolDeriv, "central difference"), nil
}

func cloverDerivLogDet(t *Target, r *rand.Rand) (Result, error) {
	x := randomDirection(t.Geometry, r)
	want, err := centralDiff(t, x, func(c *Target) (float64, error) {
		return c.Clover.LogDetEvenEven()
	})
	if err != nil {
		return Result{}, err
	}
	f := field.NewForce(t.Geometry)
	if err := t.Clover.DerivLogDetEvenEven(f, spin.Plus); err != nil {
		return Result{}, err
	}
	detail := "central difference"
	if t.Clover.Variant() == linop.Orbifold {
		detail = "clover-only log det; the twist is not included"
	}
	return result(DerivLogDet, relative(math.Abs(f.Contract(x)-want), math.Abs(want)), tolDeriv, detail), nil
}

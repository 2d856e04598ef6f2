package su3

import (
	"math/cmplx"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomUnitaryIsUnitary(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewPCG(1, 2))
	for _, disorder := range []float64{0, 0.1, 1, 10} {
		u := RandomUnitary(r, disorder)
		require.InDelta(t, 0, FrobeniusDistance(AdjMul(u, u), Identity()), 1e-13)
		require.InDelta(t, 0, FrobeniusDistance(MulAdj(u, u), Identity()), 1e-13)
	}
}

func TestProductsAgree(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewPCG(3, 4))
	a := RandomUnitary(r, 2).Scale(1.5 + 0.5i)
	b := RandomUnitary(r, 2)

	require.InDelta(t, 0, FrobeniusDistance(MulAdj(a, b), Mul(a, b.Adj())), 1e-13)
	require.InDelta(t, 0, FrobeniusDistance(AdjMul(a, b), Mul(a.Adj(), b)), 1e-13)
	require.InDelta(t, real(Mul(a, b).Trace()), ReTraceMul(a, b), 1e-13)
}

func TestVectorProducts(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewPCG(5, 6))
	a := RandomUnitary(r, 1)
	v := RandomVector(r)
	w := RandomVector(r)

	// <w, a v> == <a† w, v>
	lhs := w.Dot(a.MulVec(v))
	rhs := a.AdjMulVec(w).Dot(v)
	require.InDelta(t, 0, cmplx.Abs(lhs-rhs), 1e-12)

	// Tr[Outer(v, w)] == w†v
	require.InDelta(t, 0, cmplx.Abs(Outer(v, w).Trace()-w.Dot(v)), 1e-12)
}

func TestRandomAntiHermitian(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewPCG(7, 8))
	x := RandomAntiHermitian(r)
	require.InDelta(t, 0, FrobeniusDistance(x.Adj(), x.Scale(-1)), 1e-14)
}

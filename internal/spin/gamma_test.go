package spin

import (
	"math/cmplx"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func maxDiff(a, b Matrix) float64 {
	var m float64
	for i := range Ns {
		for j := range Ns {
			m = max(m, cmplx.Abs(a[i][j]-b[i][j]))
		}
	}
	return m
}

func TestClifford(t *testing.T) {
	t.Parallel()
	for mu := range 4 {
		for nu := range 4 {
			gm, gn := Gamma(1<<mu), Gamma(1<<nu)
			anti := gm.Mul(gn).Add(gn.Mul(gm))
			var want Matrix
			if mu == nu {
				want = Identity().Add(Identity())
			}
			require.InDeltaf(t, 0, maxDiff(anti, want), 1e-15, "mu=%d nu=%d", mu, nu)
		}
		require.InDelta(t, 0, maxDiff(Gamma(1<<mu), Gamma(1<<mu).Adj()), 1e-15)
	}
}

func TestGamma5(t *testing.T) {
	t.Parallel()
	g5 := Gamma5()
	require.InDelta(t, 0, maxDiff(g5.Mul(g5), Identity()), 1e-15)
	require.Equal(t, []float64{1, 1, -1, -1}, []float64{Chirality(0), Chirality(1), Chirality(2), Chirality(3)})
	for mu := range 4 {
		g := Gamma(1 << mu)
		require.InDelta(t, 0, maxDiff(g5.Mul(g), Identity().Sub(Identity()).Sub(g.Mul(g5))), 1e-15)
	}
}

func TestHopProjector(t *testing.T) {
	t.Parallel()
	for mu := range 4 {
		g := Gamma(1 << mu)
		require.Equal(t, Identity().Sub(g), HopProjector(mu, Plus))
		require.Equal(t, Identity().Add(g), HopProjector(mu, Minus))
		// (1 - g)(1 + g) = 0
		require.InDelta(t, 0, maxDiff(HopProjector(mu, Plus).Mul(HopProjector(mu, Minus)), Matrix{}), 1e-15)
	}
}

func TestChiralMatchesGamma5(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewPCG(11, 12))
	a := RandomSpinor(r)
	for _, k := range []float64{1, -1} {
		want := a.AXPY(complex(k, 0), Gamma5().Apply(a))
		got := Chiral(a, k)
		require.InDelta(t, 0, got.Sub(want).Norm2(), 1e-24)
	}
}

func TestFlattenRoundTrip(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewPCG(13, 14))
	a := RandomSpinor(r)
	buf := make([]complex128, Components)
	a.Flatten(buf)
	require.Equal(t, a, Unflatten(buf))
	require.Equal(t, a[1][2], buf[5])
}

package linop

import (
	"math/rand/v2"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/dirac/internal/field"
	"github.com/samcharles93/dirac/internal/lattice"
	"github.com/samcharles93/dirac/internal/spin"
	"github.com/samcharles93/dirac/internal/su3"
	"github.com/samcharles93/dirac/internal/wilson"
)

var (
	signs = []spin.Sign{spin.Plus, spin.Minus}
	cbs   = []lattice.Checkerboard{lattice.Even, lattice.Odd}
)

func geometry(t testing.TB, dims ...int) *lattice.Geometry {
	t.Helper()
	var d [lattice.Nd]int
	copy(d[:], dims)
	g, err := lattice.NewGeometry(d)
	require.NoError(t, err)
	return g
}

func rng(seed uint64) *rand.Rand { return rand.New(rand.NewPCG(seed, 99)) }

func cloverParams() CloverParams {
	return CloverParams{Mass: 0.1, CswR: 1.3, Aniso: wilson.Isotropic()}
}

func anisoCloverParams() CloverParams {
	return CloverParams{
		Mass: 0.05, CswR: 1.1, CswT: 0.8,
		Aniso: wilson.Aniso{Enabled: true, TDir: 3, Xi0: 1.5, Nu: 0.9},
	}
}

func created(t testing.TB, op *CloverOp, u *field.Gauge, p CloverParams) *CloverOp {
	t.Helper()
	require.NoError(t, op.Create(u, p))
	return op
}

// oddOnly returns a random field supported on the odd checkerboard.
func oddOnly(g *lattice.Geometry, r *rand.Rand) *field.Fermion {
	f := field.RandomFermion(g, r)
	f.ZeroCB(lattice.Even)
	return f
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

// requireIs matches marked errors, which the standard library cannot see.
func requireIs(t *testing.T, err, target error) {
	t.Helper()
	require.Truef(t, errors.Is(err, target), "error %v does not match %v", err, target)
}

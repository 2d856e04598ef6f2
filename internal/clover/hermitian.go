package clover

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/samcharles93/dirac/internal/spin"
)

// N is the dimension of one site block, spin times colour.
const N = spin.Components

// Block is the dense site-local matrix. Row and column index spin*Nc + colour,
// matching spin.Spinor.Flatten.
type Block [N][N]complex128

// Apply returns b*a.
func (b *Block) Apply(a spin.Spinor) spin.Spinor {
	var in [N]complex128
	a.Flatten(in[:])
	var out [N]complex128
	for i := range N {
		var s complex128
		for j := range N {
			s += b[i][j] * in[j]
		}
		out[i] = s
	}
	return spin.Unflatten(out[:])
}

// Adj returns the conjugate transpose.
func (b *Block) Adj() Block {
	var r Block
	for i := range N {
		for j := range N {
			r[j][i] = cmplx.Conj(b[i][j])
		}
	}
	return r
}

// cholesky writes the lower factor L with A = L L† into l. Only the lower
// triangle of a is read; the diagonal of L is real and positive.
func cholesky(l, a *Block) error {
	*l = Block{}
	for j := range N {
		d := real(a[j][j])
		for k := range j {
			v := l[j][k]
			d -= real(v)*real(v) + imag(v)*imag(v)
		}
		if !(d > 0) {
			return fmt.Errorf("pivot %d is %g: %w", j, d, ErrNotPositiveDefinite)
		}
		ljj := math.Sqrt(d)
		l[j][j] = complex(ljj, 0)
		inv := complex(1/ljj, 0)
		for i := j + 1; i < N; i++ {
			s := a[i][j]
			for k := range j {
				s -= l[i][k] * cmplx.Conj(l[j][k])
			}
			l[i][j] = s * inv
		}
	}
	return nil
}

// cholSolve solves L L† x = a.
func cholSolve(l *Block, a spin.Spinor) spin.Spinor {
	var x [N]complex128
	a.Flatten(x[:])
	for i := range N {
		s := x[i]
		for k := range i {
			s -= l[i][k] * x[k]
		}
		x[i] = s / l[i][i]
	}
	for i := N - 1; i >= 0; i-- {
		s := x[i]
		for k := i + 1; k < N; k++ {
			s -= cmplx.Conj(l[k][i]) * x[k]
		}
		x[i] = s / l[i][i]
	}
	return spin.Unflatten(x[:])
}

// cholLogDet returns ln det(L L†).
func cholLogDet(l *Block) float64 {
	var s float64
	for i := range N {
		s += math.Log(real(l[i][i]))
	}
	return 2 * s
}

// cholInverse returns (L L†)^-1.
func cholInverse(l *Block) Block {
	var inv Block
	for j := range N {
		var e [N]complex128
		e[j] = 1
		col := cholSolve(l, spin.Unflatten(e[:]))
		var c [N]complex128
		col.Flatten(c[:])
		for i := range N {
			inv[i][j] = c[i]
		}
	}
	return inv
}

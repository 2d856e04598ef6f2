package spin

import (
	"math/rand/v2"

	"github.com/samcharles93/dirac/internal/su3"
)

// Spinor holds Ns colour vectors, one per spin component.
type Spinor [Ns]su3.Vector

// Components is the number of complex entries in a spinor.
const Components = Ns * su3.Nc

func (a Spinor) Add(b Spinor) Spinor {
	for s := range Ns {
		a[s] = a[s].Add(b[s])
	}
	return a
}

func (a Spinor) Sub(b Spinor) Spinor {
	for s := range Ns {
		a[s] = a[s].Sub(b[s])
	}
	return a
}

// Scale returns c*a.
func (a Spinor) Scale(c complex128) Spinor {
	for s := range Ns {
		a[s] = a[s].Scale(c)
	}
	return a
}

// AXPY returns a + alpha*x.
func (a Spinor) AXPY(alpha complex128, x Spinor) Spinor {
	for s := range Ns {
		for c := range su3.Nc {
			a[s][c] += alpha * x[s][c]
		}
	}
	return a
}

// Dot returns a†b.
func (a Spinor) Dot(b Spinor) complex128 {
	var r complex128
	for s := range Ns {
		r += a[s].Dot(b[s])
	}
	return r
}

// Norm2 returns a†a.
func (a Spinor) Norm2() float64 { return real(a.Dot(a)) }

// ColorMul multiplies every spin component by the colour matrix u.
func ColorMul(u su3.Matrix, a Spinor) Spinor {
	for s := range Ns {
		a[s] = u.MulVec(a[s])
	}
	return a
}

// ColorAdjMul multiplies every spin component by u†.
func ColorAdjMul(u su3.Matrix, a Spinor) Spinor {
	for s := range Ns {
		a[s] = u.AdjMulVec(a[s])
	}
	return a
}

// ColorOuter returns the spin-traced colour matrix sum_s a[s] b[s]†.
func ColorOuter(a, b Spinor) su3.Matrix {
	var r su3.Matrix
	for s := range Ns {
		r = r.Add(su3.Outer(a[s], b[s]))
	}
	return r
}

// Chiral returns (1 + k*gamma_5) a. With k = ±1 this is twice a chiral
// projector.
func Chiral(a Spinor, k float64) Spinor {
	for s := range Ns {
		a[s] = a[s].Scale(complex(1+k*chirality[s], 0))
	}
	return a
}

// Flatten writes a into a Components-length slice ordered spin-major.
func (a Spinor) Flatten(dst []complex128) {
	for s := range Ns {
		copy(dst[s*su3.Nc:(s+1)*su3.Nc], a[s][:])
	}
}

// Unflatten is the inverse of Flatten.
func Unflatten(src []complex128) Spinor {
	var a Spinor
	for s := range Ns {
		copy(a[s][:], src[s*su3.Nc:(s+1)*su3.Nc])
	}
	return a
}

// RandomSpinor draws a spinor with unit-variance Gaussian components.
func RandomSpinor(r *rand.Rand) Spinor {
	var a Spinor
	for s := range Ns {
		a[s] = su3.RandomVector(r)
	}
	return a
}

// Package spin holds Dirac spinors and the gamma-matrix algebra in the
// DeGrand-Rossi basis.
package spin

import (
	"fmt"
	"math/cmplx"

	"github.com/samcharles93/dirac/internal/su3"
)

// Ns is the number of spin components.
const Ns = 4

// Matrix is a dense spin matrix.
type Matrix [Ns][Ns]complex128

// Sign selects an operator (Plus) or its Hermitian conjugate (Minus).
type Sign int

const (
	Plus  Sign = 1
	Minus Sign = -1
)

func (s Sign) Float() float64 { return float64(s) }

// Flip returns the opposite sign.
func (s Sign) Flip() Sign { return -s }

func (s Sign) Valid() bool { return s == Plus || s == Minus }

func (s Sign) String() string {
	switch s {
	case Plus:
		return "plus"
	case Minus:
		return "minus"
	default:
		return fmt.Sprintf("sign(%d)", int(s))
	}
}

// Basis matrices gamma_1..gamma_4; gamma_4 is the time direction.
var basis = [4]Matrix{
	{{0, 0, 0, 1i}, {0, 0, 1i, 0}, {0, -1i, 0, 0}, {-1i, 0, 0, 0}},
	{{0, 0, 0, -1}, {0, 0, 1, 0}, {0, 1, 0, 0}, {-1, 0, 0, 0}},
	{{0, 0, 1i, 0}, {0, 0, 0, -1i}, {-1i, 0, 0, 0}, {0, 1i, 0, 0}},
	{{0, 0, 1, 0}, {0, 0, 0, 1}, {1, 0, 0, 0}, {0, 1, 0, 0}},
}

var (
	gammas [16]Matrix
	// chirality[s] is the gamma_5 eigenvalue of spin component s.
	chirality [Ns]float64
	// hop[mu][0] = 1 - gamma_mu, hop[mu][1] = 1 + gamma_mu.
	hop [4][2]Matrix
)

func init() {
	for n := range 16 {
		g := Identity()
		for k := range 4 {
			if n&(1<<k) != 0 {
				g = g.Mul(basis[k])
			}
		}
		gammas[n] = g
	}
	g5 := gammas[15]
	for s := range Ns {
		for t := range Ns {
			if s != t && g5[s][t] != 0 {
				panic("spin: gamma_5 is not diagonal in this basis")
			}
		}
		chirality[s] = real(g5[s][s])
	}
	for mu := range 4 {
		hop[mu][0] = Identity().Sub(basis[mu])
		hop[mu][1] = Identity().Add(basis[mu])
	}
}

// Identity returns the unit spin matrix.
func Identity() Matrix {
	var m Matrix
	for i := range Ns {
		m[i][i] = 1
	}
	return m
}

// Gamma returns the product gamma_1^b0 gamma_2^b1 gamma_3^b2 gamma_4^b3 for the
// bits b of n. Gamma(15) is gamma_5.
func Gamma(n int) Matrix { return gammas[n&15] }

// Gamma5 returns gamma_5 = Gamma(15).
func Gamma5() Matrix { return gammas[15] }

// Chirality returns the gamma_5 eigenvalue of spin component s.
func Chirality(s int) float64 { return chirality[s] }

// HopProjector returns 1 - k*gamma_mu for k = +1 and 1 + gamma_mu for k = -1,
// with mu in 0..3.
func HopProjector(mu int, k Sign) Matrix {
	if k == Plus {
		return hop[mu][0]
	}
	return hop[mu][1]
}

func (a Matrix) Mul(b Matrix) Matrix {
	var r Matrix
	for i := range Ns {
		for k := range Ns {
			if a[i][k] == 0 {
				continue
			}
			for j := range Ns {
				r[i][j] += a[i][k] * b[k][j]
			}
		}
	}
	return r
}

func (a Matrix) Add(b Matrix) Matrix {
	for i := range Ns {
		for j := range Ns {
			a[i][j] += b[i][j]
		}
	}
	return a
}

func (a Matrix) Sub(b Matrix) Matrix {
	for i := range Ns {
		for j := range Ns {
			a[i][j] -= b[i][j]
		}
	}
	return a
}

func (a Matrix) Adj() Matrix {
	var r Matrix
	for i := range Ns {
		for j := range Ns {
			r[i][j] = cmplx.Conj(a[j][i])
		}
	}
	return r
}

// Apply returns a*s acting on the spin index.
func (a Matrix) Apply(s Spinor) Spinor {
	var r Spinor
	for i := range Ns {
		for k := range Ns {
			c := a[i][k]
			if c == 0 {
				continue
			}
			for col := range su3.Nc {
				r[i][col] += c * s[k][col]
			}
		}
	}
	return r
}

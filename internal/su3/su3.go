// Package su3 implements the dense colour algebra used on every lattice site.
package su3

import (
	"math"
	"math/cmplx"
	"math/rand/v2"
)

// Nc is the number of colours.
const Nc = 3

// Vector is a colour vector.
type Vector [Nc]complex128

// Matrix is a colour matrix, row-major.
type Matrix [Nc][Nc]complex128

// Identity returns the unit colour matrix.
func Identity() Matrix {
	var m Matrix
	for i := range Nc {
		m[i][i] = 1
	}
	return m
}

// Mul returns a*b.
func Mul(a, b Matrix) Matrix {
	var r Matrix
	for i := range Nc {
		for k := range Nc {
			aik := a[i][k]
			for j := range Nc {
				r[i][j] += aik * b[k][j]
			}
		}
	}
	return r
}

// MulAdj returns a*b†.
func MulAdj(a, b Matrix) Matrix {
	var r Matrix
	for i := range Nc {
		for j := range Nc {
			var s complex128
			for k := range Nc {
				s += a[i][k] * cmplx.Conj(b[j][k])
			}
			r[i][j] = s
		}
	}
	return r
}

// AdjMul returns a†*b.
func AdjMul(a, b Matrix) Matrix {
	var r Matrix
	for i := range Nc {
		for j := range Nc {
			var s complex128
			for k := range Nc {
				s += cmplx.Conj(a[k][i]) * b[k][j]
			}
			r[i][j] = s
		}
	}
	return r
}

// Adj returns the conjugate transpose.
func (a Matrix) Adj() Matrix {
	var r Matrix
	for i := range Nc {
		for j := range Nc {
			r[i][j] = cmplx.Conj(a[j][i])
		}
	}
	return r
}

func (a Matrix) Add(b Matrix) Matrix {
	for i := range Nc {
		for j := range Nc {
			a[i][j] += b[i][j]
		}
	}
	return a
}

func (a Matrix) Sub(b Matrix) Matrix {
	for i := range Nc {
		for j := range Nc {
			a[i][j] -= b[i][j]
		}
	}
	return a
}

// Scale returns c*a.
func (a Matrix) Scale(c complex128) Matrix {
	for i := range Nc {
		for j := range Nc {
			a[i][j] *= c
		}
	}
	return a
}

// AntiHermitian returns a - a†.
func (a Matrix) AntiHermitian() Matrix { return a.Sub(a.Adj()) }

// Trace returns the sum of the diagonal.
func (a Matrix) Trace() complex128 { return a[0][0] + a[1][1] + a[2][2] }

// ReTraceMul returns Re Tr[a*b] without forming the product.
func ReTraceMul(a, b Matrix) float64 {
	var s float64
	for i := range Nc {
		for k := range Nc {
			s += real(a[i][k] * b[k][i])
		}
	}
	return s
}

// MulVec returns a*v.
func (a Matrix) MulVec(v Vector) Vector {
	var r Vector
	for i := range Nc {
		r[i] = a[i][0]*v[0] + a[i][1]*v[1] + a[i][2]*v[2]
	}
	return r
}

// AdjMulVec returns a†*v.
func (a Matrix) AdjMulVec(v Vector) Vector {
	var r Vector
	for i := range Nc {
		r[i] = cmplx.Conj(a[0][i])*v[0] + cmplx.Conj(a[1][i])*v[1] + cmplx.Conj(a[2][i])*v[2]
	}
	return r
}

// Outer returns the matrix with entries a[i]*conj(b[j]).
func Outer(a, b Vector) Matrix {
	var r Matrix
	for i := range Nc {
		for j := range Nc {
			r[i][j] = a[i] * cmplx.Conj(b[j])
		}
	}
	return r
}

// FrobeniusDistance returns ||a - b||_F.
func FrobeniusDistance(a, b Matrix) float64 {
	var s float64
	for i := range Nc {
		for j := range Nc {
			d := a[i][j] - b[i][j]
			s += real(d)*real(d) + imag(d)*imag(d)
		}
	}
	return math.Sqrt(s)
}

func (v Vector) Add(w Vector) Vector {
	return Vector{v[0] + w[0], v[1] + w[1], v[2] + w[2]}
}

func (v Vector) Sub(w Vector) Vector {
	return Vector{v[0] - w[0], v[1] - w[1], v[2] - w[2]}
}

func (v Vector) Scale(c complex128) Vector {
	return Vector{c * v[0], c * v[1], c * v[2]}
}

// Dot returns v†w.
func (v Vector) Dot(w Vector) complex128 {
	return cmplx.Conj(v[0])*w[0] + cmplx.Conj(v[1])*w[1] + cmplx.Conj(v[2])*w[2]
}

func gauss(r *rand.Rand) complex128 {
	return complex(r.NormFloat64(), r.NormFloat64())
}

// RandomVector draws a vector with unit-variance Gaussian components.
func RandomVector(r *rand.Rand) Vector {
	return Vector{gauss(r), gauss(r), gauss(r)}
}

// RandomUnitary returns a unitary matrix close to the identity when disorder is
// small. disorder <= 0 yields the identity; large disorder approaches a Haar-like
// draw. Rows are orthonormalised with modified Gram-Schmidt.
func RandomUnitary(r *rand.Rand, disorder float64) Matrix {
	if disorder <= 0 {
		return Identity()
	}
	m := Identity()
	for i := range Nc {
		for j := range Nc {
			m[i][j] += complex(disorder, 0) * gauss(r)
		}
	}
	for i := range Nc {
		for k := range i {
			var p complex128
			for j := range Nc {
				p += cmplx.Conj(m[k][j]) * m[i][j]
			}
			for j := range Nc {
				m[i][j] -= p * m[k][j]
			}
		}
		var n float64
		for j := range Nc {
			n += real(m[i][j])*real(m[i][j]) + imag(m[i][j])*imag(m[i][j])
		}
		inv := complex(1/math.Sqrt(n), 0)
		for j := range Nc {
			m[i][j] *= inv
		}
	}
	return m
}

// RandomAntiHermitian returns X with X† = -X and Gaussian entries.
func RandomAntiHermitian(r *rand.Rand) Matrix {
	var m Matrix
	for i := range Nc {
		for j := range Nc {
			m[i][j] = gauss(r)
		}
	}
	return m.AntiHermitian().Scale(0.5)
}

// Package tensor provides small dense complex matrices used as direct
// references for the structured solvers: explicit products, LU with partial
// pivoting, inverses and log-determinants.
package tensor

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

var (
	ErrShape    = errors.New("tensor: shape mismatch")
	ErrSingular = errors.New("tensor: matrix is singular")
)

// Mat is a dense row-major complex matrix.
//
// R and C are the number of rows and columns. Stride is the number of
// elements between the starts of consecutive rows and equals C for matrices
// built by NewMat.
type Mat struct {
	R, C   int
	Stride int
	Data   []complex128
}

// NewMat allocates a zero r×c matrix.
func NewMat(r, c int) Mat {
	if r < 0 || c < 0 {
		panic("negative dimension for matrix")
	}
	return Mat{R: r, C: c, Stride: c, Data: make([]complex128, r*c)}
}

// Identity returns the n×n identity.
func Identity(n int) Mat {
	m := NewMat(n, n)
	for i := range n {
		m.Set(i, i, 1)
	}
	return m
}

func (m *Mat) At(i, j int) complex128 { return m.Data[i*m.Stride+j] }

func (m *Mat) Set(i, j int, v complex128) { m.Data[i*m.Stride+j] = v }

// Add accumulates v into element (i, j).
func (m *Mat) Add(i, j int, v complex128) { m.Data[i*m.Stride+j] += v }

// Row returns a view of row i.
func (m *Mat) Row(i int) []complex128 {
	if i < 0 || i >= m.R {
		panic("row index out of range")
	}
	start := i * m.Stride
	return m.Data[start : start+m.C]
}

// MatVec computes dst = m*x.
func MatVec(dst []complex128, m *Mat, x []complex128) {
	if len(dst) < m.R || len(x) < m.C {
		panic("matvec shape mismatch")
	}
	for i := range m.R {
		var s complex128
		for j, v := range m.Row(i) {
			s += v * x[j]
		}
		dst[i] = s
	}
}

// Mul returns a*b.
func Mul(a, b *Mat) (Mat, error) {
	if a.C != b.R {
		return Mat{}, fmt.Errorf("mul %dx%d by %dx%d: %w", a.R, a.C, b.R, b.C, ErrShape)
	}
	out := NewMat(a.R, b.C)
	for i := range a.R {
		row := out.Row(i)
		for k, av := range a.Row(i) {
			if av == 0 {
				continue
			}
			for j, bv := range b.Row(k) {
				row[j] += av * bv
			}
		}
	}
	return out, nil
}

// Adj returns the conjugate transpose.
func (m *Mat) Adj() Mat {
	out := NewMat(m.C, m.R)
	for i := range m.R {
		for j := range m.C {
			out.Set(j, i, cmplx.Conj(m.At(i, j)))
		}
	}
	return out
}

// MaxAbsDiff returns max |a_ij - b_ij|.
func MaxAbsDiff(a, b *Mat) float64 {
	if a.R != b.R || a.C != b.C {
		return math.Inf(1)
	}
	var d float64
	for i := range a.R {
		br := b.Row(i)
		for j, v := range a.Row(i) {
			d = max(d, cmplx.Abs(v-br[j]))
		}
	}
	return d
}

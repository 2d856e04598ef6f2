package tensor

import (
	"fmt"
	"math"
	"math/cmplx"
)

// LU is a row-pivoted factorization P*A = L*U packed into one matrix: the
// strict lower part holds L (unit diagonal implied) and the upper part U.
type LU struct {
	lu   Mat
	perm []int
	sign float64
}

// Factor computes the LU decomposition of a square matrix with partial
// pivoting. a is not modified.
func Factor(a *Mat) (*LU, error) {
	if a.R != a.C {
		return nil, fmt.Errorf("lu: non-square matrix %dx%d: %w", a.R, a.C, ErrShape)
	}
	n := a.R
	f := &LU{lu: NewMat(n, n), perm: make([]int, n), sign: 1}
	for i := range n {
		copy(f.lu.Row(i), a.Row(i))
		f.perm[i] = i
	}

	for k := range n {
		p := k
		best := cmplx.Abs(f.lu.At(k, k))
		for i := k + 1; i < n; i++ {
			if v := cmplx.Abs(f.lu.At(i, k)); v > best {
				p, best = i, v
			}
		}
		if best == 0 {
			return nil, fmt.Errorf("lu: zero pivot in column %d: %w", k, ErrSingular)
		}
		if p != k {
			rp, rk := f.lu.Row(p), f.lu.Row(k)
			for j := range rk {
				rp[j], rk[j] = rk[j], rp[j]
			}
			f.perm[p], f.perm[k] = f.perm[k], f.perm[p]
			f.sign = -f.sign
		}

		piv := f.lu.At(k, k)
		rk := f.lu.Row(k)
		for i := k + 1; i < n; i++ {
			ri := f.lu.Row(i)
			l := ri[k] / piv
			ri[k] = l
			if l == 0 {
				continue
			}
			for j := k + 1; j < n; j++ {
				ri[j] -= l * rk[j]
			}
		}
	}
	return f, nil
}

// Solve returns x with A*x = b.
func (f *LU) Solve(b []complex128) []complex128 {
	n := f.lu.R
	if len(b) != n {
		panic("lu solve shape mismatch")
	}
	x := make([]complex128, n)
	for i := range n {
		s := b[f.perm[i]]
		row := f.lu.Row(i)
		for j := range i {
			s -= row[j] * x[j]
		}
		x[i] = s
	}
	for i := n - 1; i >= 0; i-- {
		s := x[i]
		row := f.lu.Row(i)
		for j := i + 1; j < n; j++ {
			s -= row[j] * x[j]
		}
		x[i] = s / row[i]
	}
	return x
}

// Inverse returns A^-1.
func (f *LU) Inverse() Mat {
	n := f.lu.R
	out := NewMat(n, n)
	e := make([]complex128, n)
	for j := range n {
		clear(e)
		e[j] = 1
		col := f.Solve(e)
		for i, v := range col {
			out.Set(i, j, v)
		}
	}
	return out
}

// LogDet returns ln det A as a complex number; the real part is ln|det A|.
// The imaginary part is the phase, reduced to (-pi, pi].
func (f *LU) LogDet() complex128 {
	var s complex128
	for i := range f.lu.R {
		s += cmplx.Log(f.lu.At(i, i))
	}
	if f.sign < 0 {
		s += complex(0, math.Pi)
	}
	return complex(real(s), cmplx.Phase(cmplx.Exp(complex(0, imag(s)))))
}

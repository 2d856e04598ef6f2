// Package linop assembles even-odd preconditioned fermion operators from a
// site-local diagonal block and the checkerboard hopping term.
//
// For a matrix written in checkerboard blocks
//
//	M = | M_ee  M_eo |
//	    | M_oe  M_oo |
//
// Operator applies the Schur complement on the odd checkerboard,
//
//	M_oo - M_oe M_ee^-1 M_eo,
//
// which is what iterative solvers invert. The individual blocks are exposed so
// that force and determinant code can assemble anything else they need.
package linop

import (
	"github.com/cockroachdb/errors"

	"github.com/samcharles93/dirac/internal/field"
	"github.com/samcharles93/dirac/internal/lattice"
	"github.com/samcharles93/dirac/internal/spin"
)

// EvenOddPrec is the capability set shared by every preconditioned operator.
// F is the fermion representation: a 4D field or a 5D array.
//
// Block entries overwrite the output on the block's row checkerboard and
// leave the other checkerboard untouched. Derivative entries add the
// derivative of Re<chi, B(sign) psi> to f, so forces from several blocks can
// be summed into one array.
type EvenOddPrec[F any] interface {
	Operator(chi, psi F, sign spin.Sign) error

	EvenEven(chi, psi F, sign spin.Sign) error
	EvenOdd(chi, psi F, sign spin.Sign) error
	OddEven(chi, psi F, sign spin.Sign) error
	OddOdd(chi, psi F, sign spin.Sign) error
	EvenEvenInv(chi, psi F, sign spin.Sign) error

	DerivEvenEven(f *field.Force, chi, psi F, sign spin.Sign) error
	DerivEvenOdd(f *field.Force, chi, psi F, sign spin.Sign) error
	DerivOddEven(f *field.Force, chi, psi F, sign spin.Sign) error
	DerivOddOdd(f *field.Force, chi, psi F, sign spin.Sign) error
	DerivLogDetEvenEven(f *field.Force, sign spin.Sign) error

	LogDetEvenEven() (float64, error)
	NFlops() uint64
}

var (
	_ EvenOddPrec[*field.Fermion]      = (*CloverOp)(nil)
	_ EvenOddPrec[*field.FermionArray] = (*DWFArray)(nil)
)

func checkSign(sign spin.Sign) error {
	if !sign.Valid() {
		return errors.Wrapf(ErrGeometry, "sign %d", int(sign))
	}
	return nil
}

func checkFermions(g *lattice.Geometry, sign spin.Sign, fs ...*field.Fermion) error {
	if err := checkSign(sign); err != nil {
		return err
	}
	for _, f := range fs {
		if f == nil || !f.Geometry().Same(g) {
			return errors.Wrap(ErrGeometry, "fermion lattice differs from gauge field")
		}
	}
	return nil
}

func checkForce(g *lattice.Geometry, f *field.Force) error {
	if f == nil || !f.Geometry().Same(g) {
		return errors.Wrap(ErrGeometry, "force lattice differs from gauge field")
	}
	return nil
}

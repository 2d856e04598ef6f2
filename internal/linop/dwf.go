package linop

import (
	"math"

	"github.com/cockroachdb/errors"

	"github.com/samcharles93/dirac/internal/field"
	"github.com/samcharles93/dirac/internal/lattice"
	"github.com/samcharles93/dirac/internal/spin"
	"github.com/samcharles93/dirac/internal/su3"
	"github.com/samcharles93/dirac/internal/wilson"
)

// Per-site costs of the fifth-dimension blocks.
const (
	dwfDiagFlops    = 8 * su3.Nc * spin.Ns
	dwfDiagInvFlops = 16 * su3.Nc * spin.Ns
)

// DWFArray is the even-odd preconditioned domain-wall operator acting on N5
// 4D slices. The diagonal blocks couple neighbouring slices through chiral
// projectors, with the two walls joined by -mf:
//
//	chi[s] = a psi[s] + P- psi[s+1] + P+ psi[s-1],   P± = (1 ± sign g5)/2
//
// where a = 5 - M5, psi[N5] = -mf psi[0] and psi[-1] = -mf psi[N5-1]. The
// off-diagonal blocks are -1/2 D on every slice.
//
// A DWFArray is not safe for concurrent use.
type DWFArray struct {
	opts options

	params DWFParams
	layout lattice.Layout
	u      *field.Gauge
	d      *wilson.Dslash

	invTwoKappa float64
	twoKappa    float64
	kappa       float64
	invD        float64
}

// NewDWF returns an uncreated domain-wall operator.
func NewDWF(opts ...Option) *DWFArray {
	return &DWFArray{opts: newOptions(opts)}
}

// Create fixes the gauge field and parameters. The anisotropy is always 1.
func (op *DWFArray) Create(u *field.Gauge, p DWFParams) error {
	op.u, op.d = nil, nil
	if u == nil {
		return configErrorf("", "dwf: nil gauge field")
	}
	if p.N5 < 2 {
		return configErrorf("use at least two slices in the fifth dimension", "dwf: N5 = %d", p.N5)
	}
	a := 5 - p.M5
	if a == 0 {
		return configErrorf("choose a domain-wall height different from 5", "dwf: M5 = %g leaves a zero diagonal", p.M5)
	}
	layout, err := op.opts.layoutFor(u.Geometry())
	if err != nil {
		return err
	}
	d, err := wilson.New(u, wilson.Isotropic())
	if err != nil {
		return configError(err, "")
	}

	// The cyclic corner closes the elimination into one scalar pivot per
	// chirality: 1 + (-1)^N5 mf / a^N5.
	pivot := 1 + parity(p.N5)*p.Mf/math.Pow(a, float64(p.N5))
	if pivot == 0 || math.IsInf(pivot, 0) || math.IsNaN(pivot) {
		return breakdown(errors.Newf("pivot %g", pivot), "dwf: singular diagonal block")
	}

	op.params, op.layout = p, layout
	op.invTwoKappa = a
	op.twoKappa = 1 / a
	op.kappa = op.twoKappa / 2
	op.invD = 1 / pivot
	op.u, op.d = u, d
	return nil
}

func parity(n int) float64 {
	if n%2 == 0 {
		return 1
	}
	return -1
}

// Params returns the parameters fixed at Create.
func (op *DWFArray) Params() DWFParams { return op.params }

// Geometry returns the 4D lattice, or nil before Create.
func (op *DWFArray) Geometry() *lattice.Geometry {
	if op.u == nil {
		return nil
	}
	return op.u.Geometry()
}

func (op *DWFArray) check(sign spin.Sign, fs ...*field.FermionArray) error {
	if op.d == nil {
		return errors.Wrap(ErrNotCreated, "dwf")
	}
	if err := checkSign(sign); err != nil {
		return err
	}
	g := op.u.Geometry()
	for _, f := range fs {
		if f == nil || !f.Geometry().Same(g) {
			return errors.Wrap(ErrGeometry, "fermion array lattice differs from gauge field")
		}
		if f.N5() != op.params.N5 {
			return errors.Wrapf(ErrGeometry, "fermion array has %d slices, operator %d", f.N5(), op.params.N5)
		}
	}
	return nil
}

func (op *DWFArray) checkDeriv(f *field.Force, sign spin.Sign, fs ...*field.FermionArray) error {
	if err := op.check(sign, fs...); err != nil {
		return err
	}
	return checkForce(op.u.Geometry(), f)
}

func checkCB(cb lattice.Checkerboard) error {
	if !cb.Valid() {
		return errors.Wrapf(ErrGeometry, "checkerboard %d", int(cb))
	}
	return nil
}

// gather copies the N5 spinors at site x into buf.
func gather(buf []spin.Spinor, a *field.FermionArray, x int) {
	for s, f := range a.Slices {
		buf[s] = f.Sites[x]
	}
}

func scatter(a *field.FermionArray, buf []spin.Spinor, x int) {
	for s, f := range a.Slices {
		f.Sites[x] = buf[s]
	}
}

// ApplyDiag applies the diagonal block on cb. chi and psi may alias.
func (op *DWFArray) ApplyDiag(chi, psi *field.FermionArray, sign spin.Sign, cb lattice.Checkerboard) error {
	if err := op.check(sign, chi, psi); err != nil {
		return err
	}
	if err := checkCB(cb); err != nil {
		return err
	}
	n5 := op.params.N5
	a := complex(op.invTwoKappa, 0)
	mf := complex(-op.params.Mf, 0)
	k := sign.Float()
	in := make([]spin.Spinor, n5)
	out := make([]spin.Spinor, n5)
	for x := range op.u.Geometry().Sites(cb) {
		gather(in, psi, x)
		for s := range n5 {
			up := in[(s+1)%n5]
			if s == n5-1 {
				up = up.Scale(mf)
			}
			dn := in[(s+n5-1)%n5]
			if s == 0 {
				dn = dn.Scale(mf)
			}
			r := in[s].Scale(a)
			r = r.AXPY(0.5, spin.Chiral(up, -k))
			r = r.AXPY(0.5, spin.Chiral(dn, k))
			out[s] = r
		}
		scatter(chi, out, x)
	}
	return nil
}

// ApplyDiagInv applies the inverse of the diagonal block on cb in O(N5)
// per site. The LU factors of the cyclic bidiagonal system are never formed:
//
//  1. scale by 2kappa
//  2. Lm: fold slices 0..N5-2 into N5-1 with weights (-2kappa)^s
//  3. L:  forward elimination of the sub-diagonal
//  4. the scalar pivot on slice N5-1
//  5. R:  back substitution of the super-diagonal
//  6. Rm: spread slice N5-1 back over 0..N5-2
//
// sign flips every projector. chi and psi may alias.
func (op *DWFArray) ApplyDiagInv(chi, psi *field.FermionArray, sign spin.Sign, cb lattice.Checkerboard) error {
	if err := op.check(sign, chi, psi); err != nil {
		return err
	}
	if err := checkCB(cb); err != nil {
		return err
	}
	n5 := op.params.N5
	last := n5 - 1
	k := sign.Float()
	twoKappa := complex(op.twoKappa, 0)
	kappa := complex(op.kappa, 0)
	invD := complex(op.invD, 0)
	wall := 0.5 * op.params.Mf * op.twoKappa

	v := make([]spin.Spinor, n5)
	for x := range op.u.Geometry().Sites(cb) {
		gather(v, psi, x)
		for s := range v {
			v[s] = v[s].Scale(twoKappa)
		}

		fact := wall
		for s := range last {
			v[last] = v[last].AXPY(complex(fact, 0), spin.Chiral(v[s], -k))
			fact *= -op.twoKappa
		}

		for s := 1; s < n5; s++ {
			v[s] = v[s].AXPY(-kappa, spin.Chiral(v[s-1], k))
		}

		v[last] = v[last].Scale(invD)

		for s := last - 1; s >= 0; s-- {
			v[s] = v[s].AXPY(-kappa, spin.Chiral(v[s+1], -k))
		}

		tt := spin.Chiral(v[last], k).Scale(complex(wall, 0))
		for s := range last {
			v[s] = v[s].Add(tt)
			tt = tt.Scale(complex(-op.twoKappa, 0))
		}
		scatter(chi, v, x)
	}
	return nil
}

// ApplyOffDiag applies -1/2 D to every slice, writing checkerboard cb.
func (op *DWFArray) ApplyOffDiag(chi, psi *field.FermionArray, sign spin.Sign, cb lattice.Checkerboard) error {
	if err := op.check(sign, chi, psi); err != nil {
		return err
	}
	if err := checkCB(cb); err != nil {
		return err
	}
	for s := range op.params.N5 {
		op.d.Apply(chi.Slices[s], psi.Slices[s], sign, cb)
		chi.Slices[s].ScaleCB(-0.5, cb)
	}
	return nil
}

// Operator applies M_oo - M_oe M_ee^-1 M_eo on the odd checkerboard.
func (op *DWFArray) Operator(chi, psi *field.FermionArray, sign spin.Sign) error {
	if err := op.check(sign, chi, psi); err != nil {
		return err
	}
	g := op.u.Geometry()
	tmp1 := field.NewFermionArray(g, op.params.N5)
	tmp2 := field.NewFermionArray(g, op.params.N5)

	if err := op.ApplyOffDiag(tmp1, psi, sign, lattice.Even); err != nil {
		return err
	}
	if err := op.ApplyDiagInv(tmp2, tmp1, sign, lattice.Even); err != nil {
		return err
	}
	if err := op.ApplyOffDiag(tmp1, tmp2, sign, lattice.Odd); err != nil {
		return err
	}
	if err := op.ApplyDiag(chi, psi, sign, lattice.Odd); err != nil {
		return err
	}
	chi.AXPYCB(-1, tmp1, lattice.Odd)
	return nil
}

// EvenEven applies the even diagonal block M_ee.
func (op *DWFArray) EvenEven(chi, psi *field.FermionArray, sign spin.Sign) error {
	return op.ApplyDiag(chi, psi, sign, lattice.Even)
}

// OddOdd applies the odd diagonal block M_oo.
func (op *DWFArray) OddOdd(chi, psi *field.FermionArray, sign spin.Sign) error {
	return op.ApplyDiag(chi, psi, sign, lattice.Odd)
}

// EvenEvenInv applies M_ee^-1 by the O(N5) elimination.
func (op *DWFArray) EvenEvenInv(chi, psi *field.FermionArray, sign spin.Sign) error {
	return op.ApplyDiagInv(chi, psi, sign, lattice.Even)
}

// EvenOdd applies -1/2 D from odd to even sites on every slice.
func (op *DWFArray) EvenOdd(chi, psi *field.FermionArray, sign spin.Sign) error {
	return op.ApplyOffDiag(chi, psi, sign, lattice.Even)
}

// OddEven applies -1/2 D from even to odd sites on every slice.
func (op *DWFArray) OddEven(chi, psi *field.FermionArray, sign spin.Sign) error {
	return op.ApplyOffDiag(chi, psi, sign, lattice.Odd)
}

// DerivEvenEven adds nothing: the diagonal blocks do not depend on the gauge
// field.
func (op *DWFArray) DerivEvenEven(f *field.Force, chi, psi *field.FermionArray, sign spin.Sign) error {
	return op.checkDeriv(f, sign, chi, psi)
}

// DerivOddOdd adds nothing; see DerivEvenEven.
func (op *DWFArray) DerivOddOdd(f *field.Force, chi, psi *field.FermionArray, sign spin.Sign) error {
	return op.checkDeriv(f, sign, chi, psi)
}

// DerivEvenOdd adds the force of Re <chi, M_eo psi>.
func (op *DWFArray) DerivEvenOdd(f *field.Force, chi, psi *field.FermionArray, sign spin.Sign) error {
	if err := op.checkDeriv(f, sign, chi, psi); err != nil {
		return err
	}
	op.hopDeriv(f, chi, psi, sign, lattice.Even)
	return nil
}

// DerivOddEven adds the force of Re <chi, M_oe psi>.
func (op *DWFArray) DerivOddEven(f *field.Force, chi, psi *field.FermionArray, sign spin.Sign) error {
	if err := op.checkDeriv(f, sign, chi, psi); err != nil {
		return err
	}
	op.hopDeriv(f, chi, psi, sign, lattice.Odd)
	return nil
}

func (op *DWFArray) hopDeriv(f *field.Force, chi, psi *field.FermionArray, sign spin.Sign, cb lattice.Checkerboard) {
	tmp := field.NewForce(op.u.Geometry())
	for s := range op.params.N5 {
		op.d.Deriv(tmp, chi.Slices[s], psi.Slices[s], sign, cb)
	}
	f.AddScaled(-0.5, tmp)
}

// DerivLogDetEvenEven adds nothing; ln det M_ee is gauge independent.
func (op *DWFArray) DerivLogDetEvenEven(f *field.Force, sign spin.Sign) error {
	return op.checkDeriv(f, sign)
}

// LogDetEvenEven returns ln |det M_ee|. Every spin-colour component of every
// even site carries an N5×N5 cyclic bidiagonal block with determinant
// a^N5 + (-1)^N5 mf.
func (op *DWFArray) LogDetEvenEven() (float64, error) {
	if op.d == nil {
		return 0, errors.Wrap(ErrNotCreated, "dwf")
	}
	n5 := op.params.N5
	det := math.Pow(op.invTwoKappa, float64(n5)) + parity(n5)*op.params.Mf
	perSite := float64(su3.Nc * spin.Ns)
	return perSite * float64(op.u.Geometry().CBVolume()) * math.Log(math.Abs(det)), nil
}

// NFlops returns the cost of one Operator call on one node.
func (op *DWFArray) NFlops() uint64 {
	if op.d == nil {
		return 0
	}
	perSite := 2*wilson.FlopsPerSite + dwfDiagFlops + dwfDiagInvFlops + 4*su3.Nc*spin.Ns
	return uint64(op.params.N5) * uint64(perSite) * uint64(op.layout.SitesOnNode()/2)
}

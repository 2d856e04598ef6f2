package linop

import (
	"github.com/cockroachdb/errors"

	"github.com/samcharles93/dirac/internal/clover"
	"github.com/samcharles93/dirac/internal/field"
	"github.com/samcharles93/dirac/internal/lattice"
	"github.com/samcharles93/dirac/internal/metrics"
	"github.com/samcharles93/dirac/internal/spin"
	"github.com/samcharles93/dirac/internal/su3"
	"github.com/samcharles93/dirac/internal/wilson"
)

// Variant selects between the plain even-odd clover operator and the one
// carrying the orbifold boundary twist.
type Variant int

const (
	Clover Variant = iota
	Orbifold
)

func (v Variant) String() string {
	if v == Orbifold {
		return "orbifold"
	}
	return "clover"
}

// CloverOp is the even-odd preconditioned Wilson-clover operator
//
//	M = A - 1/2 D
//
// with A the clover block and D the hopping term. The Orbifold variant adds
// the boundary twist to both hopping applications inside Operator.
//
// A CloverOp is not safe for concurrent use.
type CloverOp struct {
	variant Variant
	opts    options

	params CloverParams
	layout lattice.Layout
	u      *field.Gauge
	clov   *clover.Term
	d      *wilson.Dslash
}

// NewClover returns an uncreated plain clover operator.
func NewClover(opts ...Option) *CloverOp {
	return &CloverOp{variant: Clover, opts: newOptions(opts)}
}

// NewOrbifold returns an uncreated orbifold operator.
func NewOrbifold(opts ...Option) *CloverOp {
	return &CloverOp{variant: Orbifold, opts: newOptions(opts)}
}

func (op *CloverOp) Variant() Variant { return op.variant }

// Params returns the parameters of the last successful Create.
func (op *CloverOp) Params() CloverParams { return op.params }

// Create builds the clover term and hopping term over u and factors the
// even-even block. Calling Create again replaces all cached state; on failure
// the operator is left uncreated.
func (op *CloverOp) Create(u *field.Gauge, p CloverParams) error {
	op.clov, op.d, op.u = nil, nil, nil
	if u == nil {
		return configErrorf("", "%v: nil gauge field", op.variant)
	}
	if p.TwistedMass {
		return configErrorf("use a twisted-mass operator instead",
			"%v: twisted mass is not supported", op.variant)
	}
	layout, err := op.opts.layoutFor(u.Geometry())
	if err != nil {
		return err
	}
	if op.variant == Orbifold {
		for mu, name := range []string{"x", "y", "z"} {
			if !layout.OnNode(mu) {
				return configErrorf("keep the x, y and z directions on one node; only t may be split",
					"orbifold: %s direction split across %d nodes", name, layout.Grid[mu])
			}
		}
	}

	d, err := wilson.New(u, p.Aniso)
	if err != nil {
		return configError(errors.Wrapf(err, "%v", op.variant), "check the anisotropy parameters")
	}
	clov, err := clover.New(u, p.term())
	if err != nil {
		return configError(errors.Wrapf(err, "%v", op.variant), "check the anisotropy parameters")
	}
	if err := clov.Choles(lattice.Even); err != nil {
		return breakdown(err, "factor even-even clover block")
	}

	op.params, op.layout = p, layout
	op.u, op.clov, op.d = u, clov, d
	return nil
}

func (op *CloverOp) ready() error {
	if op.clov == nil {
		return errors.Wrapf(ErrNotCreated, "%v", op.variant)
	}
	return nil
}

func (op *CloverOp) check(sign spin.Sign, fs ...*field.Fermion) error {
	if err := op.ready(); err != nil {
		return err
	}
	return checkFermions(op.u.Geometry(), sign, fs...)
}

func (op *CloverOp) checkDeriv(f *field.Force, sign spin.Sign, fs ...*field.Fermion) error {
	if err := op.check(sign, fs...); err != nil {
		return err
	}
	return checkForce(op.u.Geometry(), f)
}

// Geometry returns the lattice of the gauge field, or nil before Create.
func (op *CloverOp) Geometry() *lattice.Geometry {
	if op.u == nil {
		return nil
	}
	return op.u.Geometry()
}

func (op *CloverOp) applyClover(chi, psi *field.Fermion, sign spin.Sign, cb lattice.Checkerboard) {
	defer metrics.Time(op.opts.sink, metrics.CloverApply)()
	op.clov.Apply(chi, psi, sign, cb)
}

func (op *CloverOp) applyCloverInv(chi, psi *field.Fermion, sign spin.Sign) error {
	defer metrics.Time(op.opts.sink, metrics.CloverApply)()
	if err := op.clov.ApplyInverse(chi, psi, sign, lattice.Even); err != nil {
		return errors.Mark(err, ErrNotFactored)
	}
	return nil
}

// Operator applies the Schur complement on the odd checkerboard:
//
//	chi_o = A_oo psi_o - 1/4 D_oe A_ee^-1 D_eo psi_o
//
// For the Orbifold variant the twist is added to the output of each hopping
// application, at z = 0 and z = Lz-1.
func (op *CloverOp) Operator(chi, psi *field.Fermion, sign spin.Sign) error {
	if err := op.check(sign, chi, psi); err != nil {
		return err
	}
	g := op.u.Geometry()
	tmp1 := field.NewFermion(g)
	tmp2 := field.NewFermion(g)

	op.d.Apply(tmp1, psi, sign, lattice.Even)
	if op.variant == Orbifold {
		op.twist(tmp1, psi, lattice.Even)
	}
	if err := op.applyCloverInv(tmp2, tmp1, sign); err != nil {
		return err
	}
	op.d.Apply(tmp1, tmp2, sign, lattice.Odd)
	if op.variant == Orbifold {
		op.twist(tmp1, tmp2, lattice.Odd)
	}

	op.applyClover(chi, psi, sign, lattice.Odd)
	chi.AXPYCB(-0.25, tmp1, lattice.Odd)
	return nil
}

// Unprec applies the full matrix on both checkerboards,
//
//	chi = A psi - 1/2 (D + T) psi
//
// where T is the orbifold twist on both checkerboards, absent for the plain
// variant.
func (op *CloverOp) Unprec(chi, psi *field.Fermion, sign spin.Sign) error {
	if err := op.check(sign, chi, psi); err != nil {
		return err
	}
	hop := field.NewFermion(op.u.Geometry())
	for _, cb := range []lattice.Checkerboard{lattice.Even, lattice.Odd} {
		op.d.Apply(hop, psi, sign, cb)
		if op.variant == Orbifold {
			op.twist(hop, psi, cb)
		}
		op.applyClover(chi, psi, sign, cb)
		chi.AXPYCB(-0.5, hop, cb)
	}
	return nil
}

// EvenEven applies the even clover block A_ee.
func (op *CloverOp) EvenEven(chi, psi *field.Fermion, sign spin.Sign) error {
	if err := op.check(sign, chi, psi); err != nil {
		return err
	}
	op.applyClover(chi, psi, sign, lattice.Even)
	return nil
}

// OddOdd applies A_oo.
func (op *CloverOp) OddOdd(chi, psi *field.Fermion, sign spin.Sign) error {
	if err := op.check(sign, chi, psi); err != nil {
		return err
	}
	op.applyClover(chi, psi, sign, lattice.Odd)
	return nil
}

// EvenEvenInv applies A_ee^-1 through the Cholesky factors built by Create.
func (op *CloverOp) EvenEvenInv(chi, psi *field.Fermion, sign spin.Sign) error {
	if err := op.check(sign, chi, psi); err != nil {
		return err
	}
	return op.applyCloverInv(chi, psi, sign)
}

// EvenOdd applies -1/2 D_eo. The orbifold twist only enters Operator.
func (op *CloverOp) EvenOdd(chi, psi *field.Fermion, sign spin.Sign) error {
	if err := op.check(sign, chi, psi); err != nil {
		return err
	}
	op.d.Apply(chi, psi, sign, lattice.Even)
	chi.ScaleCB(-0.5, lattice.Even)
	return nil
}

// OddEven applies -1/2 D_oe.
func (op *CloverOp) OddEven(chi, psi *field.Fermion, sign spin.Sign) error {
	if err := op.check(sign, chi, psi); err != nil {
		return err
	}
	op.d.Apply(chi, psi, sign, lattice.Odd)
	chi.ScaleCB(-0.5, lattice.Odd)
	return nil
}

func (op *CloverOp) DerivEvenEven(f *field.Force, chi, psi *field.Fermion, sign spin.Sign) error {
	if err := op.checkDeriv(f, sign, chi, psi); err != nil {
		return err
	}
	defer metrics.Time(op.opts.sink, metrics.CloverDeriv)()
	op.clov.Deriv(f, chi, psi, sign, lattice.Even)
	return nil
}

func (op *CloverOp) DerivOddOdd(f *field.Force, chi, psi *field.Fermion, sign spin.Sign) error {
	if err := op.checkDeriv(f, sign, chi, psi); err != nil {
		return err
	}
	defer metrics.Time(op.opts.sink, metrics.CloverDeriv)()
	op.clov.Deriv(f, chi, psi, sign, lattice.Odd)
	return nil
}

func (op *CloverOp) DerivEvenOdd(f *field.Force, chi, psi *field.Fermion, sign spin.Sign) error {
	if err := op.checkDeriv(f, sign, chi, psi); err != nil {
		return err
	}
	op.hopDeriv(f, chi, psi, sign, lattice.Even)
	return nil
}

func (op *CloverOp) DerivOddEven(f *field.Force, chi, psi *field.Fermion, sign spin.Sign) error {
	if err := op.checkDeriv(f, sign, chi, psi); err != nil {
		return err
	}
	op.hopDeriv(f, chi, psi, sign, lattice.Odd)
	return nil
}

func (op *CloverOp) hopDeriv(f *field.Force, chi, psi *field.Fermion, sign spin.Sign, cb lattice.Checkerboard) {
	tmp := field.NewForce(op.u.Geometry())
	op.d.Deriv(tmp, chi, psi, sign, cb)
	f.AddScaled(-0.5, tmp)
}

// DerivLogDetEvenEven adds the derivative of ln det A_ee. Only the even-even
// block contributes; the odd-odd part is left to the caller.
func (op *CloverOp) DerivLogDetEvenEven(f *field.Force, sign spin.Sign) error {
	if err := op.checkDeriv(f, sign); err != nil {
		return err
	}
	defer metrics.Time(op.opts.sink, metrics.CloverDeriv)()
	if err := op.clov.DerivTrLn(f, lattice.Even); err != nil {
		return errors.Mark(err, ErrNotFactored)
	}
	return nil
}

// LogDetEvenEven returns ln det A_ee from the Cholesky factors. For the
// Orbifold variant this is the same quantity as for the plain operator; the
// twist does not enter.
func (op *CloverOp) LogDetEvenEven() (float64, error) {
	if err := op.ready(); err != nil {
		return 0, err
	}
	ld, err := op.clov.LogDet(lattice.Even)
	if err != nil {
		return 0, errors.Mark(err, ErrNotFactored)
	}
	return ld, nil
}

// NFlops returns the cost of one Operator call on one node.
func (op *CloverOp) NFlops() uint64 {
	if op.clov == nil {
		return 0
	}
	perSite := 2*wilson.FlopsPerSite + 2*clover.FlopsPerSite + 4*su3.Nc*spin.Ns
	return uint64(perSite) * uint64(op.layout.SitesOnNode()/2)
}

// SiteBlock returns the dense clover block at site x.
func (op *CloverOp) SiteBlock(x int) (clover.Block, error) {
	if err := op.ready(); err != nil {
		return clover.Block{}, err
	}
	if x < 0 || x >= op.u.Geometry().Volume() {
		return clover.Block{}, errors.Wrapf(ErrGeometry, "site %d", x)
	}
	return op.clov.Site(x), nil
}

// Twist adds the orbifold boundary term on cb to chi. It is only defined for
// the Orbifold variant.
func (op *CloverOp) Twist(chi, psi *field.Fermion, cb lattice.Checkerboard) error {
	if err := op.check(spin.Plus, chi, psi); err != nil {
		return err
	}
	if op.variant != Orbifold {
		return configErrorf("build the operator with NewOrbifold", "%v: no orbifold twist", op.variant)
	}
	if !cb.Valid() {
		return errors.Wrapf(ErrGeometry, "checkerboard %d", int(cb))
	}
	op.twist(chi, psi, cb)
	return nil
}

var twistMatrix = spin.Identity().Add(spin.Gamma(4)).Mul(spin.Gamma(8))

// twist adds (1 + g3) g4 psi(Lx-1-x, Ly-1-y, z, t) to chi(x, y, z, t) for
// sites of parity cb on the slices z = 0 and z = Lz-1, over this node's t
// range. The reflected site has the same parity as the target site.
func (op *CloverOp) twist(chi, psi *field.Fermion, cb lattice.Checkerboard) {
	g := op.u.Geometry()
	dims := g.Dims()
	t0, t1 := op.layout.LocalRange(3)
	for _, z := range []int{0, dims[2] - 1} {
		for t := t0; t < t1; t++ {
			for y := range dims[1] {
				for xx := range dims[0] / 2 {
					x := 2*xx + (int(cb)+y+z+t)&1
					site := g.Index([lattice.Nd]int{x, y, z, t})
					partner := g.Index([lattice.Nd]int{dims[0] - 1 - x, dims[1] - 1 - y, z, t})
					chi.Sites[site] = chi.Sites[site].Add(twistMatrix.Apply(psi.Sites[partner]))
				}
			}
		}
	}
}

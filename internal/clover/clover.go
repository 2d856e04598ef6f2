// Package clover implements the site-local diagonal block A of the
// Wilson-clover matrix, built from the clover-leaf field strength, together
// with its Cholesky factorization, log-determinant and gauge derivatives.
package clover

import (
	"errors"
	"fmt"

	"github.com/samcharles93/dirac/internal/field"
	"github.com/samcharles93/dirac/internal/lattice"
	"github.com/samcharles93/dirac/internal/spin"
	"github.com/samcharles93/dirac/internal/su3"
	"github.com/samcharles93/dirac/internal/wilson"
)

// FlopsPerSite is the cost of applying one site block.
const FlopsPerSite = 504

var (
	ErrNotPositiveDefinite = errors.New("clover: block is not positive definite")
	ErrNotFactored         = errors.New("clover: checkerboard not factored")
)

// Params fixes the diagonal block. CswT is only used on anisotropic lattices,
// for planes that contain the time direction.
type Params struct {
	Mass  float64      `json:"mass" yaml:"mass" toml:"mass"`
	CswR  float64      `json:"csw_r" yaml:"csw_r" toml:"csw_r"`
	CswT  float64      `json:"csw_t" yaml:"csw_t" toml:"csw_t"`
	Aniso wilson.Aniso `json:"aniso" yaml:"aniso" toml:"aniso"`
}

// DiagMass returns the coefficient of the identity in A.
func (p Params) DiagMass() float64 {
	if p.Aniso.Enabled {
		return 1 + float64(lattice.Nd-1)*p.Aniso.SpaceFactor() + p.Mass
	}
	return float64(lattice.Nd) + p.Mass
}

// Coefficient returns the clover coefficient of the mu-nu plane.
func (p Params) Coefficient(mu, nu int) float64 {
	if p.Aniso.Enabled && (mu == p.Aniso.TDir || nu == p.Aniso.TDir) {
		return p.CswT
	}
	return p.CswR
}

// Term holds one dense block per site plus the Cholesky factors of whichever
// checkerboards have been factored. A Term is never shared between
// operators; build a new one when the gauge field changes.
type Term struct {
	u      *field.Gauge
	p      Params
	blocks []Block

	chol     []Block
	factored [2]bool
	logDet   [2]float64
}

// New builds the clover term on every site of u.
//
//	A(x) = d + sum_{mu<nu} (c_munu/16) g_mu g_nu (x) (Q_munu(x) - Q_munu(x)^†)
func New(u *field.Gauge, p Params) (*Term, error) {
	if err := p.Aniso.Validate(); err != nil {
		return nil, err
	}
	g := u.Geometry()
	t := &Term{
		u:      u,
		p:      p,
		blocks: make([]Block, g.Volume()),
		chol:   make([]Block, g.Volume()),
	}
	d := complex(p.DiagMass(), 0)
	for x := range t.blocks {
		b := &t.blocks[x]
		for i := range N {
			b[i][i] = d
		}
		for mu := range lattice.Nd {
			for nu := mu + 1; nu < lattice.Nd; nu++ {
				gg := spin.Gamma(1 << mu).Mul(spin.Gamma(1 << nu))
				f := t.leafSum(x, mu, nu).AntiHermitian()
				c := complex(p.Coefficient(mu, nu)/16, 0)
				for s := range spin.Ns {
					for r := range spin.Ns {
						if gg[s][r] == 0 {
							continue
						}
						w := c * gg[s][r]
						for a := range su3.Nc {
							for bb := range su3.Nc {
								b[s*su3.Nc+a][r*su3.Nc+bb] += w * f[a][bb]
							}
						}
					}
				}
			}
		}
	}
	return t, nil
}

func (t *Term) leafSum(x, mu, nu int) su3.Matrix {
	var q su3.Matrix
	g := t.u.Geometry()
	for _, l := range leaves(mu, nu) {
		p := walk(g, x, l)
		q = q.Add(product(t.u, p, 0, len(p)))
	}
	return q
}

func (t *Term) Params() Params { return t.p }

// Site returns a copy of the block at site x.
func (t *Term) Site(x int) Block { return t.blocks[x] }

// Flops returns the cost of one Apply on one checkerboard.
func (t *Term) Flops() int { return FlopsPerSite * t.u.Geometry().CBVolume() }

// Apply overwrites chi on cb with A psi. A is Hermitian, so both signs give
// the same result.
func (t *Term) Apply(chi, psi *field.Fermion, _ spin.Sign, cb lattice.Checkerboard) {
	for x := range t.u.Geometry().Sites(cb) {
		chi.Sites[x] = t.blocks[x].Apply(psi.Sites[x])
	}
}

// Choles factors every block of cb and caches ln det A summed over cb. On
// failure the checkerboard is left unfactored.
func (t *Term) Choles(cb lattice.Checkerboard) error {
	t.factored[cb] = false
	var ld float64
	for x := range t.u.Geometry().Sites(cb) {
		if err := cholesky(&t.chol[x], &t.blocks[x]); err != nil {
			return fmt.Errorf("site %d: %w", x, err)
		}
		ld += cholLogDet(&t.chol[x])
	}
	t.factored[cb] = true
	t.logDet[cb] = ld
	return nil
}

// Factored reports whether Choles has succeeded on cb.
func (t *Term) Factored(cb lattice.Checkerboard) bool { return t.factored[cb] }

// ApplyInverse overwrites chi on cb with A^-1 psi using the cached factors.
func (t *Term) ApplyInverse(chi, psi *field.Fermion, _ spin.Sign, cb lattice.Checkerboard) error {
	if !t.factored[cb] {
		return fmt.Errorf("%v: %w", cb, ErrNotFactored)
	}
	for x := range t.u.Geometry().Sites(cb) {
		chi.Sites[x] = cholSolve(&t.chol[x], psi.Sites[x])
	}
	return nil
}

// LogDet returns sum_{x in cb} ln det A(x) from the cached factors.
func (t *Term) LogDet(cb lattice.Checkerboard) (float64, error) {
	if !t.factored[cb] {
		return 0, fmt.Errorf("%v: %w", cb, ErrNotFactored)
	}
	return t.logDet[cb], nil
}

// Deriv adds the gauge derivative of Re<chi, A psi> restricted to cb to f.
func (t *Term) Deriv(f *field.Force, chi, psi *field.Fermion, _ spin.Sign, cb lattice.Checkerboard) {
	g := t.u.Geometry()
	for x := range g.Sites(cb) {
		for mu := range lattice.Nd {
			for nu := mu + 1; nu < lattice.Nd; nu++ {
				gg := spin.Gamma(1 << mu).Mul(spin.Gamma(1 << nu))
				b := spin.ColorOuter(gg.Apply(psi.Sites[x]), chi.Sites[x])
				b = b.Scale(complex(t.p.Coefficient(mu, nu)/16, 0))
				t.leafDeriv(f, x, mu, nu, b.AntiHermitian())
			}
		}
	}
}

// DerivTrLn adds the gauge derivative of sum_{x in cb} ln det A(x) to f.
func (t *Term) DerivTrLn(f *field.Force, cb lattice.Checkerboard) error {
	if !t.factored[cb] {
		return fmt.Errorf("%v: %w", cb, ErrNotFactored)
	}
	g := t.u.Geometry()
	for x := range g.Sites(cb) {
		inv := cholInverse(&t.chol[x])
		for mu := range lattice.Nd {
			for nu := mu + 1; nu < lattice.Nd; nu++ {
				gg := spin.Gamma(1 << mu).Mul(spin.Gamma(1 << nu))
				var b su3.Matrix
				for s := range spin.Ns {
					for r := range spin.Ns {
						if gg[s][r] == 0 {
							continue
						}
						for a := range su3.Nc {
							for bb := range su3.Nc {
								b[bb][a] += gg[s][r] * inv[r*su3.Nc+bb][s*su3.Nc+a]
							}
						}
					}
				}
				b = b.Scale(complex(t.p.Coefficient(mu, nu)/16, 0))
				t.leafDeriv(f, x, mu, nu, b.AntiHermitian())
			}
		}
	}
	return nil
}

func (t *Term) leafDeriv(f *field.Force, x, mu, nu int, c su3.Matrix) {
	g := t.u.Geometry()
	for _, l := range leaves(mu, nu) {
		pathDeriv(f, t.u, walk(g, x, l), c)
	}
}

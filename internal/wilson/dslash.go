// Package wilson implements the nearest-neighbour Wilson hopping term D
// connecting the two checkerboards of a 4D lattice.
package wilson

import (
	"errors"
	"fmt"

	"github.com/samcharles93/dirac/internal/field"
	"github.com/samcharles93/dirac/internal/lattice"
	"github.com/samcharles93/dirac/internal/spin"
	"github.com/samcharles93/dirac/internal/su3"
)

// FlopsPerSite is the cost of one target site of Apply.
const FlopsPerSite = 1320

var ErrBadAnisotropy = errors.New("wilson: invalid anisotropy")

// Aniso describes an anisotropic lattice with a distinguished time direction.
type Aniso struct {
	Enabled bool    `json:"enabled" yaml:"enabled" toml:"enabled"`
	TDir    int     `json:"t_dir" yaml:"t_dir" toml:"t_dir"`
	Xi0     float64 `json:"xi0" yaml:"xi0" toml:"xi0"`
	Nu      float64 `json:"nu" yaml:"nu" toml:"nu"`
}

// Isotropic is the default, disabled anisotropy.
func Isotropic() Aniso {
	return Aniso{TDir: lattice.Nd - 1, Xi0: 1, Nu: 1}
}

// Validate checks the parameters when anisotropy is enabled.
func (a Aniso) Validate() error {
	if !a.Enabled {
		return nil
	}
	if a.TDir < 0 || a.TDir >= lattice.Nd {
		return fmt.Errorf("time direction %d: %w", a.TDir, ErrBadAnisotropy)
	}
	if a.Xi0 <= 0 {
		return fmt.Errorf("xi0 = %g: %w", a.Xi0, ErrBadAnisotropy)
	}
	return nil
}

// SpaceFactor returns nu/xi0, or 1 when anisotropy is off.
func (a Aniso) SpaceFactor() float64 {
	if !a.Enabled {
		return 1
	}
	return a.Nu / a.Xi0
}

// Coefficients returns the per-direction hopping weights.
func (a Aniso) Coefficients() [lattice.Nd]float64 {
	var c [lattice.Nd]float64
	f := a.SpaceFactor()
	for mu := range lattice.Nd {
		c[mu] = f
		if !a.Enabled || mu == a.TDir {
			c[mu] = 1
		}
	}
	return c
}

// Dslash holds a reference to the gauge field and the direction weights. It
// never writes to the gauge field.
type Dslash struct {
	u     *field.Gauge
	coeff [lattice.Nd]float64
}

// New builds the hopping term over u.
func New(u *field.Gauge, aniso Aniso) (*Dslash, error) {
	if err := aniso.Validate(); err != nil {
		return nil, err
	}
	return &Dslash{u: u, coeff: aniso.Coefficients()}, nil
}

func (d *Dslash) Gauge() *field.Gauge { return d.u }

// Coefficients returns the direction weights in use.
func (d *Dslash) Coefficients() [lattice.Nd]float64 { return d.coeff }

// Flops returns the cost of one Apply on one checkerboard.
func (d *Dslash) Flops() int { return FlopsPerSite * d.u.Geometry().CBVolume() }

// Apply overwrites chi on checkerboard cb with D(sign) psi. Only the opposite
// checkerboard of psi is read.
//
//	chi(x) = sum_mu c_mu [(1 - s g_mu) U_mu(x) psi(x+mu) + (1 + s g_mu) U_mu(x-mu)^† psi(x-mu)]
func (d *Dslash) Apply(chi, psi *field.Fermion, sign spin.Sign, cb lattice.Checkerboard) {
	g := d.u.Geometry()
	var fwd, bwd [lattice.Nd]spin.Matrix
	for mu := range lattice.Nd {
		fwd[mu] = spin.HopProjector(mu, sign)
		bwd[mu] = spin.HopProjector(mu, sign.Flip())
	}
	for x := range g.Sites(cb) {
		var r spin.Spinor
		for mu := range lattice.Nd {
			up := g.Forward(x, mu)
			dn := g.Backward(x, mu)
			h := fwd[mu].Apply(spin.ColorMul(d.u.Links[mu][x], psi.Sites[up]))
			h = h.Add(bwd[mu].Apply(spin.ColorAdjMul(d.u.Links[mu][dn], psi.Sites[dn])))
			r = r.AXPY(complex(d.coeff[mu], 0), h)
		}
		chi.Sites[x] = r
	}
}

// Deriv adds the gauge derivative of Re<chi, D(sign) psi> to f, with chi on
// checkerboard cb and psi on the other one.
func (d *Dslash) Deriv(f *field.Force, chi, psi *field.Fermion, sign spin.Sign, cb lattice.Checkerboard) {
	g := d.u.Geometry()
	for mu := range lattice.Nd {
		fwd := spin.HopProjector(mu, sign)
		bwd := spin.HopProjector(mu, sign.Flip())
		c := complex(d.coeff[mu], 0)
		links := d.u.Links[mu]
		for x := range g.Sites(cb) {
			up := g.Forward(x, mu)
			dn := g.Backward(x, mu)

			m := su3.Mul(links[x], spin.ColorOuter(psi.Sites[up], fwd.Apply(chi.Sites[x])))
			f.M[mu][x] = f.M[mu][x].Add(m.Scale(c))

			m = su3.MulAdj(spin.ColorOuter(psi.Sites[dn], bwd.Apply(chi.Sites[x])), links[dn])
			f.M[mu][dn] = f.M[mu][dn].Sub(m.Scale(c))
		}
	}
}

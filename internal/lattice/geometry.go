package lattice

import (
	"errors"
	"fmt"
	"iter"
	"math"
)

// Nd is the number of space-time directions.
const Nd = 4

// MaxVolume is the largest lattice the int32 neighbour tables can index.
const MaxVolume = math.MaxInt32

var (
	ErrBadExtent   = errors.New("lattice: extents must be positive, even and index at most MaxVolume sites")
	ErrSiteOutside = errors.New("lattice: site index out of range")
)

// Checkerboard selects one of the two parity subsets of the lattice.
type Checkerboard int

const (
	Even Checkerboard = 0
	Odd  Checkerboard = 1
)

// Other returns the opposite checkerboard.
func (cb Checkerboard) Other() Checkerboard { return 1 - cb }

func (cb Checkerboard) String() string {
	switch cb {
	case Even:
		return "even"
	case Odd:
		return "odd"
	default:
		return fmt.Sprintf("checkerboard(%d)", int(cb))
	}
}

// Valid reports whether cb is Even or Odd.
func (cb Checkerboard) Valid() bool { return cb == Even || cb == Odd }

// Geometry is an immutable periodic Nd-dimensional grid.
//
// Sites are numbered lexicographically with x running fastest. Every extent
// is even, so a nearest-neighbour step always flips the site parity, including
// steps that wrap around a boundary.
type Geometry struct {
	dims [Nd]int
	vol  int

	fwd [Nd][]int32
	bwd [Nd][]int32
}

// NewGeometry builds the neighbour tables for a lattice of the given extents.
func NewGeometry(dims [Nd]int) (*Geometry, error) {
	vol := 1
	for mu, l := range dims {
		if l <= 0 || l%2 != 0 {
			return nil, fmt.Errorf("direction %d extent %d: %w", mu, l, ErrBadExtent)
		}
		if vol > MaxVolume/l {
			return nil, fmt.Errorf("extents %v exceed %d sites: %w", dims, MaxVolume, ErrBadExtent)
		}
		vol *= l
	}

	g := &Geometry{dims: dims, vol: vol}
	for mu := range Nd {
		g.fwd[mu] = make([]int32, vol)
		g.bwd[mu] = make([]int32, vol)
	}
	for i := range vol {
		c := g.Coords(i)
		for mu := range Nd {
			up, dn := c, c
			up[mu]++
			dn[mu]--
			g.fwd[mu][i] = int32(g.Index(up))
			g.bwd[mu][i] = int32(g.Index(dn))
		}
	}
	return g, nil
}

// Dims returns the lattice extents.
func (g *Geometry) Dims() [Nd]int { return g.dims }

// Extent returns the extent in direction mu.
func (g *Geometry) Extent(mu int) int { return g.dims[mu] }

// Volume returns the number of lattice sites.
func (g *Geometry) Volume() int { return g.vol }

// CBVolume returns the number of sites on one checkerboard.
func (g *Geometry) CBVolume() int { return g.vol / 2 }

// Index maps coordinates to a site index. Coordinates are reduced modulo the
// extents, so out-of-range values wrap periodically.
func (g *Geometry) Index(c [Nd]int) int {
	idx := 0
	for mu := Nd - 1; mu >= 0; mu-- {
		l := g.dims[mu]
		x := ((c[mu] % l) + l) % l
		idx = idx*l + x
	}
	return idx
}

// Coords is the inverse of Index.
func (g *Geometry) Coords(site int) [Nd]int {
	var c [Nd]int
	for mu := range Nd {
		c[mu] = site % g.dims[mu]
		site /= g.dims[mu]
	}
	return c
}

// Parity returns the checkerboard of a site.
func (g *Geometry) Parity(site int) Checkerboard {
	c := g.Coords(site)
	return Checkerboard((c[0] + c[1] + c[2] + c[3]) & 1)
}

// CBIndex maps a site to a dense index in [0, CBVolume) that is unique among
// the sites of the same parity. It relies on the x extent being even.
func (g *Geometry) CBIndex(site int) int { return site >> 1 }

// Forward returns the neighbour of site one step in +mu.
func (g *Geometry) Forward(site, mu int) int { return int(g.fwd[mu][site]) }

// Backward returns the neighbour of site one step in -mu.
func (g *Geometry) Backward(site, mu int) int { return int(g.bwd[mu][site]) }

// Sites iterates over the sites of one checkerboard in increasing index
// order. The sequence is computed on the fly and may be ranged over any number
// of times.
func (g *Geometry) Sites(cb Checkerboard) iter.Seq[int] {
	lx, ly, lz, lt := g.dims[0], g.dims[1], g.dims[2], g.dims[3]
	return func(yield func(int) bool) {
		for t := range lt {
			for z := range lz {
				for y := range ly {
					base := lx * (y + ly*(z+lz*t))
					for x := (int(cb) + y + z + t) & 1; x < lx; x += 2 {
						if !yield(base + x) {
							return
						}
					}
				}
			}
		}
	}
}

// Same reports whether two geometries describe the same lattice.
func (g *Geometry) Same(o *Geometry) bool {
	if g == o {
		return true
	}
	return g != nil && o != nil && g.dims == o.dims
}

package lattice

import (
	"errors"
	"fmt"
)

var ErrBadLayout = errors.New("lattice: node grid does not divide the lattice")

// Layout describes how the lattice is split across compute nodes. Node i in
// direction mu owns a contiguous block of Lattice[mu]/Grid[mu] slices. Coord
// is the position of the local node in the grid.
type Layout struct {
	Lattice [Nd]int
	Grid    [Nd]int
	Coord   [Nd]int
}

// SingleNode returns the layout that keeps the whole lattice on one node.
func SingleNode(dims [Nd]int) Layout {
	return Layout{Lattice: dims, Grid: [Nd]int{1, 1, 1, 1}}
}

// NewLayout validates that grid evenly divides the lattice and that coord
// names a node inside the grid.
func NewLayout(dims, grid, coord [Nd]int) (Layout, error) {
	for mu := range Nd {
		if grid[mu] <= 0 || dims[mu] <= 0 || dims[mu]%grid[mu] != 0 {
			return Layout{}, fmt.Errorf("direction %d: %d nodes over extent %d: %w", mu, grid[mu], dims[mu], ErrBadLayout)
		}
		if coord[mu] < 0 || coord[mu] >= grid[mu] {
			return Layout{}, fmt.Errorf("direction %d: node %d outside grid of %d: %w", mu, coord[mu], grid[mu], ErrBadLayout)
		}
	}
	return Layout{Lattice: dims, Grid: grid, Coord: coord}, nil
}

// Subgrid returns the per-node extents.
func (l Layout) Subgrid() [Nd]int {
	var sub [Nd]int
	for mu := range Nd {
		sub[mu] = l.Lattice[mu] / l.Grid[mu]
	}
	return sub
}

// OnNode reports whether direction mu is held entirely by every node.
func (l Layout) OnNode(mu int) bool {
	return l.Subgrid()[mu] == l.Lattice[mu]
}

// LocalRange returns the half-open coordinate range [lo, hi) of direction mu
// held by the local node.
func (l Layout) LocalRange(mu int) (lo, hi int) {
	n := l.Lattice[mu] / l.Grid[mu]
	lo = l.Coord[mu] * n
	return lo, lo + n
}

// Nodes returns the total number of nodes.
func (l Layout) Nodes() int {
	n := 1
	for _, g := range l.Grid {
		n *= g
	}
	return n
}

// SitesOnNode returns the number of sites held by one node.
func (l Layout) SitesOnNode() int {
	n := 1
	for _, s := range l.Subgrid() {
		n *= s
	}
	return n
}

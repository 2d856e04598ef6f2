package linop

import (
	"github.com/samcharles93/dirac/internal/clover"
	"github.com/samcharles93/dirac/internal/lattice"
	"github.com/samcharles93/dirac/internal/metrics"
	"github.com/samcharles93/dirac/internal/wilson"
)

// CloverParams fixes a Wilson-clover operator. Values are copied at Create.
type CloverParams struct {
	Mass  float64      `json:"mass" yaml:"mass" toml:"mass"`
	CswR  float64      `json:"csw_r" yaml:"csw_r" toml:"csw_r"`
	CswT  float64      `json:"csw_t" yaml:"csw_t" toml:"csw_t"`
	Aniso wilson.Aniso `json:"aniso" yaml:"aniso" toml:"aniso"`

	// Twisted mass is accepted in configuration files so that it can be
	// rejected with a clear error; neither clover variant implements it.
	TwistedMass bool    `json:"twisted_mass" yaml:"twisted_mass" toml:"twisted_mass"`
	Mu          float64 `json:"mu" yaml:"mu" toml:"mu"`
}

func (p CloverParams) term() clover.Params {
	return clover.Params{Mass: p.Mass, CswR: p.CswR, CswT: p.CswT, Aniso: p.Aniso}
}

// DWFParams fixes a domain-wall operator.
type DWFParams struct {
	// M5 is the domain-wall height.
	M5 float64 `json:"m5" yaml:"m5" toml:"m5"`
	// Mf is the bare quark mass coupling the two walls.
	Mf float64 `json:"mf" yaml:"mf" toml:"mf"`
	N5 int     `json:"n5" yaml:"n5" toml:"n5"`
}

type options struct {
	sink   metrics.Sink
	layout *lattice.Layout
}

// Option configures an operator at construction.
type Option func(*options)

// WithSink reports section timings into s.
func WithSink(s metrics.Sink) Option {
	return func(o *options) { o.sink = s }
}

// WithLayout describes how the lattice is split across nodes. Without it the
// whole lattice is assumed to live on one node.
func WithLayout(l lattice.Layout) Option {
	return func(o *options) { o.layout = &l }
}

func newOptions(opts []Option) options {
	o := options{sink: metrics.Nop{}}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// layoutFor returns the configured layout, checked against g.
func (o options) layoutFor(g *lattice.Geometry) (lattice.Layout, error) {
	if o.layout == nil {
		return lattice.SingleNode(g.Dims()), nil
	}
	if o.layout.Lattice != g.Dims() {
		return lattice.Layout{}, configErrorf("build the layout from the gauge field's lattice extents",
			"layout lattice %v does not match gauge field %v", o.layout.Lattice, g.Dims())
	}
	return *o.layout, nil
}

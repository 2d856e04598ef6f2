// Package config loads operator run descriptions from YAML, TOML or JSON and
// turns them into the lattice, layout and gauge field an operator is created
// over.
package config

import (
	"bytes"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	json "github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/dirac/internal/field"
	"github.com/samcharles93/dirac/internal/lattice"
	"github.com/samcharles93/dirac/internal/linop"
	"github.com/samcharles93/dirac/internal/wilson"
)

// Operator names the operator family of a run.
type Operator string

const (
	Clover   Operator = "clover"
	Orbifold Operator = "orbifold"
	DWF      Operator = "dwf"
)

// GaugeStart selects how the gauge field is initialised.
type GaugeStart string

const (
	Unit   GaugeStart = "unit"
	Random GaugeStart = "random"
)

type Gauge struct {
	Start GaugeStart `json:"start" yaml:"start" toml:"start"`
	Seed  uint64     `json:"seed" yaml:"seed" toml:"seed"`
	// Disorder scales the random Hermitian generator of each link. Zero gives
	// unit links.
	Disorder float64 `json:"disorder" yaml:"disorder" toml:"disorder"`
}

// Run describes one operator over one gauge field. Grid and Coord default to
// a single node.
type Run struct {
	Lattice  []int    `json:"lattice" yaml:"lattice" toml:"lattice"`
	Grid     []int    `json:"grid,omitempty" yaml:"grid,omitempty" toml:"grid,omitempty"`
	Coord    []int    `json:"coord,omitempty" yaml:"coord,omitempty" toml:"coord,omitempty"`
	Operator Operator `json:"operator" yaml:"operator" toml:"operator"`

	Clover linop.CloverParams `json:"clover" yaml:"clover" toml:"clover"`
	DWF    linop.DWFParams    `json:"dwf" yaml:"dwf" toml:"dwf"`
	Gauge  Gauge              `json:"gauge" yaml:"gauge" toml:"gauge"`
}

// Default returns the description every decoded file starts from.
func Default() Run {
	return Run{
		Lattice:  []int{4, 4, 4, 4},
		Operator: Clover,
		Clover:   linop.CloverParams{Mass: 0.1, CswR: 1, CswT: 1, Aniso: wilson.Isotropic()},
		DWF:      linop.DWFParams{M5: 1.8, Mf: 0.02, N5: 8},
		Gauge:    Gauge{Start: Random, Seed: 1, Disorder: 0.5},
	}
}

// Format is a file encoding.
type Format string

const (
	YAML Format = "yaml"
	TOML Format = "toml"
	JSON Format = "json"
)

// FormatOf picks the encoding from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	case ".json":
		return JSON, nil
	default:
		return "", invalid(errors.Newf("config: cannot tell the format of %q", path),
			"use a .yaml, .yml, .toml or .json extension")
	}
}

// Load reads, decodes and validates the run file at path.
func Load(path string) (Run, error) {
	f, err := FormatOf(path)
	if err != nil {
		return Run{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Run{}, invalid(errors.Wrap(err, "config"), "")
	}
	r, err := Parse(data, f)
	if err != nil {
		return Run{}, errors.Wrapf(err, "%s", path)
	}
	return r, nil
}

// Parse decodes data over Default and validates the result. Unknown keys are
// rejected.
func Parse(data []byte, f Format) (Run, error) {
	r := Default()
	var err error
	switch f {
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&r)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	case TOML:
		err = toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&r)
	case JSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&r)
	default:
		return Run{}, invalid(errors.Newf("config: unknown format %q", f), "")
	}
	if err != nil {
		return Run{}, invalid(errors.Wrapf(err, "config: decode %s", f), "")
	}
	if err := r.Validate(); err != nil {
		return Run{}, err
	}
	return r, nil
}

// Validate rejects descriptions no operator could be created from.
func (r Run) Validate() error {
	dims, err := extents("lattice", r.Lattice)
	if err != nil {
		return err
	}
	for mu, l := range dims {
		if l <= 0 || l%2 != 0 {
			return invalid(errors.Newf("config: lattice extent %d in direction %d", l, mu),
				"every extent must be positive and even")
		}
	}
	vol := 1
	for _, l := range dims {
		if vol > lattice.MaxVolume/l {
			return invalid(errors.Newf("config: lattice %v is too large", dims),
				fmt.Sprintf("at most %d sites are supported", lattice.MaxVolume))
		}
		vol *= l
	}
	if _, err := r.Layout(); err != nil {
		return err
	}

	switch r.Operator {
	case Clover, Orbifold:
		if r.Clover.TwistedMass {
			return invalid(errors.New("config: twisted mass is not supported by the clover operators"), "")
		}
		if err := r.Clover.Aniso.Validate(); err != nil {
			return invalid(errors.Wrap(err, "config"), "set xi0 > 0 and t_dir in 0..3")
		}
	case DWF:
		if r.DWF.N5 < 2 {
			return invalid(errors.Newf("config: n5 = %d", r.DWF.N5), "use at least two slices")
		}
		if r.DWF.M5 == 5 {
			return invalid(errors.New("config: m5 = 5 leaves a zero diagonal"), "")
		}
	default:
		return invalid(errors.Newf("config: unknown operator %q", r.Operator),
			"choose clover, orbifold or dwf")
	}

	switch r.Gauge.Start {
	case Unit, Random:
	default:
		return invalid(errors.Newf("config: unknown gauge start %q", r.Gauge.Start), "choose unit or random")
	}
	if r.Gauge.Disorder < 0 {
		return invalid(errors.Newf("config: gauge disorder %g", r.Gauge.Disorder), "disorder must be >= 0")
	}
	return nil
}

// Dims returns the lattice extents.
func (r Run) Dims() ([lattice.Nd]int, error) {
	return extents("lattice", r.Lattice)
}

// Geometry builds the lattice.
func (r Run) Geometry() (*lattice.Geometry, error) {
	dims, err := r.Dims()
	if err != nil {
		return nil, err
	}
	g, err := lattice.NewGeometry(dims)
	if err != nil {
		return nil, invalid(errors.Wrap(err, "config"), fmt.Sprintf("every extent must be positive and even, with at most %d sites", lattice.MaxVolume))
	}
	return g, nil
}

// Layout builds the node layout, defaulting to a single node.
func (r Run) Layout() (lattice.Layout, error) {
	dims, err := r.Dims()
	if err != nil {
		return lattice.Layout{}, err
	}
	grid := [lattice.Nd]int{1, 1, 1, 1}
	if len(r.Grid) > 0 {
		if grid, err = extents("grid", r.Grid); err != nil {
			return lattice.Layout{}, err
		}
	}
	var coord [lattice.Nd]int
	if len(r.Coord) > 0 {
		if coord, err = extents("coord", r.Coord); err != nil {
			return lattice.Layout{}, err
		}
	}
	l, err := lattice.NewLayout(dims, grid, coord)
	if err != nil {
		return lattice.Layout{}, invalid(errors.Wrap(err, "config"), "each grid entry must divide the lattice extent")
	}
	return l, nil
}

// NewGauge builds the gauge field over g.
func (r Run) NewGauge(g *lattice.Geometry) *field.Gauge {
	if r.Gauge.Start == Unit || r.Gauge.Disorder == 0 {
		return field.UnitGauge(g)
	}
	return field.RandomGauge(g, r.RNG(0), r.Gauge.Disorder)
}

// RNG returns a generator derived from the gauge seed. Stream 0 is reserved
// for the gauge field.
func (r Run) RNG(stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(r.Gauge.Seed, 0x9e3779b97f4a7c15^stream))
}

func extents(name string, v []int) ([lattice.Nd]int, error) {
	var d [lattice.Nd]int
	if len(v) != lattice.Nd {
		return d, invalid(errors.Newf("config: %s has %d entries", name, len(v)),
			"give one entry per direction x, y, z, t")
	}
	copy(d[:], v)
	return d, nil
}

func invalid(err error, hint string) error {
	err = errors.Mark(err, linop.ErrConfiguration)
	if hint != "" {
		err = errors.WithHint(err, hint)
	}
	return err
}

package api

import (
	"github.com/samcharles93/dirac/internal/config"
	"github.com/samcharles93/dirac/internal/lattice"
	"github.com/samcharles93/dirac/internal/version"
)

type FlopsResponse struct {
	Operator config.Operator `json:"operator"`
	Lattice  [lattice.Nd]int `json:"lattice"`
	Grid     [lattice.Nd]int `json:"grid"`
	N5       int             `json:"n5,omitempty"`
	NFlops   uint64          `json:"nflops"`
}

type HealthResponse struct {
	Status  string       `json:"status"`
	Version version.Info `json:"version"`
	Reports int          `json:"reports"`
}

type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail.Type is the error kind: configuration, numerical-breakdown,
// usage, invalid_request, not_found or internal.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Hint    string `json:"hint,omitempty"`
}

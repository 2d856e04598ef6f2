// Package api serves operator diagnostics over HTTP.
package api

import (
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/dirac/internal/check"
	"github.com/samcharles93/dirac/internal/logger"
	"github.com/samcharles93/dirac/internal/version"
)

// DefaultMaxVolume bounds the lattice a single request may ask for.
const DefaultMaxVolume = 16 * 16 * 16 * 16

type Server struct {
	store     *ReportStore
	log       logger.Logger
	maxVolume int
}

func NewServer(store *ReportStore, log logger.Logger, maxVolume int) *Server {
	if store == nil {
		store = NewReportStore(0)
	}
	if log == nil {
		log = logger.Discard()
	}
	if maxVolume <= 0 {
		maxVolume = DefaultMaxVolume
	}
	return &Server{store: store, log: log, maxVolume: maxVolume}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/v1/health", s.handleHealth)
	e.POST("/v1/check", s.handleCheck)
	e.GET("/v1/check/:id", s.handleGetReport)
	e.DELETE("/v1/check/:id", s.handleDeleteReport)
	e.POST("/v1/flops", s.handleFlops)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, HealthResponse{Status: "ok", Version: version.Resolve(), Reports: s.store.Len()})
}

// handleCheck runs every check for the posted operator. Failing checks still
// answer 200; the report says which failed.
func (s *Server) handleCheck(c *echo.Context) error {
	r, err := readRun(c, s.maxVolume)
	if err != nil {
		return writeError(c, err)
	}
	rep, err := check.Run(c.Request().Context(), r, s.log)
	if err != nil {
		s.log.Warn("check failed to run", "operator", string(r.Operator), "error", err)
		return writeError(c, err)
	}
	s.store.Put(rep)
	return writeJSON(c, http.StatusOK, rep)
}

func (s *Server) handleGetReport(c *echo.Context) error {
	rep, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "no report with id "+c.Param("id"))
	}
	return writeJSON(c, http.StatusOK, rep)
}

func (s *Server) handleDeleteReport(c *echo.Context) error {
	if !s.store.Delete(c.Param("id")) {
		return writeNotFound(c, "no report with id "+c.Param("id"))
	}
	c.Response().WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) handleFlops(c *echo.Context) error {
	r, err := readRun(c, s.maxVolume)
	if err != nil {
		return writeError(c, err)
	}
	t, err := check.Build(r)
	if err != nil {
		return writeError(c, err)
	}
	return writeJSON(c, http.StatusOK, FlopsResponse{
		Operator: r.Operator,
		Lattice:  t.Layout.Lattice,
		Grid:     t.Layout.Grid,
		N5:       t.N5(),
		NFlops:   t.NFlops(),
	})
}

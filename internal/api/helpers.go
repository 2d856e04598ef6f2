package api

import (
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/cockroachdb/errors"
	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/dirac/internal/config"
	"github.com/samcharles93/dirac/internal/linop"
)

const maxBodyBytes = 1 << 20

func writeJSON(c *echo.Context, status int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res.WriteHeader(status)
	_, err = res.Write(b)
	return err
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeJSON(c, http.StatusNotFound, ErrorBody{Error: ErrorDetail{Message: msg, Type: "not_found"}})
}

// writeError maps an error kind to a status: configuration and usage errors
// are the caller's fault, a numerical breakdown is a valid request the
// operator cannot serve.
func writeError(c *echo.Context, err error) error {
	detail := ErrorDetail{Message: err.Error(), Hint: errors.FlattenHints(err)}
	status := http.StatusInternalServerError
	switch kind := linop.KindOf(err); {
	case errors.Is(err, ErrInvalidRequest):
		status, detail.Type = http.StatusBadRequest, "invalid_request"
	case kind == linop.KindConfiguration, kind == linop.KindUsage:
		status, detail.Type = http.StatusBadRequest, kind.String()
	case kind == linop.KindNumericalBreakdown:
		status, detail.Type = http.StatusUnprocessableEntity, kind.String()
	default:
		detail.Type = "internal"
	}
	return writeJSON(c, status, ErrorBody{Error: detail})
}

// readRun decodes a JSON run description from the request body.
func readRun(c *echo.Context, maxVolume int) (config.Run, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes+1))
	if err != nil {
		return config.Run{}, invalidRequest("", "read body: %v", err)
	}
	if len(body) > maxBodyBytes {
		return config.Run{}, invalidRequest("", "request body exceeds %d bytes", maxBodyBytes)
	}
	if len(body) == 0 {
		return config.Run{}, invalidRequest(`post a run description such as {"operator": "clover"}`, "empty request body")
	}
	r, err := config.Parse(body, config.JSON)
	if err != nil {
		return config.Run{}, err
	}
	sites, err := requestSites(r)
	if err != nil {
		return config.Run{}, err
	}
	if maxVolume > 0 && sites > maxVolume {
		return config.Run{}, invalidRequest(fmt.Sprintf("this server accepts at most %d sites, counting n5 slices for dwf", maxVolume),
			"run needs %d sites, over the server limit", sites)
	}
	return r, nil
}

// requestSites returns the lattice volume, times N5 for domain-wall runs. The
// product saturates at math.MaxInt instead of wrapping.
func requestSites(r config.Run) (int, error) {
	dims, err := r.Dims()
	if err != nil {
		return 0, err
	}
	factors := dims[:]
	if r.Operator == config.DWF {
		factors = append(factors, r.DWF.N5)
	}
	n := 1
	for _, f := range factors {
		if f <= 0 {
			continue
		}
		if n > math.MaxInt/f {
			return math.MaxInt, nil
		}
		n *= f
	}
	return n, nil
}

package linop

import (
	"github.com/cockroachdb/errors"
)

// Sentinel errors. Errors returned by this package match exactly one of them
// under errors.Is; lower-level causes stay reachable through the chain.
var (
	// ErrConfiguration rejects a parameter set or machine layout the operator
	// cannot be built for.
	ErrConfiguration = errors.New("linop: invalid configuration")

	// ErrNumericalBreakdown reports a singular or indefinite diagonal block.
	ErrNumericalBreakdown = errors.New("linop: numerical breakdown")

	// ErrNotCreated is returned by every entry point before Create succeeds.
	ErrNotCreated = errors.New("linop: operator not created")

	// ErrNotFactored is returned when an inverse or log-determinant is
	// requested for a block that was never factored.
	ErrNotFactored = errors.New("linop: diagonal block not factored")

	// ErrGeometry rejects fields that do not live on the operator's lattice,
	// or a sign or fifth-dimension extent the operator does not accept.
	ErrGeometry = errors.New("linop: field does not match operator")
)

// Kind classifies an error for callers that map failures to exit codes or
// status lines.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindNumericalBreakdown
	KindUsage
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindNumericalBreakdown:
		return "numerical-breakdown"
	case KindUsage:
		return "usage"
	default:
		return "unknown"
	}
}

// KindOf returns the kind of err, or KindUnknown for nil and foreign errors.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrNumericalBreakdown):
		return KindNumericalBreakdown
	case errors.IsAny(err, ErrNotCreated, ErrNotFactored, ErrGeometry):
		return KindUsage
	default:
		return KindUnknown
	}
}

func configError(cause error, hint string) error {
	err := errors.Mark(cause, ErrConfiguration)
	if hint != "" {
		err = errors.WithHint(err, hint)
	}
	return err
}

func configErrorf(hint, format string, args ...any) error {
	return configError(errors.Newf(format, args...), hint)
}

func breakdown(cause error, msg string) error {
	return errors.Mark(errors.Wrap(cause, msg), ErrNumericalBreakdown)
}

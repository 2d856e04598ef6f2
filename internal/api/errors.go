package api

import "github.com/cockroachdb/errors"

// ErrInvalidRequest marks requests rejected before a run description is
// decoded or built.
var ErrInvalidRequest = errors.New("invalid request")

func invalidRequest(hint, format string, args ...any) error {
	err := errors.Mark(errors.Newf(format, args...), ErrInvalidRequest)
	if hint != "" {
		err = errors.WithHint(err, hint)
	}
	return err
}

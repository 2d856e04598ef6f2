package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/dirac/internal/linop"
)

// Process exit codes.
const (
	exitFailure       = 1
	exitConfiguration = 2
	exitBreakdown     = 3
	exitUsage         = 4
)

func exitCode(err error) int {
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	switch linop.KindOf(err) {
	case linop.KindConfiguration:
		return exitConfiguration
	case linop.KindNumericalBreakdown:
		return exitBreakdown
	case linop.KindUsage:
		return exitUsage
	default:
		return exitFailure
	}
}

// fail wraps err in a cli exit error carrying its kind's exit code, with any
// hints appended to the message.
func fail(what string, err error) error {
	msg := fmt.Sprintf("error: %s: %v", what, err)
	if hint := errors.FlattenHints(err); hint != "" {
		msg += "\nhint: " + hint
	}
	return cli.Exit(msg, exitCode(err))
}

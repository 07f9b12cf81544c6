package main

import (
	"github.com/f5xc/xcsh/pkg/api"
	"github.com/f5xc/xcsh/pkg/domains"
)

// exitCode maps a one-shot result to the process exit status.
func exitCode(r domains.Result) int {
	f, ok := r.(domains.Failure)
	if !ok {
		return api.ExitSuccess
	}
	switch f.Kind {
	case domains.KindUnknownDomain, domains.KindUnknownCommand, domains.KindConflict,
		domains.KindUnexpectedArgs, domains.KindValidation:
		return api.ExitValidationError
	case domains.KindExecution:
		if f.Err != nil {
			return api.ExitCode(f.Err)
		}
	}
	return api.ExitGenericError
}

package cli

import (
	"errors"
	"net/http"

	"github.com/mesh-intelligence/sndeals/pkg/types"
)

// exitError attaches an exit code to an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userErr(err error) error { return &exitError{code: exitUserError, err: err} }
func sysErr(err error) error  { return &exitError{code: exitSysError, err: err} }

// exitCode maps err to a process exit code. Network failures and 5xx
// responses are system errors; everything else the user can fix.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if errors.Is(err, types.ErrNetwork) {
		return exitSysError
	}
	var se *types.ServerError
	if errors.As(err, &se) && se.Status >= http.StatusInternalServerError {
		return exitSysError
	}
	return exitUserError
}

package errx

import "errors"

// exitCoder is implemented by *exec.ExitError and by *Error.
type exitCoder interface {
	ExitCode() int
}

// ExitCode resolves the process exit status for err.
//
// A nil error is 0. Otherwise the first positive status found while walking
// the cause chain wins, so an explicit WithExitCode on an outer error takes
// precedence over the status of the command that caused it. Errors with no
// positive status map to 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	for _, item := range flattenChain(err) {
		var coder exitCoder
		if errors.As(item, &coder) {
			if code := coder.ExitCode(); code > 0 {
				return code
			}
		}
	}
	return 1
}

package errors

import (
	"errors"
	"fmt"
)

// CommandError carries an explicit process exit code out of a cobra RunE
// chain so main can surface it without string matching.
type CommandError struct {
	ExitCode int
	Message  string
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	return e.Message
}

// NewCommandError wraps err with the exit code the process should report.
func NewCommandError(err error, code int) *CommandError {
	return &CommandError{
		ExitCode: code,
		Message:  err.Error(),
	}
}

// NewCommandErrorf builds a CommandError from a format string.
func NewCommandErrorf(code int, format string, args ...interface{}) *CommandError {
	return &CommandError{
		ExitCode: code,
		Message:  fmt.Sprintf(format, args...),
	}
}

// ExitCode extracts the exit code from err, defaulting to 1 for plain errors
// and 0 for nil.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode
	}
	return 1
}

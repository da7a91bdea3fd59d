package main

import (
	"errors"
	"fmt"

	logiserrors "github.com/odvcencio/logis/pkg/errors"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

type exitCoder interface {
	ExitCode() int
}

// exitError attaches a process exit code to an error.
type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e exitError) Unwrap() error {
	return e.err
}

func (e exitError) ExitCode() int {
	if e.code == 0 {
		return exitFailure
	}
	return e.code
}

func withExitCode(err error, code int) error {
	if err == nil {
		return nil
	}
	return exitError{code: code, err: err}
}

// usageError reports a malformed invocation.
func usageError(format string, args ...any) error {
	return withExitCode(fmt.Errorf(format, args...), exitUsage)
}

// exitCodeForError prefers an explicit exit code, then treats configuration
// errors as usage errors.
func exitCodeForError(err error) int {
	if err == nil {
		return 0
	}
	var coded exitCoder
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	switch logiserrors.GetCode(err) {
	case logiserrors.ErrCodeConfigLoad, logiserrors.ErrCodeConfigParse, logiserrors.ErrCodeConfigInvalid:
		return exitUsage
	}
	return exitFailure
}

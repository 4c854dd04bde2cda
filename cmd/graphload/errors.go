package main

import (
	"errors"
	"fmt"
)

// Exit codes for the CLI.
const (
	// ExitSuccess means every selected record was imported.
	ExitSuccess = 0
	// ExitError means the run could not start or was aborted.
	ExitError = 1
	// ExitRecordFailures means the run completed with failed records.
	ExitRecordFailures = 2
)

// exitError carries the exit code a failure should produce.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

func exitCodeOf(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitError
}

// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// UsageError signals an argument-parsing problem. By the time a
// UsageError is returned, Execute has already printed the full help
// text to stderr; main prints the message and exits with status 2,
// matching conventional argument-parser behavior.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// ExitCode returns 2, the conventional exit status for usage errors.
func (e *UsageError) ExitCode() int {
	return 2
}

// ExitError signals a non-zero exit code without printing an extra
// error message. When a command handler returns an ExitError, the CLI
// framework exits with the specified code without printing the error
// string; the command is expected to have already written its own
// output.
//
// This is useful for commands where a non-zero exit is a valid
// outcome (e.g., "view" returning 1 for a missing conversation)
// rather than an unexpected error.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code. The binary's main checks for this
// interface on returned errors to distinguish "handled non-zero exit"
// from "unexpected error to display".
func (e *ExitError) ExitCode() int {
	return e.Code
}

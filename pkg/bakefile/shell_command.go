// SPDX-License-Identifier: MPL-2.0

package bakefile

import (
	"errors"
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ErrInvalidShellCommand is the sentinel error wrapped by InvalidShellCommandError.
var ErrInvalidShellCommand = errors.New("invalid shell command")

type (
	// ShellCommand is a single shell command line that will be embedded into
	// a RUN instruction of the rendered recipe. Commands are syntax-checked
	// at parse time so a malformed command fails the bake before any engine
	// work starts, rather than mid-build inside a layer.
	ShellCommand string

	// InvalidShellCommandError is returned when a ShellCommand is empty or
	// fails shell syntax parsing.
	InvalidShellCommandError struct {
		Value ShellCommand
		Cause error
	}
)

// String returns the string representation of the ShellCommand.
func (c ShellCommand) String() string { return string(c) }

// Validate returns an error if the ShellCommand is empty or not parseable
// as POSIX shell syntax.
func (c ShellCommand) Validate() error {
	cmd := strings.TrimSpace(string(c))
	if cmd == "" {
		return &InvalidShellCommandError{Value: c, Cause: errors.New("must be non-empty")}
	}

	parser := syntax.NewParser(syntax.Variant(syntax.LangPOSIX))
	if _, err := parser.Parse(strings.NewReader(cmd), ""); err != nil {
		return &InvalidShellCommandError{Value: c, Cause: err}
	}

	return nil
}

// Error implements the error interface.
func (e *InvalidShellCommandError) Error() string {
	return fmt.Sprintf("invalid shell command %q: %v", e.Value, e.Cause)
}

// Unwrap returns ErrInvalidShellCommand so callers can use errors.Is for programmatic detection.
func (e *InvalidShellCommandError) Unwrap() error { return ErrInvalidShellCommand }

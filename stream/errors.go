package stream

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions.
var (
	ErrDriverBusy = errors.New("driver already running")
)

// ProcessError represents a process-level error: launch, pipe, or wait
// failures around the wrapped CLI.
type ProcessError struct {
	Cause    error
	Message  string
	Stderr   string
	ExitCode int
}

func (e *ProcessError) Error() string {
	if e.ExitCode != 0 {
		return fmt.Sprintf("process error: %s (exit code %d)", e.Message, e.ExitCode)
	}
	return fmt.Sprintf("process error: %s", e.Message)
}

func (e *ProcessError) Unwrap() error {
	return e.Cause
}

// CLINotFoundError indicates the wrapped CLI binary was not found on PATH.
type CLINotFoundError struct {
	Name  string
	Hint  string
	Cause error
}

func (e *CLINotFoundError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s CLI not found: %v (install with: %s)", e.Name, e.Cause, e.Hint)
	}
	return fmt.Sprintf("%s CLI not found: %v", e.Name, e.Cause)
}

func (e *CLINotFoundError) Unwrap() error {
	return e.Cause
}

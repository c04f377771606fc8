// Package action runs the ROT-13 transform as a CI automation action. The
// host is reduced to the Core capability so the orchestration is testable
// without a live runner environment.
package action

import (
	"fmt"

	"github.com/dyne/rot13/internal/rot13"
)

const (
	// InputName and OutputName are the action's declared surface.
	InputName  = "string"
	OutputName = "result"
)

// Core is the boundary capability injected into Run. Every side effect of
// the orchestration goes through it.
type Core interface {
	// GetInput reads a named input. The second return reports whether the
	// host supplied the input at all.
	GetInput(name string) (string, bool)
	// SetOutput emits a named output value.
	SetOutput(name, value string) error
	// SetFailed reports a terminal failure. It does not terminate the
	// process; the caller decides the exit path.
	SetFailed(message string)
	// Infof emits a diagnostic log line.
	Infof(format string, args ...any)
}

// ValidationError reports an input that is absent from the host
// environment. It is the only domain error kind this package produces.
type ValidationError struct {
	Input string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("input %q is required and was not supplied", e.Input)
}

// Validate checks the raw boundary value. A present string passes through
// unchanged, the empty string included.
func Validate(value string, present bool) (string, error) {
	if !present {
		return "", &ValidationError{Input: InputName}
	}
	return value, nil
}

// Run reads the input, validates it, transforms it, and writes the output
// exactly once. On validation failure it reports through SetFailed, writes
// no output, and returns the error for the process-exit path.
func Run(core Core) error {
	raw, present := core.GetInput(InputName)
	value, err := Validate(raw, present)
	if err != nil {
		core.SetFailed(err.Error())
		return err
	}
	core.Infof("rotating %d bytes", len(value))
	if err := core.SetOutput(OutputName, rot13.Transform(value)); err != nil {
		core.SetFailed(err.Error())
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

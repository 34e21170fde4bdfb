package scenario

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownState      = errors.New("unknown state")
	ErrUnknownScenario   = errors.New("unknown scenario")
	ErrDuplicateScenario = errors.New("scenario already registered")
	ErrOverrideConflict  = errors.New("conflicting scenario overrides")
	ErrInvalidEntry      = errors.New("invalid scenario entry")
	ErrRegistryFrozen    = errors.New("scenario registry is frozen")
	ErrTransitionLoop    = errors.New("too many chained transitions")
	ErrUnknownEffect     = errors.New("unknown effect")

	// ErrBusy is returned when a dispatch is rejected because a call is in flight.
	// Nothing in the session changed.
	ErrBusy = errors.New("remote call in flight")
	// ErrClosed is returned by a session that has been torn down.
	ErrClosed = errors.New("session closed")
	// ErrTransport marks failures of the remote call itself.
	ErrTransport = errors.New("remote call failed")
)

// UnknownStateError is raised when a scenario names a state missing from its table.
type UnknownStateError struct {
	Scenario string
	State    StateName
}

func (e *UnknownStateError) Error() string {
	return fmt.Sprintf("scenario %s: unknown state %q", e.Scenario, e.State)
}

func (e *UnknownStateError) Unwrap() error {
	return ErrUnknownState
}

// UnknownScenarioError is raised when no entry is registered under Key.
type UnknownScenarioError struct {
	Key string
}

func (e *UnknownScenarioError) Error() string {
	return fmt.Sprintf("unknown scenario %q", e.Key)
}

func (e *UnknownScenarioError) Unwrap() error {
	return ErrUnknownScenario
}

// DuplicateScenarioError is raised when Key is registered twice.
type DuplicateScenarioError struct {
	Key string
}

func (e *DuplicateScenarioError) Error() string {
	return fmt.Sprintf("scenario %q already registered", e.Key)
}

func (e *DuplicateScenarioError) Unwrap() error {
	return ErrDuplicateScenario
}

// OverrideConflictError is raised when two modules override the same state field.
type OverrideConflictError struct {
	Scenario string
	State    StateName
	Field    string
	First    string
	Second   string
}

func (e *OverrideConflictError) Error() string {
	return fmt.Sprintf("scenario %s: state %s field %s overridden by both %s and %s",
		e.Scenario, e.State, e.Field, e.First, e.Second)
}

func (e *OverrideConflictError) Unwrap() error {
	return ErrOverrideConflict
}

// IsConfigurationError reports whether err comes from broken scenario wiring.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrUnknownState) ||
		errors.Is(err, ErrUnknownScenario) ||
		errors.Is(err, ErrDuplicateScenario) ||
		errors.Is(err, ErrOverrideConflict) ||
		errors.Is(err, ErrInvalidEntry) ||
		errors.Is(err, ErrTransitionLoop) ||
		errors.Is(err, ErrUnknownEffect)
}

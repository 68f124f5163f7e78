// Package status defines agent status records and the on-disk store they live in.
package status

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// State is the reported state of a single agent worker.
type State string

const (
	StateRunning      State = "running"
	StateWaitingInput State = "waiting_input"
	StateIdle         State = "idle"
	StateError        State = "error"
)

// DefaultProject is the project key used when a record has no project.
const DefaultProject = "_default"

var (
	// ErrInvalidState is returned for state strings outside the taxonomy.
	ErrInvalidState = errors.New("invalid status")
	// ErrMalformedRecord is returned when a store entry cannot be parsed.
	ErrMalformedRecord = errors.New("malformed status record")
)

// States lists every valid state in display order.
func States() []State {
	return []State{StateRunning, StateWaitingInput, StateIdle, StateError}
}

// ParseState converts a raw status string into a State.
func ParseState(s string) (State, error) {
	switch st := State(strings.TrimSpace(s)); st {
	case StateRunning, StateWaitingInput, StateIdle, StateError:
		return st, nil
	}
	return "", fmt.Errorf("%w %q (must be one of running, waiting_input, idle, error)", ErrInvalidState, s)
}

// IsValid reports whether s is one of the four known states.
func (s State) IsValid() bool {
	_, err := ParseState(string(s))
	return err == nil
}

// NeedsAttention reports whether the state calls for the operator.
func (s State) NeedsAttention() bool {
	return s == StateWaitingInput || s == StateError
}

// Label returns the upper-case display label for a state.
func (s State) Label() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateWaitingInput:
		return "WAITING"
	case StateIdle:
		return "IDLE"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Record is the latest known state of one worker.
type Record struct {
	Project          string
	Worker           string
	State            State
	Summary          string
	WorkingDirectory string
	SessionID        string
	UpdatedAt        time.Time

	// TimestampInferred is set when updated_at was missing or unparseable
	// and the read time was substituted.
	TimestampInferred bool
}

// Key returns the "project/worker" identity string.
func (r Record) Key() string {
	return r.Project + "/" + r.Worker
}

// Supersedes reports whether r should replace other when both share an identity.
// A record with a genuine timestamp always beats one whose timestamp was inferred.
func (r Record) Supersedes(other Record) bool {
	if r.TimestampInferred != other.TimestampInferred {
		return !r.TimestampInferred
	}
	return r.UpdatedAt.After(other.UpdatedAt)
}

// Age returns how long ago the record was updated, never negative.
func (r Record) Age(now time.Time) time.Duration {
	age := now.Sub(r.UpdatedAt)
	if age < 0 {
		return 0
	}
	return age
}

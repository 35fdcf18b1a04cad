// Package store persists captures and replay cursors between the separate
// processes that register and replay a stub.
package store

import (
	"fmt"

	"github.com/josephlewis42/shellmock/core/mock"
)

// Store holds the records for every stubbed command. Records for different
// commands are independent of each other.
type Store interface {
	// LoadCaptures returns the captures registered for command in
	// registration order. An unknown command has no captures.
	LoadCaptures(command string) ([]mock.Capture, error)

	// AppendCapture adds a capture after all existing ones for its command.
	AppendCapture(capture mock.Capture) error

	// LoadStates returns the replay cursors for command.
	LoadStates(command string) ([]mock.State, error)

	// UpsertState replaces the cursor with the same key as state, or adds it
	// if none exists.
	UpsertState(state mock.State) error
}

// MalformedError is returned when persisted records exist but can't be
// decoded. It is never treated as an empty collection.
type MalformedError struct {
	// Location names the file or table holding the bad records.
	Location string
	Err      error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed record store %s: %v", e.Location, e.Err)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

// LookupState finds the cursor for the key or synthesizes an unpersisted one
// starting at zero.
func LookupState(s Store, command, args, stdin string) (mock.State, error) {
	key := mock.State{Command: command, MatchArgs: args, MatchStdin: stdin}

	states, err := s.LoadStates(command)
	if err != nil {
		return key, err
	}

	for _, state := range states {
		if state.SameKey(key) {
			return state, nil
		}
	}

	return key, nil
}

// upsert applies UpsertState semantics to an in-memory collection.
func upsert(states []mock.State, state mock.State) []mock.State {
	for i := range states {
		if states[i].SameKey(state) {
			states[i].NextIdx = state.NextIdx
			return states
		}
	}
	return append(states, state)
}

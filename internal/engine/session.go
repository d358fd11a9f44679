package engine

import (
	"github.com/devcollab/backend/internal/protocol"
	"github.com/devcollab/backend/internal/registry"
)

// Session lifecycle
type State int

const (
	// Connected but not yet in a room
	StateConnected State = iota

	// In a room with a display name
	StateJoined

	// Terminal
	StateDisconnected
)

// Per-connection state. A session is owned by the engine for the
// lifetime of its connection; the registry only references it. Fields
// are mutated solely on the session's own event-processing path, which
// runs one event at a time.
type Session struct {
	id       string
	sink     registry.Member
	state    State
	roomID   string
	username string
}

// ID returns the transport-assigned connection identifier
func (s *Session) ID() string {
	return s.id
}

// RoomID returns the joined room's identifier, or "" before join
func (s *Session) RoomID() string {
	return s.roomID
}

// Username returns the display name set on join
func (s *Session) Username() string {
	return s.username
}

// Deliver forwards an event to the session's connection. Sessions are
// registered directly as registry members so sender exclusion compares
// session pointers.
func (s *Session) Deliver(env protocol.Envelope) {
	s.sink.Deliver(env)
}

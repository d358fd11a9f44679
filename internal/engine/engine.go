package engine

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/devcollab/backend/internal/db"
	"github.com/devcollab/backend/internal/protocol"
	"github.com/devcollab/backend/internal/registry"
)

var (
	// Returned for room-scoped events received before a join. Callers
	// treat this as a no-op; the connection stays usable.
	ErrNotJoined = errors.New("session has not joined a room")

	// Returned for a second join on the same connection
	ErrAlreadyJoined = errors.New("session already joined a room")
)

// Store is the durable document store the engine persists room state to.
// GetRoom returns nil when no record exists; CreateRoom initializes a
// record with defaults and is safe after an absence check; UpdateRoom
// overwrites only the provided fields.
type Store interface {
	GetRoom(ctx context.Context, id string) (*db.Room, error)
	CreateRoom(ctx context.Context, id string) (*db.Room, error)
	UpdateRoom(ctx context.Context, id string, fields db.RoomFields) error
}

// Engine is the protocol handler: it owns session state machines,
// coordinates registry membership, and drives persist-then-fanout for
// every mutating event.
type Engine struct {
	store    Store
	registry *registry.Registry
}

func New(store Store, reg *registry.Registry) *Engine {
	return &Engine{
		store:    store,
		registry: reg,
	}
}

// Connect creates the session for a freshly accepted connection
func (e *Engine) Connect(id string, sink registry.Member) *Session {
	log.Printf("User connected: %s", id)
	return &Session{id: id, sink: sink}
}

// Dispatch processes one inbound event for the session. The transport
// calls it serially per connection, so each event completes (store
// round-trip included) before the session's next event starts.
func (e *Engine) Dispatch(ctx context.Context, s *Session, env protocol.Envelope) error {
	switch env.Event {
	case protocol.EventJoin:
		payload, err := protocol.DecodeJoin(env.Data)
		if err != nil {
			return err
		}
		return e.handleJoin(ctx, s, payload)

	case protocol.EventEdit:
		payload, err := protocol.DecodeEdit(env.Data)
		if err != nil {
			return err
		}
		return e.handleEdit(ctx, s, payload)

	case protocol.EventSetLanguage:
		payload, err := protocol.DecodeLanguage(env.Data)
		if err != nil {
			return err
		}
		return e.handleSetLanguage(ctx, s, payload)

	case protocol.EventSetTheme:
		payload, err := protocol.DecodeTheme(env.Data)
		if err != nil {
			return err
		}
		return e.handleSetTheme(ctx, s, payload)

	default:
		return fmt.Errorf("%w: unknown event %q", protocol.ErrBadPayload, env.Event)
	}
}

func (e *Engine) handleJoin(ctx context.Context, s *Session, payload protocol.JoinPayload) error {
	if s.state != StateConnected {
		return ErrAlreadyJoined
	}

	roomID := payload.RoomID
	var room *db.Room
	var err error

	if roomID == "" {
		// Fresh room under a generated identifier
		roomID = uuid.NewString()
		room, err = e.store.CreateRoom(ctx, roomID)
		if err == nil {
			log.Printf("New room created: %s", roomID)
		}
	} else {
		// Join-or-create: a client-supplied identifier that doesn't
		// exist becomes a fresh room at exactly that identifier
		room, err = e.store.GetRoom(ctx, roomID)
		if err == nil && room == nil {
			room, err = e.store.CreateRoom(ctx, roomID)
			if err == nil {
				log.Printf("Room %s initialized", roomID)
			}
		}
	}
	if err != nil {
		return fmt.Errorf("load room %s: %w", roomID, err)
	}

	e.registry.Add(roomID, s)
	s.state = StateJoined
	s.roomID = roomID
	s.username = payload.Username

	log.Printf("%s (%s) joined room %s", s.username, s.id, roomID)

	s.Deliver(protocol.Make(protocol.EventSnapshot, protocol.SnapshotPayload{
		Content:  room.Content,
		Language: room.Language,
		Theme:    room.Theme,
		RoomID:   roomID,
	}))

	e.registry.Broadcast(roomID, s, protocol.Make(protocol.EventPeerJoined, protocol.NoticePayload{
		Message: fmt.Sprintf("%s has joined the room.", s.username),
	}))

	return nil
}

func (e *Engine) handleEdit(ctx context.Context, s *Session, payload protocol.EditPayload) error {
	if s.state != StateJoined {
		return ErrNotJoined
	}

	// Full-document replacement, persisted before any fanout
	if err := e.store.UpdateRoom(ctx, s.roomID, db.RoomFields{Content: &payload.Content}); err != nil {
		return fmt.Errorf("persist content for room %s: %w", s.roomID, err)
	}

	e.registry.Broadcast(s.roomID, s, protocol.Make(protocol.EventContentChanged, protocol.EditPayload{
		Content: payload.Content,
	}))
	return nil
}

func (e *Engine) handleSetLanguage(ctx context.Context, s *Session, payload protocol.LanguagePayload) error {
	if s.state != StateJoined {
		return ErrNotJoined
	}

	if err := e.store.UpdateRoom(ctx, s.roomID, db.RoomFields{Language: &payload.Language}); err != nil {
		return fmt.Errorf("persist language for room %s: %w", s.roomID, err)
	}

	e.registry.Broadcast(s.roomID, s, protocol.Make(protocol.EventLanguageChanged, protocol.LanguagePayload{
		Language: payload.Language,
	}))
	return nil
}

func (e *Engine) handleSetTheme(ctx context.Context, s *Session, payload protocol.ThemePayload) error {
	if s.state != StateJoined {
		return ErrNotJoined
	}

	if err := e.store.UpdateRoom(ctx, s.roomID, db.RoomFields{Theme: &payload.Theme}); err != nil {
		return fmt.Errorf("persist theme for room %s: %w", s.roomID, err)
	}

	e.registry.Broadcast(s.roomID, s, protocol.Make(protocol.EventThemeChanged, protocol.ThemePayload{
		Theme: payload.Theme,
	}))
	return nil
}

// Disconnect removes the session from its room and notifies remaining
// members. Registry removal happens before the transport tears down the
// connection, so no broadcast can reach a removed session.
func (e *Engine) Disconnect(s *Session) {
	roomID, wasJoined := e.registry.Remove(s)
	joined := s.state == StateJoined
	s.state = StateDisconnected

	log.Printf("User disconnected: %s (room: %s, user: %s)", s.id, s.roomID, s.username)

	if wasJoined && joined {
		e.registry.BroadcastAll(roomID, protocol.Make(protocol.EventPeerLeft, protocol.NoticePayload{
			Message: fmt.Sprintf("%s has left the room.", s.username),
		}))
	}
}

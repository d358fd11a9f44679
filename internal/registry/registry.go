package registry

import (
	"sync"

	"github.com/devcollab/backend/internal/protocol"
)

// A live connection that can receive events. Delivery must not block;
// implementations drop when the receiver cannot keep up.
type Member interface {
	Deliver(env protocol.Envelope)
}

// Tracks which members are in which room and fans events out to them.
// Membership is process memory only and rebuilds from zero on restart.
type Registry struct {
	mu sync.RWMutex

	// Members by room
	rooms map[string]map[Member]struct{}

	// Reverse index so Remove doesn't need to know the room
	joined map[Member]string
}

func New() *Registry {
	return &Registry{
		rooms:  make(map[string]map[Member]struct{}),
		joined: make(map[Member]string),
	}
}

// Adds the member to the room's set, creating the set if absent.
// Idempotent; a member is in at most one room at a time.
func (r *Registry) Add(roomID string, m Member) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.joined[m]; ok {
		if prev == roomID {
			return
		}
		r.removeLocked(prev, m)
	}

	if _, ok := r.rooms[roomID]; !ok {
		r.rooms[roomID] = make(map[Member]struct{})
	}
	r.rooms[roomID][m] = struct{}{}
	r.joined[m] = roomID
}

// Removes the member from whatever room it belongs to. Returns the room
// it left, or ok=false if it was never added.
func (r *Registry) Remove(m Member) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomID, ok := r.joined[m]
	if !ok {
		return "", false
	}
	r.removeLocked(roomID, m)
	return roomID, true
}

func (r *Registry) removeLocked(roomID string, m Member) {
	delete(r.joined, m)
	if members, ok := r.rooms[roomID]; ok {
		delete(members, m)
		if len(members) == 0 {
			delete(r.rooms, roomID)
		}
	}
}

// Delivers the event to every member of the room other than except.
// Pass nil to deliver to everyone.
func (r *Registry) Broadcast(roomID string, except Member, env protocol.Envelope) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for m := range r.rooms[roomID] {
		if m != except {
			m.Deliver(env)
		}
	}
}

// Delivers the event to every member of the room, used for leave
// notices where the sender is already gone
func (r *Registry) BroadcastAll(roomID string, env protocol.Envelope) {
	r.Broadcast(roomID, nil, env)
}

// Returns the number of rooms with at least one member
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Returns the total number of connected members across all rooms
func (r *Registry) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.joined)
}

// Returns member counts keyed by room ID
func (r *Registry) ActiveRooms() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := make(map[string]int, len(r.rooms))
	for roomID, members := range r.rooms {
		active[roomID] = len(members)
	}
	return active
}

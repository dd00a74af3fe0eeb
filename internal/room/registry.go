package room

import (
	"errors"
	"sort"
	"sync"
)

// ErrAlreadyJoined is returned when a connection tries to join a second
// room without leaving its current one first.
var ErrAlreadyJoined = errors.New("connection already joined a room")

// Participant is one connected user inside a room.
type Participant struct {
	ConnID string
	Name   string
}

type member struct {
	Participant
	seq uint64 // join order within the room, for stable snapshots
}

type state struct {
	mu      sync.RWMutex
	members map[string]member // connID -> member
	nextSeq uint64
}

// Registry is the process-wide table of rooms and their participants.
// A room exists iff it has at least one participant; the last leave
// removes it. A connection belongs to at most one room at a time.
//
// The index lock guards the room table and the conn->room mapping;
// membership mutation happens under the room's own lock. Lock order is
// always index before room.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*state
	byConn map[string]string // connID -> roomID
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:  make(map[string]*state),
		byConn: make(map[string]string),
	}
}

// Join adds the connection to the room, creating the room if needed, and
// returns a snapshot of the full member set including the new entrant.
// A repeat join of the same room is a no-op with rejoined=true. Joining a
// different room while still a member of one fails with ErrAlreadyJoined.
func (r *Registry) Join(roomID, connID, name string) (members []Participant, rejoined bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.byConn[connID]; ok {
		if cur != roomID {
			return nil, false, ErrAlreadyJoined
		}
		return r.rooms[cur].snapshot(), true, nil
	}

	st := r.rooms[roomID]
	if st == nil {
		st = &state{members: make(map[string]member)}
		r.rooms[roomID] = st
	}
	r.byConn[connID] = roomID

	// Insert before releasing the index lock: a concurrent Leave of the
	// room's last other member must observe the entrant, or it would
	// delete the room out from under us
	st.mu.Lock()
	st.members[connID] = member{Participant: Participant{ConnID: connID, Name: name}, seq: st.nextSeq}
	st.nextSeq++
	st.mu.Unlock()

	return st.snapshot(), false, nil
}

// Leave removes the connection from the room and returns the departed
// participant plus a snapshot of the remaining members. If the room
// empties it is deleted. Leaving a room the connection is not a member
// of is a no-op (abrupt disconnects may race explicit leaves).
func (r *Registry) Leave(roomID, connID string) (left Participant, remaining []Participant, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byConn[connID] != roomID {
		return Participant{}, nil, false
	}
	st := r.rooms[roomID]
	delete(r.byConn, connID)

	st.mu.Lock()
	m := st.members[connID]
	delete(st.members, connID)
	empty := len(st.members) == 0
	st.mu.Unlock()

	if empty {
		delete(r.rooms, roomID)
	}

	return m.Participant, st.snapshot(), true
}

// Members returns a snapshot of the room's member set in join order.
// Absent rooms yield an empty set.
func (r *Registry) Members(roomID string) []Participant {
	r.mu.RLock()
	st := r.rooms[roomID]
	r.mu.RUnlock()
	if st == nil {
		return nil
	}
	return st.snapshot()
}

// RoomOf reports which room the connection currently belongs to.
func (r *Registry) RoomOf(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byConn[connID]
	return id, ok
}

// Counts returns the number of active rooms and participants.
func (r *Registry) Counts() (rooms, participants int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms), len(r.byConn)
}

func (s *state) snapshot() []Participant {
	s.mu.RLock()
	ms := make([]member, 0, len(s.members))
	for _, m := range s.members {
		ms = append(ms, m)
	}
	s.mu.RUnlock()

	sort.Slice(ms, func(i, j int) bool { return ms[i].seq < ms[j].seq })
	out := make([]Participant, len(ms))
	for i, m := range ms {
		out[i] = m.Participant
	}
	return out
}

package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Chatter/internal/core"
	"github.com/dkeye/Chatter/internal/domain"
)

type sessionEntry struct {
	Identity domain.Identity
	Conn     core.SignalConnection
	Rooms    map[domain.RoomName]struct{}
	// Current is the most recently joined room; it resolves events whose
	// payload leaves the room implicit (typing).
	Current domain.RoomName
}

// MemberSnap is a point-in-time view of one room member, handed to the
// broadcaster so fanout never holds registry locks while writing.
type MemberSnap struct {
	SID      core.SessionID
	Identity domain.Identity
	Conn     core.SignalConnection
}

// Registry tracks live connections and their joined rooms. Membership of a
// room is derived from here, never stored on the room itself. The byRoom
// reverse index is maintained incrementally under the same lock as the
// session map, so MembersOf never observes a torn set.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
	byRoom   map[domain.RoomName]map[core.SessionID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
		byRoom:   make(map[domain.RoomName]map[core.SessionID]struct{}),
	}
}

// Register inserts a freshly authenticated connection, already joined to the
// global room. Called once per connection, after the handshake passed the
// auth gate.
func (r *Registry) Register(sid core.SessionID, identity domain.Identity, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{
		Identity: identity,
		Conn:     conn,
		Rooms:    map[domain.RoomName]struct{}{domain.GlobalRoom: {}},
		Current:  domain.GlobalRoom,
	}
	r.indexLocked(domain.GlobalRoom)[sid] = struct{}{}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("identity", string(identity)).Msg("registered session")
}

// Join adds room to the session's joined set. No-op if already joined or the
// session is unknown. Joining always updates Current.
func (r *Registry) Join(sid core.SessionID, room domain.RoomName) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	e.Current = room
	if _, joined := e.Rooms[room]; joined {
		return true
	}
	e.Rooms[room] = struct{}{}
	r.indexLocked(room)[sid] = struct{}{}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(room)).Msg("joined room")
	return true
}

// Leave removes room from the session's joined set; no-op otherwise.
func (r *Registry) Leave(sid core.SessionID, room domain.RoomName) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return
	}
	if _, joined := e.Rooms[room]; !joined {
		return
	}
	delete(e.Rooms, room)
	r.dropIndexLocked(room, sid)
	if e.Current == room {
		e.Current = domain.GlobalRoom
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(room)).Msg("left room")
}

// Deregister removes the session entirely, including every reverse-index
// bucket. Safe to call for a session that never registered (handshake failed
// before registration) — that is a no-op.
func (r *Registry) Deregister(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return
	}
	for room := range e.Rooms {
		r.dropIndexLocked(room, sid)
	}
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("deregistered session")
}

// MembersOf returns a snapshot of the connections currently joined to room.
func (r *Registry) MembersOf(room domain.RoomName) []MemberSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bucket := r.byRoom[room]
	out := make([]MemberSnap, 0, len(bucket))
	for sid := range bucket {
		e := r.sessions[sid]
		out = append(out, MemberSnap{SID: sid, Identity: e.Identity, Conn: e.Conn})
	}
	return out
}

func (r *Registry) IdentityOf(sid core.SessionID) (domain.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Identity, true
	}
	return "", false
}

// CurrentRoom reports the session's most recently joined room.
func (r *Registry) CurrentRoom(sid core.SessionID) (domain.RoomName, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Current, true
	}
	return "", false
}

// RoomsOf lists the rooms the session has joined.
func (r *Registry) RoomsOf(sid core.SessionID) []domain.RoomName {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return nil
	}
	out := make([]domain.RoomName, 0, len(e.Rooms))
	for room := range e.Rooms {
		out = append(out, room)
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) indexLocked(room domain.RoomName) map[core.SessionID]struct{} {
	bucket, ok := r.byRoom[room]
	if !ok {
		bucket = make(map[core.SessionID]struct{})
		r.byRoom[room] = bucket
	}
	return bucket
}

func (r *Registry) dropIndexLocked(room domain.RoomName, sid core.SessionID) {
	bucket, ok := r.byRoom[room]
	if !ok {
		return
	}
	delete(bucket, sid)
	if len(bucket) == 0 {
		delete(r.byRoom, room)
	}
}

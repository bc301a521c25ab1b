package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/d0hyeon/video-chat/internal/core"
	"github.com/d0hyeon/video-chat/internal/domain"
)

type sessionEntry struct {
	conn   core.SignalConnection
	cancel context.CancelFunc
	rooms  map[domain.RoomID]domain.UserID
}

// SessionRegistry tracks connection handles and which rooms each
// connection belongs to. It is the lookup side of fan-out: the room
// registry decides membership, this maps members back to connections.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
	byRoom   map[domain.RoomID]map[domain.UserID]core.SessionID
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[core.SessionID]*sessionEntry),
		byRoom:   make(map[domain.RoomID]map[domain.UserID]core.SessionID),
	}
}

// Bind associates a freshly upgraded connection with its session id.
func (r *SessionRegistry) Bind(sid core.SessionID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{
		conn:   conn,
		cancel: cancel,
		rooms:  make(map[domain.RoomID]domain.UserID),
	}
	log.Info().Str("module", "app.sessions").Str("sid", string(sid)).Msg("bound session")
}

// Unbind drops the session and all of its room associations. The caller
// is expected to have synthesized leaves beforehand.
func (r *SessionRegistry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sid]
	if !ok {
		return
	}
	for roomID, uid := range entry.rooms {
		r.dropBindingLocked(roomID, uid, sid)
	}
	delete(r.sessions, sid)
	log.Info().Str("module", "app.sessions").Str("sid", string(sid)).Msg("unbind session")
}

// Cancel fires the session's cancel func, tearing down its pumps.
func (r *SessionRegistry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	entry, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if entry.cancel != nil {
		entry.cancel()
	}
	return true
}

// JoinRoom records that sid participates in roomID under uid.
func (r *SessionRegistry) JoinRoom(sid core.SessionID, roomID domain.RoomID, uid domain.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sid]
	if !ok {
		return
	}
	entry.rooms[roomID] = uid
	if _, ok := r.byRoom[roomID]; !ok {
		r.byRoom[roomID] = make(map[domain.UserID]core.SessionID)
	}
	r.byRoom[roomID][uid] = sid
	log.Info().Str("module", "app.sessions").Str("sid", string(sid)).Str("room", string(roomID)).Str("user", string(uid)).Msg("joined room")
}

// RemoveBinding drops uid's fan-out binding in roomID, whichever session
// holds it. Keyed the same way the room registry keys membership, so the
// two cannot diverge when the requester names another session's user.
// Safe to call when absent.
func (r *SessionRegistry) RemoveBinding(roomID domain.RoomID, uid domain.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.byRoom[roomID]
	if !ok {
		return
	}
	sid, ok := members[uid]
	if !ok {
		return
	}
	if entry, ok := r.sessions[sid]; ok && entry.rooms[roomID] == uid {
		delete(entry.rooms, roomID)
	}
	delete(members, uid)
	if len(members) == 0 {
		delete(r.byRoom, roomID)
	}
}

func (r *SessionRegistry) dropBindingLocked(roomID domain.RoomID, uid domain.UserID, sid core.SessionID) {
	members, ok := r.byRoom[roomID]
	if !ok {
		return
	}
	if members[uid] == sid {
		delete(members, uid)
	}
	if len(members) == 0 {
		delete(r.byRoom, roomID)
	}
}

// RoomsOf returns a copy of sid's memberships, used to synthesize leaves
// on disconnect.
func (r *SessionRegistry) RoomsOf(sid core.SessionID) map[domain.RoomID]domain.UserID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[sid]
	if !ok {
		return nil
	}
	out := make(map[domain.RoomID]domain.UserID, len(entry.rooms))
	for roomID, uid := range entry.rooms {
		out[roomID] = uid
	}
	return out
}

// Conn returns the connection handle for sid.
func (r *SessionRegistry) Conn(sid core.SessionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[sid]
	if !ok {
		return nil, false
	}
	return entry.conn, true
}

// Lookup resolves a room member to its connection. False means the
// target is stale: gone, or never joined.
func (r *SessionRegistry) Lookup(roomID domain.RoomID, uid domain.UserID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members, ok := r.byRoom[roomID]
	if !ok {
		return nil, false
	}
	sid, ok := members[uid]
	if !ok {
		return nil, false
	}
	entry, ok := r.sessions[sid]
	if !ok {
		return nil, false
	}
	return entry.conn, true
}

// RoomConns returns the connections of every room member except the
// given user ids. The slice is a snapshot; sends happen outside locks.
func (r *SessionRegistry) RoomConns(roomID domain.RoomID, except ...domain.UserID) []core.SignalConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members, ok := r.byRoom[roomID]
	if !ok {
		return nil
	}
	out := make([]core.SignalConnection, 0, len(members))
next:
	for uid, sid := range members {
		for _, ex := range except {
			if uid == ex {
				continue next
			}
		}
		if entry, ok := r.sessions[sid]; ok {
			out = append(out, entry.conn)
		}
	}
	return out
}

// All returns every connected client, optionally excluding sessions.
// Used for the global createdRoom/updatedRoom/deletedRoom fan-out.
func (r *SessionRegistry) All(except ...core.SessionID) []core.SignalConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.SignalConnection, 0, len(r.sessions))
next:
	for sid, entry := range r.sessions {
		for _, ex := range except {
			if sid == ex {
				continue next
			}
		}
		out = append(out, entry.conn)
	}
	return out
}

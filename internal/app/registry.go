package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/d0hyeon/video-chat/internal/core"
	"github.com/d0hyeon/video-chat/internal/domain"
)

// roomState pairs the immutable room record with its lock-guarded
// membership. The per-room mutex serializes join/leave on one room while
// operations on other rooms proceed independently.
type roomState struct {
	mu      sync.Mutex
	room    *domain.Room
	members []*domain.Member // insertion order = join order

	// deleted is set under mu when the last member leaves. A caller that
	// looked the room up before deletion observes the flag instead of
	// mutating a room that is no longer in the map.
	deleted bool
}

func (st *roomState) snapshotLocked() core.RoomDTO {
	users := make([]core.MemberDTO, 0, len(st.members))
	for _, m := range st.members {
		users = append(users, core.MemberView(m))
	}
	return core.RoomDTO{
		ID:          st.room.ID,
		Title:       st.room.Title,
		Description: st.room.Description,
		Users:       users,
		Size:        st.room.Capacity,
		IsPassword:  st.room.HasPassword(),
	}
}

// RoomRegistry is the authoritative store of all room and member state.
// Every snapshot it returns is a copy; callers never share mutable state
// with the registry.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*roomState
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[domain.RoomID]*roomState)}
}

func (r *RoomRegistry) lookup(id domain.RoomID) (*roomState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.rooms[id]
	return st, ok
}

// CreateRoom installs the room under its creator-supplied id. The caller
// is trusted to pick a unique id; a colliding create replaces the stale
// entry, matching map-assignment semantics.
func (r *RoomRegistry) CreateRoom(room *domain.Room) core.RoomDTO {
	st := &roomState{room: room}
	snap := st.snapshotLocked() // not yet published, no lock needed
	r.mu.Lock()
	old := r.rooms[room.ID]
	r.rooms[room.ID] = st
	r.mu.Unlock()
	if old != nil {
		// A join that looked the displaced state up before the swap must
		// observe the flag instead of landing in an orphaned room.
		old.mu.Lock()
		old.deleted = true
		old.mu.Unlock()
	}
	log.Info().Str("module", "app.registry").Str("room", string(room.ID)).Int("size", room.Capacity).Bool("password", room.HasPassword()).Msg("room created")
	return snap
}

// Get returns the room snapshot, or false when the room is absent or has
// no members yet. Freshly created rooms stay invisible until first join.
func (r *RoomRegistry) Get(id domain.RoomID) (core.RoomDTO, bool) {
	st, ok := r.lookup(id)
	if !ok {
		return core.RoomDTO{}, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.deleted || len(st.members) == 0 {
		return core.RoomDTO{}, false
	}
	return st.snapshotLocked(), true
}

// List returns snapshots of every occupied room. Order is unspecified.
func (r *RoomRegistry) List() []core.RoomDTO {
	r.mu.RLock()
	states := make([]*roomState, 0, len(r.rooms))
	for _, st := range r.rooms {
		states = append(states, st)
	}
	r.mu.RUnlock()

	out := make([]core.RoomDTO, 0, len(states))
	for _, st := range states {
		st.mu.Lock()
		if !st.deleted && len(st.members) > 0 {
			out = append(out, st.snapshotLocked())
		}
		st.mu.Unlock()
	}
	return out
}

// AddMember appends the member to the room, enforcing capacity and
// per-room id uniqueness atomically under the room lock.
func (r *RoomRegistry) AddMember(id domain.RoomID, m *domain.Member) (core.RoomDTO, error) {
	st, ok := r.lookup(id)
	if !ok {
		return core.RoomDTO{}, core.ErrRoomNotFound
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.deleted {
		return core.RoomDTO{}, core.ErrRoomNotFound
	}
	if len(st.members) >= st.room.Capacity {
		return core.RoomDTO{}, core.ErrRoomFull
	}
	for _, existing := range st.members {
		if existing.ID == m.ID {
			return core.RoomDTO{}, core.ErrAlreadyJoined
		}
	}
	st.members = append(st.members, m)
	log.Info().Str("module", "app.registry").Str("room", string(id)).Str("user", string(m.ID)).Int("count", len(st.members)).Msg("member added")
	return st.snapshotLocked(), nil
}

// RemoveMember removes the member and deletes the room the instant it
// empties. Removing an absent member or from an absent room is a no-op
// reported via ok=false, never an error.
func (r *RoomRegistry) RemoveMember(id domain.RoomID, uid domain.UserID) (room core.RoomDTO, member core.MemberDTO, deleted, ok bool) {
	st, found := r.lookup(id)
	if !found {
		return core.RoomDTO{}, core.MemberDTO{}, false, false
	}
	st.mu.Lock()
	idx := -1
	for i, m := range st.members {
		if m.ID == uid {
			idx = i
			break
		}
	}
	if st.deleted || idx < 0 {
		st.mu.Unlock()
		return core.RoomDTO{}, core.MemberDTO{}, false, false
	}
	member = core.MemberView(st.members[idx])
	st.members = append(st.members[:idx], st.members[idx+1:]...)
	if len(st.members) > 0 {
		room = st.snapshotLocked()
		st.mu.Unlock()
		log.Info().Str("module", "app.registry").Str("room", string(id)).Str("user", string(uid)).Msg("member removed")
		return room, member, false, true
	}
	st.deleted = true
	room = st.snapshotLocked()
	st.mu.Unlock()

	// Drop the empty room from the map. The pointer comparison guards
	// against a concurrent create having reused the id.
	r.mu.Lock()
	if r.rooms[id] == st {
		delete(r.rooms, id)
	}
	r.mu.Unlock()
	log.Info().Str("module", "app.registry").Str("room", string(id)).Str("user", string(uid)).Msg("last member left, room deleted")
	return room, member, true, true
}

// CheckPassword compares the candidate against the stored secret without
// mutating anything. It works on zero-member rooms too: the creator's
// gate runs before the first join.
func (r *RoomRegistry) CheckPassword(id domain.RoomID, candidate string) (bool, error) {
	st, ok := r.lookup(id)
	if !ok {
		return false, core.ErrRoomNotFound
	}
	return st.room.CheckPassword(candidate), nil
}

// UpdateMemberOption mirrors the latest media toggles a member announced
// so that late joiners see them in the room snapshot. Unknown rooms or
// members are ignored.
func (r *RoomRegistry) UpdateMemberOption(id domain.RoomID, uid domain.UserID, opt domain.MediaOptions) {
	st, ok := r.lookup(id)
	if !ok {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.deleted {
		return
	}
	for _, m := range st.members {
		if m.ID == uid {
			m.Option = opt
			return
		}
	}
}

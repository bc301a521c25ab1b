package app

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/d0hyeon/video-chat/internal/core"
	"github.com/d0hyeon/video-chat/internal/domain"
)

// CreateRoomSpec is the validated input of a create request.
type CreateRoomSpec struct {
	ID          domain.RoomID
	Title       string
	Description string
	Capacity    int
	Password    string
}

// LeaveResult reports what a leave actually did so the gateway can emit
// the matching events. Left=false means the operation was a no-op.
type LeaveResult struct {
	RoomID  domain.RoomID
	Room    core.RoomDTO
	Member  core.MemberDTO
	Deleted bool
	Left    bool
}

// Orchestrator applies the membership protocol against the room registry
// and keeps the session registry's fan-out index consistent with it.
// It mutates state only; wire events are the gateway's concern.
type Orchestrator struct {
	Rooms    *RoomRegistry
	Sessions *SessionRegistry
}

// CreateRoom validates the spec and installs the room. Room construction
// errors surface as a malformed request.
func (o *Orchestrator) CreateRoom(spec CreateRoomSpec) (core.RoomDTO, error) {
	room, err := domain.NewRoom(spec.ID, spec.Title, spec.Description, spec.Capacity, spec.Password)
	if err != nil {
		return core.RoomDTO{}, errors.Join(core.ErrMalformedRequest, err)
	}
	return o.Rooms.CreateRoom(room), nil
}

// CheckPassword answers the gate query. It never grants membership and
// never mutates state.
func (o *Orchestrator) CheckPassword(roomID domain.RoomID, candidate string) (bool, error) {
	return o.Rooms.CheckPassword(roomID, candidate)
}

// Join adds the member to the room and, on success, binds the session to
// it so relayed messages and presence events can reach the connection.
func (o *Orchestrator) Join(sid core.SessionID, roomID domain.RoomID, m *domain.Member) (core.RoomDTO, error) {
	room, err := o.Rooms.AddMember(roomID, m)
	if err != nil {
		return core.RoomDTO{}, err
	}
	o.Sessions.JoinRoom(sid, roomID, m.ID)
	return room, nil
}

// Leave removes the member and the matching fan-out binding. Both
// halves key on (room, user), never on the requesting session: a leave
// naming another session's user must unbind that user, not the
// requester. Both halves are idempotent, so an explicit leave racing a
// disconnect resolves to one effective leave and one no-op, in either
// order.
func (o *Orchestrator) Leave(sid core.SessionID, roomID domain.RoomID, uid domain.UserID) LeaveResult {
	room, member, deleted, ok := o.Rooms.RemoveMember(roomID, uid)
	o.Sessions.RemoveBinding(roomID, uid)
	if !ok {
		return LeaveResult{RoomID: roomID}
	}
	return LeaveResult{RoomID: roomID, Room: room, Member: member, Deleted: deleted, Left: true}
}

// Disconnect synthesizes a leave for every room the connection belonged
// to, then drops the session. Uses the same leave path as an explicit
// request so cleanup semantics cannot diverge.
func (o *Orchestrator) Disconnect(sid core.SessionID) []LeaveResult {
	memberships := o.Sessions.RoomsOf(sid)
	results := make([]LeaveResult, 0, len(memberships))
	for roomID, uid := range memberships {
		if res := o.Leave(sid, roomID, uid); res.Left {
			results = append(results, res)
		}
	}
	o.Sessions.Unbind(sid)
	if len(results) > 0 {
		log.Info().Str("module", "app.orchestrator").Str("sid", string(sid)).Int("rooms", len(results)).Msg("synthesized leaves on disconnect")
	}
	return results
}

package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/d0hyeon/video-chat/internal/app"
	"github.com/d0hyeon/video-chat/internal/core"
	"github.com/d0hyeon/video-chat/internal/domain"
)

func (ctl *SignalWSController) handleRoomList(conn *WsSignalConn) {
	resp := struct {
		Type  string         `json:"type"`
		Rooms []core.RoomDTO `json:"rooms"`
	}{
		Type:  "roomList",
		Rooms: ctl.Orch.Rooms.List(),
	}
	ctl.sendJSON(conn, resp)
}

func (ctl *SignalWSController) handleRoomDetail(conn *WsSignalConn, data []byte) {
	var p struct {
		Type   string `json:"type"`
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		ctl.sendError(conn, "request", "roomId required")
		return
	}
	room, ok := ctl.Orch.Rooms.Get(domain.RoomID(p.RoomID))
	if !ok {
		// Absent and empty rooms produce no reply at all.
		return
	}
	resp := struct {
		Type string       `json:"type"`
		Room core.RoomDTO `json:"room"`
	}{
		Type: "roomDetail",
		Room: room,
	}
	ctl.sendJSON(conn, resp)
}

func (ctl *SignalWSController) handleCreateRoom(conn *WsSignalConn, data []byte) {
	var p struct {
		Type string `json:"type"`
		Room struct {
			ID          string `json:"id"`
			Title       string `json:"title"`
			Description string `json:"description"`
			Size        int    `json:"size"`
			Password    string `json:"password"`
		} `json:"room"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad createRoom payload")
		ctl.sendError(conn, "createRoom", "malformed payload")
		return
	}

	room, err := ctl.Orch.CreateRoom(app.CreateRoomSpec{
		ID:          domain.RoomID(p.Room.ID),
		Title:       p.Room.Title,
		Description: p.Room.Description,
		Capacity:    p.Room.Size,
		Password:    p.Room.Password,
	})
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("room", p.Room.ID).Msg("createRoom rejected")
		ctl.sendError(conn, "createRoom", err.Error())
		return
	}

	resp := struct {
		Type string       `json:"type"`
		Room core.RoomDTO `json:"room"`
	}{
		Type: "createdRoom",
		Room: room,
	}
	// Global fan-out so every client can refresh its listing. The
	// creator is included on purpose.
	ctl.broadcastAll(resp)
}

func (ctl *SignalWSController) handleCheckPassword(sid core.SessionID, conn *WsSignalConn, data []byte) {
	var p struct {
		Type     string `json:"type"`
		RoomID   string `json:"roomId"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		ctl.sendError(conn, "request", "roomId required")
		return
	}

	type response struct {
		Type    string `json:"type"`
		Success bool   `json:"success"`
		RoomID  string `json:"roomId,omitempty"`
	}

	if !ctl.Passwords.Allow(sid) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Str("room", p.RoomID).Msg("password attempts throttled")
		ctl.sendJSON(conn, response{Type: "responsePassword"})
		return
	}

	ok, err := ctl.Orch.CheckPassword(domain.RoomID(p.RoomID), p.Password)
	if err != nil || !ok {
		// The requester only ever learns pass/fail, never why.
		ctl.sendJSON(conn, response{Type: "responsePassword"})
		return
	}
	ctl.sendJSON(conn, response{Type: "responsePassword", Success: true, RoomID: p.RoomID})
}

func (ctl *SignalWSController) handleJoin(sid core.SessionID, conn *WsSignalConn, data []byte) {
	var p struct {
		Type   string `json:"type"`
		RoomID string `json:"roomId"`
		User   struct {
			ID      string              `json:"id"`
			Name    string              `json:"name"`
			Message string              `json:"message"`
			Option  domain.MediaOptions `json:"option"`
		} `json:"user"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		ctl.sendError(conn, "join", "malformed payload")
		return
	}

	member, err := domain.NewMember(domain.UserID(p.User.ID), p.User.Name, p.User.Message, p.User.Option)
	if err != nil {
		ctl.sendError(conn, "join", err.Error())
		return
	}

	roomID := domain.RoomID(p.RoomID)
	room, err := ctl.Orch.Join(sid, roomID, member)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("room", p.RoomID).Msg("join rejected")
		ctl.sendError(conn, "join", joinErrorMessage(err))
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.RoomID).Str("user", p.User.ID).Msg("join")

	detail := struct {
		Type string       `json:"type"`
		Room core.RoomDTO `json:"room"`
	}{
		Type: "roomDetail",
		Room: room,
	}
	ctl.sendJSON(conn, detail)

	joined := struct {
		Type   string         `json:"type"`
		RoomID domain.RoomID  `json:"roomId"`
		User   core.MemberDTO `json:"user"`
	}{
		Type:   "joinUser",
		RoomID: roomID,
		User:   core.MemberView(member),
	}
	ctl.broadcastRoom(roomID, joined, member.ID)

	updated := struct {
		Type string       `json:"type"`
		Room core.RoomDTO `json:"room"`
	}{
		Type: "updatedRoom",
		Room: room,
	}
	ctl.broadcastAll(updated)
}

func joinErrorMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrRoomNotFound):
		return "room not found"
	case errors.Is(err, core.ErrRoomFull):
		return "room is full"
	case errors.Is(err, core.ErrAlreadyJoined):
		return "already joined"
	default:
		return "join failed"
	}
}

func (ctl *SignalWSController) handleLeave(sid core.SessionID, conn *WsSignalConn, data []byte) {
	var p struct {
		Type   string `json:"type"`
		RoomID string `json:"roomId"`
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" || p.UserID == "" {
		ctl.sendError(conn, "request", "roomId and userId required")
		return
	}

	res := ctl.Orch.Leave(sid, domain.RoomID(p.RoomID), domain.UserID(p.UserID))
	if !res.Left {
		// Leaving a room you are not in is a no-op, not an error.
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.RoomID).Str("user", p.UserID).Msg("leave")
	ctl.emitLeave(res)
}

// emitLeave is shared between explicit leaves and disconnect synthesis,
// so both produce identical observable events.
func (ctl *SignalWSController) emitLeave(res app.LeaveResult) {
	left := struct {
		Type   string         `json:"type"`
		RoomID domain.RoomID  `json:"roomId"`
		User   core.MemberDTO `json:"user"`
	}{
		Type:   "leaveUser",
		RoomID: res.RoomID,
		User:   res.Member,
	}
	// The leaver's binding is already gone, so this reaches survivors only.
	ctl.broadcastRoom(res.RoomID, left)

	if res.Deleted {
		ctl.broadcastAll(struct {
			Type   string        `json:"type"`
			RoomID domain.RoomID `json:"roomId"`
		}{
			Type:   "deletedRoom",
			RoomID: res.RoomID,
		})
		return
	}
	ctl.broadcastAll(struct {
		Type string       `json:"type"`
		Room core.RoomDTO `json:"room"`
	}{
		Type: "updatedRoom",
		Room: res.Room,
	})
}

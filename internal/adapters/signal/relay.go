package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/d0hyeon/video-chat/internal/app"
	"github.com/d0hyeon/video-chat/internal/core"
	"github.com/d0hyeon/video-chat/internal/domain"
)

// handleMessage forwards a signaling payload verbatim. The payload is
// kept as raw JSON end to end; this layer never inspects SDP or ICE.
func (ctl *SignalWSController) handleMessage(conn *WsSignalConn, data []byte) {
	var p struct {
		Type    string          `json:"type"`
		Message json.RawMessage `json:"message"`
		Meta    struct {
			RoomID string `json:"roomId"`
			UserID string `json:"userId"`
			Sender string `json:"sender"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Meta.RoomID == "" || p.Meta.Sender == "" {
		ctl.sendError(conn, "message", "roomId and sender required")
		return
	}

	// The outbound meta carries everything except the room id, matching
	// what receivers expect.
	outMeta := struct {
		UserID string `json:"userId,omitempty"`
		Sender string `json:"sender"`
	}{
		UserID: p.Meta.UserID,
		Sender: p.Meta.Sender,
	}
	frame, err := json.Marshal(struct {
		Type    string          `json:"type"`
		Message json.RawMessage `json:"message"`
		Meta    any             `json:"meta"`
	}{
		Type:    "message",
		Message: p.Message,
		Meta:    outMeta,
	})
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("relay marshal")
		return
	}

	ctl.Relay.Send(app.RelayMeta{
		Room:   domain.RoomID(p.Meta.RoomID),
		Target: domain.UserID(p.Meta.UserID),
		Sender: domain.UserID(p.Meta.Sender),
	}, core.Frame(frame))

	ctl.mirrorOption(domain.RoomID(p.Meta.RoomID), domain.UserID(p.Meta.Sender), p.Message)
}

// mirrorOption keeps the registry's view of a member's media toggles
// current so late joiners see them. Best effort: anything that does not
// look like an update payload is ignored.
func (ctl *SignalWSController) mirrorOption(roomID domain.RoomID, sender domain.UserID, message json.RawMessage) {
	var update struct {
		Type    string `json:"type"`
		Payload *struct {
			Audio bool `json:"audio"`
			Video bool `json:"video"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(message, &update); err != nil {
		return
	}
	if update.Type != "update" || update.Payload == nil {
		return
	}
	ctl.Orch.Rooms.UpdateMemberOption(roomID, sender, domain.MediaOptions{
		Audio: update.Payload.Audio,
		Video: update.Payload.Video,
	})
}

// handleReady announces a user is ready to every other connected client.
func (ctl *SignalWSController) handleReady(sid core.SessionID, conn *WsSignalConn, data []byte) {
	var p struct {
		Type string          `json:"type"`
		User json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(data, &p); err != nil || len(p.User) == 0 {
		ctl.sendError(conn, "request", "user required")
		return
	}
	ctl.broadcastAll(struct {
		Type string          `json:"type"`
		User json.RawMessage `json:"user"`
	}{
		Type: "readyUser",
		User: p.User,
	}, sid)
}

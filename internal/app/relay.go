package app

import (
	"github.com/rs/zerolog/log"

	"github.com/d0hyeon/video-chat/internal/core"
	"github.com/d0hyeon/video-chat/internal/domain"
)

// RelayMeta identifies where a signaling frame should go. Target empty
// means room broadcast excluding the sender.
type RelayMeta struct {
	Room   domain.RoomID
	Target domain.UserID
	Sender domain.UserID
}

// Relay forwards opaque signaling frames between members of one room.
// It is pure transport: no parsing, no queueing, no retries. Stale
// targets are dropped silently; teardown races make them routine.
type Relay struct {
	Sessions *SessionRegistry
}

// Send delivers the frame and returns how many connections accepted it.
func (r *Relay) Send(meta RelayMeta, frame core.Frame) int {
	if meta.Target != "" {
		conn, ok := r.Sessions.Lookup(meta.Room, meta.Target)
		if !ok {
			log.Debug().Str("module", "app.relay").Str("room", string(meta.Room)).Str("target", string(meta.Target)).Msg("stale target, frame dropped")
			return 0
		}
		if err := conn.TrySend(frame); err != nil {
			return 0
		}
		return 1
	}

	sent := 0
	for _, conn := range r.Sessions.RoomConns(meta.Room, meta.Sender) {
		if err := conn.TrySend(frame); err != nil {
			continue
		}
		sent++
	}
	log.Debug().Str("module", "app.relay").Str("room", string(meta.Room)).Str("sender", string(meta.Sender)).Int("sent_to", sent).Msg("broadcast result")
	return sent
}

package core

import "github.com/d0hyeon/video-chat/internal/domain"

// Frame is a raw wire payload handed to a connection verbatim.
type Frame []byte

// SessionID identifies one connected client. It is minted by the HTTP
// layer, not by the client.
type SessionID string

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// MemberDTO is a read-only view of a member for wire payloads.
type MemberDTO struct {
	ID      domain.UserID       `json:"id"`
	Name    string              `json:"name"`
	Message string              `json:"message"`
	Option  domain.MediaOptions `json:"option"`
}

// RoomDTO is the outbound shape of a room. The password itself never
// leaves the registry, only the presence flag does.
type RoomDTO struct {
	ID          domain.RoomID `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Users       []MemberDTO   `json:"users"`
	Size        int           `json:"size"`
	IsPassword  bool          `json:"isPassword"`
}

// MemberView converts a domain member into its wire view.
func MemberView(m *domain.Member) MemberDTO {
	return MemberDTO{ID: m.ID, Name: m.Name, Message: m.Message, Option: m.Option}
}

package domain

import "errors"

const (
	MaxUserIDLen   = 36
	MaxUsernameLen = 36
)

var (
	ErrUserIDEmpty   = errors.New("user id empty")
	ErrUserIDTooLong = errors.New("user id too long")
	ErrNameTooLong   = errors.New("display name too long")
)

type UserID string

// MediaOptions mirrors the client's last announced audio/video toggles.
// The server relays updates without interpreting them; this is only a
// snapshot for peers that join later.
type MediaOptions struct {
	Audio bool `json:"audio"`
	Video bool `json:"video"`
}

// Member represents a user's presence within one room.
// Identity is client-supplied; uniqueness is enforced per room only.
type Member struct {
	ID      UserID       `json:"id"`
	Name    string       `json:"name"`
	Message string       `json:"message"`
	Option  MediaOptions `json:"option"`
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(id UserID, name, message string, opt MediaOptions) (*Member, error) {
	if len(id) == 0 {
		return nil, ErrUserIDEmpty
	}
	if len(id) > MaxUserIDLen {
		return nil, ErrUserIDTooLong
	}
	if len(name) > MaxUsernameLen {
		return nil, ErrNameTooLong
	}
	return &Member{ID: id, Name: name, Message: message, Option: opt}, nil
}

// Package domain contains entities with no logic beyond construction rules.
package domain

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	MaxRoomIDLen = 64
	MaxTitleLen  = 64
)

var (
	ErrRoomIDEmpty     = errors.New("room id empty")
	ErrRoomIDTooLong   = errors.New("room id too long")
	ErrTitleTooLong    = errors.New("room title too long")
	ErrInvalidCapacity = errors.New("room capacity must be at least 1")
)

type RoomID string

// Room is the registry-owned record of a session container.
// Capacity and the password hash are fixed at creation; membership
// lives in the registry, not here.
type Room struct {
	ID           RoomID
	Title        string
	Description  string
	Capacity     int
	passwordHash []byte
}

// NewRoom validates the creator-supplied spec and hashes the password.
// The raw secret is discarded, only the bcrypt hash is retained.
func NewRoom(id RoomID, title, description string, capacity int, password string) (*Room, error) {
	if len(id) == 0 {
		return nil, ErrRoomIDEmpty
	}
	if len(id) > MaxRoomIDLen {
		return nil, ErrRoomIDTooLong
	}
	if len(title) > MaxTitleLen {
		return nil, ErrTitleTooLong
	}
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	r := &Room{
		ID:          id,
		Title:       title,
		Description: description,
		Capacity:    capacity,
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		r.passwordHash = hash
	}
	return r, nil
}

func (r *Room) HasPassword() bool { return len(r.passwordHash) > 0 }

// CheckPassword reports whether candidate matches the stored secret.
// A room without a password accepts any candidate.
func (r *Room) CheckPassword(candidate string) bool {
	if !r.HasPassword() {
		return true
	}
	return bcrypt.CompareHashAndPassword(r.passwordHash, []byte(candidate)) == nil
}

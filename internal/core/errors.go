package core

import "errors"

// Operation failures reported back to the requesting connection.
// None of these destabilize registry state; validation happens before
// any mutation.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrAlreadyJoined    = errors.New("user already joined")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrMalformedRequest = errors.New("malformed request")
)

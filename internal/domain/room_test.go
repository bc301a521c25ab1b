package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoomValidation(t *testing.T) {
	_, err := NewRoom("", "title", "", 2, "")
	assert.ErrorIs(t, err, ErrRoomIDEmpty)

	_, err = NewRoom(RoomID(strings.Repeat("x", MaxRoomIDLen+1)), "title", "", 2, "")
	assert.ErrorIs(t, err, ErrRoomIDTooLong)

	_, err = NewRoom("r1", strings.Repeat("x", MaxTitleLen+1), "", 2, "")
	assert.ErrorIs(t, err, ErrTitleTooLong)

	_, err = NewRoom("r1", "title", "", 0, "")
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	room, err := NewRoom("r1", "title", "desc", 1, "")
	require.NoError(t, err)
	assert.Equal(t, RoomID("r1"), room.ID)
	assert.Equal(t, 1, room.Capacity)
	assert.False(t, room.HasPassword())
}

func TestRoomPassword(t *testing.T) {
	room, err := NewRoom("r1", "title", "", 2, "secret")
	require.NoError(t, err)

	assert.True(t, room.HasPassword())
	assert.False(t, room.CheckPassword("wrong"))
	assert.True(t, room.CheckPassword("secret"))
}

func TestRoomWithoutPasswordAcceptsAnyCandidate(t *testing.T) {
	room, err := NewRoom("r1", "title", "", 2, "")
	require.NoError(t, err)

	assert.True(t, room.CheckPassword(""))
	assert.True(t, room.CheckPassword("anything"))
}

func TestNewMemberValidation(t *testing.T) {
	_, err := NewMember("", "alice", "", MediaOptions{})
	assert.ErrorIs(t, err, ErrUserIDEmpty)

	_, err = NewMember("u1", strings.Repeat("x", MaxUsernameLen+1), "", MediaOptions{})
	assert.ErrorIs(t, err, ErrNameTooLong)

	m, err := NewMember("u1", "alice", "hi", MediaOptions{Audio: true, Video: true})
	require.NoError(t, err)
	assert.Equal(t, UserID("u1"), m.ID)
	assert.True(t, m.Option.Audio)
}

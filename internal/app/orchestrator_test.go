package app

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d0hyeon/video-chat/internal/core"
	"github.com/d0hyeon/video-chat/internal/domain"
)

// fakeConn records every frame it accepts, standing in for a WebSocket.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
}

func (f *fakeConn) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Close() {}

func (f *fakeConn) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func newOrchestrator() *Orchestrator {
	return &Orchestrator{
		Rooms:    NewRoomRegistry(),
		Sessions: NewSessionRegistry(),
	}
}

func bind(o *Orchestrator, sid core.SessionID) *fakeConn {
	conn := &fakeConn{}
	o.Sessions.Bind(sid, conn, func() {})
	return conn
}

func TestCreateRoomValidates(t *testing.T) {
	o := newOrchestrator()

	_, err := o.CreateRoom(CreateRoomSpec{ID: "r1", Title: "t", Capacity: 0})
	assert.ErrorIs(t, err, core.ErrMalformedRequest)

	room, err := o.CreateRoom(CreateRoomSpec{ID: "r1", Title: "t", Capacity: 2, Password: "pw"})
	require.NoError(t, err)
	assert.True(t, room.IsPassword)
	assert.Empty(t, room.Users)
}

func TestJoinBindsSessionForFanOut(t *testing.T) {
	o := newOrchestrator()
	conn := bind(o, "sid-1")
	_, err := o.CreateRoom(CreateRoomSpec{ID: "r1", Title: "t", Capacity: 2})
	require.NoError(t, err)

	_, err = o.Join("sid-1", "r1", mustMember(t, "u1"))
	require.NoError(t, err)

	got, ok := o.Sessions.Lookup("r1", "u1")
	require.True(t, ok)
	assert.Same(t, core.SignalConnection(conn), got)
}

func TestJoinFailureLeavesNoBinding(t *testing.T) {
	o := newOrchestrator()
	bind(o, "sid-1")

	_, err := o.Join("sid-1", "nope", mustMember(t, "u1"))
	assert.ErrorIs(t, err, core.ErrRoomNotFound)

	_, ok := o.Sessions.Lookup("nope", "u1")
	assert.False(t, ok)
}

func TestLeaveIsIdempotent(t *testing.T) {
	o := newOrchestrator()
	bind(o, "sid-1")
	_, err := o.CreateRoom(CreateRoomSpec{ID: "r1", Title: "t", Capacity: 2})
	require.NoError(t, err)
	_, err = o.Join("sid-1", "r1", mustMember(t, "u1"))
	require.NoError(t, err)

	first := o.Leave("sid-1", "r1", "u1")
	assert.True(t, first.Left)
	assert.True(t, first.Deleted)

	second := o.Leave("sid-1", "r1", "u1")
	assert.False(t, second.Left)
	assert.False(t, second.Deleted)
}

func TestDisconnectSynthesizesLeaves(t *testing.T) {
	o := newOrchestrator()
	bind(o, "sid-1")
	for _, id := range []string{"r1", "r2"} {
		_, err := o.CreateRoom(CreateRoomSpec{ID: domain.RoomID(id), Title: "t", Capacity: 2})
		require.NoError(t, err)
		_, err = o.Join("sid-1", domain.RoomID(id), mustMember(t, "u1"))
		require.NoError(t, err)
	}

	results := o.Disconnect("sid-1")
	assert.Len(t, results, 2)
	for _, res := range results {
		assert.True(t, res.Left)
		assert.True(t, res.Deleted)
	}

	assert.Empty(t, o.Rooms.List())
	_, ok := o.Sessions.Conn("sid-1")
	assert.False(t, ok)
}

func TestDisconnectAfterExplicitLeaveIsNoop(t *testing.T) {
	o := newOrchestrator()
	bind(o, "sid-1")
	_, err := o.CreateRoom(CreateRoomSpec{ID: "r1", Title: "t", Capacity: 2})
	require.NoError(t, err)
	_, err = o.Join("sid-1", "r1", mustMember(t, "u1"))
	require.NoError(t, err)

	require.True(t, o.Leave("sid-1", "r1", "u1").Left)
	assert.Empty(t, o.Disconnect("sid-1"))
}

func TestPeerDisconnectKeepsRoomListed(t *testing.T) {
	o := newOrchestrator()
	bind(o, "sid-a")
	bind(o, "sid-b")
	_, err := o.CreateRoom(CreateRoomSpec{ID: "r1", Title: "t", Capacity: 2})
	require.NoError(t, err)
	_, err = o.Join("sid-a", "r1", mustMember(t, "u1"))
	require.NoError(t, err)
	_, err = o.Join("sid-b", "r1", mustMember(t, "u2"))
	require.NoError(t, err)

	results := o.Disconnect("sid-a")
	require.Len(t, results, 1)
	assert.True(t, results[0].Left)
	assert.False(t, results[0].Deleted)
	require.Len(t, results[0].Room.Users, 1)
	assert.Equal(t, domain.UserID("u2"), results[0].Room.Users[0].ID)

	rooms := o.Rooms.List()
	require.Len(t, rooms, 1)
	assert.Equal(t, domain.RoomID("r1"), rooms[0].ID)
}

func TestLeaveUnbindsNamedUserNotRequester(t *testing.T) {
	o := newOrchestrator()
	bind(o, "sid-a")
	bind(o, "sid-b")
	_, err := o.CreateRoom(CreateRoomSpec{ID: "r1", Title: "t", Capacity: 2})
	require.NoError(t, err)
	_, err = o.Join("sid-a", "r1", mustMember(t, "u1"))
	require.NoError(t, err)
	_, err = o.Join("sid-b", "r1", mustMember(t, "u2"))
	require.NoError(t, err)

	// sid-b asks to remove u1, who belongs to sid-a.
	res := o.Leave("sid-b", "r1", "u1")
	require.True(t, res.Left)

	// The removed user loses its fan-out binding, the requester keeps its own.
	_, ok := o.Sessions.Lookup("r1", "u1")
	assert.False(t, ok)
	_, ok = o.Sessions.Lookup("r1", "u2")
	assert.True(t, ok)

	room, found := o.Rooms.Get("r1")
	require.True(t, found)
	require.Len(t, room.Users, 1)
	assert.Equal(t, domain.UserID("u2"), room.Users[0].ID)
}

func TestConcurrentLeaveAndDisconnect(t *testing.T) {
	o := newOrchestrator()
	bind(o, "sid-1")
	_, err := o.CreateRoom(CreateRoomSpec{ID: "r1", Title: "t", Capacity: 2})
	require.NoError(t, err)
	_, err = o.Join("sid-1", "r1", mustMember(t, "u1"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	leaves := 0
	wg.Add(2)
	go func() {
		defer wg.Done()
		if o.Leave("sid-1", "r1", "u1").Left {
			mu.Lock()
			leaves++
			mu.Unlock()
		}
	}()
	go func() {
		defer wg.Done()
		mu.Lock()
		leaves += len(o.Disconnect("sid-1"))
		mu.Unlock()
	}()
	wg.Wait()

	// Exactly one of the racers performs the leave, the other no-ops.
	assert.Equal(t, 1, leaves)
	assert.Empty(t, o.Rooms.List())
}

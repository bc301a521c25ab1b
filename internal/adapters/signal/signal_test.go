package signal

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two tabs of one browser share the client token cookie but must still
// get independent sessions: closing one tab may not evict the other
// tab's room membership.
func TestEachSocketGetsOwnSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctl := newTestController()

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		c.Set("client_token", "browser-1") // same cookie for every tab
		ctl.HandleSignal(context.Background(), c)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	tab1, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer tab1.Close()
	tab2, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer tab2.Close()

	require.NoError(t, tab2.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"createRoom","room":{"id":"r1","title":"t","size":2}}`)))
	require.NoError(t, tab2.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"joinRoom","roomId":"r1","user":{"id":"u1","name":"alice"}}`)))
	require.Eventually(t, func() bool {
		_, ok := ctl.Orch.Rooms.Get("r1")
		return ok
	}, time.Second, 10*time.Millisecond, "join never landed")

	tab1.Close()

	// The first tab's disconnect cleanup must not touch r1.
	assert.Never(t, func() bool {
		_, ok := ctl.Orch.Rooms.Get("r1")
		return !ok
	}, 300*time.Millisecond, 20*time.Millisecond, "closing one tab evicted the other")
}

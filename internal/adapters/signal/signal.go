package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/d0hyeon/video-chat/internal/app"
	"github.com/d0hyeon/video-chat/internal/config"
	"github.com/d0hyeon/video-chat/internal/core"
	"github.com/d0hyeon/video-chat/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// SignalWSController is the connection gateway: it upgrades sockets,
// dispatches inbound events to the orchestrator and relay, and fans
// resulting events back out over the session registry.
type SignalWSController struct {
	Orch      *app.Orchestrator
	Relay     *app.Relay
	Passwords *AttemptLimiter

	readLimit  int64
	pingPeriod time.Duration
}

func NewSignalWSController(orch *app.Orchestrator, relay *app.Relay, cfg *config.Config) *SignalWSController {
	return &SignalWSController{
		Orch:       orch,
		Relay:      relay,
		Passwords:  NewAttemptLimiter(cfg.PasswordAttempts, cfg.PasswordWindow),
		readLimit:  cfg.ReadLimit,
		pingPeriod: cfg.PingPeriod,
	}
}

// wsConn is an indirection over *websocket.Conn to ease testing.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(mt int, data []byte) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	Close() error
}

type WsSignalConn struct {
	conn wsConn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	// One session per socket. Two tabs of the same browser share the
	// client token cookie, so the session id is minted per upgrade.
	sid := core.SessionID(uuid.NewString())
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("client", c.GetString("client_token")).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}
	if ctl.readLimit > 0 {
		ws.SetReadLimit(ctl.readLimit)
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.Sessions.Bind(sid, conn, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn)
}

// broadcastAll fans an event out to every connected client, excluding
// the given sessions. Runs outside any registry lock.
func (ctl *SignalWSController) broadcastAll(v any, except ...core.SessionID) {
	for _, conn := range ctl.Orch.Sessions.All(except...) {
		ctl.sendJSONTo(conn, v)
	}
}

// broadcastRoom fans an event out to room members, excluding users.
func (ctl *SignalWSController) broadcastRoom(roomID domain.RoomID, v any, except ...domain.UserID) {
	for _, conn := range ctl.Orch.Sessions.RoomConns(roomID, except...) {
		ctl.sendJSONTo(conn, v)
	}
}

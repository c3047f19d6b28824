package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Chatter/internal/app"
	"github.com/dkeye/Chatter/internal/auth"
	"github.com/dkeye/Chatter/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// ChatWSController handles the websocket side of the chat protocol: handshake
// authentication, the per-connection pumps and event dispatch.
type ChatWSController struct {
	Auth     *auth.TokenManager
	Registry *app.Registry
	Store    *app.RoomStore
	Cast     *app.Broadcaster
	Presence *app.PresenceTracker
	Limiter  *MessageRateLimiter

	HistoryLimit int
	ReadLimit    int64
}

type WsSignalConn struct {
	conn *websocket.Conn
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

// HandleSignal runs the handshake. The credential is verified before the
// upgrade: a connection that fails the auth gate is never registered and
// never receives an event.
func (ctl *ChatWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	identity, err := ctl.Auth.Verify(c.Query("token"))
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("handshake rejected")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	sid := core.SessionID(uuid.NewString())
	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	ctl.Registry.Register(sid, identity, conn)
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("identity", string(identity)).Msg("new WS connection")

	// Initial room list, unicast, like every later "rooms" request.
	ctl.sendRooms(sid, conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, sid, conn)
		ctl.teardown(sid)
	}()
}

// teardown runs exactly once per connection, when its read pump exits.
// No leave notification is fanned out for the rooms the connection was in;
// rooms learn of departure implicitly.
func (ctl *ChatWSController) teardown(sid core.SessionID) {
	if identity, ok := ctl.Registry.IdentityOf(sid); ok {
		ctl.Presence.Clear(identity)
	}
	ctl.Registry.Deregister(sid)
}

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

	"github.com/dkeye/Bingo/internal/app"
	"github.com/dkeye/Bingo/internal/app/orch"
	"github.com/dkeye/Bingo/internal/core"
	"github.com/dkeye/Bingo/internal/domain"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

const (
	sendBuffer   = 32
	writeTimeout = 5 * time.Second
)

// SignalWSController serves the room event stream and in-band player actions.
type SignalWSController struct {
	Orch       *orch.Orchestrator
	Hub        *app.Hub
	Limiter    *app.RateLimiter
	ReadLimit  int64
	PingPeriod time.Duration
	// OnError writes a rejected upgrade request in the HTTP error format.
	OnError  func(c *gin.Context, err error)
	Upgrader websocket.Upgrader
}

func NewSignalWSController(o *orch.Orchestrator, hub *app.Hub, limiter *app.RateLimiter, readLimit int64, pingPeriod time.Duration) *SignalWSController {
	return &SignalWSController{
		Orch:       o,
		Hub:        hub,
		Limiter:    limiter,
		ReadLimit:  readLimit,
		PingPeriod: pingPeriod,
		OnError: func(c *gin.Context, err error) {
			kind := domain.KindOf(err)
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"kind": kind, "message": domain.Message(kind)})
		},
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
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
		return ErrClosed
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

// wsSubscriber is one live connection of a room member.
type wsSubscriber struct {
	id     core.SubscriberID
	code   string
	player string
	conn   *WsSignalConn
}

func (s *wsSubscriber) ID() core.SubscriberID         { return s.id }
func (s *wsSubscriber) PlayerID() string              { return s.player }
func (s *wsSubscriber) Signal() core.SignalConnection { return s.conn }

// HandleSignal upgrades a member's request and keeps it subscribed to the room until it drops.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	playerID := c.Query("playerId")
	if playerID == "" {
		ctl.OnError(c, domain.ErrValidation)
		return
	}
	view, err := ctl.Orch.State(c.Request.Context(), c.Param("code"), playerID)
	if err != nil {
		ctl.OnError(c, err)
		return
	}
	if view.Player == nil {
		ctl.OnError(c, domain.ErrForbidden)
		return
	}
	code := view.Room.Code

	ws, err := ctl.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	sub := &wsSubscriber{
		id:     core.SubscriberID(uuid.NewString()),
		code:   code,
		player: playerID,
		conn:   &WsSignalConn{conn: ws, send: make(chan core.Frame, sendBuffer)},
	}
	log.Info().Str("module", "signal").Str("room", code).Str("player", playerID).Str("sub", string(sub.id)).Msg("new WS connection")

	ctl.Hub.Subscribe(code, sub)
	ctl.sendJSON(sub.conn, reply{Type: "state", Payload: view})
	if err := ctl.Orch.SetConnected(ctx, code, playerID, true); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("room", code).Msg("mark connected")
	}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, sub.conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, sub)
	}()
}

// disconnect runs once the read side is gone. The player stays connected
// while another of their sockets is still subscribed.
func (ctl *SignalWSController) disconnect(sub *wsSubscriber) {
	ctl.Hub.Unsubscribe(sub.code, sub.id)
	sub.conn.Close()
	if n := ctl.Hub.PlayerSubscriptions(sub.code, sub.player); n > 0 {
		log.Debug().Str("module", "signal").Str("room", sub.code).Str("player", sub.player).Int("remaining", n).Msg("player still subscribed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := ctl.Orch.SetConnected(ctx, sub.code, sub.player, false); err != nil && !errors.Is(err, domain.ErrNotFound) {
		log.Warn().Err(err).Str("module", "signal").Str("room", sub.code).Msg("mark disconnected")
	}
}

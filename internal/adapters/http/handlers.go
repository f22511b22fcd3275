package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dkeye/Bingo/internal/app/orch"
	"github.com/dkeye/Bingo/internal/core"
	"github.com/dkeye/Bingo/internal/domain"
)

type Handlers struct {
	Orch    *orch.Orchestrator
	Timeout time.Duration
}

func (h *Handlers) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.Timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.Timeout)
}

type createRoomRequest struct {
	RoomName   string `json:"roomName" binding:"required"`
	PlayerName string `json:"playerName" binding:"required"`
}

type joinRequest struct {
	PlayerName string `json:"playerName"`
	SessionID  string `json:"sessionId"`
}

type playerRequest struct {
	PlayerID string `json:"playerId" binding:"required"`
}

type markRequest struct {
	PlayerID string `json:"playerId" binding:"required"`
	Number   int    `json:"number" binding:"required,min=1,max=75"`
}

// membershipResponse carries the reconnection token as sessionId; only its owner ever sees it.
type membershipResponse struct {
	RoomID      string                `json:"roomId"`
	RoomCode    string                `json:"roomCode"`
	PlayerID    string                `json:"playerId"`
	SessionID   string                `json:"sessionId"`
	IsHost      bool                  `json:"isHost"`
	Reconnected bool                  `json:"reconnected"`
	Card        *domain.Card          `json:"card"`
	Room        core.RoomStatePayload `json:"room"`
}

func toMembershipResponse(m *orch.Membership) membershipResponse {
	return membershipResponse{
		RoomID:      m.Room.ID,
		RoomCode:    m.Room.Code,
		PlayerID:    m.Player.ID,
		SessionID:   m.Player.Token,
		IsHost:      m.Player.IsHost,
		Reconnected: m.Reconnected,
		Card:        m.Player.Card,
		Room:        m.Room,
	}
}

func (h *Handlers) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.ErrValidation)
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	m, err := h.Orch.CreateRoom(ctx, req.RoomName, req.PlayerName)
	if err != nil {
		writeError(c, err)
		return
	}
	rememberSeat(c, seat{Room: m.Room.Code, Player: m.Player.ID, Token: m.Player.Token})
	c.JSON(http.StatusCreated, toMembershipResponse(m))
}

func (h *Handlers) Join(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.ErrValidation)
		return
	}
	code := domain.NormalizeCode(c.Param("code"))
	token := req.SessionID
	if token == "" {
		if s, ok := recalledSeat(c); ok && s.Room == code {
			token = s.Token
		}
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	m, err := h.Orch.Join(ctx, code, req.PlayerName, token)
	if err != nil {
		writeError(c, err)
		return
	}
	rememberSeat(c, seat{Room: m.Room.Code, Player: m.Player.ID, Token: m.Player.Token})
	c.JSON(http.StatusOK, toMembershipResponse(m))
}

func (h *Handlers) State(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	view, err := h.Orch.State(ctx, c.Param("code"), c.Query("playerId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handlers) Leaderboard(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	players, err := h.Orch.Leaderboard(ctx, c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"players": players})
}

// hostAction adapts Start, NewRound and EndRound, which share a request and response shape.
func (h *Handlers) hostAction(op func(ctx context.Context, code, playerID string) (*orch.RoomView, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req playerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, domain.ErrValidation)
			return
		}
		ctx, cancel := h.ctx(c)
		defer cancel()
		view, err := op(ctx, c.Param("code"), req.PlayerID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

func (h *Handlers) Start(c *gin.Context)    { h.hostAction(h.Orch.Start)(c) }
func (h *Handlers) NewRound(c *gin.Context) { h.hostAction(h.Orch.NewRound)(c) }
func (h *Handlers) EndRound(c *gin.Context) { h.hostAction(h.Orch.EndRound)(c) }

func (h *Handlers) Draw(c *gin.Context) {
	var req playerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.ErrValidation)
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	res, err := h.Orch.Draw(ctx, c.Param("code"), req.PlayerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) Mark(c *gin.Context) {
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.ErrValidation)
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	res, err := h.Orch.Mark(ctx, c.Param("code"), req.PlayerID, req.Number)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) Claim(c *gin.Context) {
	var req playerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.ErrValidation)
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	res, err := h.Orch.Claim(ctx, c.Param("code"), req.PlayerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) Leave(c *gin.Context) {
	var req playerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.ErrValidation)
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.Orch.Leave(ctx, c.Param("code"), req.PlayerID); err != nil {
		writeError(c, err)
		return
	}
	forgetSeat(c)
	c.Status(http.StatusNoContent)
}

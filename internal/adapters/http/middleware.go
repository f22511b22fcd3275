package http

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Bingo/internal/app"
	"github.com/dkeye/Bingo/internal/domain"
)

const (
	clientTokenCookie = "ct"
	clientTokenKey    = "client_token"
	sessionName       = "BingoSession"
)

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

// ClientTokenMiddleware gives every device a stable anonymous token.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(clientTokenCookie)
		if token == "" {
			token = genClientToken()
			c.SetCookie(clientTokenCookie, token, 3600*24*7, "/", "", false, true)
		}
		c.Set(clientTokenKey, token)
		c.Next()
	}
}

// RateLimitMiddleware throttles mutating requests per device.
func RateLimitMiddleware(rl *app.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString(clientTokenKey)
		if key == "" {
			key = c.ClientIP()
		}
		if !rl.Allow(key) {
			log.Debug().Str("module", "adapters.http").Str("device", key).Msg("rate limited")
			writeError(c, domain.ErrRateLimited)
			return
		}
		c.Next()
	}
}

// seat is what the device cookie session remembers about the last room joined.
type seat struct {
	Room   string
	Player string
	Token  string
}

func rememberSeat(c *gin.Context, s seat) {
	sess := sessions.Default(c)
	sess.Set("room", s.Room)
	sess.Set("player", s.Player)
	sess.Set("token", s.Token)
	if err := sess.Save(); err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Msg("save session")
	}
}

func recalledSeat(c *gin.Context) (seat, bool) {
	sess := sessions.Default(c)
	room, _ := sess.Get("room").(string)
	player, _ := sess.Get("player").(string)
	token, _ := sess.Get("token").(string)
	if room == "" || token == "" {
		return seat{}, false
	}
	return seat{Room: room, Player: player, Token: token}, true
}

func forgetSeat(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	if err := sess.Save(); err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Msg("clear session")
	}
}

package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Bingo/internal/adapters/signal"
	"github.com/dkeye/Bingo/internal/app"
	"github.com/dkeye/Bingo/internal/app/orch"
	"github.com/dkeye/Bingo/internal/config"
)

func corsConfig(origins []string) cors.Config {
	cc := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Origin"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cc.AllowAllOrigins = true
		cc.AllowCredentials = false
		return cc
	}
	cc.AllowOrigins = origins
	return cc
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, hub *app.Hub) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(ClientTokenMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "rooms": len(hub.List())})
	})

	log.Info().Str("module", "adapters.http").Strs("origins", cfg.AllowedOrigins).Msg("router setup")

	h := &Handlers{Orch: o, Timeout: cfg.RequestTimeout}
	limited := RateLimitMiddleware(app.NewRateLimiter(cfg.Rate.Limit, cfg.Rate.Burst))

	ws := signal.NewSignalWSController(o, hub, app.NewRateLimiter(cfg.Rate.Limit, cfg.Rate.Burst), cfg.ReadLimit, cfg.PingPeriod)
	ws.OnError = writeError
	ws.Upgrader.CheckOrigin = checkOrigin(cfg.AllowedOrigins)

	api := r.Group("/api")
	rooms := api.Group("/rooms")
	rooms.POST("", limited, h.CreateRoom)
	rooms.GET("/:code", h.State)
	rooms.GET("/:code/leaderboard", h.Leaderboard)
	rooms.POST("/:code/join", limited, h.Join)
	rooms.POST("/:code/start", limited, h.Start)
	rooms.POST("/:code/draw", limited, h.Draw)
	rooms.POST("/:code/mark", limited, h.Mark)
	rooms.POST("/:code/claim", limited, h.Claim)
	rooms.POST("/:code/new-round", limited, h.NewRound)
	rooms.POST("/:code/end", limited, h.EndRound)
	rooms.POST("/:code/leave", limited, h.Leave)
	rooms.GET("/:code/ws", func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str("device", c.GetString(clientTokenKey)).Msg("ws endpoint hit")
		ws.HandleSignal(ctx, c)
	})

	return r
}

// checkOrigin accepts same-host requests, requests without Origin and configured origins.
func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		if origin == "http://"+r.Host || origin == "https://"+r.Host {
			return true
		}
		for _, o := range allowed {
			if o == origin {
				return true
			}
		}
		return false
	}
}

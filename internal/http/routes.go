package http

import (
	"time"

	"promptmatch/internal/http/handlers"
	"promptmatch/internal/http/middleware"
	"promptmatch/internal/service"
	"promptmatch/internal/ws"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

// Deps is everything the routes need. Redis is optional and only backs
// the rate limiters.
type Deps struct {
	Handler       *handlers.Handler
	Health        *handlers.HealthHandler
	Hub           *ws.Hub
	Tokens        *service.TokenIssuer
	Redis         *redis.Client
	AllowedOrigin string
	RateLimit     int
	RateWindow    time.Duration
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	h := d.Handler

	// Health checks (no rate limiting)
	r.GET("/health", d.Health.Health)
	r.GET("/healthz", d.Health.Liveness)
	r.GET("/readyz", d.Health.Readiness)

	limit := middleware.RedisRateLimit(d.Redis, d.RateLimit, d.RateWindow)
	// a player flips at most two tiles per turn; this only stops floods
	moves := middleware.PlayerRateLimit(d.Redis, d.RateLimit, d.RateWindow)
	auth := middleware.Session(d.Tokens)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/boards", h.Boards)
		v1.GET("/results", h.Results)
		v1.GET("/results/:id", h.Result)

		v1.POST("/games", limit, h.CreateGame)
		v1.POST("/games/:id/join", limit, h.JoinGame)

		game := v1.Group("/games/:id", auth)
		game.GET("", h.GetGame)
		game.POST("/start", h.StartGame)
		game.POST("/restart", h.RestartGame)
		game.POST("/leave", h.LeaveGame)
		game.POST("/tiles/:tile", moves, h.SelectTile)
		game.POST("/evaluate", h.Evaluate)
	}

	r.GET("/ws", ws.HandleWS(d.Hub, d.Tokens, d.AllowedOrigin))
}

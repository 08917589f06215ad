package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/numberplay/numberplay-backend/controllers"
	"github.com/numberplay/numberplay-backend/middleware"
	"github.com/numberplay/numberplay-backend/ratelimit"
	"go.uber.org/zap"
)

// Per-user request limits per rolling minute.
const (
	playPerMinute       = 10
	historyPerMinute    = 30
	statisticsPerMinute = 20
)

type Deps struct {
	Users       *controllers.UserController
	Games       *controllers.GameController
	RequireAuth gin.HandlerFunc
	WebSocket   gin.HandlerFunc
	Limiter     ratelimit.Limiter
	Log         *zap.SugaredLogger
}

func SetupRoutes(r *gin.Engine, d Deps) {
	api := r.Group("/api")

	// ----------------------
	// Auth routes
	// ----------------------
	authGroup := api.Group("/auth")
	authGroup.POST("/register", d.Users.Register)
	authGroup.POST("/login", d.Users.Login)
	authGroup.GET("/user", d.RequireAuth, d.Users.Me)
	api.POST("/token/refresh", d.Users.Refresh)

	// ----------------------
	// Game routes: authenticate, then rate-limit, then handle
	// ----------------------
	gameGroup := api.Group("/game", d.RequireAuth)
	gameGroup.POST("/play",
		middleware.RateLimit(d.Limiter, "play", playPerMinute, time.Minute, d.Log),
		d.Games.Play)
	gameGroup.GET("/history",
		middleware.RateLimit(d.Limiter, "history", historyPerMinute, time.Minute, d.Log),
		d.Games.History)
	gameGroup.GET("/statistics",
		middleware.RateLimit(d.Limiter, "statistics", statisticsPerMinute, time.Minute, d.Log),
		d.Games.Statistics)

	// ----------------------
	// Live result feed
	// ----------------------
	r.GET("/ws", d.WebSocket)
}

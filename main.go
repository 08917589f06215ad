package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/numberplay/numberplay-backend/auth"
	"github.com/numberplay/numberplay-backend/config"
	"github.com/numberplay/numberplay-backend/controllers"
	"github.com/numberplay/numberplay-backend/middleware"
	"github.com/numberplay/numberplay-backend/ratelimit"
	"github.com/numberplay/numberplay-backend/repository"
	"github.com/numberplay/numberplay-backend/routes"
	"github.com/numberplay/numberplay-backend/services"
	"github.com/numberplay/numberplay-backend/utils/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// Read env variables
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.LogLevel, cfg.LogEncoding)
	defer log.Sync()

	// Prizes serialize as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true

	// Connect to database
	db, err := config.SetupDatabase(cfg)
	if err != nil {
		log.Fatalf("failed to set up database: %v", err)
	}
	log.Info("database connected and migrated")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := services.NewHub(log)
	limiter := ratelimit.NewMemoryLimiter(log)
	limiter.StartJanitor(ctx, time.Minute, 10*time.Minute)

	router := setupRouter(cfg, db, hub, limiter, log)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Infof("NumberPlay backend listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("server shutdown: %v", err)
	}
	hub.Close()
}

// setupRouter wires middleware, controllers, and routes.
func setupRouter(cfg *config.Config, db *gorm.DB, hub *services.Hub, limiter ratelimit.Limiter, log *zap.SugaredLogger) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	tokens := auth.NewTokenManager(cfg.JWTSecret, 0, 0)
	mailer := services.NewMailer(log)

	users := controllers.NewUserController(repository.NewUserRepository(db), tokens, mailer, log)
	games := controllers.NewGameController(repository.NewPlayLedger(db), hub, log)

	routes.SetupRoutes(r, routes.Deps{
		Users:       users,
		Games:       games,
		RequireAuth: middleware.RequireAuth(tokens),
		WebSocket:   services.HandleWebSocket(hub, tokens, log),
		Limiter:     limiter,
		Log:         log,
	})

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now()})
	})

	return r
}

package http

import (
	"time"

	"slide_to_glory/internal/config"
	"slide_to_glory/internal/http/handlers"
	"slide_to_glory/internal/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps is everything the routes need, built once in main.
type Deps struct {
	Handler *handlers.Handler
	Health  *handlers.HealthHandler
}

func RegisterRoutes(r *gin.Engine, deps Deps, cfg *config.Config) {
	h := deps.Handler

	apiRateWindow := time.Duration(cfg.APIRateWindow) * time.Second
	authRateWindow := time.Duration(cfg.AuthRateWindow) * time.Second

	r.Use(middleware.Metrics())

	// Health checks (no rate limiting)
	r.GET("/health", deps.Health.Health)
	r.GET("/healthz", deps.Health.Liveness)
	r.GET("/readyz", deps.Health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit("api", cfg.APIRateLimit, apiRateWindow))
	{
		authRL := middleware.RateLimit("auth", cfg.AuthRateLimit, authRateWindow)
		v1.POST("/register", authRL, h.Register)
		v1.POST("/login", authRL, h.Login)

		v1.POST("/sessions", h.CreateSession)
		v1.GET("/sessions/:token", h.SessionExists)

		v1.POST("/stats", middleware.JWT(), middleware.UserRateLimit(cfg.APIRateLimit, apiRateWindow), h.UpdateStats)
		v1.GET("/stats/:username", h.GetStats)
		v1.GET("/leaderboard", h.GetLeaderboard)
	}

	// Invite links
	r.GET("/join/:token", h.Join)
	r.GET("/join/:token/qr.png", h.JoinQR)

	// WebSocket relay
	r.GET("/ws/:token/:username", h.WS())
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"slide_to_glory/internal/config"
	"slide_to_glory/internal/db"
	httpServer "slide_to_glory/internal/http"
	"slide_to_glory/internal/http/handlers"
	"slide_to_glory/internal/http/middleware"
	"slide_to_glory/internal/logger"
	"slide_to_glory/internal/repository"
	"slide_to_glory/internal/service"
	"slide_to_glory/internal/ws"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	service.InitJWT(cfg.JWTSecret)

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer middleware.CloseRedisRateLimiter()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	users := repository.NewUserRepository(dbPool)
	stats := repository.NewStatsRepository(dbPool)

	hub := ws.NewHub(stats)
	hub.StartCleanup(ctx, cfg.SessionIdleTTL, time.Minute)

	r := gin.New()
	r.Use(gin.Recovery())

	// CORS for a browser frontend on a different domain
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (cfg.AllowedOrigin == "" || origin == cfg.AllowedOrigin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	httpServer.RegisterRoutes(r, httpServer.Deps{
		Handler: handlers.NewHandler(service.NewAccountService(users), stats, hub, handlers.HandlerConfig{
			PublicURL:     cfg.PublicURL,
			AllowedOrigin: cfg.AllowedOrigin,
		}),
		Health: handlers.NewHealthHandler(dbPool, hub, version),
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server started", "port", cfg.AppPort, "public_url", cfg.PublicURL, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		hub.Shutdown()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", "error", err)
		return
	}
	logger.Info("server exited")
}

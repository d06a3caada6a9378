package handlers

import (
	"errors"
	"net/http"
	"time"

	"slide_to_glory/internal/domain"
	"slide_to_glory/internal/http/middleware"
	"slide_to_glory/internal/logger"
	"slide_to_glory/internal/repository"

	"github.com/gin-gonic/gin"
)

type UpdateStatsRequest struct {
	Result   domain.GameResult `json:"result" binding:"required"`
	Duration int64             `json:"duration"` // seconds
}

// UpdateStats records a result for the authenticated account.
func (h *Handler) UpdateStats(c *gin.Context) {
	username, ok := middleware.Username(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req UpdateStatsRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Result.Valid() || req.Duration < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	err := h.Stats.UpdateStats(c.Request.Context(), username, req.Result, time.Duration(req.Duration)*time.Second)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		logger.Error("update stats failed", "username", username, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) GetStats(c *gin.Context) {
	username := c.Param("username")
	stats, err := h.Stats.GetStats(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		logger.Error("get stats failed", "username", username, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username":            stats.Username,
		"wins":                stats.Wins,
		"losses":              stats.Losses,
		"games_played":        stats.GamesPlayed(),
		"fastest_win_seconds": stats.FastestWinSeconds,
	})
}

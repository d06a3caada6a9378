package handlers

import (
	"net/http"
	"strconv"

	"slide_to_glory/internal/logger"

	"github.com/gin-gonic/gin"
)

const defaultLeaderboardLimit = 10

// GetLeaderboard returns the top players by wins
func (h *Handler) GetLeaderboard(c *gin.Context) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLeaderboardLimit
	}

	top, err := h.Stats.Top(c.Request.Context(), limit)
	if err != nil {
		logger.Error("leaderboard failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get leaderboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leaderboard": top,
	})
}

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"slide_to_glory/internal/game"
	"slide_to_glory/internal/logger"
	"slide_to_glory/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const maxUsernameLen = 32

func (h *Handler) WS() gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if h.cfg.AllowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == h.cfg.AllowedOrigin
		},
	}

	return func(c *gin.Context) {
		token := c.Param("token")
		username := strings.TrimSpace(c.Param("username"))
		if username == "" || len(username) > maxUsernameLen {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid username"})
			return
		}

		// refuse before upgrading so the caller sees a plain status code
		if err := h.Hub.CanJoin(c.Request.Context(), token, username); err != nil {
			switch {
			case errors.Is(err, ws.ErrSessionNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			case errors.Is(err, game.ErrSessionFull):
				c.JSON(http.StatusConflict, gin.H{"error": "session full"})
			default:
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session unavailable"})
			}
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade error", "session", token, "error", err)
			return
		}

		client := ws.NewClient(username, conn, h.Hub)
		go client.Run(token)
	}
}

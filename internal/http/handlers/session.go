package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

type SessionResponse struct {
	SessionID  string `json:"session_id"`
	InviteLink string `json:"invite_link"`
}

// CreateSession issues a fresh session token and its invite link.
func (h *Handler) CreateSession(c *gin.Context) {
	token := h.Hub.Create()
	c.JSON(http.StatusCreated, SessionResponse{
		SessionID:  token,
		InviteLink: h.inviteLink(token),
	})
}

func (h *Handler) SessionExists(c *gin.Context) {
	token := c.Param("token")
	exists := h.Hub.Exists(token)
	status := http.StatusOK
	if !exists {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"session_id": token, "exists": exists})
}

// Join is the invite landing: it tells a client where to open its socket.
func (h *Handler) Join(c *gin.Context) {
	token := c.Param("token")
	if !h.Hub.Exists(token) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": token,
		"ws_path":    "/ws/" + token + "/{username}",
	})
}

// JoinQR renders the invite link as a PNG QR code.
func (h *Handler) JoinQR(c *gin.Context) {
	token := c.Param("token")
	if !h.Hub.Exists(token) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	png, err := qrcode.Encode(h.inviteLink(token), qrcode.Medium, qrSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "qr generation failed"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

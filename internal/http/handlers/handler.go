package handlers

import (
	"context"
	"time"

	"slide_to_glory/internal/domain"
	"slide_to_glory/internal/ws"
)

type Accounts interface {
	Register(ctx context.Context, username, password, avatar string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
}

type StatsStore interface {
	UpdateStats(ctx context.Context, username string, result domain.GameResult, duration time.Duration) error
	GetStats(ctx context.Context, username string) (*domain.Stats, error)
	Top(ctx context.Context, limit int) ([]domain.Stats, error)
}

// HandlerConfig holds configuration for handler
type HandlerConfig struct {
	PublicURL     string
	AllowedOrigin string
}

type Handler struct {
	Accounts Accounts
	Stats    StatsStore
	Hub      *ws.Hub
	cfg      HandlerConfig
}

func NewHandler(accounts Accounts, stats StatsStore, hub *ws.Hub, cfg HandlerConfig) *Handler {
	return &Handler{
		Accounts: accounts,
		Stats:    stats,
		Hub:      hub,
		cfg:      cfg,
	}
}

func (h *Handler) inviteLink(token string) string {
	return h.cfg.PublicURL + "/join/" + token
}

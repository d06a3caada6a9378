package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slide_to_glory/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInvalidResult = errors.New("invalid game result")

type StatsRepository struct {
	db *pgxpool.Pool
}

func NewStatsRepository(db *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{db: db}
}

// UpdateStats records one finished game. A win only lowers the fastest win,
// never raises it.
func (r *StatsRepository) UpdateStats(ctx context.Context, username string, result domain.GameResult, duration time.Duration) error {
	var tag pgconn.CommandTag
	var err error

	switch result {
	case domain.GameResultWin:
		tag, err = r.db.Exec(ctx,
			`UPDATE users
			 SET wins = wins + 1,
			     fastest_win_seconds = LEAST(fastest_win_seconds, $2),
			     updated_at = NOW()
			 WHERE username = $1`,
			username, int64(duration/time.Second),
		)
	case domain.GameResultLoss:
		tag, err = r.db.Exec(ctx,
			`UPDATE users
			 SET losses = losses + 1,
			     updated_at = NOW()
			 WHERE username = $1`,
			username,
		)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidResult, result)
	}

	if err != nil {
		return fmt.Errorf("update stats for %s: %w", username, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *StatsRepository) GetStats(ctx context.Context, username string) (*domain.Stats, error) {
	var s domain.Stats
	err := r.db.QueryRow(ctx,
		`SELECT username, wins, losses, fastest_win_seconds, COALESCE(updated_at, created_at)
		 FROM users
		 WHERE username = $1`,
		username,
	).Scan(&s.Username, &s.Wins, &s.Losses, &s.FastestWinSeconds, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Top returns players ordered by wins, then by fastest win.
func (r *StatsRepository) Top(ctx context.Context, limit int) ([]domain.Stats, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`SELECT username, wins, losses, fastest_win_seconds, COALESCE(updated_at, created_at)
		 FROM users
		 WHERE wins > 0 OR losses > 0
		 ORDER BY wins DESC, fastest_win_seconds ASC, username ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]domain.Stats, 0, limit)
	for rows.Next() {
		var s domain.Stats
		if err := rows.Scan(&s.Username, &s.Wins, &s.Losses, &s.FastestWinSeconds, &s.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"slide_to_glory/internal/domain"
	"slide_to_glory/internal/repository"
)

func TestUserRepository_CreateAndLookup(t *testing.T) {
	db := openDB(t)
	cleanupUser(t, db, "it_ana")
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	u := &domain.User{Username: "it_ana", PasswordHash: "hash", Avatar: "🐍"}
	require.NoError(t, repo.Create(ctx, u))
	require.NotZero(t, u.ID)

	err := repo.Create(ctx, &domain.User{Username: "it_ana", PasswordHash: "x"})
	require.ErrorIs(t, err, repository.ErrUserExists)

	got, err := repo.GetByUsername(ctx, "it_ana")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, "🐍", got.Avatar)

	_, err = repo.GetByUsername(ctx, "it_nobody")
	require.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestStatsRepository_UpdateStats(t *testing.T) {
	db := openDB(t)
	cleanupUser(t, db, "it_bo")
	users := repository.NewUserRepository(db)
	stats := repository.NewStatsRepository(db)
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, &domain.User{Username: "it_bo", PasswordHash: "hash"}))

	s, err := stats.GetStats(ctx, "it_bo")
	require.NoError(t, err)
	require.EqualValues(t, domain.NoFastestWin, s.FastestWinSeconds)

	require.NoError(t, stats.UpdateStats(ctx, "it_bo", domain.GameResultWin, 90*time.Second))
	require.NoError(t, stats.UpdateStats(ctx, "it_bo", domain.GameResultWin, 120*time.Second))
	require.NoError(t, stats.UpdateStats(ctx, "it_bo", domain.GameResultLoss, 0))

	s, err = stats.GetStats(ctx, "it_bo")
	require.NoError(t, err)
	require.EqualValues(t, 2, s.Wins)
	require.EqualValues(t, 1, s.Losses)
	require.EqualValues(t, 90, s.FastestWinSeconds)

	top, err := stats.Top(ctx, 100)
	require.NoError(t, err)
	require.Contains(t, usernames(top), "it_bo")

	require.ErrorIs(t, stats.UpdateStats(ctx, "it_nobody", domain.GameResultWin, time.Second), repository.ErrUserNotFound)
	require.ErrorIs(t, stats.UpdateStats(ctx, "it_bo", "draw", time.Second), repository.ErrInvalidResult)
}

func usernames(stats []domain.Stats) []string {
	out := make([]string, 0, len(stats))
	for _, s := range stats {
		out = append(out, s.Username)
	}
	return out
}

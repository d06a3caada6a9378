package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"slide_to_glory/internal/db"
	"slide_to_glory/internal/repository"
	"slide_to_glory/internal/service"
)

func main() {
	// expects DATABASE_URL env var
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	username := flag.String("username", "testuser", "account name")
	password := flag.String("password", "testpass", "account password")
	avatar := flag.String("avatar", "🙂", "avatar")
	flag.Parse()

	pool := db.Connect(dsn)
	defer pool.Close()

	users := repository.NewUserRepository(pool)
	accounts := service.NewAccountService(users)
	ctx := context.Background()

	u, err := accounts.Register(ctx, *username, *password, *avatar)
	switch {
	case err == nil:
		log.Printf("user created id=%d\n", u.ID)
	case errors.Is(err, service.ErrUsernameTaken):
		log.Printf("user %s already exists\n", *username)
	default:
		log.Fatalf("create user failed: %v", err)
	}

	// verify read
	stats, err := repository.NewStatsRepository(pool).GetStats(ctx, *username)
	if err != nil {
		log.Fatalf("read back failed: %v", err)
	}
	log.Printf("ok: %s wins=%d losses=%d fastest=%ds\n", stats.Username, stats.Wins, stats.Losses, stats.FastestWinSeconds)
}

package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"slide_to_glory/internal/domain"
	"slide_to_glory/internal/logger"
	"slide_to_glory/internal/repository"
)

var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidUsername    = errors.New("username must be 3-32 characters")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
)

const (
	minUsernameLen = 3
	maxUsernameLen = 32
	minPasswordLen = 6
)

type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type AccountService struct {
	users UserStore
	cost  int
}

func NewAccountService(users UserStore) *AccountService {
	return &AccountService{users: users, cost: bcrypt.DefaultCost}
}

// Register creates an account and returns it with its id filled in.
func (s *AccountService) Register(ctx context.Context, username, password, avatar string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if n := len([]rune(username)); n < minUsernameLen || n > maxUsernameLen {
		return nil, ErrInvalidUsername
	}
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}

	u := &domain.User{Username: username, PasswordHash: string(hash), Avatar: avatar}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	logger.Info("account registered", "user_id", u.ID, "username", u.Username)
	return u, nil
}

// Login checks the password and returns a signed token for the account.
func (s *AccountService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := GenerateJWT(u.ID, u.Username)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

package auth

import (
	"errors"
	"time"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrSessionNotFound = errors.New("session not found")
	ErrRefreshNotFound = errors.New("refresh token not found")
)

// SessionRecord is one login. Access tokens carry its SID and stop validating once it is gone.
type SessionRecord struct {
	SID        string
	UserID     int64
	TelegramID int64
	ExpiresAt  time.Time
}

type AccessClaims struct {
	UserID     int64
	TelegramID int64
	SID        string
	ExpiresAt  time.Time
}

type TelegramUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

type AuthResult struct {
	AccessToken   string
	RefreshToken  string
	AccessExpires time.Time
	User          model.User
}

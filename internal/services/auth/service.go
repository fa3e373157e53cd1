package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
)

const (
	defaultInitDataMaxAge = 24 * time.Hour

	MinRefreshTTL = 30 * 24 * time.Hour
	MaxRefreshTTL = 90 * 24 * time.Hour
)

type UserStore interface {
	EnsureUser(ctx context.Context, telegramID int64, username string) (model.User, error)
}

type SessionStore interface {
	Create(ctx context.Context, session SessionRecord, refreshToken string) error
	GetSession(ctx context.Context, sid string) (SessionRecord, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (SessionRecord, error)
	RotateRefresh(ctx context.Context, sid, oldRefreshToken, newRefreshToken string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, sid string) error
	DeleteAllForUser(ctx context.Context, userID int64) error
}

type Config struct {
	BotToken       string
	InitDataMaxAge time.Duration
	RefreshTTL     time.Duration
	// AllowUnsigned accepts init data without a signature. Never enable in production.
	AllowUnsigned bool
}

type Service struct {
	jwt      *JWTManager
	users    UserStore
	sessions SessionStore
	cfg      Config
	now      func() time.Time
}

func NewService(jwtManager *JWTManager, users UserStore, sessions SessionStore, cfg Config) *Service {
	if cfg.InitDataMaxAge == 0 {
		cfg.InitDataMaxAge = defaultInitDataMaxAge
	}
	if cfg.RefreshTTL < MinRefreshTTL {
		cfg.RefreshTTL = MinRefreshTTL
	}
	if cfg.RefreshTTL > MaxRefreshTTL {
		cfg.RefreshTTL = MaxRefreshTTL
	}

	return &Service{
		jwt:      jwtManager,
		users:    users,
		sessions: sessions,
		cfg:      cfg,
		now:      time.Now,
	}
}

// LoginTelegram exchanges Mini App init data for a token pair, creating the user on first login.
func (s *Service) LoginTelegram(ctx context.Context, initData string) (AuthResult, error) {
	if s.jwt == nil || s.users == nil || s.sessions == nil {
		return AuthResult{}, fmt.Errorf("auth dependencies are not configured")
	}

	tgUser, err := VerifyInitData(initData, s.cfg.BotToken, s.cfg.InitDataMaxAge, s.now())
	if err != nil && s.cfg.AllowUnsigned && !errors.Is(err, ErrInvalidInput) {
		tgUser, err = ResolveUnsignedInitData(initData)
	}
	if err != nil {
		return AuthResult{}, err
	}

	user, err := s.users.EnsureUser(ctx, tgUser.ID, tgUser.Username)
	if err != nil {
		return AuthResult{}, fmt.Errorf("ensure telegram user: %w", err)
	}

	return s.issueForUser(ctx, user)
}

// Refresh rotates the refresh token of a live session and mints a new access token for it.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return AuthResult{}, ErrInvalidInput
	}
	if s.jwt == nil || s.sessions == nil {
		return AuthResult{}, fmt.Errorf("auth dependencies are not configured")
	}

	session, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("get refresh token session: %w", err)
	}
	if s.now().After(session.ExpiresAt) {
		return AuthResult{}, ErrUnauthorized
	}

	newRefreshToken, err := NewRefreshToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	newExpiresAt := s.now().Add(s.cfg.RefreshTTL)
	if err := s.sessions.RotateRefresh(ctx, session.SID, refreshToken, newRefreshToken, newExpiresAt); err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(session.UserID, session.TelegramID, session.SID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	return AuthResult{
		AccessToken:   accessToken,
		RefreshToken:  newRefreshToken,
		AccessExpires: accessExpires,
		User:          model.User{ID: session.UserID, TelegramID: session.TelegramID},
	}, nil
}

func (s *Service) Logout(ctx context.Context, sid string) error {
	if strings.TrimSpace(sid) == "" {
		return ErrInvalidInput
	}
	if s.sessions == nil {
		return fmt.Errorf("auth dependencies are not configured")
	}
	if err := s.sessions.DeleteSession(ctx, sid); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Service) LogoutAll(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return ErrInvalidInput
	}
	if s.sessions == nil {
		return fmt.Errorf("auth dependencies are not configured")
	}
	if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("delete all sessions: %w", err)
	}
	return nil
}

// ValidateAccessToken checks the signature and that the token's session is still alive.
func (s *Service) ValidateAccessToken(ctx context.Context, accessToken string) (AccessClaims, error) {
	if s.jwt == nil || s.sessions == nil {
		return AccessClaims{}, fmt.Errorf("auth dependencies are not configured")
	}

	claims, err := s.jwt.ParseAccessToken(accessToken)
	if err != nil {
		return AccessClaims{}, ErrUnauthorized
	}

	session, err := s.sessions.GetSession(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return AccessClaims{}, ErrUnauthorized
		}
		return AccessClaims{}, fmt.Errorf("get session: %w", err)
	}
	if session.UserID != claims.UserID {
		return AccessClaims{}, ErrUnauthorized
	}
	if s.now().After(session.ExpiresAt) {
		return AccessClaims{}, ErrUnauthorized
	}

	return claims, nil
}

func (s *Service) issueForUser(ctx context.Context, user model.User) (AuthResult, error) {
	refreshToken, err := NewRefreshToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	session := SessionRecord{
		SID:        NewSessionID(),
		UserID:     user.ID,
		TelegramID: user.TelegramID,
		ExpiresAt:  s.now().Add(s.cfg.RefreshTTL),
	}
	if err := s.sessions.Create(ctx, session, refreshToken); err != nil {
		return AuthResult{}, fmt.Errorf("create session: %w", err)
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(user.ID, user.TelegramID, session.SID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	return AuthResult{
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		AccessExpires: accessExpires,
		User:          user,
	}, nil
}

package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	authsvc "github.com/divcode-web/Trueconnect-bot/internal/services/auth"
)

// AuthSessionStore is the in-process twin of the redis auth session repo.
type AuthSessionStore struct {
	mu       sync.Mutex
	sessions map[string]authsvc.SessionRecord
	refresh  map[string]string // refresh token -> sid
	bySID    map[string]string // sid -> refresh token
	now      func() time.Time
}

func NewAuthSessionStore() *AuthSessionStore {
	return &AuthSessionStore{
		sessions: make(map[string]authsvc.SessionRecord),
		refresh:  make(map[string]string),
		bySID:    make(map[string]string),
		now:      time.Now,
	}
}

func (s *AuthSessionStore) Create(_ context.Context, session authsvc.SessionRecord, refreshToken string) error {
	if strings.TrimSpace(session.SID) == "" || strings.TrimSpace(refreshToken) == "" || session.UserID <= 0 {
		return authsvc.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.SID] = session
	s.refresh[refreshToken] = session.SID
	s.bySID[session.SID] = refreshToken
	return nil
}

func (s *AuthSessionStore) GetSession(_ context.Context, sid string) (authsvc.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.live(sid)
	if !ok {
		return authsvc.SessionRecord{}, authsvc.ErrSessionNotFound
	}
	return session, nil
}

func (s *AuthSessionStore) GetByRefreshToken(_ context.Context, refreshToken string) (authsvc.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.live(s.refresh[refreshToken])
	if !ok {
		return authsvc.SessionRecord{}, authsvc.ErrRefreshNotFound
	}
	return session, nil
}

func (s *AuthSessionStore) RotateRefresh(_ context.Context, sid, oldRefreshToken, newRefreshToken string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refresh[oldRefreshToken] != sid {
		return authsvc.ErrRefreshNotFound
	}
	session, ok := s.live(sid)
	if !ok {
		return authsvc.ErrRefreshNotFound
	}

	delete(s.refresh, oldRefreshToken)
	session.ExpiresAt = expiresAt
	s.sessions[sid] = session
	s.refresh[newRefreshToken] = sid
	s.bySID[sid] = newRefreshToken
	return nil
}

func (s *AuthSessionStore) DeleteSession(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.drop(sid)
	return nil
}

func (s *AuthSessionStore) DeleteAllForUser(_ context.Context, userID int64) error {
	if userID <= 0 {
		return authsvc.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for sid, session := range s.sessions {
		if session.UserID == userID {
			s.drop(sid)
		}
	}
	return nil
}

// SweepExpired drops sessions past their expiry and returns how many were removed.
func (s *AuthSessionStore) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for sid, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			s.drop(sid)
			removed++
		}
	}
	return removed
}

func (s *AuthSessionStore) live(sid string) (authsvc.SessionRecord, bool) {
	session, ok := s.sessions[sid]
	if !ok || s.now().After(session.ExpiresAt) {
		return authsvc.SessionRecord{}, false
	}
	return session, true
}

func (s *AuthSessionStore) drop(sid string) {
	if token, ok := s.bySID[sid]; ok {
		delete(s.refresh, token)
	}
	delete(s.bySID, sid)
	delete(s.sessions, sid)
}

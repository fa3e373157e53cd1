package memory

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// WindowStore is the in-process counterpart of the redis rate windows.
type WindowStore struct {
	mu      sync.Mutex
	windows map[string]window
	now     func() time.Time
}

type window struct {
	count     int64
	expiresAt time.Time
}

func NewWindowStore() *WindowStore {
	return &WindowStore{
		windows: make(map[string]window),
		now:     time.Now,
	}
}

func (s *WindowStore) SetNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *WindowStore) IncrementWindow(_ context.Context, key string, length time.Duration) (int64, time.Duration, error) {
	if key == "" || length <= 0 {
		return 0, 0, fmt.Errorf("invalid rate window payload")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[key]
	if !ok || !now.Before(w.expiresAt) {
		w = window{expiresAt: now.Add(length)}
	}
	w.count++
	s.windows[key] = w

	return w.count, w.expiresAt.Sub(now), nil
}

func (s *WindowStore) WindowState(_ context.Context, key string) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[key]
	if !ok || !now.Before(w.expiresAt) {
		return 0, 0, nil
	}
	return w.count, w.expiresAt.Sub(now), nil
}

// SweepExpired drops finished windows.
func (s *WindowStore) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, w := range s.windows {
		if !now.Before(w.expiresAt) {
			delete(s.windows, key)
			removed++
		}
	}
	return removed
}

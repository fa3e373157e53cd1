// Package memory holds in-process stores for single-instance deployments.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
)

// SessionStore keeps browsing sessions in a map of per-seeker slots. Each slot has its own
// mutex, so seekers never contend with each other.
type SessionStore struct {
	slots sync.Map // int64 -> *sessionSlot
}

type sessionSlot struct {
	mu   sync.Mutex
	sess *model.BrowsingSession
	dead bool
}

func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

func (s *SessionStore) Get(_ context.Context, seekerID int64) (model.BrowsingSession, bool, error) {
	slot, ok := s.existing(seekerID)
	if !ok {
		return model.BrowsingSession{}, false, nil
	}
	defer slot.mu.Unlock()

	if slot.sess == nil {
		return model.BrowsingSession{}, false, nil
	}
	return *slot.sess, true, nil
}

func (s *SessionStore) Put(_ context.Context, sess model.BrowsingSession) error {
	slot := s.lock(sess.SeekerID)
	defer slot.mu.Unlock()

	copied := sess
	slot.sess = &copied
	return nil
}

func (s *SessionStore) Delete(_ context.Context, seekerID int64) error {
	slot, ok := s.existing(seekerID)
	if !ok {
		return nil
	}
	defer slot.mu.Unlock()

	s.retire(seekerID, slot)
	return nil
}

// Update applies fn to the stored session under the seeker's lock. fn must not block.
// The change is kept only when fn returns true.
func (s *SessionStore) Update(_ context.Context, seekerID int64, fn func(*model.BrowsingSession) bool) (model.BrowsingSession, bool, error) {
	slot, ok := s.existing(seekerID)
	if !ok {
		return model.BrowsingSession{}, false, nil
	}
	defer slot.mu.Unlock()

	if slot.sess == nil {
		return model.BrowsingSession{}, false, nil
	}
	next := *slot.sess
	if !fn(&next) {
		return *slot.sess, false, nil
	}
	slot.sess = &next
	return next, true, nil
}

func (s *SessionStore) SweepIdle(_ context.Context, cutoff time.Time) (int, error) {
	removed := 0
	s.slots.Range(func(key, value any) bool {
		slot := value.(*sessionSlot)
		slot.mu.Lock()
		if !slot.dead && (slot.sess == nil || slot.sess.UpdatedAt.Before(cutoff)) {
			if slot.sess != nil {
				removed++
			}
			s.retire(key.(int64), slot)
		}
		slot.mu.Unlock()
		return true
	})
	return removed, nil
}

// lock returns the live slot for seekerID, creating it if needed, with its mutex held.
func (s *SessionStore) lock(seekerID int64) *sessionSlot {
	for {
		value, _ := s.slots.LoadOrStore(seekerID, &sessionSlot{})
		slot := value.(*sessionSlot)
		slot.mu.Lock()
		if !slot.dead {
			return slot
		}
		slot.mu.Unlock()
	}
}

// existing returns the live slot for seekerID with its mutex held, without creating one.
func (s *SessionStore) existing(seekerID int64) (*sessionSlot, bool) {
	for {
		value, ok := s.slots.Load(seekerID)
		if !ok {
			return nil, false
		}
		slot := value.(*sessionSlot)
		slot.mu.Lock()
		if !slot.dead {
			return slot, true
		}
		slot.mu.Unlock()
	}
}

// retire must be called with slot.mu held.
func (s *SessionStore) retire(seekerID int64, slot *sessionSlot) {
	slot.sess = nil
	slot.dead = true
	s.slots.CompareAndDelete(seekerID, slot)
}

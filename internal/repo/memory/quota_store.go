package memory

import (
	"context"
	"sync"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
)

// QuotaStore counts positive swipes per (user, day) with one mutex per key.
type QuotaStore struct {
	counters sync.Map // model.QuotaKey -> *quotaCounter
}

type quotaCounter struct {
	mu   sync.Mutex
	used int
	dead bool
}

func NewQuotaStore() *QuotaStore {
	return &QuotaStore{}
}

func (s *QuotaStore) ConsumeWithLimit(_ context.Context, key model.QuotaKey, limit int) (int, bool, error) {
	counter := s.lock(key)
	defer counter.mu.Unlock()

	if counter.used >= limit {
		return counter.used, false, nil
	}
	counter.used++
	return counter.used, true, nil
}

func (s *QuotaStore) Refund(_ context.Context, key model.QuotaKey) error {
	counter := s.lock(key)
	defer counter.mu.Unlock()

	if counter.used > 0 {
		counter.used--
	}
	return nil
}

func (s *QuotaStore) Used(_ context.Context, key model.QuotaKey) (int, error) {
	value, ok := s.counters.Load(key)
	if !ok {
		return 0, nil
	}
	counter := value.(*quotaCounter)
	counter.mu.Lock()
	defer counter.mu.Unlock()
	if counter.dead {
		return 0, nil
	}
	return counter.used, nil
}

func (s *QuotaStore) SweepExcept(_ context.Context, currentDay string) (int, error) {
	removed := 0
	s.counters.Range(func(key, value any) bool {
		quotaKey := key.(model.QuotaKey)
		if quotaKey.Day == currentDay {
			return true
		}
		counter := value.(*quotaCounter)
		counter.mu.Lock()
		if !counter.dead {
			counter.dead = true
			s.counters.CompareAndDelete(quotaKey, counter)
			removed++
		}
		counter.mu.Unlock()
		return true
	})
	return removed, nil
}

func (s *QuotaStore) lock(key model.QuotaKey) *quotaCounter {
	for {
		value, _ := s.counters.LoadOrStore(key, &quotaCounter{})
		counter := value.(*quotaCounter)
		counter.mu.Lock()
		if !counter.dead {
			return counter
		}
		counter.mu.Unlock()
	}
}

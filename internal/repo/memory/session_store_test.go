package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
)

func TestSessionStorePutGetDelete(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	if _, ok, _ := store.Get(ctx, 1); ok {
		t.Fatalf("expected no session")
	}

	sess := model.BrowsingSession{SeekerID: 1, CycleID: "c1", Candidates: make([]model.Candidate, 3)}
	if err := store.Put(ctx, sess); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := store.Get(ctx, 1)
	if err != nil || !ok || got.CycleID != "c1" || len(got.Candidates) != 3 {
		t.Fatalf("unexpected session: %+v ok=%v err=%v", got, ok, err)
	}

	if err := store.Delete(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, 1); ok {
		t.Fatalf("expected session to be deleted")
	}

	if err := store.Put(ctx, sess); err != nil {
		t.Fatalf("put after delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, 1); !ok {
		t.Fatalf("expected session after re-put")
	}
}

func TestSessionStoreUpdateIsCompareAndSet(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()
	if err := store.Put(ctx, model.BrowsingSession{SeekerID: 9, CycleID: "c", Candidates: make([]model.Candidate, 5)}); err != nil {
		t.Fatalf("put: %v", err)
	}

	var (
		wg      sync.WaitGroup
		applied atomic.Int32
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := store.Update(ctx, 9, func(s *model.BrowsingSession) bool {
				if s.Cursor != 0 {
					return false
				}
				s.Cursor++
				return true
			})
			if err == nil && ok {
				applied.Add(1)
			}
		}()
	}
	wg.Wait()

	if applied.Load() != 1 {
		t.Fatalf("expected a single applied update, got %d", applied.Load())
	}
	got, _, _ := store.Get(ctx, 9)
	if got.Cursor != 1 {
		t.Fatalf("unexpected cursor: %d", got.Cursor)
	}
}

func TestSessionStoreUpdateMissingSession(t *testing.T) {
	store := NewSessionStore()
	_, ok, err := store.Update(context.Background(), 77, func(*model.BrowsingSession) bool { return true })
	if err != nil || ok {
		t.Fatalf("expected no-op update, ok=%v err=%v", ok, err)
	}
}

func TestSessionStoreSweepIdle(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	_ = store.Put(ctx, model.BrowsingSession{SeekerID: 1, UpdatedAt: now.Add(-2 * time.Hour)})
	_ = store.Put(ctx, model.BrowsingSession{SeekerID: 2, UpdatedAt: now.Add(-10 * time.Minute)})

	removed, err := store.SweepIdle(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 idle session removed, got %d", removed)
	}
	if _, ok, _ := store.Get(ctx, 1); ok {
		t.Fatalf("idle session must be gone")
	}
	if _, ok, _ := store.Get(ctx, 2); !ok {
		t.Fatalf("fresh session must survive")
	}
}

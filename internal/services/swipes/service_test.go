package swipes

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/apperr"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/enums"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
)

func TestRecordAppendsEverySwipe(t *testing.T) {
	store := &swipeStoreStub{}
	ledger := NewLedger(store)
	fixed := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	ledger.now = func() time.Time { return fixed }

	ctx := context.Background()
	if _, err := ledger.Record(ctx, 1, 2, enums.SwipeActionPass); err != nil {
		t.Fatalf("record pass: %v", err)
	}
	swipe, err := ledger.Record(ctx, 1, 2, enums.SwipeActionLike)
	if err != nil {
		t.Fatalf("record like: %v", err)
	}

	if len(store.rows) != 2 {
		t.Fatalf("expected both swipes to be kept, got %d", len(store.rows))
	}
	if swipe.SwiperID != 1 || swipe.SwipedID != 2 || swipe.Action != enums.SwipeActionLike {
		t.Fatalf("unexpected swipe: %+v", swipe)
	}
	if !swipe.CreatedAt.Equal(fixed) {
		t.Fatalf("unexpected created_at: %s", swipe.CreatedAt)
	}
}

func TestRecordRejectsInvalidInput(t *testing.T) {
	ledger := NewLedger(&swipeStoreStub{})
	ctx := context.Background()

	if _, err := ledger.Record(ctx, 1, 1, enums.SwipeActionLike); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for self swipe, got %v", err)
	}
	if _, err := ledger.Record(ctx, 0, 2, enums.SwipeActionLike); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for zero swiper, got %v", err)
	}
	if _, err := ledger.Record(ctx, 1, 2, enums.SwipeAction("maybe")); !errors.Is(err, ErrUnsupportedAction) {
		t.Fatalf("expected unsupported action, got %v", err)
	}
}

func TestRecordWrapsStoreFailureAsStorageError(t *testing.T) {
	ledger := NewLedger(&swipeStoreStub{err: errors.New("db down")})

	_, err := ledger.Record(context.Background(), 1, 2, enums.SwipeActionLike)
	if _, ok := apperr.IsStorage(err); !ok {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestQueriesReflectRecordedSwipes(t *testing.T) {
	store := &swipeStoreStub{}
	ledger := NewLedger(store)
	ctx := context.Background()

	mustRecord(t, ledger, 10, 1, enums.SwipeActionLike)
	mustRecord(t, ledger, 11, 1, enums.SwipeActionPass)
	mustRecord(t, ledger, 12, 1, enums.SwipeActionSuperLike)
	mustRecord(t, ledger, 1, 10, enums.SwipeActionPass)

	swiped, err := ledger.HasSwiped(ctx, 1, 10)
	if err != nil || !swiped {
		t.Fatalf("expected 1 to have swiped 10: %v %v", swiped, err)
	}
	positive, err := ledger.HasPositiveSwipe(ctx, 1, 10)
	if err != nil || positive {
		t.Fatalf("pass must not count as positive: %v %v", positive, err)
	}

	swipers, err := ledger.PositiveSwipers(ctx, 1, 0)
	if err != nil {
		t.Fatalf("positive swipers: %v", err)
	}
	if len(swipers) != 2 || swipers[0] != 12 || swipers[1] != 10 {
		t.Fatalf("unexpected positive swipers: %v", swipers)
	}

	targets, err := ledger.SwipedTargets(ctx, 1)
	if err != nil {
		t.Fatalf("swiped targets: %v", err)
	}
	if len(targets) != 1 || targets[0] != 10 {
		t.Fatalf("unexpected targets: %v", targets)
	}
}

func mustRecord(t *testing.T, ledger *Ledger, swiperID, swipedID int64, action enums.SwipeAction) {
	t.Helper()
	if _, err := ledger.Record(context.Background(), swiperID, swipedID, action); err != nil {
		t.Fatalf("record %d->%d: %v", swiperID, swipedID, err)
	}
}

type swipeStoreStub struct {
	mu   sync.Mutex
	rows []model.Swipe
	err  error
}

func (s *swipeStoreStub) Create(_ context.Context, swiperID, swipedID int64, action enums.SwipeAction, at time.Time) (model.Swipe, error) {
	if s.err != nil {
		return model.Swipe{}, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row := model.Swipe{ID: int64(len(s.rows) + 1), SwiperID: swiperID, SwipedID: swipedID, Action: action, CreatedAt: at}
	s.rows = append(s.rows, row)
	return row, nil
}

func (s *swipeStoreStub) Exists(_ context.Context, swiperID, swipedID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.SwiperID == swiperID && row.SwipedID == swipedID {
			return true, nil
		}
	}
	return false, s.err
}

func (s *swipeStoreStub) ExistsPositive(_ context.Context, swiperID, swipedID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.SwiperID == swiperID && row.SwipedID == swipedID && row.Action.IsPositive() {
			return true, nil
		}
	}
	return false, s.err
}

func (s *swipeStoreStub) ListPositiveSwipers(_ context.Context, targetID int64, limit int) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0)
	for i := len(s.rows) - 1; i >= 0 && len(out) < limit; i-- {
		row := s.rows[i]
		if row.SwipedID == targetID && row.Action.IsPositive() {
			out = append(out, row.SwiperID)
		}
	}
	return out, s.err
}

func (s *swipeStoreStub) ListSwipedTargets(_ context.Context, swiperID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0)
	for _, row := range s.rows {
		if row.SwiperID == swiperID {
			out = append(out, row.SwipedID)
		}
	}
	return out, s.err
}

package matches

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/apperr"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/enums"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
)

func TestOnSwipeRecordedFormsMatchForReciprocalLikes(t *testing.T) {
	swipes := newReciprocityStub()
	store := newMatchStoreStub()
	svc := NewService(Dependencies{MatchStore: store, Swipes: swipes})

	swipes.add(20, 10, enums.SwipeActionLike)
	first := swipe(10, 20, enums.SwipeActionSuperLike)
	swipes.add(first.SwiperID, first.SwipedID, first.Action)

	got, err := svc.OnSwipeRecorded(context.Background(), first)
	if err != nil {
		t.Fatalf("on swipe recorded: %v", err)
	}
	if !got.Matched || !got.Created {
		t.Fatalf("expected a new match, got %+v", got)
	}
	if got.Match.UserLowID != 10 || got.Match.UserHighID != 20 {
		t.Fatalf("expected canonical pair (10,20), got (%d,%d)", got.Match.UserLowID, got.Match.UserHighID)
	}
}

func TestOnSwipeRecordedWithoutReciprocalSwipeReturnsNoMatch(t *testing.T) {
	svc := NewService(Dependencies{MatchStore: newMatchStoreStub(), Swipes: newReciprocityStub()})

	got, err := svc.OnSwipeRecorded(context.Background(), swipe(1, 2, enums.SwipeActionLike))
	if err != nil {
		t.Fatalf("on swipe recorded: %v", err)
	}
	if got.Matched {
		t.Fatalf("unexpected match: %+v", got)
	}
}

func TestPassNeverMatches(t *testing.T) {
	tests := []struct {
		name   string
		first  model.Swipe
		second model.Swipe
	}{
		{
			name:   "like then pass",
			first:  swipe(1, 2, enums.SwipeActionLike),
			second: swipe(2, 1, enums.SwipeActionPass),
		},
		{
			name:   "pass then like",
			first:  swipe(1, 2, enums.SwipeActionPass),
			second: swipe(2, 1, enums.SwipeActionLike),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			swipes := newReciprocityStub()
			store := newMatchStoreStub()
			svc := NewService(Dependencies{MatchStore: store, Swipes: swipes})

			for _, sw := range []model.Swipe{tc.first, tc.second} {
				swipes.add(sw.SwiperID, sw.SwipedID, sw.Action)
				got, err := svc.OnSwipeRecorded(context.Background(), sw)
				if err != nil {
					t.Fatalf("on swipe recorded: %v", err)
				}
				if got.Matched {
					t.Fatalf("pass must never produce a match: %+v", got)
				}
			}
			if store.count() != 0 {
				t.Fatalf("expected no stored matches, got %d", store.count())
			}
		})
	}
}

func TestOnSwipeRecordedIsIdempotent(t *testing.T) {
	swipes := newReciprocityStub()
	store := newMatchStoreStub()
	svc := NewService(Dependencies{MatchStore: store, Swipes: swipes})
	ctx := context.Background()

	swipes.add(1, 2, enums.SwipeActionLike)
	swipes.add(2, 1, enums.SwipeActionLike)

	first, err := svc.OnSwipeRecorded(ctx, swipe(2, 1, enums.SwipeActionLike))
	if err != nil {
		t.Fatalf("first formation: %v", err)
	}
	again, err := svc.OnSwipeRecorded(ctx, swipe(1, 2, enums.SwipeActionLike))
	if err != nil {
		t.Fatalf("second formation: %v", err)
	}

	if !first.Created || again.Created {
		t.Fatalf("expected only the first call to create: first=%+v again=%+v", first, again)
	}
	if first.Match.ID != again.Match.ID {
		t.Fatalf("expected the existing match to be returned: %d vs %d", first.Match.ID, again.Match.ID)
	}
	if store.count() != 1 {
		t.Fatalf("expected exactly one match, got %d", store.count())
	}
}

func TestOnSwipeRecordedConcurrentReciprocalSwipesCreateOneMatch(t *testing.T) {
	swipes := newReciprocityStub()
	store := newMatchStoreStub()
	svc := NewService(Dependencies{MatchStore: store, Swipes: swipes})

	swipes.add(7, 8, enums.SwipeActionLike)
	swipes.add(8, 7, enums.SwipeActionSuperLike)

	const workers = 32
	var (
		wg      sync.WaitGroup
		created atomic.Int32
		ids     sync.Map
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			sw := swipe(7, 8, enums.SwipeActionLike)
			if i%2 == 1 {
				sw = swipe(8, 7, enums.SwipeActionSuperLike)
			}
			got, err := svc.OnSwipeRecorded(context.Background(), sw)
			if err != nil {
				t.Errorf("on swipe recorded: %v", err)
				return
			}
			if !got.Matched {
				t.Errorf("expected matched result")
				return
			}
			if got.Created {
				created.Add(1)
			}
			ids.Store(got.Match.ID, struct{}{})
		}(i)
	}
	close(start)
	wg.Wait()

	if created.Load() != 1 {
		t.Fatalf("expected exactly one creation, got %d", created.Load())
	}
	if store.count() != 1 {
		t.Fatalf("expected exactly one active match, got %d", store.count())
	}
	distinct := 0
	ids.Range(func(_, _ any) bool { distinct++; return true })
	if distinct != 1 {
		t.Fatalf("expected every caller to see the same match id, got %d ids", distinct)
	}
}

func TestOnSwipeRecordedWrapsStoreErrors(t *testing.T) {
	swipes := newReciprocityStub()
	swipes.add(2, 1, enums.SwipeActionLike)
	store := newMatchStoreStub()
	store.err = errors.New("connection refused")
	svc := NewService(Dependencies{MatchStore: store, Swipes: swipes})

	_, err := svc.OnSwipeRecorded(context.Background(), swipe(1, 2, enums.SwipeActionLike))
	if _, ok := apperr.IsStorage(err); !ok {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestUnmatchDeactivatesAndAllowsListing(t *testing.T) {
	swipes := newReciprocityStub()
	store := newMatchStoreStub()
	svc := NewService(Dependencies{MatchStore: store, Swipes: swipes})
	ctx := context.Background()

	swipes.add(3, 4, enums.SwipeActionLike)
	swipes.add(4, 3, enums.SwipeActionLike)
	if _, err := svc.OnSwipeRecorded(ctx, swipe(4, 3, enums.SwipeActionLike)); err != nil {
		t.Fatalf("form match: %v", err)
	}

	items, err := svc.List(ctx, 3, 0)
	if err != nil || len(items) != 1 || items[0].Other(3) != 4 {
		t.Fatalf("unexpected matches list: %+v err=%v", items, err)
	}

	ok, err := svc.Unmatch(ctx, 4, 3)
	if err != nil || !ok {
		t.Fatalf("unmatch: ok=%v err=%v", ok, err)
	}
	items, err = svc.List(ctx, 3, 0)
	if err != nil || len(items) != 0 {
		t.Fatalf("expected no active matches after unmatch: %+v err=%v", items, err)
	}
}

func TestUnmatchAndBlockValidateInput(t *testing.T) {
	svc := NewService(Dependencies{MatchStore: newMatchStoreStub()})

	if _, err := svc.Unmatch(context.Background(), 5, 5); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := svc.Block(context.Background(), 0, 5); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBlockDelegatesToStore(t *testing.T) {
	blocks := &blockStoreStub{}
	svc := NewService(Dependencies{MatchStore: newMatchStoreStub(), BlockStore: blocks})

	if err := svc.Block(context.Background(), 5, 6); err != nil {
		t.Fatalf("block: %v", err)
	}
	if blocks.actor != 5 || blocks.target != 6 {
		t.Fatalf("unexpected block call: %+v", blocks)
	}
}

func TestOnSwipeRecordedKeepsSingleStorageLayer(t *testing.T) {
	cause := errors.New("connection reset")
	tests := []struct {
		name   string
		err    error
		wantOp string
	}{
		{name: "already wrapped by the ledger", err: apperr.Storage("check positive swipe", cause), wantOp: "check positive swipe"},
		{name: "raw store error", err: cause, wantOp: "check reciprocal swipe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(Dependencies{MatchStore: newMatchStoreStub(), Swipes: failingReciprocity{err: tt.err}})

			_, err := svc.OnSwipeRecorded(context.Background(), swipe(1, 2, enums.SwipeActionLike))
			storageErr, ok := apperr.IsStorage(err)
			if !ok {
				t.Fatalf("expected storage error, got %v", err)
			}
			if storageErr.Op != tt.wantOp {
				t.Fatalf("unexpected op: got %q want %q", storageErr.Op, tt.wantOp)
			}
			if _, nested := apperr.IsStorage(storageErr.Err); nested {
				t.Fatalf("storage error wrapped twice: %v", err)
			}
			if !errors.Is(err, cause) {
				t.Fatalf("cause must stay reachable")
			}
		})
	}
}

type failingReciprocity struct {
	err error
}

func (f failingReciprocity) HasPositiveSwipe(context.Context, int64, int64) (bool, error) {
	return false, f.err
}

func swipe(from, to int64, action enums.SwipeAction) model.Swipe {
	return model.Swipe{SwiperID: from, SwipedID: to, Action: action, CreatedAt: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)}
}

type pairKey struct{ from, to int64 }

type reciprocityStub struct {
	mu       sync.Mutex
	positive map[pairKey]bool
}

func newReciprocityStub() *reciprocityStub {
	return &reciprocityStub{positive: make(map[pairKey]bool)}
}

func (s *reciprocityStub) add(from, to int64, action enums.SwipeAction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if action.IsPositive() {
		s.positive[pairKey{from, to}] = true
	}
}

func (s *reciprocityStub) HasPositiveSwipe(_ context.Context, swiperID, swipedID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positive[pairKey{swiperID, swipedID}], nil
}

// matchStoreStub emulates the partial unique index on active canonical pairs.
type matchStoreStub struct {
	mu     sync.Mutex
	nextID int64
	rows   []model.Match
	err    error
}

func newMatchStoreStub() *matchStoreStub {
	return &matchStoreStub{}
}

func (s *matchStoreStub) CreateOrGetActive(_ context.Context, low, high int64, at time.Time) (model.Match, bool, error) {
	if s.err != nil {
		return model.Match{}, false, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.Active && row.UserLowID == low && row.UserHighID == high {
			return row, false, nil
		}
	}
	s.nextID++
	row := model.Match{ID: s.nextID, UserLowID: low, UserHighID: high, FormedAt: at, Active: true}
	s.rows = append(s.rows, row)
	return row, true, nil
}

func (s *matchStoreStub) ListActiveForUser(_ context.Context, userID int64, limit int) ([]model.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Match, 0)
	for _, row := range s.rows {
		if row.Active && row.Includes(userID) && len(out) < limit {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *matchStoreStub) Deactivate(_ context.Context, low, high int64, _ time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].Active && s.rows[i].UserLowID == low && s.rows[i].UserHighID == high {
			s.rows[i].Active = false
			return true, nil
		}
	}
	return false, nil
}

func (s *matchStoreStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, row := range s.rows {
		if row.Active {
			n++
		}
	}
	return n
}

type blockStoreStub struct {
	actor, target int64
}

func (s *blockStoreStub) BlockAndDeactivate(_ context.Context, actorUserID, targetUserID int64, _ time.Time) error {
	s.actor, s.target = actorUserID, targetUserID
	return nil
}

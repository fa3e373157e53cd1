package likes

import (
	"context"
	"errors"
	"testing"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/apperr"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
)

func TestIncomingBlurredForFreeUsers(t *testing.T) {
	svc := NewService(
		swipeSourceStub{swipers: []int64{4, 3, 2}},
		profileSourceStub{},
		premiumStub(false),
	)

	got, err := svc.Incoming(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("incoming: %v", err)
	}
	if !got.Blurred || got.TotalCount != 3 || len(got.Profiles) != 0 {
		t.Fatalf("unexpected result: %+v", got)
	}
	if len(got.Preview) != 3 {
		t.Fatalf("unexpected preview: %v", got.Preview)
	}
}

func TestIncomingSkipsAnsweredAndDuplicateSwipers(t *testing.T) {
	svc := NewService(
		swipeSourceStub{swipers: []int64{5, 4, 5, 3, 2}, answered: []int64{4}},
		profileSourceStub{missing: map[int64]bool{2: true}},
		premiumStub(true),
	)

	got, err := svc.Incoming(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("incoming: %v", err)
	}
	if got.Blurred || got.TotalCount != 3 {
		t.Fatalf("unexpected result: %+v", got)
	}
	if len(got.Profiles) != 2 || got.Profiles[0].UserID != 5 || got.Profiles[1].UserID != 3 {
		t.Fatalf("unexpected profiles: %+v", got.Profiles)
	}
}

func TestIncomingValidatesInput(t *testing.T) {
	svc := NewService(swipeSourceStub{}, profileSourceStub{}, premiumStub(false))
	if _, err := svc.Incoming(context.Background(), 0, 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := NewService(nil, nil, nil).Incoming(context.Background(), 1, 0); !errors.Is(err, ErrDependenciesNil) {
		t.Fatalf("expected dependencies error, got %v", err)
	}
}

type swipeSourceStub struct {
	swipers  []int64
	answered []int64
}

func (s swipeSourceStub) PositiveSwipers(context.Context, int64, int) ([]int64, error) {
	return s.swipers, nil
}

func (s swipeSourceStub) SwipedTargets(context.Context, int64) ([]int64, error) {
	return s.answered, nil
}

type profileSourceStub struct {
	missing map[int64]bool
}

func (s profileSourceStub) GetProfile(_ context.Context, userID int64) (model.Profile, error) {
	if s.missing[userID] {
		return model.Profile{}, apperr.ErrProfileNotFound
	}
	return model.Profile{UserID: userID, DisplayName: "user"}, nil
}

type premiumStub bool

func (p premiumStub) IsPremium(context.Context, int64) (bool, error) {
	return bool(p), nil
}

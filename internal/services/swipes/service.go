// Package swipes is the append-only ledger of swipe decisions.
package swipes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/apperr"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/enums"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
)

const defaultPositiveSwipersLimit = 100

var (
	ErrValidation        = errors.New("validation error")
	ErrUnsupportedAction = errors.New("unsupported action")
)

type Store interface {
	Create(ctx context.Context, swiperID, swipedID int64, action enums.SwipeAction, at time.Time) (model.Swipe, error)
	Exists(ctx context.Context, swiperID, swipedID int64) (bool, error)
	ExistsPositive(ctx context.Context, swiperID, swipedID int64) (bool, error)
	ListPositiveSwipers(ctx context.Context, targetID int64, limit int) ([]int64, error)
	ListSwipedTargets(ctx context.Context, swiperID int64) ([]int64, error)
}

type Ledger struct {
	store Store
	now   func() time.Time
}

func NewLedger(store Store) *Ledger {
	return &Ledger{
		store: store,
		now:   time.Now,
	}
}

// Record appends a swipe. Storage failures are returned as *apperr.StorageError and are not retried.
func (l *Ledger) Record(ctx context.Context, swiperID, swipedID int64, action enums.SwipeAction) (model.Swipe, error) {
	if swiperID <= 0 || swipedID <= 0 || swiperID == swipedID {
		return model.Swipe{}, ErrValidation
	}
	if !action.Valid() {
		return model.Swipe{}, fmt.Errorf("%w: %q", ErrUnsupportedAction, action)
	}
	if l.store == nil {
		return model.Swipe{}, fmt.Errorf("swipe store is not configured")
	}

	swipe, err := l.store.Create(ctx, swiperID, swipedID, action, l.now().UTC())
	if err != nil {
		return model.Swipe{}, apperr.Storage("record swipe", err)
	}
	return swipe, nil
}

func (l *Ledger) HasSwiped(ctx context.Context, swiperID, swipedID int64) (bool, error) {
	if swiperID <= 0 || swipedID <= 0 {
		return false, ErrValidation
	}
	if l.store == nil {
		return false, fmt.Errorf("swipe store is not configured")
	}

	ok, err := l.store.Exists(ctx, swiperID, swipedID)
	if err != nil {
		return false, apperr.Storage("check swipe", err)
	}
	return ok, nil
}

func (l *Ledger) HasPositiveSwipe(ctx context.Context, swiperID, swipedID int64) (bool, error) {
	if swiperID <= 0 || swipedID <= 0 {
		return false, ErrValidation
	}
	if l.store == nil {
		return false, fmt.Errorf("swipe store is not configured")
	}

	ok, err := l.store.ExistsPositive(ctx, swiperID, swipedID)
	if err != nil {
		return false, apperr.Storage("check positive swipe", err)
	}
	return ok, nil
}

// PositiveSwipers lists users who liked or super-liked targetID, newest first.
func (l *Ledger) PositiveSwipers(ctx context.Context, targetID int64, limit int) ([]int64, error) {
	if targetID <= 0 {
		return nil, ErrValidation
	}
	if l.store == nil {
		return nil, fmt.Errorf("swipe store is not configured")
	}
	if limit <= 0 {
		limit = defaultPositiveSwipersLimit
	}

	ids, err := l.store.ListPositiveSwipers(ctx, targetID, limit)
	if err != nil {
		return nil, apperr.Storage("list positive swipers", err)
	}
	return ids, nil
}

func (l *Ledger) SwipedTargets(ctx context.Context, swiperID int64) ([]int64, error) {
	if swiperID <= 0 {
		return nil, ErrValidation
	}
	if l.store == nil {
		return nil, fmt.Errorf("swipe store is not configured")
	}

	ids, err := l.store.ListSwipedTargets(ctx, swiperID)
	if err != nil {
		return nil, apperr.Storage("list swiped targets", err)
	}
	return ids, nil
}

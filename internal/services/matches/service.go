package matches

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/apperr"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
)

const defaultListLimit = 100

var ErrValidation = errors.New("validation error")

type MatchStore interface {
	// CreateOrGetActive inserts the active match for the canonical pair or returns the one
	// that already exists. created is false when the row was already there.
	CreateOrGetActive(ctx context.Context, userLowID, userHighID int64, at time.Time) (match model.Match, created bool, err error)
	ListActiveForUser(ctx context.Context, userID int64, limit int) ([]model.Match, error)
	Deactivate(ctx context.Context, userLowID, userHighID int64, at time.Time) (bool, error)
}

type ReciprocityChecker interface {
	HasPositiveSwipe(ctx context.Context, swiperID, swipedID int64) (bool, error)
}

type BlockStore interface {
	BlockAndDeactivate(ctx context.Context, actorUserID, targetUserID int64, at time.Time) error
}

type Dependencies struct {
	MatchStore MatchStore
	Swipes     ReciprocityChecker
	BlockStore BlockStore
	Logger     *zap.Logger
}

type Service struct {
	matchStore MatchStore
	swipes     ReciprocityChecker
	blockStore BlockStore
	logger     *zap.Logger
	now        func() time.Time
}

// Formation is the result of a reciprocity check after a swipe.
type Formation struct {
	Matched bool
	Created bool
	Match   model.Match
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		matchStore: deps.MatchStore,
		swipes:     deps.Swipes,
		blockStore: deps.BlockStore,
		logger:     logger,
		now:        time.Now,
	}
}

// OnSwipeRecorded forms a match when swipe is positive and the counterpart already swiped
// positively back. It is safe to call more than once for the same swipe.
func (s *Service) OnSwipeRecorded(ctx context.Context, swipe model.Swipe) (Formation, error) {
	if swipe.SwiperID <= 0 || swipe.SwipedID <= 0 || swipe.SwiperID == swipe.SwipedID {
		return Formation{}, ErrValidation
	}
	if !swipe.Action.IsPositive() {
		return Formation{}, nil
	}
	if s.matchStore == nil || s.swipes == nil {
		return Formation{}, fmt.Errorf("match formation dependencies are not configured")
	}

	reciprocal, err := s.swipes.HasPositiveSwipe(ctx, swipe.SwipedID, swipe.SwiperID)
	if err != nil {
		return Formation{}, apperr.Storage("check reciprocal swipe", err)
	}
	if !reciprocal {
		return Formation{}, nil
	}

	at := swipe.CreatedAt
	if at.IsZero() {
		at = s.now()
	}
	low, high := model.CanonicalPair(swipe.SwiperID, swipe.SwipedID)
	match, created, err := s.matchStore.CreateOrGetActive(ctx, low, high, at.UTC())
	if err != nil {
		return Formation{}, apperr.Storage("create match", err)
	}

	if created {
		s.logger.Info("match formed",
			zap.Int64("match_id", match.ID),
			zap.Int64("user_low_id", low),
			zap.Int64("user_high_id", high),
		)
	}

	return Formation{Matched: true, Created: created, Match: match}, nil
}

func (s *Service) List(ctx context.Context, userID int64, limit int) ([]model.Match, error) {
	if userID <= 0 {
		return nil, ErrValidation
	}
	if s.matchStore == nil {
		return nil, fmt.Errorf("match store is nil")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	items, err := s.matchStore.ListActiveForUser(ctx, userID, limit)
	if err != nil {
		return nil, apperr.Storage("list matches", err)
	}
	return items, nil
}

func (s *Service) Unmatch(ctx context.Context, userID, targetID int64) (bool, error) {
	if userID <= 0 || targetID <= 0 || userID == targetID {
		return false, ErrValidation
	}
	if s.matchStore == nil {
		return false, fmt.Errorf("unmatch dependencies are not configured")
	}

	low, high := model.CanonicalPair(userID, targetID)
	deactivated, err := s.matchStore.Deactivate(ctx, low, high, s.now().UTC())
	if err != nil {
		return false, apperr.Storage("deactivate match", err)
	}
	return deactivated, nil
}

func (s *Service) Block(ctx context.Context, userID, targetID int64) error {
	if userID <= 0 || targetID <= 0 || userID == targetID {
		return ErrValidation
	}
	if s.blockStore == nil {
		return fmt.Errorf("block dependencies are not configured")
	}

	if err := s.blockStore.BlockAndDeactivate(ctx, userID, targetID, s.now().UTC()); err != nil {
		return apperr.Storage("block user", err)
	}
	return nil
}

// Package likes answers "who likes me" from the swipe ledger.
package likes

import (
	"context"
	"errors"
	"fmt"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/apperr"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
)

const (
	defaultIncomingLimit = 100
	previewSize          = 3
)

var (
	ErrValidation      = errors.New("validation error")
	ErrDependenciesNil = errors.New("likes dependencies are not configured")
)

type SwipeSource interface {
	PositiveSwipers(ctx context.Context, targetID int64, limit int) ([]int64, error)
	SwipedTargets(ctx context.Context, swiperID int64) ([]int64, error)
}

type ProfileSource interface {
	GetProfile(ctx context.Context, userID int64) (model.Profile, error)
}

type PremiumStatus interface {
	IsPremium(ctx context.Context, userID int64) (bool, error)
}

type Service struct {
	swipes   SwipeSource
	profiles ProfileSource
	premium  PremiumStatus
}

// IncomingResult lists pending admirers. Free users only get the count and a blurred preview.
type IncomingResult struct {
	Blurred    bool
	TotalCount int
	Preview    []int64
	Profiles   []model.Profile
}

func NewService(swipes SwipeSource, profiles ProfileSource, premium PremiumStatus) *Service {
	return &Service{
		swipes:   swipes,
		profiles: profiles,
		premium:  premium,
	}
}

// Incoming returns users who swiped userID positively and whom userID has not answered yet.
func (s *Service) Incoming(ctx context.Context, userID int64, limit int) (IncomingResult, error) {
	if userID <= 0 {
		return IncomingResult{}, ErrValidation
	}
	if s.swipes == nil || s.profiles == nil || s.premium == nil {
		return IncomingResult{}, ErrDependenciesNil
	}
	if limit <= 0 {
		limit = defaultIncomingLimit
	}

	premium, err := s.premium.IsPremium(ctx, userID)
	if err != nil {
		return IncomingResult{}, apperr.Storage("check premium status", err)
	}

	swipers, err := s.swipes.PositiveSwipers(ctx, userID, limit)
	if err != nil {
		return IncomingResult{}, err
	}
	answered, err := s.swipes.SwipedTargets(ctx, userID)
	if err != nil {
		return IncomingResult{}, err
	}
	skip := make(map[int64]struct{}, len(answered))
	for _, id := range answered {
		skip[id] = struct{}{}
	}

	pending := make([]int64, 0, len(swipers))
	for _, id := range swipers {
		if _, ok := skip[id]; ok {
			continue
		}
		skip[id] = struct{}{}
		pending = append(pending, id)
	}

	result := IncomingResult{
		Blurred:    !premium,
		TotalCount: len(pending),
		Preview:    pending[:min(previewSize, len(pending))],
	}
	if !premium {
		return result, nil
	}

	result.Profiles = make([]model.Profile, 0, len(pending))
	for _, id := range pending {
		profile, err := s.profiles.GetProfile(ctx, id)
		if err != nil {
			if errors.Is(err, apperr.ErrProfileNotFound) {
				continue
			}
			return IncomingResult{}, apperr.Storage(fmt.Sprintf("load profile %d", id), err)
		}
		result.Profiles = append(result.Profiles, profile)
	}

	return result, nil
}

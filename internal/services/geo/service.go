// Package geo stores the coordinates a user shares with the bot.
package geo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/apperr"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/rules"
)

var ErrValidation = errors.New("validation error")

type ProfileLocationSaver interface {
	SaveLocation(ctx context.Context, userID int64, lat, lon float64, at time.Time) error
}

type Service struct {
	saver ProfileLocationSaver
	now   func() time.Time
}

func NewService(saver ProfileLocationSaver) *Service {
	return &Service{
		saver: saver,
		now:   time.Now,
	}
}

func (s *Service) UpdateProfileLocation(ctx context.Context, userID int64, lat, lon float64) error {
	if userID <= 0 {
		return fmt.Errorf("invalid user id: %w", ErrValidation)
	}
	if err := rules.ValidateCoordinates(lat, lon); err != nil {
		return fmt.Errorf("%v: %w", err, ErrValidation)
	}
	if s.saver == nil {
		return fmt.Errorf("location saver is not configured")
	}

	if err := s.saver.SaveLocation(ctx, userID, lat, lon, s.now().UTC()); err != nil {
		return apperr.Storage("save location", err)
	}
	return nil
}

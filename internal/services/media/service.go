// Package media resolves profile photos into something a client can display.
package media

import (
	"context"
	"errors"
	"time"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
)

const defaultURLTTL = 10 * time.Minute

var ErrValidation = errors.New("validation error")

type Signer interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// PhotoRef points at a displayable photo. Telegram file ids are reused as is;
// objects kept in S3 are handed out as presigned URLs.
type PhotoRef struct {
	FileID string `json:"file_id,omitempty"`
	URL    string `json:"url,omitempty"`
}

func (r PhotoRef) Empty() bool {
	return r.FileID == "" && r.URL == ""
}

type Service struct {
	signer Signer
	ttl    time.Duration
}

func NewService(signer Signer, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = defaultURLTTL
	}
	return &Service{signer: signer, ttl: ttl}
}

func (s *Service) Resolve(ctx context.Context, photo model.Photo) (PhotoRef, error) {
	if photo.FileID != "" {
		return PhotoRef{FileID: photo.FileID}, nil
	}
	if photo.ObjectKey == "" || s.signer == nil {
		return PhotoRef{}, nil
	}

	url, err := s.signer.PresignGet(ctx, photo.ObjectKey, s.ttl)
	if err != nil {
		return PhotoRef{}, err
	}
	return PhotoRef{URL: url}, nil
}

// Primary resolves the profile's primary photo. A profile without photos yields an empty ref.
func (s *Service) Primary(ctx context.Context, profile model.Profile) (PhotoRef, error) {
	photo, ok := profile.PrimaryPhoto()
	if !ok {
		return PhotoRef{}, nil
	}
	return s.Resolve(ctx, photo)
}

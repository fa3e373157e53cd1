package media

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
)

type fakeSigner struct {
	calls   int
	lastTTL time.Duration
	err     error
}

func (f *fakeSigner) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	f.calls++
	f.lastTTL = ttl
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.local/" + key, nil
}

func TestResolvePrefersTelegramFileID(t *testing.T) {
	signer := &fakeSigner{}
	svc := NewService(signer, 0)

	ref, err := svc.Resolve(context.Background(), model.Photo{FileID: "AgAD-1", ObjectKey: "photos/1.jpg"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ref.FileID != "AgAD-1" || ref.URL != "" {
		t.Fatalf("unexpected ref: %+v", ref)
	}
	if signer.calls != 0 {
		t.Fatalf("signer should not be called for telegram photos")
	}
}

func TestResolvePresignsObjectKey(t *testing.T) {
	signer := &fakeSigner{}
	svc := NewService(signer, 5*time.Minute)

	ref, err := svc.Resolve(context.Background(), model.Photo{ObjectKey: "photos/2.jpg"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ref.URL != "https://cdn.local/photos/2.jpg" {
		t.Fatalf("unexpected url: %q", ref.URL)
	}
	if signer.lastTTL != 5*time.Minute {
		t.Fatalf("unexpected ttl: %s", signer.lastTTL)
	}
}

func TestPrimaryPicksFlaggedPhoto(t *testing.T) {
	svc := NewService(&fakeSigner{}, 0)
	profile := model.Profile{Photos: []model.Photo{
		{FileID: "first"},
		{FileID: "primary", IsPrimary: true},
	}}

	ref, err := svc.Primary(context.Background(), profile)
	if err != nil {
		t.Fatalf("primary: %v", err)
	}
	if ref.FileID != "primary" {
		t.Fatalf("unexpected primary photo: %+v", ref)
	}

	empty, err := svc.Primary(context.Background(), model.Profile{})
	if err != nil || !empty.Empty() {
		t.Fatalf("expected empty ref, got %+v err=%v", empty, err)
	}
}

func TestResolvePropagatesSignerError(t *testing.T) {
	svc := NewService(&fakeSigner{err: errors.New("minio down")}, 0)
	if _, err := svc.Resolve(context.Background(), model.Photo{ObjectKey: "k"}); err == nil {
		t.Fatalf("expected signer error")
	}
}

package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	authsvc "github.com/divcode-web/Trueconnect-bot/internal/services/auth"
)

func TestAuthSessionRepoCreateRotateDelete(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	repo := NewAuthSessionRepo(client)
	ctx := context.Background()
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

	session := authsvc.SessionRecord{SID: "sid-1", UserID: 7, TelegramID: 700, ExpiresAt: expires}
	if err := repo.Create(ctx, session, "refresh-a"); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetSession(ctx, "sid-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.UserID != 7 || got.TelegramID != 700 || !got.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected session: %+v", got)
	}

	byRefresh, err := repo.GetByRefreshToken(ctx, "refresh-a")
	if err != nil || byRefresh.SID != "sid-1" {
		t.Fatalf("get by refresh: %+v err=%v", byRefresh, err)
	}

	if err := repo.RotateRefresh(ctx, "sid-1", "refresh-a", "refresh-b", expires.Add(time.Hour)); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if _, err := repo.GetByRefreshToken(ctx, "refresh-a"); !errors.Is(err, authsvc.ErrRefreshNotFound) {
		t.Fatalf("old refresh token must be gone, got %v", err)
	}
	if err := repo.RotateRefresh(ctx, "sid-1", "refresh-a", "refresh-c", expires); !errors.Is(err, authsvc.ErrRefreshNotFound) {
		t.Fatalf("reusing a rotated token must fail, got %v", err)
	}

	if err := repo.DeleteSession(ctx, "sid-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetSession(ctx, "sid-1"); !errors.Is(err, authsvc.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
	if _, err := repo.GetByRefreshToken(ctx, "refresh-b"); !errors.Is(err, authsvc.ErrRefreshNotFound) {
		t.Fatalf("refresh token must be removed with its session, got %v", err)
	}
}

func TestAuthSessionRepoDeleteAllForUser(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	repo := NewAuthSessionRepo(client)
	ctx := context.Background()
	expires := time.Now().Add(time.Hour)

	for i, sid := range []string{"sid-a", "sid-b"} {
		token := "refresh-" + string(rune('a'+i))
		if err := repo.Create(ctx, authsvc.SessionRecord{SID: sid, UserID: 9, ExpiresAt: expires}, token); err != nil {
			t.Fatalf("create %s: %v", sid, err)
		}
	}
	if err := repo.Create(ctx, authsvc.SessionRecord{SID: "sid-other", UserID: 10, ExpiresAt: expires}, "refresh-z"); err != nil {
		t.Fatalf("create other: %v", err)
	}

	if err := repo.DeleteAllForUser(ctx, 9); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	for _, sid := range []string{"sid-a", "sid-b"} {
		if _, err := repo.GetSession(ctx, sid); !errors.Is(err, authsvc.ErrSessionNotFound) {
			t.Fatalf("%s must be deleted, got %v", sid, err)
		}
	}
	if _, err := repo.GetSession(ctx, "sid-other"); err != nil {
		t.Fatalf("other user's session must survive: %v", err)
	}
}

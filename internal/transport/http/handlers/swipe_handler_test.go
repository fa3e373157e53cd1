package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/apperr"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/enums"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
	redrepo "github.com/divcode-web/Trueconnect-bot/internal/repo/redis"
	authsvc "github.com/divcode-web/Trueconnect-bot/internal/services/auth"
	browsingsvc "github.com/divcode-web/Trueconnect-bot/internal/services/browsing"
	quotasvc "github.com/divcode-web/Trueconnect-bot/internal/services/quota"
	ratesvc "github.com/divcode-web/Trueconnect-bot/internal/services/rate"
)

func TestSwipeHandlerReturnsTooFastOnBurst(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = redisClient.Close() }()

	limiter := ratesvc.NewLimiter(redrepo.NewRateRepo(redisClient), ratesvc.Config{SwipesPer10Sec: 2})
	browser := &browserStub{}
	h := NewSwipeHandler(browser, limiter, nil, nil, nil)

	for i := 0; i < 2; i++ {
		if code := performSwipeRequest(t, h, 1000+int64(i), "like").Code; code != http.StatusOK {
			t.Fatalf("unexpected status on swipe %d: %d", i, code)
		}
	}

	resp := performSwipeRequest(t, h, 1002, "like")
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected status on third swipe: got %d want %d", resp.Code, http.StatusTooManyRequests)
	}
	if resp.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}

	var payload struct {
		Code          string `json:"code"`
		RetryAfterSec int64  `json:"retry_after_sec"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Code != "TOO_FAST" {
		t.Fatalf("unexpected error code: got %q want %q", payload.Code, "TOO_FAST")
	}
	if payload.RetryAfterSec <= 0 {
		t.Fatalf("expected positive retry_after_sec, got %d", payload.RetryAfterSec)
	}
	if browser.decides != 2 {
		t.Fatalf("rate limited swipe must not reach the browser, decides=%d", browser.decides)
	}
}

func TestSwipeHandlerReportsQuotaExceeded(t *testing.T) {
	browser := &browserStub{outcome: browsingsvc.Outcome{
		QuotaExceeded: true,
		Quota:         quotasvc.Decision{Allowed: false, Used: 20, Limit: 20},
		Next:          browsingsvc.Presentation{State: browsingsvc.StatePresenting, Position: 3, Total: 20},
	}}
	h := NewSwipeHandler(browser, nil, nil, nil, nil)

	resp := performSwipeRequest(t, h, 55, "like")
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected status: got %d want %d", resp.Code, http.StatusTooManyRequests)
	}

	var payload struct {
		OK            bool `json:"ok"`
		QuotaExceeded bool `json:"quota_exceeded"`
		Quota         struct {
			LikesLeft int `json:"likes_left"`
			Limit     int `json:"limit"`
		} `json:"quota"`
		Next struct {
			Position int `json:"position"`
		} `json:"next"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.OK || !payload.QuotaExceeded {
		t.Fatalf("unexpected flags: %+v", payload)
	}
	if payload.Quota.Limit != 20 || payload.Quota.LikesLeft != 0 {
		t.Fatalf("unexpected quota: %+v", payload.Quota)
	}
	if payload.Next.Position != 3 {
		t.Fatalf("session must stay on the same candidate, got position %d", payload.Next.Position)
	}
}

func TestSwipeHandlerReturnsMatch(t *testing.T) {
	browser := &browserStub{outcome: browsingsvc.Outcome{
		Swipe:        model.Swipe{ID: 1, SwiperID: 101, SwipedID: 202, Action: enums.SwipeActionLike},
		Matched:      true,
		MatchCreated: true,
		Match:        model.Match{ID: 77, UserLowID: 101, UserHighID: 202, Active: true},
	}}
	h := NewSwipeHandler(browser, nil, nil, nil, nil)

	resp := performSwipeRequest(t, h, 202, "like")
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", resp.Code, http.StatusOK)
	}

	var payload struct {
		OK           bool  `json:"ok"`
		Matched      bool  `json:"matched"`
		MatchCreated bool  `json:"match_created"`
		MatchID      int64 `json:"match_id"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.OK || !payload.Matched || !payload.MatchCreated || payload.MatchID != 77 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if browser.lastAction != enums.SwipeActionLike || browser.lastTarget != 202 {
		t.Fatalf("unexpected decide args: %s %d", browser.lastAction, browser.lastTarget)
	}
}

func TestSwipeHandlerMapsSessionErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "stale", err: browsingsvc.ErrStaleCandidate, status: http.StatusConflict, code: "STALE_CANDIDATE"},
		{name: "no session", err: browsingsvc.ErrNoSession, status: http.StatusConflict, code: "NO_SESSION"},
		{name: "exhausted", err: browsingsvc.ErrSessionExhausted, status: http.StatusConflict, code: "SESSION_EXHAUSTED"},
		{name: "incomplete", err: apperr.ErrProfileIncomplete, status: http.StatusConflict, code: "PROFILE_INCOMPLETE"},
		{name: "storage", err: apperr.Storage("insert swipe", context.DeadlineExceeded), status: http.StatusServiceUnavailable, code: "STORAGE_UNAVAILABLE"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewSwipeHandler(&browserStub{err: tc.err}, nil, nil, nil, nil)
			resp := performSwipeRequest(t, h, 9, "pass")
			if resp.Code != tc.status {
				t.Fatalf("unexpected status: got %d want %d", resp.Code, tc.status)
			}
			var payload struct {
				Code string `json:"code"`
			}
			if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if payload.Code != tc.code {
				t.Fatalf("unexpected code: got %q want %q", payload.Code, tc.code)
			}
		})
	}
}

func TestSwipeHandlerRejectsUnknownAction(t *testing.T) {
	browser := &browserStub{}
	h := NewSwipeHandler(browser, nil, nil, nil, nil)

	resp := performSwipeRequest(t, h, 9, "maybe")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", resp.Code, http.StatusBadRequest)
	}
	if browser.decides != 0 {
		t.Fatalf("invalid swipe must not reach the browser")
	}
}

func TestSwipeHandlerRequiresIdentity(t *testing.T) {
	h := NewSwipeHandler(&browserStub{}, nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/swipes", bytes.NewReader([]byte(`{"target_id":1,"action":"like"}`)))
	rec := httptest.NewRecorder()
	h.Swipe(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusUnauthorized)
	}
}

func performSwipeRequest(t *testing.T, h *SwipeHandler, targetID int64, action string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(map[string]any{
		"target_id": targetID,
		"action":    action,
	})
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/swipes", bytes.NewReader(body))
	req = req.WithContext(authsvc.WithIdentity(context.Background(), authsvc.Identity{
		UserID: 101,
		SID:    "sid-101",
	}))
	rec := httptest.NewRecorder()
	h.Swipe(rec, req)
	return rec
}

type browserStub struct {
	presentation browsingsvc.Presentation
	outcome      browsingsvc.Outcome
	err          error

	decides    int
	reloads    int
	lastTarget int64
	lastAction enums.SwipeAction
}

func (b *browserStub) Current(context.Context, int64) (browsingsvc.Presentation, error) {
	return b.presentation, b.err
}

func (b *browserStub) Reload(context.Context, int64) (browsingsvc.Presentation, error) {
	b.reloads++
	return b.presentation, b.err
}

func (b *browserStub) Decide(_ context.Context, seekerID, targetID int64, action enums.SwipeAction) (browsingsvc.Outcome, error) {
	b.decides++
	b.lastTarget = targetID
	b.lastAction = action
	if b.err != nil {
		return browsingsvc.Outcome{}, b.err
	}
	out := b.outcome
	if !out.QuotaExceeded && out.Swipe.SwiperID == 0 {
		out.Swipe = model.Swipe{SwiperID: seekerID, SwipedID: targetID, Action: action}
	}
	return out, nil
}

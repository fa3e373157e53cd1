package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/enums"
	browsingsvc "github.com/divcode-web/Trueconnect-bot/internal/services/browsing"
	"github.com/divcode-web/Trueconnect-bot/internal/transport/http/dto"
	httperrors "github.com/divcode-web/Trueconnect-bot/internal/transport/http/errors"
)

type SwipeLimiter interface {
	AllowSwipe(ctx context.Context, userID int64) (retryAfterSec int64, allowed bool, err error)
}

type RateLimitObserver interface {
	RateLimited()
}

type SwipeHandler struct {
	browser  Browser
	limiter  SwipeLimiter
	photos   PhotoResolver
	observer RateLimitObserver
	logger   *zap.Logger
}

func NewSwipeHandler(browser Browser, limiter SwipeLimiter, photos PhotoResolver, observer RateLimitObserver, logger *zap.Logger) *SwipeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SwipeHandler{
		browser:  browser,
		limiter:  limiter,
		photos:   photos,
		observer: observer,
		logger:   logger,
	}
}

func (h *SwipeHandler) Swipe(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrUnauthorized(w, r)
	if !ok {
		return
	}
	if h.browser == nil {
		writeInternal(w, "SWIPE_SERVICE_UNAVAILABLE", "swipe service is unavailable")
		return
	}

	var req dto.SwipeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	action, valid := enums.ParseSwipeAction(req.Action)
	if !valid || req.TargetID <= 0 || req.TargetID == identity.UserID {
		writeBadRequest(w, "VALIDATION_ERROR", "target_id and action are required")
		return
	}

	if h.limiter != nil {
		retryAfter, allowed, err := h.limiter.AllowSwipe(r.Context(), identity.UserID)
		if err != nil {
			h.logger.Error("swipe rate check failed", zap.Int64("user_id", identity.UserID), zap.Error(err))
			writeInternal(w, "INTERNAL_ERROR", "failed to check swipe rate")
			return
		}
		if !allowed {
			if h.observer != nil {
				h.observer.RateLimited()
			}
			httperrors.WriteRateLimited(w, httperrors.RateLimitError{
				Code:          "TOO_FAST",
				Message:       "too many swipes, slow down",
				RetryAfterSec: retryAfter,
			})
			return
		}
	}

	outcome, err := h.browser.Decide(r.Context(), identity.UserID, req.TargetID, action)
	if err != nil && !outcome.Recorded() {
		h.handleError(w, identity.UserID, err)
		return
	}
	if err != nil {
		// The swipe is stored. Reciprocity is re-checked on the counterpart's next swipe.
		h.logger.Warn("swipe recorded without match check",
			zap.Int64("user_id", identity.UserID),
			zap.Int64("target_id", req.TargetID),
			zap.Error(err),
		)
	}

	resp := dto.SwipeResponse{
		OK:            outcome.Recorded(),
		QuotaExceeded: outcome.QuotaExceeded,
		Matched:       outcome.Matched,
		MatchCreated:  outcome.MatchCreated,
		Quota:         quotaFromDecision(outcome.Quota),
		Next:          toBrowseResponse(r.Context(), h.photos, outcome.Next),
	}
	if outcome.Matched {
		resp.MatchID = outcome.Match.ID
	}
	if outcome.QuotaExceeded {
		httperrors.Write(w, http.StatusTooManyRequests, resp)
		return
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *SwipeHandler) handleError(w http.ResponseWriter, userID int64, err error) {
	switch {
	case errors.Is(err, browsingsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid swipe")
	case errors.Is(err, browsingsvc.ErrNoSession):
		writeConflict(w, "NO_SESSION", "start browsing first")
	case errors.Is(err, browsingsvc.ErrSessionExhausted):
		writeConflict(w, "SESSION_EXHAUSTED", "no more candidates, reload to continue")
	case errors.Is(err, browsingsvc.ErrStaleCandidate):
		writeConflict(w, "STALE_CANDIDATE", "candidate is no longer current")
	default:
		h.logger.Error("swipe failed", zap.Int64("user_id", userID), zap.Error(err))
		writeServiceError(w, err, "failed to record swipe")
	}
}

package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/apperr"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/enums"
	browsingsvc "github.com/divcode-web/Trueconnect-bot/internal/services/browsing"
	httperrors "github.com/divcode-web/Trueconnect-bot/internal/transport/http/errors"
)

type Browser interface {
	Current(ctx context.Context, seekerID int64) (browsingsvc.Presentation, error)
	Reload(ctx context.Context, seekerID int64) (browsingsvc.Presentation, error)
	Decide(ctx context.Context, seekerID, targetID int64, action enums.SwipeAction) (browsingsvc.Outcome, error)
}

type BrowseHandler struct {
	browser Browser
	photos  PhotoResolver
	logger  *zap.Logger
}

func NewBrowseHandler(browser Browser, photos PhotoResolver, logger *zap.Logger) *BrowseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BrowseHandler{browser: browser, photos: photos, logger: logger}
}

func (h *BrowseHandler) Current(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrUnauthorized(w, r)
	if !ok {
		return
	}
	if h.browser == nil {
		writeInternal(w, "BROWSE_SERVICE_UNAVAILABLE", "browse service is unavailable")
		return
	}

	presentation, err := h.browser.Current(r.Context(), identity.UserID)
	if err != nil {
		h.handleError(w, identity.UserID, err)
		return
	}
	httperrors.Write(w, http.StatusOK, toBrowseResponse(r.Context(), h.photos, presentation))
}

func (h *BrowseHandler) Reload(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrUnauthorized(w, r)
	if !ok {
		return
	}
	if h.browser == nil {
		writeInternal(w, "BROWSE_SERVICE_UNAVAILABLE", "browse service is unavailable")
		return
	}

	presentation, err := h.browser.Reload(r.Context(), identity.UserID)
	if err != nil {
		h.handleError(w, identity.UserID, err)
		return
	}
	httperrors.Write(w, http.StatusOK, toBrowseResponse(r.Context(), h.photos, presentation))
}

func (h *BrowseHandler) handleError(w http.ResponseWriter, userID int64, err error) {
	switch {
	case errors.Is(err, browsingsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid browse request")
	case errors.Is(err, apperr.ErrProfileIncomplete), errors.Is(err, apperr.ErrProfileNotFound):
		writeServiceError(w, err, "")
	default:
		h.logger.Error("browse request failed", zap.Int64("user_id", userID), zap.Error(err))
		writeServiceError(w, err, "failed to load candidates")
	}
}

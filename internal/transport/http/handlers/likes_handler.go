package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	likessvc "github.com/divcode-web/Trueconnect-bot/internal/services/likes"
	"github.com/divcode-web/Trueconnect-bot/internal/transport/http/dto"
	httperrors "github.com/divcode-web/Trueconnect-bot/internal/transport/http/errors"
)

type IncomingLikes interface {
	Incoming(ctx context.Context, userID int64, limit int) (likessvc.IncomingResult, error)
}

type LikesHandler struct {
	likes  IncomingLikes
	photos PhotoResolver
	logger *zap.Logger
}

func NewLikesHandler(likes IncomingLikes, photos PhotoResolver, logger *zap.Logger) *LikesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LikesHandler{likes: likes, photos: photos, logger: logger}
}

func (h *LikesHandler) Incoming(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrUnauthorized(w, r)
	if !ok {
		return
	}
	if h.likes == nil {
		writeInternal(w, "LIKES_SERVICE_UNAVAILABLE", "likes service is unavailable")
		return
	}

	res, err := h.likes.Incoming(r.Context(), identity.UserID, 0)
	if err != nil {
		h.logger.Error("incoming likes failed", zap.Int64("user_id", identity.UserID), zap.Error(err))
		writeServiceError(w, err, "failed to load incoming likes")
		return
	}

	resp := dto.IncomingLikesResponse{
		Blurred:    res.Blurred,
		TotalCount: res.TotalCount,
		Items:      make([]dto.CandidateResponse, 0, len(res.Profiles)),
	}
	if res.Blurred {
		resp.Preview = res.Preview
	}
	for _, profile := range res.Profiles {
		resp.Items = append(resp.Items, toCandidateResponse(r.Context(), h.photos, profile))
	}

	httperrors.Write(w, http.StatusOK, resp)
}

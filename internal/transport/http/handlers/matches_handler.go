package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/apperr"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
	matchessvc "github.com/divcode-web/Trueconnect-bot/internal/services/matches"
	"github.com/divcode-web/Trueconnect-bot/internal/transport/http/dto"
	httperrors "github.com/divcode-web/Trueconnect-bot/internal/transport/http/errors"
)

type MatchManager interface {
	List(ctx context.Context, userID int64, limit int) ([]model.Match, error)
	Unmatch(ctx context.Context, userID, targetID int64) (bool, error)
	Block(ctx context.Context, userID, targetID int64) error
}

type ProfileReader interface {
	GetProfile(ctx context.Context, userID int64) (model.Profile, error)
}

type MatchesHandler struct {
	matches  MatchManager
	profiles ProfileReader
	logger   *zap.Logger
}

func NewMatchesHandler(matches MatchManager, profiles ProfileReader, logger *zap.Logger) *MatchesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchesHandler{matches: matches, profiles: profiles, logger: logger}
}

func (h *MatchesHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrUnauthorized(w, r)
	if !ok {
		return
	}
	if h.matches == nil {
		writeInternal(w, "MATCHES_SERVICE_UNAVAILABLE", "matches service is unavailable")
		return
	}

	items, err := h.matches.List(r.Context(), identity.UserID, 0)
	if err != nil {
		h.logger.Error("list matches failed", zap.Int64("user_id", identity.UserID), zap.Error(err))
		writeServiceError(w, err, "failed to list matches")
		return
	}

	resp := dto.MatchesResponse{Items: make([]dto.MatchItem, 0, len(items))}
	for _, match := range items {
		item := dto.MatchItem{
			ID:        match.ID,
			PartnerID: match.Other(identity.UserID),
			FormedAt:  match.FormedAt,
		}
		if h.profiles != nil {
			profile, err := h.profiles.GetProfile(r.Context(), item.PartnerID)
			switch {
			case err == nil:
				item.DisplayName = profile.DisplayName
			case !errors.Is(err, apperr.ErrProfileNotFound):
				h.logger.Warn("load match partner failed", zap.Int64("partner_id", item.PartnerID), zap.Error(err))
			}
		}
		resp.Items = append(resp.Items, item)
	}

	httperrors.Write(w, http.StatusOK, resp)
}

func (h *MatchesHandler) Unmatch(w http.ResponseWriter, r *http.Request) {
	identity, req, ok := h.decodeTarget(w, r)
	if !ok {
		return
	}

	deactivated, err := h.matches.Unmatch(r.Context(), identity, req.TargetID)
	if err != nil {
		h.handleError(w, err)
		return
	}
	if !deactivated {
		httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: "MATCH_NOT_FOUND", Message: "no active match with this user"})
		return
	}
	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *MatchesHandler) Block(w http.ResponseWriter, r *http.Request) {
	identity, req, ok := h.decodeTarget(w, r)
	if !ok {
		return
	}

	if err := h.matches.Block(r.Context(), identity, req.TargetID); err != nil {
		h.handleError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *MatchesHandler) decodeTarget(w http.ResponseWriter, r *http.Request) (int64, dto.MatchTargetRequest, bool) {
	identity, ok := identityOrUnauthorized(w, r)
	if !ok {
		return 0, dto.MatchTargetRequest{}, false
	}
	if h.matches == nil {
		writeInternal(w, "MATCHES_SERVICE_UNAVAILABLE", "matches service is unavailable")
		return 0, dto.MatchTargetRequest{}, false
	}

	var req dto.MatchTargetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return 0, dto.MatchTargetRequest{}, false
	}
	return identity.UserID, req, true
}

func (h *MatchesHandler) handleError(w http.ResponseWriter, err error) {
	if errors.Is(err, matchessvc.ErrValidation) {
		writeBadRequest(w, "VALIDATION_ERROR", "target_id is invalid")
		return
	}
	h.logger.Error("match update failed", zap.Error(err))
	writeServiceError(w, err, "failed to update match")
}

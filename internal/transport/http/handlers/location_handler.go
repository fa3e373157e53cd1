package handlers

import (
	"context"
	"errors"
	"net/http"

	geosvc "github.com/divcode-web/Trueconnect-bot/internal/services/geo"
	"github.com/divcode-web/Trueconnect-bot/internal/transport/http/dto"
	httperrors "github.com/divcode-web/Trueconnect-bot/internal/transport/http/errors"
)

type LocationUpdater interface {
	UpdateProfileLocation(ctx context.Context, userID int64, lat, lon float64) error
}

type LocationHandler struct {
	geo LocationUpdater
}

func NewLocationHandler(geo LocationUpdater) *LocationHandler {
	return &LocationHandler{geo: geo}
}

func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrUnauthorized(w, r)
	if !ok {
		return
	}
	if h.geo == nil {
		writeInternal(w, "GEO_SERVICE_UNAVAILABLE", "geo service is unavailable")
		return
	}

	var req dto.ProfileLocationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if req.Lat == nil || req.Lon == nil {
		writeBadRequest(w, "VALIDATION_ERROR", "lat and lon are required")
		return
	}

	if err := h.geo.UpdateProfileLocation(r.Context(), identity.UserID, *req.Lat, *req.Lon); err != nil {
		if errors.Is(err, geosvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "coordinates are out of range")
			return
		}
		writeServiceError(w, err, "failed to save location")
		return
	}
	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

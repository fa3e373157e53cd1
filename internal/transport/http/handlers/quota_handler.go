package handlers

import (
	"context"
	"net/http"

	quotasvc "github.com/divcode-web/Trueconnect-bot/internal/services/quota"
	httperrors "github.com/divcode-web/Trueconnect-bot/internal/transport/http/errors"
)

type QuotaViewer interface {
	Snapshot(ctx context.Context, userID int64) (quotasvc.Snapshot, error)
}

type QuotaHandler struct {
	quota QuotaViewer
}

func NewQuotaHandler(quota QuotaViewer) *QuotaHandler {
	return &QuotaHandler{quota: quota}
}

func (h *QuotaHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrUnauthorized(w, r)
	if !ok {
		return
	}
	if h.quota == nil {
		writeInternal(w, "QUOTA_SERVICE_UNAVAILABLE", "quota service is unavailable")
		return
	}

	snapshot, err := h.quota.Snapshot(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, err, "failed to load quota")
		return
	}
	httperrors.Write(w, http.StatusOK, quotaFromSnapshot(snapshot))
}

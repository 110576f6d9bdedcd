package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type healthResponse struct {
	Status     string `json:"status"`
	Workspaces int    `json:"workspaces"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Workspaces: h.Workspaces.Len()}
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.Ping(ctx); err != nil {
			h.Log.Warn("health check failed", zap.Error(err))
			resp.Status = "unhealthy"
			h.writeJSON(w, r, http.StatusServiceUnavailable, resp)
			return
		}
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"window-counter/backend/internal/app/http/middleware"
	"window-counter/backend/internal/app/logger"
)

// OpenWorkspace starts a workspace for a new browser tab. A bearer token, if
// present, is used to sign in instead of the bootstrap token.
func (h *Handlers) OpenWorkspace(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	ws := h.Workspaces.Open(r.Context(), token)
	if token != "" {
		h.Log.Debug("workspace opened with token",
			zap.String("workspace_id", ws.ID), zap.String("token", logger.MaskToken(token)))
	}
	h.writeState(w, r, http.StatusCreated, ws)
}

func (h *Handlers) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	h.writeState(w, r, http.StatusOK, ws)
}

func (h *Handlers) CloseWorkspace(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.workspace(w, r); !ok {
		return
	}
	h.Workspaces.Close(chi.URLParam(r, "wid"))
	w.WriteHeader(http.StatusNoContent)
}

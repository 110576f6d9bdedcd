package handlers

import (
	"net/http"

	"window-counter/backend/internal/domain/workspace"
)

type resolveResponse struct {
	Outcome workspace.Outcome `json:"outcome"`
	State   workspace.State   `json:"state"`
}

func (h *Handlers) ConfirmNotice(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, true)
}

func (h *Handlers) CancelNotice(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, false)
}

func (h *Handlers) resolve(w http.ResponseWriter, r *http.Request, accept bool) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	out, err := ws.Resolve(r.Context(), accept)
	if err != nil {
		h.writeError(w, r, ws, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, resolveResponse{Outcome: out, State: ws.State()})
}

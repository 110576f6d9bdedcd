package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"window-counter/backend/internal/app/logger"
	"window-counter/backend/internal/domain/workspace"
	"window-counter/backend/internal/shared/apperr"
)

type errorResponse struct {
	Error string           `json:"error"`
	Kind  apperr.Kind      `json:"kind,omitempty"`
	State *workspace.State `json:"state,omitempty"`
}

func (h *Handlers) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithTrace(r.Context(), h.Log).Warn("write response failed", zap.Error(err))
	}
}

// writeError answers with the status and message of err. When ws is set the
// body carries the workspace state so the notice can be rendered.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, err error) {
	resp := errorResponse{Error: apperr.PublicMessage(err)}
	if ae, ok := apperr.As(err); ok {
		resp.Kind = ae.Kind
	}
	if ws != nil {
		st := ws.State()
		resp.State = &st
	}
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.WithTrace(r.Context(), h.Log).Error("request failed",
			zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	h.writeJSON(w, r, status, resp)
}

func (h *Handlers) writeState(w http.ResponseWriter, r *http.Request, status int, ws *workspace.Workspace) {
	h.writeJSON(w, r, status, ws.State())
}

// workspace resolves {wid}; it writes a 404 and returns false when the
// workspace is unknown or has expired.
func (h *Handlers) workspace(w http.ResponseWriter, r *http.Request) (*workspace.Workspace, bool) {
	ws, ok := h.Workspaces.Get(chi.URLParam(r, "wid"))
	if !ok {
		h.writeError(w, r, nil, apperr.NotFoundErr("Workspace not found."))
		return nil, false
	}
	return ws, true
}

// decode reads a JSON body into dst and checks its validate tags. A
// rejected body is shown on the workspace notice like any other validation
// error.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, dst any) bool {
	var err error
	if derr := json.NewDecoder(r.Body).Decode(dst); derr != nil {
		err = apperr.ValidationErr("Invalid request body.")
	} else if verr := h.validate.Struct(dst); verr != nil {
		err = apperr.ValidationErr(validationMessage(verr))
	}
	if err == nil {
		return true
	}
	if ws != nil {
		ws.Notify(err)
	}
	h.writeError(w, r, ws, err)
	return false
}

func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "Invalid request body."
	}
	fe := ve[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required."
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters."
	case "min", "gte":
		return fe.Field() + " must be at least " + fe.Param() + "."
	default:
		return fe.Field() + " is invalid."
	}
}

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// priceInput takes a price typed as a JSON string or sent as a number.
type priceInput string

func (p *priceInput) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*p = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = priceInput(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*p = priceInput(n.String())
	return nil
}

type windowTypeRequest struct {
	Name  string     `json:"name" validate:"max=200"`
	Price priceInput `json:"price" validate:"max=32"`
}

type reorderRequest struct {
	DraggedID string `json:"dragged_id" validate:"required"`
	TargetID  string `json:"target_id" validate:"required"`
}

type moveRequest struct {
	From *int `json:"from" validate:"required"`
	To   *int `json:"to" validate:"required"`
}

func (h *Handlers) OpenAddForm(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	ws.OpenAddForm()
	h.writeState(w, r, http.StatusOK, ws)
}

func (h *Handlers) CancelAddForm(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	ws.CancelAddForm()
	h.writeState(w, r, http.StatusOK, ws)
}

func (h *Handlers) AddWindowType(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var req windowTypeRequest
	if !h.decode(w, r, ws, &req) {
		return
	}
	if _, err := ws.AddWindowType(req.Name, string(req.Price)); err != nil {
		h.writeError(w, r, ws, err)
		return
	}
	h.writeState(w, r, http.StatusCreated, ws)
}

func (h *Handlers) Increment(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	ws.Increment(chi.URLParam(r, "id"))
	h.writeState(w, r, http.StatusOK, ws)
}

func (h *Handlers) Decrement(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	ws.Decrement(chi.URLParam(r, "id"))
	h.writeState(w, r, http.StatusOK, ws)
}

// DeleteWindowType only asks for confirmation; the item is removed when the
// notice is confirmed.
func (h *Handlers) DeleteWindowType(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	ws.RequestDeleteWindowType(chi.URLParam(r, "id"))
	h.writeState(w, r, http.StatusAccepted, ws)
}

func (h *Handlers) OpenEdit(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if _, err := ws.OpenEdit(chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, ws, err)
		return
	}
	h.writeState(w, r, http.StatusOK, ws)
}

func (h *Handlers) SaveEdit(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var req windowTypeRequest
	if !h.decode(w, r, ws, &req) {
		return
	}
	if err := ws.SaveEdit(req.Name, string(req.Price)); err != nil {
		h.writeError(w, r, ws, err)
		return
	}
	h.writeState(w, r, http.StatusOK, ws)
}

func (h *Handlers) CancelEdit(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	ws.CancelEdit()
	h.writeState(w, r, http.StatusOK, ws)
}

func (h *Handlers) Reorder(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var req reorderRequest
	if !h.decode(w, r, ws, &req) {
		return
	}
	ws.Reorder(req.DraggedID, req.TargetID)
	h.writeState(w, r, http.StatusOK, ws)
}

func (h *Handlers) Move(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var req moveRequest
	if !h.decode(w, r, ws, &req) {
		return
	}
	ws.MoveItem(*req.From, *req.To)
	h.writeState(w, r, http.StatusOK, ws)
}

func (h *Handlers) PickUp(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	ws.PickUp(chi.URLParam(r, "id"))
	h.writeState(w, r, http.StatusOK, ws)
}

func (h *Handlers) Drop(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	ws.Drop(chi.URLParam(r, "id"))
	h.writeState(w, r, http.StatusOK, ws)
}

func (h *Handlers) CancelDrag(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	ws.CancelDrag()
	h.writeState(w, r, http.StatusOK, ws)
}

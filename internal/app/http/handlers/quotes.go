package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"window-counter/backend/internal/domain/quote"
	"window-counter/backend/internal/domain/workspace"
)

type saveQuoteRequest struct {
	Name string `json:"name" validate:"max=200"`
}

type saveQuoteResponse struct {
	Quote quote.Quote     `json:"quote"`
	State workspace.State `json:"state"`
}

type listQuotesResponse struct {
	Quotes []quote.Quote `json:"quotes"`
}

func (h *Handlers) SaveQuote(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var req saveQuoteRequest
	if !h.decode(w, r, ws, &req) {
		return
	}
	q, err := ws.SaveQuote(r.Context(), req.Name)
	if err != nil {
		h.writeError(w, r, ws, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, saveQuoteResponse{Quote: q, State: ws.State()})
}

func (h *Handlers) ListQuotes(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	quotes, err := ws.ListQuotes(r.Context())
	if err != nil {
		h.writeError(w, r, ws, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, listQuotesResponse{Quotes: quotes})
}

// LoadQuote asks the user to confirm replacing the editor contents.
func (h *Handlers) LoadQuote(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if err := ws.RequestLoadQuote(r.Context(), chi.URLParam(r, "qid")); err != nil {
		h.writeError(w, r, ws, err)
		return
	}
	h.writeState(w, r, http.StatusAccepted, ws)
}

func (h *Handlers) DeleteQuote(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	ws.RequestDeleteQuote(chi.URLParam(r, "qid"))
	h.writeState(w, r, http.StatusAccepted, ws)
}

func (h *Handlers) QuotePDF(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	q, err := ws.Quote(r.Context(), chi.URLParam(r, "qid"))
	if err != nil {
		h.writeError(w, r, ws, err)
		return
	}

	pdfBytes, err := h.PDF.Generate(q)
	if err != nil {
		h.Log.Error("pdf generation failed", zap.String("quote_id", q.ID), zap.Error(err))
		http.Error(w, "pdf generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="quote-`+q.ID+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(pdfBytes)
}

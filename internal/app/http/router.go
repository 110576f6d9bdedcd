package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"window-counter/backend/internal/app/http/handlers"
	"window-counter/backend/internal/app/http/middleware"
)

// NewRouter mounts the workspace API under /v1. Any other path is served by
// assets.
func NewRouter(h *handlers.Handlers, assets http.Handler, corsOrigin string, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()

	r.Use(middleware.Logging(log))
	r.Use(middleware.CORS(corsOrigin))

	r.Get("/health", h.Health)

	r.Route("/v1/workspaces", func(r chi.Router) {
		r.Post("/", h.OpenWorkspace)

		r.Route("/{wid}", func(r chi.Router) {
			r.Get("/", h.GetWorkspace)
			r.Delete("/", h.CloseWorkspace)

			r.Post("/add-form", h.OpenAddForm)
			r.Delete("/add-form", h.CancelAddForm)

			r.Post("/items", h.AddWindowType)
			r.Post("/items/{id}/increment", h.Increment)
			r.Post("/items/{id}/decrement", h.Decrement)
			r.Delete("/items/{id}", h.DeleteWindowType)

			r.Post("/items/{id}/edit", h.OpenEdit)
			r.Put("/edit", h.SaveEdit)
			r.Delete("/edit", h.CancelEdit)

			r.Post("/reorder", h.Reorder)
			r.Post("/move", h.Move)
			r.Post("/items/{id}/pickup", h.PickUp)
			r.Post("/items/{id}/drop", h.Drop)
			r.Delete("/drag", h.CancelDrag)

			r.Post("/notice/confirm", h.ConfirmNotice)
			r.Post("/notice/cancel", h.CancelNotice)

			r.Post("/quotes", h.SaveQuote)
			r.Get("/quotes", h.ListQuotes)
			r.Post("/quotes/{qid}/load", h.LoadQuote)
			r.Delete("/quotes/{qid}", h.DeleteQuote)
			r.Get("/quotes/{qid}/pdf", h.QuotePDF)
		})
	})

	if assets != nil {
		r.NotFound(assets.ServeHTTP)
	}
	return r
}

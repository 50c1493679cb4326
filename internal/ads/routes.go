package ads

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter builds the ads subrouter, mounted on the main router at /ads.
func NewRouter(handler *Handler, authenticate func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Post("/", handler.CreateAd)
		r.Get("/", handler.ListAds)
		r.Get("/user/{userId}", handler.ListForUser)
		r.Get("/{id}", handler.GetAd)
		r.Put("/{id}", handler.UpdateAd)
		r.Delete("/{id}", handler.DeleteAd)
		r.Post("/{id}/archive", handler.ArchiveAd)
	})

	return r
}

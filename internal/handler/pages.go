package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/game-list/internal/auth"
	"github.com/sakif/game-list/internal/service"
)

// CatalogHandler serves the pages that browse the catalog.
type CatalogHandler struct {
	catalog  *service.CatalogService
	renderer *Renderer
	logger   *slog.Logger
}

func NewCatalogHandler(catalog *service.CatalogService, renderer *Renderer, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, renderer: renderer, logger: logger}
}

// HandleIndex serves the landing page: recent releases grouped by year.
// Signed-in users go straight to their feed.
//
// HTTP: GET /
func (h *CatalogHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if auth.UserFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/feed", http.StatusSeeOther)
		return
	}

	landing, err := h.catalog.Landing(r.Context())
	if err != nil {
		h.renderer.ServerError(w, r, err)
		return
	}
	h.renderer.Render(w, r, http.StatusOK, PageIndex, Page{Landing: landing})
}

// HandleFeed serves the signed-in user's saved list and suggestions.
//
// HTTP: GET /feed (login required)
func (h *CatalogHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	feed, err := h.catalog.Feed(r.Context(), user.ID)
	if err != nil {
		h.renderer.ServerError(w, r, err)
		return
	}
	h.renderer.Render(w, r, http.StatusOK, PageFeed, Page{Feed: feed})
}

// HandleSearch runs a title search.
//
// HTTP: POST /search, or GET /search?search=<q>
//
// A bare GET has nothing to search for and goes back to the landing page.
func (h *CatalogHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var query string
	switch r.Method {
	case http.MethodPost:
		query = r.PostFormValue("search")
	default:
		values := r.URL.Query()
		if !values.Has("search") {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		query = values.Get("search")
	}

	results, err := h.catalog.Search(r.Context(), query)
	if err != nil {
		h.renderer.ServerError(w, r, err)
		return
	}
	h.renderer.Render(w, r, http.StatusOK, PageSearch, Page{Query: query, Results: results})
}

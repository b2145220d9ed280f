package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/game-list/internal/apperror"
	"github.com/sakif/game-list/internal/service"
)

// AdminHandler is the JSON admin console: generic CRUD over every resource
// in the registry, plus tag assignment for games.
//
// ROUTES (all behind auth.RequireAdmin):
//
//	GET    /admin                          → registered resources
//	GET    /admin/{resource}?limit&offset  → list rows
//	POST   /admin/{resource}               → create
//	GET    /admin/{resource}/{id}          → read
//	PUT    /admin/{resource}/{id}          → partial update
//	DELETE /admin/{resource}/{id}          → delete
//	PUT    /admin/games/{id}/tags/{kind}   → replace a tag set
type AdminHandler struct {
	admin *service.AdminService
}

func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

type resourcesResponse struct {
	Resources []service.Resource `json:"resources"`
}

type recordsResponse struct {
	Records any `json:"records"`
	Limit   int `json:"limit"`
	Offset  int `json:"offset"`
}

type tagsRequest struct {
	IDs []int64 `json:"ids"`
}

func (h *AdminHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, resourcesResponse{Resources: h.admin.Registry().Resources()})
}

func (h *AdminHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, err)
		return
	}

	records, err := h.admin.List(r.Context(), chi.URLParam(r, "resource"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	// Echo the page that was actually served, after clamping.
	switch {
	case limit <= 0:
		limit = service.DefaultPageSize
	case limit > service.MaxPageSize:
		limit = service.MaxPageSize
	}
	writeJSON(w, http.StatusOK, recordsResponse{Records: records, Limit: limit, Offset: max(offset, 0)})
}

func (h *AdminHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var values map[string]any
	if err := decodeJSON(w, r, &values); err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.admin.Create(r.Context(), chi.URLParam(r, "resource"), values)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *AdminHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.admin.Get(r.Context(), chi.URLParam(r, "resource"), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *AdminHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var values map[string]any
	if err := decodeJSON(w, r, &values); err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.admin.Update(r.Context(), chi.URLParam(r, "resource"), id, values)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *AdminHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.admin.Delete(r.Context(), chi.URLParam(r, "resource"), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetTags replaces one tag set of a game.
//
// REQUEST BODY: {"ids": [1, 4, 9]}; an empty list clears the set.
func (h *AdminHandler) HandleSetTags(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req tagsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.admin.SetGameTags(r.Context(), id, chi.URLParam(r, "kind"), req.IDs); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed("id", "id must be a positive integer")
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(name, name+" must be an integer")
	}
	return n, nil
}

package handler

import (
	"context"
	"net/http"

	"github.com/sakif/game-list/internal/auth"
	"github.com/sakif/game-list/internal/service"
)

// ListHandler serves the two AJAX endpoints behind the add/remove buttons.
type ListHandler struct {
	catalog *service.CatalogService
}

func NewListHandler(catalog *service.CatalogService) *ListHandler {
	return &ListHandler{catalog: catalog}
}

// itemRequest carries the id of the clicked button, e.g. "game_12".
type itemRequest struct {
	Response string `json:"response"`
}

// ItemResponse echoes the parsed game id so the page script can find the
// element to update.
type ItemResponse struct {
	Status   string `json:"status"`
	Response int64  `json:"response"`
}

// HandleAdd adds a game to the signed-in user's list.
//
// HTTP: POST /add (login required)
// REQUEST BODY:  {"response": "game_12"}
// RESPONSE:      {"status": "OK", "response": 12}
func (h *ListHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.catalog.AddToList)
}

// HandleRemove removes a game from the signed-in user's list.
//
// HTTP: POST /remove (login required)
// REQUEST BODY:  {"response": "my-game_12"}
func (h *ListHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.catalog.RemoveFromList)
}

func (h *ListHandler) mutate(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, userID int64, token string) (int64, error),
) {
	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user := auth.UserFromContext(r.Context())
	gameID, err := op(r.Context(), user.ID, req.Response)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ItemResponse{Status: "OK", Response: gameID})
}

package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"postboard/internal/httputil"
	"postboard/internal/model"
	"postboard/internal/service"
	"postboard/internal/transport/http/middleware"
)

type ProfileHandler struct {
	postService *service.PostService
}

func NewProfileHandler(postService *service.PostService) *ProfileHandler {
	return &ProfileHandler{postService: postService}
}

// Profile handles GET /profile/{username}
// Returns the author's info, post count, their posts newest first, and
// whether the signed-in viewer follows them. For anonymous viewers the
// follow flag is always false.
func (h *ProfileHandler) Profile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var viewerID *int64
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		viewerID = &id
	}

	page, err := h.postService.Profile(r.Context(), username, parsePage(r), viewerID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		log.Printf("[ERROR] Profile handler: username=%s err=%v", username, err)
		httputil.WriteInternalError(w, "Failed to load profile")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, page)
}

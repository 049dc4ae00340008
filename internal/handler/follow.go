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

type FollowHandler struct {
	followService *service.FollowService
}

func NewFollowHandler(followService *service.FollowService) *FollowHandler {
	return &FollowHandler{followService: followService}
}

// Feed handles GET /follow
// Returns posts from authors the signed-in user follows, newest first.
func (h *FollowHandler) Feed(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	feed, err := h.followService.Followed(r.Context(), userID, parsePage(r))
	if err != nil {
		log.Printf("[ERROR] Follow feed handler: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to load feed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, feed)
}

// Follow handles GET /profile/{username}/follow
// Following someone you already follow, or yourself, changes nothing.
// Either way the caller lands back on their follow feed.
func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	username := chi.URLParam(r, "username")
	if err := h.followService.Follow(r.Context(), userID, username); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		log.Printf("[ERROR] Follow handler: user=%d author=%s err=%v", userID, username, err)
		httputil.WriteInternalError(w, "Failed to follow")
		return
	}

	httputil.Redirect(w, r, "/follow")
}

// Unfollow handles GET /profile/{username}/unfollow
// Unfollowing someone you never followed is not an error.
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	username := chi.URLParam(r, "username")
	if err := h.followService.Unfollow(r.Context(), userID, username); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		log.Printf("[ERROR] Unfollow handler: user=%d author=%s err=%v", userID, username, err)
		httputil.WriteInternalError(w, "Failed to unfollow")
		return
	}

	httputil.Redirect(w, r, "/follow")
}

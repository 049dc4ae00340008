package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"postboard/internal/form"
	"postboard/internal/httputil"
	"postboard/internal/model"
	"postboard/internal/service"
	"postboard/internal/transport/http/middleware"
)

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// Add handles POST /posts/{id}/comment
// On success redirects back to the post detail page. A blank comment is
// rejected without touching the database: the detail page comes back
// with the field error attached.
func (h *CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	postID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteNotFound(w, "Post not found")
		return
	}

	if err := r.ParseForm(); err != nil {
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}

	f := form.CommentForm{Text: r.FormValue("text")}
	if fieldErrors := f.Validate(); len(fieldErrors) > 0 {
		httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"form":   f,
			"errors": fieldErrors,
		})
		return
	}

	_, err = h.commentService.Add(r.Context(), postID, userID, f.Text)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		case errors.Is(err, model.ErrCommentTextRequired):
			httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
				"form":   f,
				"errors": form.Errors{"text": form.RequiredMessage},
			})
		default:
			log.Printf("[ERROR] Add comment handler: user=%d post=%d err=%v", userID, postID, err)
			httputil.WriteInternalError(w, "Failed to add comment")
		}
		return
	}

	httputil.Redirect(w, r, detailPath(postID))
}

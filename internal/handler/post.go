package handler

import (
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"postboard/internal/form"
	"postboard/internal/httputil"
	"postboard/internal/model"
	"postboard/internal/service"
	"postboard/internal/transport/http/middleware"
)

type PostHandler struct {
	postService  *service.PostService
	userService  *service.UserService
	mediaService *service.MediaService
}

func NewPostHandler(postService *service.PostService, userService *service.UserService, mediaService *service.MediaService) *PostHandler {
	return &PostHandler{
		postService:  postService,
		userService:  userService,
		mediaService: mediaService,
	}
}

// parsePage reads the ?page= query parameter. Anything unparseable counts
// as page 1; out-of-range values are clamped downstream.
func parsePage(r *http.Request) int {
	p := r.URL.Query().Get("page")
	if p == "" {
		return 1
	}
	n, err := strconv.Atoi(p)
	if err != nil {
		return 1
	}
	return n
}

// Index handles GET /
// Returns the latest posts across all authors, ten per page.
func (h *PostHandler) Index(w http.ResponseWriter, r *http.Request) {
	feed, err := h.postService.ListAll(r.Context(), parsePage(r))
	if err != nil {
		log.Printf("[ERROR] Index handler: err=%v", err)
		httputil.WriteInternalError(w, "Failed to load posts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, feed)
}

// GroupPosts handles GET /group/{slug}
// Returns the group's description and its posts, newest first.
func (h *PostHandler) GroupPosts(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	page, err := h.postService.ListByGroup(r.Context(), slug, parsePage(r))
	if err != nil {
		if errors.Is(err, model.ErrGroupNotFound) {
			httputil.WriteNotFound(w, "Group not found")
			return
		}
		log.Printf("[ERROR] Group posts handler: slug=%s err=%v", slug, err)
		httputil.WriteInternalError(w, "Failed to load group")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, page)
}

// Detail handles GET /posts/{id}
// Returns one post with its comments and a blank comment form.
func (h *PostHandler) Detail(w http.ResponseWriter, r *http.Request) {
	postID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteNotFound(w, "Post not found")
		return
	}

	detail, err := h.postService.Detail(r.Context(), postID)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, "Post not found")
			return
		}
		log.Printf("[ERROR] Post detail handler: post=%d err=%v", postID, err)
		httputil.WriteInternalError(w, "Failed to load post")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, detail)
}

// CreateForm handles GET /create
// Returns a blank post form and the available group choices.
func (h *PostHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	groups, err := h.postService.Groups(r.Context())
	if err != nil {
		log.Printf("[ERROR] Create form handler: err=%v", err)
		httputil.WriteInternalError(w, "Failed to load groups")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"form":   form.PostForm{},
		"groups": groups,
	})
}

// Create handles POST /create
// On success redirects to the author's profile. A form that fails
// validation comes back as a 200 with the submitted values and the
// field errors, the same page the author was already on.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	f, image, ok := h.parsePostForm(w, r)
	if !ok {
		return
	}

	if fieldErrors := f.Validate(); len(fieldErrors) > 0 {
		h.writeFormPage(w, r, f, fieldErrors)
		return
	}

	upload, ok := h.uploadImage(w, r, image)
	if !ok {
		return
	}

	_, err := h.postService.Create(r.Context(), userID, f, upload)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrTextRequired):
			h.writeFormPage(w, r, f, form.Errors{"text": form.RequiredMessage})
		case errors.Is(err, model.ErrGroupNotFound):
			h.writeFormPage(w, r, f, form.Errors{"group": "Select a valid choice."})
		default:
			log.Printf("[ERROR] Create post handler: user=%d err=%v", userID, err)
			httputil.WriteInternalError(w, "Failed to create post")
		}
		return
	}

	author, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] Create post handler: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to create post")
		return
	}

	httputil.Redirect(w, r, "/profile/"+author.Username)
}

// EditForm handles GET /posts/{id}/edit
// Only the author sees the edit form; anyone else is sent back to the
// post detail page with no error.
func (h *PostHandler) EditForm(w http.ResponseWriter, r *http.Request) {
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

	detail, err := h.postService.Detail(r.Context(), postID)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, "Post not found")
			return
		}
		log.Printf("[ERROR] Edit form handler: post=%d err=%v", postID, err)
		httputil.WriteInternalError(w, "Failed to load post")
		return
	}

	if detail.Post.AuthorID != userID {
		httputil.Redirect(w, r, detailPath(postID))
		return
	}

	groups, err := h.postService.Groups(r.Context())
	if err != nil {
		log.Printf("[ERROR] Edit form handler: err=%v", err)
		httputil.WriteInternalError(w, "Failed to load groups")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"form":    form.PostForm{Text: detail.Post.Text, GroupID: detail.Post.GroupID},
		"groups":  groups,
		"is_edit": true,
		"post_id": postID,
	})
}

// Edit handles POST /posts/{id}/edit
// A non-author submitting here is redirected to the detail page and the
// post is left untouched. On success the author lands on the detail page.
func (h *PostHandler) Edit(w http.ResponseWriter, r *http.Request) {
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

	f, image, ok := h.parsePostForm(w, r)
	if !ok {
		return
	}

	// The blank-text check stays in the service so a non-author gets the
	// plain redirect, never validation output. The image goes up first
	// and the service discards it again if the edit is refused.
	upload, ok := h.uploadImage(w, r, image)
	if !ok {
		return
	}

	_, err = h.postService.Edit(r.Context(), postID, userID, f, upload)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		case errors.Is(err, model.ErrNotPostAuthor):
			httputil.Redirect(w, r, detailPath(postID))
		case errors.Is(err, model.ErrTextRequired):
			h.writeFormPage(w, r, f, form.Errors{"text": form.RequiredMessage})
		case errors.Is(err, model.ErrGroupNotFound):
			h.writeFormPage(w, r, f, form.Errors{"group": "Select a valid choice."})
		default:
			log.Printf("[ERROR] Edit post handler: user=%d post=%d err=%v", userID, postID, err)
			httputil.WriteInternalError(w, "Failed to edit post")
		}
		return
	}

	httputil.Redirect(w, r, detailPath(postID))
}

// parsePostForm reads the multipart post form: text, an optional group
// choice, and an optional image file. Reports false after writing an
// error response.
func (h *PostHandler) parsePostForm(w http.ResponseWriter, r *http.Request) (form.PostForm, *multipart.FileHeader, bool) {
	maxFormSize := int64(model.MaxImageSizeBytes) + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			// Plain form posts are fine too
			if err := r.ParseForm(); err != nil {
				httputil.WriteBadRequest(w, "Invalid form data")
				return form.PostForm{}, nil, false
			}
		} else if strings.Contains(err.Error(), "request body too large") {
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Image exceeds 10MB limit")
			return form.PostForm{}, nil, false
		} else {
			httputil.WriteBadRequest(w, "Invalid form data")
			return form.PostForm{}, nil, false
		}
	}

	f := form.PostForm{Text: r.FormValue("text")}
	if g := r.FormValue("group"); g != "" {
		groupID, err := strconv.ParseInt(g, 10, 64)
		if err != nil {
			h.writeFormPage(w, r, f, form.Errors{"group": "Select a valid choice."})
			return form.PostForm{}, nil, false
		}
		f.GroupID = &groupID
	}

	var image *multipart.FileHeader
	if r.MultipartForm != nil {
		if headers := r.MultipartForm.File["image"]; len(headers) > 0 {
			image = headers[0]
		}
	}

	return f, image, true
}

// uploadImage pushes the submitted image to object storage, if there is
// one. Reports false after writing an error response.
func (h *PostHandler) uploadImage(w http.ResponseWriter, r *http.Request, header *multipart.FileHeader) (*model.UploadResult, bool) {
	if header == nil {
		return nil, true
	}
	if h.mediaService == nil {
		log.Printf("[WARN] Image upload skipped: media storage not configured")
		return nil, true
	}

	file, err := header.Open()
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid image upload")
		return nil, false
	}
	defer file.Close()

	upload, err := h.mediaService.UploadPostImage(r.Context(), file, header)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrFileTooLarge):
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Image exceeds 10MB limit")
		case errors.Is(err, model.ErrInvalidImageType):
			httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, gif, webp")
		default:
			log.Printf("[ERROR] Image upload: err=%v", err)
			httputil.WriteInternalError(w, "Failed to upload image")
		}
		return nil, false
	}

	return upload, true
}

// writeFormPage re-renders the post form with the submitted values and
// field errors. Status stays 200: a rejected form is still the same page.
func (h *PostHandler) writeFormPage(w http.ResponseWriter, r *http.Request, f form.PostForm, fieldErrors form.Errors) {
	groups, err := h.postService.Groups(r.Context())
	if err != nil {
		log.Printf("[ERROR] Form page: err=%v", err)
		httputil.WriteInternalError(w, "Failed to load groups")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"form":   f,
		"errors": fieldErrors,
		"groups": groups,
	})
}

func detailPath(postID int64) string {
	return fmt.Sprintf("/posts/%d", postID)
}

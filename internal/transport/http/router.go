package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"postboard/internal/cache"
	"postboard/internal/handler"
	"postboard/internal/httputil"
	authmw "postboard/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler    *handler.AuthHandler
	PostHandler    *handler.PostHandler
	ProfileHandler *handler.ProfileHandler
	CommentHandler *handler.CommentHandler
	FollowHandler  *handler.FollowHandler
	PageCache      cache.PageCache
	JWTSecret      string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Any path outside the route table is a 404
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteNotFound(w, "Page not found")
	})

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Public routes - no authentication required
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", cfg.AuthHandler.Signup)
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/refresh", cfg.AuthHandler.Refresh)
	})

	// Public listing pages with optional authentication.
	// The index page is the only cached surface: entries expire on their
	// own, so a new post can lag behind on / for up to the cache TTL.
	r.Group(func(r chi.Router) {
		r.Use(authmw.OptionalAuth(cfg.JWTSecret))

		r.With(authmw.PageCache(cfg.PageCache)).Get("/", cfg.PostHandler.Index)
		r.Get("/group/{slug}", cfg.PostHandler.GroupPosts)
		r.Get("/profile/{username}", cfg.ProfileHandler.Profile)
		r.Get("/posts/{id:[0-9]+}", cfg.PostHandler.Detail)
	})

	// Protected routes - anonymous callers are redirected to the login page
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(cfg.JWTSecret))

		r.Get("/me", cfg.AuthHandler.Me)
		r.Post("/auth/logout", cfg.AuthHandler.Logout)
		r.Post("/auth/logout-all", cfg.AuthHandler.LogoutAll)

		r.Get("/create", cfg.PostHandler.CreateForm)
		r.Post("/create", cfg.PostHandler.Create)
		r.Get("/posts/{id:[0-9]+}/edit", cfg.PostHandler.EditForm)
		r.Post("/posts/{id:[0-9]+}/edit", cfg.PostHandler.Edit)
		r.Post("/posts/{id:[0-9]+}/comment", cfg.CommentHandler.Add)

		r.Get("/follow", cfg.FollowHandler.Feed)
		r.Get("/profile/{username}/follow", cfg.FollowHandler.Follow)
		r.Get("/profile/{username}/unfollow", cfg.FollowHandler.Unfollow)
	})

	return r
}

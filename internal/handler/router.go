package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/Dan9191/travel-blog/internal/middleware"
)

// RouterOptions wires the optional observability endpoints
type RouterOptions struct {
	Metrics        *middleware.Metrics
	MetricsHandler http.Handler
}

// NewRouter registers every route. API paths match with or without the trailing slash.
func NewRouter(h *Handler, ro RouterOptions) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	if ro.Metrics != nil {
		r.Use(ro.Metrics.Middleware)
	}

	r.HandleFunc("/healthz", h.Health).Methods("GET")
	if ro.MetricsHandler != nil {
		r.Handle("/metrics", ro.MetricsHandler).Methods("GET")
	}

	api := r.PathPrefix("/api/").Subrouter()
	api.NotFoundHandler = http.HandlerFunc(notFound)
	api.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	// Public routes
	handle(api, "/auth/register", h.Register, "POST")
	handle(api, "/auth/login", h.Login, "POST")
	handle(api, "/token/refresh", h.RefreshToken, "POST")

	// Routes that read the bearer token; the service decides which need it
	authRouter := api.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(h.svc, h.log))
	handle(authRouter, "/auth/profile", h.Profile, "GET")
	handle(authRouter, "/posts", h.ListPosts, "GET")
	handle(authRouter, "/posts", h.CreatePost, "POST")
	handle(authRouter, "/posts/{id:[0-9]+}", h.GetPost, "GET")
	handle(authRouter, "/posts/{id:[0-9]+}", h.UpdatePost, "PUT", "PATCH")
	handle(authRouter, "/posts/{id:[0-9]+}", h.DeletePost, "DELETE")
	handle(authRouter, "/posts/{id:[0-9]+}/comments", h.CreateComment, "POST")
	handle(authRouter, "/public/posts", h.ListPosts, "GET")
	authRouter.HandleFunc("/public/feed.xml", h.PublicFeed).Methods("GET")

	r.PathPrefix("/static/").HandlerFunc(h.Static).Methods("GET", "HEAD")
	if h.opts.MediaRoot != "" && strings.HasPrefix(h.opts.MediaURL, "/") && h.opts.MediaURL != "/" {
		r.PathPrefix(h.opts.MediaURL).HandlerFunc(h.Media).Methods("GET", "HEAD")
	}
	r.PathPrefix("/").HandlerFunc(h.Frontend).Methods("GET", "HEAD")

	return r
}

func handle(r *mux.Router, path string, f http.HandlerFunc, methods ...string) {
	r.HandleFunc(path+"/", f).Methods(methods...)
	r.HandleFunc(path, f).Methods(methods...)
}

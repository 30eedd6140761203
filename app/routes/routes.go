// Package routes wires controllers and middleware into the board's router.
package routes

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strings"

	"communityboard/app/controllers"
	"communityboard/app/middleware"
	"communityboard/app/realtime"
	"communityboard/app/services"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Deps is everything the router needs.
type Deps struct {
	Posts     *services.PostService
	Comments  *services.CommentService
	Hub       *realtime.Hub
	Templates map[string]*template.Template
	Logger    zerolog.Logger

	DefaultViewer  string
	AnonymousName  string
	PageSize       int
	AllowedOrigins []string

	// Health reports storage problems to /healthz. Nil means always healthy.
	Health func() error
}

func newCors(origins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Accept", "If-None-Match", middleware.UserIDHeader, middleware.UserNameHeader},
		ExposedHeaders: []string{"ETag"},
	})
}

// New returns the board's HTTP handler: the router behind CORS handling.
func New(deps Deps) http.Handler {
	c := newCors(deps.AllowedOrigins)
	return c.Handler(SetupRoutes(deps, c))
}

// SetupRoutes defines the application's routes and returns a router.
func SetupRoutes(deps Deps, c *cors.Cors) *mux.Router {
	router := mux.NewRouter()

	// Apply global middleware
	router.Use(middleware.Logger(deps.Logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Viewer(deps.DefaultViewer, deps.AnonymousName))

	postController := controllers.NewPostController(deps.Posts, deps.Hub, deps.Templates, deps.PageSize)
	commentController := controllers.NewCommentController(deps.Comments, deps.Hub, deps.Templates)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "Not found"})
			return
		}
		http.NotFound(w, r)
	})

	router.HandleFunc("/healthz", healthz(deps.Health)).Methods("GET")

	// Web routes
	router.HandleFunc("/", postController.Index).Methods("GET")
	router.HandleFunc("/viewer", controllers.SwitchViewer).Methods("POST")

	// Posts web endpoints
	posts := router.PathPrefix("/posts").Subrouter()
	posts.HandleFunc("", postController.Index).Methods("GET")
	posts.HandleFunc("", postController.Create).Methods("POST")
	posts.HandleFunc("/new", postController.New).Methods("GET")
	posts.HandleFunc("/{id:[0-9]+}", postController.Show).Methods("GET")
	posts.HandleFunc("/{id:[0-9]+}/edit", postController.Edit).Methods("GET")
	posts.HandleFunc("/{id:[0-9]+}/edit", postController.Update).Methods("POST")
	posts.HandleFunc("/{id:[0-9]+}/delete", postController.Delete).Methods("POST")
	posts.HandleFunc("/{id:[0-9]+}/like", postController.Like).Methods("POST")

	// Comments web endpoints
	posts.HandleFunc("/{postId:[0-9]+}/comments", commentController.Create).Methods("POST")
	router.HandleFunc("/comments/{id:[0-9]+}/delete", commentController.Delete).Methods("POST")
	router.HandleFunc("/comments/{id:[0-9]+}/like", commentController.Like).Methods("POST")

	// API routes with JSON content type
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.ContentTypeJSON)

	// Posts API endpoints
	apiPosts := api.PathPrefix("/posts").Subrouter()
	apiPosts.HandleFunc("", postController.Index).Methods("GET")
	apiPosts.HandleFunc("", postController.Create).Methods("POST")
	apiPosts.HandleFunc("/{id:[0-9]+}", postController.Show).Methods("GET")
	apiPosts.HandleFunc("/{id:[0-9]+}", postController.Update).Methods("PUT")
	apiPosts.HandleFunc("/{id:[0-9]+}", postController.Delete).Methods("DELETE")
	apiPosts.HandleFunc("/{id:[0-9]+}/like", postController.Like).Methods("POST")

	// Comments API endpoints
	apiPosts.HandleFunc("/{postId:[0-9]+}/comments", commentController.Index).Methods("GET")
	apiPosts.HandleFunc("/{postId:[0-9]+}/comments", commentController.Create).Methods("POST")
	api.HandleFunc("/comments/{id:[0-9]+}", commentController.Show).Methods("GET")
	api.HandleFunc("/comments/{id:[0-9]+}", commentController.Delete).Methods("DELETE")
	api.HandleFunc("/comments/{id:[0-9]+}/like", commentController.Like).Methods("POST")

	// Live thread updates
	router.HandleFunc("/ws/posts/{postId:[0-9]+}", realtime.Handler(deps.Hub, deps.Comments, websocketOrigin(c))).Methods("GET")

	return router
}

// websocketOrigin accepts same-origin clients, which send no Origin header,
// and any origin the CORS policy allows.
func websocketOrigin(c *cors.Cors) func(*http.Request) bool {
	return func(r *http.Request) bool {
		if r.Header.Get("Origin") == "" {
			return true
		}
		return c.OriginAllowed(r)
	}
}

func healthz(check func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if check != nil {
			if err := check(); err != nil {
				zerolog.Ctx(r.Context()).Error().Err(err).Msg("health check failed")
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
				return
			}
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

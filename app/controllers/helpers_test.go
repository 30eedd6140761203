package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"communityboard/app/middleware"
	"communityboard/app/models"
	"communityboard/app/realtime"
	"communityboard/app/repositories/memory"
	"communityboard/app/services"
	"communityboard/app/views"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

var (
	alice = models.Viewer{ID: "alice", Name: "Alice"}
	bob   = models.Viewer{ID: "bob", Name: "Bob"}
	carol = models.Viewer{ID: "carol", Name: "Carol"}
)

type fixture struct {
	router   *mux.Router
	posts    *services.PostService
	comments *services.CommentService
	hub      *realtime.Hub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	postRepo := memory.NewPostRepository()
	commentRepo := memory.NewCommentRepository()
	f := &fixture{hub: realtime.NewHub()}
	f.posts, f.comments = services.NewServices(postRepo, commentRepo)
	t.Cleanup(f.hub.Close)

	templates := views.MustParse()
	pc := NewPostController(f.posts, f.hub, templates, 2)
	cc := NewCommentController(f.comments, f.hub, templates)

	router := mux.NewRouter()
	router.Use(middleware.Viewer("currentUser", "Anonymous"))

	router.HandleFunc("/", pc.Index).Methods("GET")
	router.HandleFunc("/posts", pc.Index).Methods("GET")
	router.HandleFunc("/posts", pc.Create).Methods("POST")
	router.HandleFunc("/posts/new", pc.New).Methods("GET")
	router.HandleFunc("/posts/{id:[0-9]+}", pc.Show).Methods("GET")
	router.HandleFunc("/posts/{id:[0-9]+}/edit", pc.Edit).Methods("GET")
	router.HandleFunc("/posts/{id:[0-9]+}/edit", pc.Update).Methods("POST")
	router.HandleFunc("/posts/{id:[0-9]+}/delete", pc.Delete).Methods("POST")
	router.HandleFunc("/posts/{id:[0-9]+}/like", pc.Like).Methods("POST")
	router.HandleFunc("/posts/{postId:[0-9]+}/comments", cc.Create).Methods("POST")
	router.HandleFunc("/comments/{id:[0-9]+}/delete", cc.Delete).Methods("POST")
	router.HandleFunc("/comments/{id:[0-9]+}/like", cc.Like).Methods("POST")
	router.HandleFunc("/viewer", SwitchViewer).Methods("POST")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/posts", pc.Index).Methods("GET")
	api.HandleFunc("/posts", pc.Create).Methods("POST")
	api.HandleFunc("/posts/{id:[0-9]+}", pc.Show).Methods("GET")
	api.HandleFunc("/posts/{id:[0-9]+}", pc.Update).Methods("PUT")
	api.HandleFunc("/posts/{id:[0-9]+}", pc.Delete).Methods("DELETE")
	api.HandleFunc("/posts/{id:[0-9]+}/like", pc.Like).Methods("POST")
	api.HandleFunc("/posts/{postId:[0-9]+}/comments", cc.Index).Methods("GET")
	api.HandleFunc("/posts/{postId:[0-9]+}/comments", cc.Create).Methods("POST")
	api.HandleFunc("/comments/{id:[0-9]+}", cc.Show).Methods("GET")
	api.HandleFunc("/comments/{id:[0-9]+}", cc.Delete).Methods("DELETE")
	api.HandleFunc("/comments/{id:[0-9]+}/like", cc.Like).Methods("POST")

	f.router = router
	return f
}

func (f *fixture) createPost(t *testing.T, viewer models.Viewer, title string) *models.Post {
	t.Helper()
	post, err := f.posts.CreatePost(models.PostInput{Title: title, Content: title + " content"}, viewer)
	require.NoError(t, err)
	return post
}

func (f *fixture) submit(t *testing.T, postID int, viewer models.Viewer, content string, replyTo *int) *models.Comment {
	t.Helper()
	comment, _, err := f.comments.Submit(postID, viewer, content, replyTo)
	require.NoError(t, err)
	return comment
}

func (f *fixture) do(viewer models.Viewer, method, target string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if viewer.ID != "" {
		req.Header.Set(middleware.UserIDHeader, viewer.ID)
		req.Header.Set(middleware.UserNameHeader, viewer.Name)
	}
	if strings.HasPrefix(target, "/api") && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) doJSON(viewer models.Viewer, method, target string, payload interface{}) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = strings.NewReader(string(data))
	}
	return f.do(viewer, method, target, body)
}

func (f *fixture) postForm(viewer models.Viewer, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if viewer.ID != "" {
		req.Header.Set(middleware.UserIDHeader, viewer.ID)
		req.Header.Set(middleware.UserNameHeader, viewer.Name)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func threadIDs(comments []*models.Comment) []int {
	ids := make([]int, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	return ids
}

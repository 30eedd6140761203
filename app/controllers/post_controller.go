package controllers

import (
	"encoding/json"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"communityboard/app/middleware"
	"communityboard/app/models"
	"communityboard/app/realtime"
	"communityboard/app/services"
)

// PostController handles HTTP requests for board posts
type PostController struct {
	base
	postService *services.PostService
	hub         *realtime.Hub
	pageSize    int
}

// NewPostController creates a new PostController
func NewPostController(postService *services.PostService, hub *realtime.Hub, templates map[string]*template.Template, pageSize int) *PostController {
	if pageSize < 1 {
		pageSize = 10
	}
	return &PostController{
		base:        base{templates: templates},
		postService: postService,
		hub:         hub,
		pageSize:    pageSize,
	}
}

type indexPage struct {
	page
	Heading  string
	Category models.Category
	Posts    []*models.Post
	Page     int
	HasNext  bool
}

type formPage struct {
	page
	Post      *models.Post
	Input     models.PostInput
	Slots     []int
	MaxImages int
	Error     string
}

type showPage struct {
	page
	Post     *models.Post
	Comments []*models.Comment
	ReplyTo  *models.Comment
}

func newFormPage(r *http.Request, post *models.Post, in models.PostInput, message string) formPage {
	return formPage{
		page:      newPage(r),
		Post:      post,
		Input:     in,
		Slots:     make([]int, in.RemainingImageSlots()),
		MaxImages: models.MaxImages,
		Error:     message,
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil && v > 0 {
		return v
	}
	return fallback
}

// decodeInput reads the post form from a JSON body or a submitted form.
func decodeInput(r *http.Request) (models.PostInput, error) {
	var in models.PostInput
	if isAPI(r) {
		err := json.NewDecoder(r.Body).Decode(&in)
		return in, err
	}
	if err := r.ParseForm(); err != nil {
		return in, err
	}
	in.Title = r.FormValue("title")
	in.Content = r.FormValue("content")
	in.Category = models.Category(r.FormValue("category"))
	in.Images = r.Form["images"]
	return in, nil
}

// Index lists posts, newest first, optionally for one board
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.ViewerFrom(r.Context())
	category := models.Category(r.URL.Query().Get("category"))
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", pc.pageSize)

	posts, err := pc.postService.ListPosts(category, page, perPage, viewer)
	if err != nil {
		pc.fail(w, r, err)
		return
	}

	if isAPI(r) {
		pc.sendJSON(w, http.StatusOK, map[string]interface{}{
			"posts":    posts,
			"page":     page,
			"category": category,
		})
		return
	}

	heading := "All boards"
	switch {
	case category == models.CategoryHot:
		heading = "Hot"
	case category.Valid():
		heading = category.DisplayName()
	default:
		category = ""
	}
	pc.render(w, r, http.StatusOK, "index", indexPage{
		page:     newPage(r),
		Heading:  heading,
		Category: category,
		Posts:    posts,
		Page:     page,
		HasNext:  len(posts) == perPage,
	})
}

// New displays the form for creating a new post
func (pc *PostController) New(w http.ResponseWriter, r *http.Request) {
	in := models.PostInput{Category: models.Category(r.URL.Query().Get("category"))}
	in.Normalize()
	pc.render(w, r, http.StatusOK, "form", newFormPage(r, nil, in, ""))
}

// Show displays a post with its organized comment thread
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		pc.sendError(w, r, "Invalid post ID", http.StatusBadRequest)
		return
	}

	post, err := pc.postService.GetPost(id, middleware.ViewerFrom(r.Context()))
	if err != nil {
		// A missing post sends browsers back to the board.
		if !isAPI(r) && services.IsNotFound(err) {
			pc.redirect(w, r, "/")
			return
		}
		pc.fail(w, r, err)
		return
	}

	if isAPI(r) {
		pc.sendJSON(w, http.StatusOK, post)
		return
	}

	data := showPage{page: newPage(r), Post: post, Comments: post.Comments}
	if replyTo, err := strconv.Atoi(r.URL.Query().Get("reply_to")); err == nil {
		for _, c := range post.Comments {
			if c.ID == replyTo {
				data.ReplyTo = c
				break
			}
		}
	}
	pc.render(w, r, http.StatusOK, "show", data)
}

// Create handles creating a new post
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	in, err := decodeInput(r)
	if err != nil {
		pc.sendError(w, r, "Invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	post, err := pc.postService.CreatePost(in, middleware.ViewerFrom(r.Context()))
	if err != nil {
		if !isAPI(r) && statusFor(err) == http.StatusBadRequest {
			in.Normalize()
			pc.render(w, r, http.StatusBadRequest, "form", newFormPage(r, nil, in, err.Error()))
			return
		}
		pc.fail(w, r, err)
		return
	}

	if isAPI(r) {
		pc.sendJSON(w, http.StatusCreated, post)
		return
	}
	pc.redirect(w, r, "/posts/"+strconv.Itoa(post.ID))
}

// Edit displays the edit form of the viewer's post
func (pc *PostController) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		pc.sendError(w, r, "Invalid post ID", http.StatusBadRequest)
		return
	}

	viewer := middleware.ViewerFrom(r.Context())
	post, err := pc.postService.GetPost(id, viewer)
	if err != nil {
		if services.IsNotFound(err) {
			pc.redirect(w, r, "/")
			return
		}
		pc.fail(w, r, err)
		return
	}
	if !post.WrittenBy(viewer.ID) {
		pc.sendError(w, r, "Only the author can edit this post", http.StatusForbidden)
		return
	}

	pc.render(w, r, http.StatusOK, "form", newFormPage(r, post, models.InputFrom(post), ""))
}

// Update saves changes to the viewer's post
func (pc *PostController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		pc.sendError(w, r, "Invalid post ID", http.StatusBadRequest)
		return
	}

	in, err := decodeInput(r)
	if err != nil {
		pc.sendError(w, r, "Invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	post, err := pc.postService.UpdatePost(id, in, middleware.ViewerFrom(r.Context()))
	if err != nil {
		pc.fail(w, r, err)
		return
	}

	if isAPI(r) {
		pc.sendJSON(w, http.StatusOK, post)
		return
	}
	pc.redirect(w, r, "/posts/"+strconv.Itoa(post.ID))
}

// Delete handles deleting a post and its comments
func (pc *PostController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		pc.sendError(w, r, "Invalid post ID", http.StatusBadRequest)
		return
	}

	if err := pc.postService.DeletePost(id, middleware.ViewerFrom(r.Context())); err != nil {
		pc.fail(w, r, err)
		return
	}
	pc.hub.Publish(id)

	if isAPI(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	pc.redirect(w, r, "/")
}

// Like toggles the viewer's like on a post
func (pc *PostController) Like(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		pc.sendError(w, r, "Invalid post ID", http.StatusBadRequest)
		return
	}

	post, err := pc.postService.TogglePostLike(id, middleware.ViewerFrom(r.Context()))
	if err != nil {
		pc.fail(w, r, err)
		return
	}

	if isAPI(r) {
		pc.sendJSON(w, http.StatusOK, post)
		return
	}
	pc.redirect(w, r, "/posts/"+strconv.Itoa(post.ID))
}

// SwitchViewer stores the viewer id submitted from the layout in a cookie.
// There is no authentication; the cookie only selects who the board acts as.
func SwitchViewer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	cookie := &http.Cookie{
		Name:     middleware.ViewerCookie,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if id := strings.TrimSpace(r.FormValue("viewer")); id != "" {
		cookie.Value = url.QueryEscape(id)
	} else {
		cookie.MaxAge = -1
	}
	http.SetCookie(w, cookie)

	returnTo := r.FormValue("return_to")
	if !strings.HasPrefix(returnTo, "/") || strings.HasPrefix(returnTo, "//") {
		returnTo = "/"
	}
	http.Redirect(w, r, returnTo, http.StatusSeeOther)
}

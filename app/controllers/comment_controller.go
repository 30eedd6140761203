package controllers

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"communityboard/app/middleware"
	"communityboard/app/models"
	"communityboard/app/realtime"
	"communityboard/app/services"

	"golang.org/x/crypto/sha3"
)

// CommentController handles HTTP requests for comments
type CommentController struct {
	base
	commentService *services.CommentService
	hub            *realtime.Hub
}

// NewCommentController creates a new CommentController
func NewCommentController(commentService *services.CommentService, hub *realtime.Hub, templates map[string]*template.Template) *CommentController {
	return &CommentController{
		base:           base{templates: templates},
		commentService: commentService,
		hub:            hub,
	}
}

// commentRequest is the JSON body of a new comment.
type commentRequest struct {
	Content string `json:"content"`
	ReplyTo *int   `json:"replyTo"`
}

func postURL(postID int) string {
	return "/posts/" + strconv.Itoa(postID)
}

// etag fingerprints a response body.
func etag(body []byte) string {
	sum := sha3.Sum256(body)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// Index returns the organized thread of a post. Clients polling the thread
// can send the last ETag in If-None-Match.
func (cc *CommentController) Index(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(r, "postId")
	if !ok {
		cc.sendError(w, r, "Invalid post ID", http.StatusBadRequest)
		return
	}

	thread, err := cc.commentService.Thread(postID, middleware.ViewerFrom(r.Context()))
	if err != nil {
		cc.fail(w, r, err)
		return
	}

	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(map[string]interface{}{"thread": thread}); err != nil {
		cc.fail(w, r, err)
		return
	}

	tag := etag(body.Bytes())
	w.Header().Set("ETag", tag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, tag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body.Bytes())
}

// Show returns a single comment
func (cc *CommentController) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		cc.sendError(w, r, "Invalid comment ID", http.StatusBadRequest)
		return
	}

	comment, err := cc.commentService.GetComment(id, middleware.ViewerFrom(r.Context()))
	if err != nil {
		cc.fail(w, r, err)
		return
	}
	cc.sendJSON(w, http.StatusOK, comment)
}

// Create submits a comment, or a reply when reply_to names a comment of the
// same post.
func (cc *CommentController) Create(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(r, "postId")
	if !ok {
		cc.sendError(w, r, "Invalid post ID", http.StatusBadRequest)
		return
	}

	var req commentRequest
	if isAPI(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			cc.sendError(w, r, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			cc.sendError(w, r, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
			return
		}
		req.Content = r.FormValue("content")
		if v := r.FormValue("reply_to"); v != "" {
			replyTo, err := strconv.Atoi(v)
			if err != nil {
				cc.sendError(w, r, "Invalid reply target", http.StatusBadRequest)
				return
			}
			req.ReplyTo = &replyTo
		}
	}

	comment, thread, err := cc.commentService.Submit(postID, middleware.ViewerFrom(r.Context()), req.Content, req.ReplyTo)
	if err != nil {
		cc.fail(w, r, err)
		return
	}
	cc.hub.Publish(postID)

	if isAPI(r) {
		cc.sendJSON(w, http.StatusCreated, map[string]interface{}{
			"comment": comment,
			"thread":  thread,
		})
		return
	}
	cc.redirect(w, r, postURL(postID)+"#comment-"+strconv.Itoa(comment.ID))
}

// Delete removes the viewer's comment, leaving a tombstone while it still
// has replies.
func (cc *CommentController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		cc.sendError(w, r, "Invalid comment ID", http.StatusBadRequest)
		return
	}

	viewer := middleware.ViewerFrom(r.Context())
	comment, err := cc.commentService.GetComment(id, viewer)
	if err != nil {
		cc.fail(w, r, err)
		return
	}

	thread, err := cc.commentService.Delete(id, viewer)
	if err != nil {
		cc.fail(w, r, err)
		return
	}
	cc.hub.Publish(comment.PostID)

	if isAPI(r) {
		cc.sendJSON(w, http.StatusOK, map[string][]*models.Comment{"thread": thread})
		return
	}
	cc.redirect(w, r, postURL(comment.PostID))
}

// Like toggles the viewer's like on a comment
func (cc *CommentController) Like(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		cc.sendError(w, r, "Invalid comment ID", http.StatusBadRequest)
		return
	}

	comment, err := cc.commentService.ToggleLike(id, middleware.ViewerFrom(r.Context()))
	if err != nil {
		cc.fail(w, r, err)
		return
	}
	cc.hub.Publish(comment.PostID)

	if isAPI(r) {
		cc.sendJSON(w, http.StatusOK, comment)
		return
	}
	cc.redirect(w, r, postURL(comment.PostID)+"#comment-"+strconv.Itoa(comment.ID))
}

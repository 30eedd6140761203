package controllers

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"communityboard/app/middleware"
	"communityboard/app/models"
	"communityboard/app/services"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// page carries what the layout needs on every screen.
type page struct {
	Viewer models.Viewer
	Path   string
}

func newPage(r *http.Request) page {
	return page{Viewer: middleware.ViewerFrom(r.Context()), Path: r.URL.RequestURI()}
}

// base holds the response helpers shared by the controllers.
type base struct {
	templates map[string]*template.Template
}

// isAPI reports whether the request wants JSON.
func isAPI(r *http.Request) bool {
	return r.Header.Get("Accept") == "application/json" || strings.HasPrefix(r.URL.Path, "/api")
}

func pathID(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	return id, err == nil && id > 0
}

// statusFor maps a service error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case services.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrAlreadyDeleted):
		return http.StatusConflict
	case services.IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (b *base) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (b *base) sendError(w http.ResponseWriter, r *http.Request, message string, status int) {
	if isAPI(r) {
		b.sendJSON(w, status, map[string]string{"error": message})
		return
	}
	http.Error(w, message, status)
}

// fail reports a service error. Server errors are logged and their details
// kept from the client.
func (b *base) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		message = "Internal server error"
	}
	b.sendError(w, r, message, status)
}

func (b *base) render(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := b.templates[name].ExecuteTemplate(w, "layout", data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("template", name).Msg("template error")
	}
}

func (b *base) redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}

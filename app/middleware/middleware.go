package middleware

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"communityboard/app/models"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

const (
	// UserIDHeader and UserNameHeader carry the viewer identity for API clients.
	UserIDHeader   = "X-User-ID"
	UserNameHeader = "X-User-Name"
	// ViewerCookie carries the viewer id for browser sessions.
	ViewerCookie = "viewer"
)

type viewerKey struct{}

// statusRecorder remembers the status code and size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// Hijack hands the connection over for websocket upgrades.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Logger attaches a request scoped logger to the context and writes one
// access log line per request.
func Logger(logger zerolog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLogger := logger.With().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Logger()

			ctx := reqLogger.WithContext(r.Context())
			// Later middleware may add fields, so log through the context copy.
			l := zerolog.Ctx(ctx)

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			event := l.Info()
			if rec.status >= http.StatusInternalServerError {
				event = l.Error()
			}
			event.
				Int("status", rec.status).
				Int("bytes", rec.bytes).
				Dur("took", time.Since(start)).
				Msg("request")
		})
	}
}

// Recoverer recovers from panics and logs the error
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				zerolog.Ctx(r.Context()).Error().Interface("panic", err).Msg("recovered from panic")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// ContentTypeJSON sets the Content-Type header to application/json for API routes
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api") {
			w.Header().Set("Content-Type", "application/json")
		}
		next.ServeHTTP(w, r)
	})
}

// Viewer resolves who is making the request. The X-User-ID header wins over
// the viewer cookie; without either the default viewer id is used. The
// display name comes from X-User-Name and falls back to anonymousName.
func Viewer(defaultID, anonymousName string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer := models.Viewer{
				ID:   strings.TrimSpace(r.Header.Get(UserIDHeader)),
				Name: strings.TrimSpace(r.Header.Get(UserNameHeader)),
			}
			if viewer.ID == "" {
				if c, err := r.Cookie(ViewerCookie); err == nil {
					if id, err := url.QueryUnescape(c.Value); err == nil {
						viewer.ID = strings.TrimSpace(id)
					}
				}
			}
			if viewer.ID == "" {
				viewer.ID = defaultID
			}
			if viewer.Name == "" {
				viewer.Name = anonymousName
			}

			ctx := context.WithValue(r.Context(), viewerKey{}, viewer)
			zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("viewer", viewer.ID)
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ViewerFrom returns the viewer stored by the Viewer middleware.
func ViewerFrom(ctx context.Context) models.Viewer {
	viewer, _ := ctx.Value(viewerKey{}).(models.Viewer)
	return viewer
}

// WithViewer returns a context carrying viewer. Handlers under test use it in
// place of the middleware.
func WithViewer(ctx context.Context, viewer models.Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, viewer)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"communityboard/app/config"
	"communityboard/app/realtime"
	"communityboard/app/repositories"
	"communityboard/app/repositories/memory"
	"communityboard/app/routes"
	"communityboard/app/services"
	"communityboard/app/views"

	"github.com/rs/zerolog"
)

// App is the assembled board service: storage, services, router and hub.
type App struct {
	cfg     *config.Config
	logger  zerolog.Logger
	hub     *realtime.Hub
	handler http.Handler
	closers []func() error
}

type storage struct {
	posts    repositories.PostRepository
	comments repositories.CommentRepository
	health   func() error
	close    func() error
}

func openStorage(cfg *config.Config, logger zerolog.Logger) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return &storage{
			posts:    memory.NewPostRepository(),
			comments: memory.NewCommentRepository(),
			close:    func() error { return nil },
		}, nil
	case config.DriverBadger:
		store, err := repositories.Open(cfg.Storage.Path, logger)
		if err != nil {
			return nil, err
		}
		return &storage{
			posts:    store.Posts,
			comments: store.Comments,
			health: func() error {
				if store.DB().IsClosed() {
					return errors.New("database is closed")
				}
				return nil
			},
			close: store.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// NewApp opens storage and builds the HTTP handler.
func NewApp(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	store, err := openStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	templates, err := views.Parse()
	if err != nil {
		store.close()
		return nil, err
	}

	hub := realtime.NewHub()
	posts, comments := services.NewServices(store.posts, store.comments)
	handler := routes.New(routes.Deps{
		Posts:          posts,
		Comments:       comments,
		Hub:            hub,
		Templates:      templates,
		Logger:         logger,
		DefaultViewer:  cfg.Board.DefaultViewer,
		AnonymousName:  cfg.Board.AnonymousName,
		PageSize:       cfg.Board.PageSize,
		AllowedOrigins: cfg.Board.AllowedOrigins,
		Health:         store.health,
	})

	return &App{
		cfg:     cfg,
		logger:  logger,
		hub:     hub,
		handler: handler,
		closers: []func() error{store.close},
	}, nil
}

// Handler returns the board's HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully within the configured timeout.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      a.handler,
		ReadTimeout:  a.cfg.HTTPServer.ReadTimeout,
		WriteTimeout: a.cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  a.cfg.HTTPServer.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("address", ln.Addr().String()).Str("storage", a.cfg.Storage.Driver).Msg("starting board service")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info().Msg("shutting down board service")
	// Websocket connections are hijacked, so Shutdown does not wait for them.
	a.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPServer.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Close releases the hub and storage.
func (a *App) Close() error {
	a.hub.Close()
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RunAppServer starts the board service on the configured address and blocks
// until ctx is cancelled.
func RunAppServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	app, err := NewApp(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	ln, err := net.Listen("tcp", cfg.HTTPServer.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.HTTPServer.Address, err)
	}
	return app.Serve(ctx, ln)
}

// Package dashboard serves the interactive denial dashboard over HTTP.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gyeh/denial-dash/internal/asset"
	"github.com/gyeh/denial-dash/internal/export"
	"github.com/gyeh/denial-dash/internal/filter"
)

// Options configures a Server.
type Options struct {
	Seed         int64 // used as given; 0 is a valid seed
	LogoPath     string
	DefaultRange filter.DateRange
	SessionTTL   time.Duration
	Title        string
	Now          func() time.Time
}

// Server holds the router and per-visitor session state.
type Server struct {
	opts     Options
	sessions *SessionStore
	page     *template.Template
	router   chi.Router
}

// New builds a Server, filling zero options with defaults.
func New(opts Options) *Server {
	if opts.LogoPath == "" {
		opts.LogoPath = asset.DefaultLogoPath
	}
	if opts.DefaultRange == "" {
		opts.DefaultRange = filter.DefaultDateRange
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	if opts.Title == "" {
		opts.Title = export.DefaultTitle
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		opts:     opts,
		sessions: NewSessionStore(opts.Seed, opts.SessionTTL, opts.Now),
		page:     template.Must(template.New("page").Funcs(funcs).Parse(pageTemplate)),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/", s.handleDashboard)
	r.Get("/logo", s.handleLogo)
	r.Get("/charts/{chart}.png", s.handleChartPNG)
	r.Get("/export/{format}", s.handleExport)

	r.Get("/api/health", handleHealth)
	r.Get("/api/options", s.handleOptions)
	r.Get("/api/kpis", s.handleKPIs)
	r.Get("/api/charts/{chart}", s.handleChartData)
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions exposes the session store.
func (s *Server) Sessions() *SessionStore {
	return s.sessions
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go s.sessions.Janitor(janitorCtx, time.Minute)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("dashboard listening addr=%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Printf("dashboard shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}

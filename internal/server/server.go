// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the wiring layer. It decides which URL maps to which
// handler, which middleware runs where, and how the server stops.
//
// DEPENDENCY INJECTION FLOW:
// main.go creates:
//
//	config → document store → IntakeService, CardService
//	       → rasterizer (rod, docker or disabled)
//	       → wizard.TokenService
//
// and hands them to New, which builds the handlers. Handlers only ever see
// the services; services only ever see the repository interface.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/sakif/business-cards/internal/config"
	"github.com/sakif/business-cards/internal/handler"
	"github.com/sakif/business-cards/internal/middleware"
	"github.com/sakif/business-cards/internal/rasterizer"
	"github.com/sakif/business-cards/internal/service"
	"github.com/sakif/business-cards/internal/wizard"
	"github.com/sakif/business-cards/web"
)

// shutdownTimeout is how long in-flight requests get after a signal.
const shutdownTimeout = 30 * time.Second

// Deps are the long-lived components the server routes to. The caller owns
// them and closes the store and the rasterizer after Run returns.
type Deps struct {
	Intake *service.IntakeService
	Cards  *service.CardService
	Raster rasterizer.Rasterizer
	Tokens *wizard.TokenService
}

// Server represents the HTTP server and all its dependencies.
type Server struct {
	router   *chi.Mux
	sessions *scs.SessionManager
	config   *config.Config
	deps     Deps
	logger   *slog.Logger
}

// New builds the router. Nothing is listening until Run is called.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) (*Server, error) {
	if deps.Raster == nil {
		deps.Raster = rasterizer.Disabled{}
	}

	sessions := scs.New()
	sessions.Lifetime = cfg.Session.Lifetime
	sessions.Cookie.Name = cfg.Session.CookieName
	sessions.Cookie.HttpOnly = true
	sessions.Cookie.Secure = cfg.Session.Secure
	sessions.Cookie.SameSite = http.SameSiteLaxMode

	s := &Server{
		router:   chi.NewRouter(),
		sessions: sessions,
		config:   cfg,
		deps:     deps,
		logger:   logger,
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the router, for tests and for embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /                        → intake form (HTML)
// POST   /                        → submit profile, start a draft
// GET    /customize               → configurator          [draft]
// POST   /customize/preview       → card fragment         [draft, 401 JSON]
// POST   /customize/export        → PNG download or 204   [draft, 401 JSON]
// POST   /customize/save          → save, go to share     [draft]
// GET    /share/{id}              → locator + QR code
// GET    /card/{id}               → read-only card
// GET    /card/{id}/image.png     → card as PNG or 204
// GET    /card/{id}/qr.png        → QR of the locator
// POST   /api/profiles            → JSON intake
// POST   /api/cards               → JSON save             [draft]
// GET    /api/cards/{id}          → JSON card + links
// GET    /healthz                 → liveness
// GET    /static/*                → embedded CSS and JS
//
// MIDDLEWARE ORDER MATTERS:
// RequestID runs first so the logger sees the id; Recoverer sits inside the
// logger so a panic is logged as the 500 it becomes.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.MaxBytes(s.config.HTTP.MaxBodyBytes))

	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("opening static files: %w", err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	s.router.Get("/healthz", handler.HandleHealth)

	pages, err := handler.NewPages(web.Templates, s.logger)
	if err != nil {
		return fmt.Errorf("parsing templates: %w", err)
	}

	links := handler.ShareLinks{BaseURL: s.config.HTTP.BaseURL}
	secure := s.config.Session.Secure

	intakeHandler := handler.NewIntakeHandler(s.deps.Intake, s.deps.Tokens, s.sessions, pages, secure, s.logger)
	customizeHandler := handler.NewCustomizeHandler(s.deps.Intake, s.deps.Cards, s.deps.Raster, s.sessions, pages, links, s.logger)
	cardHandler := handler.NewCardHandler(s.deps.Cards, s.deps.Raster, pages, links, s.logger)
	apiHandler := handler.NewAPIHandler(s.deps.Intake, s.deps.Cards, s.deps.Tokens, links, secure, s.logger)

	// === Pages ===
	// Only the browser wizard uses the session, for its flash statuses.
	s.router.Group(func(r chi.Router) {
		r.Use(s.sessions.LoadAndSave)

		r.Get("/", intakeHandler.HandleForm)
		r.Post("/", intakeHandler.HandleSubmit)

		r.Group(func(r chi.Router) {
			r.Use(wizard.RequireDraft(s.deps.Tokens, handler.RejectPage))
			r.Get("/customize", customizeHandler.HandleCustomize)
			r.Post("/customize/save", customizeHandler.HandleSave)
		})

		// Called with fetch from the configurator script, which reads JSON
		// errors; a redirect would be followed and land in the preview.
		r.Group(func(r chi.Router) {
			r.Use(wizard.RequireDraft(s.deps.Tokens, handler.RejectAPI))
			r.Post("/customize/preview", customizeHandler.HandlePreview)
			r.Post("/customize/export", customizeHandler.HandleExport)
		})

		r.Get("/share/{id}", customizeHandler.HandleShare)
	})

	s.router.Get("/card/{id}", cardHandler.HandleView)
	s.router.Get("/card/{id}/image.png", cardHandler.HandleImage)
	s.router.Get("/card/{id}/qr.png", cardHandler.HandleQR)

	// === API ===
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/profiles", apiHandler.HandleCreateProfile)
		r.With(wizard.RequireDraft(s.deps.Tokens, handler.RejectAPI)).Post("/cards", apiHandler.HandleCreateCard)
		r.Get("/cards/{id}", apiHandler.HandleGetCard)
	})

	return nil
}

// Run serves until ctx is cancelled or the process receives SIGINT/SIGTERM,
// then gives in-flight requests shutdownTimeout to finish.
//
// Two goroutines in one errgroup: the listener, and the one waiting for the
// stop signal. Whichever finishes first cancels the other.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.HTTP.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.HTTP.ReadTimeout,
		WriteTimeout: s.config.HTTP.WriteTimeout,
		IdleTimeout:  s.config.HTTP.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server starting",
			slog.Int("port", s.config.HTTP.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.HTTP.Port)),
			slog.String("storage", s.config.Storage.Driver),
			slog.String("rasterizer", s.config.Rasterizer.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
		return nil
	})

	return g.Wait()
}

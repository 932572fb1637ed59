// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: every dependency is built in New and handed
// down, so no other package constructs its own collaborators.
//
//	sqlite.DB ──┬─► AuthService ─────► AuthHandler
//	            ├─► ContentService ──► PageHandler, PostHandler, APIHandler
//	            └─► SessionManager ──► auth.LoadIdentity, AuthHandler
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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/handler"
	"github.com/sakif/blog/internal/middleware"
	sqliteRepo "github.com/sakif/blog/internal/repository/sqlite"
	"github.com/sakif/blog/internal/service"
	"github.com/sakif/blog/web"
)

// Config holds server configuration. cmd/server fills it from the
// environment.
type Config struct {
	Port   int
	DBPath string

	// SessionSecret signs session tokens and the flash cookie. It must be at
	// least auth.MinSecretLength bytes.
	SessionSecret string
	SessionTTL    time.Duration
	CookieSecure  bool

	// BcryptCost overrides the password hashing cost. Zero keeps the
	// default; tests use bcrypt.MinCost.
	BcryptCost int

	// GitHub sign-in is enabled only when both the client ID and secret are
	// set.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

func (c Config) githubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// Server represents the HTTP server and all its dependencies. It owns the
// database connection and closes it on shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database, builds the services and handlers, and registers
// every route.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Router exposes the route tree, e.g. for docgen.
func (s *Server) Router() chi.Router {
	return s.router
}

// Handler returns the root http.Handler. Tests serve it with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Start calls it on shutdown; tests that never
// call Start close the server themselves.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes configures middleware and the route table.
//
// GET       /                         → home page, every post
// GET/POST  /register                 → registration form
// GET/POST  /login                    → login form
// GET       /logout                   → end session
// GET/POST  /post/{id}                → post with comments; POST adds a comment
// GET/POST  /new-post                 → admin: create post
// GET/POST  /edit-post/{id}           → admin: edit post
// GET       /delete/{id}              → admin: delete post
// GET       /about, /contact          → static pages
// GET       /auth/github/login        → GitHub sign-in (when configured)
// GET       /auth/github/callback
// GET       /api/posts                → JSON list of posts
// GET       /api/posts/{id}           → JSON post with comments
// GET       /static/*                 → embedded CSS
//
// Middleware runs in the order added. LoadIdentity wraps only the HTML pages;
// the JSON API is read-only and anonymous.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// === Credentials and sessions ===
	passwords := auth.NewPasswordService()
	if s.config.BcryptCost > 0 {
		passwords = auth.NewPasswordServiceWithCost(s.config.BcryptCost)
	}

	tokens, err := auth.NewTokenService(s.config.SessionSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	sessions := auth.NewSessionManager(tokens, s.db, s.config.SessionTTL, s.logger)

	var github *auth.GitHubProvider
	if s.config.githubEnabled() {
		github = auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
	}

	// === Services ===
	authService := service.NewAuthService(s.db, passwords, s.logger)
	contentService := service.NewContentService(s.db, s.db, s.logger)

	// === Views ===
	flashes := handler.NewFlashStore(s.config.SessionSecret, s.config.CookieSecure, s.logger)
	view, err := handler.NewView(web.FS, flashes, authService, github != nil, s.logger)
	if err != nil {
		return fmt.Errorf("creating view: %w", err)
	}

	pages := handler.NewPageHandler(view, contentService)
	posts := handler.NewPostHandler(view, contentService)
	authHandler := handler.NewAuthHandler(view, authService, sessions, github, s.config.CookieSecure, s.logger)
	api := handler.NewAPIHandler(contentService, s.logger)

	// === Static files ===
	static, err := fs.Sub(web.FS, "static")
	if err != nil {
		return fmt.Errorf("opening static files: %w", err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	// === JSON API ===
	s.router.Route("/api/posts", func(r chi.Router) {
		r.Get("/", api.HandleListPosts)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(api.PostCtx)
			r.Get("/", api.HandleGetPost)
		})
	})

	// === HTML pages ===
	s.router.Group(func(r chi.Router) {
		r.Use(auth.LoadIdentity(sessions))

		r.Get("/", pages.HandleHome)
		r.Get("/about", pages.HandleAbout)
		r.Get("/contact", pages.HandleContact)

		r.Get("/register", authHandler.HandleRegisterForm)
		r.Post("/register", authHandler.HandleRegister)
		r.Get("/login", authHandler.HandleLoginForm)
		r.Post("/login", authHandler.HandleLogin)
		r.Get("/logout", authHandler.HandleLogout)

		if github != nil {
			r.Get("/auth/github/login", authHandler.HandleGitHubLogin)
			r.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
		}

		r.Get("/post/{id}", posts.HandleShow)
		r.Post("/post/{id}", posts.HandleComment)

		r.Get("/new-post", posts.HandleNewForm)
		r.Post("/new-post", posts.HandleCreate)
		r.Get("/edit-post/{id}", posts.HandleEditForm)
		r.Post("/edit-post/{id}", posts.HandleUpdate)
		r.Get("/delete/{id}", posts.HandleDelete)
	})

	// The 404 page shows the navbar, so it needs the identity too.
	s.router.NotFound(auth.LoadIdentity(sessions)(http.HandlerFunc(pages.HandleNotFound)).ServeHTTP)

	if github != nil {
		s.logger.Info("GitHub sign-in enabled", slog.String("callback", s.config.GitHubCallbackURL))
	}
	return nil
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to 30 seconds and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

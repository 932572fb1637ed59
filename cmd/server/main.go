// Package main is the entry point for the blog server.
//
// main only reads configuration, builds the logger and hands both to
// internal/server. Everything else lives in internal/.
//
// Configuration (environment):
//
//	PORT                  listen port (8080)
//	DB_PATH               SQLite file (data/blog.db)
//	SESSION_SECRET        signs session tokens and flash cookies, >= 16 chars
//	SESSION_TTL           session lifetime as a Go duration (24h)
//	COOKIE_SECURE         mark cookies Secure; set behind HTTPS (false)
//	LOG_LEVEL             debug, info, warn or error (info)
//	GITHUB_CLIENT_ID      enables GitHub sign-in together with the secret
//	GITHUB_CLIENT_SECRET
//	GITHUB_CALLBACK_URL   (http://localhost:PORT/auth/github/callback)
//
// Run with -routes to print the route table as Markdown and exit.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/docgen"

	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/server"
)

func main() {
	routes := flag.Bool("routes", false, "print the route table as Markdown and exit")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
	}))

	cfg, err := loadConfig(logger)
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *routes {
		// An in-memory database keeps route printing free of side effects.
		cfg.DBPath = ":memory:"
	} else {
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *routes {
		fmt.Println(docgen.MarkdownRoutesDoc(srv.Router(), docgen.MarkdownOpts{
			ProjectPath: "github.com/sakif/blog",
			Intro:       "Routes served by the blog.",
		}))
		srv.Close()
		return
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func loadConfig(logger *slog.Logger) (server.Config, error) {
	cfg := server.Config{
		Port:       8080,
		DBPath:     "data/blog.db",
		SessionTTL: auth.DefaultSessionTTL,
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("PORT: %w", err)
		}
		cfg.Port = port
	}

	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}

	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return cfg, err
		}
		cfg.SessionSecret = secret
		logger.Warn("SESSION_SECRET not set; using a random secret, sessions end on restart")
	}

	if v := os.Getenv("SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("SESSION_TTL: %w", err)
		}
		cfg.SessionTTL = ttl
	}

	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("COOKIE_SECURE: %w", err)
		}
		cfg.CookieSecure = secure
	}

	cfg.GitHubClientID = os.Getenv("GITHUB_CLIENT_ID")
	cfg.GitHubClientSecret = os.Getenv("GITHUB_CLIENT_SECRET")
	cfg.GitHubCallbackURL = os.Getenv("GITHUB_CALLBACK_URL")
	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	return cfg, nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

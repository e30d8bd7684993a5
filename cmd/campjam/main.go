// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/campjam-go/internal/admin"
	"github.com/olegiv/campjam-go/internal/auth"
	"github.com/olegiv/campjam-go/internal/cache"
	"github.com/olegiv/campjam-go/internal/config"
	"github.com/olegiv/campjam-go/internal/contact"
	"github.com/olegiv/campjam-go/internal/content"
	"github.com/olegiv/campjam-go/internal/gallery"
	"github.com/olegiv/campjam-go/internal/handler"
	"github.com/olegiv/campjam-go/internal/invite"
	"github.com/olegiv/campjam-go/internal/logging"
	"github.com/olegiv/campjam-go/internal/mail"
	"github.com/olegiv/campjam-go/internal/render"
	"github.com/olegiv/campjam-go/internal/review"
	"github.com/olegiv/campjam-go/internal/scheduler"
	"github.com/olegiv/campjam-go/internal/service"
	"github.com/olegiv/campjam-go/internal/session"
	"github.com/olegiv/campjam-go/internal/store"
	"github.com/olegiv/campjam-go/internal/version"
	"github.com/olegiv/campjam-go/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "CampJam Flooring - website and review dashboard\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CAMPJAM_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CAMPJAM_DB_PATH           SQLite database path (default: ./data/campjam.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CAMPJAM_MEDIA_DIR         Uploaded media directory served at /media (default: ./data/media)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CAMPJAM_SERVER_HOST       Listen host (default: localhost)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CAMPJAM_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CAMPJAM_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CAMPJAM_SITE_URL          Public base URL used in emailed links\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CAMPJAM_RESEND_API_KEY    Resend API key; empty disables outgoing mail\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CAMPJAM_MAIL_FROM         Sender address for outgoing mail\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CAMPJAM_NOTIFY_EMAIL      Inbox for contact form notifications\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CAMPJAM_REDIS_URL         Redis URL for the review cache (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CAMPJAM_BOOTSTRAP_ADMIN   Email allow-listed on first start\n")
	}

	flag.Parse()

	// Handle -h/-help flag
	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	// Handle -v/-version flag
	if *showVersion {
		_, _ = fmt.Println(versionInfo.String())
		os.Exit(0)
	}

	if err := run(versionInfo); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(versionInfo version.Info) error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	for _, dir := range []string{filepath.Dir(cfg.DBPath), cfg.MediaDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	sessionManager := session.New(db, cfg.IsDevelopment())

	site, err := content.Default()
	if err != nil {
		return fmt.Errorf("loading site content: %w", err)
	}
	catalog, err := gallery.Default()
	if err != nil {
		return fmt.Errorf("loading project catalog: %w", err)
	}

	renderer, err := render.New(render.Config{
		TemplatesFS:    web.Templates,
		SessionManager: sessionManager,
		Site:           site,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	backend := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: cfg.CacheDuration(),
	}, logger)
	defer func() {
		if err := backend.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()

	// A nil *ResendSender must not become a non-nil interface.
	var sender mail.Sender
	if rs := mail.NewResendSender(cfg.ResendAPIKey, cfg.MailFrom, logger); rs != nil {
		sender = rs
	} else {
		slog.Warn("CAMPJAM_RESEND_API_KEY is not set; invitations and contact notifications are disabled")
	}

	provider := auth.NewProvider(db, cfg.SiteURL)
	issuer := invite.NewIssuer(provider, sender, logger)
	admins := admin.NewService(db, provider, issuer, logger)
	reviews := review.NewService(db, cache.NewReviewCache(backend, cfg.CacheDuration(), logger), logger)
	contacts := contact.NewService(db, sender, cfg.NotifyEmail, logger)
	events := service.NewEventService(db)

	ctx := context.Background()
	res, err := admins.Bootstrap(ctx, cfg.BootstrapAdmin)
	if err != nil {
		return fmt.Errorf("bootstrapping admin: %w", err)
	}
	if res.Link != "" {
		// Printed, not logged, so the link does not end up in the event log.
		_, _ = fmt.Fprintf(os.Stderr, "\nSet the password for %s within 24 hours:\n  %s\n\n", cfg.BootstrapAdmin, res.Link)
	}

	jobs := scheduler.New(logger)
	if err := jobs.RegisterMaintenance(provider, events, cfg.EventRetention()); err != nil {
		return fmt.Errorf("registering maintenance jobs: %w", err)
	}
	jobs.Start()
	defer jobs.Stop()

	router, err := handler.NewRouter(handler.Deps{
		DB:             db,
		SessionManager: sessionManager,
		Renderer:       renderer,
		Reviews:        reviews,
		Contacts:       contacts,
		Catalog:        catalog,
		Admins:         admins,
		Provider:       provider,
		Inviter:        issuer,
		Events:         events,
		Cache:          backend,
		Jobs:           jobs,
		Version:        versionInfo,
		MailEnabled:    sender != nil,
		IsDev:          cfg.IsDevelopment(),
		LogRequests:    true,
		CSRFKey:        []byte(cfg.SessionSecret),
		MediaDir:       cfg.MediaDir,
		SiteURL:        cfg.SiteURL,
	})
	if err != nil {
		return fmt.Errorf("building router: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", versionInfo.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

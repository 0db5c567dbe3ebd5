// Package main is the entry point for the docshare server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"docshare/internal/cache"
	"docshare/internal/config"
	"docshare/internal/convert"
	"docshare/internal/database"
	"docshare/internal/handlers"
	"docshare/internal/ingest"
	"docshare/internal/preview"
	"docshare/internal/router"
	"docshare/internal/session"
	"docshare/internal/storage"
	"docshare/internal/store"
)

func main() {
	// Optional .env for local development; real deployments use the environment.
	godotenv.Load()

	// Structured logger — outputs JSON in production, text in development.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed the initial admin account and starter categories (no-op if
	// users already exist).
	if err := database.Seed(db); err != nil {
		slog.Error("failed to seed database", "error", err)
		os.Exit(1)
	}

	// Connect to Valkey (sessions + download counting gate).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	sessionStore := session.NewStore(valkeyClient)
	downloadGate := cache.NewDownloadGate(valkeyClient)

	// Start libvips for PDF preview rendering.
	preview.Startup(0)
	defer preview.Shutdown()

	// Local blob storage for document artifacts and cached previews.
	blobs, err := storage.New(cfg.UploadsDir(), cfg.ThumbsDir())
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	docStore := store.NewDocumentStore(db)
	categoryStore := store.NewCategoryStore(db)
	walletStore := store.NewWalletStore(db)
	commentStore := store.NewCommentStore(db)
	likeStore := store.NewLikeStore(db)
	reportStore := store.NewReportStore(db)
	newsStore := store.NewNewsStore(db)

	// Document processing: PDF normalization and preview rendering.
	converter := convert.New(cfg.SofficePath)
	previews := preview.NewGenerator(blobs, cfg.Placeholder)
	pipeline := ingest.NewPipeline(blobs, converter, previews, docStore, categoryStore)

	// Create handler groups with their dependencies.
	h := router.Handlers{
		Auth:      handlers.NewAuth(sessionStore, userStore),
		Documents: handlers.NewDocuments(docStore, categoryStore, commentStore, likeStore, walletStore, previews, blobs, downloadGate),
		Uploads:   handlers.NewUploads(pipeline),
		Social:    handlers.NewSocial(docStore, commentStore, likeStore, reportStore),
		Wallet:    handlers.NewWallet(walletStore, docStore),
		News:      handlers.NewNews(newsStore),
		Admin:     handlers.NewAdmin(docStore, categoryStore, userStore, commentStore, reportStore, newsStore, walletStore, pipeline, previews, blobs),
	}

	// Set up the Chi router with all middleware and routes.
	r := router.New(sessionStore, h)

	// Create the HTTP server. ReadTimeout must accommodate 200 MiB
	// uploads on slow links; WriteTimeout covers PDF conversion, which
	// is given up to 90 seconds.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

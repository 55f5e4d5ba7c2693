package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dev-muradkhan/google-map-multi-marker/internal/archive"
	"github.com/dev-muradkhan/google-map-multi-marker/internal/auth"
	"github.com/dev-muradkhan/google-map-multi-marker/internal/config"
	"github.com/dev-muradkhan/google-map-multi-marker/internal/core"
	"github.com/dev-muradkhan/google-map-multi-marker/internal/events"
	"github.com/dev-muradkhan/google-map-multi-marker/internal/logging"
	"github.com/dev-muradkhan/google-map-multi-marker/internal/store"
	"github.com/dev-muradkhan/google-map-multi-marker/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"storage_backend", cfg.Storage.Backend,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"require_auth", cfg.Security.RequireAuth,
		"archive_enabled", cfg.Archive.Enabled,
		"events_enabled", cfg.Events.Enabled,
	)

	ctx := context.Background()

	markerStore, closeStore, err := store.Open(ctx, store.OpenConfig{
		Backend:     cfg.Storage.Backend,
		BadgerDir:   cfg.Storage.BadgerDir,
		DatabaseURL: cfg.Database.URL,
		MaxConns:    int32(cfg.Database.MaxConns),
		MinConns:    int32(cfg.Database.MinConns),
	})
	if err != nil {
		slog.Error("failed to open marker store", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := closeStore(); err != nil {
			slog.Error("failed to close marker store", "error", err)
		}
	}()

	svcCfg := core.ServiceConfig{
		CheckRevision:        cfg.Storage.CheckRevision,
		MaxImportSize:        cfg.Import.MaxFileSize,
		MaxConcurrentImports: cfg.Import.MaxConcurrent,
		ImportWait:           cfg.Import.MaxWaitTime,
		MapsAPIKey:           cfg.Maps.APIKey,
		Assets: core.AssetDefaults{
			MarkerIcon:   cfg.Maps.DefaultMarkerIcon,
			TooltipImage: cfg.Maps.DefaultTooltipImage,
		},
	}

	if cfg.Archive.Enabled {
		archiver, err := archive.NewS3Archiver(archive.Config{
			Endpoint:  cfg.Archive.Endpoint,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			UseSSL:    cfg.Archive.UseSSL,
			Bucket:    cfg.Archive.Bucket,
			Region:    cfg.Archive.Region,
		})
		if err != nil {
			slog.Error("failed to create export archiver", "error", err)
			os.Exit(1)
		}
		if err := archiver.EnsureBucket(ctx); err != nil {
			slog.Error("failed to prepare archive bucket", "bucket", cfg.Archive.Bucket, "error", err)
			os.Exit(1)
		}
		svcCfg.Archiver = archiver
	}

	publisher, closePublisher, err := events.NewPublisher(cfg.Events.Enabled, events.Config{
		Brokers:      cfg.Events.Brokers,
		Topic:        cfg.Events.Topic,
		WriteTimeout: cfg.Events.WriteTimeout,
	})
	if err != nil {
		slog.Error("failed to create event publisher", "error", err)
		os.Exit(1)
	}
	svcCfg.Publisher = publisher

	var issuer *auth.Issuer
	if cfg.Security.SigningSecret != "" {
		issuer, err = auth.NewIssuer(cfg.Security.SigningSecret, cfg.Security.SessionTTL)
		if err != nil {
			slog.Error("failed to create session issuer", "error", err)
			os.Exit(1)
		}
	}

	service, err := core.NewService(markerStore, svcCfg)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(service, cfg, issuer)

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for running imports to finish writing (with timeout)
		limiter := service.ImportLimiter()
		if status := limiter.Status(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		if err := closePublisher(); err != nil {
			slog.Error("failed to close event publisher", "error", err)
		}
	}()

	addr := cfg.Server.Addr()
	if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		return
	}
	<-stopped
	slog.Info("server stopped")
}

package main

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/estatecrm/internal/archive"
	"github.com/JonMunkholm/estatecrm/internal/config"
	"github.com/JonMunkholm/estatecrm/internal/core"
	db "github.com/JonMunkholm/estatecrm/internal/database"
	"github.com/JonMunkholm/estatecrm/internal/events"
	"github.com/JonMunkholm/estatecrm/internal/logging"
	"github.com/JonMunkholm/estatecrm/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx, pool); err != nil {
			slog.Error("failed to apply schema", "error", err)
			os.Exit(1)
		}
		slog.Info("schema applied")
	}

	archiver, err := archive.New(ctx, archive.Config{
		Backend:     cfg.Archive.Backend,
		Dir:         cfg.Archive.Dir,
		S3Bucket:    cfg.Archive.S3Bucket,
		S3Endpoint:  cfg.Archive.S3Endpoint,
		S3Region:    cfg.Archive.S3Region,
		S3AccessKey: cfg.Archive.S3AccessKey,
		S3SecretKey: cfg.Archive.S3SecretKey,
		S3Prefix:    cfg.Archive.S3Prefix,
	})
	if err != nil {
		slog.Error("failed to set up upload archive", "error", err)
		os.Exit(1)
	}

	var publisher core.EventPublisher = events.Nop{}
	var nc *events.Publisher
	if cfg.Events.NATSURL != "" {
		nc, err = events.Connect(events.Config{
			URL:           cfg.Events.NATSURL,
			Name:          "estatecrm",
			SubjectPrefix: cfg.Events.SubjectPrefix,
			DrainTimeout:  cfg.Events.DrainTimeout,
		})
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		publisher = nc
		slog.Info("publishing events", "subject", nc.ImportSubject())
	}

	service := core.NewService(db.New(pool), core.ServiceConfig{
		MaxFileSize:     cfg.Import.MaxFileSize,
		MaxConcurrent:   cfg.Import.MaxConcurrent,
		MaxWait:         cfg.Import.MaxWaitTime,
		ClassifyWorkers: cfg.Import.ClassifyWorkers,
		Archiver:        archiver,
		Events:          publisher,
	})

	server := web.NewServer(service, cfg, pool)

	var eventsCloser io.Closer
	if nc != nil {
		eventsCloser = nc
	}

	// shutdownDone closes once imports and events are drained. serve waits
	// on it, so the deferred pool.Close runs after the last import.
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		drain(shutdownCtx, server, service, eventsCloser)
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := serve(server, shutdownDone); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/EcodiaTate/wattleos-sub007/internal/attendance"
	"github.com/EcodiaTate/wattleos-sub007/internal/audit"
	"github.com/EcodiaTate/wattleos-sub007/internal/config"
	"github.com/EcodiaTate/wattleos-sub007/internal/logging"
	"github.com/EcodiaTate/wattleos-sub007/internal/roster"
	"github.com/EcodiaTate/wattleos-sub007/internal/storage"
	"github.com/EcodiaTate/wattleos-sub007/internal/timesheet"
	"github.com/EcodiaTate/wattleos-sub007/internal/upload"
	"github.com/EcodiaTate/wattleos-sub007/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	ctx := context.Background()
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
	} else {
		slog.Info("connected to database")
	}

	store, err := storage.New(cfg.Storage.Root)
	if err != nil {
		slog.Error("failed to open object store", "root", cfg.Storage.Root, "error", err)
		os.Exit(1)
	}

	auditor := audit.NewRecorder(pool)
	limiter := upload.NewLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)
	uploads := upload.NewService(pool, store, auditor, limiter)
	importer := roster.NewImporter(pool, cfg.Upload.ImportBatchSize)
	marks := attendance.NewService(pool)
	timesheets := timesheet.NewService(pool)

	slog.Info("import targets registered", "count", len(roster.All()))

	server := web.NewServer(cfg, web.Services{
		Uploads:    uploads,
		Importer:   importer,
		Attendance: marks,
		Timesheets: timesheets,
		Audit:      auditor,
		DB:         pool,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let in-flight uploads finish before the listener closes
		status := limiter.Status()
		if status.Active > 0 {
			slog.Info("waiting for uploads to complete", "active", status.Active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("uploads did not complete in time", "error", err)
			} else {
				slog.Info("all uploads completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/lanes/internal/config"
	"github.com/JonMunkholm/lanes/internal/core"
	_ "github.com/JonMunkholm/lanes/internal/core/profiles" // register import profiles
	"github.com/JonMunkholm/lanes/internal/database"
	"github.com/JonMunkholm/lanes/internal/logging"
	"github.com/JonMunkholm/lanes/internal/metrics"
	"github.com/JonMunkholm/lanes/internal/web"
)

func main() {
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

	policy, err := config.LoadPolicy(cfg.Import.PolicyFile)
	if err != nil {
		slog.Error("failed to load import policy", "error", err)
		os.Exit(1)
	}

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(cfg.Database.URL); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
	}

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	slog.Info("connected to database", "name", database.Name(cfg.Database.URL))

	m := metrics.NewManager(metrics.WithRuntimeMetrics(cfg.Metrics.Runtime))
	engine := core.NewEngine(policy.Core(), core.WithObserver(m))

	profiles := core.All()
	keys := make([]string, 0, len(profiles))
	for _, p := range profiles {
		keys = append(keys, p.Key)
	}
	slog.Info("import profiles registered", "profiles", keys)

	store := database.NewStore(pool)
	server := web.NewServer(cfg, engine, store, m)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()
	go core.StartAuditRetention(jobCtx, store.Purger(), core.RetentionConfig{
		MaxAge:    time.Duration(cfg.Audit.RetentionDays) * 24 * time.Hour,
		BatchSize: cfg.Audit.PurgeBatchSize,
		Interval:  cfg.Audit.PurgeInterval,
	})

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

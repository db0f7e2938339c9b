package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/fiscaldesk/solicitacao/internal/api"
	"github.com/fiscaldesk/solicitacao/internal/backend"
	"github.com/fiscaldesk/solicitacao/internal/config"
	"github.com/fiscaldesk/solicitacao/internal/repository"
	"github.com/fiscaldesk/solicitacao/internal/session"
	"github.com/fiscaldesk/solicitacao/pkg/database"
	"github.com/fiscaldesk/solicitacao/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	// Local overrides from .env, when present.
	_ = gotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting solicitação wizard service",
		zap.Int("port", cfg.Server.Port),
		zap.String("backend", cfg.Backend.BaseURL))

	var logRepo *repository.SubmissionLogRepository
	if cfg.Database.Path != "" {
		db, err := database.New(database.Config{
			Path:            cfg.Database.Path,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to initialize database", zap.Error(err))
		}
		defer db.Close()

		migrator := database.NewMigrator(db, logger)
		if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
			logger.Fatal("Failed to run database migrations", zap.Error(err))
		}

		logRepo = repository.NewSubmissionLogRepository(db.DB, logger)
	}

	client := backend.NewHTTPClient(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
	}, logger)

	sessions := session.NewManager(client, logger)

	server := api.NewServer(api.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, sessions, logRepo, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited")
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/garyjia/sri-declaraciones/internal/config"
	"github.com/garyjia/sri-declaraciones/internal/export"
	httpapi "github.com/garyjia/sri-declaraciones/internal/interfaces/http"
	"github.com/garyjia/sri-declaraciones/internal/repository"
	"github.com/garyjia/sri-declaraciones/internal/service"
	"github.com/garyjia/sri-declaraciones/internal/sri"
	"github.com/garyjia/sri-declaraciones/internal/storage"
	"github.com/garyjia/sri-declaraciones/internal/worker"
	"github.com/garyjia/sri-declaraciones/pkg/database"
	"github.com/garyjia/sri-declaraciones/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML configuration file")
	flag.Parse()

	path := *configPath
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		path = ""
	}

	cfg, err := config.Load(path)
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

	logger.Info("Starting SRI declarations service",
		zap.String("version", httpapi.Version),
		zap.Int("port", cfg.Server.Port))

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Service stopped with error", zap.Error(err))
	}
	logger.Info("Server exited successfully")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if cfg.Database.MigrationsDir != "" {
		err = migrator.RunMigrations(ctx, cfg.Database.MigrationsDir)
	} else {
		err = migrator.RunEmbedded(ctx)
	}
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	if err := os.MkdirAll(cfg.Storage.UploadDir, 0o755); err != nil {
		return fmt.Errorf("create upload directory: %w", err)
	}

	// Repositories
	docRepo := repository.NewDocumentRepository(db.DB, logger)
	formRepo := repository.NewFormRepository(db.DB, logger)
	fileStorage := storage.NewLocalFileStorage(cfg.Storage.UploadDir, logger)

	// Period resolution, with the OpenAI fallback when a key is configured
	var chat sri.ChatClient
	if cfg.OpenAI.Enabled() {
		chat = sri.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Timeout)
		logger.Info("OpenAI period fallback enabled", zap.String("model", cfg.OpenAI.Model))
	}
	resolver := sri.NewPeriodResolver(chat, sri.PeriodResolverConfig{
		Model:       cfg.OpenAI.Model,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
	}, logger)

	pdfRenderer, err := export.NewPDFRenderer(cfg.Export.PDFEngine, cfg.Export.ChromePath, cfg.Export.ChromeTimeout, logger)
	if err != nil {
		return fmt.Errorf("initialize pdf renderer: %w", err)
	}

	// Services
	processing := service.NewProcessingService(db, docRepo, formRepo, sri.NewFitzExtractor(logger), resolver, logger)
	uploads := service.NewUploadService(docRepo, fileStorage, service.UploadLimits{
		MaxSize:      cfg.Upload.MaxSize,
		MaxBulkFiles: cfg.Upload.MaxBulkFiles,
	}, logger)
	documents := service.NewDocumentService(docRepo, fileStorage, logger)
	forms := service.NewFormsService(docRepo, formRepo, logger)
	clientes := service.NewClienteService(docRepo, formRepo, logger)
	exports := service.NewExportService(clientes, export.NewExcelExporter(logger), pdfRenderer, logger)

	// Background workers
	processor := worker.NewDocumentProcessor(processing, cfg.Processing.PollInterval, cfg.Processing.BatchSize, logger)
	workers := worker.NewManager(logger)
	workers.Register(processor)
	if cfg.Cleanup.RetentionDays > 0 {
		cleanup := service.NewCleanupService(docRepo, fileStorage, cfg.Cleanup.RetentionDays, logger)
		workers.Register(worker.NewCleanupWorker(cleanup, cfg.Cleanup.Interval, cfg.Cleanup.DryRun, logger))
	} else {
		logger.Info("Document cleanup disabled")
	}
	if err := workers.StartAll(ctx); err != nil {
		return fmt.Errorf("start workers: %w", err)
	}
	defer workers.StopAll()

	handlers := httpapi.NewHandlers(documents, uploads, forms, clientes, exports, processor, logger).WithDatabase(db)
	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadSize:  cfg.Upload.MaxSize,
	}, handlers, logger)

	if err := server.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

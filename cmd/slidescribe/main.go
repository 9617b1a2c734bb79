package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/sahilgala1234/SlideScribe/internal/api/handler"
	"github.com/sahilgala1234/SlideScribe/internal/api/router"
	"github.com/sahilgala1234/SlideScribe/internal/archive"
	"github.com/sahilgala1234/SlideScribe/internal/assembler"
	"github.com/sahilgala1234/SlideScribe/internal/config"
	"github.com/sahilgala1234/SlideScribe/internal/domain"
	"github.com/sahilgala1234/SlideScribe/internal/events"
	"github.com/sahilgala1234/SlideScribe/internal/pipeline"
	"github.com/sahilgala1234/SlideScribe/internal/provider"
	"github.com/sahilgala1234/SlideScribe/internal/registry"
	"github.com/sahilgala1234/SlideScribe/internal/renderer"
	"github.com/sahilgala1234/SlideScribe/internal/sampler"
	"github.com/sahilgala1234/SlideScribe/shared/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("SLIDESCRIBE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting slidescribe",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Working directories for downloaded videos, sampled frames and results
	if err := os.MkdirAll(cfg.Pipeline.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	if cfg.Pipeline.TempDir != "" {
		if err := os.MkdirAll(cfg.Pipeline.TempDir, 0o755); err != nil {
			return fmt.Errorf("failed to create temp dir: %w", err)
		}
	}

	// Optional PostgreSQL job archive
	var recorder pipeline.TerminalRecorder
	var store *archive.Store
	if cfg.Database.Enabled {
		store, err = archive.NewStore(&archive.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Database:        cfg.Database.Database,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		}, appLogger.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize job archive: %w", err)
		}
		recorder = store
	}

	// Optional RabbitMQ status events
	var publisher pipeline.StatusPublisher
	var eventPub *events.Publisher
	if cfg.RabbitMQ.Enabled {
		eventPub, err = events.NewPublisher(&events.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
		}, appLogger.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize event publisher: %w", err)
		}
		publisher = eventPub
	}

	// Pipeline components
	reg := registry.New(appLogger.Logger)
	videoSource := provider.NewHTTPProvider(
		cfg.Provider.HTTPTimeout,
		cfg.Pipeline.TempDir,
		cfg.Provider.MaxVideoBytes,
		appLogger.Logger,
	)
	frameSampler := sampler.NewFFmpegSampler(cfg.Pipeline.SampleInterval, cfg.Pipeline.TempDir, appLogger.Logger)
	docAssembler := assembler.New(renderer.NewPDFRenderer(appLogger.Logger), appLogger.Logger)

	orchestrator := pipeline.New(&pipeline.Dependencies{
		Logger:    appLogger.Logger,
		Registry:  reg,
		Source:    videoSource,
		Sampler:   frameSampler,
		Assembler: docAssembler,
		Recorder:  recorder,
		Publisher: publisher,
	}, pipeline.Config{
		MaxConcurrentJobs: cfg.Pipeline.MaxConcurrentJobs,
		SlideThreshold:    cfg.Pipeline.SlideThreshold,
		JobTimeout:        cfg.Pipeline.JobTimeout,
		OutputDir:         cfg.Pipeline.OutputDir,
	})

	// Expire old terminal jobs and remove their rendered documents
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	reg.StartJanitor(janitorCtx, cfg.Pipeline.ExpireInterval, cfg.Pipeline.Retention, func(expired []domain.Job) {
		for _, job := range expired {
			if job.ResultHandle == "" {
				continue
			}
			if err := os.Remove(job.ResultHandle); err != nil && !os.IsNotExist(err) {
				appLogger.Warn("Failed to remove expired result",
					slog.String("job_id", job.ID),
					slog.String("path", job.ResultHandle),
					slog.String("error", err.Error()),
				)
			}
		}
	})

	// Initialize router
	r := router.SetupRouter(&handler.Dependencies{
		Logger: appLogger.Logger,
		Jobs:   orchestrator,
	})

	// Create HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	appLogger.Info("Starting HTTP server",
		slog.String("address", addr),
		slog.String("output_dir", filepath.Clean(cfg.Pipeline.OutputDir)),
		slog.Int("max_concurrent_jobs", cfg.Pipeline.MaxConcurrentJobs),
	)

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed to start",
				slog.Any("error", err),
			)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop accepting requests, then cancel running jobs and wait for them
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown",
			slog.Any("error", err),
		)
	}

	if err := orchestrator.Shutdown(ctx); err != nil {
		appLogger.Warn("Jobs did not settle before deadline",
			slog.Any("error", err),
		)
	}

	stopJanitor()
	if eventPub != nil {
		eventPub.Close()
	}
	if store != nil {
		store.Close()
	}

	appLogger.Info("Server shutdown complete")
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}

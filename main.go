package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"mockupgen/api"
	"mockupgen/config"
	"mockupgen/db"
	"mockupgen/logging"
	"mockupgen/metrics"
	"mockupgen/mockup"
	"mockupgen/sdxl"
	"mockupgen/store"
	"mockupgen/validate"
)

// defaultConfigPath is where the YAML configuration is looked up.
// Override with MOCKUPGEN_CONFIG.
const defaultConfigPath = "config.yaml"

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Use fmt here since logger isn't initialized yet
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	configPath := os.Getenv("MOCKUPGEN_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(validate.ExitCodeError)
	}

	logger, err := logging.NewLogger(cfg.Development, cfg.LogFile)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(validate.ExitCodeError)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Run startup validation before heavy operations
	result := validate.NewSuite(cfg).Validate()
	if !result.Success {
		logger.Error("Startup validation failed",
			zap.Int("passed", result.PassedSteps),
			zap.Int("failed", result.FailedSteps),
			zap.Error(result.GetFirstError()),
		)
		os.Exit(validate.ExitCodeError)
	}
	logger.Info("Startup validation passed",
		zap.Int("checks_passed", result.PassedSteps),
		zap.Int("warnings", result.Warnings),
		zap.Duration("duration", result.Duration),
	)

	logger.Info("Configuration loaded",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("output_dir", cfg.OutputDir),
		zap.String("db_path", cfg.DBPath),
		zap.Int("image_size", cfg.ImageSize),
		zap.Int("max_variations", cfg.MaxVariations),
		zap.Bool("dev_mode", cfg.Development),
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("Service exited with error", zap.Error(err))
		os.Exit(validate.ExitCodeError)
	}
}

// run wires the components together and blocks until shutdown.
func run(cfg *config.Config, logger *logging.Logger) error {
	// Gallery for generated PNGs
	gallery, err := store.NewGallery(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to create gallery: %w", err)
	}

	// History database with async best-effort writes
	database, err := db.NewDatabase(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	baseRepo := db.NewGenerationRepository(database.DB())
	writer := db.NewAsyncWriter(baseRepo.CreateAsyncWriteHandler())
	writer.Start()
	defer writer.StopWithTimeout(db.DefaultDrainTimeout)
	repo := db.NewGenerationRepositoryWithAsyncWriter(database.DB(), writer)

	// Retention cleanup for history rows and gallery files
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database.StartCleanupSchedulerWithConfig(ctx, db.CleanupSchedulerConfig{
		RetentionDays: 30,
		Interval:      24 * time.Hour,
		OnCleanup: func(result db.CleanupResult, err error) {
			if err != nil {
				logger.Warn("History cleanup failed", zap.Error(err))
				return
			}
			if result.GenerationsDeleted > 0 {
				logger.Info("History cleanup complete",
					zap.Int64("deleted", result.GenerationsDeleted),
					zap.Duration("duration", result.Duration))
			}
		},
	})

	// GPU polling for the health surface
	gpu := metrics.NewGPUCollector(metrics.DefaultGPUCollectorConfig())
	gpu.Start()
	defer gpu.Stop()

	stats := metrics.NewStore()

	// Diffusion pipelines
	manager := sdxl.NewManager(sdxl.ManagerConfig{
		SynthesisModelPath: cfg.Models.SynthesisPath,
		ControlNetPath:     cfg.Models.ControlNetPath,
		InpaintModelPath:   cfg.Models.InpaintPath,
		Threads:            cfg.Models.Threads,
		Device:             sdxl.Device(cfg.Models.Device),
	}, logger.Zap())
	defer manager.Unload()

	enhancer := mockup.NewEnhancer(cfg.Enhancer, logger)
	generator := mockup.NewGenerator(cfg, manager, enhancer, logger)

	handlers, err := api.NewHandlers(api.HandlersConfig{
		Config:    cfg,
		Generator: generator,
		Models:    manager,
		Gallery:   gallery,
		Repo:      repo,
		Stats:     stats,
		GPU:       gpu,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create handlers: %w", err)
	}

	var auth *api.APIKeyAuth
	if cfg.Server.APIKey != "" {
		auth, err = api.NewAPIKeyAuth(cfg.Server.APIKey)
		if err != nil {
			return fmt.Errorf("failed to configure API key auth: %w", err)
		}
	}

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Server.Host
	serverConfig.Port = cfg.Server.Port

	server, err := api.NewServer(serverConfig, handlers, auth, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Handle interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		if err != nil {
			return err
		}
		return nil
	}

	if err := server.Shutdown(context.Background()); err != nil {
		logger.Warn("Graceful shutdown incomplete", zap.Error(err))
	}

	logger.Info("Goodbye!")
	return nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/arkmeter/meter-core-go/internal/capture"
	"github.com/arkmeter/meter-core-go/internal/config"
	"github.com/arkmeter/meter-core-go/internal/meter"
	"github.com/arkmeter/meter-core-go/internal/protocol"
	"github.com/arkmeter/meter-core-go/internal/publish"
	"github.com/arkmeter/meter-core-go/internal/repository"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting encounter meter",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Optional raid-end persistence.
	var sink meter.EncounterSink
	if cfg.Database.Enabled {
		db, dbErr := repository.NewDB(ctx, cfg.Database, logger)
		if dbErr != nil {
			logger.Fatal("failed to connect to database", zap.Error(dbErr))
		}
		defer db.Close()

		repo := repository.NewEncounterRepository(db, logger)
		if schemaErr := repo.EnsureSchema(ctx); schemaErr != nil {
			logger.Fatal("failed to prepare database schema", zap.Error(schemaErr))
		}
		sink = repo
		logger.Info("encounter persistence enabled")
	}

	source, err := capture.Dial(ctx, cfg.Capture.Endpoint, logger)
	if err != nil {
		logger.Fatal("failed to connect to capture relay", zap.Error(err))
	}
	defer source.Close()

	dispatcher := meter.NewDispatcher(
		source,
		protocol.NewJSONDecoder(),
		nil, // publisher attached below; hub needs the dispatcher for commands
		sink,
		cfg.Meter.SnapshotInterval,
		logger,
	)

	hub := publish.NewHub(dispatcher, logger)
	dispatcher.SetPublisher(hub)

	mux := http.NewServeMux()
	mux.HandleFunc(cfg.Publish.Path, hub.ServeWS)
	httpServer := &http.Server{Addr: cfg.Publish.Address, Handler: mux}
	go func() {
		logger.Info("starting snapshot server",
			zap.String("address", cfg.Publish.Address),
			zap.String("path", cfg.Publish.Path),
		)
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			logger.Error("snapshot server error", zap.Error(serveErr))
		}
	}()

	runErr := make(chan error, 1)
	go func() {
		runErr <- dispatcher.Run(ctx)
	}()

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-runErr:
		if err != nil && err != context.Canceled {
			logger.Error("dispatcher stopped", zap.Error(err))
		} else {
			logger.Info("dispatcher stopped")
		}
	}

	logger.Info("shutting down gracefully...")
	cancel()
	httpServer.Shutdown(context.Background())
	logger.Info("encounter meter stopped")
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

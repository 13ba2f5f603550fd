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
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/opencommander/commander-engine-go/internal/config"
	"github.com/opencommander/commander-engine-go/internal/game"
	"github.com/opencommander/commander-engine-go/internal/repository"
	"github.com/opencommander/commander-engine-go/internal/server"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

const (
	snapshotInterval  = 30 * time.Second
	snapshotRetention = 24 * time.Hour
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

	logger.Info("starting commander server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var db *repository.DB
	if cfg.Database.Enabled {
		db, err = repository.NewDB(ctx, cfg.Database.URL, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			logger.Fatal("failed to prepare snapshot schema", zap.Error(err))
		}
	} else {
		logger.Info("database disabled, snapshots will not be persisted")
	}

	engine := game.NewEngine(cfg.Game.Rules(), logger)
	logger.Info("engine created", zap.String("game", engine.ID()))

	hub := server.NewHub(engine, starterDeck, logger)
	go hub.Run(ctx)

	if db != nil {
		go persistSnapshots(ctx, engine, db, logger)
	}

	handlers := server.NewHandlers(hub, logger)
	mux := http.NewServeMux()
	handlers.Routes(mux)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: mux,
	}
	go func() {
		logger.Info("listening", zap.String("address", cfg.Server.Addr()))
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(serveErr))
		}
	}()

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	logger.Info("commander server stopped")
}

// persistSnapshots stores an encoded snapshot on an interval. Snapshots
// are only possible at quiescent points, so a busy stack or combat just
// skips that round.
func persistSnapshots(ctx context.Context, engine *game.Engine, db *repository.DB, logger *zap.Logger) {
	ticker := time.NewTicker(snapshotInterval)
	defer ticker.Stop()

	var lastChecksum string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if !engine.Started() {
			continue
		}
		snap, err := engine.Snapshot()
		if err != nil {
			logger.Debug("snapshot skipped", zap.Error(err))
			continue
		}
		checksum := snap.Checksum()
		if checksum == lastChecksum {
			continue
		}
		data, err := snap.Encode()
		if err != nil {
			logger.Error("snapshot encode failed", zap.Error(err))
			continue
		}
		if err := db.SaveSnapshot(ctx, engine.ID(), data, checksum); err != nil {
			logger.Error("snapshot save failed", zap.Error(err))
			continue
		}
		lastChecksum = checksum
		if n, err := db.PruneSnapshots(ctx, snapshotRetention); err != nil {
			logger.Warn("snapshot prune failed", zap.Error(err))
		} else if n > 0 {
			logger.Debug("pruned old snapshots", zap.Int64("deleted", n))
		}
	}
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

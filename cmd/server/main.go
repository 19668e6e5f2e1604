package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skirmishgg/skirmish-server-go/internal/auth"
	"github.com/skirmishgg/skirmish-server-go/internal/catalog"
	"github.com/skirmishgg/skirmish-server-go/internal/config"
	"github.com/skirmishgg/skirmish-server-go/internal/logging"
	"github.com/skirmishgg/skirmish-server-go/internal/match"
	"github.com/skirmishgg/skirmish-server-go/internal/repository"
	"github.com/skirmishgg/skirmish-server-go/internal/server"
	"github.com/skirmishgg/skirmish-server-go/internal/telemetry"
	"go.uber.org/zap"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting Skirmish server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	// Create context that listens for termination signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry, logger)
	if err != nil {
		logger.Fatal("failed to initialize telemetry", zap.Error(err))
	}

	store, err := repository.Open(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("failed to open match store", zap.Error(err))
	}
	defer store.Close()

	cat, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal("failed to load card catalog", zap.Error(err))
	}
	logger.Info("card catalog loaded",
		zap.Int("units", len(cat.UnitIDs())),
		zap.Int("actions", len(cat.ActionIDs())),
		zap.Int("leaders", len(cat.LeaderIDs())),
		zap.Strings("decks", cat.DeckIDs()),
	)

	matchMgr := match.NewManager(cat, cfg.Match, store, logger)
	go matchMgr.CleanupIdle(ctx, time.Minute, cfg.Match.ActionTimeout)

	seats := auth.NewSeatTokens(cfg.Auth.SeatSecret, cfg.Auth.SeatTokenTTL)
	if !seats.Enabled() {
		logger.Warn("seat secret not configured; any client may act for any seat")
	}

	svc := server.NewMatchService(matchMgr, store, seats, logger)
	grpcServer := server.NewGRPCServer(cfg.Server.GRPC, svc, logger)

	lis, err := net.Listen("tcp", cfg.Server.GRPC.Address)
	if err != nil {
		logger.Fatal("failed to listen", zap.Error(err))
	}

	// Start gRPC server
	go func() {
		logger.Info("starting gRPC server", zap.String("address", cfg.Server.GRPC.Address))
		if serveErr := grpcServer.Serve(lis); serveErr != nil {
			logger.Error("gRPC server error", zap.Error(serveErr))
		}
	}()

	// Start WebSocket server
	hub := server.NewHub(svc, logger)
	go hub.Run(ctx)
	go func() {
		if wsErr := server.StartWebSocketServer(ctx, cfg.Server.WebSocket, hub, logger); wsErr != nil {
			logger.Error("WebSocket server error", zap.Error(wsErr))
		}
	}()

	logger.Info("Skirmish server initialized",
		zap.String("version", version),
		zap.String("grpc_address", cfg.Server.GRPC.Address),
		zap.String("websocket_address", cfg.Server.WebSocket.Address),
		zap.String("storage", cfg.Storage.Driver),
	)

	// Wait for termination signal
	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	cancel()

	grpcServer.GracefulStop()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()

	// Unfinished matches are stored as aborted.
	matchMgr.Close(shutdownCtx)

	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("telemetry shutdown", zap.Error(err))
	}

	logger.Info("Skirmish server stopped")
}

// Command mcp serves one Skirmish seat over the MCP stdio transport. The
// other seat is played by the random AI.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/skirmishgg/skirmish-server-go/internal/catalog"
	"github.com/skirmishgg/skirmish-server-go/internal/config"
	"github.com/skirmishgg/skirmish-server-go/internal/logging"
	"github.com/skirmishgg/skirmish-server-go/internal/match"
	"github.com/skirmishgg/skirmish-server-go/internal/mcpserver"
	"github.com/skirmishgg/skirmish-server-go/internal/repository"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()

	cat, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal("failed to load card catalog", zap.Error(err))
	}

	store, err := repository.Open(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("failed to open match store", zap.Error(err))
	}
	defer store.Close()

	mgr := match.NewManager(cat, cfg.Match, store, logger)
	defer mgr.Close(ctx)

	tools := mcpserver.New(mgr, logger)
	defer tools.Close(ctx)

	s := server.NewMCPServer("skirmish", version)
	tools.RegisterTools(s)

	if err := server.ServeStdio(s); err != nil {
		logger.Error("mcp server stopped", zap.Error(err))
	}
}

// Command simulate plays AI-vs-AI matches over a range of seeds and
// prints one result line per match.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/skirmishgg/skirmish-server-go/internal/board"
	"github.com/skirmishgg/skirmish-server-go/internal/catalog"
	"github.com/skirmishgg/skirmish-server-go/internal/config"
	"github.com/skirmishgg/skirmish-server-go/internal/logging"
	"github.com/skirmishgg/skirmish-server-go/internal/match"
	"github.com/skirmishgg/skirmish-server-go/internal/repository"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	from := flag.Int64("from", 1, "first seed")
	count := flag.Int("count", 10, "number of matches")
	decks := flag.String("decks", "", "comma-separated deck ids for player 0 and 1 (default from config)")
	exportDir := flag.String("export", "", "directory to write JSON match logs to")
	showBoard := flag.Bool("board", false, "print the final board of every match")
	persist := flag.Bool("store", false, "save results to the configured match store")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *decks != "" {
		cfg.Match.Decks = strings.Split(*decks, ",")
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(context.Background(), cfg, options{
		from:      *from,
		count:     *count,
		exportDir: *exportDir,
		showBoard: *showBoard,
		persist:   *persist,
	}, logger); err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}
}

type options struct {
	from      int64
	count     int
	exportDir string
	showBoard bool
	persist   bool
}

func run(ctx context.Context, cfg *config.Config, opts options, logger *zap.Logger) error {
	cat, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		return err
	}

	var store repository.MatchStore = repository.NewMemoryStore()
	if opts.persist {
		if store, err = repository.Open(ctx, cfg.Storage, logger); err != nil {
			return err
		}
	}
	defer store.Close()

	if opts.exportDir != "" {
		if err := os.MkdirAll(opts.exportDir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}

	mgr := match.NewManager(cat, cfg.Match, store, logger)
	defer mgr.Close(ctx)

	var wins [3]int
	for i := 0; i < opts.count; i++ {
		seed := opts.from + int64(i)
		m, err := mgr.Create(ctx, match.CreateRequest{Seed: seed})
		if err != nil {
			return fmt.Errorf("seed %d: %w", seed, err)
		}

		st := m.State()
		fmt.Printf("seed=%d turns=%d skirmishes=%d result=%q\n",
			seed, st.CurrentTurn, len(st.SkirmishHistory), board.Result(st))
		switch {
		case st.MatchWinner != nil && st.MatchWinner.Valid():
			wins[*st.MatchWinner]++
		default:
			wins[2]++
		}

		if opts.showBoard {
			fmt.Println(board.Render(st))
		}
		if opts.exportDir != "" {
			data, err := m.ExportLog()
			if err != nil {
				return err
			}
			path := filepath.Join(opts.exportDir, fmt.Sprintf("match-%d.json", seed))
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write log: %w", err)
			}
		}
		mgr.Remove(ctx, m.ID())
	}

	fmt.Printf("played=%d p0=%d p1=%d draws=%d\n", opts.count, wins[0], wins[1], wins[2])
	return nil
}

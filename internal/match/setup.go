package match

import (
	"fmt"

	"github.com/skirmishgg/skirmish-server-go/internal/catalog"
	"github.com/skirmishgg/skirmish-server-go/internal/game"
)

// Setup names the catalog decks and optional leader overrides for a match.
type Setup struct {
	Seed    int64
	Decks   [game.NumPlayers]string
	Leaders [game.NumPlayers]string
}

// EngineConfig resolves deck ids against cat. An empty leader override
// falls back to the deck's own leader.
func (s Setup) EngineConfig(cat *catalog.Catalog, maxStackIterations int) (game.Config, error) {
	cfg := game.Config{Seed: s.Seed, MaxStackIterations: maxStackIterations}
	for p := 0; p < game.NumPlayers; p++ {
		deck, err := cat.Deck(s.Decks[p])
		if err != nil {
			return game.Config{}, fmt.Errorf("player %d: %w", p, err)
		}
		cfg.Decks[p] = deck.CardIDs()
		cfg.Leaders[p] = deck.Leader
		if s.Leaders[p] != "" {
			cfg.Leaders[p] = s.Leaders[p]
		}
	}
	return cfg, nil
}

package match

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/skirmishgg/skirmish-server-go/internal/catalog"
	"github.com/skirmishgg/skirmish-server-go/internal/config"
	"github.com/skirmishgg/skirmish-server-go/internal/controller"
	"github.com/skirmishgg/skirmish-server-go/internal/game"
	"github.com/skirmishgg/skirmish-server-go/internal/repository"
	"go.uber.org/zap"
)

// ErrNotFound is returned for unknown match ids.
var ErrNotFound = errors.New("match not found")

// SeatKind chooses who sits in a seat of a managed match.
type SeatKind string

const (
	SeatAI     SeatKind = "ai"
	SeatRemote SeatKind = "human"
)

// CreateRequest describes a match to create. Zero values fall back to the
// manager defaults.
type CreateRequest struct {
	Seed    int64
	Decks   [game.NumPlayers]string
	Leaders [game.NumPlayers]string
	Seats   [game.NumPlayers]SeatKind
	// Sinks feed remote seats. A nil sink drops the seat's events.
	Sinks [game.NumPlayers]controller.Sink
}

// Summary is a point-in-time view of a managed match.
type Summary struct {
	ID           string
	Seed         int64
	Phase        game.Phase
	Turn         int
	Skirmish     int
	PlayerTypes  [game.NumPlayers]string
	LastActivity time.Time
}

// Manager creates and tracks running matches.
type Manager struct {
	catalog  *catalog.Catalog
	defaults config.MatchConfig
	store    repository.MatchStore
	replays  *game.ReplayRecorder
	logger   *zap.Logger
	now      func() time.Time

	matches map[string]*Match
	mu      sync.RWMutex
}

// NewManager creates a manager. store may be nil.
func NewManager(cat *catalog.Catalog, defaults config.MatchConfig, store repository.MatchStore, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		catalog:  cat,
		defaults: defaults,
		store:    store,
		replays:  game.NewReplayRecorder(logger, defaults.ReplayDir),
		logger:   logger,
		now:      time.Now,
		matches:  make(map[string]*Match),
	}
}

// Replays exposes the recorder shared by managed matches.
func (m *Manager) Replays() *game.ReplayRecorder { return m.replays }

// Create builds, registers and starts a match. AI seats are seeded from the
// match seed so a whole AI-vs-AI match is reproducible.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*Match, error) {
	setup := m.resolve(req)
	cfg, err := setup.EngineConfig(m.catalog, m.defaults.MaxStackIter)
	if err != nil {
		return nil, err
	}

	var seats [game.NumPlayers]controller.Controller
	for p := range seats {
		id := game.PlayerID(p)
		switch req.Seats[p] {
		case SeatRemote:
			seats[p] = controller.NewRemote(id, req.Sinks[p])
		case SeatAI, "":
			seats[p] = controller.NewRandom(id, setup.Seed+int64(p)+1, m.logger)
		default:
			return nil, fmt.Errorf("seat %d: unknown kind %q", p, req.Seats[p])
		}
	}

	match, err := New(m.catalog, Options{
		ID:          uuid.NewString(),
		Engine:      cfg,
		Controllers: seats,
		Store:       m.store,
		Replays:     m.replays,
		SaveReplay:  m.defaults.ReplayDir != "",
		Logger:      m.logger,
	})
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.matches[match.ID()] = match
	m.mu.Unlock()

	m.logger.Info("match created",
		zap.String("match_id", match.ID()),
		zap.Int64("seed", setup.Seed),
		zap.Strings("decks", setup.Decks[:]),
		zap.String("seat_0", seats[0].Type()),
		zap.String("seat_1", seats[1].Type()),
	)

	if err := match.Start(ctx); err != nil {
		m.Remove(ctx, match.ID())
		return nil, err
	}
	return match, nil
}

func (m *Manager) resolve(req CreateRequest) Setup {
	s := Setup{Seed: req.Seed, Decks: req.Decks, Leaders: req.Leaders}
	if s.Seed == 0 {
		s.Seed = m.defaults.Seed
	}
	if s.Seed == 0 {
		s.Seed = m.now().UnixNano()
	}
	for p := 0; p < game.NumPlayers; p++ {
		if s.Decks[p] == "" && p < len(m.defaults.Decks) {
			s.Decks[p] = m.defaults.Decks[p]
		}
		if s.Leaders[p] == "" && p < len(m.defaults.Leaders) {
			s.Leaders[p] = m.defaults.Leaders[p]
		}
	}
	return s
}

// Get retrieves a match by id.
func (m *Manager) Get(id string) (*Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	match, ok := m.matches[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return match, nil
}

// Remove closes a match and forgets it.
func (m *Manager) Remove(ctx context.Context, id string) {
	m.mu.Lock()
	match, ok := m.matches[id]
	delete(m.matches, id)
	m.mu.Unlock()

	if !ok {
		return
	}
	match.Close(ctx)
	m.logger.Info("match removed", zap.String("match_id", id))
}

// List returns summaries ordered by id.
func (m *Manager) List() []Summary {
	m.mu.RLock()
	matches := make([]*Match, 0, len(m.matches))
	for _, match := range m.matches {
		matches = append(matches, match)
	}
	m.mu.RUnlock()

	out := make([]Summary, 0, len(matches))
	for _, match := range matches {
		st := match.State()
		s := Summary{
			ID:           match.ID(),
			Seed:         match.Seed(),
			Phase:        st.Phase,
			Turn:         st.CurrentTurn,
			Skirmish:     st.CurrentSkirmish,
			LastActivity: match.LastActivity(),
		}
		for p := range s.PlayerTypes {
			s.PlayerTypes[p] = match.Controller(game.PlayerID(p)).Type()
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ActiveCount returns the number of matches still being played.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, match := range m.matches {
		if !match.Done() {
			count++
		}
	}
	return count
}

// Sweep removes matches idle for longer than timeout and returns their ids.
func (m *Manager) Sweep(ctx context.Context, timeout time.Duration) []string {
	cutoff := m.now().Add(-timeout)

	m.mu.RLock()
	var stale []string
	for id, match := range m.matches {
		if match.LastActivity().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	sort.Strings(stale)
	for _, id := range stale {
		m.Remove(ctx, id)
	}
	return stale
}

// CleanupIdle sweeps every interval until ctx is done.
func (m *Manager) CleanupIdle(ctx context.Context, interval, timeout time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := m.Sweep(ctx, timeout); len(removed) > 0 {
				m.logger.Info("removed idle matches", zap.Strings("match_ids", removed))
			}
		}
	}
}

// Close removes every match.
func (m *Manager) Close(ctx context.Context) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.matches))
	for id := range m.matches {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		m.Remove(ctx, id)
	}
}

// Package match runs one engine with two seated controllers. It serializes
// access to the engine, delivers engine events to controllers and
// observers once the engine has returned, and persists a record when the
// match is over.
package match

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/skirmishgg/skirmish-server-go/internal/catalog"
	"github.com/skirmishgg/skirmish-server-go/internal/controller"
	"github.com/skirmishgg/skirmish-server-go/internal/game"
	"github.com/skirmishgg/skirmish-server-go/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/skirmishgg/skirmish-server-go/internal/match"

// ErrClosed is returned for calls on a match that was closed before it
// ended.
var ErrClosed = errors.New("match closed")

// Options configures a new match.
type Options struct {
	// ID defaults to a random uuid.
	ID          string
	Engine      game.Config
	Controllers [game.NumPlayers]controller.Controller
	// Store receives the record when the match finishes. May be nil.
	Store repository.MatchStore
	// Replays records a frame per snapshot when set.
	Replays *game.ReplayRecorder
	// SaveReplay writes the replay to the recorder's directory on finish.
	SaveReplay bool
	Logger     *zap.Logger
}

// Match owns an engine and its two controllers.
type Match struct {
	id          string
	engine      *game.Engine
	controllers [game.NumPlayers]controller.Controller
	log         *game.GameLogger
	replays     *game.ReplayRecorder
	saveReplay  bool
	store       repository.MatchStore
	logger      *zap.Logger
	tracer      trace.Tracer
	cfg         game.Config

	mu           sync.Mutex
	queue        []game.Event
	dispatching  bool
	observers    map[int]func(game.Event)
	nextObserver int
	detach       []func()
	createdAt    time.Time
	lastActivity time.Time
	finished     bool
	closed       bool
	now          func() time.Time
}

// New builds a match. Both controllers are required and must sit in the
// seat they claim.
func New(cat *catalog.Catalog, opts Options) (*Match, error) {
	for p, c := range opts.Controllers {
		if c == nil {
			return nil, fmt.Errorf("seat %d has no controller", p)
		}
		if c.PlayerID() != game.PlayerID(p) {
			return nil, fmt.Errorf("controller for seat %d claims seat %d", p, c.PlayerID())
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	logger = logger.With(zap.String("match_id", id))

	engine, err := game.NewEngine(opts.Engine, cat, logger)
	if err != nil {
		return nil, err
	}

	var types [game.NumPlayers]string
	for p, c := range opts.Controllers {
		types[p] = c.Type()
	}

	m := &Match{
		id:          id,
		engine:      engine,
		controllers: opts.Controllers,
		log:         game.NewGameLogger(id, opts.Engine.Seed, types),
		replays:     opts.Replays,
		saveReplay:  opts.SaveReplay,
		store:       opts.Store,
		logger:      logger,
		tracer:      otel.Tracer(tracerName),
		cfg:         opts.Engine,
		observers:   make(map[int]func(game.Event)),
		now:         time.Now,
	}
	m.createdAt = m.now()
	m.lastActivity = m.createdAt

	m.detach = append(m.detach,
		engine.OnEvent(func(ev game.Event) { m.queue = append(m.queue, ev) }),
		m.log.Attach(engine),
	)
	if m.replays != nil {
		m.replays.StartRecording(id, opts.Engine.Seed)
		m.detach = append(m.detach, m.replays.Attach(id, engine))
	}
	return m, nil
}

// ID returns the match id.
func (m *Match) ID() string { return m.id }

// Seed returns the engine seed.
func (m *Match) Seed() int64 { return m.cfg.Seed }

// Controller returns the controller seated at p.
func (m *Match) Controller(p game.PlayerID) controller.Controller {
	if !p.Valid() {
		return nil
	}
	return m.controllers[p]
}

// Start opens the match and runs controllers until a decision is needed
// from outside the process or the match is over.
func (m *Match) Start(ctx context.Context) error {
	ctx, span := m.tracer.Start(ctx, "match.Start", trace.WithAttributes(attribute.String("match.id", m.id)))
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	err := m.settle(ctx, m.engine.Start())
	recordSpanError(span, err)
	return err
}

// SubmitAction applies action and lets the controllers respond.
func (m *Match) SubmitAction(ctx context.Context, action game.Action, reasoning string) (game.GameState, error) {
	ctx, span := m.tracer.Start(ctx, "match.SubmitAction", trace.WithAttributes(
		attribute.String("match.id", m.id),
		attribute.Int("player", int(action.PlayerID)),
		attribute.String("action", string(action.Type)),
	))
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return m.engine.State(), ErrClosed
	}
	_, err := m.engine.SubmitAction(action, reasoning)
	err = m.settle(ctx, err)
	recordSpanError(span, err)
	return m.engine.State(), err
}

// SubmitInput answers the pending input request and lets the controllers
// respond.
func (m *Match) SubmitInput(ctx context.Context, resp game.InputResponse) error {
	ctx, span := m.tracer.Start(ctx, "match.SubmitInput", trace.WithAttributes(
		attribute.String("match.id", m.id),
		attribute.Int("player", int(resp.PlayerID)),
		attribute.Int("selected", len(resp.Selected)),
	))
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	err := m.settle(ctx, m.engine.SubmitInput(resp))
	recordSpanError(span, err)
	return err
}

// State returns the current snapshot.
func (m *Match) State() game.GameState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.State()
}

// LegalActions lists what p may submit now.
func (m *Match) LegalActions(p game.PlayerID) []game.Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.LegalActions(p)
}

// PendingInput returns the outstanding input request.
func (m *Match) PendingInput() (game.InputRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.PendingInput()
}

// Checksum returns the engine state hash.
func (m *Match) Checksum() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.Checksum()
}

// Phase returns the engine phase.
func (m *Match) Phase() game.Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.Phase()
}

// Done reports whether the match ended, aborted or was closed.
func (m *Match) Done() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finished || m.closed
}

// Log returns the action log.
func (m *Match) Log() game.GameLog { return m.log.FullLog() }

// ExportLog renders the action log as indented JSON.
func (m *Match) ExportLog() ([]byte, error) { return m.log.Export() }

// LastActivity returns when the match last accepted a call.
func (m *Match) LastActivity() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastActivity
}

// Subscribe registers fn for every engine event, in emission order. fn is
// called with the match locked and must not call back into the match.
func (m *Match) Subscribe(fn func(game.Event)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextObserver
	m.nextObserver++
	m.observers[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.observers, id)
	}
}

// Close releases engine subscriptions. A match closed before it ended is
// stored as aborted.
func (m *Match) Close(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	if !m.finished {
		m.finish(ctx, repository.StatusAborted)
	}
	m.closed = true
	for _, off := range m.detach {
		off()
	}
	m.detach = nil
	if m.replays != nil && !m.saveReplay {
		m.replays.ClearReplay(m.id)
	}
}

// settle runs after every engine call: it dispatches queued events and
// records the outcome once the engine reached a terminal phase. The
// engine error, if any, wins over dispatch errors.
func (m *Match) settle(ctx context.Context, engineErr error) error {
	m.lastActivity = m.now()
	dispatchErr := m.dispatch(ctx)
	if !m.finished {
		switch m.engine.Phase() {
		case game.PhaseMatchEnded:
			m.finish(ctx, repository.StatusFinished)
		case game.PhaseAborted:
			m.logger.Error("match aborted", zap.Error(m.engine.Err()))
			m.finish(ctx, repository.StatusAborted)
		}
	}
	if engineErr != nil {
		return engineErr
	}
	return dispatchErr
}

// dispatch drains the event queue. Controllers may submit through their
// port while it runs; the events that causes are appended to the queue and
// delivered by the same loop.
func (m *Match) dispatch(ctx context.Context) error {
	if m.dispatching {
		return nil
	}
	m.dispatching = true
	defer func() { m.dispatching = false }()

	port := enginePort{m}
	for len(m.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev := m.queue[0]
		m.queue = m.queue[1:]
		for _, fn := range m.observers {
			fn(ev)
		}
		for _, c := range m.controllers {
			if err := c.OnEvent(ctx, ev, port); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				m.logger.Warn("controller failed",
					zap.Int("player", int(c.PlayerID())),
					zap.String("event", string(ev.Type)),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

func (m *Match) finish(ctx context.Context, status string) {
	m.finished = true
	st := m.engine.State()
	winner := game.NoPlayer
	if status == repository.StatusFinished && st.MatchWinner != nil {
		winner = *st.MatchWinner
	}
	var won [game.NumPlayers]int
	for p := range st.Players {
		won[p] = st.Players[p].SkirmishesWon
	}
	m.log.SetResult(game.MatchResult{Winner: winner, SkirmishesWon: won, Turns: st.CurrentTurn})
	m.logger.Info("match finished",
		zap.String("status", status),
		zap.Int("winner", int(winner)),
		zap.Ints("skirmishes_won", won[:]),
		zap.Int("turns", st.CurrentTurn),
	)

	if m.replays != nil {
		if m.saveReplay {
			if err := m.replays.SaveReplay(m.id); err != nil {
				m.logger.Warn("failed to save replay", zap.Error(err))
			}
		} else {
			m.replays.StopRecording(m.id)
		}
	}

	if m.store == nil {
		return
	}
	exported, err := m.log.Export()
	if err != nil {
		m.logger.Warn("failed to export game log", zap.Error(err))
	}
	rec := repository.MatchRecord{
		ID:            m.id,
		Status:        status,
		Seed:          m.cfg.Seed,
		Decks:         m.cfg.Decks,
		Leaders:       m.cfg.Leaders,
		Winner:        int(winner),
		SkirmishesWon: won,
		Turns:         st.CurrentTurn,
		Checksum:      m.engine.Checksum(),
		Log:           exported,
		CreatedAt:     m.createdAt,
		FinishedAt:    m.now(),
	}
	for p, c := range m.controllers {
		rec.PlayerTypes[p] = c.Type()
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := m.store.SaveMatch(saveCtx, rec); err != nil {
		m.logger.Error("failed to save match record", zap.Error(err))
	}
}

func recordSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
}

// enginePort is the port handed to controllers during dispatch. The match
// lock is already held, so it talks to the engine directly.
type enginePort struct {
	m *Match
}

func (p enginePort) State() game.GameState { return p.m.engine.State() }

func (p enginePort) LegalActions(id game.PlayerID) []game.Action {
	return p.m.engine.LegalActions(id)
}

func (p enginePort) PendingInput() (game.InputRequest, bool) { return p.m.engine.PendingInput() }

func (p enginePort) SubmitAction(action game.Action, reasoning string) (game.GameState, error) {
	return p.m.engine.SubmitAction(action, reasoning)
}

func (p enginePort) SubmitInput(resp game.InputResponse) error {
	return p.m.engine.SubmitInput(resp)
}

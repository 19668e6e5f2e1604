// Package mcpserver exposes one seat of a match as MCP tools so an
// external agent can play against the random AI.
package mcpserver

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/skirmishgg/skirmish-server-go/internal/board"
	"github.com/skirmishgg/skirmish-server-go/internal/game"
	"github.com/skirmishgg/skirmish-server-go/internal/match"
	"go.uber.org/zap"
)

// Server holds the single session of one stdio process.
type Server struct {
	manager *match.Manager
	logger  *zap.Logger

	mu      sync.Mutex
	session *session
}

type session struct {
	match  *match.Match
	player game.PlayerID

	mu     sync.Mutex
	events []game.Event
}

func (s *session) record(_ context.Context, ev game.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Snapshots are returned once per response, not per event.
	ev.State = nil
	s.events = append(s.events, ev)
	return nil
}

func (s *session) drain() []game.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.events
	s.events = nil
	if out == nil {
		out = []game.Event{}
	}
	return out
}

// ToolResponse is the JSON body of every tool result.
type ToolResponse struct {
	MatchID  string             `json:"matchId"`
	Player   int                `json:"player"`
	State    game.GameState     `json:"state"`
	Actions  []game.Action      `json:"actions,omitempty"`
	Input    *game.InputRequest `json:"input,omitempty"`
	Events   []game.Event       `json:"events"`
	GameOver bool               `json:"gameOver"`
	Result   string             `json:"result,omitempty"`
}

// New creates a server backed by manager.
func New(manager *match.Manager, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{manager: manager, logger: logger}
}

// RegisterTools adds all game tools to the MCP server.
func (s *Server) RegisterTools(m *server.MCPServer) {
	m.AddTool(startMatchTool(), s.handleStartMatch)
	m.AddTool(getStateTool(), s.handleGetState)
	m.AddTool(legalActionsTool(), s.handleLegalActions)
	m.AddTool(takeActionTool(), s.handleTakeAction)
	m.AddTool(selectTargetsTool(), s.handleSelectTargets)
	m.AddTool(showBoardTool(), s.handleShowBoard)
}

// Close aborts the running session, if any.
func (s *Server) Close(ctx context.Context) {
	s.mu.Lock()
	sess := s.session
	s.session = nil
	s.mu.Unlock()
	if sess != nil {
		s.manager.Remove(ctx, sess.match.ID())
	}
}

func startMatchTool() mcp.Tool {
	return mcp.NewTool("start_match",
		mcp.WithDescription("Start a new Skirmish match against the random AI. Returns the state, your legal actions and the events so far."),
		mcp.WithNumber("seed", mcp.Description("Match seed; 0 picks the server default")),
		mcp.WithNumber("player", mcp.Description("Your seat: 0 or 1 (default 0)")),
		mcp.WithString("deck", mcp.Description("Your deck id (default from server config)")),
		mcp.WithString("opponent_deck", mcp.Description("The AI's deck id (default from server config)")),
	)
}

func getStateTool() mcp.Tool {
	return mcp.NewTool("get_state",
		mcp.WithDescription("Get the current state, your pending decision and the events since the last call. Read-only."),
	)
}

func legalActionsTool() mcp.Tool {
	return mcp.NewTool("legal_actions",
		mcp.WithDescription("List your legal actions with their 0-based indices."),
	)
}

func takeActionTool() mcp.Tool {
	return mcp.NewTool("take_action",
		mcp.WithDescription("Take the action at the given index of the legal actions list. Use when no input is pending."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("0-based index into the legal actions list")),
		mcp.WithString("reasoning", mcp.Description("Why you chose this action; stored in the match log")),
	)
}

func selectTargetsTool() mcp.Tool {
	return mcp.NewTool("select_targets",
		mcp.WithDescription("Answer the pending input request by choosing candidates."),
		mcp.WithString("indices", mcp.Required(), mcp.Description("Space-separated 0-based candidate indices (e.g. '0 2'), or empty for no selection")),
	)
}

func showBoardTool() mcp.Tool {
	return mcp.NewTool("show_board",
		mcp.WithDescription("Render the board as text. Read-only."),
	)
}

func (s *Server) handleStartMatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil && !s.session.match.Done() {
		return mcp.NewToolResultError("A match is already running. Only one match at a time is supported."), nil
	}

	player := request.GetInt("player", 0)
	if !game.PlayerID(player).Valid() {
		return mcp.NewToolResultError("player must be 0 or 1"), nil
	}

	sess := &session{player: game.PlayerID(player)}
	req := match.CreateRequest{Seed: int64(request.GetInt("seed", 0))}
	req.Decks[player] = request.GetString("deck", "")
	req.Decks[1-player] = request.GetString("opponent_deck", "")
	req.Seats[player] = match.SeatRemote
	req.Seats[1-player] = match.SeatAI
	req.Sinks[player] = sess.record

	m, err := s.manager.Create(ctx, req)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to start match: %v", err), nil
	}
	sess.match = m
	if s.session != nil {
		s.manager.Remove(ctx, s.session.match.ID())
	}
	s.session = sess
	s.logger.Info("mcp match started", zap.String("match_id", m.ID()), zap.Int("player", player))

	return respond(sess)
}

func (s *Server) handleGetState(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := s.current()
	if sess == nil {
		return mcp.NewToolResultError("No match is running. Use start_match first."), nil
	}
	return respond(sess)
}

func (s *Server) handleLegalActions(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := s.current()
	if sess == nil {
		return mcp.NewToolResultError("No match is running. Use start_match first."), nil
	}
	actions := sess.match.LegalActions(sess.player)
	lines := make([]string, 0, len(actions))
	for i, a := range actions {
		lines = append(lines, strconv.Itoa(i)+": "+describeAction(a))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("No legal actions right now."), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) handleTakeAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := s.current()
	if sess == nil {
		return mcp.NewToolResultError("No match is running. Use start_match first."), nil
	}
	if _, ok := sess.match.PendingInput(); ok {
		return mcp.NewToolResultError("An input request is pending. Use select_targets."), nil
	}

	actions := sess.match.LegalActions(sess.player)
	if len(actions) == 0 {
		return mcp.NewToolResultError("You have no legal actions right now."), nil
	}
	index := request.GetInt("index", -1)
	if index < 0 || index >= len(actions) {
		return mcp.NewToolResultErrorf("Invalid index %d. Must be 0-%d.", index, len(actions)-1), nil
	}

	if _, err := sess.match.SubmitAction(ctx, actions[index], request.GetString("reasoning", "")); err != nil {
		return mcp.NewToolResultErrorf("Action rejected: %v", err), nil
	}
	return respond(sess)
}

func (s *Server) handleSelectTargets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := s.current()
	if sess == nil {
		return mcp.NewToolResultError("No match is running. Use start_match first."), nil
	}
	pending, ok := sess.match.PendingInput()
	if !ok || pending.PlayerID != sess.player {
		return mcp.NewToolResultError("No input request is pending for you."), nil
	}

	var selected []string
	for _, field := range strings.Fields(request.GetString("indices", "")) {
		idx, err := strconv.Atoi(field)
		if err != nil {
			return mcp.NewToolResultErrorf("Invalid index '%s': must be an integer.", field), nil
		}
		if idx < 0 || idx >= len(pending.Candidates) {
			return mcp.NewToolResultErrorf("Index %d out of range. Must be 0-%d.", idx, len(pending.Candidates)-1), nil
		}
		selected = append(selected, pending.Candidates[idx].ID)
	}
	if len(selected) < pending.Min || len(selected) > pending.Max {
		return mcp.NewToolResultErrorf("Select between %d and %d candidate(s), got %d.", pending.Min, pending.Max, len(selected)), nil
	}

	err := sess.match.SubmitInput(ctx, game.InputResponse{
		PlayerID:  sess.player,
		RequestID: pending.ID,
		Selected:  selected,
	})
	if err != nil {
		return mcp.NewToolResultErrorf("Input rejected: %v", err), nil
	}
	return respond(sess)
}

func (s *Server) handleShowBoard(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := s.current()
	if sess == nil {
		return mcp.NewToolResultError("No match is running. Use start_match first."), nil
	}
	return mcp.NewToolResultText(board.Render(sess.match.State())), nil
}

func (s *Server) current() *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

func respond(sess *session) (*mcp.CallToolResult, error) {
	st := sess.match.State()
	resp := ToolResponse{
		MatchID:  sess.match.ID(),
		Player:   int(sess.player),
		State:    st,
		Events:   sess.drain(),
		GameOver: st.MatchEnded || st.Phase == game.PhaseAborted,
	}
	if resp.GameOver {
		resp.Result = board.Result(st)
	} else if req, ok := sess.match.PendingInput(); ok {
		if req.PlayerID == sess.player {
			resp.Input = &req
		}
	} else {
		resp.Actions = sess.match.LegalActions(sess.player)
	}

	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return mcp.NewToolResultErrorf("encode response: %v", err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func describeAction(a game.Action) string {
	switch a.Type {
	case game.ActionPlayCard:
		if a.TargetSlot != nil {
			return "play " + a.CardID + " at terrain " + strconv.Itoa(a.TargetSlot.Terrain)
		}
		return "play " + a.CardID
	case game.ActionActivate:
		return "activate " + a.UnitID
	case game.ActionActivateLeader:
		return "activate leader"
	default:
		return strings.ToLower(string(a.Type))
	}
}

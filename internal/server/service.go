package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/skirmishgg/skirmish-server-go/internal/auth"
	"github.com/skirmishgg/skirmish-server-go/internal/game"
	"github.com/skirmishgg/skirmish-server-go/internal/match"
	"github.com/skirmishgg/skirmish-server-go/internal/repository"
	"go.uber.org/zap"
)

// ErrSeatMismatch is returned when a seat token names another match or
// player than the request.
var ErrSeatMismatch = errors.New("seat token does not match request")

// ErrBadRequest wraps request validation failures.
var ErrBadRequest = errors.New("bad request")

// CreateMatchRequest opens a match. Empty fields use the server defaults;
// an empty seat is an AI.
type CreateMatchRequest struct {
	Seed    int64     `json:"seed,omitempty"`
	Decks   [2]string `json:"decks"`
	Leaders [2]string `json:"leaders"`
	Seats   [2]string `json:"seats"`
}

// SeatGrant tells the creator who sits where and, for human seats, the
// token to act with.
type SeatGrant struct {
	Player int    `json:"player"`
	Type   string `json:"type"`
	Token  string `json:"token,omitempty"`
}

type CreateMatchResponse struct {
	MatchID string         `json:"matchId"`
	Seats   []SeatGrant    `json:"seats"`
	State   game.GameState `json:"state"`
}

type MatchRequest struct {
	MatchID string `json:"matchId"`
}

type StateResponse struct {
	MatchID      string             `json:"matchId"`
	Checksum     string             `json:"checksum"`
	State        game.GameState     `json:"state"`
	PendingInput *game.InputRequest `json:"pendingInput,omitempty"`
}

type LegalActionsRequest struct {
	MatchID string `json:"matchId"`
	Player  int    `json:"player"`
}

type LegalActionsResponse struct {
	Actions []game.Action `json:"actions"`
}

type SubmitActionRequest struct {
	MatchID   string      `json:"matchId"`
	Action    game.Action `json:"action"`
	Reasoning string      `json:"reasoning,omitempty"`
}

type SubmitInputRequest struct {
	MatchID string             `json:"matchId"`
	Input   game.InputResponse `json:"input"`
}

type ListRecordsRequest struct {
	Limit int `json:"limit,omitempty"`
}

// RecordView is a stored match result without its log.
type RecordView struct {
	ID            string    `json:"id"`
	Status        string    `json:"status"`
	Seed          int64     `json:"seed"`
	Winner        int       `json:"winner"`
	SkirmishesWon [2]int    `json:"skirmishesWon"`
	Turns         int       `json:"turns"`
	PlayerTypes   [2]string `json:"playerTypes"`
	FinishedAt    time.Time `json:"finishedAt"`
}

type ListRecordsResponse struct {
	Records []RecordView `json:"records"`
}

// MatchService is the transport-neutral match API shared by the gRPC and
// WebSocket front ends.
type MatchService struct {
	manager *match.Manager
	store   repository.MatchStore
	seats   *auth.SeatTokens
	logger  *zap.Logger
}

// NewMatchService wires the service. store and seats may be nil.
func NewMatchService(manager *match.Manager, store repository.MatchStore, seats *auth.SeatTokens, logger *zap.Logger) *MatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if seats == nil {
		seats = auth.NewSeatTokens("", 0)
	}
	return &MatchService{manager: manager, store: store, seats: seats, logger: logger}
}

// CreateMatch creates and starts a match and issues tokens for human seats
// when seat tokens are configured.
func (s *MatchService) CreateMatch(ctx context.Context, req CreateMatchRequest) (CreateMatchResponse, error) {
	create := match.CreateRequest{Seed: req.Seed, Decks: req.Decks, Leaders: req.Leaders}
	for p, kind := range req.Seats {
		switch match.SeatKind(kind) {
		case "", match.SeatAI:
			create.Seats[p] = match.SeatAI
		case match.SeatRemote:
			create.Seats[p] = match.SeatRemote
		default:
			return CreateMatchResponse{}, fmt.Errorf("%w: seat %d: unknown kind %q", ErrBadRequest, p, kind)
		}
	}

	m, err := s.manager.Create(ctx, create)
	if err != nil {
		return CreateMatchResponse{}, err
	}

	resp := CreateMatchResponse{MatchID: m.ID(), State: m.State()}
	for p := 0; p < game.NumPlayers; p++ {
		grant := SeatGrant{Player: p, Type: string(create.Seats[p])}
		if create.Seats[p] == match.SeatRemote && s.seats.Enabled() {
			token, err := s.seats.Issue(auth.Seat{MatchID: m.ID(), Player: p})
			if err != nil {
				return CreateMatchResponse{}, err
			}
			grant.Token = token
		}
		resp.Seats = append(resp.Seats, grant)
	}
	return resp, nil
}

// GetState returns the snapshot and any pending input request.
func (s *MatchService) GetState(_ context.Context, req MatchRequest) (StateResponse, error) {
	m, err := s.manager.Get(req.MatchID)
	if err != nil {
		return StateResponse{}, err
	}
	return stateResponse(m), nil
}

// LegalActions lists what a player may do now.
func (s *MatchService) LegalActions(_ context.Context, req LegalActionsRequest) (LegalActionsResponse, error) {
	m, err := s.manager.Get(req.MatchID)
	if err != nil {
		return LegalActionsResponse{}, err
	}
	actions := m.LegalActions(game.PlayerID(req.Player))
	if actions == nil {
		actions = []game.Action{}
	}
	return LegalActionsResponse{Actions: actions}, nil
}

// SubmitAction applies an action for the seat token's player.
func (s *MatchService) SubmitAction(ctx context.Context, token string, req SubmitActionRequest) (StateResponse, error) {
	m, err := s.manager.Get(req.MatchID)
	if err != nil {
		return StateResponse{}, err
	}
	if err := s.authorize(token, req.MatchID, req.Action.PlayerID); err != nil {
		return StateResponse{}, err
	}
	if _, err := m.SubmitAction(ctx, req.Action, req.Reasoning); err != nil {
		return StateResponse{}, err
	}
	return stateResponse(m), nil
}

// SubmitInput answers the pending input request for the seat token's
// player.
func (s *MatchService) SubmitInput(ctx context.Context, token string, req SubmitInputRequest) (StateResponse, error) {
	m, err := s.manager.Get(req.MatchID)
	if err != nil {
		return StateResponse{}, err
	}
	if err := s.authorize(token, req.MatchID, req.Input.PlayerID); err != nil {
		return StateResponse{}, err
	}
	if err := m.SubmitInput(ctx, req.Input); err != nil {
		return StateResponse{}, err
	}
	return stateResponse(m), nil
}

// ListRecords returns the most recent finished matches.
func (s *MatchService) ListRecords(ctx context.Context, req ListRecordsRequest) (ListRecordsResponse, error) {
	if s.store == nil {
		return ListRecordsResponse{Records: []RecordView{}}, nil
	}
	records, err := s.store.ListMatches(ctx, req.Limit)
	if err != nil {
		return ListRecordsResponse{}, err
	}
	out := ListRecordsResponse{Records: make([]RecordView, 0, len(records))}
	for _, r := range records {
		out.Records = append(out.Records, RecordView{
			ID:            r.ID,
			Status:        r.Status,
			Seed:          r.Seed,
			Winner:        r.Winner,
			SkirmishesWon: r.SkirmishesWon,
			Turns:         r.Turns,
			PlayerTypes:   r.PlayerTypes,
			FinishedAt:    r.FinishedAt,
		})
	}
	return out, nil
}

// authorize checks a seat token against the acting player. Without a
// configured secret every request is allowed.
func (s *MatchService) authorize(token, matchID string, player game.PlayerID) error {
	if !s.seats.Enabled() {
		return nil
	}
	seat, err := s.seats.Verify(token)
	if err != nil {
		return err
	}
	if seat.MatchID != matchID || seat.Player != int(player) {
		s.logger.Warn("seat token rejected",
			zap.String("match_id", matchID),
			zap.Int("player", int(player)),
			zap.String("token_match_id", seat.MatchID),
			zap.Int("token_player", seat.Player),
		)
		return ErrSeatMismatch
	}
	return nil
}

func stateResponse(m *match.Match) StateResponse {
	resp := StateResponse{MatchID: m.ID(), Checksum: m.Checksum(), State: m.State()}
	if req, ok := m.PendingInput(); ok {
		resp.PendingInput = &req
	}
	return resp
}

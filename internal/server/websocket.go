package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/skirmishgg/skirmish-server-go/internal/config"
	"github.com/skirmishgg/skirmish-server-go/internal/game"
	"github.com/skirmishgg/skirmish-server-go/internal/match"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Inbound message types.
const (
	msgCreate = "create"
	msgJoin   = "join"
	msgState  = "state"
	msgLegal  = "legal"
	msgAction = "action"
	msgInput  = "input"
)

// Outbound message types.
const (
	msgCreated      = "created"
	msgJoined       = "joined"
	msgEvent        = "event"
	msgLegalActions = "legal_actions"
	msgError        = "error"
)

// WSMessage is the envelope for every WebSocket frame in both directions.
// Data holds the JSON form of the MatchService request or response.
type WSMessage struct {
	Type    string          `json:"type"`
	MatchID string          `json:"matchId,omitempty"`
	Player  *int            `json:"player,omitempty"`
	Token   string          `json:"token,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Client is one WebSocket connection. A client watches at most one match,
// either in a seat or as a spectator.
type Client struct {
	conn *websocket.Conn
	send chan []byte

	mu      sync.Mutex
	matchID string
	player  int
	token   string
	closed  bool
}

// trySend queues payload without blocking. It fails once the client is
// closed or its buffer is full.
func (c *Client) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) seat() (string, int, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.matchID, c.player, c.token
}

func (c *Client) setSeat(matchID string, player int, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.matchID, c.player, c.token = matchID, player, token
}

type matchMessage struct {
	matchID string
	payload []byte
}

// Hub fans match events out to the clients watching each match.
type Hub struct {
	service *MatchService
	logger  *zap.Logger

	clients    map[*Client]bool
	broadcast  chan matchMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu       sync.Mutex
	watching map[string]func()
}

// NewHub creates a hub serving svc. Call Run before serving connections.
func NewHub(svc *MatchService, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		service:    svc,
		logger:     logger,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan matchMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		watching:   make(map[string]func()),
	}
}

// Run owns the client set until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		h.mu.Lock()
		for id, off := range h.watching {
			off()
			delete(h.watching, id)
		}
		h.mu.Unlock()
		for client := range h.clients {
			client.close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("websocket client registered", zap.Int("clients", len(h.clients)))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
				h.logger.Debug("websocket client unregistered", zap.Int("clients", len(h.clients)))
			}

		case msg := <-h.broadcast:
			for client := range h.clients {
				if matchID, _, _ := client.seat(); matchID != msg.matchID {
					continue
				}
				if !client.trySend(msg.payload) {
					client.close()
					delete(h.clients, client)
				}
			}
		}
	}
}

// watch subscribes the hub to a match once. The subscriber runs with the
// match locked, so it only hands the encoded event to the run loop.
func (h *Hub) watch(matchID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.watching[matchID]; ok {
		return nil
	}
	m, err := h.service.manager.Get(matchID)
	if err != nil {
		return err
	}
	h.watching[matchID] = m.Subscribe(func(ev game.Event) {
		payload, err := encodeMessage(msgEvent, matchID, ev)
		if err != nil {
			h.logger.Warn("failed to encode event", zap.String("match_id", matchID), zap.Error(err))
			return
		}
		select {
		case h.broadcast <- matchMessage{matchID: matchID, payload: payload}:
		case <-h.done:
		}
	})
	return nil
}

// ServeHTTP upgrades the connection and starts its pumps.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		conn:   conn,
		send:   make(chan []byte, 256),
		player: int(game.NoPlayer),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(r.Context(), h)
}

func (h *Hub) handleMessage(ctx context.Context, client *Client, msg WSMessage) {
	reply, data, err := h.dispatch(ctx, client, msg)
	if err != nil {
		h.logger.Debug("websocket request failed",
			zap.String("type", msg.Type),
			zap.String("match_id", msg.MatchID),
			zap.Error(err),
		)
		reply, data = msgError, map[string]string{"message": err.Error(), "request": msg.Type}
	}
	matchID, _, _ := client.seat()
	payload, err := encodeMessage(reply, matchID, data)
	if err != nil {
		h.logger.Warn("failed to encode reply", zap.Error(err))
		return
	}
	client.trySend(payload)
}

func (h *Hub) dispatch(ctx context.Context, client *Client, msg WSMessage) (string, any, error) {
	switch msg.Type {
	case msgCreate:
		var req CreateMatchRequest
		if err := decodeData(msg.Data, &req); err != nil {
			return "", nil, err
		}
		resp, err := h.service.CreateMatch(ctx, req)
		if err != nil {
			return "", nil, err
		}
		player, token := int(game.NoPlayer), ""
		for _, s := range resp.Seats {
			if s.Type == string(match.SeatRemote) {
				player, token = s.Player, s.Token
				break
			}
		}
		client.setSeat(resp.MatchID, player, token)
		if err := h.watch(resp.MatchID); err != nil {
			return "", nil, err
		}
		return msgCreated, resp, nil

	case msgJoin:
		player := int(game.NoPlayer)
		if msg.Player != nil {
			player = *msg.Player
			if err := h.service.authorize(msg.Token, msg.MatchID, game.PlayerID(player)); err != nil {
				return "", nil, err
			}
		}
		if err := h.watch(msg.MatchID); err != nil {
			return "", nil, err
		}
		client.setSeat(msg.MatchID, player, msg.Token)
		resp, err := h.service.GetState(ctx, MatchRequest{MatchID: msg.MatchID})
		return msgJoined, resp, err

	case msgState:
		matchID, _, _ := client.seat()
		resp, err := h.service.GetState(ctx, MatchRequest{MatchID: matchID})
		return msgState, resp, err

	case msgLegal:
		matchID, player, _ := client.seat()
		resp, err := h.service.LegalActions(ctx, LegalActionsRequest{MatchID: matchID, Player: player})
		return msgLegalActions, resp, err

	case msgAction:
		matchID, player, token := client.seat()
		if !game.PlayerID(player).Valid() {
			return "", nil, fmt.Errorf("%w: spectators cannot act", ErrBadRequest)
		}
		var action game.Action
		if err := decodeData(msg.Data, &action); err != nil {
			return "", nil, err
		}
		action.PlayerID = game.PlayerID(player)
		resp, err := h.service.SubmitAction(ctx, token, SubmitActionRequest{MatchID: matchID, Action: action})
		return msgState, resp, err

	case msgInput:
		matchID, player, token := client.seat()
		if !game.PlayerID(player).Valid() {
			return "", nil, fmt.Errorf("%w: spectators cannot answer input", ErrBadRequest)
		}
		var input game.InputResponse
		if err := decodeData(msg.Data, &input); err != nil {
			return "", nil, err
		}
		input.PlayerID = game.PlayerID(player)
		resp, err := h.service.SubmitInput(ctx, token, SubmitInputRequest{MatchID: matchID, Input: input})
		return msgState, resp, err

	default:
		return "", nil, fmt.Errorf("%w: unknown message type %q", ErrBadRequest, msg.Type)
	}
}

func (c *Client) readPump(ctx context.Context, hub *Hub) {
	defer func() {
		select {
		case hub.unregister <- c:
		case <-hub.done:
		}
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			hub.logger.Debug("invalid websocket message", zap.Error(err))
			continue
		}

		hub.handleMessage(context.WithoutCancel(ctx), c, msg)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			break
		}
	}
}

func encodeMessage(kind, matchID string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WSMessage{Type: kind, MatchID: matchID, Data: raw})
}

func decodeData(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

// StartWebSocketServer serves the hub on cfg until ctx is done.
func StartWebSocketServer(ctx context.Context, cfg config.WebSocketConfig, hub *Hub, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, hub)

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("websocket server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting WebSocket server",
		zap.String("address", cfg.Address),
		zap.String("path", cfg.Path),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

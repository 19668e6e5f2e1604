package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/skirmishgg/skirmish-server-go/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startHub(t *testing.T, svc *MatchService) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(svc, zap.NewNop())
	go hub.Run(ctx)
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func connect(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg WSMessage) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

// await reads frames until one of type kind arrives.
func await(t *testing.T, conn *websocket.Conn, kind string) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg WSMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == kind {
			return msg
		}
		require.NotEqual(t, msgError, msg.Type, string(msg.Data))
	}
}

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestWebSocketCreateAndPlay(t *testing.T) {
	svc, _ := newService(t, "")
	conn := connect(t, startHub(t, svc))

	send(t, conn, WSMessage{Type: msgCreate, Data: raw(t, CreateMatchRequest{Seed: 7, Seats: [2]string{"human", "ai"}})})
	created := await(t, conn, msgCreated)
	var resp CreateMatchResponse
	require.NoError(t, json.Unmarshal(created.Data, &resp))
	require.NotEmpty(t, resp.MatchID)
	assert.Equal(t, resp.MatchID, created.MatchID)

	send(t, conn, WSMessage{Type: msgLegal})
	legalMsg := await(t, conn, msgLegalActions)
	var legal LegalActionsResponse
	require.NoError(t, json.Unmarshal(legalMsg.Data, &legal))
	require.NotEmpty(t, legal.Actions)

	send(t, conn, WSMessage{Type: msgAction, Data: raw(t, legal.Actions[len(legal.Actions)-1])})
	ev := await(t, conn, msgEvent)
	var event game.Event
	require.NoError(t, json.Unmarshal(ev.Data, &event))
	assert.NotEmpty(t, event.Type)
}

func TestWebSocketSpectatorCannotAct(t *testing.T) {
	svc, _ := newService(t, "")
	url := startHub(t, svc)

	created, err := svc.CreateMatch(context.Background(), CreateMatchRequest{Seed: 5, Seats: [2]string{"human", "human"}})
	require.NoError(t, err)

	conn := connect(t, url)
	send(t, conn, WSMessage{Type: msgJoin, MatchID: created.MatchID})
	joined := await(t, conn, msgJoined)
	var st StateResponse
	require.NoError(t, json.Unmarshal(joined.Data, &st))
	assert.Equal(t, created.MatchID, st.MatchID)

	send(t, conn, WSMessage{Type: msgAction, Data: raw(t, game.Pass(0))})
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var reply WSMessage
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, msgError, reply.Type)
	assert.Contains(t, string(reply.Data), "spectators")
}

func TestWebSocketJoinRequiresToken(t *testing.T) {
	svc, _ := newService(t, "ws-secret")
	url := startHub(t, svc)

	created, err := svc.CreateMatch(context.Background(), CreateMatchRequest{Seed: 5, Seats: [2]string{"human", "human"}})
	require.NoError(t, err)
	seat := 0

	conn := connect(t, url)
	send(t, conn, WSMessage{Type: msgJoin, MatchID: created.MatchID, Player: &seat, Token: "forged"})
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var reply WSMessage
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, msgError, reply.Type)

	send(t, conn, WSMessage{Type: msgJoin, MatchID: created.MatchID, Player: &seat, Token: created.Seats[0].Token})
	await(t, conn, msgJoined)
}

func TestWebSocketUnknownMessage(t *testing.T) {
	svc, _ := newService(t, "")
	conn := connect(t, startHub(t, svc))

	send(t, conn, WSMessage{Type: "dance"})
	msg := await(t, conn, msgError)
	assert.Contains(t, string(msg.Data), "unknown message type")
}

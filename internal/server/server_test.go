package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/skirmishgg/skirmish-server-go/internal/auth"
	"github.com/skirmishgg/skirmish-server-go/internal/catalog"
	"github.com/skirmishgg/skirmish-server-go/internal/config"
	"github.com/skirmishgg/skirmish-server-go/internal/game"
	"github.com/skirmishgg/skirmish-server-go/internal/match"
	"github.com/skirmishgg/skirmish-server-go/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

func newService(t *testing.T, secret string) (*MatchService, *repository.MemoryStore) {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	store := repository.NewMemoryStore()
	mgr := match.NewManager(cat, config.MatchConfig{Decks: []string{"balanced", "aggro"}}, store, zap.NewNop())
	t.Cleanup(func() { mgr.Close(context.Background()) })
	return NewMatchService(mgr, store, auth.NewSeatTokens(secret, time.Hour), zap.NewNop()), store
}

// dial starts svc behind an in-memory listener and returns a client
// connection.
func dial(t *testing.T, svc *MatchService) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(config.GRPCConfig{MaxConcurrentStreams: 10}, svc, zap.NewNop())
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func call(ctx context.Context, conn *grpc.ClientConn, method string, in map[string]any) (map[string]any, error) {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, "/"+ServiceName+"/"+method, req, out); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}

func TestGRPCCreateAIMatch(t *testing.T) {
	svc, _ := newService(t, "")
	conn := dial(t, svc)
	ctx := context.Background()

	resp, err := call(ctx, conn, "CreateMatch", map[string]any{"seed": 42})
	require.NoError(t, err)
	matchID, _ := resp["matchId"].(string)
	require.NotEmpty(t, matchID)
	state := resp["state"].(map[string]any)
	assert.Equal(t, true, state["matchEnded"])

	got, err := call(ctx, conn, "GetState", map[string]any{"matchId": matchID})
	require.NoError(t, err)
	assert.NotEmpty(t, got["checksum"])

	records, err := call(ctx, conn, "ListRecords", map[string]any{"limit": 5})
	require.NoError(t, err)
	list := records["records"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, matchID, list[0].(map[string]any)["id"])
}

func TestGRPCHumanSeatFlow(t *testing.T) {
	svc, _ := newService(t, "")
	conn := dial(t, svc)
	ctx := context.Background()

	resp, err := call(ctx, conn, "CreateMatch", map[string]any{
		"seed":  7,
		"seats": []any{"human", "ai"},
	})
	require.NoError(t, err)
	matchID := resp["matchId"].(string)

	legal, err := call(ctx, conn, "LegalActions", map[string]any{"matchId": matchID, "player": 0})
	require.NoError(t, err)
	actions := legal["actions"].([]any)
	require.NotEmpty(t, actions)
	first := actions[0].(map[string]any)
	assert.Equal(t, "PASS", first["type"])

	out, err := call(ctx, conn, "SubmitAction", map[string]any{"matchId": matchID, "action": first})
	require.NoError(t, err)
	assert.Equal(t, matchID, out["matchId"])
}

func TestGRPCErrorCodes(t *testing.T) {
	svc, _ := newService(t, "")
	conn := dial(t, svc)
	ctx := context.Background()

	_, err := call(ctx, conn, "GetState", map[string]any{"matchId": "missing"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = call(ctx, conn, "CreateMatch", map[string]any{"decks": []any{"nope", ""}})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = call(ctx, conn, "CreateMatch", map[string]any{"seats": []any{"robot", ""}})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	resp, err := call(ctx, conn, "CreateMatch", map[string]any{"seed": 3, "seats": []any{"human", "human"}})
	require.NoError(t, err)
	matchID := resp["matchId"].(string)
	st := resp["state"].(map[string]any)
	waiting := 1 - int(st["currentPlayer"].(float64))

	_, err = call(ctx, conn, "SubmitAction", map[string]any{
		"matchId": matchID,
		"action":  map[string]any{"type": "PASS", "playerId": waiting},
	})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = call(ctx, conn, "SubmitInput", map[string]any{
		"matchId": matchID,
		"input":   map[string]any{"playerId": 0, "selected": []any{"x"}},
	})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestGRPCSeatTokens(t *testing.T) {
	svc, _ := newService(t, "test-secret")
	conn := dial(t, svc)
	ctx := context.Background()

	resp, err := call(ctx, conn, "CreateMatch", map[string]any{"seed": 3, "seats": []any{"human", "human"}})
	require.NoError(t, err)
	matchID := resp["matchId"].(string)
	current := int(resp["state"].(map[string]any)["currentPlayer"].(float64))

	tokens := map[int]string{}
	for _, s := range resp["seats"].([]any) {
		seat := s.(map[string]any)
		tokens[int(seat["player"].(float64))] = seat["token"].(string)
	}
	require.NotEmpty(t, tokens[0])
	require.NotEmpty(t, tokens[1])

	pass := map[string]any{"matchId": matchID, "action": map[string]any{"type": "PASS", "playerId": current}}

	_, err = call(ctx, conn, "SubmitAction", pass)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	wrong := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+tokens[1-current])
	_, err = call(wrong, conn, "SubmitAction", pass)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	right := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+tokens[current])
	_, err = call(right, conn, "SubmitAction", pass)
	assert.NoError(t, err)
}

func TestToStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{match.ErrNotFound, codes.NotFound},
		{&game.IllegalActionError{Action: game.Pass(0), Reason: "not your turn"}, codes.FailedPrecondition},
		{game.ErrNoPendingInput, codes.FailedPrecondition},
		{game.ErrInvalidInput, codes.InvalidArgument},
		{game.ErrMatchAborted, codes.Aborted},
		{match.ErrClosed, codes.Aborted},
		{auth.ErrInvalidToken, codes.Unauthenticated},
		{ErrSeatMismatch, codes.PermissionDenied},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{assert.AnError, codes.Internal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, status.Code(toStatus(tt.err)), tt.err.Error())
	}
	assert.NoError(t, toStatus(nil))
}

func TestRecoveryInterceptor(t *testing.T) {
	interceptor := RecoveryInterceptor(zap.NewNop())
	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/x/y"},
		func(context.Context, any) (any, error) { panic("boom") })
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestChainUnaryInterceptorsOrder(t *testing.T) {
	var order []string
	mk := func(name string) grpc.UnaryServerInterceptor {
		return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, h grpc.UnaryHandler) (any, error) {
			order = append(order, name)
			return h(ctx, req)
		}
	}
	chain := ChainUnaryInterceptors(mk("a"), mk("b"), mk("c"))
	resp, err := chain(context.Background(), "req", &grpc.UnaryServerInfo{},
		func(_ context.Context, req any) (any, error) {
			order = append(order, "handler")
			return req, nil
		})
	require.NoError(t, err)
	assert.Equal(t, "req", resp)
	assert.Equal(t, []string{"a", "b", "c", "handler"}, order)
}

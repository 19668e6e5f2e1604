package integration

import (
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/skirmishgg/skirmish-server-go/internal/auth"
	"github.com/skirmishgg/skirmish-server-go/internal/catalog"
	"github.com/skirmishgg/skirmish-server-go/internal/config"
	"github.com/skirmishgg/skirmish-server-go/internal/game"
	"github.com/skirmishgg/skirmish-server-go/internal/match"
	"github.com/skirmishgg/skirmish-server-go/internal/repository"
	"github.com/skirmishgg/skirmish-server-go/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

const autoPass = "auto-pass: no other legal action"

type serverEnv struct {
	catalog   *catalog.Catalog
	store     *repository.SQLiteStore
	manager   *match.Manager
	conn      *grpc.ClientConn
	dbPath    string
	replayDir string
}

func newServerEnv(t *testing.T) *serverEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)
	ctx := context.Background()
	dir := t.TempDir()

	cat, err := catalog.Default()
	require.NoError(t, err)

	env := &serverEnv{
		catalog:   cat,
		dbPath:    filepath.Join(dir, "skirmish.db"),
		replayDir: filepath.Join(dir, "replays"),
	}
	env.store, err = repository.OpenSQLite(ctx, env.dbPath, logger)
	require.NoError(t, err)
	t.Cleanup(func() { env.store.Close() })

	env.manager = match.NewManager(cat, config.MatchConfig{
		Decks:     []string{"control", "aggro"},
		ReplayDir: env.replayDir,
	}, env.store, logger)
	t.Cleanup(func() { env.manager.Close(context.Background()) })

	svc := server.NewMatchService(env.manager, env.store, auth.NewSeatTokens("", time.Hour), logger)
	lis := bufconn.Listen(1 << 20)
	srv := server.NewGRPCServer(config.GRPCConfig{}, svc, logger)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	env.conn, err = grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { env.conn.Close() })
	return env
}

func (env *serverEnv) call(t *testing.T, method string, req, out any) {
	t.Helper()
	data, err := json.Marshal(req)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	in, err := structpb.NewStruct(fields)
	require.NoError(t, err)

	resp := new(structpb.Struct)
	require.NoError(t, env.conn.Invoke(context.Background(), "/"+server.ServiceName+"/"+method, in, resp))

	data, err = json.Marshal(resp.AsMap())
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

// TestAIMatchAcrossStack plays an AI match through gRPC, then checks the
// stored record, the saved replay and a fresh re-execution all agree.
func TestAIMatchAcrossStack(t *testing.T) {
	env := newServerEnv(t)
	ctx := context.Background()

	var created server.CreateMatchResponse
	env.call(t, "CreateMatch", server.CreateMatchRequest{Seed: 1234}, &created)
	require.True(t, created.State.MatchEnded)

	var st server.StateResponse
	env.call(t, "GetState", server.MatchRequest{MatchID: created.MatchID}, &st)

	var listed server.ListRecordsResponse
	env.call(t, "ListRecords", server.ListRecordsRequest{Limit: 5}, &listed)
	require.Len(t, listed.Records, 1)
	assert.Equal(t, created.MatchID, listed.Records[0].ID)
	assert.Equal(t, repository.StatusFinished, listed.Records[0].Status)

	// A second connection to the same database sees the record.
	reopened, err := repository.OpenSQLite(ctx, env.dbPath, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer reopened.Close()
	rec, err := reopened.GetMatch(ctx, created.MatchID)
	require.NoError(t, err)
	assert.Equal(t, st.Checksum, rec.Checksum)
	assert.Equal(t, [2]string{"ai", "ai"}, rec.PlayerTypes)

	var log game.GameLog
	require.NoError(t, json.Unmarshal(rec.Log, &log))
	require.NotNil(t, log.Result)
	assert.Equal(t, rec.Winner, int(log.Result.Winner))
	assert.NotEmpty(t, log.Entries)

	replay, err := game.LoadReplayFromFile(env.replayDir, created.MatchID)
	require.NoError(t, err)
	require.NotZero(t, replay.Size())
	assert.Equal(t, rec.Checksum, replay.FrameAt(replay.Size()-1).Checksum)

	// Re-run the recorded actions on a fresh engine built from the record.
	e, err := game.NewEngine(game.Config{Seed: rec.Seed, Decks: rec.Decks, Leaders: rec.Leaders}, env.catalog, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, e.Start())
	for _, r := range replay.Actions() {
		if r.Type == game.ActionInput {
			require.NoError(t, e.SubmitInput(*r.Input))
			continue
		}
		if r.Reasoning == autoPass {
			continue
		}
		_, err := e.SubmitAction(r.Action, r.Reasoning)
		require.NoError(t, err)
	}
	assert.Equal(t, rec.Checksum, e.Checksum())
	assert.Equal(t, game.PhaseMatchEnded, e.Phase())
}

// TestRemoteSeatAbortedOnShutdown leaves a human seat idle and checks that
// closing the manager stores the match as aborted.
func TestRemoteSeatAbortedOnShutdown(t *testing.T) {
	env := newServerEnv(t)
	ctx := context.Background()

	var created server.CreateMatchResponse
	env.call(t, "CreateMatch", server.CreateMatchRequest{Seed: 77, Seats: [2]string{"human", "ai"}}, &created)
	require.False(t, created.State.MatchEnded)

	env.manager.Close(ctx)

	rec, err := env.store.GetMatch(ctx, created.MatchID)
	require.NoError(t, err)
	assert.Equal(t, repository.StatusAborted, rec.Status)
	assert.Equal(t, -1, rec.Winner)
	assert.Equal(t, [2]string{"human", "ai"}, rec.PlayerTypes)

	replay, err := game.LoadReplayFromFile(env.replayDir, created.MatchID)
	require.NoError(t, err)
	assert.Equal(t, rec.Checksum, replay.FrameAt(replay.Size()-1).Checksum)
}

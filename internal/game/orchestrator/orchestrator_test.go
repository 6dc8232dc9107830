package orchestrator

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/palemoky/party-room/internal/game/room"
	"github.com/palemoky/party-room/internal/protocol"
	"github.com/palemoky/party-room/internal/testutil"
	"github.com/palemoky/party-room/internal/words"
)

const testRoom = "room-1"

type fixture struct {
	o     *Orchestrator
	gen   *testutil.StubGenerator
	conns map[string]*testutil.RecordingConn
}

func newFixture(t *testing.T, voteDuration time.Duration, recorder ResultRecorder, players ...string) *fixture {
	t.Helper()

	gen := &testutil.StubGenerator{Pair: [2]string{"sea", "waterfall"}, Trait: "sleepyhead"}
	o := New(Options{
		Words:        words.NewService(gen, words.Options{Timeout: time.Second}),
		Recorder:     recorder,
		VoteDuration: voteDuration,
		Rand:         rand.New(rand.NewPCG(7, 11)),
	})
	t.Cleanup(o.Close)

	f := &fixture{o: o, gen: gen, conns: make(map[string]*testutil.RecordingConn)}
	for _, p := range players {
		f.join(t, p)
	}
	return f
}

func (f *fixture) join(t *testing.T, player string) *testutil.RecordingConn {
	t.Helper()
	c := testutil.NewRecordingConn(player)
	require.NoError(t, f.o.Join(testRoom, player, c))
	f.conns[player] = c
	return c
}

func (f *fixture) leave(player string) {
	f.o.Leave(testRoom, player, f.conns[player])
}

func (f *fixture) do(player string, act protocol.Action) error {
	return f.o.Handle(context.Background(), testRoom, player, &act)
}

func (f *fixture) inspect(t *testing.T, fn func(r *room.Room)) {
	t.Helper()
	require.True(t, f.o.store.Get(testRoom, fn), "room should exist")
}

func (f *fixture) state(t *testing.T) room.State {
	t.Helper()
	var s room.State
	f.inspect(t, func(r *room.Room) { s = r.State })
	return s
}

// waitFor 等待连接收到指定类型的事件
func waitFor(t *testing.T, c *testutil.RecordingConn, typ string, within time.Duration) testutil.Event {
	t.Helper()
	var evt testutil.Event
	require.Eventually(t, func() bool {
		var ok bool
		evt, ok = c.Last(typ)
		return ok
	}, within, 5*time.Millisecond, "expected %s event", typ)
	return evt
}

func num(n int) *protocol.Int {
	v := protocol.Int(n)
	return &v
}

func guesses(m map[string]int) map[string]protocol.Int {
	out := make(map[string]protocol.Int, len(m))
	for k, v := range m {
		out[k] = protocol.Int(v)
	}
	return out
}

func names(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func eliminatedNames(evt testutil.Event) []string {
	items, _ := evt["eliminated"].([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m["name"].(string))
		}
	}
	return out
}

package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mobtimer/internal/engine"
	"github.com/roach88/mobtimer/internal/state"
)

type testGateway struct {
	eng *engine.Engine
	hub *Hub
	srv *httptest.Server
}

// newTestGateway runs an engine with a fake clock behind the full router.
func newTestGateway(t *testing.T, origins ...string) *testGateway {
	t.Helper()
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	eng := engine.New(
		engine.WithClock(clockwork.NewFakeClock()),
		engine.WithPersister(state.NewMemory()),
	)
	hub := NewHub(eng, DefaultConfig())
	eng.Subscribe(hub.HandleEvent)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		eng.Run(ctx)
	}()

	srv := httptest.NewServer(NewRouter(eng, hub, origins))
	t.Cleanup(func() {
		srv.Close()
		hub.Close()
		cancel()
		<-done
	})
	return &testGateway{eng: eng, hub: hub, srv: srv}
}

func (g *testGateway) post(t *testing.T, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(g.srv.URL+"/commands", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}

func (g *testGateway) snapshot(t *testing.T) Snapshot {
	t.Helper()
	resp, err := http.Get(g.srv.URL + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	return snap
}

func TestRouter_Healthz(t *testing.T) {
	g := newTestGateway(t)

	resp, err := http.Get(g.srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestRouter_StateDefaults(t *testing.T) {
	g := newTestGateway(t)

	snap := g.snapshot(t)

	assert.Equal(t, state.Default(), snap.State)
	assert.Nil(t, snap.Current)
	assert.Nil(t, snap.Next)
	assert.Equal(t, "turnEnded", snap.Phase)
	assert.Equal(t, 600, snap.SecondsRemaining)
}

func TestRouter_PostCommandsThenState(t *testing.T) {
	g := newTestGateway(t)

	for _, body := range []string{
		`{"command":"addMobber","data":{"id":"a","name":"Ann"}}`,
		`{"command":"addMobber","data":{"id":"b","name":"Bob"}}`,
		`{"command":"setSecondsPerTurn","data":300}`,
		`{"command":"rotate"}`,
	} {
		resp, raw := g.post(t, body)
		require.Equal(t, http.StatusAccepted, resp.StatusCode, raw)
	}

	snap := g.snapshot(t)

	require.NotNil(t, snap.Current)
	require.NotNil(t, snap.Next)
	assert.Equal(t, "Bob", snap.Current.Name)
	assert.Equal(t, "Ann", snap.Next.Name)
	assert.Equal(t, 300, snap.State.SecondsPerTurn)
	assert.Equal(t, 300, snap.SecondsRemaining)
}

func TestRouter_PostCommandAccepted(t *testing.T) {
	g := newTestGateway(t)

	resp, body := g.post(t, `{"command":"unpause"}`)

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.JSONEq(t, `{"accepted":"start"}`, body)
}

func TestRouter_PostCommandRejected(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		contains string
	}{
		{"invalid json", `{"command":`, "invalid JSON"},
		{"missing name", `{"data":1}`, `"code":"REQUIRED"`},
		{"name too long", `{"command":"` + strings.Repeat("x", 65) + `"}`, `"code":"MAX"`},
		{"unknown command", `{"command":"dance"}`, "unknown command"},
		{"missing data", `{"command":"setSecondsPerTurn"}`, "missing command data"},
		{"wrong data type", `{"command":"setSecondsPerTurn","data":"ten"}`, "setSecondsPerTurn"},
	}

	g := newTestGateway(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := g.post(t, tt.body)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, body, tt.contains)
		})
	}
}

func TestRouter_EngineStopped(t *testing.T) {
	g := newTestGateway(t)
	g.eng.Stop()

	resp, body := g.post(t, `{"command":"start"}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, body, "engine stopped")

	stateResp, err := http.Get(g.srv.URL + "/state")
	require.NoError(t, err)
	stateResp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, stateResp.StatusCode)
}

func TestRouter_CORSPreflight(t *testing.T) {
	g := newTestGateway(t, "http://localhost:3000")

	req, err := http.NewRequest(http.MethodOptions, g.srv.URL+"/commands", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRouter_CORSRejectsOtherOrigin(t *testing.T) {
	g := newTestGateway(t, "http://localhost:3000")

	req, err := http.NewRequest(http.MethodGet, g.srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://elsewhere.test")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRouter_WebSocketEndToEnd(t *testing.T) {
	g := newTestGateway(t)
	conn := dial(t, wsURL(g.srv, "/ws"), nil)
	require.Eventually(t, func() bool { return g.hub.ClientCount() == 1 },
		5*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"command":"addMobber","data":{"id":"a","name":"Ann"}}`)))

	env := readUntil(t, conn, func(env engine.EventEnvelope) bool {
		return env.Event == engine.EventRotated
	})
	assert.JSONEq(t,
		`{"current":{"id":"a","name":"Ann","disabled":false},"next":{"id":"a","name":"Ann","disabled":false}}`,
		string(env.Data))
}

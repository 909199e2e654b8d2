package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mobtimer/internal/engine"
)

type fakeEnqueuer struct {
	mu      sync.Mutex
	cmds    []engine.Command
	stopped bool
}

func (f *fakeEnqueuer) Enqueue(c engine.Command) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return false
	}
	f.cmds = append(f.cmds, c)
	return true
}

func (f *fakeEnqueuer) commands() []engine.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]engine.Command(nil), f.cmds...)
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func dial(t *testing.T, url string, header http.Header) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) engine.EventEnvelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var env engine.EventEnvelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

// readUntil reads events until match returns true for one of them.
func readUntil(t *testing.T, conn *websocket.Conn, match func(engine.EventEnvelope) bool) engine.EventEnvelope {
	t.Helper()
	for i := 0; i < 50; i++ {
		env := readEvent(t, conn)
		if match(env) {
			return env
		}
	}
	t.Fatal("no matching event within 50 messages")
	return engine.EventEnvelope{}
}

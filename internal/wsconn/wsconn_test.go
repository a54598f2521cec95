package wsconn

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
)

// newPeer starts a WebSocket server running handler for every connection and
// returns its ws:// URL.
func newPeer(t *testing.T, handler func(conn *websocket.Conn)) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Logf("websocket accept error: %v", err)
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		if handler != nil {
			handler(conn)
		}
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// readAll consumes frames until the connection drops, calling fn for each.
func readAll(conn *websocket.Conn, fn func(data []byte)) {
	for {
		_, data, err := conn.Read(context.Background())
		if err != nil {
			return
		}
		if fn != nil {
			fn(data)
		}
	}
}

// newClient builds a client for url with pings off, letting tweak adjust the
// config. The client is closed when the test ends.
func newClient(t *testing.T, url string, tweak func(*Config)) *Client {
	t.Helper()
	cfg := DefaultConfig(url, "rippled")
	cfg.PingInterval = 0
	if tweak != nil {
		tweak(&cfg)
	}
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestClient_Connect(t *testing.T) {
	url := newPeer(t, func(conn *websocket.Conn) { readAll(conn, nil) })
	client := newClient(t, url, nil)

	if err := client.Connect(testContext(t)); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if client.State() != StateConnected || !client.IsConnected() {
		t.Errorf("state = %v, want %v", client.State(), StateConnected)
	}
}

func TestClient_ConnectRefused(t *testing.T) {
	client := newClient(t, "ws://127.0.0.1:59999", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Connect(ctx); err == nil {
		t.Fatal("expected Connect to fail with nothing listening")
	}
	if client.State() != StateDisconnected {
		t.Errorf("state = %v, want %v", client.State(), StateDisconnected)
	}
}

func TestClient_SendJSONWritesOneFrame(t *testing.T) {
	frames := make(chan []byte, 1)
	url := newPeer(t, func(conn *websocket.Conn) {
		readAll(conn, func(data []byte) { frames <- data })
	})
	client := newClient(t, url, nil)
	ctx := testContext(t)

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	request := struct {
		ID      int      `json:"id"`
		Command string   `json:"command"`
		Streams []string `json:"streams"`
	}{ID: 1, Command: "subscribe", Streams: []string{"ledger"}}
	if err := client.SendJSON(ctx, request); err != nil {
		t.Fatalf("SendJSON: %v", err)
	}

	var got map[string]any
	select {
	case data := <-frames:
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("frame is not JSON: %v (%s)", err, data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the request")
	}
	if got["command"] != "subscribe" {
		t.Errorf("command = %v, want subscribe", got["command"])
	}
	if streams, _ := got["streams"].([]any); len(streams) != 1 || streams[0] != "ledger" {
		t.Errorf("streams = %v, want [ledger]", got["streams"])
	}
}

func TestClient_DeliversServerFrames(t *testing.T) {
	closes := []string{
		`{"type":"ledgerClosed","ledger_index":90000001}`,
		`{"type":"ledgerClosed","ledger_index":90000002}`,
	}
	url := newPeer(t, func(conn *websocket.Conn) {
		for _, msg := range closes {
			if err := conn.Write(context.Background(), websocket.MessageText, []byte(msg)); err != nil {
				return
			}
		}
		readAll(conn, nil)
	})
	client := newClient(t, url, nil)

	var (
		mu  sync.Mutex
		got []string
	)
	client.OnMessage(func(ctx context.Context, msg []byte) {
		mu.Lock()
		got = append(got, string(msg))
		mu.Unlock()
	})

	if err := client.Connect(testContext(t)); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	waitFor(t, "both ledger closes", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == len(closes)
	})

	mu.Lock()
	defer mu.Unlock()
	for i := range closes {
		if got[i] != closes[i] {
			t.Errorf("frame %d = %s, want %s", i, got[i], closes[i])
		}
	}
}

func TestClient_ReportsStateTransitions(t *testing.T) {
	url := newPeer(t, func(conn *websocket.Conn) { readAll(conn, nil) })
	client := newClient(t, url, nil)

	var (
		mu     sync.Mutex
		states []State
	)
	client.OnStateChange(func(state State, err error) {
		mu.Lock()
		states = append(states, state)
		mu.Unlock()
	})

	if err := client.Connect(testContext(t)); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []State{StateConnecting, StateConnected, StateClosed}
	if len(states) < len(want) {
		t.Fatalf("states = %v, want prefix %v", states, want)
	}
	for i, s := range want {
		if states[i] != s {
			t.Errorf("states[%d] = %v, want %v", i, states[i], s)
		}
	}
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	url := newPeer(t, func(conn *websocket.Conn) { readAll(conn, nil) })
	client := newClient(t, url, nil)

	if err := client.Connect(testContext(t)); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if client.State() != StateClosed {
		t.Errorf("state = %v, want %v", client.State(), StateClosed)
	}
	if err := client.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestClient_ConcurrentSend(t *testing.T) {
	var frames atomic.Int32
	url := newPeer(t, func(conn *websocket.Conn) {
		readAll(conn, func([]byte) { frames.Add(1) })
	})
	client := newClient(t, url, nil)
	ctx := testContext(t)

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	const senders, perSender = 8, 6
	var wg sync.WaitGroup
	for i := range senders {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := range perSender {
				req := map[string]any{"id": id*perSender + j, "command": "ping"}
				if err := client.SendJSON(ctx, req); err != nil {
					t.Errorf("SendJSON: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	waitFor(t, "all frames", func() bool { return frames.Load() == senders*perSender })
}

func TestClient_OversizedFrameDropsConnection(t *testing.T) {
	url := newPeer(t, func(conn *websocket.Conn) {
		book := `{"result":{"offers":[` + strings.Repeat(`{"Account":"r"},`, 64) + `{}]}}`
		conn.Write(context.Background(), websocket.MessageText, []byte(book))
		readAll(conn, nil)
	})
	client := newClient(t, url, func(cfg *Config) {
		cfg.MaxMessageSize = 100
		cfg.MaxReconnects = 1
		cfg.InitialBackoff = time.Second
	})

	if err := client.Connect(testContext(t)); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	waitFor(t, "the oversized frame to drop the connection", func() bool {
		return client.State() != StateConnected
	})
}

func TestNew_RejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "http://example.com", "ws://", "::bad"} {
		if _, err := New(DefaultConfig(u, "rippled")); err == nil {
			t.Errorf("New(%q) should fail", u)
		}
	}
}

func TestClient_SendWhileDisconnected(t *testing.T) {
	client := newClient(t, "ws://127.0.0.1:59999", nil)

	if err := client.Send(context.Background(), []byte(`{"command":"ping"}`)); err == nil {
		t.Fatal("expected Send to fail without a connection")
	}
}

func TestClient_ReconnectRunsHook(t *testing.T) {
	var connections atomic.Int32
	url := newPeer(t, func(conn *websocket.Conn) {
		// drop the first connection straight away, keep later ones open
		if connections.Add(1) == 1 {
			return
		}
		readAll(conn, nil)
	})
	client := newClient(t, url, func(cfg *Config) {
		cfg.InitialBackoff = 10 * time.Millisecond
	})

	resubscribed := make(chan struct{}, 1)
	client.OnReconnect(func(ctx context.Context) error {
		resubscribed <- struct{}{}
		return nil
	})

	if err := client.Connect(testContext(t)); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	select {
	case <-resubscribed:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for reconnect")
	}

	waitFor(t, "reconnected state", client.IsConnected)
	if client.Reconnects() != 1 {
		t.Errorf("Reconnects = %d, want 1", client.Reconnects())
	}
}

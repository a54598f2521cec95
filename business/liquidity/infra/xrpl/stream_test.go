package xrpl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/fd1az/xrpl-liquidity/business/liquidity/domain"
	"github.com/fd1az/xrpl-liquidity/internal/logger"
)

// ledgerServer accepts subscribe commands and runs script on each connection.
func ledgerServer(t *testing.T, subscribes *atomic.Int32, script func(ctx context.Context, conn *websocket.Conn, n int32)) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		ctx := r.Context()

		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var req subscribeRequest
		if err := json.Unmarshal(data, &req); err != nil || req.Command != "subscribe" {
			return
		}
		n := subscribes.Add(1)
		script(ctx, conn, n)
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func write(ctx context.Context, conn *websocket.Conn, msg string) {
	_ = conn.Write(ctx, websocket.MessageText, []byte(msg))
}

func testStreamConfig(url string) StreamConfig {
	cfg := DefaultStreamConfig(url)
	cfg.PingInterval = 0
	cfg.InitialBackoff = 10 * time.Millisecond
	cfg.MaxBackoff = 20 * time.Millisecond
	return cfg
}

func nextLedger(t *testing.T, ch <-chan domain.LedgerClose) domain.LedgerClose {
	t.Helper()
	select {
	case l, ok := <-ch:
		if !ok {
			t.Fatal("ledger channel closed")
		}
		return l
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a ledger close")
	}
	return domain.LedgerClose{}
}

func TestLedgerStream_DeliversLedgerCloses(t *testing.T) {
	var subscribes atomic.Int32
	url := ledgerServer(t, &subscribes, func(ctx context.Context, conn *websocket.Conn, _ int32) {
		write(ctx, conn, `{"id":1,"status":"success","type":"response","result":{"ledger_index":100,"ledger_hash":"H100","ledger_time":800000000,"fee_base":10}}`)
		write(ctx, conn, `{"type":"ledgerClosed","ledger_index":101,"ledger_hash":"H101","ledger_time":800000004,"txn_count":42}`)
		write(ctx, conn, `{"type":"ledgerClosed","ledger_index":100,"ledger_hash":"H100","ledger_time":800000000}`)
		write(ctx, conn, `not json`)
		write(ctx, conn, `{"type":"ledgerClosed","ledger_index":102,"ledger_hash":"H102","ledger_time":800000008,"txn_count":7}`)
		drain(ctx, conn)
	})

	stream, err := NewLedgerStream(testStreamConfig(url), logger.NewNop())
	if err != nil {
		t.Fatalf("NewLedgerStream: %v", err)
	}
	defer stream.Close()

	ledgers, err := stream.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if stream.State() != domain.StateConnected {
		t.Errorf("State = %s, want connected", stream.State())
	}

	initial := nextLedger(t, ledgers)
	if initial.Index != 100 || initial.Hash != "H100" {
		t.Errorf("initial ledger = %+v, want 100/H100", initial)
	}

	closed := nextLedger(t, ledgers)
	if closed.Index != 101 || closed.TxnCount != 42 {
		t.Errorf("ledger = %+v, want 101 with 42 txns", closed)
	}
	wantTime := time.Unix(800000004+rippleEpoch, 0).UTC()
	if !closed.CloseTime.Equal(wantTime) {
		t.Errorf("CloseTime = %v, want %v", closed.CloseTime, wantTime)
	}

	// the stale 100 and the garbage frame are skipped
	if l := nextLedger(t, ledgers); l.Index != 102 {
		t.Errorf("ledger = %d, want 102", l.Index)
	}
	if stream.LastLedger() != 102 {
		t.Errorf("LastLedger = %d, want 102", stream.LastLedger())
	}

	again, err := stream.Subscribe(context.Background())
	if err != nil || again != ledgers {
		t.Error("second Subscribe must return the same channel")
	}
	if subscribes.Load() != 1 {
		t.Errorf("subscribes = %d, want 1", subscribes.Load())
	}
}

func TestLedgerStream_ResubscribesAfterReconnect(t *testing.T) {
	var subscribes atomic.Int32
	url := ledgerServer(t, &subscribes, func(ctx context.Context, conn *websocket.Conn, n int32) {
		index := 200 + n
		write(ctx, conn, `{"type":"ledgerClosed","ledger_index":`+strconv.Itoa(int(index))+`,"ledger_hash":"H","ledger_time":1}`)
		if n == 1 {
			// drop the first connection
			return
		}
		drain(ctx, conn)
	})

	stream, err := NewLedgerStream(testStreamConfig(url), logger.NewNop())
	if err != nil {
		t.Fatalf("NewLedgerStream: %v", err)
	}
	defer stream.Close()

	ledgers, err := stream.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if l := nextLedger(t, ledgers); l.Index != 201 {
		t.Errorf("first ledger = %d, want 201", l.Index)
	}
	if l := nextLedger(t, ledgers); l.Index != 202 {
		t.Errorf("ledger after reconnect = %d, want 202", l.Index)
	}
	if subscribes.Load() < 2 {
		t.Errorf("subscribes = %d, want a resubscribe", subscribes.Load())
	}
}

func TestLedgerStream_SubscribeFailsWhenUnreachable(t *testing.T) {
	stream, err := NewLedgerStream(testStreamConfig("ws://127.0.0.1:1"), logger.NewNop())
	if err != nil {
		t.Fatalf("NewLedgerStream: %v", err)
	}
	defer stream.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := stream.Subscribe(ctx); err == nil {
		t.Fatal("expected Subscribe to fail")
	}
	if stream.State() != domain.StateDisconnected {
		t.Errorf("State = %s, want disconnected", stream.State())
	}
}

func TestLedgerStream_CloseClosesChannel(t *testing.T) {
	var subscribes atomic.Int32
	url := ledgerServer(t, &subscribes, func(ctx context.Context, conn *websocket.Conn, _ int32) {
		drain(ctx, conn)
	})

	stream, err := NewLedgerStream(testStreamConfig(url), logger.NewNop())
	if err != nil {
		t.Fatalf("NewLedgerStream: %v", err)
	}
	ledgers, err := stream.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if err := stream.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	_ = stream.Close()

	select {
	case _, ok := <-ledgers:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
}

func TestNewLedgerStream_RejectsBadURL(t *testing.T) {
	if _, err := NewLedgerStream(DefaultStreamConfig("https://s1.ripple.com"), logger.NewNop()); err == nil {
		t.Fatal("expected an error for a non websocket URL")
	}
}

// drain reads until the client goes away.
func drain(ctx context.Context, conn *websocket.Conn) {
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}

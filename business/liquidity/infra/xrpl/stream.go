package xrpl

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/xrpl-liquidity/business/liquidity/app"
	"github.com/fd1az/xrpl-liquidity/business/liquidity/domain"
	"github.com/fd1az/xrpl-liquidity/internal/apperror"
	"github.com/fd1az/xrpl-liquidity/internal/logger"
	"github.com/fd1az/xrpl-liquidity/internal/wsconn"
)

// StreamConfig holds ledger stream configuration.
type StreamConfig struct {
	URL            string
	BufferSize     int
	MaxReconnects  int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	PingInterval   time.Duration
}

// DefaultStreamConfig returns sensible defaults for url.
func DefaultStreamConfig(url string) StreamConfig {
	return StreamConfig{
		URL:            url,
		BufferSize:     16,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		PingInterval:   30 * time.Second,
	}
}

type streamMetrics struct {
	ledgers         metric.Int64Counter
	dropped         metric.Int64Counter
	connectionState metric.Int64Gauge
}

// LedgerStream follows validated ledgers over rippled's WebSocket API and
// resubscribes after every reconnect.
type LedgerStream struct {
	config StreamConfig
	logger logger.LoggerInterface
	ws     *wsconn.Client

	ledgers    chan domain.LedgerClose
	lastLedger atomic.Uint32
	nextID     atomic.Uint64
	subscribed atomic.Bool
	closeOnce  sync.Once

	tracer  trace.Tracer
	metrics streamMetrics
}

var _ app.LedgerSubscriber = (*LedgerStream)(nil)

// NewLedgerStream creates a stream. Nothing is dialled until Subscribe.
func NewLedgerStream(cfg StreamConfig, log logger.LoggerInterface) (*LedgerStream, error) {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 16
	}

	wsCfg := wsconn.DefaultConfig(cfg.URL, "xrpl-ledger-stream")
	wsCfg.MaxReconnects = cfg.MaxReconnects
	if cfg.InitialBackoff > 0 {
		wsCfg.InitialBackoff = cfg.InitialBackoff
	}
	if cfg.MaxBackoff > 0 {
		wsCfg.MaxBackoff = cfg.MaxBackoff
	}
	wsCfg.PingInterval = cfg.PingInterval

	ws, err := wsconn.New(wsCfg)
	if err != nil {
		return nil, err
	}

	s := &LedgerStream{
		config:  cfg,
		logger:  log,
		ws:      ws,
		ledgers: make(chan domain.LedgerClose, cfg.BufferSize),
		tracer:  otel.Tracer(tracerName),
	}
	if err := s.initMetrics(); err != nil {
		return nil, err
	}

	ws.OnMessage(s.handleMessage)
	ws.OnReconnect(s.subscribe)
	ws.OnStateChange(func(state wsconn.State, err error) {
		ctx := context.Background()
		s.metrics.connectionState.Record(ctx, stateValue(state))
		if err != nil {
			s.logger.Warn(ctx, "ledger stream state change", "state", state, "error", err)
			return
		}
		s.logger.Info(ctx, "ledger stream state change", "state", state)
	})

	return s, nil
}

func (s *LedgerStream) initMetrics() error {
	meter := otel.Meter(meterName)

	var err error
	s.metrics.ledgers, err = meter.Int64Counter(
		"xrpl_ledgers_received_total",
		metric.WithDescription("Validated ledgers received from the stream"),
		metric.WithUnit("{ledger}"),
	)
	if err != nil {
		return err
	}

	s.metrics.dropped, err = meter.Int64Counter(
		"xrpl_ledgers_dropped_total",
		metric.WithDescription("Ledger closes dropped because the consumer was slow"),
		metric.WithUnit("{ledger}"),
	)
	if err != nil {
		return err
	}

	s.metrics.connectionState, err = meter.Int64Gauge(
		"xrpl_stream_connection_state",
		metric.WithDescription("Ledger stream state (0=disconnected, 1=connecting, 2=connected, 3=reconnecting)"),
		metric.WithUnit("{state}"),
	)
	return err
}

// Subscribe connects and subscribes to the ledger stream. Calling it again
// returns the same channel. The channel is closed by Close.
func (s *LedgerStream) Subscribe(ctx context.Context) (<-chan domain.LedgerClose, error) {
	ctx, span := s.tracer.Start(ctx, "xrpl.stream.subscribe",
		trace.WithAttributes(attribute.String("url", s.config.URL)),
	)
	defer span.End()

	if s.subscribed.Load() {
		return s.ledgers, nil
	}

	if err := s.ws.Connect(ctx); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := s.subscribe(ctx); err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.subscribed.Store(true)
	return s.ledgers, nil
}

func (s *LedgerStream) subscribe(ctx context.Context) error {
	return s.ws.SendJSON(ctx, subscribeRequest{
		ID:      s.nextID.Add(1),
		Command: "subscribe",
		Streams: []string{"ledger"},
	})
}

func (s *LedgerStream) handleMessage(ctx context.Context, data []byte) {
	var msg streamMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.logger.Warn(ctx, "unreadable stream message", "error", err)
		return
	}

	switch msg.Type {
	case "ledgerClosed":
		s.emit(ctx, msg)

	case "response":
		if msg.Status == "error" {
			s.logger.Error(ctx, "subscribe rejected", "error",
				apperror.New(apperror.CodeStreamSendFailed, apperror.WithContext(msg.Error)))
			return
		}
		// the subscribe response carries the current validated ledger
		var current streamMessage
		if len(msg.Result) > 0 && json.Unmarshal(msg.Result, &current) == nil && current.LedgerIndex > 0 {
			s.emit(ctx, current)
		}
	}
}

func (s *LedgerStream) emit(ctx context.Context, msg streamMessage) {
	for {
		last := s.lastLedger.Load()
		if msg.LedgerIndex <= last {
			return
		}
		if s.lastLedger.CompareAndSwap(last, msg.LedgerIndex) {
			break
		}
	}

	ledger := domain.LedgerClose{
		Index:     msg.LedgerIndex,
		Hash:      msg.LedgerHash,
		CloseTime: ledgerTime(msg.LedgerTime),
		TxnCount:  msg.TxnCount,
	}
	s.metrics.ledgers.Add(ctx, 1)

	select {
	case s.ledgers <- ledger:
	default:
		s.metrics.dropped.Add(ctx, 1)
		s.logger.Debug(ctx, "ledger close dropped, consumer busy", "index", ledger.Index)
	}
}

// State returns the current connection state.
func (s *LedgerStream) State() domain.ConnectionState {
	switch s.ws.State() {
	case wsconn.StateConnecting:
		return domain.StateConnecting
	case wsconn.StateConnected:
		return domain.StateConnected
	case wsconn.StateReconnecting:
		return domain.StateReconnecting
	default:
		return domain.StateDisconnected
	}
}

// Latency returns the last measured ping round trip.
func (s *LedgerStream) Latency() time.Duration {
	return s.ws.Latency()
}

// LastLedger returns the newest ledger index seen, 0 before the first.
func (s *LedgerStream) LastLedger() uint32 {
	return s.lastLedger.Load()
}

// Close stops the stream and closes the ledger channel.
func (s *LedgerStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.ws.Close()
		close(s.ledgers)
	})
	return err
}

func stateValue(state wsconn.State) int64 {
	switch state {
	case wsconn.StateConnecting:
		return 1
	case wsconn.StateConnected:
		return 2
	case wsconn.StateReconnecting:
		return 3
	default:
		return 0
	}
}

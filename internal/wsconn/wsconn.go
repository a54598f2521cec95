// Package wsconn provides a WebSocket client with reconnection.
package wsconn

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/fd1az/xrpl-liquidity/internal/apperror"
)

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateClosed       State = "closed"
)

// Config holds WebSocket client configuration.
type Config struct {
	URL            string
	Name           string
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int // 0 = infinite
	PingInterval   time.Duration
	PongTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url, name string) Config {
	return Config{
		URL:            url,
		Name:           name,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		MaxReconnects:  0, // infinite
		PingInterval:   30 * time.Second,
		PongTimeout:    10 * time.Second,
		WriteTimeout:   5 * time.Second,
		MaxMessageSize: 4 << 20,
	}
}

// MessageHandler receives every message read from the connection.
type MessageHandler func(ctx context.Context, msg []byte)

// StateHandler is called on every state transition. err is the cause of the
// transition when there is one.
type StateHandler func(state State, err error)

// ReconnectHandler runs after a successful reconnect, before reads resume.
// Returning an error drops the connection and schedules another attempt.
type ReconnectHandler func(ctx context.Context) error

// Client is a WebSocket client that reconnects with exponential backoff.
// Writes are safe for concurrent use.
type Client struct {
	config Config

	mu    sync.RWMutex
	conn  *websocket.Conn
	state State

	onMessage     MessageHandler
	onStateChange StateHandler
	onReconnect   ReconnectHandler

	messages   chan []byte
	ctx        context.Context
	cancel     context.CancelFunc
	closed     atomic.Bool
	closeOnce  sync.Once
	wg         sync.WaitGroup
	reconnects atomic.Int64
	latency    atomic.Int64
}

// New creates a new WebSocket client.
func New(config Config) (*Client, error) {
	u, err := url.Parse(config.URL)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "websocket url: "+config.URL)
	}

	defaults := DefaultConfig(config.URL, config.Name)
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = defaults.InitialBackoff
	}
	if config.MaxBackoff < config.InitialBackoff {
		config.MaxBackoff = max(defaults.MaxBackoff, config.InitialBackoff)
	}
	if config.PongTimeout <= 0 {
		config.PongTimeout = defaults.PongTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		config:   config,
		state:    StateDisconnected,
		messages: make(chan []byte, 100),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// OnMessage sets the message handler. Without one, messages are delivered on
// Messages(). Set it before Connect.
func (c *Client) OnMessage(h MessageHandler) {
	c.mu.Lock()
	c.onMessage = h
	c.mu.Unlock()
}

// OnStateChange sets the state transition handler. Set it before Connect.
func (c *Client) OnStateChange(h StateHandler) {
	c.mu.Lock()
	c.onStateChange = h
	c.mu.Unlock()
}

// OnReconnect sets a hook that runs after each reconnect, typically to
// restore subscriptions.
func (c *Client) OnReconnect(h ReconnectHandler) {
	c.mu.Lock()
	c.onReconnect = h
	c.mu.Unlock()
}

// Connect dials the server. A failed first dial is returned to the caller and
// is not retried; drops after a successful Connect are retried in the
// background.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return apperror.New(apperror.CodeStreamClosed, apperror.WithContext(c.config.Name))
	}

	c.setState(StateConnecting, nil)

	conn, err := c.dial(ctx)
	if err != nil {
		c.setState(StateDisconnected, err)
		return apperror.External(apperror.CodeStreamDisconnected, c.config.Name, err)
	}

	c.attach(conn)
	c.setState(StateConnected, nil)
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, c.config.URL, nil)
	if err != nil {
		return nil, err
	}
	if c.config.MaxMessageSize > 0 {
		conn.SetReadLimit(c.config.MaxMessageSize)
	}
	return conn, nil
}

// attach makes conn the active connection and starts its read and ping loops.
func (c *Client) attach(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	connCtx, connCancel := context.WithCancel(c.ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer connCancel()
		c.readLoop(connCtx, conn)
	}()

	if c.config.PingInterval > 0 {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.pingLoop(connCtx, conn)
		}()
	}
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if c.closed.Load() {
				return
			}
			c.handleDisconnect(conn, err)
			return
		}

		c.mu.RLock()
		handler := c.onMessage
		c.mu.RUnlock()

		if handler != nil {
			handler(ctx, data)
			continue
		}

		select {
		case c.messages <- data:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, c.config.PongTimeout)
			start := time.Now()
			err := conn.Ping(pingCtx)
			cancel()

			if err != nil {
				if ctx.Err() != nil {
					return
				}
				// unblocks readLoop, which owns reconnection
				conn.Close(websocket.StatusGoingAway, "pong timeout")
				return
			}
			c.latency.Store(int64(time.Since(start)))
		}
	}
}

func (c *Client) handleDisconnect(conn *websocket.Conn, cause error) {
	conn.CloseNow()

	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()

	c.setState(StateReconnecting, cause)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.reconnectLoop(cause)
	}()
}

func (c *Client) reconnectLoop(cause error) {
	backoff := c.config.InitialBackoff

	for attempt := 1; ; attempt++ {
		if c.config.MaxReconnects > 0 && attempt > c.config.MaxReconnects {
			c.setState(StateDisconnected, cause)
			return
		}

		select {
		case <-c.ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, c.config.MaxBackoff)

		conn, err := c.dial(c.ctx)
		if err != nil {
			cause = err
			continue
		}

		c.mu.RLock()
		hook := c.onReconnect
		c.mu.RUnlock()

		c.attach(conn)
		if hook != nil {
			if err := hook(c.ctx); err != nil {
				conn.Close(websocket.StatusGoingAway, "resubscribe failed")
				return
			}
		}

		c.reconnects.Add(1)
		c.setState(StateConnected, nil)
		return
	}
}

// Send writes a text message.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return apperror.New(apperror.CodeStreamSendFailed,
			apperror.WithContext(c.config.Name),
			apperror.WithCause(errors.New("not connected")),
		)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.WriteTimeout)
	defer cancel()

	if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
		return apperror.New(apperror.CodeStreamSendFailed, apperror.WithContext(c.config.Name), apperror.WithCause(err))
	}
	return nil
}

// SendJSON encodes v as JSON and writes it as a text message.
func (c *Client) SendJSON(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return apperror.New(apperror.CodeStreamSendFailed, apperror.WithContext(c.config.Name), apperror.WithCause(err))
	}
	return c.Send(ctx, data)
}

// Messages returns the channel for receiving messages when no handler is set.
func (c *Client) Messages() <-chan []byte {
	return c.messages
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsConnected reports whether the client is currently connected.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Reconnects returns how many times the connection was re-established.
func (c *Client) Reconnects() int64 {
	return c.reconnects.Load()
}

// Latency returns the last measured ping round trip, 0 before the first ping.
func (c *Client) Latency() time.Duration {
	return time.Duration(c.latency.Load())
}

// Close gracefully closes the connection and stops reconnecting. It is safe
// to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.cancel()

		c.mu.Lock()
		conn := c.conn
		c.conn = nil
		c.mu.Unlock()

		if conn != nil {
			conn.Close(websocket.StatusNormalClosure, "")
		}
		c.wg.Wait()

		c.setState(StateClosed, nil)
	})
	return nil
}

func (c *Client) setState(state State, err error) {
	c.mu.Lock()
	if c.state == StateClosed || c.state == state {
		c.mu.Unlock()
		return
	}
	c.state = state
	handler := c.onStateChange
	c.mu.Unlock()

	if handler != nil {
		handler(state, err)
	}
}

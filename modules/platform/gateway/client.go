package gateway

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"econdash/modules/platform/config"
	"econdash/modules/platform/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ConnState is the lifecycle state of the push channel
type ConnState string

const (
	StateDisconnected ConnState = "disconnected"
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
)

// StateListener is notified on every connection state transition.
// errText is empty while the connection is healthy; after the retry budget
// is exhausted it carries the terminal failure message.
type StateListener func(state ConnState, attempts int, errText string)

// Client owns one logical websocket connection to the simulation backend:
// open, topic subscription, heartbeat, bounded reconnection, shutdown.
// Inbound topic frames are queued on a single channel consumed by the
// router loop, so mutation order equals arrival order.
type Client struct {
	url      string
	cfg      *config.GatewayConfig
	log      *logger.Logger
	dialer   *websocket.Dialer
	clientID string

	mu             sync.Mutex
	state          ConnState
	conn           *websocket.Conn
	heartbeatStop  chan struct{}
	attempts       int
	lastErr        string
	reconnectTimer *time.Timer
	closed         bool
	terminal       bool
	listener       StateListener

	inbound chan *Envelope
}

// NewClient creates a gateway client for the given websocket URL
func NewClient(url string, cfg *config.GatewayConfig, log *logger.Logger) *Client {
	if cfg == nil {
		cfg = config.DefaultGatewayConfig()
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Client{
		url:      url,
		cfg:      cfg,
		log:      log,
		dialer:   websocket.DefaultDialer,
		clientID: uuid.NewString(),
		state:    StateDisconnected,
		inbound:  make(chan *Envelope, cfg.InboundQueueSize),
	}
}

// SetStateListener sets the connection state callback
func (c *Client) SetStateListener(fn StateListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listener = fn
}

// Frames returns the inbound frame queue
func (c *Client) Frames() <-chan *Envelope {
	return c.inbound
}

// State returns the current connection state, attempt counter and error text
func (c *Client) State() (ConnState, int, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.attempts, c.lastErr
}

// Terminal reports whether the retry budget is exhausted
func (c *Client) Terminal() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.terminal
}

// Connect opens the channel. It is a no-op while a connection is open or
// being opened. On success the attempt counter resets, any connection
// error clears, and a single subscribe envelope is sent before the first
// heartbeat.
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("gateway client is closed")
	}
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	c.mu.Unlock()
	c.notify()

	dialer := *c.dialer
	dialer.HandshakeTimeout = 5 * time.Second
	conn, resp, err := dialer.Dial(c.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		c.dialFailed(err)
		return fmt.Errorf("failed to open channel: %w", err)
	}

	stop := make(chan struct{})
	c.mu.Lock()
	if c.closed {
		// Disconnect raced the dial; drop the fresh connection
		c.state = StateDisconnected
		c.mu.Unlock()
		conn.Close()
		return fmt.Errorf("gateway client is closed")
	}
	c.conn = conn
	c.heartbeatStop = stop
	c.state = StateConnected
	c.attempts = 0
	c.lastErr = ""
	c.terminal = false
	c.mu.Unlock()
	c.notify()

	sub := SubscribeRequest{Type: "subscribe", ClientID: c.clientID, Topics: c.cfg.Topics}
	if err := conn.WriteJSON(sub); err != nil {
		c.log.Warn("failed to send subscribe envelope: %v", err)
	} else {
		c.log.Info("subscribed to %d topics", len(c.cfg.Topics))
	}

	go c.readLoop(conn)
	go c.heartbeatLoop(conn, stop)
	return nil
}

// Disconnect tears the channel down and cancels any pending reconnect.
// Safe to call multiple times.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.closed = true
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	conn := c.conn
	c.conn = nil
	if c.heartbeatStop != nil {
		close(c.heartbeatStop)
		c.heartbeatStop = nil
	}
	c.state = StateDisconnected
	c.lastErr = ""
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	c.notify()
}

// dialFailed records a failed open and schedules the next bounded attempt
func (c *Client) dialFailed(err error) {
	c.mu.Lock()
	c.state = StateDisconnected
	c.attempts++
	if c.attempts > c.cfg.ReconnectAttempts {
		c.terminal = true
		c.lastErr = fmt.Sprintf("connection failed after %d attempts: %v", c.cfg.ReconnectAttempts, err)
		c.mu.Unlock()
		c.log.Error("giving up on reconnect: %v", err)
		c.notify()
		return
	}
	c.lastErr = fmt.Sprintf("connection failed: %v", err)
	attempts := c.attempts
	c.mu.Unlock()

	c.log.Warn("connect attempt %d failed: %v", attempts, err)
	c.notify()
	c.scheduleReconnect()
}

// readLoop drains the connection into the inbound queue until it closes
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.connClosed(conn, err)
			return
		}

		env, err := DecodeEnvelope(raw)
		if err != nil {
			// Malformed frames never propagate beyond a log line
			c.log.Warn("dropping frame: %v", err)
			continue
		}

		if env.Topic == "" {
			c.handleControlFrame(raw)
			continue
		}

		select {
		case c.inbound <- env:
		default:
			c.log.Warn("inbound queue full, dropping %s frame", env.Topic)
		}
	}
}

// handleControlFrame logs non-topic frames such as subscription confirmations
func (c *Client) handleControlFrame(raw []byte) {
	var ctl controlFrame
	if err := json.Unmarshal(raw, &ctl); err != nil || ctl.Type == "" {
		c.log.Debug("dropping unrecognized control frame")
		return
	}
	switch ctl.Type {
	case "subscription_confirmed":
		c.log.Info("subscription confirmed for %d topics", len(ctl.Topics))
	case "pong":
		// Keepalive response, ignore
	default:
		c.log.Debug("ignoring control frame %q", ctl.Type)
	}
}

// heartbeatLoop emits a ping envelope on a fixed period while connected
func (c *Client) heartbeatLoop(conn *websocket.Conn, stop chan struct{}) {
	interval := time.Duration(c.cfg.HeartbeatInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(NewPing()); err != nil {
				// Ride the normal close/reconnect path
				conn.Close()
				return
			}
		}
	}
}

// connClosed handles an unexpected close of the active connection
func (c *Client) connClosed(conn *websocket.Conn, err error) {
	c.mu.Lock()
	if c.conn != conn {
		// A newer connection already replaced this one
		c.mu.Unlock()
		return
	}
	c.conn = nil
	if c.heartbeatStop != nil {
		close(c.heartbeatStop)
		c.heartbeatStop = nil
	}
	c.state = StateDisconnected
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.lastErr = fmt.Sprintf("connection closed: %v", err)
	c.mu.Unlock()

	c.log.Warn("channel closed: %v", err)
	c.notify()
	c.scheduleReconnect()
}

// scheduleReconnect arms the retry timer with exponential backoff
func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	if c.closed || c.terminal {
		c.mu.Unlock()
		return
	}
	delay := c.backoffDelay(c.attempts)
	c.reconnectTimer = time.AfterFunc(delay, func() {
		c.Connect()
	})
	c.mu.Unlock()
}

// backoffDelay returns the delay before attempt n+1, doubling per attempt
// up to the configured ceiling
func (c *Client) backoffDelay(attempts int) time.Duration {
	base := time.Duration(c.cfg.ReconnectBaseMS) * time.Millisecond
	max := time.Duration(c.cfg.ReconnectMaxMS) * time.Millisecond
	delay := base
	for i := 0; i < attempts && delay < max; i++ {
		delay *= 2
	}
	if delay > max {
		delay = max
	}
	return delay
}

// notify invokes the state listener outside the client lock
func (c *Client) notify() {
	c.mu.Lock()
	fn := c.listener
	state := c.state
	attempts := c.attempts
	errText := c.lastErr
	c.mu.Unlock()

	if fn != nil {
		fn(state, attempts, errText)
	}
}

package uiws

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/Cheese-chess-coach/pkg/chessdto"
)

var ErrNotConnected = errors.New("uiws: not connected")

type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateFailed
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type EventCallback func(ev *chessdto.Event)

type StateCallback func(state ConnState)

type HeaderProvider func() map[string]string

const (
	dialTimeout       = 10 * time.Second
	pingTimeout       = 3 * time.Second
	maxReconnectDelay = 30 * time.Second
)

// Client is a board client that reconnects on failure and keeps the
// connection alive with pings.
type Client struct {
	url string

	connMu sync.Mutex
	conn   *websocket.Conn

	stateMu sync.RWMutex
	state   ConnState

	cbMu     sync.RWMutex
	nextID   int
	eventCbs map[int]EventCallback
	stateCbs map[int]StateCallback

	maxReconnects  int
	reconnectDelay time.Duration
	pingInterval   time.Duration
	headers        HeaderProvider

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc
}

type ClientOption func(*Client)

func WithPingInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.pingInterval = d
		}
	}
}

func WithHeaderProvider(h HeaderProvider) ClientOption {
	return func(c *Client) { c.headers = h }
}

func NewClient(url string, maxReconnects int, reconnectDelay time.Duration, opts ...ClientOption) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		url:            url,
		state:          StateDisconnected,
		eventCbs:       make(map[int]EventCallback),
		stateCbs:       make(map[int]StateCallback),
		maxReconnects:  maxReconnects,
		reconnectDelay: reconnectDelay,
		pingInterval:   30 * time.Second,
		stopCh:         make(chan struct{}),
		rootCtx:        ctx,
		rootCancel:     cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) State() ConnState {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

func (c *Client) Connect(ctx context.Context) error {
	if s := c.State(); s == StateConnected || s == StateConnecting {
		return nil
	}
	c.setState(StateConnecting)
	conn, err := c.dial(ctx)
	if err != nil {
		c.setState(StateFailed)
		c.scheduleReconnect()
		return err
	}
	c.attach(conn)
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, c.url, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      c.buildHeaders(),
	})
	return conn, err
}

func (c *Client) attach(conn *websocket.Conn) {
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	c.setState(StateConnected)

	c.wg.Add(2)
	go c.listen(conn)
	go c.pingLoop(conn)
}

// Send writes one command to the server.
func (c *Client) Send(ctx context.Context, cmd chessdto.Command) error {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn == nil || c.State() != StateConnected {
		return ErrNotConnected
	}
	return wsjson.Write(ctx, conn, cmd)
}

func (c *Client) listen(conn *websocket.Conn) {
	defer c.wg.Done()
	for {
		var ev chessdto.Event
		if err := wsjson.Read(c.rootCtx, conn, &ev); err != nil {
			if c.isStopping() {
				return
			}
			c.dropConn(conn, websocket.StatusGoingAway, "reconnect")
			return
		}
		c.cbMu.RLock()
		callbacks := make([]EventCallback, 0, len(c.eventCbs))
		for _, cb := range c.eventCbs {
			callbacks = append(callbacks, cb)
		}
		c.cbMu.RUnlock()
		for _, cb := range callbacks {
			cb(&ev)
		}
	}
}

func (c *Client) pingLoop(conn *websocket.Conn) {
	defer c.wg.Done()
	t := time.NewTicker(c.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-c.stopCh:
			return
		case <-t.C:
			c.connMu.Lock()
			current := c.conn
			c.connMu.Unlock()
			if current != conn {
				return
			}
			ctx, cancel := context.WithTimeout(c.rootCtx, pingTimeout)
			err := conn.Ping(ctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			// 연속 두 번 실패하면 끊고 재연결
			failures++
			if failures >= 2 {
				if c.isStopping() {
					return
				}
				c.dropConn(conn, websocket.StatusGoingAway, "ping failure")
				return
			}
		}
	}
}

// dropConn closes conn if it is still current and starts reconnecting.
func (c *Client) dropConn(conn *websocket.Conn, code websocket.StatusCode, reason string) {
	c.connMu.Lock()
	if c.conn != conn {
		c.connMu.Unlock()
		return
	}
	c.conn = nil
	c.connMu.Unlock()
	_ = conn.Close(code, reason)
	c.setState(StateDisconnected)
	c.scheduleReconnect()
}

func (c *Client) scheduleReconnect() {
	if c.maxReconnects <= 0 || c.isStopping() {
		return
	}
	c.setState(StateReconnecting)
	go func() {
		for attempt := 1; attempt <= c.maxReconnects; attempt++ {
			select {
			case <-c.stopCh:
				return
			case <-time.After(reconnectBackoff(c.reconnectDelay, attempt)):
			}
			conn, err := c.dial(c.rootCtx)
			if err != nil {
				continue
			}
			c.attach(conn)
			return
		}
		c.setState(StateFailed)
	}()
}

func reconnectBackoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 8 {
		attempt = 8
	}
	d := base << (attempt - 1)
	if d > maxReconnectDelay {
		d = maxReconnectDelay
	}
	return d
}

func (c *Client) OnEvent(cb EventCallback) int {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.nextID++
	c.eventCbs[c.nextID] = cb
	return c.nextID
}

func (c *Client) RemoveEventCallback(id int) {
	c.cbMu.Lock()
	delete(c.eventCbs, id)
	c.cbMu.Unlock()
}

func (c *Client) OnStateChange(cb StateCallback) int {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.nextID++
	c.stateCbs[c.nextID] = cb
	return c.nextID
}

func (c *Client) RemoveStateCallback(id int) {
	c.cbMu.Lock()
	delete(c.stateCbs, id)
	c.cbMu.Unlock()
}

func (c *Client) setState(state ConnState) {
	c.stateMu.Lock()
	c.state = state
	c.stateMu.Unlock()

	c.cbMu.RLock()
	callbacks := make([]StateCallback, 0, len(c.stateCbs))
	for _, cb := range c.stateCbs {
		callbacks = append(callbacks, cb)
	}
	c.cbMu.RUnlock()
	for _, cb := range callbacks {
		cb(state)
	}
}

// Close stops reconnecting, closes the connection and waits for the
// background loops or ctx, whichever comes first.
func (c *Client) Close(ctx context.Context) error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.connMu.Lock()
	conn := c.conn
	c.conn = nil
	c.connMu.Unlock()
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "close")
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		c.rootCancel()
		c.setState(StateDisconnected)
		return nil
	}
}

func (c *Client) isStopping() bool {
	select {
	case <-c.stopCh:
		return true
	default:
		return false
	}
}

func (c *Client) buildHeaders() http.Header {
	hdr := http.Header{}
	if c.headers == nil {
		return hdr
	}
	for k, v := range c.headers() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		hdr.Set(k, v)
	}
	return hdr
}

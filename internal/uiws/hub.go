package uiws

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/Cheese-chess-coach/pkg/chessdto"
)

const (
	defaultSendBuffer   = 32
	defaultWriteTimeout = 5 * time.Second
)

// CommandHandler answers one inbound board command. The returned events go
// to the sending client only; broadcast updates travel through Publish.
type CommandHandler interface {
	HandleCommand(ctx context.Context, gameID string, cmd chessdto.Command) []chessdto.Event
}

type CommandHandlerFunc func(ctx context.Context, gameID string, cmd chessdto.Command) []chessdto.Event

func (f CommandHandlerFunc) HandleCommand(ctx context.Context, gameID string, cmd chessdto.Command) []chessdto.Event {
	return f(ctx, gameID, cmd)
}

type client struct {
	gameID string
	conn   *websocket.Conn
	send   chan chessdto.Event
}

// Hub keeps the websocket clients of every board, grouped by game id.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
	closed  bool

	handler        CommandHandler
	logger         *zap.Logger
	sendBuffer     int
	writeTimeout   time.Duration
	originPatterns []string
}

type HubOption func(*Hub)

func WithSendBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

func WithWriteTimeout(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

// WithOriginPatterns allows cross-origin board pages, e.g. "localhost:*".
func WithOriginPatterns(patterns ...string) HubOption {
	return func(h *Hub) { h.originPatterns = append(h.originPatterns, patterns...) }
}

func NewHub(handler CommandHandler, logger *zap.Logger, opts ...HubOption) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		clients:      make(map[string]map[*client]struct{}),
		handler:      handler,
		logger:       logger,
		sendBuffer:   defaultSendBuffer,
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetHandler installs the command handler after construction, for wiring
// where the handler itself needs the hub.
func (h *Hub) SetHandler(handler CommandHandler) {
	h.mu.Lock()
	h.handler = handler
	h.mu.Unlock()
}

// Publish queues ev for every client of gameID. It never blocks: a client
// whose buffer is full misses the event.
func (h *Hub) Publish(gameID string, ev chessdto.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[gameID] {
		select {
		case c.send <- ev:
		default:
			h.logger.Warn("ws_event_dropped",
				zap.String("game_id", gameID),
				zap.String("command", ev.Command),
			)
		}
	}
}

func (h *Hub) Clients(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[gameID])
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	set, ok := h.clients[c.gameID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.gameID] = set
	}
	set[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.gameID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.gameID)
	}
	close(c.send)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*websocket.Conn, 0)
	for _, set := range h.clients {
		for c := range set {
			conns = append(conns, c.conn)
		}
	}
	h.mu.Unlock()
	for _, conn := range conns {
		_ = conn.Close(websocket.StatusGoingAway, "server shutdown")
	}
}

// ServeHTTP upgrades GET /ws?game=<id> and runs the client until it leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	gameID := strings.TrimSpace(r.URL.Query().Get("game"))
	if gameID == "" {
		http.Error(w, "missing game parameter", http.StatusBadRequest)
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		OriginPatterns:  h.originPatterns,
	})
	if err != nil {
		h.logger.Warn("ws_accept_failed", zap.String("game_id", gameID), zap.Error(err))
		return
	}

	c := &client{gameID: gameID, conn: conn, send: make(chan chessdto.Event, h.sendBuffer)}
	if !h.register(c) {
		_ = conn.Close(websocket.StatusGoingAway, "server shutdown")
		return
	}
	h.logger.Debug("ws_client_connected", zap.String("game_id", gameID))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writeLoop(ctx, c)
	}()

	h.readLoop(ctx, c)

	h.unregister(c)
	cancel()
	<-done
	_ = conn.Close(websocket.StatusNormalClosure, "")
	h.logger.Debug("ws_client_disconnected", zap.String("game_id", gameID))
}

func (h *Hub) readLoop(ctx context.Context, c *client) {
	for {
		var cmd chessdto.Command
		if err := wsjson.Read(ctx, c.conn, &cmd); err != nil {
			if !isNormalClose(err) {
				h.logger.Debug("ws_read_end", zap.String("game_id", c.gameID), zap.Error(err))
			}
			return
		}
		h.mu.RLock()
		handler := h.handler
		h.mu.RUnlock()
		if handler == nil {
			continue
		}
		for _, ev := range handler.HandleCommand(ctx, c.gameID, cmd) {
			select {
			case c.send <- ev:
			default:
				h.logger.Warn("ws_reply_dropped", zap.String("game_id", c.gameID), zap.String("command", ev.Command))
			}
		}
	}
}

func (h *Hub) writeLoop(ctx context.Context, c *client) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-c.send:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, h.writeTimeout)
			err := wsjson.Write(wctx, c.conn, ev)
			cancel()
			if err != nil {
				h.logger.Debug("ws_write_failed", zap.String("game_id", c.gameID), zap.Error(err))
				_ = c.conn.Close(websocket.StatusInternalError, "write failed")
				return
			}
		}
	}
}

func isNormalClose(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}

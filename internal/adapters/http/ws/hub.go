// Package ws pushes pace reports to websocket subscribers whenever the cohort
// is reloaded.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/questpace/internal/domain/model"
	"github.com/okian/questpace/internal/domain/types"
	"github.com/okian/questpace/pkg/logger"
	"github.com/okian/questpace/pkg/metrics"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong before treating the connection
	// as dead.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	sendBufSize  = 4
	readLimit    = 512
	readBufSize  = 1024
	writeBufSize = 16 * 1024
)

// Message events.
const (
	EventReport = "report"
	EventError  = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  readBufSize,
	WriteBufferSize: writeBufSize,
	// Origin checks belong to the reverse proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Analyzer builds the report a subscriber asked for.
type Analyzer interface {
	Analyze(ctx context.Context, f model.Filter, mode string) (types.Report, error)
}

// Message is the JSON envelope sent to subscribers.
type Message struct {
	Event string        `json:"event"`
	Data  *types.Report `json:"data,omitempty"`
	Error string        `json:"error,omitempty"`
}

// Hub tracks subscribers and pushes each one its own report.
type Hub struct {
	analyzer Analyzer
	logger   logger.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// client is one connected subscriber.
type client struct {
	conn   *websocket.Conn
	send   chan []byte
	filter model.Filter
	mode   string
}

func (c *client) key() string {
	return fmt.Sprintf("%+v|%s", c.filter, c.mode)
}

// Option applies a configuration option to the Hub.
type Option func(*Hub)

// WithLogger sets the hub's logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates a Hub that asks analyzer for reports.
func New(analyzer Analyzer, opts ...Option) *Hub {
	h := &Hub{
		analyzer: analyzer,
		clients:  make(map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Get().Named("ws")
	}
	return h
}

// Run blocks until ctx is cancelled, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Serve upgrades the connection and subscribes it to reports for f and mode.
// The current report is sent right away. Serve blocks until the connection
// closes.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, f model.Filter, mode string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{
		conn:   conn,
		send:   make(chan []byte, sendBufSize),
		filter: f,
		mode:   mode,
	}
	h.register(c)
	defer h.unregister(c)

	h.deliver(map[*client][]byte{c: h.buildMessage(r.Context(), f, mode)})

	go c.writePump()
	c.readPump()
}

// Notify recomputes every subscriber's report and pushes it. Subscribers that
// share a filter and mode share one analysis.
func (h *Hub) Notify(ctx context.Context) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	built := make(map[string][]byte)
	msgs := make(map[*client][]byte, len(targets))
	for _, c := range targets {
		k := c.key()
		data, ok := built[k]
		if !ok {
			data = h.buildMessage(ctx, c.filter, c.mode)
			built[k] = data
		}
		msgs[c] = data
	}
	h.deliver(msgs)
	h.logger.Debug(ctx, "reports pushed",
		logger.Int("subscribers", len(targets)),
		logger.Int("analyses", len(built)))
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.UpdateWSClients(n)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.UpdateWSClients(n)
}

// deliver queues msgs under the read lock so no send channel is closed
// mid-send. Subscribers with a full buffer are dropped afterwards.
func (h *Hub) deliver(msgs map[*client][]byte) {
	var slow []*client
	h.mu.RLock()
	for c, data := range msgs {
		if _, ok := h.clients[c]; !ok || data == nil {
			continue
		}
		select {
		case c.send <- data:
			metrics.RecordWSMessage()
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn(context.Background(), "dropping slow subscriber")
		h.unregister(c)
	}
}

func (h *Hub) buildMessage(ctx context.Context, f model.Filter, mode string) []byte {
	msg := Message{Event: EventReport}
	report, err := h.analyzer.Analyze(ctx, f, mode)
	if err != nil {
		msg = Message{Event: EventError, Error: err.Error()}
	} else {
		msg.Data = &report
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error(ctx, "failed to encode report", logger.Error(err))
		return nil
	}
	return data
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	h.mu.Unlock()
	metrics.UpdateWSClients(0)
}

// writePump forwards queued messages and sends pings. One per client.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump handles pong and close frames. Blocks until the connection closes.
func (c *client) readPump() {
	defer func() { _ = c.conn.Close() }()
	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

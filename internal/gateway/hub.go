package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/roach88/mobtimer/internal/engine"
)

// Enqueuer accepts commands for the engine. *engine.Engine implements it.
type Enqueuer interface {
	Enqueue(engine.Command) bool
}

// Config holds WebSocket connection settings.
type Config struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBuffer      int

	// AllowedOrigins lists Origin values accepted on upgrade. "*" allows any.
	AllowedOrigins []string
}

// DefaultConfig returns default WebSocket configuration.
func DefaultConfig() Config {
	return Config{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  64 * 1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBuffer:      256,
		AllowedOrigins:  []string{"*"},
	}
}

// replay slots, written to new clients in this order.
const (
	slotConfig = iota
	slotRotated
	slotTimer
	slotPhase
	numSlots
)

// Hub fans engine events out to WebSocket clients and feeds their commands
// back to the engine.
type Hub struct {
	cmds     Enqueuer
	config   Config
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]bool
	latest  [numSlots][]byte
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// NewHub creates a hub that enqueues inbound commands on cmds.
func NewHub(cmds Enqueuer, config Config) *Hub {
	h := &Hub{
		cmds:    cmds,
		config:  config,
		clients: make(map[*client]bool),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  config.ReadBufferSize,
		WriteBufferSize: config.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return slices.Contains(h.config.AllowedOrigins, "*") ||
		slices.Contains(h.config.AllowedOrigins, origin)
}

// HandleEvent broadcasts ev to every client and remembers it for replay.
// Register it with engine.Subscribe.
func (h *Hub) HandleEvent(ev engine.Event) {
	msg, err := engine.MarshalEvent(ev)
	if err != nil {
		slog.Error("failed to marshal event", "event", ev.EventName(), "error", err)
		return
	}

	h.mu.Lock()
	if slot, ok := replaySlot(ev); ok {
		h.latest[slot] = msg
	}
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.Unlock()

	for _, c := range slow {
		slog.Warn("client send buffer full, closing connection", "client_id", c.id)
		h.unregister(c)
		c.conn.Close()
	}
}

func replaySlot(ev engine.Event) (int, bool) {
	switch ev.(type) {
	case engine.ConfigUpdated:
		return slotConfig, true
	case engine.Rotated:
		return slotRotated, true
	case engine.TimerChange:
		return slotTimer, true
	case engine.Started, engine.Paused, engine.TurnEnded:
		return slotPhase, true
	}
	return 0, false
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request to a WebSocket connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		slog.Warn("failed to upgrade WebSocket connection", "error", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, max(h.config.SendBuffer, numSlots)),
		hub:  h,
	}
	h.register(c)

	go c.writePump()
	go c.readPump()

	slog.Info("WebSocket connection established",
		"client_id", c.id,
		"remote", r.RemoteAddr,
	)
}

// register queues the replay and adds c under one lock, so no broadcast can
// slip in between.
func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, msg := range h.latest {
		if msg != nil {
			c.send <- msg
		}
	}
	h.clients[c] = true

	slog.Debug("client registered", "client_id", c.id, "total_clients", len(h.clients))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	close(c.send)

	slog.Info("client unregistered", "client_id", c.id)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.unregister(c)
	}
}

func (c *client) writePump() {
	cfg := c.hub.config
	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.hub.unregister(c)
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				slog.Debug("failed to write message", "client_id", c.id, "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				slog.Debug("failed to send ping", "client_id", c.id, "error", err)
				return
			}
		}
	}
}

func (c *client) readPump() {
	cfg := c.hub.config
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Warn("unexpected WebSocket close", "client_id", c.id, "error", err)
			}
			return
		}
		c.handleMessage(msg)
		c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	}
}

// errorEvent is sent back to a client whose command could not be accepted.
const errorEvent = "error"

func (c *client) handleMessage(msg []byte) {
	cmd, err := engine.DecodeCommand(msg)
	if err != nil {
		slog.Warn("rejected client command", "client_id", c.id, "error", err)
		c.reply(errorEvent, err.Error())
		return
	}
	if !c.hub.cmds.Enqueue(cmd) {
		c.reply(errorEvent, engine.ErrStopped.Error())
		return
	}
	slog.Debug("client command queued", "client_id", c.id, "command", cmd.CommandName())
}

// reply sends a message to this client only. It is dropped if the buffer is
// full or the client is gone.
func (c *client) reply(event string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	msg, err := json.Marshal(engine.EventEnvelope{Event: event, Data: raw})
	if err != nil {
		return
	}

	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	if !c.hub.clients[c] {
		return
	}
	select {
	case c.send <- msg:
	default:
		slog.Debug("dropped reply", "event", event, "client_id", c.id)
	}
}

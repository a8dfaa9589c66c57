package ws

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"hash/fnv"
	"io"
	"sync"
	"time"

	"github.com/Anchal0410/peer-connect/internal/models"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Client is one live connection. A user may hold several.
type Client struct {
	UserID       string
	SupportsGzip bool

	conn      Conn
	writeMu   sync.Mutex
	lastPong  time.Time
	done      chan struct{}
	closeOnce sync.Once
}

// Write sends one frame; writes to a connection are serialised.
func (c *Client) Write(frameType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(frameType, data)
}

func (c *Client) WriteJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Write(websocket.TextMessage, data)
}

func (c *Client) ping(deadline time.Time) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, []byte{}, deadline)
}

func (c *Client) stop() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Envelope is every server-pushed frame.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type HubOptions struct {
	PingInterval time.Duration
	PongTimeout  time.Duration
	// GzipThreshold is the payload size above which gzip clients get a
	// compressed binary frame.
	GzipThreshold int
}

func DefaultHubOptions() HubOptions {
	return HubOptions{PingInterval: 30 * time.Second, PongTimeout: 90 * time.Second, GzipThreshold: 512}
}

const presenceStripes = 64

// Hub manages all active WebSocket connections
type Hub struct {
	clients    map[string]map[*Client]struct{}
	clientsMux sync.RWMutex
	// presence serialises connect and disconnect transitions per user.
	presence   [presenceStripes]sync.Mutex
	opts       HubOptions
	log        *zap.Logger
	stopOnce   sync.Once
	stopChan   chan struct{}
}

// NewHub creates a hub and starts its health checker. Stop it with Close.
func NewHub(opts HubOptions, log *zap.Logger) *Hub {
	def := DefaultHubOptions()
	if opts.PingInterval <= 0 {
		opts.PingInterval = def.PingInterval
	}
	if opts.PongTimeout <= 0 {
		opts.PongTimeout = def.PongTimeout
	}
	if opts.GzipThreshold <= 0 {
		opts.GzipThreshold = def.GzipThreshold
	}
	h := &Hub{
		clients:  make(map[string]map[*Client]struct{}),
		opts:     opts,
		log:      log.Named("ws"),
		stopChan: make(chan struct{}),
	}
	go h.connectionHealthChecker()
	return h
}

func (h *Hub) Options() HubOptions { return h.opts }

// Register adds a connection and starts pinging it.
func (h *Hub) Register(userID string, conn Conn, supportsGzip bool) *Client {
	client := &Client{
		UserID:       userID,
		SupportsGzip: supportsGzip,
		conn:         conn,
		lastPong:     time.Now(),
		done:         make(chan struct{}),
	}

	h.clientsMux.Lock()
	set, ok := h.clients[userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[userID] = set
	}
	set[client] = struct{}{}
	total := len(h.clients)
	h.clientsMux.Unlock()

	go h.pingRoutine(client)
	h.log.Debug("client registered", zap.String("user_id", userID), zap.Int("users", total), zap.Bool("gzip", supportsGzip))
	return client
}

func (h *Hub) presenceLock(userID string) *sync.Mutex {
	sum := fnv.New32a()
	_, _ = sum.Write([]byte(userID))
	return &h.presence[sum.Sum32()%presenceStripes]
}

// Connect registers conn and then runs online. No Disconnect of the same
// user can run in between.
func (h *Hub) Connect(userID string, conn Conn, supportsGzip bool, online func()) *Client {
	mu := h.presenceLock(userID)
	mu.Lock()
	defer mu.Unlock()
	client := h.Register(userID, conn, supportsGzip)
	if online != nil {
		online()
	}
	return client
}

// Disconnect unregisters client and runs offline when the user has no other
// live connection. A client already dropped by the hub is handled the same way.
func (h *Hub) Disconnect(client *Client, offline func()) {
	mu := h.presenceLock(client.UserID)
	mu.Lock()
	defer mu.Unlock()
	h.Unregister(client)
	if !h.IsOnline(client.UserID) && offline != nil {
		offline()
	}
}

// Unregister removes a connection. It reports true when it was the user's
// last one, so the caller can mark the user offline.
func (h *Hub) Unregister(client *Client) bool {
	client.stop()

	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	set, ok := h.clients[client.UserID]
	if !ok {
		return false
	}
	if _, present := set[client]; !present {
		return false
	}
	delete(set, client)
	if len(set) > 0 {
		return false
	}
	delete(h.clients, client.UserID)
	return true
}

// Touch records a pong or any other sign of life.
func (h *Hub) Touch(client *Client) {
	h.clientsMux.Lock()
	client.lastPong = time.Now()
	h.clientsMux.Unlock()
}

// IsOnline checks if a user is connected
func (h *Hub) IsOnline(userID string) bool {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return len(h.clients[userID]) > 0
}

// Count returns the number of connected users.
func (h *Hub) Count() int {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return len(h.clients)
}

func (h *Hub) snapshot(userID string) []*Client {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	out := make([]*Client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		out = append(out, c)
	}
	return out
}

// SendToUser writes data to every connection of userID and returns how many
// accepted it. Connections that fail a write are dropped.
func (h *Hub) SendToUser(userID string, data interface{}) int {
	clients := h.snapshot(userID)
	if len(clients) == 0 {
		return 0
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		h.log.Error("marshal push failed", zap.String("user_id", userID), zap.Error(err))
		return 0
	}

	var compressed []byte
	delivered := 0
	for _, c := range clients {
		frame, frameType := jsonData, websocket.TextMessage
		if c.SupportsGzip && len(jsonData) > h.opts.GzipThreshold {
			if compressed == nil {
				compressed, err = compressData(jsonData)
			}
			if err == nil && len(compressed) < len(jsonData) {
				frame, frameType = compressed, websocket.BinaryMessage
			}
		}
		if err := c.Write(frameType, frame); err != nil {
			h.log.Warn("push failed, dropping connection", zap.String("user_id", userID), zap.Error(err))
			h.drop(c)
			continue
		}
		delivered++
	}
	return delivered
}

// NotifyMessage pushes a new chat message to the recipient. Offline
// recipients are skipped; they read the message from the REST history.
func (h *Hub) NotifyMessage(recipientID string, msg models.MessageResponse) {
	h.SendToUser(recipientID, Envelope{Type: "message", Data: msg})
}

func (h *Hub) drop(c *Client) {
	h.Unregister(c)
	_ = c.conn.Close()
}

// Close stops the health checker and closes every connection.
func (h *Hub) Close() {
	h.stopOnce.Do(func() { close(h.stopChan) })

	h.clientsMux.Lock()
	all := make([]*Client, 0)
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.clients = make(map[string]map[*Client]struct{})
	h.clientsMux.Unlock()

	for _, c := range all {
		c.stop()
		_ = c.conn.Close()
	}
}

// pingRoutine sends periodic ping messages to keep connection alive
func (h *Hub) pingRoutine(client *Client) {
	ticker := time.NewTicker(h.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-client.done:
			return
		case <-h.stopChan:
			return
		case <-ticker.C:
			if err := client.ping(time.Now().Add(10 * time.Second)); err != nil {
				h.log.Debug("ping failed", zap.String("user_id", client.UserID), zap.Error(err))
				h.drop(client)
				return
			}
		}
	}
}

// connectionHealthChecker removes connections that stopped answering pings.
func (h *Hub) connectionHealthChecker() {
	ticker := time.NewTicker(h.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopChan:
			return
		case <-ticker.C:
			h.pruneStale(time.Now())
		}
	}
}

func (h *Hub) pruneStale(now time.Time) int {
	h.clientsMux.RLock()
	dead := make([]*Client, 0)
	for _, set := range h.clients {
		for c := range set {
			if now.Sub(c.lastPong) > h.opts.PongTimeout {
				dead = append(dead, c)
			}
		}
	}
	h.clientsMux.RUnlock()

	for _, c := range dead {
		h.log.Info("removing dead connection", zap.String("user_id", c.UserID))
		h.drop(c)
	}
	return len(dead)
}

func compressData(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	if _, err := gzipWriter.Write(data); err != nil {
		return nil, err
	}
	if err := gzipWriter.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecompressMessage inflates a gzip binary frame sent by a client.
func DecompressMessage(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(io.LimitReader(reader, 1<<20))
}

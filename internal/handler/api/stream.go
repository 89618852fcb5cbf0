package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"SpinSignal/internal/domain/models"
	xlogger "SpinSignal/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	streamPingInterval = 20 * time.Second
	streamReadTimeout  = 60 * time.Second
	streamWriteTimeout = 10 * time.Second
	streamClientBuffer = 64
)

// StreamFrame is one message pushed to dashboard clients.
type StreamFrame struct {
	Kind string      `json:"kind"`
	Data interface{} `json:"data"`
}

// SnapshotFunc returns the current read model for new clients.
type SnapshotFunc func() models.Snapshot

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
	done chan struct{}
}

func (c *streamClient) close() {
	c.once.Do(func() { close(c.done) })
}

// StreamHub pushes bus events to websocket clients. Slow clients whose
// buffer fills up are disconnected.
type StreamHub struct {
	logger   *xlogger.Logger
	snapshot SnapshotFunc
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*streamClient]struct{}
	wg      sync.WaitGroup
}

func NewStreamHub(logger *xlogger.Logger, snapshot SnapshotFunc) *StreamHub {
	return &StreamHub{
		logger:   logger.With("stream"),
		snapshot: snapshot,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*streamClient]struct{}),
	}
}

func (h *StreamHub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/events", h.Serve)
}

func (h *StreamHub) Name() string { return "stream" }

// Handle broadcasts ev to every connected client without blocking.
func (h *StreamHub) Handle(_ context.Context, ev *models.Event) error {
	msg, err := json.Marshal(StreamFrame{Kind: "event", Data: ev})
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("stream client too slow, dropping", xlogger.String("remote", c.conn.RemoteAddr().String()))
			c.close()
		}
	}
	return nil
}

// Clients returns the number of connected clients.
func (h *StreamHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve upgrades the request and streams until the client leaves.
func (h *StreamHub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}

	sc := &streamClient{conn: conn, send: make(chan []byte, streamClientBuffer), done: make(chan struct{})}
	if h.snapshot != nil {
		if msg, err := json.Marshal(StreamFrame{Kind: "snapshot", Data: h.snapshot()}); err == nil {
			sc.send <- msg
		}
	}

	h.mu.Lock()
	h.clients[sc] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("stream client connected", xlogger.String("remote", conn.RemoteAddr().String()))

	h.wg.Add(1)
	go h.writeLoop(sc)
	h.readLoop(sc)

	h.mu.Lock()
	delete(h.clients, sc)
	h.mu.Unlock()
	sc.close()
	return nil
}

// readLoop discards client messages and detects disconnects.
func (h *StreamHub) readLoop(sc *streamClient) {
	sc.conn.SetReadLimit(512)
	_ = sc.conn.SetReadDeadline(time.Now().Add(streamReadTimeout))
	sc.conn.SetPongHandler(func(string) error {
		return sc.conn.SetReadDeadline(time.Now().Add(streamReadTimeout))
	})
	for {
		if _, _, err := sc.conn.ReadMessage(); err != nil {
			return
		}
		select {
		case <-sc.done:
			return
		default:
		}
	}
}

func (h *StreamHub) writeLoop(sc *streamClient) {
	defer h.wg.Done()
	ticker := time.NewTicker(streamPingInterval)
	defer func() {
		ticker.Stop()
		_ = sc.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(streamWriteTimeout))
		_ = sc.conn.Close()
	}()

	for {
		select {
		case <-sc.done:
			return
		case msg := <-sc.send:
			_ = sc.conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := sc.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				sc.close()
				return
			}
		case <-ticker.C:
			if err := sc.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteTimeout)); err != nil {
				sc.close()
				return
			}
		}
	}
}

// Close disconnects every client and waits for their writers.
func (h *StreamHub) Close() {
	h.mu.RLock()
	for c := range h.clients {
		c.close()
	}
	h.mu.RUnlock()
	h.wg.Wait()
}

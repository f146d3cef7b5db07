package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"modelhub/internal/manager"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
	wsSendBuffer = 256
)

// StreamEvent is the JSON frame pushed to websocket clients.
type StreamEvent struct {
	Type      string         `json:"type"`
	Model     string         `json:"model,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// EventStream fans manager events out to websocket clients. It implements
// manager.EventPublisher. A client that cannot keep up is disconnected.
type EventStream struct {
	mu      sync.Mutex
	clients map[string]*eventClient
	closed  bool
}

type eventClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// NewEventStream returns an empty hub.
func NewEventStream() *EventStream {
	return &EventStream{clients: make(map[string]*eventClient)}
}

var _ manager.EventPublisher = (*EventStream)(nil)

// Publish delivers e to every connected client without blocking.
func (s *EventStream) Publish(e manager.Event) {
	b, err := json.Marshal(StreamEvent{
		Type:      e.Name,
		Model:     e.ModelID,
		Data:      e.Fields,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.clients {
		select {
		case c.send <- b:
		default:
			close(c.send)
			delete(s.clients, id)
			eventClients.Dec()
			eventDropsTotal.Inc()
		}
	}
}

// Clients returns the number of connected clients.
func (s *EventStream) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close disconnects all clients and rejects new ones.
func (s *EventStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, c := range s.clients {
		close(c.send)
		delete(s.clients, id)
		eventClients.Dec()
	}
}

func (s *EventStream) register(c *eventClient) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.clients[c.id] = c
	eventClients.Inc()
	return true
}

func (s *EventStream) unregister(c *eventClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c.id]; ok {
		delete(s.clients, c.id)
		close(c.send)
		eventClients.Dec()
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// checkOrigin allows same-host origins, or the configured CORS origins when
// CORS is enabled. Requests without an Origin header are not from browsers.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if corsEnabled {
		return originAllowed(origin)
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// ServeHTTP upgrades the connection and streams events until the client
// disconnects or the hub is closed.
func (s *EventStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an error status
		return
	}
	c := &eventClient{id: uuid.NewString(), conn: conn, send: make(chan []byte, wsSendBuffer)}
	if !s.register(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(wsWriteWait))
		conn.Close()
		return
	}
	if zlog != nil {
		zlog.Debug().Str("client", c.id).Msg("event client connected")
	}
	go c.writePump()
	c.readPump()
	s.unregister(c)
	if zlog != nil {
		zlog.Debug().Str("client", c.id).Msg("event client disconnected")
	}
}

func (c *eventClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client messages and keeps the read deadline fresh on pong.
func (c *eventClient) readPump() {
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

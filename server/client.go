package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/circuitlens/circuitlens/graph"
)

// WebSocket timeout constants following Gorilla best practices
const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 54 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024

	// Grace period for draining the HTTP listener on shutdown
	httpShutdownTimeout = 5 * time.Second
)

// Client is one WebSocket connection.
type Client struct {
	server    *Server
	conn      *websocket.Conn
	send      chan *graph.Graph
	id        string
	closeOnce sync.Once
}

// clientMessage is the inbound WebSocket message shape.
type clientMessage struct {
	Type      string  `json:"type"`
	Threshold float64 `json:"threshold,omitempty"`
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// readPump reads messages from the connection until it closes.
func (c *Client) readPump() {
	defer func() {
		// During shutdown the hub is gone; don't block on it
		select {
		case c.server.unregister <- c:
		case <-c.server.ctx.Done():
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	c.server.logger.Debugw("Read pump started", "client_id", c.id)

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNoStatusReceived,
			) {
				c.server.logger.Warnw("WebSocket read error",
					"client_id", c.id,
					"error", err,
				)
			}
			break
		}

		var msg clientMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			c.server.logger.Warnw("JSON unmarshal error",
				"client_id", c.id,
				"error", err.Error(),
			)
			continue
		}

		c.routeMessage(&msg)
	}
}

// routeMessage dispatches inbound messages. The API surface is HTTP;
// the socket only carries lightweight view controls.
func (c *Client) routeMessage(msg *clientMessage) {
	switch msg.Type {
	case "refresh":
		c.sendProjection()
	case "set_threshold":
		c.handleSetThreshold(msg.Threshold)
	case "ping":
		// Deadline already refreshed by the pong handler
	default:
		c.server.logger.Debugw("Unknown message type",
			"type", msg.Type,
			"client_id", c.id,
		)
	}
}

func (c *Client) sendProjection() {
	c.server.sessionMu.RLock()
	g := c.server.session.Project()
	c.server.sessionMu.RUnlock()

	select {
	case c.send <- g:
	default:
		c.server.logger.Warnw("Client send channel full, dropping refresh",
			"client_id", c.id,
		)
	}
}

func (c *Client) handleSetThreshold(threshold float64) {
	c.server.sessionMu.Lock()
	err := c.server.session.SetThreshold(threshold)
	var g *graph.Graph
	if err == nil {
		g = c.server.session.Project()
	}
	c.server.sessionMu.Unlock()

	if err != nil {
		c.server.logger.Warnw("Rejected threshold update",
			"client_id", c.id,
			"threshold", threshold,
			"error", err,
		)
		return
	}

	c.server.logger.Infow("Threshold changed",
		"client_id", c.id,
		"threshold", threshold,
	)
	c.server.broadcastGraph(g)
}

// writePump writes graph updates and keepalive pings to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	c.server.logger.Debugw("Write pump started", "client_id", c.id)

	for {
		select {
		case <-c.server.ctx.Done():
			return
		case g, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(g); err != nil {
				c.server.logger.Warnw("Graph write error",
					"client_id", c.id,
					"error", err.Error(),
				)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// newUpgrader creates a WebSocket upgrader with origin checking from config
func (s *Server) newUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  2048,
		WriteBufferSize: 2048,
		CheckOrigin:     s.checkOrigin,
	}
}

// checkOrigin validates request origin against configured allowed
// origins. Prefix matching lets any port through on an allowed host.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// Direct WebSocket clients and curl send no origin header
	if origin == "" {
		return true
	}

	allowed := s.cfg.Server.AllowedOrigins
	if len(allowed) == 0 {
		return strings.HasPrefix(origin, "http://localhost") ||
			strings.HasPrefix(origin, "https://localhost")
	}
	for _, a := range allowed {
		if strings.HasPrefix(origin, a) {
			return true
		}
	}
	return false
}

// HandleWebSocket upgrades the connection and starts the pumps.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := s.newUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("WebSocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		server: s,
		conn:   conn,
		send:   make(chan *graph.Graph, 16),
		id:     uuid.NewString(),
	}

	select {
	case s.register <- client:
	case <-s.ctx.Done():
		conn.Close()
		return
	}

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		client.readPump()
	}()
	go func() {
		defer s.wg.Done()
		client.writePump()
	}()
}

package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/MeKo-Tech/lapse/internal/workload"
	"github.com/gorilla/websocket"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin in development
		// In production, you should check against allowed origins
		return true
	},
}

// WebSocketMessage represents a message sent over WebSocket.
type WebSocketMessage struct {
	Type    string            `json:"type"`
	Updated string            `json:"updated,omitempty"`
	Results []workload.Result `json:"results,omitempty"`
}

// reportWebSocketHandler streams a snapshot frame to the client whenever
// the feed refreshes.
func (s *Server) reportWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)

	updates, cancel := s.feed.Subscribe()
	defer cancel()

	// Drain client frames so close and pong handling work; the stream is
	// one-directional otherwise.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		})
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			websocketMessagesTotal.WithLabelValues("received").Inc()
		}
	}()

	// Send the current snapshot right away so clients do not wait a full
	// refresh interval for their first frame.
	if results, updated := s.feed.Results(); results != nil {
		if err := writeSnapshot(conn, results, updated); err != nil {
			return
		}
	}

	pings := time.NewTicker(30 * time.Second)
	defer pings.Stop()

	for {
		select {
		case <-done:
			return
		case results := <-updates:
			_, updated := s.feed.Results()
			if err := writeSnapshot(conn, results, updated); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					slog.Error("WebSocket error", "error", err)
				}
				return
			}
		case <-pings.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}
}

func writeSnapshot(conn *websocket.Conn, results []workload.Result, updated time.Time) error {
	msg := WebSocketMessage{
		Type:    "snapshot",
		Updated: updated.UTC().Format(time.RFC3339),
		Results: results,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
	return conn.WriteMessage(websocket.TextMessage, data)
}

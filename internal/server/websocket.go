package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"time"

	"github.com/MeKo-Tech/labelscan/internal/frame"
	"github.com/gorilla/websocket"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin in development
		return true
	},
}

// WebSocketScanRequest is one frame submitted over the websocket stream.
// Image carries an encoded JPEG or PNG; RotationDegrees is the clockwise
// sensor rotation to undo before processing.
type WebSocketScanRequest struct {
	Image           []byte `json:"image"`
	RotationDegrees int    `json:"rotation_degrees,omitempty"`
}

// WebSocketScanResponse is the reply sent for each submitted frame.
type WebSocketScanResponse struct {
	Type   string        `json:"type"`
	Status string        `json:"status"` // "completed" or "error"
	Result *ScanResponse `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// scanWebSocketHandler streams frames in and scan results out over a single
// connection, so a viewfinder can submit frames continuously. The
// orchestrator's own throttle decides which frames actually run.
func (s *Server) scanWebSocketHandler(w http.ResponseWriter, r *http.Request) {
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
	s.handleWebSocketConnection(r, conn)
}

// handleWebSocketConnection processes frames from a websocket connection.
func (s *Server) handleWebSocketConnection(r *http.Request, conn *websocket.Conn) {
	// Read deadline prevents hanging connections.
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Keep the connection alive between frames.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			break
		}

		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleWebSocketFrame(r, conn, data)
		}
	}
}

// handleWebSocketFrame runs the pipeline on one submitted frame.
func (s *Server) handleWebSocketFrame(r *http.Request, conn *websocket.Conn, data []byte) {
	var req WebSocketScanRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, fmt.Sprintf("Failed to parse request: %v", err))
		return
	}
	if len(req.Image) == 0 {
		s.sendWebSocketError(conn, "No image data provided")
		return
	}

	img, _, err := image.Decode(bytes.NewReader(req.Image))
	if err != nil {
		scanRequestsTotal.WithLabelValues("websocket", "error").Inc()
		s.sendWebSocketError(conn, fmt.Sprintf("Failed to decode image: %v", err))
		return
	}

	buf := frame.BufferFromImage(img)
	result := s.orchestrator.Run(r.Context(), buf, req.RotationDegrees, time.Now())
	scanRequestsTotal.WithLabelValues("websocket", "success").Inc()

	resp := toScanResponse(result)
	s.sendWebSocketResponse(conn, WebSocketScanResponse{
		Type:   "scan_response",
		Status: "completed",
		Result: &resp,
	})
}

// sendWebSocketResponse sends a response message over the connection.
func (s *Server) sendWebSocketResponse(conn *websocket.Conn, response WebSocketScanResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendWebSocketError sends an error message over the connection.
func (s *Server) sendWebSocketError(conn *websocket.Conn, message string) {
	s.sendWebSocketResponse(conn, WebSocketScanResponse{
		Type:   "error",
		Status: "error",
		Error:  message,
	})
}

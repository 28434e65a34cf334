package handlers

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/noteduco342/wavechat-backend/internal/handlers/ws"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
	writeWait  = 10 * time.Second
)

// WebSocketHandler owns the read side of each connection: it assigns the
// connection id, registers the conn in the hub, pumps inbound frames into
// the engine and tears the session down on exit.
type WebSocketHandler struct {
	engine *ws.Engine
}

func NewWebSocketHandler(engine *ws.Engine) *WebSocketHandler {
	return &WebSocketHandler{engine: engine}
}

func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	connID := uuid.NewString()
	wsDebug := os.Getenv("WS_DEBUG") == "true"

	// Check if client supports gzip compression (via query param or header)
	supportsGzip := c.Query("gzip") == "1" || c.Headers("X-Supports-Gzip") == "1"

	h.engine.Hub().Register(connID, c, supportsGzip)

	_ = c.SetReadDeadline(time.Now().Add(pongWait))
	c.SetPongHandler(func(string) error {
		_ = c.SetReadDeadline(time.Now().Add(pongWait))
		h.engine.RefreshPresence(connID)
		return nil
	})

	// Keepalive pings. The conn's writer is not safe for concurrent use,
	// but WriteControl is.
	pingDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-pingDone:
				return
			case <-ticker.C:
				deadline := time.Now().Add(writeWait)
				if err := c.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}
			}
		}
	}()

	defer func() {
		close(pingDone)
		h.engine.Disconnect(connID)
		h.engine.Hub().Unregister(connID)
	}()

	log.Printf("Connection %s established", connID)

	for {
		messageType, messageBytes, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Error reading from connection %s: %v", connID, err)
			}
			break
		}

		if wsDebug {
			log.Printf("ws_recv conn_id=%s frame_type=%d size=%d", connID, messageType, len(messageBytes))
		}

		// Binary frames are gzip-compressed envelopes.
		if messageType == websocket.BinaryMessage {
			decompressed, err := ws.DecompressMessage(messageBytes)
			if err != nil {
				log.Printf("Error decompressing frame from connection %s: %v", connID, err)
				continue
			}
			messageBytes = decompressed
		}

		h.engine.HandleFrame(connID, messageBytes)
	}

	log.Printf("Connection %s closed", connID)
}
